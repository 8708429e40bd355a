package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercuri-finance/mercuri-protocol/internal/state"
	"github.com/mercuri-finance/mercuri-protocol/internal/types"
)

type stubStatus struct {
	status types.VaultStatus
}

func (s stubStatus) Status() types.VaultStatus { return s.status }

type stubEvents struct {
	events []state.StoredEvent
	err    error
}

func (s stubEvents) RecentEvents(limit int) ([]state.StoredEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.events) {
		return s.events[:limit], nil
	}
	return s.events, nil
}

func newTestServer(events stubEvents) *WebServer {
	status := types.VaultStatus{
		Owner:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
		PositionID: 42,
		Active:     true,
		ObservedAt: time.Now().UTC(),
	}
	return NewWebServer("0", stubStatus{status: status}, events)
}

func TestHandleVaultStatus(t *testing.T) {
	ws := newTestServer(stubEvents{})

	req := httptest.NewRequest(http.MethodGet, "/api/vault/status", nil)
	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got types.VaultStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint64(42), got.PositionID)
	assert.True(t, got.Active)
}

func TestHandleVaultEvents(t *testing.T) {
	ws := newTestServer(stubEvents{events: []state.StoredEvent{
		{EventID: "a", Kind: "DEPOSIT"},
		{EventID: "b", Kind: "WITHDRAW"},
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/vault/events?limit=1", nil)
	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Count  int                `json:"count"`
		Events []state.StoredEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Count)
}

func TestHandleVaultEventsBadLimit(t *testing.T) {
	ws := newTestServer(stubEvents{})

	for _, q := range []string{"limit=0", "limit=-1", "limit=9999", "limit=abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/vault/events?"+q, nil)
		rec := httptest.NewRecorder()
		ws.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestHandleVaultEventsSourceFailure(t *testing.T) {
	ws := newTestServer(stubEvents{err: errors.New("db down")})

	req := httptest.NewRequest(http.MethodGet, "/api/vault/events", nil)
	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealth(t *testing.T) {
	ws := newTestServer(stubEvents{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
