package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/mercuri-finance/mercuri-protocol/internal/logger"
	"github.com/mercuri-finance/mercuri-protocol/internal/types"
)

var journalLogger = logger.GetForComponent("state_journal")

// Journal persists vault notifications and status snapshots. It is
// observability and recovery tooling only: the vault never reads
// authorization or fee data back from it.
type Journal struct {
	vaultAddress common.Address
}

// NewJournal creates a journal bound to one vault address.
func NewJournal(vaultAddress common.Address) *Journal {
	return &Journal{vaultAddress: vaultAddress}
}

// Notify implements the vault's Notifier: each notification becomes one
// append-only event row. Persistence failures are logged, never surfaced,
// so a database outage cannot fail a vault operation.
func (j *Journal) Notify(_ context.Context, n types.Notification) {
	if DB == nil {
		return
	}

	payload, err := json.Marshal(n)
	if err != nil {
		journalLogger.Error().Err(err).Str("kind", string(n.Kind)).Msg("Failed to marshal notification")
		return
	}

	stmt := `INSERT INTO vault_events (event_id, vault_address, kind, payload) VALUES ($1, $2, $3, $4);`
	if _, err := DB.Exec(stmt, uuid.NewString(), j.vaultAddress.Hex(), string(n.Kind), payload); err != nil {
		journalLogger.Error().Err(err).Str("kind", string(n.Kind)).Msg("Failed to persist vault event")
	}
}

// SaveSnapshot records the vault's persisted surface after a successful
// operation.
func (j *Journal) SaveSnapshot(status types.VaultStatus) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	fees := status.AccruedFees.Normalize()
	stmt := `
		INSERT INTO vault_snapshots
			(vault_address, owner_address, manager_address, position_id,
			 accrued_fee0, accrued_fee1, unwrap_wnative, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	_, err := DB.Exec(stmt,
		j.vaultAddress.Hex(),
		status.Owner.Hex(),
		status.Manager.Hex(),
		int64(status.PositionID),
		fees.Amount0.String(),
		fees.Amount1.String(),
		status.UnwrapWNative,
		status.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save vault snapshot: %w", err)
	}
	return nil
}

// SnapshotSaver persists one vault status snapshot.
type SnapshotSaver interface {
	SaveSnapshot(status types.VaultStatus) error
}

// StatusSource is the read-only vault surface the recorder mirrors.
type StatusSource interface {
	Status() types.VaultStatus
}

// SnapshotRecorder persists a status snapshot after every notification,
// keeping the snapshot table in step with the event journal. The status
// source is bound after vault construction; notifications arriving before
// that are dropped. Persistence failures are logged, never surfaced.
type SnapshotRecorder struct {
	saver SnapshotSaver

	mu     sync.RWMutex
	source StatusSource
}

// NewSnapshotRecorder creates a recorder writing through the given saver.
func NewSnapshotRecorder(saver SnapshotSaver) *SnapshotRecorder {
	return &SnapshotRecorder{saver: saver}
}

// Bind attaches the status source the recorder snapshots from.
func (r *SnapshotRecorder) Bind(source StatusSource) {
	r.mu.Lock()
	r.source = source
	r.mu.Unlock()
}

// Notify implements the vault's Notifier.
func (r *SnapshotRecorder) Notify(_ context.Context, _ types.Notification) {
	r.mu.RLock()
	source := r.source
	r.mu.RUnlock()
	if source == nil {
		return
	}
	if err := r.saver.SaveSnapshot(source.Status()); err != nil {
		journalLogger.Error().Err(err).Msg("Failed to persist vault snapshot")
	}
}

// StoredEvent is one journal row as served by the dashboard.
type StoredEvent struct {
	EventID   string             `json:"event_id"`
	Kind      string             `json:"kind"`
	Payload   types.Notification `json:"payload"`
	CreatedAt time.Time          `json:"created_at"`
}

// RecentEvents returns the newest events for the journal's vault, newest
// first.
func (j *Journal) RecentEvents(limit int) ([]StoredEvent, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	stmt := `
		SELECT event_id, kind, payload, created_at
		FROM vault_events
		WHERE vault_address = $1
		ORDER BY created_at DESC
		LIMIT $2;`
	rows, err := DB.Query(stmt, j.vaultAddress.Hex(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query vault events: %w", err)
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var event StoredEvent
		var payload []byte
		if err := rows.Scan(&event.EventID, &event.Kind, &payload, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vault event: %w", err)
		}
		if err := json.Unmarshal(payload, &event.Payload); err != nil {
			journalLogger.Warn().Err(err).Str("event_id", event.EventID).Msg("Skipping undecodable event payload")
			continue
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
