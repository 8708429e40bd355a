package state_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercuri-finance/mercuri-protocol/internal/state"
	"github.com/mercuri-finance/mercuri-protocol/internal/types"
)

type fakeSaver struct {
	saved []types.VaultStatus
}

func (f *fakeSaver) SaveSnapshot(status types.VaultStatus) error {
	f.saved = append(f.saved, status)
	return nil
}

type fakeStatus struct {
	status types.VaultStatus
}

func (f *fakeStatus) Status() types.VaultStatus {
	return f.status
}

func TestSnapshotRecorderPersistsOnEveryNotification(t *testing.T) {
	saver := &fakeSaver{}
	recorder := state.NewSnapshotRecorder(saver)
	recorder.Bind(&fakeStatus{status: types.VaultStatus{PositionID: 42, Active: true}})

	recorder.Notify(context.Background(), types.Notification{Kind: types.NotifyDeposit})
	recorder.Notify(context.Background(), types.Notification{Kind: types.NotifyPositionClosed})

	require.Len(t, saver.saved, 2)
	assert.Equal(t, uint64(42), saver.saved[0].PositionID)
}

func TestSnapshotRecorderDropsNotificationsBeforeBind(t *testing.T) {
	saver := &fakeSaver{}
	recorder := state.NewSnapshotRecorder(saver)

	recorder.Notify(context.Background(), types.Notification{Kind: types.NotifyDeposit})

	assert.Empty(t, saver.saved)
}
