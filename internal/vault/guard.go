package vault

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/mercuri-finance/mercuri-protocol/internal/metrics"
)

// stateSnapshot captures the vault's mutable bookkeeping so a failed
// operation can roll it back. External calls that already executed are not
// undone; the snapshot guarantees the vault's own ledger and lifecycle
// state never reflect a partially completed operation.
type stateSnapshot struct {
	positionID  uint64
	manager     common.Address
	accruedFee0 sdkmath.Int
	accruedFee1 sdkmath.Int
	unwrap      bool
}

func (v *Vault) capture() stateSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return stateSnapshot{
		positionID:  v.positionID,
		manager:     v.manager,
		accruedFee0: v.accruedFee0,
		accruedFee1: v.accruedFee1,
		unwrap:      v.unwrapWNative,
	}
}

func (v *Vault) restore(snap stateSnapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.positionID = snap.positionID
	v.manager = snap.manager
	v.accruedFee0 = snap.accruedFee0
	v.accruedFee1 = snap.accruedFee1
	v.unwrapWNative = snap.unwrap
}

// begin takes the single-flight sentinel. A second entry while an
// operation is in flight is a reentrancy attempt, including reentry
// through a collaborator callback mid-operation.
func (v *Vault) begin(op string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.busy {
		metrics.IncReentrancyRejected(op)
		return fmt.Errorf("%w: %s", ErrReentrant, op)
	}
	v.busy = true
	return nil
}

func (v *Vault) end() {
	v.mu.Lock()
	v.busy = false
	v.mu.Unlock()
}

// commit replaces the in-flight rollback target with the current state.
// Called after a step whose external effects cannot be undone (the
// position burn): a later failure in the same operation must not roll the
// bookkeeping back past that step.
func (v *Vault) commit() {
	v.inflight = v.capture()
}

// run executes one guarded operation as an atomic unit: single-flight
// sentinel, state snapshot, and rollback of the vault's bookkeeping on any
// failure. The sentinel is not held as a lock across fn; a nested guarded
// call observes busy and fails with ErrReentrant instead of deadlocking.
func (v *Vault) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := v.begin(op); err != nil {
		return err
	}
	defer v.end()

	v.inflight = v.capture()
	if err := fn(ctx); err != nil {
		v.restore(v.inflight)
		metrics.IncOperation(op, "error")
		v.log.Error().Err(err).Str("op", op).Msg("Vault operation failed, state rolled back")
		return err
	}
	metrics.IncOperation(op, "ok")
	return nil
}
