package vault

import (
	"context"
	"fmt"
	"math/big"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/mercuri-finance/mercuri-protocol/internal/engine"
	"github.com/mercuri-finance/mercuri-protocol/internal/metrics"
	"github.com/mercuri-finance/mercuri-protocol/internal/types"
)

// maxCollectAmount is the engine's uint128 ceiling, used to collect the
// full owed balance.
var maxCollectAmount = sdkmath.NewIntFromBigInt(
	new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1)),
)

// teardownDeadlineMargin is the validity window given to the decrease-all
// transaction. The engine's deadline check rejects a zero deadline, so the
// teardown must always send a live one.
const teardownDeadlineMargin = 5 * time.Minute

// ClosePosition runs the full teardown on the vault's position. The
// proceeds stay in the vault balance; only WithdrawAll moves them to the
// owner.
func (v *Vault) ClosePosition(ctx context.Context, caller common.Address) error {
	return v.run(ctx, "close_position", func(ctx context.Context) error {
		if _, err := v.authorize(ctx, caller, classDelegated); err != nil {
			return err
		}
		if v.PositionID() == 0 {
			return fmt.Errorf("%w: no active position to close", ErrInvalidState)
		}
		return v.teardown(ctx)
	})
}

// teardown executes the canonical four-step sequence that isolates
// swap-fee income from principal:
//
//  1. collect while liquidity is still nonzero: proceeds are swap fees
//     only, added to the ledger
//  2. apply the performance fee to the ledger and drain it
//  3. decrease 100% of remaining liquidity, moving principal into the
//     owed balance
//  4. collect again: with liquidity at zero the proceeds are principal
//     (plus late fee residue) and are not fee-taxed
//
// Running step 3 before step 1 would mix principal into the fee base;
// applying the fee after step 3 would let the caller bypass it. The order
// is canonical and must not be changed.
//
// Callers hold the single-flight guard and have verified an active
// position exists.
func (v *Vault) teardown(ctx context.Context) error {
	tokenID := v.PositionID()

	snapshot, err := v.liquidity.Position(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("position snapshot: %w", err)
	}
	hadLiquidity := isPositive(snapshot.Liquidity)

	// Step 1: collect-while-active. Only meaningful while liquidity is
	// observed nonzero immediately before the call.
	if hadLiquidity {
		fees, err := v.collectAll(ctx, tokenID)
		if err != nil {
			return fmt.Errorf("collect while active: %w", err)
		}
		v.ledgerAdd(fees)
	}

	// Step 2: apply the performance fee to swap-fee income only.
	if err := v.applyPerformanceFee(ctx, tokenID); err != nil {
		return err
	}

	// Step 3: remove all remaining liquidity. No minimum-output floor
	// here: an emergency exit must always succeed, so price risk on this
	// single step is accepted.
	if hadLiquidity {
		if _, err := v.liquidity.DecreaseLiquidity(ctx, engine.DecreaseParams{
			TokenID:    tokenID,
			Liquidity:  snapshot.Liquidity,
			Amount0Min: sdkmath.ZeroInt(),
			Amount1Min: sdkmath.ZeroInt(),
			Deadline:   time.Now().Add(teardownDeadlineMargin).Unix(),
		}); err != nil {
			return fmt.Errorf("decrease all liquidity: %w", err)
		}
	}

	// Step 4: collect-after-teardown. Liquidity is now zero, so this is
	// principal plus any late residue; the fee obligation was already
	// consumed in step 2.
	principal, err := v.collectAll(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("collect after teardown: %w", err)
	}

	if err := v.liquidity.Burn(ctx, tokenID); err != nil {
		return fmt.Errorf("burn position: %w", err)
	}
	v.setPositionID(0)
	// The burn is irreversible at the engine. A failure later in the same
	// operation (a sweep, for example) must not roll the lifecycle state
	// back to a position id that no longer exists.
	v.commit()

	v.emit(ctx, types.Notification{
		Kind:       types.NotifyPositionClosed,
		PositionID: tokenID,
		Amounts:    principal.Normalize(),
	})
	return nil
}

// collectAll sweeps the position's full owed balance to the vault.
func (v *Vault) collectAll(ctx context.Context, tokenID uint64) (types.TokenAmounts, error) {
	collected, err := v.liquidity.Collect(ctx, engine.CollectParams{
		TokenID:    tokenID,
		Recipient:  v.self,
		Amount0Max: maxCollectAmount,
		Amount1Max: maxCollectAmount,
	})
	if err != nil {
		return types.ZeroAmounts(), err
	}
	return collected.Normalize(), nil
}

// applyPerformanceFee reads the live protocol fee configuration, computes
// floor(ledger * feeBps / 10000) per token, transfers the fees, zeroes the
// ledger, and emits the fee-taken notification. A zero ledger is a no-op.
func (v *Vault) applyPerformanceFee(ctx context.Context, tokenID uint64) error {
	base := v.AccruedFees()
	if base.IsZero() {
		return nil
	}

	protocolFees, err := v.fees.ProtocolFees(ctx)
	if err != nil {
		return fmt.Errorf("reading protocol fees: %w", err)
	}
	if protocolFees.FeeBps > BpsDenominator {
		return fmt.Errorf("%w: live protocol fee %d bps exceeds ceiling", ErrConfiguration, protocolFees.FeeBps)
	}

	fee0 := base.Amount0.MulRaw(int64(protocolFees.FeeBps)).QuoRaw(BpsDenominator)
	fee1 := base.Amount1.MulRaw(int64(protocolFees.FeeBps)).QuoRaw(BpsDenominator)

	if fee0.IsPositive() {
		if err := v.tokens.Transfer(ctx, v.token0, protocolFees.Recipient, fee0); err != nil {
			return fmt.Errorf("performance fee transfer (token0): %w", err)
		}
	}
	if fee1.IsPositive() {
		if err := v.tokens.Transfer(ctx, v.token1, protocolFees.Recipient, fee1); err != nil {
			return fmt.Errorf("performance fee transfer (token1): %w", err)
		}
	}

	v.ledgerDrain()

	if fee0.IsPositive() || fee1.IsPositive() {
		metrics.ObserveFeeTaken(fee0, fee1)
		v.emit(ctx, types.Notification{
			Kind:         types.NotifyPerformanceFeeTaken,
			PositionID:   tokenID,
			Amounts:      types.TokenAmounts{Amount0: fee0, Amount1: fee1},
			FeeBps:       protocolFees.FeeBps,
			FeeRecipient: protocolFees.Recipient,
		})
	}
	return nil
}
