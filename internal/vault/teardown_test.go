package vault_test

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercuri-finance/mercuri-protocol/internal/types"
	"github.com/mercuri-finance/mercuri-protocol/internal/vault"
)

func TestCloseFeeOnSwapIncomeOnly(t *testing.T) {
	// Scenario: position active with accrued swap income; the owner
	// closes. The 20% performance fee applies only to the collected
	// swap-fee amounts; principal reaches the vault balance unreduced.
	e := newEnv(t)
	ctx := context.Background()
	e.mintActive(amounts(1000, 500), amounts(10_000, 20_000))

	// ARRANGE done. ACT: full close.
	require.NoError(t, e.v.ClosePosition(ctx, addrOwner))

	// ASSERT: fee transfers are exactly floor(20% of swap income).
	require.Len(t, e.tokens.transfers, 2)
	assert.Equal(t, addrFeeRecipient, e.tokens.transfers[0].to)
	assert.Equal(t, sdkmath.NewInt(200), e.tokens.transfers[0].amount)
	assert.Equal(t, sdkmath.NewInt(100), e.tokens.transfers[1].amount)

	// Principal plus residual fees stay with the vault.
	assert.Equal(t, sdkmath.NewInt(10_800), e.tokens.balances[addrToken0])
	assert.Equal(t, sdkmath.NewInt(20_400), e.tokens.balances[addrToken1])

	// The close notification reports principal only.
	closed := e.notesOfKind(types.NotifyPositionClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, sdkmath.NewInt(10_000), closed[0].Amounts.Amount0)
	assert.Equal(t, sdkmath.NewInt(20_000), closed[0].Amounts.Amount1)

	feeTaken := e.notesOfKind(types.NotifyPerformanceFeeTaken)
	require.Len(t, feeTaken, 1)
	assert.Equal(t, uint32(2000), feeTaken[0].FeeBps)
	assert.Equal(t, sdkmath.NewInt(200), feeTaken[0].Amounts.Amount0)

	// Ledger drained, position gone.
	assert.True(t, e.v.AccruedFees().IsZero())
	assert.Zero(t, e.v.PositionID())
}

func TestCloseCallOrdering(t *testing.T) {
	// The four-step sequence is canonical: collect while active, apply
	// fee, decrease all, collect again, then burn.
	e := newEnv(t)
	e.mintActive(amounts(1000, 500), amounts(10_000, 20_000))

	require.NoError(t, e.v.ClosePosition(context.Background(), addrOwner))

	want := []string{
		"position",
		"collect",       // step 1: swap fees only
		"protocol_fees", // step 2: live fee read
		"transfer",      // step 2: fee token0
		"transfer",      // step 2: fee token1
		"decrease",      // step 3: principal to owed
		"collect",       // step 4: principal, not fee-taxed
		"burn",
	}
	assert.Equal(t, want, e.calls)
}

func TestCloseDecreaseCarriesLiveDeadline(t *testing.T) {
	// The engine rejects a stale or zero deadline, and the teardown is the
	// emergency exit: its decrease-all must always send a live one.
	e := newEnv(t)
	e.mintActive(amounts(1000, 500), amounts(10_000, 20_000))
	before := time.Now().Unix()

	require.NoError(t, e.v.ClosePosition(context.Background(), addrOwner))

	assert.GreaterOrEqual(t, e.liq.lastDecrease.Deadline, before)
	assert.Greater(t, e.liq.lastDecrease.Deadline, int64(0))
}

func TestCloseFeeFloorsPerToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.mintActive(amounts(1001, 499), amounts(0, 0))

	require.NoError(t, e.v.ClosePosition(ctx, addrOwner))

	// floor(1001 * 2000 / 10000) = 200, floor(499 * 2000 / 10000) = 99.
	require.Len(t, e.tokens.transfers, 2)
	assert.Equal(t, sdkmath.NewInt(200), e.tokens.transfers[0].amount)
	assert.Equal(t, sdkmath.NewInt(99), e.tokens.transfers[1].amount)
}

func TestCloseZeroFeeRate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.mintActive(amounts(1000, 500), amounts(10_000, 20_000))
	e.fees.bps = 0

	require.NoError(t, e.v.ClosePosition(ctx, addrOwner))

	assert.Empty(t, e.tokens.transfers)
	assert.Empty(t, e.notesOfKind(types.NotifyPerformanceFeeTaken))
	assert.True(t, e.v.AccruedFees().IsZero())
}

func TestCloseWithoutAccruedFees(t *testing.T) {
	// No swap income: the fee source is not even consulted.
	e := newEnv(t)
	e.mintActive(types.ZeroAmounts(), amounts(10_000, 20_000))

	require.NoError(t, e.v.ClosePosition(context.Background(), addrOwner))

	assert.NotContains(t, e.calls, "protocol_fees")
	assert.Empty(t, e.tokens.transfers)
	assert.Equal(t, sdkmath.NewInt(10_000), e.tokens.balances[addrToken0])
}

func TestCloseRequiresActivePosition(t *testing.T) {
	e := newEnv(t)
	err := e.v.ClosePosition(context.Background(), addrOwner)
	require.ErrorIs(t, err, vault.ErrInvalidState)
}

func TestCloseAbortRestoresLedger(t *testing.T) {
	// A failure after the collect-while-active step must not leave the
	// ledger populated: the operation aborts atomically.
	e := newEnv(t)
	ctx := context.Background()
	tokenID := e.mintActive(amounts(1000, 500), amounts(10_000, 20_000))
	e.fees.err = errors.New("fee source offline")

	err := e.v.ClosePosition(ctx, addrOwner)
	require.Error(t, err)

	assert.True(t, e.v.AccruedFees().IsZero(), "ledger must be zero after an aborted operation")
	assert.Equal(t, tokenID, e.v.PositionID(), "position untouched after abort")
}

func TestCloseAbortOnDecreaseKeepsPosition(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tokenID := e.mintActive(amounts(1000, 500), amounts(10_000, 20_000))
	e.liq.decreaseErr = errors.New("engine reverted")

	err := e.v.ClosePosition(ctx, addrOwner)
	require.Error(t, err)

	assert.Equal(t, tokenID, e.v.PositionID())
	assert.True(t, e.v.AccruedFees().IsZero())
	assert.NotContains(t, e.calls, "burn")
}

func TestReentrantCallDuringFeeTransferRejected(t *testing.T) {
	// Scenario: a malicious collaborator re-enters the vault during
	// teardown step 2 (the fee transfer). The nested call is rejected
	// and the outer operation completes cleanly.
	e := newEnv(t)
	ctx := context.Background()
	e.mintActive(amounts(1000, 500), amounts(10_000, 20_000))

	var nestedErr error
	fired := false
	e.tokens.onTransfer = func(ctx context.Context) error {
		if !fired {
			fired = true
			nestedErr = e.v.WithdrawAll(ctx, addrOwner)
		}
		return nil
	}

	require.NoError(t, e.v.ClosePosition(ctx, addrOwner))

	require.True(t, fired)
	require.ErrorIs(t, nestedErr, vault.ErrReentrant)
	assert.Zero(t, e.v.PositionID())
	assert.True(t, e.v.AccruedFees().IsZero())
}

func TestReentrantCallDuringCollectRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.mintActive(amounts(1000, 500), amounts(10_000, 20_000))

	var nestedErr error
	fired := false
	e.liq.onCollect = func(ctx context.Context) error {
		if !fired {
			fired = true
			nestedErr = e.v.ClosePosition(ctx, addrOwner)
		}
		return nil
	}

	require.NoError(t, e.v.ClosePosition(ctx, addrOwner))
	require.ErrorIs(t, nestedErr, vault.ErrReentrant)
}

func TestLedgerZeroOutsideOperations(t *testing.T) {
	// accruedFee0/1 are nonzero only transiently inside a teardown; at
	// the boundaries of every top-level operation they are zero.
	e := newEnv(t)
	ctx := context.Background()

	assert.True(t, e.v.AccruedFees().IsZero())
	tokenID := e.mintActive(amounts(777, 333), amounts(5000, 6000))
	assert.True(t, e.v.AccruedFees().IsZero())

	_, err := e.v.DecreaseLiquidity(ctx, addrOwner, vault.DecreaseRequest{TokenID: tokenID, Liquidity: sdkmath.NewInt(1)})
	require.NoError(t, err)
	assert.True(t, e.v.AccruedFees().IsZero())

	require.NoError(t, e.v.ClosePosition(ctx, addrOwner))
	assert.True(t, e.v.AccruedFees().IsZero())
}
