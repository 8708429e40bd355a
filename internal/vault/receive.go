package vault

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// ReceiveNative handles an unsolicited native-currency receipt. Only two
// senders are trusted: the wrapped-asset contract (unwrap completions,
// which arrive mid-withdrawal) and the swap engine (refunds). Everyone
// else is rejected.
//
// This entry point deliberately bypasses the single-flight guard: unwrap
// completions are delivered while a guarded withdrawal is still in flight,
// and rejecting them would deadlock every native exit.
func (v *Vault) ReceiveNative(ctx context.Context, sender common.Address, amount sdkmath.Int) error {
	switch sender {
	case v.wnative.Address():
		// Unwrap completion: the withdrawal path already accounts for the
		// balance, nothing further to do.
		v.log.Debug().Str("amount", orZero(amount).String()).Msg("Native receipt from wrapped-asset contract")
		return nil

	case v.swapper.Address():
		// Swap refund: re-wrap so the balance stays in the vault's token
		// accounting.
		if v.token0 != v.wnative.Address() && v.token1 != v.wnative.Address() {
			return fmt.Errorf("%w: swap refund but neither vault token is the wrapped-native asset", ErrInvalidReference)
		}
		if !isPositive(amount) {
			return nil
		}
		if err := v.wnative.Deposit(ctx, amount); err != nil {
			return fmt.Errorf("re-wrapping swap refund: %w", err)
		}
		v.log.Info().Str("amount", amount.String()).Msg("Swap refund re-wrapped")
		return nil

	default:
		return fmt.Errorf("%w: native receipt from untrusted sender %s", ErrUnauthorized, sender)
	}
}
