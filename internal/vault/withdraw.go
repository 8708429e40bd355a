package vault

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mercuri-finance/mercuri-protocol/internal/types"
)

// WithdrawAll is the owner-only capital exit: if a position is active it
// runs the full teardown first, then unconditionally sweeps both token
// balances to the owner. No manager-accessible withdrawal path exists
// anywhere in the vault; this asymmetry is the trust model's core
// guarantee.
func (v *Vault) WithdrawAll(ctx context.Context, caller common.Address) error {
	return v.run(ctx, "withdraw_all", func(ctx context.Context) error {
		if _, err := v.authorize(ctx, caller, classOwnerOnly); err != nil {
			return err
		}

		if v.PositionID() != 0 {
			if err := v.teardown(ctx); err != nil {
				return err
			}
		}

		if err := v.sweep(ctx, v.token0); err != nil {
			return err
		}
		if err := v.sweep(ctx, v.token1); err != nil {
			return err
		}
		return nil
	})
}

// sweep moves the vault's full balance of one token to the owner. A zero
// balance is a no-op with no notification. When the token is the wrapped
// native asset and the unwrap preference is enabled, the balance is
// unwrapped and delivered as native currency; a failure of that delivery
// fails the whole operation.
func (v *Vault) sweep(ctx context.Context, token common.Address) error {
	balance, err := v.tokens.BalanceOf(ctx, token, v.self)
	if err != nil {
		return fmt.Errorf("balance query for %s: %w", token, err)
	}
	if !isPositive(balance) {
		return nil
	}

	unwrap := token == v.wnative.Address() && v.unwrapEnabled()
	if unwrap {
		if err := v.wnative.Withdraw(ctx, balance); err != nil {
			return fmt.Errorf("unwrap %s: %w", balance, err)
		}
		if err := v.native.TransferNative(ctx, v.owner, balance); err != nil {
			return fmt.Errorf("%w: %s native to %s: %w", ErrTransferFailure, balance, v.owner, err)
		}
		v.emit(ctx, types.Notification{
			Kind:      types.NotifyWithdrawNative,
			Token:     token,
			Recipient: v.owner,
			Amount:    balance,
		})
		return nil
	}

	if err := v.tokens.Transfer(ctx, token, v.owner, balance); err != nil {
		return fmt.Errorf("sweep %s of %s: %w", balance, token, err)
	}
	v.emit(ctx, types.Notification{
		Kind:      types.NotifyWithdraw,
		Token:     token,
		Recipient: v.owner,
		Amount:    balance,
	})
	return nil
}

func (v *Vault) unwrapEnabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.unwrapWNative
}
