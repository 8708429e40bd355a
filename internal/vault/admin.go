package vault

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mercuri-finance/mercuri-protocol/internal/types"
)

// SetManager reassigns or clears (zero address) the delegated manager.
// Owner only. Assignment alone grants nothing: the new manager still
// needs live registry approval for every delegated call it makes.
func (v *Vault) SetManager(ctx context.Context, caller, newManager common.Address) error {
	return v.run(ctx, "set_manager", func(ctx context.Context) error {
		if _, err := v.authorize(ctx, caller, classOwnerOnly); err != nil {
			return err
		}
		old := v.Manager()
		v.setManagerAddr(newManager)
		v.emit(ctx, types.Notification{
			Kind:       types.NotifyManagerChanged,
			OldManager: old,
			NewManager: newManager,
		})
		return nil
	})
}

// SetUnwrapWNative toggles the owner's preference for receiving the
// wrapped-native token as native currency on withdrawal. Owner only.
func (v *Vault) SetUnwrapWNative(ctx context.Context, caller common.Address, enabled bool) error {
	return v.run(ctx, "set_unwrap_wnative", func(ctx context.Context) error {
		if _, err := v.authorize(ctx, caller, classOwnerOnly); err != nil {
			return err
		}
		v.setUnwrap(enabled)
		v.log.Info().Bool("unwrap_wnative", enabled).Msg("Unwrap preference updated")
		return nil
	})
}
