package vault

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mercuri-finance/mercuri-protocol/internal/types"
)

// operationClass partitions vault operations by the authority they need.
type operationClass int

const (
	// classOwnerOnly covers capital-moving and configuration operations:
	// full withdrawal, manager reassignment, unwrap preference.
	classOwnerOnly operationClass = iota
	// classDelegated covers lifecycle operations a live-approved manager
	// may perform: mint, increase, decrease, burn, close, rebalance.
	classDelegated
)

// authorize classifies the caller for the requested operation class.
//
// The owner is authorized unconditionally. The manager is authorized for
// delegated operations only when it is the currently assigned manager AND
// the external registry reports approval at this very moment; approval is
// never cached and never checked only at assignment time, so revoking it
// blocks the manager starting with the next call.
func (v *Vault) authorize(ctx context.Context, caller common.Address, class operationClass) (types.Role, error) {
	if caller == v.owner {
		return types.RoleOwner, nil
	}

	if class == classDelegated && caller != (common.Address{}) && caller == v.Manager() {
		approved, err := v.registry.IsApproved(ctx, caller)
		if err != nil {
			return types.RoleDenied, fmt.Errorf("%w: registry query failed: %w", ErrUnauthorized, err)
		}
		if approved {
			return types.RoleManager, nil
		}
		return types.RoleDenied, fmt.Errorf("%w: manager %s lacks live registry approval", ErrUnauthorized, caller)
	}

	return types.RoleDenied, fmt.Errorf("%w: caller %s", ErrUnauthorized, caller)
}
