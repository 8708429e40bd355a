/*

This file contains the caller classification used by the vault's
authorization gate.

*/

package types

// Role is the outcome of classifying a caller against the vault's
// owner and manager configuration.
type Role int

const (
	// RoleDenied means the caller holds no authority over the vault.
	RoleDenied Role = iota
	// RoleOwner is the vault owner, authorized for every operation.
	RoleOwner
	// RoleManager is the delegated operator, authorized for lifecycle
	// operations only while the registry reports live approval.
	RoleManager
)

// String returns the human-readable role name for logging.
func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleManager:
		return "manager"
	default:
		return "denied"
	}
}
