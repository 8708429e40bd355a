package vault

import "errors"

// Error definitions for zero-tolerance error handling. Every operational
// failure wraps exactly one of these so callers can distinguish the
// rejection class with errors.Is.
var (
	// ErrUnauthorized is returned by the authorization gate for any caller
	// that is neither the owner nor a live-approved manager for the
	// requested operation class.
	ErrUnauthorized = errors.New("caller is not authorized")

	// ErrInvalidState is returned when an operation is attempted in the
	// wrong lifecycle state (e.g. mint while a position is active).
	ErrInvalidState = errors.New("operation invalid in current lifecycle state")

	// ErrInvalidReference is returned for a mismatched position id, token
	// pair, pool identity, or recipient.
	ErrInvalidReference = errors.New("reference does not match vault binding")

	// ErrSlippageViolation is returned when minimum-output protection is
	// absent or unmet.
	ErrSlippageViolation = errors.New("slippage protection violated")

	// ErrTransferFailure is returned when a native-asset transfer to the
	// owner fails during a sweep.
	ErrTransferFailure = errors.New("native transfer failed")

	// ErrConfiguration is fatal at setup time: the vault instance is never
	// created.
	ErrConfiguration = errors.New("invalid vault configuration")

	// ErrReentrant is returned when a guarded entry point is re-entered
	// while another guarded operation is still in flight.
	ErrReentrant = errors.New("reentrant call rejected")
)
