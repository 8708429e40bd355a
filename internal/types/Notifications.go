/*

This file contains the notification types the vault emits after successful
operations. Notifications are observability only: the journal, the metrics
collectors, and the web dashboard consume them, the vault itself never
reads them back.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// NotificationKind identifies the event a notification reports.
type NotificationKind string

const (
	NotifyManagerChanged      NotificationKind = "MANAGER_CHANGED"
	NotifyDeposit             NotificationKind = "DEPOSIT"
	NotifyWithdraw            NotificationKind = "WITHDRAW"
	NotifyWithdrawNative      NotificationKind = "WITHDRAW_NATIVE"
	NotifyPositionClosed      NotificationKind = "POSITION_CLOSED"
	NotifyPerformanceFeeTaken NotificationKind = "PERFORMANCE_FEE_TAKEN"
)

// Notification is a single vault event. Only the fields relevant to the
// kind are populated.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	Timestamp time.Time        `json:"timestamp"`

	// MANAGER_CHANGED
	OldManager common.Address `json:"old_manager,omitempty"`
	NewManager common.Address `json:"new_manager,omitempty"`

	// DEPOSIT / POSITION_CLOSED / PERFORMANCE_FEE_TAKEN
	PositionID uint64       `json:"position_id,omitempty"`
	Amounts    TokenAmounts `json:"amounts,omitempty"`

	// WITHDRAW / WITHDRAW_NATIVE
	Token     common.Address `json:"token,omitempty"`
	Recipient common.Address `json:"recipient,omitempty"`
	Amount    sdkmath.Int    `json:"amount,omitempty"`

	// PERFORMANCE_FEE_TAKEN
	FeeBps       uint32         `json:"fee_bps,omitempty"`
	FeeRecipient common.Address `json:"fee_recipient,omitempty"`
}
