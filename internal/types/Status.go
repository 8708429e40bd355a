/*

This file contains the read-only status snapshot served by the web
dashboard and persisted to the snapshot table after successful operations.

*/

package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// VaultStatus mirrors the vault's persisted surface at a point in time.
type VaultStatus struct {
	Owner         common.Address `json:"owner"`
	Manager       common.Address `json:"manager"`
	Pool          common.Address `json:"pool"`
	Token0        common.Address `json:"token0"`
	Token1        common.Address `json:"token1"`
	FeeTier       uint32         `json:"fee_tier"`
	PositionID    uint64         `json:"position_id"`
	Active        bool           `json:"active"`
	AccruedFees   TokenAmounts   `json:"accrued_fees"`
	UnwrapWNative bool           `json:"unwrap_wnative"`
	ObservedAt    time.Time      `json:"observed_at"`
}
