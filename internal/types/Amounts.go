/*

This file contains the paired token-amount type used throughout the vault.
Amounts are always denominated in the pool's token0/token1 order.

*/

package types

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// TokenAmounts is a pair of token amounts in pool order (token0, token1).
type TokenAmounts struct {
	Amount0 sdkmath.Int `json:"amount0"`
	Amount1 sdkmath.Int `json:"amount1"`
}

// ZeroAmounts returns a pair with both amounts set to zero.
func ZeroAmounts() TokenAmounts {
	return TokenAmounts{Amount0: sdkmath.ZeroInt(), Amount1: sdkmath.ZeroInt()}
}

// NewTokenAmounts builds a pair from two big integers. Nil inputs become zero.
func NewTokenAmounts(a0, a1 *big.Int) TokenAmounts {
	out := ZeroAmounts()
	if a0 != nil {
		out.Amount0 = sdkmath.NewIntFromBigInt(a0)
	}
	if a1 != nil {
		out.Amount1 = sdkmath.NewIntFromBigInt(a1)
	}
	return out
}

// Add returns the element-wise sum of two pairs.
func (t TokenAmounts) Add(other TokenAmounts) TokenAmounts {
	return TokenAmounts{
		Amount0: t.Amount0.Add(other.Amount0),
		Amount1: t.Amount1.Add(other.Amount1),
	}
}

// IsZero reports whether both amounts are zero.
func (t TokenAmounts) IsZero() bool {
	return t.Amount0.IsZero() && t.Amount1.IsZero()
}

// Normalize replaces nil (uninitialized) amounts with zero so that
// arithmetic on a zero-value TokenAmounts cannot panic.
func (t TokenAmounts) Normalize() TokenAmounts {
	out := t
	if out.Amount0.IsNil() {
		out.Amount0 = sdkmath.ZeroInt()
	}
	if out.Amount1.IsNil() {
		out.Amount1 = sdkmath.ZeroInt()
	}
	return out
}
