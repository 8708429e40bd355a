// Package engine defines the external collaborators the vault drives:
// the concentrated-liquidity position engine, the swap engine, the manager
// registry, the protocol fee source, the wrapped-native contract, and plain
// token transfer helpers.
//
// These interfaces abstract away the specific on-chain implementations,
// allowing for different backends (live EVM clients, test doubles). The
// vault core never imports the EVM layer directly.
package engine

import (
	"context"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/mercuri-finance/mercuri-protocol/internal/types"
)

// MintParams describes a request to open a new position.
type MintParams struct {
	Token0         common.Address
	Token1         common.Address
	FeeTier        uint32
	TickLower      int32
	TickUpper      int32
	Amount0Desired sdkmath.Int
	Amount1Desired sdkmath.Int
	Amount0Min     sdkmath.Int
	Amount1Min     sdkmath.Int
	Recipient      common.Address
	Deadline       int64
}

// MintResult is the engine's response to a successful mint.
type MintResult struct {
	TokenID   uint64
	Liquidity sdkmath.Int
	Used      types.TokenAmounts
}

// IncreaseParams describes a liquidity top-up for an existing position.
type IncreaseParams struct {
	TokenID        uint64
	Amount0Desired sdkmath.Int
	Amount1Desired sdkmath.Int
	Amount0Min     sdkmath.Int
	Amount1Min     sdkmath.Int
	Deadline       int64
}

// DecreaseParams describes a liquidity removal from an existing position.
type DecreaseParams struct {
	TokenID    uint64
	Liquidity  sdkmath.Int
	Amount0Min sdkmath.Int
	Amount1Min sdkmath.Int
	Deadline   int64
}

// CollectParams describes a collection of owed token amounts.
type CollectParams struct {
	TokenID    uint64
	Recipient  common.Address
	Amount0Max sdkmath.Int
	Amount1Max sdkmath.Int
}

// PositionSnapshot is the engine's view of a position at query time.
type PositionSnapshot struct {
	Liquidity   sdkmath.Int
	TokensOwed  types.TokenAmounts
	Token0      common.Address
	Token1      common.Address
	FeeTier     uint32
	TickLower   int32
	TickUpper   int32
}

// LiquidityEngine is the external position engine (a Uniswap-V3 style
// nonfungible position manager).
type LiquidityEngine interface {
	Mint(ctx context.Context, params MintParams) (MintResult, error)
	IncreaseLiquidity(ctx context.Context, params IncreaseParams) (types.TokenAmounts, error)
	DecreaseLiquidity(ctx context.Context, params DecreaseParams) (types.TokenAmounts, error)
	Collect(ctx context.Context, params CollectParams) (types.TokenAmounts, error)
	Burn(ctx context.Context, tokenID uint64) error
	Position(ctx context.Context, tokenID uint64) (PositionSnapshot, error)
}

// SwapParams describes a single-hop exact-input swap.
type SwapParams struct {
	TokenIn      common.Address
	TokenOut     common.Address
	FeeTier      uint32
	Recipient    common.Address
	AmountIn     sdkmath.Int
	AmountOutMin sdkmath.Int
	PriceLimit   sdkmath.Int
	Deadline     int64
}

// SwapEngine is the external swap router.
type SwapEngine interface {
	// Address is the router's on-chain identity, used for allowance
	// management and native-refund sender checks.
	Address() common.Address
	ExactInputSingle(ctx context.Context, params SwapParams) (sdkmath.Int, error)
}

// ManagerRegistry reports whether an identity currently holds manager
// approval. The vault queries it live on every manager-gated call and
// never caches the answer.
type ManagerRegistry interface {
	IsApproved(ctx context.Context, identity common.Address) (bool, error)
}

// ProtocolFees is the live protocol fee configuration.
type ProtocolFees struct {
	FeeBps    uint32
	Recipient common.Address
}

// FeeConfig exposes the protocol performance fee, read fresh on every
// teardown so that configuration changes take effect immediately.
type FeeConfig interface {
	ProtocolFees(ctx context.Context) (ProtocolFees, error)
}

// WrappedNative is the wrapped-native-asset contract (WETH-style).
type WrappedNative interface {
	Address() common.Address
	Deposit(ctx context.Context, amount sdkmath.Int) error
	Withdraw(ctx context.Context, amount sdkmath.Int) error
}

// TokenClient performs plain ERC-20 operations on behalf of the vault
// account.
type TokenClient interface {
	BalanceOf(ctx context.Context, token, account common.Address) (sdkmath.Int, error)
	Transfer(ctx context.Context, token, to common.Address, amount sdkmath.Int) error
	Approve(ctx context.Context, token, spender common.Address, amount sdkmath.Int) error
}

// NativeTransferer sends native currency from the vault account.
type NativeTransferer interface {
	TransferNative(ctx context.Context, to common.Address, amount sdkmath.Int) error
}

// PoolMetadata is the immutable identity of a pool: its token pair and
// fee tier.
type PoolMetadata struct {
	Token0  common.Address
	Token1  common.Address
	FeeTier uint32
}

// PoolReader resolves a pool address into its metadata. Used once, at
// vault construction, to bind the vault to its pool identity.
type PoolReader interface {
	PoolMetadata(ctx context.Context, pool common.Address) (PoolMetadata, error)
}
