package vault

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/mercuri-finance/mercuri-protocol/internal/engine"
	"github.com/mercuri-finance/mercuri-protocol/internal/types"
)

// MintRequest opens the vault's position. The requested pair and fee tier
// must equal the vault's bound pool, the recipient must be the vault
// itself, and both minimum-output floors must be strictly nonzero.
type MintRequest struct {
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

// IncreaseRequest tops up liquidity on the vault's active position.
type IncreaseRequest struct {
	TokenID        uint64
	Amount0Desired sdkmath.Int
	Amount1Desired sdkmath.Int
	Amount0Min     sdkmath.Int
	Amount1Min     sdkmath.Int
	Deadline       int64
}

// DecreaseRequest removes part of the liquidity of the active position.
// Partial decreases intentionally skip the fee-isolation teardown
// sequence; fees accrued since the last full teardown stay with the
// position until the next one.
type DecreaseRequest struct {
	TokenID    uint64
	Liquidity  sdkmath.Int
	Amount0Min sdkmath.Int
	Amount1Min sdkmath.Int
	Deadline   int64
}

// Mint opens a new position. Valid only while the vault holds none.
func (v *Vault) Mint(ctx context.Context, caller common.Address, req MintRequest) (result engine.MintResult, err error) {
	err = v.run(ctx, "mint", func(ctx context.Context) error {
		role, err := v.authorize(ctx, caller, classDelegated)
		if err != nil {
			return err
		}
		if v.PositionID() != 0 {
			return fmt.Errorf("%w: position %d already active", ErrInvalidState, v.PositionID())
		}
		if req.Token0 != v.token0 || req.Token1 != v.token1 {
			return fmt.Errorf("%w: requested pair (%s, %s) does not match vault pair", ErrInvalidReference, req.Token0, req.Token1)
		}
		if req.FeeTier != v.feeTier {
			return fmt.Errorf("%w: requested fee tier %d does not match pool fee tier %d", ErrInvalidReference, req.FeeTier, v.feeTier)
		}
		if req.Recipient != v.self {
			return fmt.Errorf("%w: mint recipient %s is not the vault", ErrInvalidReference, req.Recipient)
		}
		// A zero floor is a zero-slippage-protection request.
		if !isPositive(req.Amount0Min) || !isPositive(req.Amount1Min) {
			return fmt.Errorf("%w: minimum-output floors must be strictly nonzero", ErrSlippageViolation)
		}

		minted, err := v.liquidity.Mint(ctx, engine.MintParams{
			Token0:         req.Token0,
			Token1:         req.Token1,
			FeeTier:        req.FeeTier,
			TickLower:      req.TickLower,
			TickUpper:      req.TickUpper,
			Amount0Desired: orZero(req.Amount0Desired),
			Amount1Desired: orZero(req.Amount1Desired),
			Amount0Min:     req.Amount0Min,
			Amount1Min:     req.Amount1Min,
			Recipient:      v.self,
			Deadline:       req.Deadline,
		})
		if err != nil {
			return fmt.Errorf("liquidity engine mint: %w", err)
		}
		if minted.TokenID == 0 {
			return fmt.Errorf("%w: engine returned zero position id", ErrInvalidReference)
		}

		v.setPositionID(minted.TokenID)
		v.emit(ctx, types.Notification{
			Kind:       types.NotifyDeposit,
			PositionID: minted.TokenID,
			Amounts:    minted.Used.Normalize(),
		})
		result = minted

		v.log.Info().
			Str("role", role.String()).
			Uint64("position_id", minted.TokenID).
			Str("liquidity", minted.Liquidity.String()).
			Msg("Position minted")
		return nil
	})
	return result, err
}

// IncreaseLiquidity adds liquidity to the active position. The supplied
// position id must be the vault's own.
func (v *Vault) IncreaseLiquidity(ctx context.Context, caller common.Address, req IncreaseRequest) (added types.TokenAmounts, err error) {
	err = v.run(ctx, "increase_liquidity", func(ctx context.Context) error {
		if _, err := v.authorize(ctx, caller, classDelegated); err != nil {
			return err
		}
		if err := v.requireOwnPosition(req.TokenID); err != nil {
			return err
		}

		used, err := v.liquidity.IncreaseLiquidity(ctx, engine.IncreaseParams{
			TokenID:        req.TokenID,
			Amount0Desired: orZero(req.Amount0Desired),
			Amount1Desired: orZero(req.Amount1Desired),
			Amount0Min:     orZero(req.Amount0Min),
			Amount1Min:     orZero(req.Amount1Min),
			Deadline:       req.Deadline,
		})
		if err != nil {
			return fmt.Errorf("liquidity engine increase: %w", err)
		}

		v.emit(ctx, types.Notification{
			Kind:       types.NotifyDeposit,
			PositionID: req.TokenID,
			Amounts:    used.Normalize(),
		})
		added = used.Normalize()
		return nil
	})
	return added, err
}

// DecreaseLiquidity removes part of the active position's liquidity into
// the engine's owed balance. It does not run the teardown sequence.
func (v *Vault) DecreaseLiquidity(ctx context.Context, caller common.Address, req DecreaseRequest) (removed types.TokenAmounts, err error) {
	err = v.run(ctx, "decrease_liquidity", func(ctx context.Context) error {
		if _, err := v.authorize(ctx, caller, classDelegated); err != nil {
			return err
		}
		if err := v.requireOwnPosition(req.TokenID); err != nil {
			return err
		}

		out, err := v.liquidity.DecreaseLiquidity(ctx, engine.DecreaseParams{
			TokenID:    req.TokenID,
			Liquidity:  orZero(req.Liquidity),
			Amount0Min: orZero(req.Amount0Min),
			Amount1Min: orZero(req.Amount1Min),
			Deadline:   req.Deadline,
		})
		if err != nil {
			return fmt.Errorf("liquidity engine decrease: %w", err)
		}
		removed = out.Normalize()
		return nil
	})
	return removed, err
}

// Burn releases the position id back to the engine. Valid only for the
// vault's own id; the engine itself rejects a burn while liquidity or owed
// balances remain.
func (v *Vault) Burn(ctx context.Context, caller common.Address, tokenID uint64) error {
	return v.run(ctx, "burn", func(ctx context.Context) error {
		if _, err := v.authorize(ctx, caller, classDelegated); err != nil {
			return err
		}
		if err := v.requireOwnPosition(tokenID); err != nil {
			return err
		}
		if err := v.liquidity.Burn(ctx, tokenID); err != nil {
			return fmt.Errorf("liquidity engine burn: %w", err)
		}
		v.setPositionID(0)
		v.log.Info().Uint64("position_id", tokenID).Msg("Position burned")
		return nil
	})
}

// requireOwnPosition checks the vault is Active and the referenced id is
// exactly the vault's position.
func (v *Vault) requireOwnPosition(tokenID uint64) error {
	current := v.PositionID()
	if current == 0 {
		return fmt.Errorf("%w: no active position", ErrInvalidState)
	}
	if tokenID != current {
		return fmt.Errorf("%w: position id %d is not the vault's position %d", ErrInvalidReference, tokenID, current)
	}
	return nil
}

func orZero(amount sdkmath.Int) sdkmath.Int {
	if amount.IsNil() {
		return sdkmath.ZeroInt()
	}
	return amount
}

func isPositive(amount sdkmath.Int) bool {
	return !amount.IsNil() && amount.IsPositive()
}
