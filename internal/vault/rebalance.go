package vault

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/mercuri-finance/mercuri-protocol/internal/engine"
)

// RebalanceRequest swaps one of the vault's tokens for the other through
// the swap engine. The swap output always lands in the vault; no foreign
// asset can enter the route.
type RebalanceRequest struct {
	TokenIn      common.Address
	TokenOut     common.Address
	AmountIn     sdkmath.Int
	AmountOutMin sdkmath.Int
	PriceLimit   sdkmath.Int
	Deadline     int64
}

// Rebalance executes a single-hop swap strictly between the vault's two
// configured tokens. Owner or live-approved manager.
//
// The swap engine's allowance is reset to zero and then set to exactly the
// input amount before every swap, so no allowance outlives the call.
func (v *Vault) Rebalance(ctx context.Context, caller common.Address, req RebalanceRequest) (amountOut sdkmath.Int, err error) {
	amountOut = sdkmath.ZeroInt()
	err = v.run(ctx, "rebalance", func(ctx context.Context) error {
		if _, err := v.authorize(ctx, caller, classDelegated); err != nil {
			return err
		}

		pairMatch := (req.TokenIn == v.token0 && req.TokenOut == v.token1) ||
			(req.TokenIn == v.token1 && req.TokenOut == v.token0)
		if !pairMatch {
			return fmt.Errorf("%w: swap (%s -> %s) is not the vault's token pair", ErrInvalidReference, req.TokenIn, req.TokenOut)
		}
		if !isPositive(req.AmountIn) {
			return fmt.Errorf("%w: swap input amount must be positive", ErrInvalidReference)
		}

		router := v.swapper.Address()
		if err := v.tokens.Approve(ctx, req.TokenIn, router, sdkmath.ZeroInt()); err != nil {
			return fmt.Errorf("resetting allowance: %w", err)
		}
		if err := v.tokens.Approve(ctx, req.TokenIn, router, req.AmountIn); err != nil {
			return fmt.Errorf("setting allowance: %w", err)
		}

		out, err := v.swapper.ExactInputSingle(ctx, engine.SwapParams{
			TokenIn:      req.TokenIn,
			TokenOut:     req.TokenOut,
			FeeTier:      v.feeTier,
			Recipient:    v.self,
			AmountIn:     req.AmountIn,
			AmountOutMin: orZero(req.AmountOutMin),
			PriceLimit:   orZero(req.PriceLimit),
			Deadline:     req.Deadline,
		})
		if err != nil {
			return fmt.Errorf("swap engine: %w", err)
		}
		amountOut = out

		v.log.Info().
			Str("token_in", req.TokenIn.Hex()).
			Str("token_out", req.TokenOut.Hex()).
			Str("amount_in", req.AmountIn.String()).
			Str("amount_out", out.String()).
			Msg("Rebalance swap executed")
		return nil
	})
	return amountOut, err
}
