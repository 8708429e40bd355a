package evm

import (
	"context"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/mercuri-finance/mercuri-protocol/internal/engine"
	"github.com/mercuri-finance/mercuri-protocol/internal/types"
)

// bigIntAt returns the *big.Int at one index of unpacked ABI output,
// rejecting unexpected types instead of panicking on them.
func bigIntAt(vals []interface{}, idx int) (*big.Int, error) {
	if idx >= len(vals) {
		return nil, fmt.Errorf("ABI output too short: want index %d, got %d values", idx, len(vals))
	}
	v, ok := vals[idx].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected ABI output type %T at index %d", vals[idx], idx)
	}
	return v, nil
}

func addressAt(vals []interface{}, idx int) (common.Address, error) {
	if idx >= len(vals) {
		return common.Address{}, fmt.Errorf("ABI output too short: want index %d, got %d values", idx, len(vals))
	}
	v, ok := vals[idx].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected ABI output type %T at index %d", vals[idx], idx)
	}
	return v, nil
}

func intAt(vals []interface{}, idx int) (sdkmath.Int, error) {
	v, err := bigIntAt(vals, idx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return sdkmath.NewIntFromBigInt(v), nil
}

func amountsAt(vals []interface{}, idx0, idx1 int) (types.TokenAmounts, error) {
	a0, err := intAt(vals, idx0)
	if err != nil {
		return types.ZeroAmounts(), err
	}
	a1, err := intAt(vals, idx1)
	if err != nil {
		return types.ZeroAmounts(), err
	}
	return types.TokenAmounts{Amount0: a0, Amount1: a1}, nil
}

// mintCall mirrors the position manager's MintParams tuple. Field names
// must match the ABI component names (case-insensitively) for packing.
type mintCall struct {
	Token0         common.Address
	Token1         common.Address
	Fee            *big.Int
	TickLower      *big.Int
	TickUpper      *big.Int
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Recipient      common.Address
	Deadline       *big.Int
}

type increaseCall struct {
	TokenId        *big.Int
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Deadline       *big.Int
}

type decreaseCall struct {
	TokenId    *big.Int
	Liquidity  *big.Int
	Amount0Min *big.Int
	Amount1Min *big.Int
	Deadline   *big.Int
}

type collectCall struct {
	TokenId    *big.Int
	Recipient  common.Address
	Amount0Max *big.Int
	Amount1Max *big.Int
}

type swapCall struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	Deadline          *big.Int
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// PositionManager drives a nonfungible position manager contract.
type PositionManager struct {
	client  *Client
	address common.Address
}

func NewPositionManager(client *Client, address common.Address) *PositionManager {
	return &PositionManager{client: client, address: address}
}

var _ engine.LiquidityEngine = (*PositionManager)(nil)

func (p *PositionManager) Mint(ctx context.Context, params engine.MintParams) (engine.MintResult, error) {
	data, err := positionManagerABI.Pack("mint", mintCall{
		Token0:         params.Token0,
		Token1:         params.Token1,
		Fee:            big.NewInt(int64(params.FeeTier)),
		TickLower:      big.NewInt(int64(params.TickLower)),
		TickUpper:      big.NewInt(int64(params.TickUpper)),
		Amount0Desired: params.Amount0Desired.BigInt(),
		Amount1Desired: params.Amount1Desired.BigInt(),
		Amount0Min:     params.Amount0Min.BigInt(),
		Amount1Min:     params.Amount1Min.BigInt(),
		Recipient:      params.Recipient,
		Deadline:       big.NewInt(params.Deadline),
	})
	if err != nil {
		return engine.MintResult{}, fmt.Errorf("failed to encode mint call: %w", err)
	}

	out, err := p.client.Execute(ctx, p.address, data, nil)
	if err != nil {
		return engine.MintResult{}, err
	}

	vals, err := positionManagerABI.Unpack("mint", out)
	if err != nil {
		return engine.MintResult{}, fmt.Errorf("failed to decode mint result: %w", err)
	}
	tokenID, err := bigIntAt(vals, 0)
	if err != nil {
		return engine.MintResult{}, err
	}
	liquidity, err := intAt(vals, 1)
	if err != nil {
		return engine.MintResult{}, err
	}
	used, err := amountsAt(vals, 2, 3)
	if err != nil {
		return engine.MintResult{}, err
	}
	return engine.MintResult{
		TokenID:   tokenID.Uint64(),
		Liquidity: liquidity,
		Used:      used,
	}, nil
}

func (p *PositionManager) IncreaseLiquidity(ctx context.Context, params engine.IncreaseParams) (types.TokenAmounts, error) {
	data, err := positionManagerABI.Pack("increaseLiquidity", increaseCall{
		TokenId:        new(big.Int).SetUint64(params.TokenID),
		Amount0Desired: params.Amount0Desired.BigInt(),
		Amount1Desired: params.Amount1Desired.BigInt(),
		Amount0Min:     params.Amount0Min.BigInt(),
		Amount1Min:     params.Amount1Min.BigInt(),
		Deadline:       big.NewInt(params.Deadline),
	})
	if err != nil {
		return types.ZeroAmounts(), fmt.Errorf("failed to encode increaseLiquidity call: %w", err)
	}

	out, err := p.client.Execute(ctx, p.address, data, nil)
	if err != nil {
		return types.ZeroAmounts(), err
	}

	vals, err := positionManagerABI.Unpack("increaseLiquidity", out)
	if err != nil {
		return types.ZeroAmounts(), fmt.Errorf("failed to decode increaseLiquidity result: %w", err)
	}
	return amountsAt(vals, 1, 2)
}

func (p *PositionManager) DecreaseLiquidity(ctx context.Context, params engine.DecreaseParams) (types.TokenAmounts, error) {
	data, err := positionManagerABI.Pack("decreaseLiquidity", decreaseCall{
		TokenId:    new(big.Int).SetUint64(params.TokenID),
		Liquidity:  params.Liquidity.BigInt(),
		Amount0Min: params.Amount0Min.BigInt(),
		Amount1Min: params.Amount1Min.BigInt(),
		Deadline:   big.NewInt(params.Deadline),
	})
	if err != nil {
		return types.ZeroAmounts(), fmt.Errorf("failed to encode decreaseLiquidity call: %w", err)
	}

	out, err := p.client.Execute(ctx, p.address, data, nil)
	if err != nil {
		return types.ZeroAmounts(), err
	}

	vals, err := positionManagerABI.Unpack("decreaseLiquidity", out)
	if err != nil {
		return types.ZeroAmounts(), fmt.Errorf("failed to decode decreaseLiquidity result: %w", err)
	}
	return amountsAt(vals, 0, 1)
}

func (p *PositionManager) Collect(ctx context.Context, params engine.CollectParams) (types.TokenAmounts, error) {
	data, err := positionManagerABI.Pack("collect", collectCall{
		TokenId:    new(big.Int).SetUint64(params.TokenID),
		Recipient:  params.Recipient,
		Amount0Max: params.Amount0Max.BigInt(),
		Amount1Max: params.Amount1Max.BigInt(),
	})
	if err != nil {
		return types.ZeroAmounts(), fmt.Errorf("failed to encode collect call: %w", err)
	}

	out, err := p.client.Execute(ctx, p.address, data, nil)
	if err != nil {
		return types.ZeroAmounts(), err
	}

	vals, err := positionManagerABI.Unpack("collect", out)
	if err != nil {
		return types.ZeroAmounts(), fmt.Errorf("failed to decode collect result: %w", err)
	}
	return amountsAt(vals, 0, 1)
}

func (p *PositionManager) Burn(ctx context.Context, tokenID uint64) error {
	data, err := positionManagerABI.Pack("burn", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return fmt.Errorf("failed to encode burn call: %w", err)
	}
	_, err = p.client.Send(ctx, p.address, data, nil)
	return err
}

func (p *PositionManager) Position(ctx context.Context, tokenID uint64) (engine.PositionSnapshot, error) {
	data, err := positionManagerABI.Pack("positions", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return engine.PositionSnapshot{}, fmt.Errorf("failed to encode positions call: %w", err)
	}

	out, err := p.client.Call(ctx, p.address, data)
	if err != nil {
		return engine.PositionSnapshot{}, err
	}

	vals, err := positionManagerABI.Unpack("positions", out)
	if err != nil {
		return engine.PositionSnapshot{}, fmt.Errorf("failed to decode positions result: %w", err)
	}
	token0, err := addressAt(vals, 2)
	if err != nil {
		return engine.PositionSnapshot{}, err
	}
	token1, err := addressAt(vals, 3)
	if err != nil {
		return engine.PositionSnapshot{}, err
	}
	feeTier, err := bigIntAt(vals, 4)
	if err != nil {
		return engine.PositionSnapshot{}, err
	}
	tickLower, err := bigIntAt(vals, 5)
	if err != nil {
		return engine.PositionSnapshot{}, err
	}
	tickUpper, err := bigIntAt(vals, 6)
	if err != nil {
		return engine.PositionSnapshot{}, err
	}
	liquidity, err := intAt(vals, 7)
	if err != nil {
		return engine.PositionSnapshot{}, err
	}
	owed, err := amountsAt(vals, 10, 11)
	if err != nil {
		return engine.PositionSnapshot{}, err
	}
	return engine.PositionSnapshot{
		Token0:     token0,
		Token1:     token1,
		FeeTier:    uint32(feeTier.Uint64()),
		TickLower:  int32(tickLower.Int64()),
		TickUpper:  int32(tickUpper.Int64()),
		Liquidity:  liquidity,
		TokensOwed: owed,
	}, nil
}

// SwapRouter drives the exact-input swap router contract.
type SwapRouter struct {
	client  *Client
	address common.Address
}

func NewSwapRouter(client *Client, address common.Address) *SwapRouter {
	return &SwapRouter{client: client, address: address}
}

var _ engine.SwapEngine = (*SwapRouter)(nil)

func (s *SwapRouter) Address() common.Address {
	return s.address
}

func (s *SwapRouter) ExactInputSingle(ctx context.Context, params engine.SwapParams) (sdkmath.Int, error) {
	data, err := swapRouterABI.Pack("exactInputSingle", swapCall{
		TokenIn:           params.TokenIn,
		TokenOut:          params.TokenOut,
		Fee:               big.NewInt(int64(params.FeeTier)),
		Recipient:         params.Recipient,
		Deadline:          big.NewInt(params.Deadline),
		AmountIn:          params.AmountIn.BigInt(),
		AmountOutMinimum:  params.AmountOutMin.BigInt(),
		SqrtPriceLimitX96: params.PriceLimit.BigInt(),
	})
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to encode exactInputSingle call: %w", err)
	}

	out, err := s.client.Execute(ctx, s.address, data, nil)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	vals, err := swapRouterABI.Unpack("exactInputSingle", out)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to decode exactInputSingle result: %w", err)
	}
	return intAt(vals, 0)
}

// Registry reads manager approvals from the on-chain access registry.
type Registry struct {
	client  *Client
	address common.Address
}

func NewRegistry(client *Client, address common.Address) *Registry {
	return &Registry{client: client, address: address}
}

var _ engine.ManagerRegistry = (*Registry)(nil)

func (r *Registry) IsApproved(ctx context.Context, identity common.Address) (bool, error) {
	data, err := registryABI.Pack("isApproved", identity)
	if err != nil {
		return false, fmt.Errorf("failed to encode isApproved call: %w", err)
	}
	out, err := r.client.Call(ctx, r.address, data)
	if err != nil {
		return false, err
	}
	vals, err := registryABI.Unpack("isApproved", out)
	if err != nil {
		return false, fmt.Errorf("failed to decode isApproved result: %w", err)
	}
	approved, ok := vals[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected isApproved result type %T", vals[0])
	}
	return approved, nil
}

// Factory reads the live protocol fee configuration from the factory
// contract.
type Factory struct {
	client  *Client
	address common.Address
}

func NewFactory(client *Client, address common.Address) *Factory {
	return &Factory{client: client, address: address}
}

var _ engine.FeeConfig = (*Factory)(nil)

func (f *Factory) ProtocolFees(ctx context.Context) (engine.ProtocolFees, error) {
	data, err := factoryABI.Pack("protocolFees")
	if err != nil {
		return engine.ProtocolFees{}, fmt.Errorf("failed to encode protocolFees call: %w", err)
	}
	out, err := f.client.Call(ctx, f.address, data)
	if err != nil {
		return engine.ProtocolFees{}, err
	}
	vals, err := factoryABI.Unpack("protocolFees", out)
	if err != nil {
		return engine.ProtocolFees{}, fmt.Errorf("failed to decode protocolFees result: %w", err)
	}
	feeBps, err := bigIntAt(vals, 0)
	if err != nil {
		return engine.ProtocolFees{}, err
	}
	recipient, err := addressAt(vals, 1)
	if err != nil {
		return engine.ProtocolFees{}, err
	}
	return engine.ProtocolFees{
		FeeBps:    uint32(feeBps.Uint64()),
		Recipient: recipient,
	}, nil
}

// WNative drives a WETH-style wrapped-native contract.
type WNative struct {
	client  *Client
	address common.Address
}

func NewWNative(client *Client, address common.Address) *WNative {
	return &WNative{client: client, address: address}
}

var _ engine.WrappedNative = (*WNative)(nil)

func (w *WNative) Address() common.Address {
	return w.address
}

func (w *WNative) Deposit(ctx context.Context, amount sdkmath.Int) error {
	data, err := wnativeABI.Pack("deposit")
	if err != nil {
		return fmt.Errorf("failed to encode deposit call: %w", err)
	}
	_, err = w.client.Send(ctx, w.address, data, amount.BigInt())
	return err
}

func (w *WNative) Withdraw(ctx context.Context, amount sdkmath.Int) error {
	data, err := wnativeABI.Pack("withdraw", amount.BigInt())
	if err != nil {
		return fmt.Errorf("failed to encode withdraw call: %w", err)
	}
	_, err = w.client.Send(ctx, w.address, data, nil)
	return err
}

// Tokens performs plain ERC-20 operations from the signer account.
type Tokens struct {
	client *Client
}

func NewTokens(client *Client) *Tokens {
	return &Tokens{client: client}
}

var _ engine.TokenClient = (*Tokens)(nil)

func (t *Tokens) BalanceOf(ctx context.Context, token, account common.Address) (sdkmath.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", account)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to encode balanceOf call: %w", err)
	}
	out, err := t.client.Call(ctx, token, data)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	vals, err := erc20ABI.Unpack("balanceOf", out)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to decode balanceOf result: %w", err)
	}
	return intAt(vals, 0)
}

func (t *Tokens) Transfer(ctx context.Context, token, to common.Address, amount sdkmath.Int) error {
	data, err := erc20ABI.Pack("transfer", to, amount.BigInt())
	if err != nil {
		return fmt.Errorf("failed to encode transfer call: %w", err)
	}
	_, err = t.client.Send(ctx, token, data, nil)
	return err
}

func (t *Tokens) Approve(ctx context.Context, token, spender common.Address, amount sdkmath.Int) error {
	data, err := erc20ABI.Pack("approve", spender, amount.BigInt())
	if err != nil {
		return fmt.Errorf("failed to encode approve call: %w", err)
	}
	_, err = t.client.Send(ctx, token, data, nil)
	return err
}

// NativeSender transfers native currency from the signer account.
type NativeSender struct {
	client *Client
}

func NewNativeSender(client *Client) *NativeSender {
	return &NativeSender{client: client}
}

var _ engine.NativeTransferer = (*NativeSender)(nil)

func (n *NativeSender) TransferNative(ctx context.Context, to common.Address, amount sdkmath.Int) error {
	_, err := n.client.Send(ctx, to, nil, amount.BigInt())
	return err
}

// Pools resolves pool contracts into their token pair and fee tier.
type Pools struct {
	client *Client
}

func NewPools(client *Client) *Pools {
	return &Pools{client: client}
}

var _ engine.PoolReader = (*Pools)(nil)

func (p *Pools) PoolMetadata(ctx context.Context, pool common.Address) (engine.PoolMetadata, error) {
	readAddress := func(method string) (common.Address, error) {
		data, err := poolABI.Pack(method)
		if err != nil {
			return common.Address{}, fmt.Errorf("failed to encode %s call: %w", method, err)
		}
		out, err := p.client.Call(ctx, pool, data)
		if err != nil {
			return common.Address{}, err
		}
		vals, err := poolABI.Unpack(method, out)
		if err != nil {
			return common.Address{}, fmt.Errorf("failed to decode %s result: %w", method, err)
		}
		return addressAt(vals, 0)
	}

	token0, err := readAddress("token0")
	if err != nil {
		return engine.PoolMetadata{}, err
	}
	token1, err := readAddress("token1")
	if err != nil {
		return engine.PoolMetadata{}, err
	}

	data, err := poolABI.Pack("fee")
	if err != nil {
		return engine.PoolMetadata{}, fmt.Errorf("failed to encode fee call: %w", err)
	}
	out, err := p.client.Call(ctx, pool, data)
	if err != nil {
		return engine.PoolMetadata{}, err
	}
	vals, err := poolABI.Unpack("fee", out)
	if err != nil {
		return engine.PoolMetadata{}, fmt.Errorf("failed to decode fee result: %w", err)
	}
	feeTier, err := bigIntAt(vals, 0)
	if err != nil {
		return engine.PoolMetadata{}, err
	}

	return engine.PoolMetadata{
		Token0:  token0,
		Token1:  token1,
		FeeTier: uint32(feeTier.Uint64()),
	}, nil
}
