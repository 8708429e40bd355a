package vault_test

import (
	"context"
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/mercuri-finance/mercuri-protocol/internal/engine"
	"github.com/mercuri-finance/mercuri-protocol/internal/types"
	"github.com/mercuri-finance/mercuri-protocol/internal/vault"
)

var (
	addrOwner        = common.HexToAddress("0x1111111111111111111111111111111111111111")
	addrManager      = common.HexToAddress("0x2222222222222222222222222222222222222222")
	addrVault        = common.HexToAddress("0x3333333333333333333333333333333333333333")
	addrPool         = common.HexToAddress("0x4444444444444444444444444444444444444444")
	addrToken0       = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	addrToken1       = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	addrRouter       = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	addrFeeRecipient = common.HexToAddress("0xdddddddddddddddddddddddddddddddddddddddd")
	addrOutsider     = common.HexToAddress("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	addrForeignToken = common.HexToAddress("0xffffffffffffffffffffffffffffffffffffffff")
)

const testFeeTier = 500

// env wires a vault to in-memory collaborators and records every external
// call in order, so tests can assert the teardown sequence.
type env struct {
	t     *testing.T
	calls []string
	notes []types.Notification

	liq      *mockLiquidity
	tokens   *mockTokens
	registry *mockRegistry
	fees     *mockFees
	wnative  *mockWNative
	native   *mockNative
	swapper  *mockSwapper
	pools    *mockPools

	v *vault.Vault
}

func (e *env) record(call string) {
	e.calls = append(e.calls, call)
}

func (e *env) Notify(_ context.Context, n types.Notification) {
	e.notes = append(e.notes, n)
}

func (e *env) notesOfKind(kind types.NotificationKind) []types.Notification {
	var out []types.Notification
	for _, n := range e.notes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// newEnvNoVault builds the collaborator set with defaults: the manager is
// registry-approved, the protocol fee is 20%, token1 doubles as the
// wrapped-native asset.
func newEnvNoVault(t *testing.T) *env {
	e := &env{t: t}
	e.liq = &mockLiquidity{env: e, nextTokenID: 42, liquidity: sdkmath.ZeroInt(), owed: types.ZeroAmounts(), moved: types.ZeroAmounts()}
	e.tokens = &mockTokens{env: e, balances: map[common.Address]sdkmath.Int{}}
	e.registry = &mockRegistry{env: e, approved: map[common.Address]bool{addrManager: true}}
	e.fees = &mockFees{env: e, bps: 2000, recipient: addrFeeRecipient}
	e.wnative = &mockWNative{env: e, addr: addrToken1}
	e.native = &mockNative{env: e}
	e.swapper = &mockSwapper{env: e, addr: addrRouter, out: sdkmath.NewInt(1)}
	e.pools = &mockPools{meta: engine.PoolMetadata{Token0: addrToken0, Token1: addrToken1, FeeTier: testFeeTier}}
	return e
}

func (e *env) config() vault.Config {
	return vault.Config{
		Owner:     addrOwner,
		Self:      addrVault,
		Pool:      addrPool,
		Manager:   addrManager,
		Liquidity: e.liq,
		Swapper:   e.swapper,
		Registry:  e.registry,
		Fees:      e.fees,
		WNative:   e.wnative,
		Tokens:    e.tokens,
		Native:    e.native,
		Pools:     e.pools,
		Notifier:  e,
	}
}

func newEnv(t *testing.T) *env {
	e := newEnvNoVault(t)
	v, err := vault.New(context.Background(), e.config())
	require.NoError(t, err)
	e.v = v
	// Construction reads pool metadata and the fee source; drop those
	// calls so tests assert operation sequences only.
	e.calls = nil
	return e
}

func defaultMintRequest() vault.MintRequest {
	return vault.MintRequest{
		Token0:         addrToken0,
		Token1:         addrToken1,
		FeeTier:        testFeeTier,
		TickLower:      -600,
		TickUpper:      600,
		Amount0Desired: sdkmath.NewInt(10_000),
		Amount1Desired: sdkmath.NewInt(20_000),
		Amount0Min:     sdkmath.NewInt(9_000),
		Amount1Min:     sdkmath.NewInt(18_000),
		Recipient:      addrVault,
		Deadline:       1_700_000_000,
	}
}

// mintActive opens the default position and seeds the engine with accrued
// swap fees and principal for teardown tests.
func (e *env) mintActive(fees, principal types.TokenAmounts) uint64 {
	res, err := e.v.Mint(context.Background(), addrOwner, defaultMintRequest())
	require.NoError(e.t, err)
	e.liq.owed = fees
	e.liq.moved = principal
	e.calls = nil
	e.notes = nil
	return res.TokenID
}

func amounts(a0, a1 int64) types.TokenAmounts {
	return types.TokenAmounts{Amount0: sdkmath.NewInt(a0), Amount1: sdkmath.NewInt(a1)}
}

// --- liquidity engine mock ---

type mockLiquidity struct {
	env         *env
	nextTokenID uint64
	tokenID     uint64
	liquidity   sdkmath.Int
	// owed is the engine-side owed balance: swap fees before a full
	// decrease, plus principal afterwards.
	owed types.TokenAmounts
	// moved is the principal a full decrease shifts into owed.
	moved types.TokenAmounts

	mintErr     error
	collectErr  error
	decreaseErr error
	burnErr     error
	positionErr error

	lastDecrease engine.DecreaseParams

	onCollect func(ctx context.Context) error
}

func (m *mockLiquidity) Mint(_ context.Context, params engine.MintParams) (engine.MintResult, error) {
	m.env.record("mint")
	if m.mintErr != nil {
		return engine.MintResult{}, m.mintErr
	}
	m.tokenID = m.nextTokenID
	m.liquidity = sdkmath.NewInt(500_000)
	return engine.MintResult{
		TokenID:   m.tokenID,
		Liquidity: m.liquidity,
		Used:      types.TokenAmounts{Amount0: params.Amount0Desired, Amount1: params.Amount1Desired},
	}, nil
}

func (m *mockLiquidity) IncreaseLiquidity(_ context.Context, params engine.IncreaseParams) (types.TokenAmounts, error) {
	m.env.record("increase")
	m.liquidity = m.liquidity.Add(sdkmath.NewInt(1000))
	return types.TokenAmounts{Amount0: params.Amount0Desired, Amount1: params.Amount1Desired}, nil
}

func (m *mockLiquidity) DecreaseLiquidity(_ context.Context, params engine.DecreaseParams) (types.TokenAmounts, error) {
	m.env.record("decrease")
	m.lastDecrease = params
	if m.decreaseErr != nil {
		return types.ZeroAmounts(), m.decreaseErr
	}
	if params.Liquidity.GTE(m.liquidity) {
		// Full removal: principal moves into the owed balance.
		m.liquidity = sdkmath.ZeroInt()
		m.owed = m.owed.Add(m.moved)
		out := m.moved
		m.moved = types.ZeroAmounts()
		return out, nil
	}
	m.liquidity = m.liquidity.Sub(params.Liquidity)
	return types.ZeroAmounts(), nil
}

func (m *mockLiquidity) Collect(ctx context.Context, params engine.CollectParams) (types.TokenAmounts, error) {
	m.env.record("collect")
	if params.TokenID != m.tokenID {
		return types.ZeroAmounts(), errors.New("unknown token id")
	}
	if m.onCollect != nil {
		if err := m.onCollect(ctx); err != nil {
			return types.ZeroAmounts(), err
		}
	}
	if m.collectErr != nil {
		return types.ZeroAmounts(), m.collectErr
	}
	out := m.owed
	m.owed = types.ZeroAmounts()
	// Proceeds land in the recipient's token balances.
	m.env.tokens.credit(addrToken0, out.Amount0)
	m.env.tokens.credit(addrToken1, out.Amount1)
	return out, nil
}

func (m *mockLiquidity) Burn(_ context.Context, tokenID uint64) error {
	m.env.record("burn")
	if m.burnErr != nil {
		return m.burnErr
	}
	if m.liquidity.IsPositive() || !m.owed.IsZero() {
		return errors.New("position not cleared")
	}
	m.tokenID = 0
	return nil
}

func (m *mockLiquidity) Position(_ context.Context, tokenID uint64) (engine.PositionSnapshot, error) {
	m.env.record("position")
	if m.positionErr != nil {
		return engine.PositionSnapshot{}, m.positionErr
	}
	if tokenID != m.tokenID {
		return engine.PositionSnapshot{}, errors.New("unknown token id")
	}
	return engine.PositionSnapshot{
		Liquidity:  m.liquidity,
		TokensOwed: m.owed,
		Token0:     addrToken0,
		Token1:     addrToken1,
		FeeTier:    testFeeTier,
	}, nil
}

// --- token client mock ---

type tokenTransfer struct {
	token  common.Address
	to     common.Address
	amount sdkmath.Int
}

type tokenApproval struct {
	token   common.Address
	spender common.Address
	amount  sdkmath.Int
}

type mockTokens struct {
	env       *env
	balances  map[common.Address]sdkmath.Int
	transfers []tokenTransfer
	approvals []tokenApproval

	transferErr error
	onTransfer  func(ctx context.Context) error
}

func (m *mockTokens) credit(token common.Address, amount sdkmath.Int) {
	if amount.IsNil() || amount.IsZero() {
		return
	}
	current, ok := m.balances[token]
	if !ok {
		current = sdkmath.ZeroInt()
	}
	m.balances[token] = current.Add(amount)
}

func (m *mockTokens) BalanceOf(_ context.Context, token, _ common.Address) (sdkmath.Int, error) {
	m.env.record("balance_of")
	bal, ok := m.balances[token]
	if !ok {
		return sdkmath.ZeroInt(), nil
	}
	return bal, nil
}

func (m *mockTokens) Transfer(ctx context.Context, token, to common.Address, amount sdkmath.Int) error {
	m.env.record("transfer")
	if m.onTransfer != nil {
		if err := m.onTransfer(ctx); err != nil {
			return err
		}
	}
	if m.transferErr != nil {
		return m.transferErr
	}
	bal, ok := m.balances[token]
	if !ok || bal.LT(amount) {
		return errors.New("insufficient balance")
	}
	m.balances[token] = bal.Sub(amount)
	m.transfers = append(m.transfers, tokenTransfer{token: token, to: to, amount: amount})
	return nil
}

func (m *mockTokens) Approve(_ context.Context, token, spender common.Address, amount sdkmath.Int) error {
	m.env.record("approve")
	m.approvals = append(m.approvals, tokenApproval{token: token, spender: spender, amount: amount})
	return nil
}

// --- registry / fee source mocks ---

type mockRegistry struct {
	env      *env
	approved map[common.Address]bool
	err      error
}

func (m *mockRegistry) IsApproved(_ context.Context, identity common.Address) (bool, error) {
	m.env.record("is_approved")
	if m.err != nil {
		return false, m.err
	}
	return m.approved[identity], nil
}

type mockFees struct {
	env       *env
	bps       uint32
	recipient common.Address
	err       error
}

func (m *mockFees) ProtocolFees(_ context.Context) (engine.ProtocolFees, error) {
	m.env.record("protocol_fees")
	if m.err != nil {
		return engine.ProtocolFees{}, m.err
	}
	return engine.ProtocolFees{FeeBps: m.bps, Recipient: m.recipient}, nil
}

// --- wrapped native / native transfer mocks ---

type mockWNative struct {
	env         *env
	addr        common.Address
	deposits    []sdkmath.Int
	withdraws   []sdkmath.Int
	depositErr  error
	withdrawErr error
	onWithdraw  func(ctx context.Context) error
}

func (m *mockWNative) Address() common.Address { return m.addr }

func (m *mockWNative) Deposit(_ context.Context, amount sdkmath.Int) error {
	m.env.record("wnative_deposit")
	if m.depositErr != nil {
		return m.depositErr
	}
	m.deposits = append(m.deposits, amount)
	return nil
}

func (m *mockWNative) Withdraw(ctx context.Context, amount sdkmath.Int) error {
	m.env.record("wnative_withdraw")
	if m.onWithdraw != nil {
		if err := m.onWithdraw(ctx); err != nil {
			return err
		}
	}
	if m.withdrawErr != nil {
		return m.withdrawErr
	}
	m.withdraws = append(m.withdraws, amount)
	return nil
}

type nativeSend struct {
	to     common.Address
	amount sdkmath.Int
}

type mockNative struct {
	env  *env
	sent []nativeSend
	err  error
}

func (m *mockNative) TransferNative(_ context.Context, to common.Address, amount sdkmath.Int) error {
	m.env.record("native_transfer")
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, nativeSend{to: to, amount: amount})
	return nil
}

// --- swap engine / pool reader mocks ---

type mockSwapper struct {
	env        *env
	addr       common.Address
	out        sdkmath.Int
	err        error
	lastParams engine.SwapParams
}

func (m *mockSwapper) Address() common.Address { return m.addr }

func (m *mockSwapper) ExactInputSingle(_ context.Context, params engine.SwapParams) (sdkmath.Int, error) {
	m.env.record("swap")
	m.lastParams = params
	if m.err != nil {
		return sdkmath.ZeroInt(), m.err
	}
	return m.out, nil
}

type mockPools struct {
	meta engine.PoolMetadata
	err  error
}

func (m *mockPools) PoolMetadata(_ context.Context, _ common.Address) (engine.PoolMetadata, error) {
	if m.err != nil {
		return engine.PoolMetadata{}, m.err
	}
	return m.meta, nil
}
