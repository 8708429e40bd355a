// Package vault implements the core of the system: a non-custodial vault
// holding one concentrated-liquidity position on behalf of one owner, with
// optional delegated operation by a revocable manager.
//
// Every state-mutating entry point passes through the single-flight guard,
// then the authorization gate, then operation-specific validation, before
// any external collaborator is called. The fee/principal ledger and the
// four-step teardown ordering guarantee that the protocol performance fee
// is charged on swap-fee income only, never on returned principal.
package vault

import (
	"context"
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/mercuri-finance/mercuri-protocol/internal/engine"
	"github.com/mercuri-finance/mercuri-protocol/internal/logger"
	"github.com/mercuri-finance/mercuri-protocol/internal/types"
)

// BpsDenominator is the basis-point denominator for the performance fee.
const BpsDenominator = 10_000

var vaultLogger = logger.GetForComponent("vault")

// Notifier receives vault notifications after successful operations.
// Implementations may read vault state (Status and the other getters) but
// must never call a guarded operation; the single-flight guard rejects
// that as reentrancy.
type Notifier interface {
	Notify(ctx context.Context, n types.Notification)
}

// Notifiers fans a notification out to multiple receivers.
type Notifiers []Notifier

// Notify implements Notifier.
func (ns Notifiers) Notify(ctx context.Context, n types.Notification) {
	for _, receiver := range ns {
		if receiver != nil {
			receiver.Notify(ctx, n)
		}
	}
}

// Config carries everything a vault instance needs at construction.
// Owner, pool binding, and collaborator references are write-once: the
// vault never accepts replacements after New returns.
type Config struct {
	// Owner is the sole capital authority. Write-once.
	Owner common.Address
	// Self is the vault's own account address, the recipient of all
	// position proceeds.
	Self common.Address
	// Pool binds the vault to one pool identity; the token pair and fee
	// tier are derived from it at construction.
	Pool common.Address
	// Manager is the optional initial delegated operator. May be zero.
	Manager common.Address

	Liquidity engine.LiquidityEngine
	Swapper   engine.SwapEngine
	Registry  engine.ManagerRegistry
	Fees      engine.FeeConfig
	WNative   engine.WrappedNative
	Tokens    engine.TokenClient
	Native    engine.NativeTransferer
	Pools     engine.PoolReader

	Notifier Notifier
}

// Vault is one vault instance. All exported state-mutating methods are
// serialized by the single-flight guard; concurrent or reentrant entry is
// rejected with ErrReentrant.
type Vault struct {
	mu   sync.Mutex
	busy bool
	// inflight is the rollback target for the guarded operation currently
	// in flight. Only touched while busy, so no extra locking.
	inflight stateSnapshot

	owner   common.Address
	self    common.Address
	manager common.Address

	pool    common.Address
	token0  common.Address
	token1  common.Address
	feeTier uint32

	positionID    uint64
	accruedFee0   sdkmath.Int
	accruedFee1   sdkmath.Int
	unwrapWNative bool

	liquidity engine.LiquidityEngine
	swapper   engine.SwapEngine
	registry  engine.ManagerRegistry
	fees      engine.FeeConfig
	wnative   engine.WrappedNative
	tokens    engine.TokenClient
	native    engine.NativeTransferer

	notifier Notifier
	log      zerolog.Logger
}

// New validates the configuration, binds the vault to its pool identity,
// and returns the instance. Configuration errors are fatal: no instance is
// created.
func New(ctx context.Context, cfg Config) (*Vault, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	meta, err := cfg.Pools.PoolMetadata(ctx, cfg.Pool)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving pool metadata: %w", ErrConfiguration, err)
	}
	if meta.Token0 == (common.Address{}) || meta.Token1 == (common.Address{}) {
		return nil, fmt.Errorf("%w: pool %s reports a zero token address", ErrConfiguration, cfg.Pool)
	}

	// Reject a fee source that is already misconfigured above the bps
	// ceiling rather than discovering it mid-teardown.
	protocolFees, err := cfg.Fees.ProtocolFees(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: reading protocol fees: %w", ErrConfiguration, err)
	}
	if protocolFees.FeeBps > BpsDenominator {
		return nil, fmt.Errorf("%w: protocol fee %d bps exceeds ceiling %d", ErrConfiguration, protocolFees.FeeBps, BpsDenominator)
	}

	v := &Vault{
		owner:       cfg.Owner,
		self:        cfg.Self,
		manager:     cfg.Manager,
		pool:        cfg.Pool,
		token0:      meta.Token0,
		token1:      meta.Token1,
		feeTier:     meta.FeeTier,
		accruedFee0: sdkmath.ZeroInt(),
		accruedFee1: sdkmath.ZeroInt(),
		liquidity:   cfg.Liquidity,
		swapper:     cfg.Swapper,
		registry:    cfg.Registry,
		fees:        cfg.Fees,
		wnative:     cfg.WNative,
		tokens:      cfg.Tokens,
		native:      cfg.Native,
		notifier:    cfg.Notifier,
		log: vaultLogger.With().
			Str("vault", cfg.Self.Hex()).
			Str("pool", cfg.Pool.Hex()).
			Logger(),
	}

	v.log.Info().
		Str("owner", v.owner.Hex()).
		Str("token0", v.token0.Hex()).
		Str("token1", v.token1.Hex()).
		Uint32("fee_tier", v.feeTier).
		Msg("Vault instance created")

	return v, nil
}

func validateConfig(cfg Config) error {
	if cfg.Owner == (common.Address{}) {
		return fmt.Errorf("%w: owner address is zero", ErrConfiguration)
	}
	if cfg.Self == (common.Address{}) {
		return fmt.Errorf("%w: vault address is zero", ErrConfiguration)
	}
	if cfg.Pool == (common.Address{}) {
		return fmt.Errorf("%w: pool address is zero", ErrConfiguration)
	}
	if cfg.Liquidity == nil {
		return fmt.Errorf("%w: liquidity engine is nil", ErrConfiguration)
	}
	if cfg.Swapper == nil {
		return fmt.Errorf("%w: swap engine is nil", ErrConfiguration)
	}
	if cfg.Registry == nil {
		return fmt.Errorf("%w: manager registry is nil", ErrConfiguration)
	}
	if cfg.Fees == nil {
		return fmt.Errorf("%w: fee configuration source is nil", ErrConfiguration)
	}
	if cfg.WNative == nil {
		return fmt.Errorf("%w: wrapped-native contract is nil", ErrConfiguration)
	}
	if cfg.Tokens == nil {
		return fmt.Errorf("%w: token client is nil", ErrConfiguration)
	}
	if cfg.Native == nil {
		return fmt.Errorf("%w: native transferer is nil", ErrConfiguration)
	}
	if cfg.Pools == nil {
		return fmt.Errorf("%w: pool reader is nil", ErrConfiguration)
	}
	return nil
}

// Owner returns the vault owner. The owner never changes after creation.
func (v *Vault) Owner() common.Address {
	return v.owner
}

// Manager returns the currently assigned manager address. A non-zero
// manager still needs live registry approval to act.
func (v *Vault) Manager() common.Address {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.manager
}

// PositionID returns the active position id, or 0 when no position exists.
func (v *Vault) PositionID() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.positionID
}

// AccruedFees returns the ledger balances. Outside an in-flight teardown
// these are always zero.
func (v *Vault) AccruedFees() types.TokenAmounts {
	v.mu.Lock()
	defer v.mu.Unlock()
	return types.TokenAmounts{Amount0: v.accruedFee0, Amount1: v.accruedFee1}
}

// Status returns a point-in-time snapshot of the vault's persisted surface.
func (v *Vault) Status() types.VaultStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return types.VaultStatus{
		Owner:         v.owner,
		Manager:       v.manager,
		Pool:          v.pool,
		Token0:        v.token0,
		Token1:        v.token1,
		FeeTier:       v.feeTier,
		PositionID:    v.positionID,
		Active:        v.positionID != 0,
		AccruedFees:   types.TokenAmounts{Amount0: v.accruedFee0, Amount1: v.accruedFee1},
		UnwrapWNative: v.unwrapWNative,
		ObservedAt:    time.Now().UTC(),
	}
}

// emit sends a notification to the configured receivers and logs it.
func (v *Vault) emit(ctx context.Context, n types.Notification) {
	n.Timestamp = time.Now().UTC()
	v.log.Info().
		Str("kind", string(n.Kind)).
		Uint64("position_id", n.PositionID).
		Msg("Vault notification")
	if v.notifier != nil {
		v.notifier.Notify(ctx, n)
	}
}

// field mutation helpers: the single-flight guard serializes operations,
// the mutex keeps concurrent readers (Status, dashboard) consistent.

func (v *Vault) setPositionID(id uint64) {
	v.mu.Lock()
	v.positionID = id
	v.mu.Unlock()
}

func (v *Vault) setManagerAddr(addr common.Address) {
	v.mu.Lock()
	v.manager = addr
	v.mu.Unlock()
}

func (v *Vault) setUnwrap(enabled bool) {
	v.mu.Lock()
	v.unwrapWNative = enabled
	v.mu.Unlock()
}

func (v *Vault) ledgerAdd(amounts types.TokenAmounts) {
	v.mu.Lock()
	v.accruedFee0 = v.accruedFee0.Add(amounts.Amount0)
	v.accruedFee1 = v.accruedFee1.Add(amounts.Amount1)
	v.mu.Unlock()
}

func (v *Vault) ledgerDrain() types.TokenAmounts {
	v.mu.Lock()
	drained := types.TokenAmounts{Amount0: v.accruedFee0, Amount1: v.accruedFee1}
	v.accruedFee0 = sdkmath.ZeroInt()
	v.accruedFee1 = sdkmath.ZeroInt()
	v.mu.Unlock()
	return drained
}
