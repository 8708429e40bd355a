package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment
// variables. These are populated at startup by the LoadConfig function.
var (
	// RPCURL is the JSON-RPC endpoint of the target EVM network.
	RPCURL string
	// ChainID is the chain id of the target network, required for
	// transaction signing.
	ChainID int64
	// SignerKey is the hex-encoded private key of the vault's operating
	// account.
	SignerKey string

	// VaultAddress is the vault's own account address.
	VaultAddress common.Address
	// OwnerAddress is the vault owner.
	OwnerAddress common.Address
	// ManagerAddress is the optional initial manager (may be unset).
	ManagerAddress common.Address

	// PoolAddress is the pool the vault is bound to.
	PoolAddress common.Address
	// PositionManagerAddress is the concentrated-liquidity position engine.
	PositionManagerAddress common.Address
	// SwapRouterAddress is the swap engine.
	SwapRouterAddress common.Address
	// RegistryAddress is the manager approval registry.
	RegistryAddress common.Address
	// FactoryAddress is the protocol fee configuration source.
	FactoryAddress common.Address
	// WNativeAddress is the wrapped-native-asset contract.
	WNativeAddress common.Address
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. All environment variables are required unless noted.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	RPCURL, err = getEnv("RPC_URL")
	if err != nil {
		return err
	}

	ChainID, err = getEnvAsInt64("CHAIN_ID")
	if err != nil {
		return err
	}

	SignerKey, err = getEnv("SIGNER_PRIVATE_KEY")
	if err != nil {
		return err
	}

	VaultAddress, err = getEnvAsAddress("VAULT_ADDRESS")
	if err != nil {
		return err
	}

	OwnerAddress, err = getEnvAsAddress("VAULT_OWNER")
	if err != nil {
		return err
	}

	// Manager is optional; a missing value leaves the vault without a
	// delegated operator.
	if raw, exists := os.LookupEnv("VAULT_MANAGER"); exists && raw != "" {
		if !common.IsHexAddress(raw) {
			return errors.New("environment variable VAULT_MANAGER must be a valid hex address, got: " + raw)
		}
		ManagerAddress = common.HexToAddress(raw)
	}

	PoolAddress, err = getEnvAsAddress("POOL_ADDRESS")
	if err != nil {
		return err
	}

	PositionManagerAddress, err = getEnvAsAddress("POSITION_MANAGER_ADDRESS")
	if err != nil {
		return err
	}

	SwapRouterAddress, err = getEnvAsAddress("SWAP_ROUTER_ADDRESS")
	if err != nil {
		return err
	}

	RegistryAddress, err = getEnvAsAddress("MANAGER_REGISTRY_ADDRESS")
	if err != nil {
		return err
	}

	FactoryAddress, err = getEnvAsAddress("FACTORY_ADDRESS")
	if err != nil {
		return err
	}

	WNativeAddress, err = getEnvAsAddress("WNATIVE_ADDRESS")
	if err != nil {
		return err
	}

	log.Debug().
		Str("VaultAddress", VaultAddress.Hex()).
		Str("OwnerAddress", OwnerAddress.Hex()).
		Str("PoolAddress", PoolAddress.Hex()).
		Int64("ChainID", ChainID).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsInt64 retrieves an environment variable as an int64. Returns
// error if not set or invalid.
func getEnvAsInt64(key string) (int64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsAddress retrieves an environment variable as a hex address.
// Returns error if not set, invalid, or zero.
func getEnvAsAddress(key string) (common.Address, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(valueStr) {
		return common.Address{}, errors.New("environment variable " + key + " must be a valid hex address, got: " + valueStr)
	}
	addr := common.HexToAddress(valueStr)
	if addr == (common.Address{}) {
		return common.Address{}, errors.New("environment variable " + key + " must not be the zero address")
	}
	return addr, nil
}
