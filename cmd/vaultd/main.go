package main

import (
	"context"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/mercuri-finance/mercuri-protocol/internal/config"
	"github.com/mercuri-finance/mercuri-protocol/internal/engine/evm"
	"github.com/mercuri-finance/mercuri-protocol/internal/logger"
	"github.com/mercuri-finance/mercuri-protocol/internal/state"
	"github.com/mercuri-finance/mercuri-protocol/internal/vault"
	"github.com/mercuri-finance/mercuri-protocol/internal/web"
)

// main is the entry point for the vault service.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Vault service starting...")

	// Initialize database connection for the event journal
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	ctx := context.Background()

	// --- 2. Chain Client and Collaborator Engines ---
	client, err := evm.Dial(ctx, config.RPCURL, config.ChainID, config.SignerKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to chain")
	}
	defer client.Close()

	if client.From() != config.VaultAddress {
		log.Fatal().
			Str("signer", client.From().Hex()).
			Str("vault", config.VaultAddress.Hex()).
			Msg("Signer key does not control the configured vault address")
	}

	journal := state.NewJournal(config.VaultAddress)
	recorder := state.NewSnapshotRecorder(journal)

	// --- 3. Vault Initialization ---
	v, err := vault.New(ctx, vault.Config{
		Owner:   config.OwnerAddress,
		Self:    config.VaultAddress,
		Pool:    config.PoolAddress,
		Manager: config.ManagerAddress,

		Liquidity: evm.NewPositionManager(client, config.PositionManagerAddress),
		Swapper:   evm.NewSwapRouter(client, config.SwapRouterAddress),
		Registry:  evm.NewRegistry(client, config.RegistryAddress),
		Fees:      evm.NewFactory(client, config.FactoryAddress),
		WNative:   evm.NewWNative(client, config.WNativeAddress),
		Tokens:    evm.NewTokens(client),
		Native:    evm.NewNativeSender(client),
		Pools:     evm.NewPools(client),

		Notifier: vault.Notifiers{journal, recorder},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize vault")
	}
	recorder.Bind(v)

	if err := journal.SaveSnapshot(v.Status()); err != nil {
		log.Warn().Err(err).Msg("Failed to persist initial vault snapshot")
	}

	// --- 4. Web Dashboard ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}

	webServer := web.NewWebServer(webPort, v, journal)
	log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting vault dashboard")
	if err := webServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("Web server failed")
	}
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
