package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"github.com/mercuri-finance/mercuri-protocol/internal/logger"
)

// Client wraps an ethclient connection with a signing identity. All
// contract interactions in this package go through Call (eth_call) and
// Send (signed transaction, mined and status-checked).
type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
	key     *ecdsa.PrivateKey
	from    common.Address
	log     zerolog.Logger
}

// Dial connects to an RPC endpoint and loads the signer key.
func Dial(ctx context.Context, rpcURL string, chainID int64, signerKeyHex string) (*Client, error) {
	if err := loadABIs(); err != nil {
		return nil, fmt.Errorf("failed to parse contract ABIs: %w", err)
	}

	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC endpoint: %w", err)
	}

	key, err := crypto.HexToECDSA(signerKeyHex)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("failed to parse signer key: %w", err)
	}

	c := &Client{
		eth:     eth,
		chainID: big.NewInt(chainID),
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		log:     logger.GetForComponent("evm_client"),
	}
	c.log.Info().Str("signer", c.from.Hex()).Int64("chain_id", chainID).Msg("EVM client connected")
	return c, nil
}

// From returns the signer address.
func (c *Client) From() common.Address {
	return c.from
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// Call executes a read-only contract call and returns the raw result.
func (c *Client) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{
		From: c.from,
		To:   &to,
		Data: data,
	}
	out, err := c.eth.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("contract call to %s failed: %w", to.Hex(), err)
	}
	return out, nil
}

// Simulate runs the calldata as an eth_call from the signer so that the
// return values of a state-changing method can be decoded before the
// transaction is actually sent.
func (c *Client) Simulate(ctx context.Context, to common.Address, data []byte, value *big.Int) ([]byte, error) {
	msg := ethereum.CallMsg{
		From:  c.from,
		To:    &to,
		Value: value,
		Data:  data,
	}
	out, err := c.eth.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("simulation against %s failed: %w", to.Hex(), err)
	}
	return out, nil
}

// Send signs and submits a transaction, waits for it to be mined, and
// verifies the receipt status.
func (c *Client) Send(ctx context.Context, to common.Address, data []byte, value *big.Int) (*types.Receipt, error) {
	nonce, err := c.eth.PendingNonceAt(ctx, c.from)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce: %w", err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	if value == nil {
		value = big.NewInt(0)
	}
	gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:     c.from,
		To:       &to,
		Value:    value,
		Data:     data,
		GasPrice: gasPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("gas estimation against %s failed: %w", to.Hex(), err)
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	c.log.Debug().Str("tx", signed.Hash().Hex()).Str("to", to.Hex()).Msg("Transaction broadcast")

	receipt, err := bind.WaitMined(ctx, c.eth, signed)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for transaction %s: %w", signed.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("transaction %s reverted", signed.Hash().Hex())
	}
	return receipt, nil
}

// Execute simulates the call to decode its return data, then sends the
// same calldata as a real transaction. The simulated output is only
// meaningful if the chain state does not shift between the two steps,
// which is acceptable for the single-writer vault account.
func (c *Client) Execute(ctx context.Context, to common.Address, data []byte, value *big.Int) ([]byte, error) {
	out, err := c.Simulate(ctx, to, data, value)
	if err != nil {
		return nil, err
	}
	if _, err := c.Send(ctx, to, data, value); err != nil {
		return nil, err
	}
	return out, nil
}
