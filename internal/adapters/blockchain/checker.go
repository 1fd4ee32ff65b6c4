package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// CheckerAdapter implements the BlockchainChecker interface using ethclient
type CheckerAdapter struct {
	client  *ethclient.Client
	chainID uint64
	timeout time.Duration
	log     *slog.Logger
}

// NewCheckerAdapter creates a new blockchain checker adapter
func NewCheckerAdapter(log *slog.Logger) *CheckerAdapter {
	return &CheckerAdapter{
		timeout: 5 * time.Second,
		log:     log.With("component", "BlockchainChecker"),
	}
}

// Connect establishes connection to the blockchain
func (c *CheckerAdapter) Connect(ctx context.Context, rpcURL string, chainID uint64) error {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RPC: %w", err)
	}

	networkChainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return fmt.Errorf("failed to get chain ID: %w", err)
	}

	// A zero chain ID accepts whatever the RPC reports
	if chainID != 0 && networkChainID.Uint64() != chainID {
		client.Close()
		return fmt.Errorf("%w: expected %d, got %d", domain.ErrChainIDMismatch, chainID, networkChainID.Uint64())
	}

	c.client = client
	c.chainID = networkChainID.Uint64()
	c.log.Debug("connected", "rpc", rpcURL, "chainId", c.chainID)
	return nil
}

// CheckDeploymentExists checks if a contract exists at the given address
func (c *CheckerAdapter) CheckDeploymentExists(ctx context.Context, address string) (exists bool, reason string, err error) {
	if c.client == nil {
		return false, "", fmt.Errorf("not connected to blockchain")
	}
	if !common.IsHexAddress(address) {
		return false, "", fmt.Errorf("%w: %s", domain.ErrInvalidAddress, address)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	code, err := c.client.CodeAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return false, fmt.Sprintf("failed to check code: %v", err), nil
	}

	if len(code) == 0 {
		return false, "no code at address", nil
	}

	return true, "", nil
}

// Close releases the RPC connection
func (c *CheckerAdapter) Close() {
	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
}

// Ensure the adapter implements the interface
var _ usecase.BlockchainChecker = (*CheckerAdapter)(nil)
