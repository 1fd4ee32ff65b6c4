package ethereum

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// Backend is the part of an Ethereum client the deployer needs
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// DialFunc opens a backend for an RPC URL
type DialFunc func(ctx context.Context, rpcURL string) (Backend, func(), error)

// Deployer sends creation transactions signed with a local private key
type Deployer struct {
	privateKey string
	dial       DialFunc
	log        *slog.Logger

	backend Backend
	closer  func()
	opts    *bind.TransactOpts
}

// NewDeployer creates a deployer that signs with the configured private key
func NewDeployer(cfg *config.RuntimeConfig, log *slog.Logger) *Deployer {
	return &Deployer{
		privateKey: cfg.PrivateKey,
		dial:       dialRPC,
		log:        log.With("component", "Deployer"),
	}
}

func dialRPC(ctx context.Context, rpcURL string) (Backend, func(), error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

// Connect dials the network and prepares the transactor
func (d *Deployer) Connect(ctx context.Context, network *config.Network) error {
	key, err := parsePrivateKey(d.privateKey)
	if err != nil {
		return err
	}

	backend, closer, err := d.dial(ctx, network.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RPC %s: %w", network.RPCURL, err)
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		closeBackend(closer)
		return fmt.Errorf("failed to get chain ID: %w", err)
	}
	if network.ChainID != 0 && chainID.Uint64() != network.ChainID {
		closeBackend(closer)
		return fmt.Errorf("%w: network %s expects %d, RPC reports %d",
			domain.ErrChainIDMismatch, network.Name, network.ChainID, chainID.Uint64())
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		closeBackend(closer)
		return fmt.Errorf("failed to create transactor: %w", err)
	}

	d.backend = backend
	d.closer = closer
	d.opts = opts
	d.log.Debug("connected", "network", network.Name, "chainId", chainID.Uint64(), "account", opts.From.Hex())
	return nil
}

func parsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("no deployer key configured: set TREB_PRIVATE_KEY or PRIVATE_KEY")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid deployer key: %w", err)
	}
	return key, nil
}

func closeBackend(closer func()) {
	if closer != nil {
		closer()
	}
}

// Account returns the address transactions are sent from
func (d *Deployer) Account() common.Address {
	if d.opts == nil {
		return common.Address{}
	}
	return d.opts.From
}

// Deploy sends the creation transaction without waiting for it to be mined
func (d *Deployer) Deploy(ctx context.Context, req usecase.DeployRequest) (*usecase.PendingDeployment, error) {
	if d.backend == nil {
		return nil, fmt.Errorf("deployer is not connected")
	}

	abiJSON := req.ABI
	if len(abiJSON) == 0 {
		abiJSON = []byte("[]")
	}
	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI for %s: %w", req.ContractName, err)
	}

	args, err := CoerceArgs(parsed.Constructor.Inputs, req.Args)
	if err != nil {
		return nil, fmt.Errorf("%s constructor: %w", req.ContractName, err)
	}
	packed, err := parsed.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode constructor arguments: %w", err)
	}

	opts := *d.opts
	opts.Context = ctx

	address, tx, _, err := bind.DeployContract(&opts, parsed, common.FromHex(req.Bytecode), d.backend, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to send deployment of %s: %w", req.ContractName, err)
	}

	d.log.Debug("deployment sent", "contract", req.ContractName, "tx", tx.Hash().Hex(), "address", address.Hex())
	return &usecase.PendingDeployment{
		Tx:              tx,
		Address:         address,
		ConstructorArgs: packed,
	}, nil
}

// WaitDeployed blocks until the creation transaction is mined and code exists at the address
func (d *Deployer) WaitDeployed(ctx context.Context, pending *usecase.PendingDeployment) (*usecase.DeployReceipt, error) {
	if d.backend == nil {
		return nil, fmt.Errorf("deployer is not connected")
	}

	receipt, err := bind.WaitMined(ctx, d.backend, pending.Tx)
	if err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", pending.Tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted in block %d", pending.Tx.Hash().Hex(), receipt.BlockNumber.Uint64())
	}
	if receipt.ContractAddress == (common.Address{}) {
		return nil, fmt.Errorf("transaction %s is not a contract creation", pending.Tx.Hash().Hex())
	}

	code, err := d.backend.CodeAt(ctx, receipt.ContractAddress, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read code at %s: %w", receipt.ContractAddress.Hex(), err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w at %s (tx %s)", domain.ErrNoCodeAfterDeploy, receipt.ContractAddress.Hex(), pending.Tx.Hash().Hex())
	}

	return &usecase.DeployReceipt{
		Address:     receipt.ContractAddress,
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}, nil
}

// Close releases the RPC connection
func (d *Deployer) Close() {
	closeBackend(d.closer)
	d.backend = nil
	d.closer = nil
}

var _ usecase.ContractDeployer = (*Deployer)(nil)
