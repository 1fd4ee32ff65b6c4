package ethereum

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

const (
	// anvil account #0
	testKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

	// copies a single STOP byte as runtime code
	stopContract = "0x6001600c60003960016000f300"
	// reverts in the constructor
	revertContract = "0x60006000fd"
	// returns empty runtime code
	emptyContract = "0x60006000f3"
)

var resolverABI = json.RawMessage(`[{"type":"constructor","inputs":[
	{"name":"_registry","type":"address"},
	{"name":"_didRegistry","type":"address"}
]}]`)

func newSimulatedDeployer(t *testing.T) (*Deployer, *simulated.Backend) {
	t.Helper()

	key, err := crypto.HexToECDSA(testKey[2:])
	require.NoError(t, err)
	funds, _ := new(big.Int).SetString("1000000000000000000000", 10)

	sim := simulated.NewBackend(types.GenesisAlloc{
		crypto.PubkeyToAddress(key.PublicKey): {Balance: funds},
	})
	t.Cleanup(func() { _ = sim.Close() })

	d := NewDeployer(&config.RuntimeConfig{PrivateKey: testKey}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	d.dial = func(ctx context.Context, rpcURL string) (Backend, func(), error) {
		return sim.Client(), nil, nil
	}
	return d, sim
}

func deploy(t *testing.T, d *Deployer, sim *simulated.Backend, req usecase.DeployRequest) (*usecase.PendingDeployment, *usecase.DeployReceipt, error) {
	t.Helper()
	ctx := context.Background()

	pending, err := d.Deploy(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	sim.Commit()
	receipt, err := d.WaitDeployed(ctx, pending)
	return pending, receipt, err
}

func TestDeployer(t *testing.T) {
	ctx := context.Background()
	network := &config.Network{Name: "sim", ChainID: 1337}

	t.Run("deploys in sequence", func(t *testing.T) {
		d, sim := newSimulatedDeployer(t)
		require.NoError(t, d.Connect(ctx, network))
		defer d.Close()

		assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), d.Account())

		registry, receipt, err := deploy(t, d, sim, usecase.DeployRequest{ContractName: "IdentityRegistry", Bytecode: stopContract})
		require.NoError(t, err)
		assert.Equal(t, crypto.CreateAddress(d.Account(), 0), registry.Address)
		assert.Equal(t, registry.Address, receipt.Address)
		assert.Equal(t, uint64(1), receipt.BlockNumber)
		assert.NotZero(t, receipt.GasUsed)

		didRegistry, _, err := deploy(t, d, sim, usecase.DeployRequest{ContractName: "EthereumDIDRegistry", Bytecode: stopContract})
		require.NoError(t, err)
		assert.Equal(t, crypto.CreateAddress(d.Account(), 1), didRegistry.Address)

		resolver, receipt, err := deploy(t, d, sim, usecase.DeployRequest{
			ContractName: "ERC1056Resolver",
			ABI:          resolverABI,
			Bytecode:     stopContract,
			Args:         []any{registry.Address, didRegistry.Address},
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(3), receipt.BlockNumber)

		require.Len(t, resolver.ConstructorArgs, 64)
		assert.Equal(t, registry.Address.Bytes(), resolver.ConstructorArgs[12:32])
		assert.Equal(t, didRegistry.Address.Bytes(), resolver.ConstructorArgs[44:64])

		code, err := sim.Client().CodeAt(ctx, resolver.Address, nil)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00}, code)
	})

	t.Run("reverting constructor", func(t *testing.T) {
		d, sim := newSimulatedDeployer(t)
		require.NoError(t, d.Connect(ctx, network))

		_, _, err := deploy(t, d, sim, usecase.DeployRequest{ContractName: "Broken", Bytecode: revertContract})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Broken")
	})

	t.Run("no code after deploy", func(t *testing.T) {
		d, sim := newSimulatedDeployer(t)
		require.NoError(t, d.Connect(ctx, network))

		_, _, err := deploy(t, d, sim, usecase.DeployRequest{ContractName: "Empty", Bytecode: emptyContract})
		assert.ErrorIs(t, err, domain.ErrNoCodeAfterDeploy)
	})

	t.Run("bad constructor arguments", func(t *testing.T) {
		d, sim := newSimulatedDeployer(t)
		require.NoError(t, d.Connect(ctx, network))

		_, _, err := deploy(t, d, sim, usecase.DeployRequest{
			ContractName: "ERC1056Resolver",
			ABI:          resolverABI,
			Bytecode:     stopContract,
			Args:         []any{"@IdentityRegistry", common.Address{}},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidAddress)
	})

	t.Run("chain id mismatch", func(t *testing.T) {
		d, _ := newSimulatedDeployer(t)
		err := d.Connect(ctx, &config.Network{Name: "mainnet", ChainID: 1})
		assert.ErrorIs(t, err, domain.ErrChainIDMismatch)
	})

	t.Run("missing key", func(t *testing.T) {
		d, _ := newSimulatedDeployer(t)
		d.privateKey = ""
		err := d.Connect(ctx, network)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PRIVATE_KEY")
	})

	t.Run("not connected", func(t *testing.T) {
		d, _ := newSimulatedDeployer(t)
		_, err := d.Deploy(ctx, usecase.DeployRequest{ContractName: "X", Bytecode: stopContract})
		assert.Error(t, err)
		assert.Equal(t, common.Address{}, d.Account())
	})
}
