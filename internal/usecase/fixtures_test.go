package usecase_test

import (
	"io"
	"log/slog"
	"time"

	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

var (
	devnet  = &config.Network{Name: "local", ChainID: 31337, RPCURL: "http://127.0.0.1:8545"}
	mainnet = &config.Network{Name: "mainnet", ChainID: 1, RPCURL: "https://eth.example"}
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.RuntimeConfig {
	return &config.RuntimeConfig{
		Namespace:   "default",
		NetworkName: "local",
		TxTimeout:   time.Minute,
	}
}

// identityArtifacts returns the compiled contracts of the identity registry project
func identityArtifacts() memoryArtifacts {
	return memoryArtifacts{
		"AddressSet": {
			Name:     "AddressSet",
			ABI:      []byte(`[]`),
			Bytecode: "0x6080",
		},
		"IdentityRegistry": {
			Name:     "IdentityRegistry",
			ABI:      []byte(`[]`),
			Bytecode: "0x6080__$0123456789abcdef0123456789abcdef01$__00",
			LinkReferences: map[string]map[string][]models.LinkReference{
				"contracts/AddressSet.sol": {"AddressSet": {{Start: 2, Length: 20}}},
			},
		},
		"EthereumDIDRegistry": {
			Name:     "EthereumDIDRegistry",
			ABI:      []byte(`[]`),
			Bytecode: "0x6080",
		},
		"ERC1056": {
			Name:     "ERC1056",
			ABI:      []byte(`[{"type":"constructor","inputs":[{"name":"_registry","type":"address"},{"name":"_didRegistry","type":"address"}]}]`),
			Bytecode: "0x6080",
		},
	}
}

// identityMigration declares the identity registry deployment
func identityMigration() *models.Migration {
	return &models.Migration{
		Number: 2,
		Name:   "deploy_contracts",
		Contracts: []models.ContractSpec{
			{Name: "AddressSet"},
			{Name: "IdentityRegistry", Libraries: []string{"AddressSet"}},
			{Name: "EthereumDIDRegistry"},
			{Name: "ERC1056Resolver", Artifact: "ERC1056", Args: []any{"@IdentityRegistry", "@EthereumDIDRegistry"}},
		},
		Report: []string{"IdentityRegistry", "EthereumDIDRegistry", "ERC1056Resolver"},
	}
}

func initialMigration() *models.Migration {
	return &models.Migration{
		Number:    1,
		Name:      "initial_migration",
		Contracts: []models.ContractSpec{{Name: "Migrations"}},
	}
}

func deployedRecord(name, artifact, address string) *models.Deployment {
	return &models.Deployment{
		ID:           models.NewDeploymentID("default", devnet.ChainID, name),
		Namespace:    "default",
		ChainID:      devnet.ChainID,
		Migration:    "1_initial_migration",
		ContractName: name,
		Artifact:     artifact,
		Type:         models.SingletonDeployment,
		Status:       models.DeploymentStatusDeployed,
		Address:      address,
	}
}
