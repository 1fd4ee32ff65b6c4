package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/treb-migrate/internal/adapters/artifacts"
	"github.com/trebuchet-org/treb-migrate/internal/adapters/blockchain"
	"github.com/trebuchet-org/treb-migrate/internal/adapters/ethereum"
	"github.com/trebuchet-org/treb-migrate/internal/adapters/forge"
	"github.com/trebuchet-org/treb-migrate/internal/adapters/fs"
	"github.com/trebuchet-org/treb-migrate/internal/adapters/interactive"
	"github.com/trebuchet-org/treb-migrate/internal/adapters/migrations"
	"github.com/trebuchet-org/treb-migrate/internal/adapters/repository/deployments"
	"github.com/trebuchet-org/treb-migrate/internal/config"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	deployments.NewFileRepositoryFromConfig,
	wire.Bind(new(usecase.DeploymentRepository), new(*deployments.FileRepository)),

	fs.NewMigrationStateStoreAdapter,
	wire.Bind(new(usecase.MigrationStateStore), new(*fs.MigrationStateStoreAdapter)),

	fs.NewLocalConfigStoreAdapter,
	wire.Bind(new(usecase.LocalConfigStore), new(*fs.LocalConfigStoreAdapter)),
)

// ProjectSet reads artifacts and migration files from the project
var ProjectSet = wire.NewSet(
	artifacts.NewRepository,
	wire.Bind(new(usecase.ArtifactRepository), new(*artifacts.Repository)),

	artifacts.NewLinker,
	wire.Bind(new(usecase.BytecodeLinker), new(*artifacts.Linker)),

	migrations.NewLoader,
	wire.Bind(new(usecase.MigrationLoader), new(*migrations.Loader)),

	forge.NewBuilder,
	wire.Bind(new(usecase.ProjectBuilder), new(*forge.Builder)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewConfirmerAdapter,
	wire.Bind(new(usecase.Confirmer), new(*interactive.ConfirmerAdapter)),
)

// ConfigSet provides configuration-based implementations
var ConfigSet = wire.NewSet(
	config.ProvideNetworkResolver,
	wire.Bind(new(usecase.NetworkResolver), new(*config.NetworkResolver)),
)

// BlockchainSet provides blockchain-based implementations
var BlockchainSet = wire.NewSet(
	blockchain.NewCheckerAdapter,
	wire.Bind(new(usecase.BlockchainChecker), new(*blockchain.CheckerAdapter)),

	ethereum.NewDeployer,
	wire.Bind(new(usecase.ContractDeployer), new(*ethereum.Deployer)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	ProjectSet,
	InteractiveSet,
	ConfigSet,
	BlockchainSet,
)
