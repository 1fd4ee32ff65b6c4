package usecase

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

// ArtifactRepository resolves contract names to compiled artifacts
type ArtifactRepository interface {
	GetArtifact(ctx context.Context, name string) (*models.Artifact, error)
	ListArtifacts(ctx context.Context) ([]*models.Artifact, error)
}

// ProjectBuilder compiles the project's contracts
type ProjectBuilder interface {
	Build(ctx context.Context) error
}

// BytecodeLinker embeds library addresses into creation bytecode
type BytecodeLinker interface {
	// Link returns the artifact bytecode with every named library replaced by its address.
	// Libraries are keyed by artifact name.
	Link(artifact *models.Artifact, libraries map[string]common.Address) (string, error)
}

// MigrationLoader reads migration definitions
type MigrationLoader interface {
	LoadMigrations(ctx context.Context) ([]*models.Migration, error)
}

// DeploymentRepository handles persistence of deployments
type DeploymentRepository interface {
	GetDeployment(ctx context.Context, id string) (*models.Deployment, error)
	GetDeploymentByAddress(ctx context.Context, chainID uint64, address string) (*models.Deployment, error)
	ListDeployments(ctx context.Context, filter domain.DeploymentFilter) ([]*models.Deployment, error)
	SaveDeployment(ctx context.Context, deployment *models.Deployment) error
}

// MigrationStateStore persists which migrations completed on each chain
type MigrationStateStore interface {
	// Load returns the stored state, or a fresh one when nothing was recorded yet
	Load(ctx context.Context, namespace string, chainID uint64) (*models.MigrationState, error)
	Save(ctx context.Context, state *models.MigrationState) error
}

// DeployRequest is everything needed to send a contract creation transaction
type DeployRequest struct {
	ContractName string
	ABI          json.RawMessage
	Bytecode     string // linked creation code, hex
	Args         []any  // constructor arguments with references already resolved
}

// PendingDeployment is a creation transaction that was sent but not yet confirmed
type PendingDeployment struct {
	Tx              *types.Transaction
	Address         common.Address // address the contract will land at
	ConstructorArgs []byte
}

// DeployReceipt is the confirmed outcome of a creation transaction
type DeployReceipt struct {
	Address     common.Address
	BlockNumber uint64
	GasUsed     uint64
}

// ContractDeployer sends and confirms contract creation transactions
type ContractDeployer interface {
	Connect(ctx context.Context, network *config.Network) error
	Account() common.Address
	Deploy(ctx context.Context, req DeployRequest) (*PendingDeployment, error)
	WaitDeployed(ctx context.Context, pending *PendingDeployment) (*DeployReceipt, error)
	Close()
}

// NetworkResolver handles network configuration resolution
type NetworkResolver interface {
	GetNetworks(ctx context.Context) []string
	ResolveNetwork(ctx context.Context, networkName string) (*config.Network, error)
}

// BlockchainChecker checks on-chain state of contracts and transactions
type BlockchainChecker interface {
	Connect(ctx context.Context, rpcURL string, chainID uint64) error
	CheckDeploymentExists(ctx context.Context, address string) (exists bool, reason string, err error)
}

// Confirmer asks the user to approve an action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// LocalConfigStore manages local configuration persistence
type LocalConfigStore interface {
	Exists() bool
	Load(ctx context.Context) (*config.LocalConfig, error)
	Save(ctx context.Context, config *config.LocalConfig) error
	GetPath() string
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata any
}

// Progress stages emitted while migrating
const (
	StagePlanCreated        = "plan_created"
	StageMigrationStarting  = "migration_starting"
	StageStepStarting       = "step_starting"
	StageStepSent           = "step_sent"
	StageStepCompleted      = "step_completed"
	StageMigrationCompleted = "migration_completed"
	StageRunCompleted       = "run_completed"
)

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
