package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

// MigrationStatusParams contains parameters for the status use case
type MigrationStatusParams struct {
	CheckOnChain bool
}

// DeploymentCheck is the on-chain verdict for a recorded deployment
type DeploymentCheck struct {
	Exists bool
	Reason string
	Error  error
}

// MigrationStatusEntry describes one migration file against recorded progress
type MigrationStatusEntry struct {
	Migration   *models.Migration
	Completed   bool
	Run         *models.MigrationRun // in-flight or failed run, if any
	Deployments []*models.Deployment
}

// MigrationStatusResult contains the status of every migration on a network
type MigrationStatusResult struct {
	Namespace     string
	Network       *config.Network
	LastCompleted int
	Migrations    []*MigrationStatusEntry
	Checks        map[string]DeploymentCheck // deployment id -> verdict
	CheckError    error                      // set when the chain could not be reached
}

// Pending returns the number of migrations not yet completed
func (r *MigrationStatusResult) Pending() int {
	n := 0
	for _, m := range r.Migrations {
		if !m.Completed {
			n++
		}
	}
	return n
}

// MigrationStatus reports which migrations ran on the selected network
type MigrationStatus struct {
	config      *config.RuntimeConfig
	loader      MigrationLoader
	deployments DeploymentRepository
	state       MigrationStateStore
	resolver    NetworkResolver
	checker     BlockchainChecker
	log         *slog.Logger
}

// NewMigrationStatus creates a new MigrationStatus use case
func NewMigrationStatus(
	cfg *config.RuntimeConfig,
	loader MigrationLoader,
	deployments DeploymentRepository,
	state MigrationStateStore,
	resolver NetworkResolver,
	checker BlockchainChecker,
	log *slog.Logger,
) *MigrationStatus {
	return &MigrationStatus{
		config:      cfg,
		loader:      loader,
		deployments: deployments,
		state:       state,
		resolver:    resolver,
		checker:     checker,
		log:         log.With("component", "MigrationStatus"),
	}
}

// Run executes the status use case
func (uc *MigrationStatus) Run(ctx context.Context, params MigrationStatusParams) (*MigrationStatusResult, error) {
	network, err := uc.resolver.ResolveNetwork(ctx, uc.config.NetworkName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve network %s: %w", uc.config.NetworkName, err)
	}

	migrations, err := uc.loader.LoadMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	state, err := uc.state.Load(ctx, uc.config.Namespace, network.ChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to load migration state: %w", err)
	}

	records, err := uc.deployments.ListDeployments(ctx, domain.DeploymentFilter{
		Namespace: uc.config.Namespace,
		ChainID:   network.ChainID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	sortDeployments(records)

	byMigration := make(map[string][]*models.Deployment)
	for _, d := range records {
		byMigration[d.Migration] = append(byMigration[d.Migration], d)
	}

	result := &MigrationStatusResult{
		Namespace:     uc.config.Namespace,
		Network:       network,
		LastCompleted: state.LastCompleted,
	}
	for _, m := range migrations {
		entry := &MigrationStatusEntry{
			Migration:   m,
			Completed:   m.Number <= state.LastCompleted,
			Deployments: byMigration[m.DisplayName()],
		}
		if state.Current != nil && state.Current.Number == m.Number {
			entry.Run = state.Current
		}
		result.Migrations = append(result.Migrations, entry)
	}

	if params.CheckOnChain {
		uc.checkOnChain(ctx, network, records, result)
	}

	return result, nil
}

func (uc *MigrationStatus) checkOnChain(ctx context.Context, network *config.Network, records []*models.Deployment, result *MigrationStatusResult) {
	if err := uc.checker.Connect(ctx, network.RPCURL, network.ChainID); err != nil {
		result.CheckError = err
		return
	}

	result.Checks = make(map[string]DeploymentCheck)
	for _, d := range records {
		if d.Address == "" {
			continue
		}
		exists, reason, err := uc.checker.CheckDeploymentExists(ctx, d.Address)
		if err != nil {
			uc.log.Debug("on-chain check failed", "id", d.ID, "error", err)
		}
		result.Checks[d.ID] = DeploymentCheck{Exists: exists, Reason: reason, Error: err}
	}
}
