package usecase

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
)

// ListNetworksResult contains the result of listing networks
type ListNetworksResult struct {
	Namespace string
	Networks  []NetworkStatus
}

// NetworkStatus is a configured network with the migration progress recorded for it
type NetworkStatus struct {
	Name        string
	RPCURL      string
	ChainID     uint64
	Current     bool // selected by --network or the local config
	Development bool // deploys without confirmation
	Error       error

	LastCompleted int
	Deployments   int
}

// ListNetworks is a use case for listing available networks
type ListNetworks struct {
	config      *config.RuntimeConfig
	resolver    NetworkResolver
	deployments DeploymentRepository
	state       MigrationStateStore
}

// NewListNetworks creates a new ListNetworks use case
func NewListNetworks(cfg *config.RuntimeConfig, resolver NetworkResolver, deployments DeploymentRepository, state MigrationStateStore) *ListNetworks {
	return &ListNetworks{
		config:      cfg,
		resolver:    resolver,
		deployments: deployments,
		state:       state,
	}
}

// Run resolves every configured network. A network that cannot be reached is
// reported with its error rather than failing the whole listing.
func (uc *ListNetworks) Run(ctx context.Context) (*ListNetworksResult, error) {
	names := uc.resolver.GetNetworks(ctx)

	networks := make([]NetworkStatus, 0, len(names))
	for _, name := range names {
		status := NetworkStatus{
			Name:    name,
			Current: name == uc.config.NetworkName,
		}

		info, err := uc.resolver.ResolveNetwork(ctx, name)
		if err != nil {
			status.Error = err
			networks = append(networks, status)
			continue
		}
		status.ChainID = info.ChainID
		status.RPCURL = info.RPCURL
		status.Development = info.IsDevelopment()

		if err := uc.progress(ctx, &status); err != nil {
			return nil, err
		}
		networks = append(networks, status)
	}

	return &ListNetworksResult{
		Namespace: uc.config.Namespace,
		Networks:  networks,
	}, nil
}

// progress fills in what has been migrated to the network in the current namespace
func (uc *ListNetworks) progress(ctx context.Context, status *NetworkStatus) error {
	state, err := uc.state.Load(ctx, uc.config.Namespace, status.ChainID)
	if err != nil {
		return fmt.Errorf("failed to load migration state for %s: %w", status.Name, err)
	}
	status.LastCompleted = state.LastCompleted

	records, err := uc.deployments.ListDeployments(ctx, domain.DeploymentFilter{
		Namespace: uc.config.Namespace,
		ChainID:   status.ChainID,
	})
	if err != nil {
		return fmt.Errorf("failed to list deployments for %s: %w", status.Name, err)
	}
	for _, d := range records {
		if d.IsDeployed() {
			status.Deployments++
		}
	}
	return nil
}
