package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

// ShowDeploymentParams contains parameters for showing a deployment
type ShowDeploymentParams struct {
	// Contract name or address on the configured network
	Identifier string
}

// ShowDeploymentResult is a single deployment and the network it lives on
type ShowDeploymentResult struct {
	Deployment *models.Deployment
	Network    *config.Network
}

// ShowDeployment is the use case for showing deployment details
type ShowDeployment struct {
	config   *config.RuntimeConfig
	repo     DeploymentRepository
	resolver NetworkResolver
	sink     ProgressSink
}

// NewShowDeployment creates a new ShowDeployment use case
func NewShowDeployment(cfg *config.RuntimeConfig, repo DeploymentRepository, resolver NetworkResolver, sink ProgressSink) *ShowDeployment {
	return &ShowDeployment{
		config:   cfg,
		repo:     repo,
		resolver: resolver,
		sink:     sink,
	}
}

// Run executes the show deployment use case
func (uc *ShowDeployment) Run(ctx context.Context, params ShowDeploymentParams) (*ShowDeploymentResult, error) {
	if params.Identifier == "" {
		return nil, fmt.Errorf("a contract name or address is required")
	}

	network, err := uc.resolver.ResolveNetwork(ctx, uc.config.NetworkName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve network %s: %w", uc.config.NetworkName, err)
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "loading",
		Message: "Loading deployment details",
		Spinner: true,
	})
	defer uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Message: "Deployment loaded",
	})

	var deployment *models.Deployment
	if common.IsHexAddress(params.Identifier) {
		deployment, err = uc.repo.GetDeploymentByAddress(ctx, network.ChainID, params.Identifier)
	} else {
		id := models.NewDeploymentID(uc.config.Namespace, network.ChainID, params.Identifier)
		deployment, err = uc.repo.GetDeployment(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			err = uc.notFound(ctx, params.Identifier, network)
		}
	}
	if err != nil {
		return nil, err
	}

	return &ShowDeploymentResult{Deployment: deployment, Network: network}, nil
}

// notFound builds an ErrNotFound naming close matches from the same chain
func (uc *ShowDeployment) notFound(ctx context.Context, name string, network *config.Network) error {
	base := fmt.Errorf("no deployment named %s in namespace %s on %s: %w", name, uc.config.Namespace, network.Name, domain.ErrNotFound)

	records, err := uc.repo.ListDeployments(ctx, domain.DeploymentFilter{
		Namespace: uc.config.Namespace,
		ChainID:   network.ChainID,
	})
	if err != nil || len(records) == 0 {
		return base
	}

	names := lo.Map(records, func(d *models.Deployment, _ int) string { return d.ContractName })
	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return base
	}
	suggestions := lo.Map(matches, func(m fuzzy.Match, _ int) string { return m.Str })
	return fmt.Errorf("%w (did you mean: %s?)", base, strings.Join(suggestions, ", "))
}
