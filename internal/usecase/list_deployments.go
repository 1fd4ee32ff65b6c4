package usecase

import (
	"context"
	"sort"

	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

// ListDeploymentsParams contains parameters for listing deployments
type ListDeploymentsParams struct {
	// Namespace comes from RuntimeConfig
	ChainID      uint64
	Migration    string
	ContractName string
	Type         models.DeploymentType
	Status       models.DeploymentStatus
}

// DeploymentSummary counts listed deployments
type DeploymentSummary struct {
	Total    int
	ByChain  map[uint64]int
	ByType   map[models.DeploymentType]int
	ByStatus map[models.DeploymentStatus]int
}

// DeploymentListResult contains listed deployments and their summary
type DeploymentListResult struct {
	Namespace   string
	Deployments []*models.Deployment
	Summary     DeploymentSummary
}

// ListDeployments is the use case for listing deployments
type ListDeployments struct {
	config *config.RuntimeConfig
	repo   DeploymentRepository
	sink   ProgressSink
}

// NewListDeployments creates a new ListDeployments use case
func NewListDeployments(cfg *config.RuntimeConfig, repo DeploymentRepository, sink ProgressSink) *ListDeployments {
	return &ListDeployments{
		config: cfg,
		repo:   repo,
		sink:   sink,
	}
}

// Run executes the list deployments use case
func (uc *ListDeployments) Run(ctx context.Context, params ListDeploymentsParams) (*DeploymentListResult, error) {
	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "loading",
		Message: "Loading deployments from registry",
		Spinner: true,
	})

	filter := domain.DeploymentFilter{
		Namespace:    uc.config.Namespace,
		ChainID:      params.ChainID,
		Migration:    params.Migration,
		ContractName: params.ContractName,
		Type:         params.Type,
		Status:       params.Status,
	}

	deployments, err := uc.repo.ListDeployments(ctx, filter)
	if err != nil {
		return nil, err
	}

	sortDeployments(deployments)

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Current: len(deployments),
		Total:   len(deployments),
		Message: "Deployments loaded",
	})

	return &DeploymentListResult{
		Namespace:   uc.config.Namespace,
		Deployments: deployments,
		Summary:     calculateSummary(deployments),
	}, nil
}

// sortDeployments sorts by chain, then migration, then creation time
func sortDeployments(deployments []*models.Deployment) {
	sort.SliceStable(deployments, func(i, j int) bool {
		a, b := deployments[i], deployments[j]
		if a.ChainID != b.ChainID {
			return a.ChainID < b.ChainID
		}
		if a.Migration != b.Migration {
			return migrationLess(a.Migration, b.Migration)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ContractName < b.ContractName
	})
}

// migrationLess orders "10_x" after "2_y"
func migrationLess(a, b string) bool {
	na, nb := migrationNumber(a), migrationNumber(b)
	if na != nb {
		return na < nb
	}
	return a < b
}

func migrationNumber(name string) int {
	n := 0
	for _, r := range name {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func calculateSummary(deployments []*models.Deployment) DeploymentSummary {
	summary := DeploymentSummary{
		Total:    len(deployments),
		ByChain:  make(map[uint64]int),
		ByType:   make(map[models.DeploymentType]int),
		ByStatus: make(map[models.DeploymentStatus]int),
	}

	for _, dep := range deployments {
		summary.ByChain[dep.ChainID]++
		summary.ByType[dep.Type]++
		summary.ByStatus[dep.Status]++
	}

	return summary
}
