package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

// PlanMigrationParams selects which migrations to plan
type PlanMigrationParams struct {
	Reset bool // ignore recorded progress and plan every migration
	From  int  // first migration number to include, 0 for none
	To    int  // last migration number to include, 0 for none
}

// PlanStep is a single contract deployment in execution order
type PlanStep struct {
	Index        int
	Spec         models.ContractSpec
	Artifact     *models.Artifact
	Type         models.DeploymentType
	Dependencies []string

	// Libraries maps library artifact name -> contract name providing the address
	Libraries map[string]string
}

// MigrationSteps is a migration with its ordered steps
type MigrationSteps struct {
	Migration *models.Migration
	Steps     []*PlanStep
}

// MigrationPlan is the full ordered work for a run
type MigrationPlan struct {
	Namespace     string
	Network       *config.Network
	LastCompleted int
	State         *models.MigrationState
	Migrations    []*MigrationSteps

	// Deployed holds the confirmed contracts from migrations before the first
	// planned one, keyed by contract name
	Deployed map[string]*models.Deployment
}

// StepCount returns the number of deployments in the plan
func (p *MigrationPlan) StepCount() int {
	return lo.SumBy(p.Migrations, func(m *MigrationSteps) int { return len(m.Steps) })
}

// IsEmpty reports whether nothing is left to migrate
func (p *MigrationPlan) IsEmpty() bool {
	return len(p.Migrations) == 0
}

// PlanMigration builds execution plans from migration files
type PlanMigration struct {
	config      *config.RuntimeConfig
	loader      MigrationLoader
	artifacts   ArtifactRepository
	deployments DeploymentRepository
	state       MigrationStateStore
	resolver    NetworkResolver
	log         *slog.Logger
}

// NewPlanMigration creates a new PlanMigration use case
func NewPlanMigration(
	cfg *config.RuntimeConfig,
	loader MigrationLoader,
	artifacts ArtifactRepository,
	deployments DeploymentRepository,
	state MigrationStateStore,
	resolver NetworkResolver,
	log *slog.Logger,
) *PlanMigration {
	return &PlanMigration{
		config:      cfg,
		loader:      loader,
		artifacts:   artifacts,
		deployments: deployments,
		state:       state,
		resolver:    resolver,
		log:         log.With("component", "PlanMigration"),
	}
}

// Run resolves the configured network and builds the plan for it
func (uc *PlanMigration) Run(ctx context.Context, params PlanMigrationParams) (*MigrationPlan, error) {
	network, err := uc.resolver.ResolveNetwork(ctx, uc.config.NetworkName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve network %s: %w", uc.config.NetworkName, err)
	}
	return uc.BuildPlan(ctx, network, params)
}

// BuildPlan builds the plan for an already resolved network
func (uc *PlanMigration) BuildPlan(ctx context.Context, network *config.Network, params PlanMigrationParams) (*MigrationPlan, error) {
	if params.To > 0 && params.From > params.To {
		return nil, fmt.Errorf("--from %d is after --to %d", params.From, params.To)
	}

	migrations, err := uc.loader.LoadMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	state, err := uc.state.Load(ctx, uc.config.Namespace, network.ChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to load migration state: %w", err)
	}

	selected := selectMigrations(migrations, state.LastCompleted, params)
	before := 0
	if len(selected) > 0 {
		before = selected[0].Number
	}

	deployed, err := uc.deployedContracts(ctx, network.ChainID, before)
	if err != nil {
		return nil, err
	}
	uc.log.Debug("selected migrations",
		"network", network.Name,
		"chainId", network.ChainID,
		"lastCompleted", state.LastCompleted,
		"count", len(selected))

	plan := &MigrationPlan{
		Namespace:     uc.config.Namespace,
		Network:       network,
		LastCompleted: state.LastCompleted,
		State:         state,
		Deployed:      deployed,
	}

	// known maps contract name -> artifact name for everything that will have an
	// address by the time a later step runs
	known := make(map[string]string, len(deployed))
	for name, dep := range deployed {
		known[name] = dep.Artifact
	}

	for _, migration := range selected {
		steps, err := uc.planMigration(ctx, migration, known)
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", migration.DisplayName(), err)
		}
		plan.Migrations = append(plan.Migrations, &MigrationSteps{
			Migration: migration,
			Steps:     steps,
		})
		for _, c := range migration.Contracts {
			known[c.Name] = c.ArtifactName()
		}
	}

	return plan, nil
}

// deployedContracts returns confirmed registry records keyed by contract name.
// With before > 0 only records of migrations numbered below it are returned, so a
// re-run never sees addresses from migrations it is about to replace.
func (uc *PlanMigration) deployedContracts(ctx context.Context, chainID uint64, before int) (map[string]*models.Deployment, error) {
	records, err := uc.deployments.ListDeployments(ctx, domain.DeploymentFilter{
		Namespace: uc.config.Namespace,
		ChainID:   chainID,
		Status:    models.DeploymentStatusDeployed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	if before > 0 {
		records = lo.Filter(records, func(d *models.Deployment, _ int) bool {
			n, ok := models.MigrationNumber(d.Migration)
			return !ok || n < before
		})
	}
	return lo.SliceToMap(records, func(d *models.Deployment) (string, *models.Deployment) {
		return d.ContractName, d
	}), nil
}

func (uc *PlanMigration) planMigration(ctx context.Context, migration *models.Migration, known map[string]string) ([]*PlanStep, error) {
	if err := validateMigration(migration, known); err != nil {
		return nil, err
	}

	// Library consumers deploy the library as LIBRARY type
	usedAsLibrary := make(map[string]bool)
	for _, c := range migration.Contracts {
		for _, lib := range c.Libraries {
			usedAsLibrary[lib] = true
		}
	}

	// Artifact name for every contract visible to this migration
	visible := make(map[string]string, len(known)+len(migration.Contracts))
	for name, artifact := range known {
		visible[name] = artifact
	}
	for _, c := range migration.Contracts {
		visible[c.Name] = c.ArtifactName()
	}

	steps := make([]*PlanStep, 0, len(migration.Contracts))
	for i, spec := range migration.Contracts {
		artifact, err := uc.artifacts.GetArtifact(ctx, spec.ArtifactName())
		if err != nil {
			return nil, fmt.Errorf("contract '%s': %w", spec.Name, err)
		}

		libraries := make(map[string]string, len(spec.Libraries))
		for _, lib := range spec.Libraries {
			libraries[visible[lib]] = lib
		}
		if missing := artifact.MissingLibraries(lo.Keys(libraries)); len(missing) > 0 {
			return nil, fmt.Errorf("contract '%s' needs library '%s' linked: %w", spec.Name, missing[0], domain.ErrUnlinkedBytecode)
		}

		stepType := models.SingletonDeployment
		if usedAsLibrary[spec.Name] {
			stepType = models.LibraryDeployment
		}

		steps = append(steps, &PlanStep{
			Index:        i,
			Spec:         spec,
			Artifact:     artifact,
			Type:         stepType,
			Dependencies: dependenciesOf(spec),
			Libraries:    libraries,
		})
	}

	return orderSteps(steps)
}

// selectMigrations applies the from/to window, or skips completed migrations
func selectMigrations(migrations []*models.Migration, lastCompleted int, params PlanMigrationParams) []*models.Migration {
	start := lastCompleted + 1
	if params.Reset {
		start = 0
	}
	if params.From > 0 {
		start = params.From
	}

	selected := lo.Filter(migrations, func(m *models.Migration, _ int) bool {
		return m.Number >= start && (params.To == 0 || m.Number <= params.To)
	})
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Number < selected[j].Number
	})
	return selected
}

// validateMigration checks names and references before anything is ordered
func validateMigration(migration *models.Migration, known map[string]string) error {
	if len(migration.Contracts) == 0 {
		return fmt.Errorf("%w: at least one contract is required", domain.ErrInvalidMigration)
	}

	declared := make(map[string]bool, len(migration.Contracts))
	for _, c := range migration.Contracts {
		if c.Name == "" {
			return fmt.Errorf("%w: every contract must have a name", domain.ErrInvalidMigration)
		}
		if declared[c.Name] {
			return fmt.Errorf("%w: contract '%s' is declared twice", domain.ErrInvalidMigration, c.Name)
		}
		declared[c.Name] = true
	}

	exists := func(name string) bool {
		if declared[name] {
			return true
		}
		_, ok := known[name]
		return ok
	}

	for _, c := range migration.Contracts {
		for _, dep := range dependenciesOf(c) {
			if dep == c.Name {
				return fmt.Errorf("%w: contract '%s' cannot depend on itself", domain.ErrInvalidMigration, c.Name)
			}
			if !exists(dep) {
				return domain.UnresolvedReferenceErr{Contract: c.Name, Reference: dep}
			}
		}
	}

	for _, name := range migration.Report {
		if !exists(name) {
			return fmt.Errorf("%w: report lists unknown contract '%s'", domain.ErrInvalidMigration, name)
		}
	}

	return nil
}

// dependenciesOf returns libraries then argument references, without duplicates
func dependenciesOf(spec models.ContractSpec) []string {
	deps := append([]string{}, spec.Libraries...)
	deps = append(deps, spec.References()...)
	return lo.Uniq(deps)
}

// orderSteps sorts steps so every dependency deploys first. Ties keep declaration
// order, so a migration that is already correctly ordered runs exactly as written.
func orderSteps(steps []*PlanStep) ([]*PlanStep, error) {
	byName := make(map[string]*PlanStep, len(steps))
	for _, s := range steps {
		byName[s.Spec.Name] = s
	}

	inDegree := make(map[string]int, len(steps))
	dependents := make(map[string][]*PlanStep)
	for _, s := range steps {
		inDegree[s.Spec.Name] = 0
	}
	for _, s := range steps {
		for _, dep := range s.Dependencies {
			// Dependencies outside the migration are already deployed
			if _, ok := byName[dep]; !ok {
				continue
			}
			inDegree[s.Spec.Name]++
			dependents[dep] = append(dependents[dep], s)
		}
	}

	var queue []*PlanStep
	for _, s := range steps {
		if inDegree[s.Spec.Name] == 0 {
			queue = append(queue, s)
		}
	}

	result := make([]*PlanStep, 0, len(steps))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, current)

		for _, dependent := range dependents[current.Spec.Name] {
			inDegree[dependent.Spec.Name]--
			if inDegree[dependent.Spec.Name] == 0 {
				queue = append(queue, dependent)
				sort.SliceStable(queue, func(i, j int) bool {
					return queue[i].Index < queue[j].Index
				})
			}
		}
	}

	if len(result) != len(steps) {
		var cycle []string
		for _, s := range steps {
			if inDegree[s.Spec.Name] > 0 {
				cycle = append(cycle, s.Spec.Name)
			}
		}
		return nil, domain.CircularDependencyErr{Contracts: cycle}
	}

	return result, nil
}
