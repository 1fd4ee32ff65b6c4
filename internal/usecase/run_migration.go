package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

// RunMigrationParams contains parameters for running migrations
type RunMigrationParams struct {
	PlanMigrationParams
	DryRun bool
	Resume bool // reuse contracts confirmed by a failed run of the same migration
}

// ReportLine is one "<Name> Address is<Address>" line
type ReportLine struct {
	ContractName string
	Address      common.Address
}

// String renders the line exactly as migrations have always printed it
func (r ReportLine) String() string {
	return fmt.Sprintf("%s Address is%s", r.ContractName, r.Address.Hex())
}

// MigrationResult is the outcome of a single migration
type MigrationResult struct {
	Migration   *models.Migration
	Deployments []*models.Deployment
	Reused      []string // contracts taken from a previous failed run
	Report      []ReportLine
	Completed   bool
}

// RunMigrationResult contains everything the renderer needs after a run
type RunMigrationResult struct {
	Plan       *MigrationPlan
	Deployer   common.Address
	Migrations []*MigrationResult
	DryRun     bool
	Success    bool
	Error      error // set when a step failed, always a domain.StepFailedErr
}

// Report returns all report lines in migration order
func (r *RunMigrationResult) Report() []ReportLine {
	var lines []ReportLine
	for _, m := range r.Migrations {
		lines = append(lines, m.Report...)
	}
	return lines
}

// RunMigration deploys planned contracts one confirmed transaction at a time
type RunMigration struct {
	config      *config.RuntimeConfig
	planner     *PlanMigration
	resolver    NetworkResolver
	deployer    ContractDeployer
	linker      BytecodeLinker
	deployments DeploymentRepository
	state       MigrationStateStore
	confirmer   Confirmer
	progress    ProgressSink
	log         *slog.Logger
	now         func() time.Time
}

// NewRunMigration creates a new RunMigration use case
func NewRunMigration(
	cfg *config.RuntimeConfig,
	planner *PlanMigration,
	resolver NetworkResolver,
	deployer ContractDeployer,
	linker BytecodeLinker,
	deployments DeploymentRepository,
	state MigrationStateStore,
	confirmer Confirmer,
	progress ProgressSink,
	log *slog.Logger,
) *RunMigration {
	return &RunMigration{
		config:      cfg,
		planner:     planner,
		resolver:    resolver,
		deployer:    deployer,
		linker:      linker,
		deployments: deployments,
		state:       state,
		confirmer:   confirmer,
		progress:    progress,
		log:         log.With("component", "RunMigration"),
		now:         time.Now,
	}
}

// Run plans and executes the selected migrations
func (uc *RunMigration) Run(ctx context.Context, params RunMigrationParams) (*RunMigrationResult, error) {
	network, err := uc.resolver.ResolveNetwork(ctx, uc.config.NetworkName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve network %s: %w", uc.config.NetworkName, err)
	}

	plan, err := uc.planner.BuildPlan(ctx, network, params.PlanMigrationParams)
	if err != nil {
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StagePlanCreated,
		Total:    plan.StepCount(),
		Message:  fmt.Sprintf("Planned %d migrations on %s", len(plan.Migrations), network.Name),
		Metadata: plan,
	})

	result := &RunMigrationResult{
		Plan:    plan,
		DryRun:  params.DryRun,
		Success: true,
	}
	if params.DryRun || plan.IsEmpty() {
		return result, nil
	}

	if err := uc.deployer.Connect(ctx, network); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", network.Name, err)
	}
	defer uc.deployer.Close()
	result.Deployer = uc.deployer.Account()

	if !network.IsDevelopment() && !uc.config.NonInteractive {
		prompt := fmt.Sprintf("Deploy %d contracts to %s (chain %d) from %s",
			plan.StepCount(), network.Name, network.ChainID, result.Deployer.Hex())
		ok, err := uc.confirmer.Confirm(ctx, prompt)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrAborted
		}
	}

	addresses := make(map[string]common.Address, len(plan.Deployed))
	for name, d := range plan.Deployed {
		if common.IsHexAddress(d.Address) {
			addresses[name] = common.HexToAddress(d.Address)
		}
	}

	exec := &execution{
		RunMigration: uc,
		plan:         plan,
		migState:     plan.State,
		addresses:    addresses,
		total:        plan.StepCount(),
	}

	for _, ms := range plan.Migrations {
		mr, err := exec.runMigration(ctx, ms, params.Resume)
		result.Migrations = append(result.Migrations, mr)
		if err != nil {
			result.Success = false
			result.Error = err
			break
		}
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageRunCompleted,
		Current:  exec.current,
		Total:    exec.total,
		Message:  "Migrations finished",
		Metadata: result,
	})

	return result, nil
}

// execution carries the mutable state of one run
type execution struct {
	*RunMigration
	plan      *MigrationPlan
	migState  *models.MigrationState
	addresses map[string]common.Address
	current   int
	total     int
}

func (e *execution) runMigration(ctx context.Context, ms *MigrationSteps, resume bool) (*MigrationResult, error) {
	migration := ms.Migration
	mr := &MigrationResult{Migration: migration}

	e.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageMigrationStarting,
		Current:  e.current,
		Total:    e.total,
		Message:  migration.DisplayName(),
		Metadata: migration,
	})

	reusable := map[string]*models.Deployment{}
	if resume {
		reusable = e.reusableDeployments(ctx, migration)
	}

	now := e.now()
	run := &models.MigrationRun{
		Number:    migration.Number,
		Name:      migration.Name,
		Status:    models.RunStatusRunning,
		StartedAt: now,
		UpdatedAt: now,
		Deployed:  make(map[string]string),
	}
	if prev := e.migState.Current; resume && prev != nil && prev.Number == migration.Number {
		run.StartedAt = prev.StartedAt
		for name, id := range prev.Deployed {
			if _, ok := reusable[name]; ok {
				run.Deployed[name] = id
			}
		}
	}
	e.migState.Current = run
	e.saveState(ctx)

	for _, step := range ms.Steps {
		e.current++
		if dep, ok := reusable[step.Spec.Name]; ok {
			e.addresses[step.Spec.Name] = common.HexToAddress(dep.Address)
			mr.Reused = append(mr.Reused, step.Spec.Name)
			mr.Deployments = append(mr.Deployments, dep)
			e.progress.OnProgress(ctx, ProgressEvent{
				Stage:    StageStepCompleted,
				Current:  e.current,
				Total:    e.total,
				Message:  fmt.Sprintf("%s reused at %s", step.Spec.Name, dep.Address),
				Metadata: dep,
			})
			continue
		}

		dep, err := e.runStep(ctx, migration, step)
		if dep != nil {
			mr.Deployments = append(mr.Deployments, dep)
		}
		if err != nil {
			run.Status = models.RunStatusFailed
			run.FailedStep = step.Spec.Name
			run.Error = err.Error()
			run.UpdatedAt = e.now()
			e.saveState(ctx)
			return mr, domain.StepFailedErr{
				Migration: migration.DisplayName(),
				Contract:  step.Spec.Name,
				Err:       err,
			}
		}

		run.Deployed[step.Spec.Name] = dep.ID
		run.UpdatedAt = e.now()
		e.saveState(ctx)
	}

	for _, name := range migration.Report {
		mr.Report = append(mr.Report, ReportLine{
			ContractName: name,
			Address:      e.addresses[name],
		})
	}

	run.Status = models.RunStatusCompleted
	run.UpdatedAt = e.now()
	e.migState.History = append(e.migState.History, *run)
	e.migState.Current = nil
	e.migState.LastCompleted = migration.Number
	e.saveState(ctx)
	mr.Completed = true

	e.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageMigrationCompleted,
		Current:  e.current,
		Total:    e.total,
		Message:  migration.DisplayName(),
		Metadata: mr,
	})

	return mr, nil
}

// runStep links, deploys and confirms one contract. The returned record is
// non-nil whenever something was written to the registry.
func (e *execution) runStep(ctx context.Context, migration *models.Migration, step *PlanStep) (*models.Deployment, error) {
	spec := step.Spec
	e.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageStepStarting,
		Current:  e.current,
		Total:    e.total,
		Message:  fmt.Sprintf("Deploying %s", spec.Name),
		Spinner:  true,
		Metadata: step,
	})

	now := e.now()
	dep := &models.Deployment{
		ID:           models.NewDeploymentID(e.plan.Namespace, e.plan.Network.ChainID, spec.Name),
		Namespace:    e.plan.Namespace,
		ChainID:      e.plan.Network.ChainID,
		Migration:    migration.DisplayName(),
		ContractName: spec.Name,
		Artifact:     step.Artifact.Name,
		Type:         step.Type,
		Status:       models.DeploymentStatusPending,
		Deployer:     e.deployer.Account().Hex(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	fail := func(err error) (*models.Deployment, error) {
		dep.Status = models.DeploymentStatusFailed
		dep.Error = err.Error()
		dep.UpdatedAt = e.now()
		e.saveDeployment(ctx, dep)
		e.progress.Error(fmt.Sprintf("%s failed: %v", spec.Name, err))
		return dep, err
	}

	libraries := make(map[string]common.Address, len(step.Libraries))
	if len(step.Libraries) > 0 {
		dep.Libraries = make(map[string]string, len(step.Libraries))
	}
	for artifactName, provider := range step.Libraries {
		addr, ok := e.addresses[provider]
		if !ok {
			return fail(domain.UnresolvedReferenceErr{Contract: spec.Name, Reference: provider})
		}
		libraries[artifactName] = addr
		dep.Libraries[artifactName] = addr.Hex()
	}

	bytecode, err := e.linker.Link(step.Artifact, libraries)
	if err != nil {
		return fail(fmt.Errorf("failed to link: %w", err))
	}

	args, err := e.resolveArgs(spec)
	if err != nil {
		return fail(err)
	}

	pending, err := e.deployer.Deploy(ctx, DeployRequest{
		ContractName: spec.Name,
		ABI:          step.Artifact.ABI,
		Bytecode:     bytecode,
		Args:         args,
	})
	if err != nil {
		return fail(fmt.Errorf("failed to send deployment: %w", err))
	}

	dep.TxHash = pending.Tx.Hash().Hex()
	dep.Address = pending.Address.Hex()
	if len(pending.ConstructorArgs) > 0 {
		dep.ConstructorArgs = hexutil.Encode(pending.ConstructorArgs)
	}
	dep.UpdatedAt = e.now()
	e.saveDeployment(ctx, dep)
	e.log.Debug("deployment sent", "contract", spec.Name, "tx", dep.TxHash)

	e.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageStepSent,
		Current:  e.current,
		Total:    e.total,
		Message:  fmt.Sprintf("Waiting for %s (tx %s)", spec.Name, dep.TxHash),
		Spinner:  true,
		Metadata: dep,
	})

	waitCtx := ctx
	if e.config.TxTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, e.config.TxTimeout)
		defer cancel()
	}
	receipt, err := e.deployer.WaitDeployed(waitCtx, pending)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("not confirmed within %s: %w", e.config.TxTimeout, err)
		}
		return fail(err)
	}

	dep.Status = models.DeploymentStatusDeployed
	dep.Address = receipt.Address.Hex()
	dep.BlockNumber = receipt.BlockNumber
	dep.Error = ""
	dep.UpdatedAt = e.now()
	e.saveDeployment(ctx, dep)
	e.addresses[spec.Name] = receipt.Address

	e.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageStepCompleted,
		Current:  e.current,
		Total:    e.total,
		Message:  fmt.Sprintf("%s deployed at %s", spec.Name, dep.Address),
		Metadata: dep,
	})

	return dep, nil
}

// resolveArgs swaps "@Name" references for confirmed addresses
func (e *execution) resolveArgs(spec models.ContractSpec) ([]any, error) {
	args := make([]any, len(spec.Args))
	for i, arg := range spec.Args {
		resolved, err := e.resolveArg(spec.Name, arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = resolved
	}
	return args, nil
}

func (e *execution) resolveArg(contract string, arg any) (any, error) {
	switch v := arg.(type) {
	case string:
		name, ok := models.ParseReference(v)
		if !ok {
			return v, nil
		}
		addr, ok := e.addresses[name]
		if !ok {
			return nil, domain.UnresolvedReferenceErr{Contract: contract, Reference: name}
		}
		return addr, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := e.resolveArg(contract, item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

// reusableDeployments returns confirmed records from an unfinished run of this
// migration. A run left "running" was interrupted before it could record a failure.
func (e *execution) reusableDeployments(ctx context.Context, migration *models.Migration) map[string]*models.Deployment {
	reusable := make(map[string]*models.Deployment)
	prev := e.migState.Current
	if prev == nil || prev.Number != migration.Number {
		return reusable
	}
	if prev.Status != models.RunStatusFailed && prev.Status != models.RunStatusRunning {
		return reusable
	}

	for name, id := range prev.Deployed {
		dep, err := e.deployments.GetDeployment(ctx, id)
		if err != nil {
			e.log.Warn("cannot reuse deployment", "contract", name, "id", id, "error", err)
			continue
		}
		if dep.IsDeployed() {
			reusable[name] = dep
		}
	}
	return reusable
}

func (e *execution) saveDeployment(ctx context.Context, dep *models.Deployment) {
	if err := e.deployments.SaveDeployment(ctx, dep); err != nil {
		e.log.Warn("failed to save deployment", "id", dep.ID, "error", err)
	}
}

func (e *execution) saveState(ctx context.Context) {
	if err := e.state.Save(ctx, e.migState); err != nil {
		e.log.Warn("failed to save migration state", "key", models.StateKey(e.migState.Namespace, e.migState.ChainID), "error", err)
	}
}
