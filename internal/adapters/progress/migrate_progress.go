package progress

import (
	"context"

	"github.com/trebuchet-org/treb-migrate/internal/cli/render"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// MigrateProgress renders migration events as they happen
type MigrateProgress struct {
	renderer *render.MigrateRenderer
	spinner  *SpinnerProgressReporter

	planRendered bool
	started      map[string]bool // contracts with a step_starting event in this run
}

// NewMigrateProgress creates a new migrate progress reporter
func NewMigrateProgress(renderer *render.MigrateRenderer, interactive bool) *MigrateProgress {
	return &MigrateProgress{
		renderer: renderer,
		spinner:  NewSpinnerProgressReporter(renderer.GetWriter(), interactive),
		started:  make(map[string]bool),
	}
}

// OnProgress handles progress events for migrate operations
func (p *MigrateProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	switch event.Stage {
	case usecase.StagePlanCreated:
		if plan, ok := event.Metadata.(*usecase.MigrationPlan); ok && !p.planRendered {
			p.renderer.RenderPlan(plan)
			p.planRendered = true
		}

	case usecase.StageMigrationStarting:
		if migration, ok := event.Metadata.(*models.Migration); ok {
			p.spinner.Stop()
			p.renderer.RenderMigrationHeader(migration)
		}

	case usecase.StageStepStarting:
		if step, ok := event.Metadata.(*usecase.PlanStep); ok {
			p.started[step.Spec.Name] = true
		}
		p.spinner.OnProgress(ctx, event)

	case usecase.StageStepCompleted:
		p.spinner.Stop()
		if dep, ok := event.Metadata.(*models.Deployment); ok {
			p.renderer.RenderStepCompleted(event.Current, event.Total, dep, !p.started[dep.ContractName])
		}

	case usecase.StageMigrationCompleted:
		p.spinner.Stop()
		if mr, ok := event.Metadata.(*usecase.MigrationResult); ok {
			p.renderer.RenderReport(mr.Report)
		}

	case usecase.StageRunCompleted:
		p.spinner.Stop()

	default:
		p.spinner.OnProgress(ctx, event)
	}
}

// Info forwards info messages to the spinner
func (p *MigrateProgress) Info(message string) {
	p.spinner.Info(message)
}

// Error forwards error messages to the spinner
func (p *MigrateProgress) Error(message string) {
	p.spinner.Error(message)
}

// Ensure MigrateProgress implements ProgressSink
var _ usecase.ProgressSink = (*MigrateProgress)(nil)
