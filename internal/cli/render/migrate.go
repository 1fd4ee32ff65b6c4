package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

var (
	migrationStyle = color.New(color.FgCyan, color.Bold)
	contractStyle  = color.New(color.FgGreen)
	libraryStyle   = color.New(color.FgBlue)
	artifactStyle  = color.New(color.FgHiBlack)
	reusedStyle    = color.New(color.FgYellow)
)

// MigrateRenderer renders migration plans, progress and results
type MigrateRenderer struct {
	out io.Writer
}

// NewMigrateRenderer creates a new migrate renderer
func NewMigrateRenderer(out io.Writer) *MigrateRenderer {
	return &MigrateRenderer{out: out}
}

// GetWriter returns the io.Writer used by this renderer
func (r *MigrateRenderer) GetWriter() io.Writer {
	return r.out
}

// RenderPlan displays the ordered deployments of every pending migration
func (r *MigrateRenderer) RenderPlan(plan *usecase.MigrationPlan) {
	fmt.Fprintf(r.out, "\nNetwork:   %s (chain %d)\n", plan.Network.Name, plan.Network.ChainID)
	fmt.Fprintf(r.out, "Namespace: %s\n", plan.Namespace)

	if plan.IsEmpty() {
		fmt.Fprintf(r.out, "\nNothing to migrate, last completed migration is %d\n", plan.LastCompleted)
		return
	}

	fmt.Fprintln(r.out)
	color.New(color.Bold).Fprintf(r.out, "Migration plan: %d contracts\n", plan.StepCount())
	fmt.Fprintf(r.out, "%s\n", strings.Repeat("─", 50))

	for _, ms := range plan.Migrations {
		migrationStyle.Fprintf(r.out, "%s", ms.Migration.DisplayName())
		if ms.Migration.Description != "" {
			artifactStyle.Fprintf(r.out, "  %s", ms.Migration.Description)
		}
		fmt.Fprintln(r.out)

		for i, step := range ms.Steps {
			fmt.Fprintf(r.out, "  %d. ", i+1)
			r.renderContractName(step.Spec.Name, step.Type)
			if step.Artifact != nil && step.Artifact.Name != step.Spec.Name {
				artifactStyle.Fprintf(r.out, " [%s]", step.Artifact.Name)
			}
			if len(step.Dependencies) > 0 {
				artifactStyle.Fprintf(r.out, " (depends on: %s)", strings.Join(step.Dependencies, ", "))
			}
			fmt.Fprintln(r.out)
		}
	}
	fmt.Fprintln(r.out)
}

func (r *MigrateRenderer) renderContractName(name string, typ models.DeploymentType) {
	if typ == models.LibraryDeployment {
		libraryStyle.Fprintf(r.out, "%s (library)", name)
		return
	}
	contractStyle.Fprint(r.out, name)
}

// RenderMigrationHeader announces a migration before its first deployment
func (r *MigrateRenderer) RenderMigrationHeader(migration *models.Migration) {
	fmt.Fprintln(r.out)
	migrationStyle.Fprintf(r.out, "Running migration: %s\n", migration.DisplayName())
	fmt.Fprintf(r.out, "%s\n", strings.Repeat("─", 50))
}

// RenderStepCompleted prints a confirmed or reused deployment
func (r *MigrateRenderer) RenderStepCompleted(current, total int, dep *models.Deployment, reused bool) {
	fmt.Fprintf(r.out, "[%d/%d] ", current, total)
	if reused {
		reusedStyle.Fprint(r.out, "↺ ")
	} else {
		color.New(color.FgGreen).Fprint(r.out, "✓ ")
	}
	r.renderContractName(dep.ContractName, dep.Type)
	fmt.Fprintf(r.out, " at %s", dep.Address)
	if reused {
		reusedStyle.Fprint(r.out, " (reused)")
	} else if dep.BlockNumber > 0 {
		artifactStyle.Fprintf(r.out, " (block %d)", dep.BlockNumber)
	}
	fmt.Fprintln(r.out)
}

// RenderReport prints the report lines of a completed migration verbatim
func (r *MigrateRenderer) RenderReport(lines []usecase.ReportLine) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(r.out)
	for _, line := range lines {
		fmt.Fprintln(r.out, line.String())
	}
}

// RenderResult displays the final summary of a run
func (r *MigrateRenderer) RenderResult(result *usecase.RunMigrationResult) error {
	if result.DryRun {
		fmt.Fprintln(r.out, FormatWarning("Dry run, no transactions were sent"))
		return nil
	}
	if result.Plan.IsEmpty() {
		return nil
	}

	fmt.Fprintf(r.out, "\n%s\n", strings.Repeat("═", 50))

	deployed, reused, completed := 0, 0, 0
	for _, mr := range result.Migrations {
		reused += len(mr.Reused)
		for _, dep := range mr.Deployments {
			if dep.IsDeployed() {
				deployed++
			}
		}
		if mr.Completed {
			completed++
		}
	}
	deployed -= reused

	if result.Success {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Completed %d migrations on %s", completed, result.Plan.Network.Name)))
	} else {
		fmt.Fprintln(r.out, FormatError(fmt.Sprintf("Migration failed after %d of %d migrations", completed, len(result.Plan.Migrations))))
		if result.Error != nil {
			color.New(color.FgRed).Fprintf(r.out, "  %v\n", result.Error)
		}
	}

	fmt.Fprintf(r.out, "  • Deployer:  %s\n", result.Deployer.Hex())
	fmt.Fprintf(r.out, "  • Deployed:  %d\n", deployed)
	if reused > 0 {
		fmt.Fprintf(r.out, "  • Reused:    %d\n", reused)
	}
	if !result.Success {
		fmt.Fprintln(r.out, "\nRe-run with --resume to keep the contracts confirmed so far.")
	}
	return nil
}
