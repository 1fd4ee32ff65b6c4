package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StatusRenderer renders migration status
type StatusRenderer struct {
	out io.Writer
}

// NewStatusRenderer creates a new status renderer
func NewStatusRenderer(out io.Writer) *StatusRenderer {
	return &StatusRenderer{out: out}
}

// RenderStatus shows every migration file against the recorded progress
func (r *StatusRenderer) RenderStatus(result *usecase.MigrationStatusResult) error {
	fmt.Fprintf(r.out, "Network:   %s (chain %d)\n", result.Network.Name, result.Network.ChainID)
	fmt.Fprintf(r.out, "Namespace: %s\n", result.Namespace)
	fmt.Fprintf(r.out, "Last completed migration: %d\n\n", result.LastCompleted)

	if len(result.Migrations) == 0 {
		fmt.Fprintln(r.out, "No migrations found")
		return nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.AppendHeader(table.Row{"#", "Migration", "Status", "Contracts"})

	for _, entry := range result.Migrations {
		t.AppendRow(table.Row{
			entry.Migration.Number,
			entry.Migration.Name,
			statusLabel(entry),
			r.contractsCell(entry, result.Checks),
		})
	}
	fmt.Fprintln(r.out, t.Render())

	if result.CheckError != nil {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("Could not check deployments on chain: %v", result.CheckError)))
	}

	if n := result.Pending(); n > 0 {
		fmt.Fprintf(r.out, "\n%d pending migrations, run `treb-migrate migrate --network %s` to apply them\n", n, result.Network.Name)
	} else {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, FormatSuccess("Up to date"))
	}
	return nil
}

func statusLabel(entry *usecase.MigrationStatusEntry) string {
	title := cases.Title(language.English)
	switch {
	case entry.Completed:
		return color.New(color.FgGreen).Sprint("✓ " + title.String(string(models.RunStatusCompleted)))
	case entry.Run != nil && entry.Run.Status == models.RunStatusFailed:
		label := "✗ " + title.String(string(models.RunStatusFailed))
		if entry.Run.FailedStep != "" {
			label += " at " + entry.Run.FailedStep
		}
		return color.New(color.FgRed).Sprint(label)
	case entry.Run != nil:
		return color.New(color.FgYellow).Sprint("● " + title.String(string(entry.Run.Status)))
	}
	return color.New(color.Faint).Sprint("○ Pending")
}

func (r *StatusRenderer) contractsCell(entry *usecase.MigrationStatusEntry, checks map[string]usecase.DeploymentCheck) string {
	if len(entry.Deployments) == 0 {
		return "-"
	}

	parts := make([]string, 0, len(entry.Deployments))
	for _, dep := range entry.Deployments {
		part := dep.ContractName
		if check, ok := checks[dep.ID]; ok {
			switch {
			case check.Error != nil:
				part += color.New(color.FgYellow).Sprint(" ?")
			case check.Exists:
				part += color.New(color.FgGreen).Sprint(" ✓")
			default:
				part += color.New(color.FgRed).Sprintf(" ✗ %s", check.Reason)
			}
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}
