package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// Color styles for table format
var (
	nsHeader           = color.New(color.BgYellow, color.FgBlack)
	nsHeaderBold       = color.New(color.BgYellow, color.FgBlack, color.Bold)
	chainHeader        = color.New(color.BgCyan, color.FgBlack)
	chainHeaderBold    = color.New(color.BgCyan, color.FgBlack, color.Bold)
	addressStyle       = color.New(color.FgWhite)
	timestampStyle     = color.New(color.Faint)
	pendingStyle       = color.New(color.FgYellow)
	failedStyle        = color.New(color.FgRed)
	sectionHeaderStyle = color.New(color.Bold, color.FgHiWhite)
)

type TableData [][]string

// DeploymentsRenderer renders deployment lists as tree-style tables grouped by namespace and chain
type DeploymentsRenderer struct {
	out io.Writer
}

// NewDeploymentsRenderer creates a new deployments renderer
func NewDeploymentsRenderer(out io.Writer) *DeploymentsRenderer {
	return &DeploymentsRenderer{out: out}
}

type chainGroup struct {
	namespace string
	chainID   uint64
	sections  []deploymentSection
}

type deploymentSection struct {
	title string
	table TableData
}

// RenderDeploymentList renders deployments in the tree-style format
func (r *DeploymentsRenderer) RenderDeploymentList(result *usecase.DeploymentListResult) error {
	if len(result.Deployments) == 0 {
		fmt.Fprintln(r.out, "No deployments found")
		return nil
	}

	groups := r.group(result.Deployments)

	// Shared widths keep columns aligned across every chain
	var allTables []TableData
	for _, g := range groups {
		for _, s := range g.sections {
			allTables = append(allTables, s.table)
		}
	}
	widths := calculateTableColumnWidths(allTables)

	for i, g := range groups {
		if i == 0 || groups[i-1].namespace != g.namespace {
			nsLabel := fmt.Sprintf("%-12s", "namespace:")
			nsValue := fmt.Sprintf("%-30s", strings.ToUpper(g.namespace))
			fmt.Fprintln(r.out, nsHeader.Sprintf("   ◎ %s %s", nsLabel, nsHeaderBold.Sprint(nsValue)))
		}

		isLast := i == len(groups)-1 || groups[i+1].namespace != g.namespace
		treePrefix, continuation := "├─", "│ "
		if isLast {
			treePrefix, continuation = "└─", "  "
		}

		chainLabel := fmt.Sprintf("%-12s", "chain:")
		chainValue := fmt.Sprintf("%-30d", g.chainID)
		fmt.Fprintf(r.out, "%s%s%s\n", treePrefix, chainHeader.Sprintf(" ⛓ %s ", chainLabel), chainHeaderBold.Sprint(chainValue))
		fmt.Fprintln(r.out, continuation)

		for j, s := range g.sections {
			if j > 0 {
				fmt.Fprintln(r.out, continuation)
			}
			fmt.Fprintf(r.out, "%s%s\n", continuation, sectionHeaderStyle.Sprint(s.title))
			fmt.Fprint(r.out, renderTableWithWidths(s.table, widths, continuation))
			fmt.Fprintln(r.out)
		}

		if isLast {
			fmt.Fprintln(r.out)
		} else {
			fmt.Fprintln(r.out, continuation)
		}
	}

	r.renderSummary(result.Summary)
	return nil
}

func (r *DeploymentsRenderer) group(deployments []*models.Deployment) []chainGroup {
	type key struct {
		ns    string
		chain uint64
	}
	byKey := make(map[key][]*models.Deployment)
	var keys []key
	for _, dep := range deployments {
		k := key{dep.Namespace, dep.ChainID}
		if _, ok := byKey[k]; !ok {
			keys = append(keys, k)
		}
		byKey[k] = append(byKey[k], dep)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ns != keys[j].ns {
			return keys[i].ns < keys[j].ns
		}
		return keys[i].chain < keys[j].chain
	})

	groups := make([]chainGroup, 0, len(keys))
	for _, k := range keys {
		var singletons, libraries []*models.Deployment
		for _, dep := range byKey[k] {
			if dep.Type == models.LibraryDeployment {
				libraries = append(libraries, dep)
			} else {
				singletons = append(singletons, dep)
			}
		}

		g := chainGroup{namespace: k.ns, chainID: k.chain}
		if len(singletons) > 0 {
			g.sections = append(g.sections, deploymentSection{"SINGLETONS", r.buildDeploymentTable(singletons)})
		}
		if len(libraries) > 0 {
			g.sections = append(g.sections, deploymentSection{"LIBRARIES", r.buildDeploymentTable(libraries)})
		}
		groups = append(groups, g)
	}
	return groups
}

// buildDeploymentTable keeps the order the use case sorted deployments in
func (r *DeploymentsRenderer) buildDeploymentTable(deployments []*models.Deployment) TableData {
	tableData := make(TableData, 0, len(deployments))
	for _, dep := range deployments {
		address := dep.Address
		if address == "" {
			address = "-"
		}
		tableData = append(tableData, []string{
			r.getColoredDisplayName(dep),
			addressStyle.Sprint(address),
			statusCell(dep),
			timestampStyle.Sprint(dep.Migration),
			timestampStyle.Sprint(dep.CreatedAt.Format("2006-01-02 15:04:05")),
		})
	}
	return tableData
}

func statusCell(dep *models.Deployment) string {
	switch dep.Status {
	case models.DeploymentStatusDeployed:
		return color.New(color.FgGreen).Sprint("✓ deployed")
	case models.DeploymentStatusPending:
		return pendingStyle.Sprintf("⏳ pending %s", shortHash(dep.TxHash))
	case models.DeploymentStatusFailed:
		return failedStyle.Sprint("✗ failed")
	}
	return string(dep.Status)
}

// getColoredDisplayName returns a colored display name for deployment
func (r *DeploymentsRenderer) getColoredDisplayName(dep *models.Deployment) string {
	name := dep.GetDisplayName()
	if dep.Type == models.LibraryDeployment {
		return color.New(color.FgBlue, color.Bold).Sprint(name)
	}
	return color.New(color.FgGreen, color.Bold).Sprint(name)
}

func (r *DeploymentsRenderer) renderSummary(summary usecase.DeploymentSummary) {
	fmt.Fprintf(r.out, "Total deployments: %d", summary.Total)
	var parts []string
	for _, status := range []models.DeploymentStatus{models.DeploymentStatusPending, models.DeploymentStatusFailed} {
		if n := summary.ByStatus[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ToLower(string(status))))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(r.out, " (%s)", strings.Join(parts, ", "))
	}
	fmt.Fprintln(r.out)
}

// renderTableWithWidths renders a table with specific column widths
func renderTableWithWidths(tableData TableData, columnWidths []int, continuationPrefix string) string {
	if len(tableData) == 0 {
		return ""
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateHeader = false
	t.Style().Options.SeparateColumns = false
	t.Style().Box = table.BoxStyle{
		PaddingRight: "   ",
	}

	colConfigs := make([]table.ColumnConfig, len(columnWidths))
	for i, width := range columnWidths {
		if i == 0 {
			width += len([]rune(continuationPrefix))
		}
		colConfigs[i] = table.ColumnConfig{
			Number:   i + 1,
			Align:    text.AlignLeft,
			WidthMin: width,
			WidthMax: width,
		}
	}
	t.SetColumnConfigs(colConfigs)

	for _, row := range tableData {
		tableRow := make(table.Row, len(row))
		for i, cell := range row {
			if i == 0 {
				cell = continuationPrefix + cell
			}
			tableRow[i] = cell
		}
		t.AppendRow(tableRow)
	}

	return t.Render()
}

// calculateTableColumnWidths calculates column widths across multiple tables
func calculateTableColumnWidths(tables []TableData) []int {
	maxCols := 0
	for _, t := range tables {
		for _, row := range t {
			maxCols = max(maxCols, len(row))
		}
	}

	widths := make([]int, maxCols)
	for _, t := range tables {
		for _, row := range t {
			for i, cell := range row {
				widths[i] = max(widths[i], len([]rune(stripAnsiCodes(cell))))
			}
		}
	}
	return widths
}
