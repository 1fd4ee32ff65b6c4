package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out io.Writer
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer) *NetworksRenderer {
	return &NetworksRenderer{out: out}
}

// RenderNetworksList shows each network with the migrations applied to it in the namespace
func (r *NetworksRenderer) RenderNetworksList(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured in foundry.toml [rpc_endpoints]")
		return nil
	}

	fmt.Fprintf(r.out, "Namespace: %s\n\n", result.Namespace)

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.AppendHeader(table.Row{"", "Network", "Chain ID", "Last Migration", "Deployments", "RPC"})

	var failed []usecase.NetworkStatus
	for _, n := range result.Networks {
		marker := ""
		if n.Current {
			marker = color.New(color.FgGreen, color.Bold).Sprint("*")
		}

		if n.Error != nil {
			failed = append(failed, n)
			t.AppendRow(table.Row{marker, n.Name, color.New(color.FgRed).Sprint("unreachable"), "-", "-", ""})
			continue
		}

		name := n.Name
		if n.Development {
			name += color.New(color.Faint).Sprint(" (dev)")
		}
		last := "-"
		if n.LastCompleted > 0 {
			last = fmt.Sprintf("%d", n.LastCompleted)
		}
		t.AppendRow(table.Row{marker, name, n.ChainID, last, n.Deployments, n.RPCURL})
	}
	fmt.Fprintln(r.out, t.Render())

	for _, n := range failed {
		fmt.Fprintln(r.out, FormatError(fmt.Sprintf("%s: %v", n.Name, n.Error)))
	}
	return nil
}
