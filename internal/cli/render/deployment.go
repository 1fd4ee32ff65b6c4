package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// DeploymentRenderer renders detailed information about a single deployment
type DeploymentRenderer struct {
	out io.Writer
}

// NewDeploymentRenderer creates a new deployment renderer
func NewDeploymentRenderer(out io.Writer) *DeploymentRenderer {
	return &DeploymentRenderer{out: out}
}

// RenderDeployment renders detailed deployment information
func (r *DeploymentRenderer) RenderDeployment(result *usecase.ShowDeploymentResult) error {
	deployment := result.Deployment

	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "Deployment: %s\n", deployment.ID)
	fmt.Fprintln(r.out, strings.Repeat("=", 80))

	fmt.Fprintln(r.out, "\nBasic Information:")
	fmt.Fprintf(r.out, "  Contract: %s\n", color.New(color.FgYellow).Sprint(deployment.GetDisplayName()))
	fmt.Fprintf(r.out, "  Address: %s\n", deployment.Address)
	fmt.Fprintf(r.out, "  Type: %s\n", deployment.Type)
	fmt.Fprintf(r.out, "  Status: %s\n", statusCell(deployment))
	fmt.Fprintf(r.out, "  Namespace: %s\n", deployment.Namespace)
	fmt.Fprintf(r.out, "  Network: %s (%d)\n", result.Network.Name, deployment.ChainID)
	fmt.Fprintf(r.out, "  Migration: %s\n", deployment.Migration)

	if len(deployment.Libraries) > 0 {
		fmt.Fprintln(r.out, "\nLinked Libraries:")
		names := make([]string, 0, len(deployment.Libraries))
		for name := range deployment.Libraries {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(r.out, "  %s: %s\n", name, deployment.Libraries[name])
		}
	}

	if deployment.ConstructorArgs != "" {
		fmt.Fprintln(r.out, "\nConstructor Arguments:")
		fmt.Fprintf(r.out, "  %s\n", deployment.ConstructorArgs)
	}

	if deployment.TxHash != "" {
		fmt.Fprintln(r.out, "\nTransaction Information:")
		fmt.Fprintf(r.out, "  Hash: %s\n", deployment.TxHash)
		if deployment.Deployer != "" {
			fmt.Fprintf(r.out, "  Sender: %s\n", deployment.Deployer)
		}
		if deployment.BlockNumber > 0 {
			fmt.Fprintf(r.out, "  Block: %d\n", deployment.BlockNumber)
		}
	}

	if deployment.Error != "" {
		fmt.Fprintln(r.out, "\nError:")
		color.New(color.FgRed).Fprintf(r.out, "  %s\n", deployment.Error)
	}

	fmt.Fprintln(r.out, "\nTimestamps:")
	fmt.Fprintf(r.out, "  Created: %s\n", deployment.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(r.out, "  Updated: %s\n", deployment.UpdatedAt.Format("2006-01-02 15:04:05"))

	return nil
}
