package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-migrate/internal/cli/render"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var (
		contractName string
		deployType   string
		status       string
		migration    string
		chainID      uint64
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List deployments from the registry",
		Long: `List all deployments recorded in the registry for the current namespace.

The list can be filtered by chain ID, migration, contract name, deployment type or status.`,
		Example: `  # List all deployments
  treb-migrate list

  # List IdentityRegistry deployments
  treb-migrate list --contract IdentityRegistry

  # List libraries only
  treb-migrate list --type library`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params, err := listParams(contractName, deployType, status, migration, chainID)
			if err != nil {
				return err
			}

			result, err := app.ListDeployments.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			return render.NewDeploymentsRenderer(cmd.OutOrStdout()).RenderDeploymentList(result)
		},
	}

	cmd.Flags().StringVar(&contractName, "contract", "", "Filter by contract name")
	cmd.Flags().StringVar(&deployType, "type", "", "Filter by deployment type (singleton, library)")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, deployed, failed)")
	cmd.Flags().StringVar(&migration, "migration", "", "Filter by migration (e.g. 2_deploy_contracts)")
	cmd.Flags().Uint64Var(&chainID, "chain", 0, "Filter by chain ID")

	return cmd
}

// listParams converts list flags into use case parameters
func listParams(contractName, deployType, status, migration string, chainID uint64) (usecase.ListDeploymentsParams, error) {
	params := usecase.ListDeploymentsParams{
		ChainID:      chainID,
		Migration:    migration,
		ContractName: contractName,
	}

	if deployType != "" {
		switch t := models.DeploymentType(strings.ToUpper(deployType)); t {
		case models.SingletonDeployment, models.LibraryDeployment:
			params.Type = t
		default:
			return params, fmt.Errorf("invalid deployment type: %s (valid: singleton, library)", deployType)
		}
	}

	if status != "" {
		switch s := models.DeploymentStatus(strings.ToUpper(status)); s {
		case models.DeploymentStatusPending, models.DeploymentStatusDeployed, models.DeploymentStatusFailed:
			params.Status = s
		default:
			return params, fmt.Errorf("invalid status: %s (valid: pending, deployed, failed)", status)
		}
	}

	return params, nil
}
