package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-migrate/internal/cli/render"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <contract|address>",
		Short: "Show details of a recorded deployment",
		Long: `Show the registry record of a deployment on the selected network and namespace.

The deployment can be named by its contract name from the migration file or by
its address.`,
		Example: `  treb-migrate show IdentityRegistry
  treb-migrate show 0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0 -n sepolia`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ShowDeployment.Run(cmd.Context(), usecase.ShowDeploymentParams{Identifier: args[0]})
			if err != nil {
				return err
			}

			return render.NewDeploymentRenderer(cmd.OutOrStdout()).RenderDeployment(result)
		},
	}

	return cmd
}
