package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-migrate/internal/cli/render"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which migrations ran on a network",
		Long: `Show every migration file with its state on the selected network and namespace.

With --check, each recorded address is looked up on chain and flagged when no
code is found there.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.MigrationStatus.Run(cmd.Context(), usecase.MigrationStatusParams{CheckOnChain: check})
			if err != nil {
				return err
			}

			return render.NewStatusRenderer(cmd.OutOrStdout()).RenderStatus(result)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Verify recorded contracts still have code on chain")

	return cmd
}
