package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-migrate/internal/cli/render"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// planFlags are shared by migrate and plan
type planFlags struct {
	reset bool
	from  int
	to    int
}

func (f *planFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.reset, "reset", false, "Run all migrations from the beginning, ignoring recorded progress")
	cmd.Flags().IntVar(&f.from, "from", 0, "First migration number to run")
	cmd.Flags().IntVar(&f.to, "to", 0, "Last migration number to run")
}

func (f *planFlags) params() usecase.PlanMigrationParams {
	return usecase.PlanMigrationParams{
		Reset: f.reset,
		From:  f.from,
		To:    f.to,
	}
}

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	var (
		plan    planFlags
		dryRun  bool
		resume  bool
		compile bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run pending migrations against a network",
		Long: `Run every migration newer than the last one completed on the selected
network and namespace. Contracts are deployed one at a time, each transaction
confirmed before the next is sent, and every address is recorded in .treb/.

On development chains (1337, 31337) no confirmation is asked.`,
		Example: `  # Deploy to the local node
  treb-migrate migrate

  # Preview a sepolia run
  treb-migrate migrate -n sepolia --dry-run

  # Compile first, then deploy
  treb-migrate migrate --compile

  # Continue a migration that failed halfway
  treb-migrate migrate -n sepolia --resume`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			if compile {
				if err := app.BuildProject.Run(cmd.Context()); err != nil {
					return err
				}
			}

			params := usecase.RunMigrationParams{
				PlanMigrationParams: plan.params(),
				DryRun:              dryRun || app.Config.DryRun,
				Resume:              resume,
			}

			result, err := app.RunMigration.Run(cmd.Context(), params)
			if err != nil {
				if errors.Is(err, domain.ErrAborted) {
					fmt.Fprintln(cmd.OutOrStdout(), render.FormatWarning("Migration cancelled"))
					return nil
				}
				return err
			}

			renderer := render.NewMigrateRenderer(cmd.OutOrStdout())
			if err := renderer.RenderResult(result); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("migration failed: %w", result.Error)
			}
			return nil
		},
	}

	plan.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the plan without sending transactions")
	cmd.Flags().BoolVar(&resume, "resume", false, "Reuse contracts confirmed by a failed run of the same migration")
	cmd.Flags().BoolVar(&compile, "compile", false, "Compile contracts (forge build or truffle compile) before migrating")

	return cmd
}

// NewPlanCmd creates the plan command
func NewPlanCmd() *cobra.Command {
	var plan planFlags

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the deployments the next migrate would send",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.PlanMigration.Run(cmd.Context(), plan.params())
			if err != nil {
				return err
			}

			render.NewMigrateRenderer(cmd.OutOrStdout()).RenderPlan(result)
			return nil
		},
	}

	plan.register(cmd)

	return cmd
}
