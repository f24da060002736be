package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-hours/pkg/core/services"
)

// SeedAdminCmd creates the seedAdmin command
func SeedAdminCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seedAdmin",
		Short: "Create the default administrator from configuration if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, created, err := services.SeedDefaultAdmin(app.Ctx, app.Database, app.Logger, app.AdminSeed())
			if err != nil {
				return fmt.Errorf("failed to seed administrator: %w", err)
			}

			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "\nAdministrator %q already exists.\n\n", admin.Username)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Administrator %q created (%s)\n\n", admin.Username, admin.Role)
			return nil
		},
	}
}
