package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

// RegisterVolunteerCmd creates the registerVolunteer command
func RegisterVolunteerCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registerVolunteer <first_name> <last_name> <email>",
		Short: "Register a new volunteer",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			phone, _ := cmd.Flags().GetString("phone")

			volunteer, err := app.Volunteers.Register(app.Ctx, app.Session(), model.Volunteer{
				FirstName: args[0],
				LastName:  args[1],
				Email:     args[2],
				Phone:     phone,
			})
			if err != nil {
				return fmt.Errorf("failed to register volunteer: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n✓ Volunteer registered\n\n")
			fmt.Fprintf(out, "Volunteer ID: %s\n", volunteer.ID)
			fmt.Fprintf(out, "Name:         %s\n", volunteer.FullName())
			fmt.Fprintf(out, "Email:        %s\n\n", volunteer.Email)
			return nil
		},
	}

	cmd.Flags().String("phone", "", "Phone number")

	return cmd
}

// DeactivateVolunteerCmd creates the deactivateVolunteer command
func DeactivateVolunteerCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivateVolunteer <volunteer_id>",
		Short: "Mark a volunteer INACTIVE so they can no longer check in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteer, err := app.Volunteers.Deactivate(app.Ctx, app.Session(), args[0])
			if err != nil {
				return fmt.Errorf("failed to deactivate volunteer: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ %s is now %s\n\n", volunteer.FullName(), volunteer.Status)
			return nil
		},
	}
}

// ListVolunteersCmd creates the listVolunteers command
func ListVolunteersCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listVolunteers",
		Short: "List all registered volunteers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteers, err := app.Volunteers.List(app.Ctx)
			if err != nil {
				return fmt.Errorf("failed to list volunteers: %w", err)
			}

			app.Logger.Debug("Volunteers fetched", zap.Int("count", len(volunteers)))
			printVolunteers(cmd.OutOrStdout(), volunteers)
			return nil
		},
	}
}
