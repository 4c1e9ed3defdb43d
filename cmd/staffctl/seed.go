package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/service"
)

func seedAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the first administrator account",
		Long: `Create an administrator account directly in the database.

Examples:
  staffctl seed-admin --email=ops@example.com --name="Ops Lead"
  staffctl seed-admin --email=ops@example.com --name="Ops Lead" --password='s3cret-pass'

Without --password a temporary password is generated and printed once.`,
		Args: cobra.NoArgs,
		RunE: runSeedAdmin,
	}
	cmd.Flags().String("email", "", "Administrator email (required)")
	cmd.Flags().String("name", "", "Display name (required)")
	cmd.Flags().String("password", "", "Initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runSeedAdmin(cmd *cobra.Command, _ []string) error {
	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	password, _ := cmd.Flags().GetString("password")

	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	created, err := rt.staffService().CreateStaffMember(ctx, service.SystemActor, service.StaffInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     domain.StaffRoleAdmin,
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "created admin %s (%s)\n", created.Staff.Email, created.Staff.ID)
	if created.TemporaryPassword != "" {
		fmt.Fprintf(out, "temporary password: %s\n", created.TemporaryPassword)
	}
	return nil
}
