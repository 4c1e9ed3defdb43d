package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shiftdesk/staff-scheduler/internal/service"
)

func importStaffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-staff <file.xlsx>",
		Short: "Create staff accounts from an xlsx roster",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportStaff,
	}
	cmd.Flags().Bool("json", false, "Print the import report as JSON")
	return cmd
}

func runImportStaff(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.staffService().ImportRoster(ctx, service.SystemActor, f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	for _, row := range result.Created {
		fmt.Fprintf(out, "line %d: created %s temporary password %s\n", row.Line, row.Email, row.TemporaryPassword)
	}
	for _, row := range result.Skipped {
		fmt.Fprintf(out, "line %d: skipped %s: %s\n", row.Line, row.Email, row.Reason)
	}
	fmt.Fprintf(out, "%d created, %d skipped\n", len(result.Created), len(result.Skipped))
	return nil
}
