package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one maintenance pass: overdue tasks, missed shifts, lapsed warnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.sweeper().RunOnce(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "overdue tasks: %d, missed shifts: %d, levels refreshed: %d\n",
				res.OverdueTasks, res.MissedShifts, res.LevelsRefreshed)
			return err
		},
	}
}
