package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/logging"
	"reelforge/internal/staging"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration
	var list bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove stale job workspaces and expired job logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if list {
				dirs, err := staging.ListDirectories(cfg.Paths.WorkDir)
				if err != nil {
					return err
				}
				if len(dirs) == 0 {
					fmt.Fprintln(out, "No job workspaces")
					return nil
				}
				rows := make([][]string, 0, len(dirs))
				for _, d := range dirs {
					rows = append(rows, []string{
						d.JobID,
						formatTimestamp(d.ModTime),
						fmt.Sprintf("%.1f MiB", float64(d.Size)/(1024*1024)),
						d.Path,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Job", "Modified", "Size", "Path"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}))
				return nil
			}

			if maxAge < 0 {
				return fmt.Errorf("--max-age must not be negative")
			}
			result := staging.CleanStale(cmd.Context(), cfg.Paths.WorkDir, maxAge, logging.NewNop())
			for _, path := range result.Removed {
				fmt.Fprintf(out, "Removed %s\n", path)
			}
			for _, failure := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to remove %s: %v\n", failure.Path, failure.Error)
			}
			pruned := logging.PruneJobLogs(logging.NewNop(), cfg.Paths.LogDir, cfg.Logging.RetentionDays, time.Now())
			fmt.Fprintf(out, "Removed %d workspace(s) and %d job log(s)\n", len(result.Removed), pruned)
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d workspace(s) could not be removed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 24*time.Hour, "Remove workspaces last modified before this age")
	cmd.Flags().BoolVar(&list, "list", false, "List workspaces instead of removing them")
	return cmd
}
