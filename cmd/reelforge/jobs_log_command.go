package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/config"
	"reelforge/internal/jobs"
	"reelforge/internal/logs"
)

const followWait = 2 * time.Second

func newJobsLogCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var raw bool

	cmd := &cobra.Command{
		Use:   "log <job-id>",
		Short: "Print the log written for one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var logPath string
			err := ctx.withStore(func(_ *config.Config, store *jobs.Store) error {
				job, err := findJob(cmd, store, args[0])
				if err != nil {
					return err
				}
				logPath = job.LogPath
				return nil
			})
			if err != nil {
				return err
			}
			if logPath == "" {
				return fmt.Errorf("job %s has no log file", args[0])
			}

			format := logs.FormatLine
			if raw {
				format = func(line string) string { return line }
			}
			return printJobLog(cmd.Context(), cmd.OutOrStdout(), logPath, lines, follow, format)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show (0 for none)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON lines without formatting")
	return cmd
}

func printJobLog(ctx context.Context, out io.Writer, path string, lines int, follow bool, format func(string) string) error {
	result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: lines})
	if err != nil {
		return err
	}
	for _, line := range result.Lines {
		fmt.Fprintln(out, format(line))
	}
	for follow {
		result, err = logs.Tail(ctx, path, logs.TailOptions{Offset: result.Offset, Wait: followWait})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		for _, line := range result.Lines {
			fmt.Fprintln(out, format(line))
		}
	}
	return nil
}
