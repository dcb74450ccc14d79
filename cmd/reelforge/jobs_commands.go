package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
	"reelforge/internal/config"
	"reelforge/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and maintain the render job history",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsLogCommand(ctx))
	jobsCmd.AddCommand(newJobsPruneCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var videoID string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := jobs.ListFilter{VideoID: strings.TrimSpace(videoID), Limit: limit}
			for _, raw := range statusFlags {
				for _, part := range strings.Split(raw, ",") {
					part = strings.TrimSpace(part)
					if part == "" {
						continue
					}
					status, ok := jobs.ParseStatus(part)
					if !ok {
						return fmt.Errorf("unknown status %q", part)
					}
					filter.Statuses = append(filter.Statuses, status)
				}
			}

			return ctx.withStore(func(_ *config.Config, store *jobs.Store) error {
				list, err := store.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.JobListResponse{Jobs: api.FromJobs(list)})
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs found")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderJobTable(list))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statusFlags, "status", nil, "Filter by status (repeatable or comma separated)")
	cmd.Flags().StringVar(&videoID, "video", "", "Filter by video id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of jobs to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print jobs as JSON")
	return cmd
}

func renderJobTable(list []*jobs.Job) string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		rows = append(rows, []string{
			shortID(job.ID),
			job.VideoID,
			string(job.Status),
			valueOrDash(job.CaptionStyle),
			valueOrDash(job.MusicName()),
			formatSeconds(job.DurationSeconds),
			formatElapsed(job.Elapsed()),
			formatTimestamp(job.CreatedAt),
		})
	}
	headers := []string{"Job", "Video", "Status", "Style", "Music", "Length", "Elapsed", "Created"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
	return renderTable(headers, rows, aligns)
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *jobs.Store) error {
				job, err := findJob(cmd, store, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.JobResponse{Job: api.FromJob(job)})
				}
				out := cmd.OutOrStdout()
				fields := [][2]string{
					{"ID", job.ID},
					{"Video", job.VideoID},
					{"Status", string(job.Status)},
					{"Caption style", valueOrDash(job.CaptionStyle)},
					{"Music", valueOrDash(job.MusicName())},
					{"Output", valueOrDash(job.OutputPath)},
					{"URL", valueOrDash(job.PublicURL)},
					{"Length", formatSeconds(job.DurationSeconds)},
					{"Created", formatTimestamp(job.CreatedAt)},
					{"Started", formatTimestamp(job.StartedAt)},
					{"Finished", formatTimestamp(job.FinishedAt)},
					{"Elapsed", formatElapsed(job.Elapsed())},
					{"Log", valueOrDash(job.LogPath)},
				}
				if job.ErrorMessage != "" {
					fields = append(fields, [2]string{"Error", fmt.Sprintf("%s: %s", valueOrDash(job.ErrorKind), job.ErrorMessage)})
				}
				for _, f := range fields {
					fmt.Fprintf(out, "%-14s %s\n", f[0]+":", f[1])
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the job as JSON")
	return cmd
}

// findJob resolves a full id or a unique prefix of at least four characters.
func findJob(cmd *cobra.Command, store *jobs.Store, id string) (*jobs.Job, error) {
	id = strings.TrimSpace(id)
	job, err := store.Get(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if job != nil {
		return job, nil
	}
	if len(id) < 4 {
		return nil, fmt.Errorf("job %s not found", id)
	}
	list, err := store.List(cmd.Context(), jobs.ListFilter{})
	if err != nil {
		return nil, err
	}
	var match *jobs.Job
	for _, candidate := range list {
		if !strings.HasPrefix(candidate.ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("job prefix %s is ambiguous", id)
		}
		match = candidate
	}
	if match == nil {
		return nil, fmt.Errorf("job %s not found", id)
	}
	return match, nil
}

func newJobsPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished jobs older than a cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return fmt.Errorf("--older-than must not be negative")
			}
			return ctx.withStore(func(_ *config.Config, store *jobs.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d job(s) older than %s\n", removed, olderThan)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age of finished jobs to delete")
	return cmd
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every job from the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to clear job history without --force")
			}
			return ctx.withStore(func(_ *config.Config, store *jobs.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d job(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Confirm clearing all jobs")
	return cmd
}
