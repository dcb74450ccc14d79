package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
	"reelforge/internal/captions"
	"reelforge/internal/daemonrun"
	"reelforge/internal/services"
	"reelforge/internal/workflow"
)

type renderFlags struct {
	music   string
	noMusic bool
	style   string
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.music, "music", "m", "", "Background music selection from the configured catalog")
	cmd.Flags().BoolVar(&f.noMusic, "no-music", false, "Render without background music even if --music is set")
	cmd.Flags().StringVarP(&f.style, "style", "s", "", "Caption style override (flash, karaoke, plain)")
}

func (f *renderFlags) selection(cmd *cobra.Command) *string {
	if f.noMusic || !cmd.Flags().Changed("music") {
		return nil
	}
	value := f.music
	return &value
}

func (f *renderFlags) captionStyle() (captions.Style, error) {
	if strings.TrimSpace(f.style) == "" {
		return "", nil
	}
	style, err := captions.ParseStyle(f.style)
	if err != nil {
		return "", err
	}
	return style, nil
}

func newComposeCommand(ctx *commandContext) *cobra.Command {
	var flags renderFlags
	var noUpload bool
	var noNotify bool
	var asJSON bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "compose <video-id>...",
		Short: "Render one or more job folders to output.mp4",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			style, err := flags.captionStyle()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg, logLevel)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			stack, err := daemonrun.NewStack(cmd.Context(), cfg, logger, daemonrun.StackOptions{
				DisableUpload:        noUpload,
				DisableNotifications: noNotify,
			})
			if err != nil {
				return err
			}
			defer stack.Close()

			music := flags.selection(cmd)
			reqs := make([]workflow.Request, 0, len(args))
			for _, videoID := range args {
				reqs = append(reqs, workflow.Request{VideoID: videoID, Music: music, Style: style})
			}
			outcomes := stack.Runner.ExecuteAll(cmd.Context(), reqs)

			failed := 0
			responses := make([]api.ReelResponse, 0, len(outcomes))
			rows := make([][]string, 0, len(outcomes))
			for i, out := range outcomes {
				resp := api.FromOutcome(out)
				responses = append(responses, resp)
				detail := resp.OutputFile
				if out.Err != nil {
					failed++
					detail = fmt.Sprintf("%s: %v", services.Kind(out.Err), out.Err)
				} else if resp.URL != "" {
					detail = resp.URL
				}
				rows = append(rows, []string{
					reqs[i].VideoID,
					shortID(out.JobID),
					string(out.Status),
					formatSeconds(out.Result.Duration),
					detail,
				})
			}

			if asJSON {
				if err := writeJSON(cmd, responses); err != nil {
					return err
				}
			} else {
				headers := []string{"Video", "Job", "Status", "Length", "Output"}
				aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d", errJobsFailed, failed, len(outcomes))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&noUpload, "no-upload", false, "Skip uploading to storage even when enabled")
	cmd.Flags().BoolVar(&noNotify, "no-notify", false, "Skip ntfy job notifications")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	return cmd
}
