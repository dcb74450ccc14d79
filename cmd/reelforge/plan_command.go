package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reelforge/internal/compose"
	"reelforge/internal/images"
	"reelforge/internal/logging"
	"reelforge/internal/music"
)

type planImage struct {
	Index    int     `json:"index"`
	Path     string  `json:"path"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

type planCaption struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type planReport struct {
	VideoID      string        `json:"video_id"`
	CaptionStyle string        `json:"caption_style"`
	Music        string        `json:"music,omitempty"`
	Duration     float64       `json:"duration"`
	Images       []planImage   `json:"images"`
	Captions     []planCaption `json:"captions"`
	FilterGraph  string        `json:"filter_graph"`
	Command      string        `json:"command"`
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var flags renderFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plan <video-id>",
		Short: "Show the image timeline, captions, and compositor command without rendering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			style, err := flags.captionStyle()
			if err != nil {
				return err
			}
			opts, err := compose.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			catalog := music.NewCatalog(cfg.Music.Dir, cfg.Music.Tracks)
			composer := compose.New(opts, catalog, logging.NewNop())

			prep, plan, err := composer.DryRun(compose.Job{
				VideoID: args[0],
				Music:   flags.selection(cmd),
				Style:   style,
			})
			if err != nil {
				return err
			}

			report := buildPlanReport(prep, plan, opts.Binary)
			if asJSON {
				return writeJSON(cmd, report)
			}
			printPlanReport(cmd, report)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the plan as JSON")
	return cmd
}

func buildPlanReport(prep *compose.Prepared, plan *compose.Plan, binary string) planReport {
	report := planReport{
		VideoID:      prep.Job.VideoID,
		CaptionStyle: string(prep.Track.Style),
		Duration:     prep.Duration,
		Images:       imageTimeline(prep.Slots),
		Captions:     make([]planCaption, 0, len(prep.Track.Events)),
		FilterGraph:  plan.Graph(),
		Command:      plan.CommandLine(binary),
	}
	if prep.Job.Music != nil {
		report.Music = *prep.Job.Music
	}
	for _, ev := range prep.Track.Events {
		report.Captions = append(report.Captions, planCaption{Start: ev.Start, End: ev.End, Text: ev.Text()})
	}
	return report
}

func imageTimeline(slots []images.Slot) []planImage {
	out := make([]planImage, 0, len(slots))
	var offset float64
	for _, slot := range slots {
		out = append(out, planImage{Index: slot.Index, Path: slot.Path, Start: offset, Duration: slot.Duration})
		offset += slot.Duration
	}
	return out
}

func printPlanReport(cmd *cobra.Command, report planReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Video:    %s\n", report.VideoID)
	fmt.Fprintf(out, "Captions: %s\n", report.CaptionStyle)
	fmt.Fprintf(out, "Music:    %s\n", valueOrDash(report.Music))
	fmt.Fprintf(out, "Length:   %s\n\n", formatSeconds(report.Duration))

	rows := make([][]string, 0, len(report.Images))
	for _, img := range report.Images {
		rows = append(rows, []string{
			strconv.Itoa(img.Index),
			fmt.Sprintf("%.2f", img.Start),
			fmt.Sprintf("%.2f", img.Duration),
			img.Path,
		})
	}
	fmt.Fprintln(out, renderTitledTable("Images",
		[]string{"#", "Start", "Duration", "Path"}, rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft}))

	captionRows := make([][]string, 0, len(report.Captions))
	for _, c := range report.Captions {
		captionRows = append(captionRows, []string{
			fmt.Sprintf("%.2f", c.Start),
			fmt.Sprintf("%.2f", c.End),
			c.Text,
		})
	}
	fmt.Fprintln(out, renderTitledTable("Captions",
		[]string{"Start", "End", "Text"}, captionRows,
		[]columnAlignment{alignRight, alignRight, alignLeft}))

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Command:")
	fmt.Fprintln(out, report.Command)
}
