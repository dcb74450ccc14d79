package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
	"reelforge/internal/config"
	"reelforge/internal/music"
	"reelforge/internal/preflight"
)

const daemonProbeTimeout = 2 * time.Second

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check configuration, dependencies, and the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			lines := renderSectionHeader("Configuration", colorize)
			lines = append(lines, renderStatusLine("Config file", statusInfo, valueOrDash(ctx.configPath), colorize))
			lines = append(lines, checkLines(preflight.RunAll(cmd.Context(), cfg), colorize)...)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(preflight.CheckSystemDeps(cmd.Context(), cfg), colorize)...)
			lines = append(lines, musicLine(cfg, colorize))
			lines = append(lines, storageLine(cfg, colorize))
			lines = append(lines, notificationLine(cfg, colorize))

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Daemon", colorize)...)
			lines = append(lines, daemonLines(cmd.Context(), cfg, colorize)...)

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

func musicLine(cfg *config.Config, colorize bool) string {
	catalog := music.NewCatalog(cfg.Music.Dir, cfg.Music.Tracks)
	names := catalog.Names()
	if len(names) == 0 {
		return renderStatusLine("Music", statusInfo, "no tracks configured", colorize)
	}
	if err := catalog.Verify(); err != nil {
		return renderStatusLine("Music", statusWarn, err.Error(), colorize)
	}
	return renderStatusLine("Music", statusOK, strings.Join(names, ", "), colorize)
}

func storageLine(cfg *config.Config, colorize bool) string {
	if !cfg.Storage.Enabled {
		return renderStatusLine("Storage", statusInfo, "upload disabled", colorize)
	}
	return renderStatusLine("Storage", statusOK, "gs://"+cfg.Storage.Bucket+"/"+strings.TrimPrefix(cfg.Storage.Prefix, "/"), colorize)
}

func notificationLine(cfg *config.Config, colorize bool) string {
	if cfg.Notifications.NtfyTopic == "" {
		return renderStatusLine("Notifications", statusInfo, "ntfy not configured", colorize)
	}
	return renderStatusLine("Notifications", statusOK, cfg.Notifications.NtfyTopic, colorize)
}

func daemonLines(ctx context.Context, cfg *config.Config, colorize bool) []string {
	status, err := fetchDaemonStatus(ctx, cfg)
	if err != nil {
		return []string{renderStatusLine("Daemon", statusWarn, err.Error(), colorize)}
	}
	lines := []string{
		renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d, up %s)", status.PID, valueOrDash(status.Uptime)), colorize),
		renderStatusLine("Compositor slots", statusInfo, fmt.Sprintf("%d/%d busy, %d waiting", status.Pool.Active, status.Pool.Size, status.Pool.Waiting), colorize),
	}
	if len(status.JobCounts) > 0 {
		parts := make([]string, 0, len(status.JobCounts))
		for _, name := range []string{"queued", "running", "uploading", "completed", "failed", "review"} {
			if n := status.JobCounts[name]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s=%d", name, n))
			}
		}
		lines = append(lines, renderStatusLine("Jobs", statusInfo, strings.Join(parts, " "), colorize))
	}
	return lines
}

func daemonBaseURL(bind string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(bind))
	if err != nil {
		return "http://" + bind
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func fetchDaemonStatus(ctx context.Context, cfg *config.Config) (*api.DaemonStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, daemonProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, daemonBaseURL(cfg.Paths.APIBind)+"/api/status", nil)
	if err != nil {
		return nil, err
	}
	if cfg.Paths.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Paths.APIToken)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("not reachable at %s; start it with `reelforge serve`", cfg.Paths.APIBind)
		}
		return nil, fmt.Errorf("not reachable at %s: %w", cfg.Paths.APIBind, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint returned %s", resp.Status)
	}
	var status api.DaemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode daemon status: %w", err)
	}
	return &status, nil
}
