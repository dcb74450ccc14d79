package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelforge/internal/api"
	"reelforge/internal/jobs"
	"reelforge/internal/services"
	"reelforge/internal/testsupport"
)

func seedJobs(t *testing.T, store *jobs.Store) (*jobs.Job, *jobs.Job) {
	t.Helper()
	ctx := context.Background()
	alpha, err := store.Create(ctx, jobs.NewJob{VideoID: "alpha", CaptionStyle: "flash"})
	if err != nil {
		t.Fatalf("create alpha: %v", err)
	}
	beta, err := store.Create(ctx, jobs.NewJob{VideoID: "beta", CaptionStyle: "karaoke"})
	if err != nil {
		t.Fatalf("create beta: %v", err)
	}
	if err := store.MarkRunning(ctx, beta.ID); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	cause := services.Wrap(services.ErrCompositor, "compose", "render", "ffmpeg exited 1", errors.New("boom"))
	if _, err := store.Fail(ctx, beta.ID, cause); err != nil {
		t.Fatalf("fail beta: %v", err)
	}
	return alpha, beta
}

func TestJobsListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	alpha, beta := seedJobs(t, store)

	out, _, err := runCLI(t, []string{"jobs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, "alpha")
	requireContains(t, out, "beta")
	requireContains(t, out, shortID(alpha.ID))

	out, _, err = runCLI(t, []string{"jobs", "list", "--status", "failed", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list --status: %v", err)
	}
	var resp api.JobListResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Jobs) != 1 || resp.Jobs[0].ID != beta.ID {
		t.Fatalf("unexpected filtered jobs %+v", resp.Jobs)
	}
	if resp.Jobs[0].ErrorKind != "compositor" {
		t.Fatalf("error kind = %q", resp.Jobs[0].ErrorKind)
	}

	out, _, err = runCLI(t, []string{"jobs", "show", beta.ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	requireContains(t, out, beta.ID)
	requireContains(t, out, "compositor")

	if _, _, err := runCLI(t, []string{"jobs", "list", "--status", "bogus"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if _, _, err := runCLI(t, []string{"jobs", "show", "nope-nope"}, env.configPath); err == nil {
		t.Fatal("expected error for missing job")
	}
}

func TestJobsPruneAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	seedJobs(t, store)

	out, _, err := runCLI(t, []string{"jobs", "prune", "--older-than", "0s"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs prune: %v", err)
	}
	requireContains(t, out, "Pruned 1 job(s)")

	if _, _, err := runCLI(t, []string{"jobs", "clear"}, env.configPath); err == nil {
		t.Fatal("expected clear without --force to fail")
	}
	out, _, err = runCLI(t, []string{"jobs", "clear", "--force"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 job(s)")

	out, _, err = runCLI(t, []string{"jobs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	if !strings.Contains(out, "No jobs found") {
		t.Fatalf("expected empty history, got %s", out)
	}
}

func TestJobsLogFormatsEntries(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteVideoFixture(t, env.cfg.Paths.ReelsDir, "abc", testsupport.VideoFixture{
		Sentences: []string{"hello there", "general kenobi"},
	})
	out, _, err := runCLI(t, []string{"compose", "abc", "--json", "--log-level", "error"}, env.configPath)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	var responses []api.ReelResponse
	if err := json.Unmarshal([]byte(out), &responses); err != nil || len(responses) != 1 {
		t.Fatalf("decode compose output: %v\n%s", err, out)
	}
	jobID := responses[0].JobID

	out, _, err = runCLI(t, []string{"jobs", "log", jobID, "--lines", "100"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs log: %v", err)
	}
	requireContains(t, out, "job completed")
	if strings.Contains(out, `"msg"`) {
		t.Fatalf("expected formatted output, got raw JSON: %s", out)
	}

	out, _, err = runCLI(t, []string{"jobs", "log", jobID, "--raw"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs log --raw: %v", err)
	}
	requireContains(t, out, `"msg":"job completed"`)
}

func TestPrintJobLogFollowStopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.log")
	if err := os.WriteFile(path, []byte("one\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	if err := printJobLog(ctx, &buf, path, 10, true, func(s string) string { return s }); err != nil {
		t.Fatalf("printJobLog: %v", err)
	}
	if buf.String() != "one\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
