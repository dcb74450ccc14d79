package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"reelforge/internal/images"
	"reelforge/internal/jobs"
	"reelforge/internal/services"
	"reelforge/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if store.Path() != cfg.JobsDBPath() {
		t.Fatalf("unexpected db path %q", store.Path())
	}

	ctx := context.Background()
	music := "lofi"
	job, err := store.Create(ctx, jobs.NewJob{VideoID: "abc", Music: &music, CaptionStyle: "flash"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if job.ID == "" {
		t.Fatal("expected generated job id")
	}
	if job.Status != jobs.StatusQueued {
		t.Fatalf("expected queued, got %s", job.Status)
	}
	if job.MusicName() != "lofi" || job.CaptionStyle != "flash" {
		t.Fatalf("unexpected job: %#v", job)
	}
	if job.CreatedAt.IsZero() || job.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	// Reopen against the same database.
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	reopened := testsupport.MustOpenStore(t, cfg)
	fetched, err := reopened.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched == nil || fetched.VideoID != "abc" {
		t.Fatalf("unexpected fetched job: %#v", fetched)
	}
}

func TestCreateRequiresVideoID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, err := store.Create(context.Background(), jobs.NewJob{VideoID: "  "})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	job, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil job, got %#v", job)
	}
}

func TestLifecycleToCompleted(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job, err := store.Create(ctx, jobs.NewJob{ID: "job-1", VideoID: "vid"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if job.MusicName() != "" {
		t.Fatalf("expected no music, got %q", job.MusicName())
	}
	if err := store.MarkRunning(ctx, job.ID); err != nil {
		t.Fatalf("MarkRunning failed: %v", err)
	}
	if err := store.MarkRunning(ctx, job.ID); !errors.Is(err, jobs.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on second MarkRunning, got %v", err)
	}
	if err := store.MarkUploading(ctx, job.ID, "/reels/vid/output.mp4"); err != nil {
		t.Fatalf("MarkUploading failed: %v", err)
	}
	if err := store.Complete(ctx, job.ID, jobs.Completion{
		OutputPath:      "/reels/vid/output.mp4",
		PublicURL:       "https://storage.googleapis.com/bucket/videos/vid/output.mp4",
		DurationSeconds: 12.5,
	}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	got, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != jobs.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.PublicURL == "" || got.DurationSeconds != 12.5 {
		t.Fatalf("unexpected completion fields: %#v", got)
	}
	if got.StartedAt.IsZero() || got.FinishedAt.IsZero() {
		t.Fatal("expected start and finish timestamps")
	}
	if got.Elapsed() < 0 {
		t.Fatalf("negative elapsed %v", got.Elapsed())
	}
	if err := store.Complete(ctx, job.ID, jobs.Completion{}); !errors.Is(err, jobs.ErrInvalidTransition) {
		t.Fatalf("expected terminal job to reject Complete, got %v", err)
	}
}

func TestFailClassifiesStatus(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	cases := []struct {
		name       string
		err        error
		wantStatus jobs.Status
		wantKind   string
	}{
		{"count mismatch", &images.CountMismatchError{Images: 2, Sentences: 3}, jobs.StatusReview, "count_mismatch"},
		{"parse", services.Wrap(services.ErrParse, "transcript", "load", "bad json", nil), jobs.StatusReview, "parse"},
		{"compositor", services.Wrap(services.ErrCompositor, "compose", "ffmpeg", "exit 1", nil), jobs.StatusFailed, "compositor"},
		{"upload", services.Wrap(services.ErrUpload, "storage", "upload", "denied", nil), jobs.StatusFailed, "upload"},
		{"unclassified", fmt.Errorf("boom"), jobs.StatusFailed, "internal"},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job, err := store.Create(ctx, jobs.NewJob{ID: fmt.Sprintf("fail-%d", i), VideoID: "vid"})
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if err := store.MarkRunning(ctx, job.ID); err != nil {
				t.Fatalf("MarkRunning failed: %v", err)
			}
			status, err := store.Fail(ctx, job.ID, tc.err)
			if err != nil {
				t.Fatalf("Fail failed: %v", err)
			}
			if status != tc.wantStatus {
				t.Fatalf("status = %s, want %s", status, tc.wantStatus)
			}
			got, err := store.Get(ctx, job.ID)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got.Status != tc.wantStatus || got.ErrorKind != tc.wantKind {
				t.Fatalf("unexpected job: status=%s kind=%s", got.Status, got.ErrorKind)
			}
			if got.ErrorMessage != tc.err.Error() {
				t.Fatalf("error message = %q, want %q", got.ErrorMessage, tc.err.Error())
			}
		})
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		videoID := "a"
		if i%2 == 1 {
			videoID = "b"
		}
		if _, err := store.Create(ctx, jobs.NewJob{ID: fmt.Sprintf("job-%d", i), VideoID: videoID}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	if err := store.MarkRunning(ctx, "job-3"); err != nil {
		t.Fatalf("MarkRunning failed: %v", err)
	}

	all, err := store.List(ctx, jobs.ListFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 || all[0].ID != "job-3" || all[3].ID != "job-0" {
		t.Fatalf("expected newest first, got %v", ids(all))
	}

	limited, err := store.List(ctx, jobs.ListFilter{Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(limited))
	}

	byVideo, err := store.List(ctx, jobs.ListFilter{VideoID: "b"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byVideo) != 2 {
		t.Fatalf("expected 2 jobs for video b, got %v", ids(byVideo))
	}

	running, err := store.List(ctx, jobs.ListFilter{Statuses: []jobs.Status{jobs.StatusRunning}})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(running) != 1 || running[0].ID != "job-3" {
		t.Fatalf("expected only job-3 running, got %v", ids(running))
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[jobs.StatusQueued] != 3 || stats[jobs.StatusRunning] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestFailInterruptedAndPrune(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for _, id := range []string{"queued", "running", "done"} {
		if _, err := store.Create(ctx, jobs.NewJob{ID: id, VideoID: "vid"}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	for _, id := range []string{"running", "done"} {
		if err := store.MarkRunning(ctx, id); err != nil {
			t.Fatalf("MarkRunning failed: %v", err)
		}
	}
	if err := store.Complete(ctx, "done", jobs.Completion{OutputPath: "out.mp4"}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	n, err := store.FailInterrupted(ctx)
	if err != nil {
		t.Fatalf("FailInterrupted failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 interrupted jobs, got %d", n)
	}
	got, err := store.Get(ctx, "running")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != jobs.StatusFailed || got.ErrorKind != "interrupted" || got.ErrorMessage != jobs.InterruptedReason {
		t.Fatalf("unexpected interrupted job: %#v", got)
	}

	pruned, err := store.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if pruned != 3 {
		t.Fatalf("expected 3 pruned jobs, got %d", pruned)
	}
}

func TestStatusHelpers(t *testing.T) {
	for _, status := range jobs.Statuses() {
		parsed, ok := jobs.ParseStatus(string(status))
		if !ok || parsed != status {
			t.Fatalf("ParseStatus(%q) = %q, %v", status, parsed, ok)
		}
		if status.Terminal() == status.Active() {
			t.Fatalf("status %s must be exactly one of terminal or active", status)
		}
	}
	if _, ok := jobs.ParseStatus("bogus"); ok {
		t.Fatal("expected bogus status to be rejected")
	}
}

func ids(list []*jobs.Job) []string {
	out := make([]string, len(list))
	for i, job := range list {
		out[i] = job.ID
	}
	return out
}
