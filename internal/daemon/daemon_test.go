package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"reelforge/internal/api"
	"reelforge/internal/compose"
	"reelforge/internal/config"
	"reelforge/internal/jobs"
	"reelforge/internal/logging"
	"reelforge/internal/music"
	"reelforge/internal/testsupport"
	"reelforge/internal/workflow"
)

type harness struct {
	cfg    *config.Config
	store  *jobs.Store
	daemon *Daemon
	runs   *atomic.Int32
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithStubbedBinaries()}, opts...)...)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)

	catalog := music.NewCatalog(cfg.Music.Dir, music.DefaultTracks())
	composeOpts, err := compose.OptionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("OptionsFromConfig: %v", err)
	}
	composer := compose.New(composeOpts, catalog, logging.NewNop())
	runs := &atomic.Int32{}
	composer.WithRunner(compose.RunnerFunc(func(_ context.Context, _ string, args []string) error {
		runs.Add(1)
		return os.WriteFile(args[len(args)-1], []byte("mp4"), 0o644)
	}))

	runner := workflow.NewRunner(cfg, store, composer, nil, logging.NewNop())
	d, err := New(cfg, store, runner, catalog, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Stop() })
	return &harness{cfg: cfg, store: store, daemon: d, runs: runs}
}

func (h *harness) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.daemon.api.server.Handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestDaemonStartStop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.daemon.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := h.daemon.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.LockFilePath != h.cfg.LockPath() || status.JobsDBPath != h.cfg.JobsDBPath() {
		t.Fatalf("unexpected paths: %+v", status)
	}
	if h.daemon.Addr() == "" {
		t.Fatal("expected api listener address")
	}
	if err := h.daemon.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	h.daemon.Stop()
	if h.daemon.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
	if h.daemon.Addr() != "" {
		t.Fatal("expected listener to be closed")
	}
}

func TestDaemonStartRecoversInterruptedState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	job, err := h.store.Create(ctx, jobs.NewJob{VideoID: "abc"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := h.store.MarkRunning(ctx, job.ID); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	orphan := compose.WorkspacePath(h.cfg.Paths.WorkDir, job.ID)
	testsupport.WriteFile(t, filepath.Join(orphan, "captions.srt"), 10)

	if err := h.daemon.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	got, err := h.store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != jobs.StatusFailed || got.ErrorKind != "interrupted" {
		t.Fatalf("expected interrupted job to be failed, got %s/%s", got.Status, got.ErrorKind)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Fatal("expected orphaned workspace to be removed")
	}
}

func TestCreateReelRendersAndRecordsJob(t *testing.T) {
	h := newHarness(t)
	testsupport.WriteVideoFixture(t, h.cfg.Paths.ReelsDir, "abc", testsupport.VideoFixture{
		Sentences: []string{"hello there world", "second sentence here"},
	})

	w := h.do(t, http.MethodPost, "/api/reels", api.ReelRequest{VideoID: "abc"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[api.ReelResponse](t, w)
	want := filepath.Join(h.cfg.Paths.ReelsDir, "abc", "output.mp4")
	if resp.OutputFile != want {
		t.Fatalf("output_file = %q, want %q", resp.OutputFile, want)
	}
	if resp.URL != "" || resp.ErrorKind != "" || resp.JobID == "" {
		t.Fatalf("unexpected response: %#v", resp)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected rendered output: %v", err)
	}
	if h.runs.Load() != 1 {
		t.Fatalf("expected one compositor run, got %d", h.runs.Load())
	}

	w = h.do(t, http.MethodGet, "/api/jobs/"+resp.JobID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	job := decode[api.JobResponse](t, w).Job
	if job.Status != "completed" || job.OutputFile != want || job.DurationSeconds != 6 {
		t.Fatalf("unexpected job: %#v", job)
	}

	w = h.do(t, http.MethodGet, "/api/jobs/"+resp.JobID+"/log?lines=500", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for job log, got %d: %s", w.Code, w.Body.String())
	}
	jobLog := decode[api.JobLogResponse](t, w)
	if jobLog.JobID != resp.JobID || jobLog.Offset == 0 {
		t.Fatalf("unexpected job log response: %#v", jobLog)
	}
	if !strings.Contains(strings.Join(jobLog.Lines, "\n"), "job completed") {
		t.Fatalf("expected completion line in job log: %v", jobLog.Lines)
	}
}

func TestJobLogEndpoint(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	job, err := h.store.Create(ctx, jobs.NewJob{VideoID: "abc", LogPath: filepath.Join(h.cfg.Paths.LogDir, "jobs", "manual.log")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	testsupport.WriteFile(t, job.LogPath, 0)
	if err := os.WriteFile(job.LogPath, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	w := h.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/log?lines=2", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	first := decode[api.JobLogResponse](t, w)
	if len(first.Lines) != 2 || first.Lines[0] != "two" || first.Lines[1] != "three" {
		t.Fatalf("unexpected tail: %#v", first)
	}

	w = h.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/log?offset="+strconv.FormatInt(first.Offset, 10), nil, nil)
	resumed := decode[api.JobLogResponse](t, w)
	if resumed.Lines == nil || len(resumed.Lines) != 0 || resumed.Offset != first.Offset {
		t.Fatalf("expected no new lines, got %#v", resumed)
	}

	for path, code := range map[string]int{
		"/api/jobs/" + job.ID + "/log?lines=-1":  http.StatusBadRequest,
		"/api/jobs/" + job.ID + "/log?offset=x":  http.StatusBadRequest,
		"/api/jobs/" + job.ID + "/log?wait=soon": http.StatusBadRequest,
		"/api/jobs/missing/log":                  http.StatusNotFound,
	} {
		if w := h.do(t, http.MethodGet, path, nil, nil); w.Code != code {
			t.Errorf("GET %s = %d, want %d", path, w.Code, code)
		}
	}
}

func TestCreateReelFailures(t *testing.T) {
	cases := []struct {
		name     string
		body     any
		fixture  *testsupport.VideoFixture
		wantCode int
		wantKind string
		wantRuns int32
	}{
		{
			name:     "missing video id",
			body:     api.ReelRequest{},
			wantCode: http.StatusBadRequest,
			wantKind: "validation",
		},
		{
			name:     "malformed body",
			body:     "not an object",
			wantCode: http.StatusBadRequest,
			wantKind: "validation",
		},
		{
			name:     "unknown caption style",
			body:     api.ReelRequest{VideoID: "abc", CaptionStyle: "neon"},
			wantCode: http.StatusBadRequest,
			wantKind: "validation",
		},
		{
			name:     "count mismatch",
			body:     api.ReelRequest{VideoID: "abc"},
			fixture:  &testsupport.VideoFixture{Sentences: []string{"one two", "three four", "five six", "seven"}, Images: 3},
			wantCode: http.StatusUnprocessableEntity,
			wantKind: "count_mismatch",
		},
		{
			name:     "unknown music",
			body:     api.ReelRequest{VideoID: "abc", Music: ptr("polka")},
			fixture:  &testsupport.VideoFixture{Sentences: []string{"one two"}},
			wantCode: http.StatusBadRequest,
			wantKind: "configuration",
		},
		{
			name:     "empty music",
			body:     api.ReelRequest{VideoID: "abc", Music: ptr("")},
			fixture:  &testsupport.VideoFixture{Sentences: []string{"one two"}},
			wantCode: http.StatusBadRequest,
			wantKind: "configuration",
		},
		{
			name:     "missing job folder",
			body:     api.ReelRequest{VideoID: "ghost"},
			wantCode: http.StatusUnprocessableEntity,
			wantKind: "parse",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			if tc.fixture != nil {
				testsupport.WriteVideoFixture(t, h.cfg.Paths.ReelsDir, "abc", *tc.fixture)
			}
			w := h.do(t, http.MethodPost, "/api/reels", tc.body, nil)
			if w.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d: %s", w.Code, tc.wantCode, w.Body.String())
			}
			resp := decode[api.ReelResponse](t, w)
			if resp.ErrorKind != tc.wantKind {
				t.Fatalf("error_kind = %q, want %q (%s)", resp.ErrorKind, tc.wantKind, resp.Message)
			}
			if resp.OutputFile != "" {
				t.Fatalf("expected empty output_file, got %q", resp.OutputFile)
			}
			if h.runs.Load() != tc.wantRuns {
				t.Fatalf("compositor runs = %d, want %d", h.runs.Load(), tc.wantRuns)
			}
		})
	}
}

func TestCreateReelRateLimited(t *testing.T) {
	h := newHarness(t)
	h.daemon.api.limiter = admissionLimiter(config.Workers{AdmissionsPerMinute: 1, AdmissionBurst: 1})

	first := h.do(t, http.MethodPost, "/api/reels", api.ReelRequest{}, nil)
	if first.Code == http.StatusTooManyRequests {
		t.Fatal("first request should be admitted")
	}
	second := h.do(t, http.MethodPost, "/api/reels", api.ReelRequest{}, nil)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if resp := decode[api.ReelResponse](t, second); resp.ErrorKind != "rate_limited" {
		t.Fatalf("unexpected error kind %q", resp.ErrorKind)
	}
}

func TestJobsListFilters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if _, err := h.store.Create(ctx, jobs.NewJob{ID: id, VideoID: "vid-" + id}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := h.store.MarkRunning(ctx, "b"); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}

	w := h.do(t, http.MethodGet, "/api/jobs", nil, nil)
	if got := decode[api.JobListResponse](t, w).Jobs; len(got) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(got))
	}
	w = h.do(t, http.MethodGet, "/api/jobs?status=running", nil, nil)
	if got := decode[api.JobListResponse](t, w).Jobs; len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("unexpected running jobs: %#v", got)
	}
	w = h.do(t, http.MethodGet, "/api/jobs?video_id=vid-c", nil, nil)
	if got := decode[api.JobListResponse](t, w).Jobs; len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("unexpected jobs for vid-c: %#v", got)
	}
	if w = h.do(t, http.MethodGet, "/api/jobs?status=bogus", nil, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bogus status, got %d", w.Code)
	}
	if w = h.do(t, http.MethodGet, "/api/jobs?limit=-1", nil, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative limit, got %d", w.Code)
	}
	if w = h.do(t, http.MethodGet, "/api/jobs/missing", nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing job, got %d", w.Code)
	}
	if w = h.do(t, http.MethodDelete, "/api/jobs", nil, nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for DELETE, got %d", w.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/api/status", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	status := decode[api.DaemonStatus](t, w)
	if status.Pool.Size != h.cfg.Workers.MaxConcurrent {
		t.Fatalf("unexpected pool size %d", status.Pool.Size)
	}
	if len(status.MusicTracks) != len(music.DefaultTracks()) {
		t.Fatalf("unexpected music tracks %v", status.MusicTracks)
	}
	if len(status.Dependencies) != 1 || !status.Dependencies[0].Available {
		t.Fatalf("expected stubbed ffmpeg to be available: %#v", status.Dependencies)
	}
}

func TestAuthMiddleware(t *testing.T) {
	h := newHarness(t, testsupport.WithAPIToken("secret"))

	if w := h.do(t, http.MethodGet, "/api/jobs", nil, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	bad := http.Header{"Authorization": {"Bearer wrong"}}
	if w := h.do(t, http.MethodGet, "/api/jobs", nil, bad); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	basic := http.Header{"Authorization": {"Basic secret"}}
	if w := h.do(t, http.MethodGet, "/api/jobs", nil, basic); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with non-bearer scheme, got %d", w.Code)
	}
	good := http.Header{"Authorization": {"Bearer secret"}}
	w := h.do(t, http.MethodGet, "/api/jobs", nil, good)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("unexpected content type %q", w.Header().Get("Content-Type"))
	}
}

func ptr(s string) *string { return &s }
