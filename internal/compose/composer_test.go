package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"reelforge/internal/captions"
	"reelforge/internal/images"
	"reelforge/internal/logging"
	"reelforge/internal/music"
	"reelforge/internal/services"
)

const fixtureTranscript = `{
  "sentences": [
    {"start": 0.0, "end": 1.5, "text": "Hello there."},
    {"start": 1.5, "end": 4.0, "text": "General Kenobi."}
  ],
  "words": [
    {"start": 0.0, "end": 0.6, "word": "Hello"},
    {"start": 0.6, "end": 1.5, "word": "there."},
    {"start": 1.5, "end": 2.5, "word": "General"},
    {"start": 2.5, "end": 4.0, "word": "Kenobi."}
  ]
}`

type fixture struct {
	reels string
	work  string
	music string
}

func newFixture(t *testing.T, videoID string, imageCount int) fixture {
	t.Helper()
	base := t.TempDir()
	f := fixture{
		reels: filepath.Join(base, "reels"),
		work:  filepath.Join(base, "work"),
		music: filepath.Join(base, "music"),
	}
	dir := filepath.Join(f.reels, videoID)
	write := func(rel, content string) {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	write(TranscriptFile, fixtureTranscript)
	write(NarrationFile, "mp3")
	for i := imageCount; i >= 1; i-- {
		write(fmt.Sprintf("images/image_%d.png", i), "png")
	}
	return f
}

func (f fixture) composer(style captions.Style) *Composer {
	return New(Options{
		ReelsDir:  f.reels,
		WorkDir:   f.work,
		Overwrite: true,
		Style:     style,
		MusicGain: 0.2,
	}, music.NewCatalog(f.music, music.DefaultTracks()), logging.NewNop())
}

type recordingRunner struct {
	mu    sync.Mutex
	calls [][]string
	fail  error
	// seen records the workspace contents at run time.
	seen []string
}

func (r *recordingRunner) Run(_ context.Context, _ string, args []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, args)
	out := args[len(args)-1]
	entries, _ := os.ReadDir(filepath.Dir(out))
	for _, e := range entries {
		r.seen = append(r.seen, e.Name())
	}
	if r.fail != nil {
		_ = os.WriteFile(out, []byte("partial"), 0o644)
		return r.fail
	}
	return os.WriteFile(out, []byte("video"), 0o644)
}

func strPtr(s string) *string { return &s }

func TestComposeWritesOutputAndReleasesWorkspace(t *testing.T) {
	f := newFixture(t, "vid1", 2)
	runner := &recordingRunner{}
	c := f.composer(captions.StyleKaraoke)
	c.WithRunner(runner)

	res, err := c.Compose(context.Background(), Job{ID: "job-a", VideoID: "vid1", Music: strPtr("lofi")})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if res.OutputPath != filepath.Join(f.reels, "vid1", OutputFile) {
		t.Fatalf("unexpected output path %q", res.OutputPath)
	}
	if got, _ := os.ReadFile(res.OutputPath); string(got) != "video" {
		t.Fatalf("expected rendered output, got %q", got)
	}
	if res.Images != 2 || res.Duration != 4 || res.Style != captions.StyleKaraoke {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Music != filepath.Join(f.music, "lofi.mp3") {
		t.Fatalf("unexpected music path %q", res.Music)
	}
	if len(runner.seen) != 1 || runner.seen[0] != "captions.ass" {
		t.Fatalf("expected karaoke artifact in workspace during run, saw %v", runner.seen)
	}
	if _, err := os.Stat(WorkspacePath(f.work, "job-a")); !os.IsNotExist(err) {
		t.Fatalf("expected workspace removed, stat err=%v", err)
	}
	args := strings.Join(runner.calls[0], " ")
	if !strings.Contains(args, "subtitles=filename=") || !strings.Contains(args, "-i "+res.Music) {
		t.Fatalf("unexpected args %s", args)
	}
}

func TestComposeArgsDeterministicAcrossRuns(t *testing.T) {
	f := newFixture(t, "vid1", 2)
	runner := &recordingRunner{}
	c := f.composer(captions.StyleFlash)
	c.WithRunner(runner)

	for _, id := range []string{"run-1", "run-2"} {
		if _, err := c.Compose(context.Background(), Job{ID: id, VideoID: "vid1"}); err != nil {
			t.Fatalf("Compose %s: %v", id, err)
		}
	}
	normalize := func(args []string, id string) []string {
		out := make([]string, len(args))
		for i, a := range args {
			out[i] = strings.ReplaceAll(a, WorkspacePath(f.work, id), "<ws>")
		}
		return out
	}
	first := normalize(runner.calls[0], "run-1")
	second := normalize(runner.calls[1], "run-2")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("args differ between runs:\n%q\n%q", first, second)
	}
}

func TestComposeRejectsBadMusicBeforeRunning(t *testing.T) {
	for _, name := range []string{"", "polka"} {
		t.Run(fmt.Sprintf("music=%q", name), func(t *testing.T) {
			f := newFixture(t, "vid1", 2)
			runner := &recordingRunner{}
			c := f.composer(captions.StyleFlash)
			c.WithRunner(runner)

			_, err := c.Compose(context.Background(), Job{VideoID: "vid1", Music: strPtr(name)})
			var cerr *music.ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected music ConfigError, got %v", err)
			}
			if len(runner.calls) != 0 {
				t.Fatal("runner must not be invoked")
			}
			if _, statErr := os.Stat(f.work); !os.IsNotExist(statErr) {
				t.Fatal("no workspace should be created")
			}
		})
	}
}

func TestAdmitChecksRequestWithoutJobFolder(t *testing.T) {
	f := newFixture(t, "vid1", 2)
	c := f.composer(captions.StyleFlash)

	if err := c.Admit(Job{VideoID: "vid1", Music: strPtr("lofi")}); err != nil {
		t.Fatalf("Admit rejected a valid request: %v", err)
	}
	if err := c.Admit(Job{VideoID: "vid1"}); err != nil {
		t.Fatalf("Admit rejected a request without music: %v", err)
	}
	var cerr *music.ConfigError
	if err := c.Admit(Job{VideoID: "vid1", Music: strPtr("polka")}); !errors.As(err, &cerr) {
		t.Fatalf("expected music ConfigError, got %v", err)
	}
	if err := c.Admit(Job{VideoID: "../escape"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestComposeCountMismatch(t *testing.T) {
	f := newFixture(t, "vid1", 3)
	runner := &recordingRunner{}
	c := f.composer(captions.StyleFlash)
	c.WithRunner(runner)

	_, err := c.Compose(context.Background(), Job{VideoID: "vid1"})
	var mismatch *images.CountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected CountMismatchError, got %v", err)
	}
	if mismatch.Images != 3 || mismatch.Sentences != 2 {
		t.Fatalf("unexpected counts %+v", mismatch)
	}
	if services.Kind(err) != "count_mismatch" {
		t.Fatalf("unexpected kind %q", services.Kind(err))
	}
	if len(runner.calls) != 0 {
		t.Fatal("runner must not be invoked")
	}
}

func TestComposeFailureLeavesNoOutput(t *testing.T) {
	f := newFixture(t, "vid1", 2)
	runner := &recordingRunner{fail: &CompositorError{Binary: "ffmpeg", ExitCode: 1, Stderr: "frame=1\nInvalid argument"}}
	c := f.composer(captions.StyleFlash)
	c.WithRunner(runner)

	_, err := c.Compose(context.Background(), Job{ID: "job-f", VideoID: "vid1"})
	var cerr *CompositorError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected CompositorError, got %v", err)
	}
	if !errors.Is(err, services.ErrCompositor) {
		t.Fatal("expected compositor marker")
	}
	if !strings.Contains(err.Error(), "Invalid argument") {
		t.Fatalf("expected stderr tail in error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(f.reels, "vid1", OutputFile)); !os.IsNotExist(statErr) {
		t.Fatal("failed job must not leave an output file")
	}
	if _, statErr := os.Stat(WorkspacePath(f.work, "job-f")); !os.IsNotExist(statErr) {
		t.Fatal("workspace must be released on failure")
	}
}

func TestComposeWrapsPlainRunnerErrors(t *testing.T) {
	f := newFixture(t, "vid1", 2)
	c := f.composer(captions.StyleFlash)
	c.WithRunner(RunnerFunc(func(context.Context, string, []string) error {
		return errors.New("boom")
	}))

	_, err := c.Compose(context.Background(), Job{VideoID: "vid1"})
	if services.Kind(err) != "compositor" {
		t.Fatalf("expected compositor kind, got %q (%v)", services.Kind(err), err)
	}
}

func TestComposeSidecarCopy(t *testing.T) {
	f := newFixture(t, "vid1", 2)
	c := New(Options{ReelsDir: f.reels, WorkDir: f.work, Overwrite: true, Style: captions.StylePlain, Sidecar: true}, nil, nil)
	c.WithRunner(&recordingRunner{})

	res, err := c.Compose(context.Background(), Job{VideoID: "vid1"})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if res.SidecarPath != filepath.Join(f.reels, "vid1", "captions.srt") {
		t.Fatalf("unexpected sidecar %q", res.SidecarPath)
	}
	data, err := os.ReadFile(res.SidecarPath)
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	if !strings.HasPrefix(string(data), "1\n00:00:00,000 --> 00:00:00,600\nHello\n") {
		t.Fatalf("unexpected sidecar content %q", data)
	}
}

func TestComposeRespectsOverwriteDisabled(t *testing.T) {
	f := newFixture(t, "vid1", 2)
	out := filepath.Join(f.reels, "vid1", OutputFile)
	if err := os.WriteFile(out, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}
	runner := &recordingRunner{}
	c := New(Options{ReelsDir: f.reels, WorkDir: f.work}, nil, nil)
	c.WithRunner(runner)

	if _, err := c.Compose(context.Background(), Job{VideoID: "vid1"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatal("runner must not be invoked")
	}
}

func TestDryRunCreatesNothing(t *testing.T) {
	f := newFixture(t, "vid1", 2)
	c := f.composer(captions.StyleKaraoke)

	prep, plan, err := c.DryRun(Job{ID: "dry", VideoID: "vid1"})
	if err != nil {
		t.Fatalf("DryRun: %v", err)
	}
	if len(prep.Slots) != 2 || prep.Slots[0].Duration != 1.5 || prep.Slots[1].Duration != 2.5 {
		t.Fatalf("unexpected slots %+v", prep.Slots)
	}
	if !strings.Contains(plan.Graph(), filepath.Join(WorkspacePath(f.work, "dry"), "captions.ass")) {
		t.Fatalf("expected artifact path in graph, got %s", plan.Graph())
	}
	if _, err := os.Stat(f.work); !os.IsNotExist(err) {
		t.Fatal("dry run must not create the work dir")
	}
}

func TestLayoutRejectsTraversal(t *testing.T) {
	for _, id := range []string{"", "..", "a/b", `a\b`} {
		if _, err := NewLayout("/reels", id); !errors.Is(err, services.ErrValidation) {
			t.Errorf("NewLayout(%q) = %v, want validation error", id, err)
		}
	}
}

func TestWorkspaceLifecycle(t *testing.T) {
	root := t.TempDir()
	ws, err := NewWorkspace(root, "abc")
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	if ws.Dir != filepath.Join(root, "job-abc") {
		t.Fatalf("unexpected dir %q", ws.Dir)
	}
	if _, err := NewWorkspace(root, "abc"); err == nil {
		t.Fatal("expected error when workspace already exists")
	}
	if err := os.WriteFile(ws.Path("captions.srt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ws.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(ws.Dir); !os.IsNotExist(err) {
		t.Fatal("expected workspace removed")
	}
}
