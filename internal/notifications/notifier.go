package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelforge/internal/config"
)

const userAgent = "reelforge/1.0"

// Event names a notification type.
type Event string

const (
	EventJobCompleted Event = "job_completed"
	EventJobFailed    Event = "job_failed"
	EventTest         Event = "test"
)

// JobSummary carries the fields rendered into job notifications.
type JobSummary struct {
	JobID     string
	VideoID   string
	Status    string
	Output    string
	URL       string
	ErrorKind string
	Error     string
	Duration  float64
	Elapsed   time.Duration
}

// Notifier publishes events. Implementations are safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, event Event, job JobSummary) error
}

// New returns an ntfy notifier, or a no-op when no topic is configured.
func New(cfg config.Notifications) Notifier {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return Noop{}
	}
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyNotifier{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		success:  cfg.NotifySuccess,
		failure:  cfg.NotifyFailure,
	}
}

// Noop discards every event.
type Noop struct{}

func (Noop) Notify(context.Context, Event, JobSummary) error { return nil }

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyNotifier struct {
	endpoint string
	client   *http.Client
	success  bool
	failure  bool
}

func (n *ntfyNotifier) Notify(ctx context.Context, event Event, job JobSummary) error {
	var msg message
	switch event {
	case EventJobCompleted:
		if !n.success {
			return nil
		}
		msg = completedMessage(job)
	case EventJobFailed:
		if !n.failure {
			return nil
		}
		msg = failedMessage(job)
	case EventTest:
		msg = message{
			title:    "reelforge - Test",
			body:     "Notification system test",
			tags:     []string{"reelforge", "test"},
			priority: "low",
		}
	default:
		return fmt.Errorf("unknown notification event %q", event)
	}
	return n.send(ctx, msg)
}

func completedMessage(job JobSummary) message {
	var b strings.Builder
	fmt.Fprintf(&b, "Rendered %s", job.VideoID)
	if job.Duration > 0 {
		fmt.Fprintf(&b, " (%.1fs)", job.Duration)
	}
	if job.URL != "" {
		fmt.Fprintf(&b, "\n%s", job.URL)
	} else if job.Output != "" {
		fmt.Fprintf(&b, "\n%s", job.Output)
	}
	if job.Elapsed > 0 {
		fmt.Fprintf(&b, "\nTook %s", job.Elapsed.Round(time.Second))
	}
	return message{
		title: "reelforge - Video Ready",
		body:  b.String(),
		tags:  []string{"reelforge", "completed"},
	}
}

func failedMessage(job JobSummary) message {
	var b strings.Builder
	fmt.Fprintf(&b, "Job for %s ended as %s", job.VideoID, job.Status)
	if job.ErrorKind != "" {
		fmt.Fprintf(&b, " (%s)", job.ErrorKind)
	}
	if job.Error != "" {
		fmt.Fprintf(&b, "\n%s", job.Error)
	}
	if job.JobID != "" {
		fmt.Fprintf(&b, "\nJob: %s", job.JobID)
	}
	priority := "high"
	if job.Status == "review" {
		priority = "default"
	}
	return message{
		title:    "reelforge - Job Failed",
		body:     b.String(),
		tags:     []string{"reelforge", "error", job.Status},
		priority: priority,
	}
}

func (n *ntfyNotifier) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
