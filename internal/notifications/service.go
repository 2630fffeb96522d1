package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"murmur/internal/batch"
	"murmur/internal/config"
)

const userAgent = "murmur/0.1"

// maxListedFailures caps how many failed inputs a completion message names.
const maxListedFailures = 5

// Service is the notification surface used by the CLI.
type Service interface {
	NotifyRunCompleted(ctx context.Context, summary batch.Summary) error
	NotifyRunFailed(ctx context.Context, summary batch.Summary, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed Service, or a no-op when
// notifications.ntfy_topic is empty.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary batch.Summary) error {
	total := len(summary.Files)
	completed := summary.Count(batch.StateCompleted)
	elapsed := runDuration(summary)

	data := payload{
		title:   "murmur - Batch Complete",
		message: fmt.Sprintf("Transcribed %d of %d in %s", completed, total, elapsed),
		tags:    []string{"murmur", "batch", "completed"},
	}
	if completed < total {
		data.title = "murmur - Batch Complete (with errors)"
		if failures := failedInputs(summary); len(failures) > 0 {
			data.message += "\nNot completed: " + strings.Join(failures, ", ")
		}
		data.tags = []string{"murmur", "batch", "warning"}
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, summary batch.Summary, err error) error {
	var builder strings.Builder
	builder.WriteString("Batch aborted")
	if total := len(summary.Files); total > 0 {
		fmt.Fprintf(&builder, " (%d files)", total)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "murmur - Error",
		message:  builder.String(),
		tags:     []string{"murmur", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "murmur - Test",
		message:  "Notification system test",
		tags:     []string{"murmur", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
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

func runDuration(summary batch.Summary) string {
	if summary.StartedAt.IsZero() || summary.FinishedAt.Before(summary.StartedAt) {
		return "0s"
	}
	return summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second).String()
}

func failedInputs(summary batch.Summary) []string {
	var names []string
	extra := 0
	for _, f := range summary.Files {
		if f.State == batch.StateCompleted {
			continue
		}
		if len(names) == maxListedFailures {
			extra++
			continue
		}
		names = append(names, fmt.Sprintf("%s (%s)", filepath.Base(f.Input), f.State))
	}
	if extra > 0 {
		names = append(names, fmt.Sprintf("%d more", extra))
	}
	return names
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, batch.Summary) error     { return nil }
func (noopService) NotifyRunFailed(context.Context, batch.Summary, error) error { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
