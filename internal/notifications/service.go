package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"verdandi/internal/config"
)

const userAgent = "Verdandi/0.1.0"

// Service defines the notification surface exposed to the pipeline. All
// implementations are fail-soft from the caller's perspective: the runner
// logs a returned error and moves on.
type Service interface {
	NotifyReviewNeeded(ctx context.Context, experimentID int64, title string) error
	NotifyPipelineComplete(ctx context.Context, experimentID int64, title string) error
	NotifyNoGo(ctx context.Context, experimentID int64, title string, score, threshold int) error
	NotifyDiscoveryComplete(ctx context.Context, created int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		review:   cfg.Notifications.Review,
		pipeline: cfg.Notifications.Pipeline,
		discover: cfg.Notifications.Discovery,
		errors:   cfg.Notifications.Errors,
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
	review   bool
	pipeline bool
	discover bool
	errors   bool
}

func (n *ntfyService) NotifyReviewNeeded(ctx context.Context, experimentID int64, title string) error {
	if !n.review {
		return nil
	}
	data := payload{
		title:    "Verdandi - Review Needed",
		message:  fmt.Sprintf("Experiment #%d awaits your review: %s", experimentID, strings.TrimSpace(title)),
		tags:     []string{"verdandi", "review", "pending"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPipelineComplete(ctx context.Context, experimentID int64, title string) error {
	if !n.pipeline {
		return nil
	}
	data := payload{
		title:   "Verdandi - Pipeline Complete",
		message: fmt.Sprintf("Experiment #%d finished all stages: %s", experimentID, strings.TrimSpace(title)),
		tags:    []string{"verdandi", "pipeline", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyNoGo(ctx context.Context, experimentID int64, title string, score, threshold int) error {
	if !n.pipeline {
		return nil
	}
	data := payload{
		title: "Verdandi - No-Go",
		message: fmt.Sprintf("Experiment #%d scored %d (threshold %d), stopping: %s",
			experimentID, score, threshold, strings.TrimSpace(title)),
		tags: []string{"verdandi", "pipeline", "nogo"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDiscoveryComplete(ctx context.Context, created int, duration time.Duration) error {
	if !n.discover {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	data := payload{
		title:   "Verdandi - Discovery Complete",
		message: fmt.Sprintf("Discovery batch created %d experiments in %s", created, duration),
		tags:    []string{"verdandi", "discovery", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Verdandi - Error",
		message:  builder.String(),
		tags:     []string{"verdandi", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Verdandi - Test",
		message:  "Notification system test",
		tags:     []string{"verdandi", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
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

type noopService struct{}

func (noopService) NotifyReviewNeeded(context.Context, int64, string) error          { return nil }
func (noopService) NotifyPipelineComplete(context.Context, int64, string) error      { return nil }
func (noopService) NotifyNoGo(context.Context, int64, string, int, int) error        { return nil }
func (noopService) NotifyDiscoveryComplete(context.Context, int, time.Duration) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                 { return nil }
func (noopService) TestNotification(context.Context) error                           { return nil }
