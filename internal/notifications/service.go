package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tuneshelf/internal/config"
)

const userAgent = "tuneshelf/0.1.0"

// Event identifies a notification-worthy transition.
type Event string

const (
	EventReviewNeeded   Event = "review_needed"
	EventItemConfirmed  Event = "item_confirmed"
	EventItemFailed     Event = "item_failed"
	EventLibraryScanned Event = "library_scanned"
	EventTest           Event = "test"
)

// Payload carries event-specific values.
type Payload map[string]any

// Service publishes notifications.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed notifier. When no topic is configured a
// noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
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
		enabled: map[Event]bool{
			EventReviewNeeded:   cfg.Notifications.Review,
			EventItemConfirmed:  cfg.Notifications.Library,
			EventLibraryScanned: cfg.Notifications.Library,
			EventItemFailed:     cfg.Notifications.Errors,
			EventTest:           true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventReviewNeeded:
		body := fmt.Sprintf("🎵 Ready for review: %s", payloadString(payload, "label"))
		if status := payloadString(payload, "status"); status == "needs_manual" {
			body += "\nTitle or artist could not be inferred"
		}
		return message{
			title: "tuneshelf - Review Needed",
			body:  body,
			tags:  []string{"tuneshelf", "review"},
		}, true
	case EventItemConfirmed:
		body := fmt.Sprintf("✅ Added: %s - %s", payloadString(payload, "artist"), payloadString(payload, "title"))
		if path := payloadString(payload, "libraryPath"); path != "" {
			body += "\nFile: " + path
		}
		return message{
			title: "tuneshelf - Library Updated",
			body:  body,
			tags:  []string{"tuneshelf", "library", "added"},
		}, true
	case EventItemFailed:
		var b strings.Builder
		b.WriteString("❌ Error")
		if label := payloadString(payload, "label"); label != "" {
			b.WriteString(" with ")
			b.WriteString(label)
		}
		b.WriteString(": ")
		if msg := payloadString(payload, "error"); msg != "" {
			b.WriteString(msg)
		} else {
			b.WriteString("unknown")
		}
		return message{
			title:    "tuneshelf - Error",
			body:     b.String(),
			tags:     []string{"tuneshelf", "error", "alert"},
			priority: "high",
		}, true
	case EventLibraryScanned:
		body := fmt.Sprintf("📚 Library scan complete: %s files indexed", payloadString(payload, "processed"))
		if failed := payloadString(payload, "failed"); failed != "" && failed != "0" {
			body += fmt.Sprintf(", %s failed", failed)
		}
		return message{
			title: "tuneshelf - Library Scanned",
			body:  body,
			tags:  []string{"tuneshelf", "library", "scan"},
		}, true
	case EventTest:
		return message{
			title:    "tuneshelf - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"tuneshelf", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func payloadString(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
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

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
