package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"plexbridge/internal/config"
)

const userAgent = "plexbridge/0.1.0"

// Service publishes notification events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
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
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		connectivity: cfg.Notifications.Connectivity,
		playback:     cfg.Notifications.Playback,
		dedupWindow:  time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second,
		recent:       make(map[string]time.Time),
		now:          time.Now,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
	dedupKey string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	connectivity bool
	playback     bool
	dedupWindow  time.Duration
	now          func() time.Time

	mu     sync.Mutex
	recent map[string]time.Time
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil {
		return nil
	}
	if !n.enabled(event) {
		return nil
	}
	msg, ok := buildMessage(event, payload)
	if !ok {
		return nil
	}
	if n.duplicate(event, msg.dedupKey) {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventServerOffline, EventServerOnline:
		return n.connectivity
	case EventPlaybackStarted:
		return n.playback
	default:
		return true
	}
}

// duplicate reports whether the same event and key were sent inside the
// dedup window, and records the send otherwise.
func (n *ntfyService) duplicate(event Event, key string) bool {
	if n.dedupWindow <= 0 || event == EventTest {
		return false
	}
	full := string(event) + "|" + key
	now := n.now()
	n.mu.Lock()
	defer n.mu.Unlock()
	for k, at := range n.recent {
		if now.Sub(at) >= n.dedupWindow {
			delete(n.recent, k)
		}
	}
	if _, seen := n.recent[full]; seen {
		return true
	}
	n.recent[full] = now
	return false
}

func buildMessage(event Event, payload Payload) (message, bool) {
	switch event {
	case EventServerOffline:
		body := "⚠️ Plex server unreachable"
		if detail := strings.TrimSpace(payload.str("detail")); detail != "" {
			body += ": " + detail
		}
		return message{
			title:    "Plexbridge - Server Unreachable",
			body:     body,
			tags:     []string{"plexbridge", "server", "offline"},
			priority: "high",
			dedupKey: payload.str("server"),
		}, true
	case EventServerOnline:
		return message{
			title:    "Plexbridge - Server Online",
			body:     "✅ Plex server reachable again",
			tags:     []string{"plexbridge", "server", "online"},
			dedupKey: payload.str("server"),
		}, true
	case EventPlaybackStarted:
		title := strings.TrimSpace(payload.str("title"))
		if show := strings.TrimSpace(payload.str("grandparentTitle")); show != "" {
			title = show + " - " + title
		}
		if title == "" {
			title = "unknown media"
		}
		player := strings.TrimSpace(payload.str("player"))
		mediaType := strings.TrimSpace(payload.str("mediaType"))
		if mediaType == "" {
			mediaType = "media"
		}
		return message{
			title:    "Plexbridge - Now Playing",
			body:     fmt.Sprintf("▶️ %s: %s", player, title),
			tags:     []string{"plexbridge", "playback", mediaType},
			dedupKey: player + "|" + title,
		}, true
	case EventTest:
		return message{
			title:    "Plexbridge - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"plexbridge", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
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

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
