package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"plexbridge/internal/logging"
	"plexbridge/internal/players"
)

const publishTimeout = 30 * time.Second

// Reporter turns bridge reports into notification events. Connectivity is
// published on transitions only; the first report after startup is only
// published when the server is offline. Playback is published when a player
// enters Playing.
type Reporter struct {
	svc    Service
	server string
	logger *slog.Logger

	mu       sync.Mutex
	online   *bool
	statuses map[string]string
	wg       sync.WaitGroup
}

// NewReporter wraps svc. server labels connectivity messages.
func NewReporter(svc Service, server string, logger *slog.Logger) *Reporter {
	if svc == nil {
		svc = noopService{}
	}
	return &Reporter{
		svc:      svc,
		server:   server,
		logger:   logging.NewComponentLogger(logger, "notifications"),
		statuses: make(map[string]string),
	}
}

func (r *Reporter) ReportConnectivity(online bool, detail string) {
	r.mu.Lock()
	first := r.online == nil
	changed := first || *r.online != online
	r.online = &online
	r.mu.Unlock()
	if !changed || (first && online) {
		return
	}
	if online {
		r.publish(EventServerOnline, Payload{"server": r.server})
		return
	}
	r.publish(EventServerOffline, Payload{"server": r.server, "detail": detail})
}

func (r *Reporter) ReportPlayerState(id string, p players.Projection) {
	playing := players.StatusPlaying.String()
	r.mu.Lock()
	prev := r.statuses[id]
	r.statuses[id] = p.Status
	r.mu.Unlock()
	if p.Status != playing || prev == playing {
		return
	}
	player := p.Device
	if player == "" {
		player = id
	}
	r.publish(EventPlaybackStarted, Payload{
		"player":           player,
		"title":            p.Title,
		"grandparentTitle": p.GrandparentTitle,
		"mediaType":        p.Type,
	})
}

func (r *Reporter) ReportAggregateCounts(int, int) {}

func (r *Reporter) ReportPlayerRemoved(id string) {
	r.mu.Lock()
	delete(r.statuses, id)
	r.mu.Unlock()
}

// Wait blocks until in-flight publishes finish.
func (r *Reporter) Wait() {
	r.wg.Wait()
}

func (r *Reporter) publish(event Event, payload Payload) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := r.svc.Publish(ctx, event, payload); err != nil {
			logging.WarnWithContext(r.logger, "notification failed", "notification_failed",
				logging.String("event", string(event)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
				logging.String(logging.FieldImpact, "one push notification was not delivered"),
			)
		}
	}()
}
