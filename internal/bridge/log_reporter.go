package bridge

import (
	"log/slog"
	"sync"

	"plexbridge/internal/logging"
	"plexbridge/internal/players"
)

// LogReporter logs connectivity and status transitions. Repeated reports of
// an unchanged value are dropped.
type LogReporter struct {
	logger *slog.Logger

	mu       sync.Mutex
	online   *bool
	statuses map[string]string
}

// NewLogReporter returns a reporter writing to logger.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogReporter{
		logger:   logger.With(logging.String(logging.FieldComponent, "bridge")),
		statuses: make(map[string]string),
	}
}

func (l *LogReporter) ReportConnectivity(online bool, detail string) {
	l.mu.Lock()
	changed := l.online == nil || *l.online != online
	l.online = &online
	l.mu.Unlock()
	if !changed {
		return
	}
	if online {
		l.logger.Info("plex server reachable", logging.String(logging.FieldEventType, "server_online"))
		return
	}
	logging.WarnWithContext(l.logger, "plex server unreachable", "server_offline",
		logging.String("detail", detail),
		logging.String(logging.FieldErrorHint, "check server.host, server.port and network connectivity"),
		logging.String(logging.FieldImpact, "players are reported as stopped until the server responds"),
	)
}

func (l *LogReporter) ReportPlayerState(id string, p players.Projection) {
	l.mu.Lock()
	prev, seen := l.statuses[id]
	l.statuses[id] = p.Status
	l.mu.Unlock()
	if seen && prev == p.Status {
		return
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldPlayerID, id),
		logging.String(logging.FieldEventType, "player_status_changed"),
		logging.String("status", p.Status),
		logging.String("power", p.Power),
	}
	if p.Title != "" {
		attrs = append(attrs, logging.String("title", p.Title))
	}
	if prev != "" {
		attrs = append(attrs, logging.String("previous_status", prev))
	}
	l.logger.Info("player status", logging.Args(attrs...)...)
}

func (l *LogReporter) ReportAggregateCounts(total, active int) {
	l.logger.Debug("player counts", logging.Int("total", total), logging.Int("active", active))
}

func (l *LogReporter) ReportPlayerRemoved(id string) {
	l.mu.Lock()
	delete(l.statuses, id)
	l.mu.Unlock()
}
