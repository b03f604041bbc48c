package bridge

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"plexbridge/internal/logging"
	"plexbridge/internal/players"
	"plexbridge/internal/services"
	"plexbridge/internal/services/plex"
)

// tick runs one poll cycle: fetch, reconcile, project, report.
func (b *Bridge) tick(ctx context.Context, seq uint64) {
	b.mu.Lock()
	source, conn := b.source, b.conn
	b.mu.Unlock()
	if source == nil || conn == nil {
		return
	}
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, b.logger)

	snap, err := source.FetchSessions(ctx, conn)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		b.tickFailed(logger, err)
		return
	}

	res := players.Reconcile(b.registry, snap.Sessions)
	now := b.now()
	for _, st := range res.States {
		b.reporter.ReportPlayerState(st.ID, players.Project(st, now))
	}
	b.setOnline(nil)
	b.reporter.ReportConnectivity(true, "")
	b.reporter.ReportAggregateCounts(res.Players, res.Active)

	for _, id := range res.Unrecognized {
		st, _ := b.registry.Lookup(id)
		logging.WarnWithContext(logger, "unrecognized player state", "player_state_unrecognized",
			logging.String(logging.FieldPlayerID, id),
			logging.String("raw_state", st.RawStatus),
			logging.String(logging.FieldImpact, "player reported as Unrecognized"),
		)
	}
	for _, id := range b.discovery.Record(res.Unregistered) {
		logger.Info("unregistered player seen",
			logging.String(logging.FieldEventType, "player_discovered"),
			logging.String(logging.FieldPlayerID, id),
		)
	}
	logger.Debug("poll tick complete",
		logging.Int("sessions", len(snap.Sessions)),
		logging.Int("players", res.Players),
		logging.Int("active", res.Active),
	)
}

// tickFailed keeps the published state consistent after a failed fetch:
// every player goes inactive and the server is reported unreachable.
func (b *Bridge) tickFailed(logger *slog.Logger, err error) {
	states := b.registry.ResetAll()
	now := b.now()
	for _, st := range states {
		b.reporter.ReportPlayerState(st.ID, players.Project(st, now))
	}
	b.setOnline(err)
	b.reporter.ReportConnectivity(false, err.Error())
	b.reporter.ReportAggregateCounts(len(states), 0)
	logger.Debug("poll tick failed",
		logging.Error(err),
		logging.String("kind", services.Classify(err)),
		logging.Int("players", len(states)),
	)
}

// setOnline records the outcome of a tick.
func (b *Bridge) setOnline(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.online = err == nil
	b.lastErr = err
}

// handleNotification applies a live playback change to the players bound to
// its session and reports them right away. Stops trigger a full poll so
// counts and remaining players catch up.
func (b *Bridge) handleNotification(n plex.PlaySessionState) {
	updated := b.registry.UpdateBySessionKey(n.SessionKey, n.State, n.ViewOffset)
	if len(updated) == 0 {
		return
	}
	now := b.now()
	for _, st := range updated {
		b.reporter.ReportPlayerState(st.ID, players.Project(st, now))
	}
	if strings.EqualFold(n.State, "stopped") {
		b.Refresh()
	}
}
