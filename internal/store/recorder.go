package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"plexbridge/internal/logging"
	"plexbridge/internal/players"
)

const recorderBuffer = 256

type recordKind int

const (
	recordPlayer recordKind = iota
	recordConnectivity
)

type record struct {
	kind         recordKind
	player       PlayerEvent
	connectivity ConnectivityEvent
}

// Recorder writes status and connectivity transitions to the store. Reports
// that do not change the last recorded value are dropped before they reach
// the database.
type Recorder struct {
	store  *Store
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	statuses map[string]string
	online   *bool
	closed   bool

	queue chan record
	done  chan struct{}
}

// NewRecorder starts the background writer.
func NewRecorder(store *Store, logger *slog.Logger) *Recorder {
	r := &Recorder{
		store:    store,
		logger:   logging.NewComponentLogger(logger, "history"),
		now:      time.Now,
		statuses: make(map[string]string),
		queue:    make(chan record, recorderBuffer),
		done:     make(chan struct{}),
	}
	go r.run()
	return r
}

// ReportConnectivity records online/offline transitions.
func (r *Recorder) ReportConnectivity(online bool, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.online != nil && *r.online == online {
		return
	}
	rec := record{kind: recordConnectivity, connectivity: ConnectivityEvent{Online: online, Detail: detail, OccurredAt: r.now()}}
	if r.enqueueLocked(rec) {
		r.online = &online
	}
}

// ReportPlayerState records status transitions. A dropped record leaves the
// last recorded status untouched so the next report retries it.
func (r *Recorder) ReportPlayerState(id string, p players.Projection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.statuses[id]; ok && prev == p.Status {
		return
	}
	rec := record{kind: recordPlayer, player: PlayerEvent{
		PlayerID:         id,
		Status:           p.Status,
		Power:            p.Power,
		Title:            p.Title,
		GrandparentTitle: p.GrandparentTitle,
		MediaType:        p.Type,
		Progress:         p.Progress,
		OccurredAt:       r.now(),
	}}
	if r.enqueueLocked(rec) {
		r.statuses[id] = p.Status
	}
}

// ReportAggregateCounts is not persisted.
func (r *Recorder) ReportAggregateCounts(int, int) {}

// ReportPlayerRemoved forgets the last recorded status for id.
func (r *Recorder) ReportPlayerRemoved(id string) {
	r.mu.Lock()
	delete(r.statuses, id)
	r.mu.Unlock()
}

// Close flushes queued records and stops the writer.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	<-r.done
}

// enqueueLocked hands rec to the writer without blocking. Callers hold r.mu.
func (r *Recorder) enqueueLocked(rec record) bool {
	if r.closed {
		return false
	}
	select {
	case r.queue <- rec:
		return true
	default:
		logging.WarnWithContext(r.logger, "history queue full; dropping record", "history_dropped",
			logging.String(logging.FieldErrorHint, "check disk performance for the state directory"),
			logging.String(logging.FieldImpact, "one history entry was not saved"),
		)
		return false
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	ctx := context.Background()
	for rec := range r.queue {
		var err error
		switch rec.kind {
		case recordPlayer:
			err = r.store.RecordPlayerEvent(ctx, rec.player)
		case recordConnectivity:
			err = r.store.RecordConnectivity(ctx, rec.connectivity)
		}
		if err != nil {
			logging.WarnWithContext(r.logger, "history write failed", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check state_dir permissions and free space"),
				logging.String(logging.FieldImpact, "history entry was not saved"),
			)
		}
	}
}
