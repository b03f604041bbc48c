package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"plexbridge/internal/api"
	"plexbridge/internal/bridge"
	"plexbridge/internal/config"
	"plexbridge/internal/logging"
	"plexbridge/internal/notifications"
	"plexbridge/internal/players"
	"plexbridge/internal/services"
	"plexbridge/internal/services/plex"
	"plexbridge/internal/store"
)

// Daemon owns the bridge and everything that observes it, and enforces
// single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	bridge    *bridge.Bridge
	recorder  *store.Recorder
	notifier  *notifications.Reporter
	notifySvc notifications.Service
	snapshot  *statusCache
	events    *eventHub
	api       *apiServer
	logPath   string
	logHub    *logging.StreamHub
	sessionID string
	now       func() time.Time

	bridgeOpts []bridge.Option

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	starting  bool
	running   atomic.Bool
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
	doneOnce  sync.Once
}

// Option customizes daemon construction.
type Option func(*Daemon)

// WithBridgeOptions forwards options to the bridge, typically a session
// source factory in tests.
func WithBridgeOptions(opts ...bridge.Option) Option {
	return func(d *Daemon) {
		d.bridgeOpts = append(d.bridgeOpts, opts...)
	}
}

// WithNotificationService replaces the ntfy service built from config.
func WithNotificationService(svc notifications.Service) Option {
	return func(d *Daemon) {
		if svc != nil {
			d.notifySvc = svc
		}
	}
}

// WithSessionID records the run session id reported in status output.
func WithSessionID(id string) Option {
	return func(d *Daemon) {
		d.sessionID = id
	}
}

// New constructs a daemon with initialized dependencies. logHub may be nil,
// in which case log tailing returns nothing.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, logPath string, logHub *logging.StreamHub, opts ...Option) (*Daemon, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		logPath:  logPath,
		logHub:   logHub,
		now:      time.Now,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	if d.notifySvc == nil {
		d.notifySvc = notifications.NewService(cfg)
	}

	clientID, err := plex.NewIdentityStore(cfg.ClientStatePath()).LoadOrCreate()
	if err != nil {
		return nil, fmt.Errorf("load client identity: %w", err)
	}
	identity := plex.Identity{
		ClientIdentifier: clientID,
		Product:          cfg.Plex.Product,
		DeviceName:       cfg.Plex.DeviceName,
	}

	d.snapshot = newStatusCache(d.now)
	d.events = newEventHub(logger, d.now)
	d.recorder = store.NewRecorder(st, logger)
	d.notifier = notifications.NewReporter(d.notifySvc, cfg.Server.Host, logger)
	reporter := bridge.MultiReporter{
		bridge.NewLogReporter(logger),
		d.snapshot,
		d.recorder,
		d.notifier,
		d.events,
	}
	bridgeOpts := append([]bridge.Option{bridge.WithIdentity(identity)}, d.bridgeOpts...)
	d.bridge = bridge.New(reporter, logger, bridgeOpts...)

	apiSrv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = apiSrv
	return d, nil
}

// Start acquires the daemon lock, restores registered players, initializes
// the bridge, and starts the HTTP API. A bridge initialization failure
// releases the lock and is returned; the failure stays visible in Status.
// A Start racing another in-flight Start fails without touching the lock.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running.Load() || d.starting {
		d.mu.Unlock()
		return errors.New("daemon already running")
	}
	d.starting = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.starting = false
		d.mu.Unlock()
	}()

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another plexbridge daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.restorePlayers(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.pruneHistory(runCtx)

	if err := d.bridge.Initialize(runCtx, bridge.SettingsFromConfig(d.cfg)); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("initialize bridge: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		d.bridge.Dispose()
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.mu.Lock()
	d.cancel = cancel
	d.startedAt = d.now()
	d.running.Store(true)
	d.mu.Unlock()
	d.logger.Info("plexbridge daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.Int("players", len(d.bridge.PlayerIDs())),
	)
	return nil
}

// Stop disposes the bridge, closes subscribers, and releases the daemon lock.
func (d *Daemon) Stop() {
	defer d.doneOnce.Do(func() { close(d.done) })
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.bridge.Dispose()
	d.api.stop()
	d.events.closeAll()
	d.notifier.Wait()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String("lock", d.lockPath),
			logging.String(logging.FieldImpact, "next daemon start may report an existing instance"),
		)
	}
	d.running.Store(false)
	d.logger.Info("plexbridge daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Done is closed the first time Stop is called, even when Start never
// succeeded, so the owning process can exit.
func (d *Daemon) Done() <-chan struct{} {
	return d.done
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	d.recorder.Close()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether Start succeeded and Stop has not run.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

func (d *Daemon) restorePlayers(ctx context.Context) error {
	for _, id := range d.cfg.Players.IDs {
		if err := d.store.AddPlayer(ctx, id, ""); err != nil {
			return fmt.Errorf("register configured player %q: %w", id, err)
		}
	}
	records, err := d.store.ListPlayers(ctx)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	for _, rec := range records {
		d.bridge.OnPlayerRegistered(rec.ID)
	}
	return nil
}

func (d *Daemon) pruneHistory(ctx context.Context) {
	days := d.cfg.Logging.RetentionDays
	if days <= 0 {
		return
	}
	cutoff := d.now().AddDate(0, 0, -days)
	removed, err := d.store.Prune(ctx, cutoff)
	if err != nil {
		logging.WarnWithContext(d.logger, "history prune failed", "history_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "old history rows remain in the database"),
		)
		return
	}
	if removed > 0 {
		d.logger.Info("history pruned",
			logging.String(logging.FieldEventType, "history_pruned"),
			logging.Int64("removed", removed),
			logging.Int("retention_days", days),
		)
	}
}

// RegisterPlayer persists id and adds it to the bridge. created is false
// when the player was already registered.
func (d *Daemon) RegisterPlayer(ctx context.Context, id, label string) (api.Player, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return api.Player{}, false, services.Wrap(services.ErrValidation, "daemon", "register player", "player id is required", nil)
	}
	created := !slices.Contains(d.bridge.PlayerIDs(), id)
	if err := d.store.AddPlayer(ctx, id, strings.TrimSpace(label)); err != nil {
		return api.Player{}, false, err
	}
	st := d.bridge.OnPlayerRegistered(id)
	d.logger.Info("player registered",
		logging.String(logging.FieldEventType, "player_registered"),
		logging.String(logging.FieldPlayerID, id),
		logging.Bool("created", created),
	)
	return api.FromProjection(players.Project(st, d.now())), created, nil
}

// DeregisterPlayer removes id from the store and the bridge. It reports
// whether the player was known to either.
func (d *Daemon) DeregisterPlayer(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, services.Wrap(services.ErrValidation, "daemon", "deregister player", "player id is required", nil)
	}
	known := slices.Contains(d.bridge.PlayerIDs(), id)
	removed, err := d.store.RemovePlayer(ctx, id)
	if err != nil {
		return false, err
	}
	d.bridge.OnPlayerDeregistered(id)
	if removed || known {
		d.logger.Info("player deregistered",
			logging.String(logging.FieldEventType, "player_deregistered"),
			logging.String(logging.FieldPlayerID, id),
		)
	}
	return removed || known, nil
}

// Players returns the current projections of every registered player.
func (d *Daemon) Players() api.PlayersResponse {
	projections := d.bridge.Players()
	active := 0
	for _, p := range projections {
		if p.Power == players.PowerOn {
			active++
		}
	}
	return api.PlayersResponse{
		Players: api.FromProjections(projections),
		Counts:  api.Counts{Total: len(projections), Active: active},
	}
}

// Discovered lists players seen in sessions that are not registered.
func (d *Daemon) Discovered() api.DiscoveredResponse {
	return api.DiscoveredResponse{Players: api.FromSightings(d.bridge.AvailablePlayers())}
}

// History returns recorded transitions, newest first. An empty id returns
// events for every player.
func (d *Daemon) History(ctx context.Context, id string, limit int) ([]api.PlayerEvent, error) {
	events, err := d.store.PlayerEvents(ctx, strings.TrimSpace(id), limit)
	if err != nil {
		return nil, err
	}
	return api.FromPlayerEvents(events), nil
}

// Refresh requests an immediate poll.
func (d *Daemon) Refresh() {
	d.bridge.Refresh()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	br := d.bridge.Status()
	cached := d.snapshot.get()

	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		SessionID:    d.sessionID,
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		SocketPath:   d.cfg.SocketPath(),
		APIBind:      d.api.address(),
		LogPath:      d.logPath,
		Server: api.ServerStatus{
			Initialized:            br.Initialized,
			Online:                 br.Online,
			Server:                 br.Server,
			Detail:                 cached.detail,
			ErrorKind:              br.ErrorKind,
			RefreshIntervalSeconds: int(br.Interval / time.Second),
		},
		Counts: api.Counts{Total: cached.total, Active: cached.active},
	}
	if br.LastError != "" && status.Server.Detail == "" {
		status.Server.Detail = br.LastError
	}
	if !cached.lastReport.IsZero() {
		status.Server.LastReport = api.FormatTime(cached.lastReport)
	}
	d.mu.Lock()
	if !d.startedAt.IsZero() {
		status.StartedAt = api.FormatTime(d.startedAt)
	}
	d.mu.Unlock()

	health, err := d.store.CheckHealth(ctx)
	status.History = api.FromHealth(health)
	if err != nil {
		status.History.Path = d.store.Path()
		status.History.Error = err.Error()
	}
	return status
}

// Logs returns buffered log events after since. tail returns the newest
// limit events instead; follow waits for new events until ctx ends.
func (d *Daemon) Logs(ctx context.Context, since uint64, limit int, follow, tail bool) (api.LogTailResponse, error) {
	if d.logHub == nil {
		return api.LogTailResponse{}, nil
	}
	if limit <= 0 {
		limit = 200
	}
	if tail && since == 0 && !follow {
		events, next := d.logHub.Tail(limit)
		return api.LogTailResponse{Events: api.FromLogEvents(events), Next: next}, nil
	}
	events, next, err := d.logHub.Fetch(ctx, since, limit, follow)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return api.LogTailResponse{}, err
	}
	return api.LogTailResponse{Events: api.FromLogEvents(events), Next: next}, nil
}

// TestNotification sends a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifySvc.Publish(ctx, notifications.EventTest, notifications.Payload{}); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
