package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"plexbridge/internal/logging"
	"plexbridge/internal/players"
	"plexbridge/internal/poller"
	"plexbridge/internal/services"
	"plexbridge/internal/services/plex"
)

// discoveryTTL bounds how long an unregistered player stays listed after its
// last session.
const discoveryTTL = 24 * time.Hour

// Settings configures one bridge.
type Settings struct {
	Plex            plex.Settings
	RefreshInterval time.Duration
	// Notifications enables the live notification websocket in addition to polling.
	Notifications bool
}

// BridgeLifecycle is driven by the host when the server bridge is created
// and torn down.
type BridgeLifecycle interface {
	Initialize(ctx context.Context, settings Settings) error
	Dispose()
}

// PlayerLifecycle is driven by the host when players are added or removed.
type PlayerLifecycle interface {
	OnPlayerRegistered(id string) players.State
	OnPlayerDeregistered(id string)
}

// SessionSource bootstraps a connection and fetches sessions over it.
// *plex.Connector satisfies it.
type SessionSource interface {
	Bootstrap(ctx context.Context) (*plex.Connection, error)
	FetchSessions(ctx context.Context, conn *plex.Connection) (plex.Snapshot, error)
}

// SourceFactory builds the SessionSource for a set of settings.
type SourceFactory func(settings plex.Settings) SessionSource

// Bridge is one Plex server bridge.
type Bridge struct {
	logger    *slog.Logger
	reporter  Reporter
	registry  *players.Registry
	discovery *players.Discovery
	factory   SourceFactory
	identity  plex.Identity
	now       func() time.Time

	mu          sync.Mutex
	initialized bool
	starting    bool
	source      SessionSource
	conn        *plex.Connection
	poller      *poller.Poller
	cancel      context.CancelFunc
	listenerWG  sync.WaitGroup
	lastErr     error
	online      bool
}

// Option customizes a Bridge.
type Option func(*Bridge)

// WithSourceFactory replaces the default plex.Connector construction.
func WithSourceFactory(factory SourceFactory) Option {
	return func(b *Bridge) {
		if factory != nil {
			b.factory = factory
		}
	}
}

// WithClock overrides the time source used for projections.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) {
		if now != nil {
			b.now = now
		}
	}
}

// WithIdentity sets the client identification used for the notification
// websocket. The default source factory uses it as well.
func WithIdentity(identity plex.Identity) Option {
	return func(b *Bridge) {
		b.identity = identity
	}
}

// WithHTTPClient sets the transport for the default source factory.
func WithHTTPClient(client plex.HTTPDoer) Option {
	return func(b *Bridge) {
		b.factory = func(settings plex.Settings) SessionSource {
			return plex.NewConnector(settings, b.identity, client, b.logger)
		}
	}
}

// New returns an uninitialized bridge reporting to reporter.
func New(reporter Reporter, logger *slog.Logger, opts ...Option) *Bridge {
	if logger == nil {
		logger = logging.NewNop()
	}
	if reporter == nil {
		reporter = nopReporter{}
	}
	b := &Bridge{
		logger:    logging.NewComponentLogger(logger, "bridge"),
		reporter:  reporter,
		registry:  players.NewRegistry(),
		discovery: players.NewDiscovery(discoveryTTL),
		now:       time.Now,
	}
	b.factory = func(settings plex.Settings) SessionSource {
		return plex.NewConnector(settings, b.identity, nil, b.logger)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// ValidateSettings reports configuration errors Initialize would fail on
// without contacting any server.
func ValidateSettings(s Settings) error {
	if strings.TrimSpace(s.Plex.Host) == "" {
		return services.Wrap(services.ErrConfiguration, "bridge", "initialize", "server host is required", nil)
	}
	if strings.TrimSpace(s.Plex.Token) == "" && (s.Plex.Username == "" || s.Plex.Password == "") {
		return services.Wrap(services.ErrConfiguration, "bridge", "initialize", "token or username and password required", nil)
	}
	if s.RefreshInterval < poller.MinInterval {
		return services.Wrap(services.ErrConfiguration, "bridge", "initialize",
			fmt.Sprintf("refresh interval %s is below minimum %s", s.RefreshInterval, poller.MinInterval), nil)
	}
	return nil
}

// Initialize validates settings, bootstraps the connection, and starts
// polling. Configuration and authentication failures are reported as offline
// and returned; the poll loop is never started in that case. Only one call
// may bootstrap at a time; concurrent callers fail immediately.
func (b *Bridge) Initialize(ctx context.Context, settings Settings) error {
	b.mu.Lock()
	if b.initialized || b.starting {
		b.mu.Unlock()
		return errors.New("bridge already initialized")
	}
	b.starting = true
	b.mu.Unlock()

	if err := ValidateSettings(settings); err != nil {
		b.fail(err)
		return err
	}

	source := b.factory(settings.Plex)
	conn, err := source.Bootstrap(ctx)
	if err != nil {
		b.fail(err)
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p, err := poller.New(settings.RefreshInterval, b.tick, b.logger)
	if err != nil {
		cancel()
		b.fail(err)
		return err
	}

	b.mu.Lock()
	b.source = source
	b.conn = conn
	b.poller = p
	b.cancel = cancel
	b.initialized = true
	b.starting = false
	b.lastErr = nil
	b.mu.Unlock()

	b.logger.Info("bridge initialized",
		logging.String(logging.FieldEventType, "bridge_initialized"),
		logging.String("server", conn.BaseURL()),
		logging.Duration("refresh_interval", settings.RefreshInterval),
		logging.Int("players", b.registry.Len()),
		logging.Bool("notifications", settings.Notifications),
	)

	if settings.Notifications {
		listener := plex.NewNotificationListener(*conn, b.identity, b.handleNotification, b.logger)
		b.listenerWG.Add(1)
		go func() {
			defer b.listenerWG.Done()
			listener.Run(runCtx)
		}()
	}
	return p.Start(runCtx)
}

// Dispose stops polling and the notification listener. It is safe to call
// more than once and on a bridge that never initialized.
func (b *Bridge) Dispose() {
	b.mu.Lock()
	if !b.initialized {
		b.mu.Unlock()
		return
	}
	p := b.poller
	cancel := b.cancel
	b.initialized = false
	b.poller = nil
	b.cancel = nil
	b.source = nil
	b.conn = nil
	b.mu.Unlock()

	cancel()
	p.Stop()
	b.listenerWG.Wait()
	b.logger.Info("bridge disposed", logging.String(logging.FieldEventType, "bridge_disposed"))
}

// OnPlayerRegistered adds id to the registry and reports its current
// projection. Registering an existing id returns its state unchanged.
func (b *Bridge) OnPlayerRegistered(id string) players.State {
	st, created := b.registry.Register(id)
	b.discovery.Forget(st.ID)
	b.reporter.ReportPlayerState(st.ID, players.Project(st, b.now()))
	if created {
		b.logger.Info("player registered",
			logging.String(logging.FieldEventType, "player_registered"),
			logging.String(logging.FieldPlayerID, st.ID),
		)
		if p := b.activePoller(); p != nil {
			p.Trigger()
		}
	}
	return st
}

// OnPlayerDeregistered removes id. Unknown ids are ignored.
func (b *Bridge) OnPlayerDeregistered(id string) {
	if !b.registry.Deregister(id) {
		return
	}
	if rr, ok := b.reporter.(RemovalReporter); ok {
		rr.ReportPlayerRemoved(id)
	}
	b.logger.Info("player deregistered",
		logging.String(logging.FieldEventType, "player_deregistered"),
		logging.String(logging.FieldPlayerID, id),
	)
}

// Players returns the current projection of every registered player.
func (b *Bridge) Players() []players.Projection {
	return players.ProjectAll(b.registry.All(), b.now())
}

// PlayerIDs lists registered identities.
func (b *Bridge) PlayerIDs() []string {
	return b.registry.IDs()
}

// AvailablePlayers lists unregistered players seen in recent sessions.
func (b *Bridge) AvailablePlayers() []players.Sighting {
	return b.discovery.List(b.now())
}

// Status summarizes the bridge for status output.
type Status struct {
	Initialized bool
	Online      bool
	Server      string
	LastError   string
	ErrorKind   string
	Interval    time.Duration
}

// Status returns a snapshot of the bridge state.
func (b *Bridge) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := Status{Initialized: b.initialized, Online: b.online}
	if b.conn != nil {
		st.Server = b.conn.BaseURL()
	}
	if b.poller != nil {
		st.Interval = b.poller.Interval()
	}
	if b.lastErr != nil {
		st.LastError = b.lastErr.Error()
		st.ErrorKind = services.Classify(b.lastErr)
	}
	return st
}

// Refresh requests an immediate poll.
func (b *Bridge) Refresh() {
	if p := b.activePoller(); p != nil {
		p.Trigger()
	}
}

func (b *Bridge) activePoller() *poller.Poller {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.poller
}

func (b *Bridge) fail(err error) {
	b.mu.Lock()
	b.starting = false
	b.lastErr = err
	b.online = false
	b.mu.Unlock()
	logging.ErrorWithContext(b.logger, "bridge initialization failed", "bridge_init_failed",
		logging.Error(err),
		logging.String("kind", services.Classify(err)),
		logging.String(logging.FieldErrorHint, initHint(err)),
	)
	b.reporter.ReportConnectivity(false, err.Error())
}

func initHint(err error) string {
	switch {
	case errors.Is(err, services.ErrAuthentication):
		return "check server.username and server.password or set server.token"
	case errors.Is(err, services.ErrConfiguration):
		return "run plexbridge config validate"
	default:
		return "check logs for details"
	}
}
