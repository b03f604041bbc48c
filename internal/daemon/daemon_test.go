package daemon

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"plexbridge/internal/bridge"
	"plexbridge/internal/config"
	"plexbridge/internal/notifications"
	"plexbridge/internal/services"
	"plexbridge/internal/services/plex"
	"plexbridge/internal/testsupport"
)

type stubSource struct {
	mu           sync.Mutex
	bootstrapErr error
	sessions     []plex.Session

	// entered and release, when set, hold Bootstrap until release closes.
	entered   chan struct{}
	release   chan struct{}
	enterOnce sync.Once
}

func (s *stubSource) Bootstrap(context.Context) (*plex.Connection, error) {
	if s.release != nil {
		s.enterOnce.Do(func() { close(s.entered) })
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bootstrapErr != nil {
		return nil, s.bootstrapErr
	}
	return &plex.Connection{Scheme: "http", Host: "127.0.0.1", Port: 32400, Token: "tok"}, nil
}

func (s *stubSource) FetchSessions(context.Context, *plex.Connection) (plex.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return plex.Snapshot{Size: len(s.sessions), Sessions: append([]plex.Session(nil), s.sessions...), FetchedAt: time.Now()}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func playing(id, title string) plex.Session {
	return plex.Session{
		Title:         title,
		Type:          "episode",
		SessionKey:    "12",
		ViewOffsetRaw: "60000",
		Media:         []plex.SessionMedia{{DurationRaw: "240000"}},
		Player:        &plex.SessionPlayer{MachineIdentifier: id, State: "playing", LocalRaw: "1", Title: "Living Room"},
	}
}

func newTestDaemon(t *testing.T, cfg *config.Config, src *stubSource, opts ...Option) *Daemon {
	t.Helper()
	st := testsupport.MustOpenStore(t, cfg)
	factory := bridge.WithSourceFactory(func(plex.Settings) bridge.SessionSource { return src })
	opts = append([]Option{WithBridgeOptions(factory), WithNotificationService(&recordingNotifier{})}, opts...)
	d, err := New(cfg, st, nil, "", nil, opts...)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	return d
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPlayers("A"))
	d := newTestDaemon(t, cfg, &stubSource{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if !status.Server.Initialized {
		t.Fatal("expected bridge to be initialized")
	}
	if status.LockFilePath != cfg.LockPath() {
		t.Fatalf("lock path = %q", status.LockFilePath)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Running() {
		t.Fatal("expected daemon to be stopped")
	}
	select {
	case <-d.Done():
	default:
		t.Fatal("expected Done to be closed after Stop")
	}
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := newTestDaemon(t, cfg, &stubSource{})
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	st2 := testsupport.MustOpenStore(t, cfg)
	second, err := New(cfg, st2, nil, "", nil,
		WithBridgeOptions(bridge.WithSourceFactory(func(plex.Settings) bridge.SessionSource { return &stubSource{} })))
	if err != nil {
		t.Fatalf("second New: %v", err)
	}
	defer second.Close()
	err = second.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestDaemonConcurrentStartKeepsLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := &stubSource{entered: make(chan struct{}), release: make(chan struct{})}
	d := newTestDaemon(t, cfg, src)

	errs := make(chan error, 2)
	for range 2 {
		go func() { errs <- d.Start(context.Background()) }()
	}
	select {
	case <-src.entered:
	case <-time.After(3 * time.Second):
		t.Fatal("bridge bootstrap never started")
	}
	var results []error
	select {
	case err := <-errs:
		results = append(results, err)
	case <-time.After(3 * time.Second):
		t.Fatal("racing Start did not fail while the first was starting")
	}
	close(src.release)
	results = append(results, <-errs)

	failed := 0
	for _, err := range results {
		if err != nil {
			failed++
			if !strings.Contains(err.Error(), "already running") {
				t.Fatalf("unexpected start error: %v", err)
			}
		}
	}
	if failed != 1 {
		t.Fatalf("expected exactly one Start to fail, got %v", results)
	}
	if !d.Running() {
		t.Fatal("winning Start should leave the daemon running")
	}
	if !d.lock.Locked() {
		t.Fatal("losing Start released the live daemon lock")
	}
	d.Stop()
}

func TestDaemonStartFailsOnAuthError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := &stubSource{bootstrapErr: services.Wrap(services.ErrAuthentication, "plex", "sign in", "rejected", nil)}
	d := newTestDaemon(t, cfg, src)

	err := d.Start(context.Background())
	if !errors.Is(err, services.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if d.Running() {
		t.Fatal("daemon should not run after bridge init failure")
	}
	if locked := d.lock.Locked(); locked {
		t.Fatal("lock should be released after failed start")
	}
	status := d.Status(context.Background())
	if status.Server.Online || status.Server.ErrorKind != "authentication" {
		t.Fatalf("unexpected server status: %+v", status.Server)
	}
	if status.Server.Detail == "" {
		t.Fatal("expected failure detail in status")
	}
}

func TestDaemonRestoresPlayers(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPlayers("configured"))
	d := newTestDaemon(t, cfg, &stubSource{})
	testsupport.AddPlayer(t, d.store, "stored", "Bedroom")

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	resp := d.Players()
	if resp.Counts.Total != 2 {
		t.Fatalf("expected 2 players, got %+v", resp.Counts)
	}
	records, err := d.store.ListPlayers(context.Background())
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected configured player persisted, got %d records", len(records))
	}
}

func TestDaemonRegisterPlayerFlow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := &stubSource{sessions: []plex.Session{playing("B", "Pilot")}}
	d := newTestDaemon(t, cfg, src)
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, "discovery of B", func() bool {
		return len(d.Discovered().Players) == 1
	})

	player, created, err := d.RegisterPlayer(ctx, " B ", "Living Room")
	if err != nil {
		t.Fatalf("RegisterPlayer: %v", err)
	}
	if !created || player.ID != "B" {
		t.Fatalf("unexpected registration: created=%v player=%+v", created, player)
	}
	if len(d.Discovered().Players) != 0 {
		t.Fatal("registered player should leave discovery")
	}

	waitFor(t, "B playing", func() bool {
		resp := d.Players()
		return len(resp.Players) == 1 && resp.Players[0].Status == "Playing" && resp.Counts.Active == 1
	})

	if _, created, err := d.RegisterPlayer(ctx, "B", ""); err != nil || created {
		t.Fatalf("re-register: created=%v err=%v", created, err)
	}

	removed, err := d.DeregisterPlayer(ctx, "B")
	if err != nil || !removed {
		t.Fatalf("DeregisterPlayer: removed=%v err=%v", removed, err)
	}
	removed, err = d.DeregisterPlayer(ctx, "B")
	if err != nil || removed {
		t.Fatalf("second DeregisterPlayer: removed=%v err=%v", removed, err)
	}

	if _, _, err := d.RegisterPlayer(ctx, "  ", ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDaemonTestNotification(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg, &stubSource{})
	sent, message, err := d.TestNotification(context.Background())
	if err != nil || sent || !strings.Contains(message, "not configured") {
		t.Fatalf("unconfigured: sent=%v message=%q err=%v", sent, message, err)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithNtfyTopic("https://ntfy.example/plex"))
	notifier := &recordingNotifier{}
	d = newTestDaemon(t, cfg, &stubSource{}, WithNotificationService(notifier))
	sent, _, err = d.TestNotification(context.Background())
	if err != nil || !sent {
		t.Fatalf("configured: sent=%v err=%v", sent, err)
	}
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.events) != 1 || notifier.events[0] != notifications.EventTest {
		t.Fatalf("unexpected events: %v", notifier.events)
	}
}
