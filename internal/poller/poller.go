package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"plexbridge/internal/logging"
	"plexbridge/internal/services"
)

// MinInterval is the shortest accepted delay between runs.
const MinInterval = time.Second

// TickFunc performs one run. seq starts at 1 and increases by one per run.
type TickFunc func(ctx context.Context, seq uint64)

// Poller drives a TickFunc on a fixed delay.
type Poller struct {
	interval time.Duration
	tick     TickFunc
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	trigger chan struct{}
	seq     uint64
}

// New validates interval and returns a stopped poller.
func New(interval time.Duration, tick TickFunc, logger *slog.Logger) (*Poller, error) {
	if tick == nil {
		return nil, services.Wrap(services.ErrConfiguration, "poller", "new", "tick function is required", nil)
	}
	if interval < MinInterval {
		return nil, services.Wrap(services.ErrConfiguration, "poller", "new",
			fmt.Sprintf("interval %s is below minimum %s", interval, MinInterval), nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Poller{
		interval: interval,
		tick:     tick,
		logger:   logger.With(logging.String(logging.FieldComponent, "poller")),
		trigger:  make(chan struct{}, 1),
	}, nil
}

// Interval returns the configured delay.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start launches the loop. The first run happens immediately.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return errors.New("poller already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	go p.loop(runCtx, p.done)
	return nil
}

// Stop cancels the loop and waits for an in-flight run to return. Calling
// Stop on a stopped poller is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Trigger asks for a run as soon as the current one (if any) completes.
// Repeated triggers before that run collapse into one.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-p.trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		p.runOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		timer.Reset(p.interval)
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	p.seq++
	seq := p.seq
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(p.logger, "poll tick panicked", "poll_tick_panic",
				logging.Uint64(logging.FieldTick, seq),
				logging.Any("panic", r),
				logging.String(logging.FieldErrorHint, "report this as a bug; polling continues on the next tick"),
			)
		}
	}()
	p.tick(services.WithTick(ctx, seq), seq)
}
