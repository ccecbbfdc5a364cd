// Package autoposter periodically republishes a bot's statistics to the
// listing service without requiring the caller to manage timers.
package autoposter

import (
	"context"
	"sync"
	"time"

	"botlist/internal/api"
	"botlist/internal/common/errors"
	"botlist/internal/common/logging"
)

// DefaultInterval is the posting cadence the listing service expects;
// posting more often than this is wasted work.
const DefaultInterval = 15 * time.Minute

// StatsPoster is the capability the scheduler drives. *api.Client satisfies
// it.
type StatsPoster interface {
	PostStats(ctx context.Context, stats api.Stats) error
}

// Scheduler owns a background loop that posts the most recently fed
// snapshot once per interval. Feeds collapse last-write-wins, posts are
// single-flight, and a failed post never stops the loop.
type Scheduler struct {
	poster      StatsPoster
	interval    time.Duration
	postTimeout time.Duration
	logger      logging.Logger
	onError     func(error)

	mu       sync.Mutex
	pending  *api.Stats
	inFlight bool
	started  bool
	stopped  bool

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler's logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithErrorObserver registers a hook invoked with every failed post. The
// hook runs on the posting goroutine and should return quickly.
func WithErrorObserver(fn func(error)) Option {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// WithPostTimeout bounds each post issued by the loop.
func WithPostTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) {
		s.postTimeout = timeout
	}
}

// New creates a stopped scheduler posting through poster every interval.
func New(poster StatsPoster, interval time.Duration, opts ...Option) (*Scheduler, error) {
	if poster == nil {
		return nil, errors.ConfigError("stats poster must not be nil")
	}
	if interval <= 0 {
		return nil, errors.ConfigError("autopost interval must be positive")
	}

	s := &Scheduler{
		poster:      poster,
		interval:    interval,
		postTimeout: api.DefaultTimeout,
		logger:      logging.Global(),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Feed hands the scheduler a new snapshot. It never blocks and is safe to
// call concurrently: rapid feeds before a tick collapse to the most recent
// one. Feeding does not trigger an immediate post; the snapshot waits for
// the next natural tick.
func (s *Scheduler) Feed(stats api.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &stats
}

// Start launches the background loop. A scheduler can be started once;
// after Stop it cannot be restarted and a fresh scheduler must be created.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return errors.ConfigError("scheduler has been stopped and cannot be restarted")
	}
	if s.started {
		return errors.ConfigError("scheduler is already running")
	}
	s.started = true

	go s.run()
	return nil
}

// Stop signals the loop to stop and blocks until it has exited. It is
// idempotent, and after it returns no further ticks fire. An in-flight post
// is left to finish under its own timeout rather than being aborted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	wasStarted := s.started
	s.stopped = true
	s.mu.Unlock()

	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	if wasStarted {
		<-s.doneCh
	}
}

// Running reports whether the loop is currently active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.stopped {
		return false
	}
	select {
	case <-s.doneCh:
		return false
	default:
		return true
	}
}

func (s *Scheduler) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("autoposter started",
		logging.Field{Key: "interval", Value: s.interval.String()},
	)

	for {
		select {
		case <-s.stopCh:
			s.logger.Info("autoposter stopped")
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick takes the pending snapshot and posts it in the background. Ticks
// arriving while a post is in flight are dropped, never queued, so one
// scheduler can never have two posts racing out of order.
func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.inFlight || s.pending == nil {
		s.mu.Unlock()
		return
	}
	stats := *s.pending
	s.pending = nil
	s.inFlight = true
	s.mu.Unlock()

	go s.post(stats)
}

func (s *Scheduler) post(stats api.Stats) {
	ctx, cancel := context.WithTimeout(context.Background(), s.postTimeout)
	err := s.poster.PostStats(ctx, stats)
	cancel()

	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("stats post failed", err)
		if s.onError != nil {
			s.onError(err)
		}
		return
	}
	s.logger.Debug("stats posted")
}
