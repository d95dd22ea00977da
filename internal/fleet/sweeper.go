package fleet

import (
	"context"
	"sync"
	"time"
)

// Logger defines the logging interface used by fleet components.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Sweeper is the liveness sweeper: a lifecycle-managed periodic task
// that recomputes every robot's "last seen" display age and demotes
// robots to OFFLINE once their silence exceeds the offline threshold.
//
// Start launches the ticker goroutine; Close stops it and waits for it
// to exit. The per-tick work lives in sweepOnce so tests can drive
// ticks without wall-clock timers.
type Sweeper struct {
	cache        *Cache
	interval     time.Duration
	offlineAfter time.Duration
	logger       Logger

	done    chan struct{}
	wg      sync.WaitGroup
	startMu sync.Mutex
	started bool
}

// NewSweeper creates a sweeper over the given cache.
//
// Parameters:
//   - cache: The fusion cache to sweep
//   - interval: Time between sweeps
//   - offlineAfter: Maximum silence before a robot is forced OFFLINE
func NewSweeper(cache *Cache, interval, offlineAfter time.Duration) *Sweeper {
	return &Sweeper{
		cache:        cache,
		interval:     interval,
		offlineAfter: offlineAfter,
		logger:       noopLogger{},
		done:         make(chan struct{}),
	}
}

// SetLogger sets the logger for the sweeper.
func (s *Sweeper) SetLogger(logger Logger) {
	s.logger = logger
}

// Start launches the periodic sweep loop.
// Calling Start more than once is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.started {
		return
	}
	s.started = true

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("liveness sweeper started",
		"interval", s.interval,
		"offline_threshold", s.offlineAfter,
	)
}

// Close stops the sweep loop and waits for it to exit.
func (s *Sweeper) Close() {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if !s.started {
		return
	}
	close(s.done)
	s.wg.Wait()
	s.started = false
	s.done = make(chan struct{})
}

// run is the ticker loop.
func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.sweepOnce(time.Now())
		}
	}
}

// sweepOnce performs a single sweep at the given instant.
func (s *Sweeper) sweepOnce(now time.Time) {
	s.cache.sweep(now, s.offlineAfter)
}
