package poll

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/finchrobotics/fleet-core/internal/fleet"
)

// maxBodySize caps how much of a target's response body is read (1MB).
const maxBodySize = 1 << 20

// Logger interface for optional logging support.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Poller periodically fetches robot status endpoints and merges the
// normalized results into the fusion cache.
//
// Each tick fans out one request per target concurrently. A slow or
// failing target never delays the others: its request is bounded by
// the per-request timeout, which must be shorter than the tick
// interval, and its failure is recorded as a note on the robot without
// touching the robot's liveness clock. The next tick retries every
// target from scratch.
type Poller struct {
	cache   *fleet.Cache
	targets []fleet.PollTarget
	client  *http.Client

	interval       time.Duration
	requestTimeout time.Duration

	logger Logger

	done    chan struct{}
	wg      sync.WaitGroup
	startMu sync.Mutex
	started bool
}

// NewPoller creates a poller over the given targets. It does not start
// polling until Start is called.
func NewPoller(cache *fleet.Cache, targets []fleet.PollTarget, interval, requestTimeout time.Duration) *Poller {
	return &Poller{
		cache:          cache,
		targets:        targets,
		client:         &http.Client{Timeout: requestTimeout},
		interval:       interval,
		requestTimeout: requestTimeout,
		logger:         noopLogger{},
		done:           make(chan struct{}),
	}
}

// SetLogger attaches a logger for per-target failure reporting.
func (p *Poller) SetLogger(logger Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// TargetCount returns the number of configured poll targets.
func (p *Poller) TargetCount() int {
	return len(p.targets)
}

// Start begins the polling loop. It runs one immediate round, then one
// per interval. Start is idempotent; with no targets it is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	if p.started || len(p.targets) == 0 {
		return
	}
	p.started = true

	p.wg.Add(1)
	go p.run(ctx)
}

// Close stops the polling loop and waits for in-flight requests.
func (p *Poller) Close() error {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	if !p.started {
		return nil
	}

	close(p.done)
	p.wg.Wait()

	p.started = false
	p.done = make(chan struct{})
	return nil
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce fans out one request per target and waits for all of them.
// Bounded by the per-request timeout, the whole round completes well
// inside one tick.
func (p *Poller) pollOnce(ctx context.Context) {
	var wg sync.WaitGroup
	for _, target := range p.targets {
		wg.Add(1)
		go func(t fleet.PollTarget) {
			defer wg.Done()
			p.pollTarget(ctx, t)
		}(target)
	}
	wg.Wait()
}

// pollTarget fetches one target and merges the result. On failure the
// robot is annotated but its state and liveness are left untouched, so
// the sweeper's silence detection decides when it goes offline.
func (p *Poller) pollTarget(ctx context.Context, target fleet.PollTarget) {
	body, err := p.fetch(ctx, target.URL)
	if err != nil {
		p.cache.Annotate(target.ID, fmt.Sprintf("status poll failed: %v", err))
		p.logger.Debug("poll target failed", "robot_id", target.ID, "url", target.URL, "error", err)
		return
	}

	p.cache.Merge(target.ID, Normalize(target, body))
}

// fetch performs one GET with the per-request timeout and decodes the
// JSON body.
func (p *Poller) fetch(ctx context.Context, url string) (any, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrBadStatusCode, resp.StatusCode)
	}

	var body any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return body, nil
}
