package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rockolahq/rockola/internal/models"
	"github.com/rockolahq/rockola/internal/shared"
)

// DefaultInterval is the poll cadence when none is configured.
const DefaultInterval = 10 * time.Second

// Fetch retrieves the authoritative request set for one scope.
type Fetch func(ctx context.Context) ([]models.Request, error)

// Sink receives each authoritative request set wholesale. Satisfied by
// [queue.Engine].
type Sink interface {
	Replace(requests []models.Request)
}

// SyncUpdate reports the outcome of one poll cycle.
type SyncUpdate struct {
	At       time.Time // fetch start time
	Count    int       // requests in the applied set
	Stale    bool      // response discarded because a fresher one already applied
	Err      error     // nil on success
}

// PollerOpts configures a [Poller].
type PollerOpts struct {
	Fetch    Fetch
	Sink     Sink
	Interval time.Duration
	Logger   *log.Logger
	// Updates, when set, receives one SyncUpdate per cycle. Sends never
	// block; a slow consumer just misses updates.
	Updates chan<- SyncUpdate
}

// Poller keeps a projection sink converged with the backend.
//
// Each cycle fetches the full set and replaces the sink's contents wholesale.
// When responses arrive out of order, the one whose fetch STARTED latest wins;
// a slow stale response is discarded rather than applied. Failed cycles keep
// the last good projection and surface through [Poller.Status].
type Poller struct {
	fetch    Fetch
	sink     Sink
	interval time.Duration
	logger   *log.Logger
	updates  chan<- SyncUpdate

	mu           sync.Mutex
	appliedStart time.Time
	lastSync     time.Time
	lastErr      error
}

// NewPoller creates a [Poller].
func NewPoller(opts PollerOpts) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Poller{
		fetch:    opts.Fetch,
		sink:     opts.Sink,
		interval: opts.Interval,
		logger:   opts.Logger,
		updates:  opts.Updates,
	}
}

// Tick runs one fetch-and-apply cycle. Safe to call concurrently with the
// background loop; ordering is resolved by fetch start time.
func (p *Poller) Tick(ctx context.Context) error {
	start := time.Now()

	requests, err := p.fetch(ctx)
	if err != nil {
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()

		p.logger.Warn("sync failed, keeping last good projection", "error", err)
		p.notify(SyncUpdate{At: start, Err: err})
		return err
	}

	applied := p.apply(start, requests)
	p.notify(SyncUpdate{At: start, Count: len(requests), Stale: !applied})
	return nil
}

// apply installs the set unless a fresher fetch already applied.
func (p *Poller) apply(start time.Time, requests []models.Request) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if start.Before(p.appliedStart) {
		p.logger.Debug("discarding stale sync response",
			"fetched_at", start, "applied_at", p.appliedStart)
		return false
	}

	p.sink.Replace(requests)
	p.appliedStart = start
	p.lastSync = time.Now()
	p.lastErr = nil
	return true
}

// Status returns the time of the last applied sync and the error from the
// most recent cycle, nil when it succeeded.
func (p *Poller) Status() (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSync, p.lastErr
}

// Start launches the poll loop with an immediate first cycle. The loop stops
// when ctx is cancelled or the returned stop function is called; stop blocks
// until the loop exits.
func (p *Poller) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		if err := p.Tick(ctx); err != nil && ctx.Err() != nil {
			return
		}

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = p.Tick(ctx)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (p *Poller) notify(update SyncUpdate) {
	if p.updates == nil {
		return
	}
	select {
	case p.updates <- update:
	default:
	}
}
