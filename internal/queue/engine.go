package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rockolahq/rockola/internal/models"
	"github.com/rockolahq/rockola/internal/services"
	"github.com/rockolahq/rockola/internal/shared"
)

// DefaultAverageSongMinutes is the wait heuristic when the restaurant has not
// configured one.
const DefaultAverageSongMinutes = 3.5

// SubmitOutcome classifies the result of a submission attempt. Policy
// rejections are outcomes, not errors.
type SubmitOutcome int

const (
	SubmitAccepted SubmitOutcome = iota
	SubmitQuotaExceeded
	SubmitDuplicate
)

// String returns a human-readable outcome label.
func (o SubmitOutcome) String() string {
	switch o {
	case SubmitAccepted:
		return "accepted"
	case SubmitQuotaExceeded:
		return "quota exceeded"
	case SubmitDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// SubmitResult reports what the backend decided about a submission.
type SubmitResult struct {
	Outcome SubmitOutcome
	// Request is the authoritative echo, set only when accepted.
	Request *models.Request
	// Remaining is the requester's quota headroom after the attempt.
	Remaining int
}

// EngineOpts configures an [Engine].
type EngineOpts struct {
	Backend            services.Backend
	RestaurantSlug     string
	MaxPerRequester    int
	AverageSongMinutes float64
	Logger             *log.Logger
}

// Engine maintains the ordered request projection for one restaurant and
// mediates every mutation through the backend.
//
// The in-memory projection is advisory: each mutation is confirmed remotely
// before the projection changes, and [Engine.Replace] installs the
// authoritative state wholesale on every poll. All methods are safe for
// concurrent use.
type Engine struct {
	mu              sync.Mutex
	backend         services.Backend
	restaurantSlug  string
	maxPerRequester int
	avgSongMinutes  float64
	logger          *log.Logger

	// requests holds the projection in canonical order: the playing request
	// first, pending by ascending position, then terminal requests.
	requests []models.Request
}

// NewEngine creates an [Engine] for one restaurant scope.
func NewEngine(opts EngineOpts) *Engine {
	if opts.MaxPerRequester <= 0 {
		opts.MaxPerRequester = DefaultMaxPerRequester
	}
	if opts.AverageSongMinutes <= 0 {
		opts.AverageSongMinutes = DefaultAverageSongMinutes
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Engine{
		backend:         opts.Backend,
		restaurantSlug:  opts.RestaurantSlug,
		maxPerRequester: opts.MaxPerRequester,
		avgSongMinutes:  opts.AverageSongMinutes,
		logger:          opts.Logger,
	}
}

// RestaurantSlug returns the scope this engine serves.
func (e *Engine) RestaurantSlug() string {
	return e.restaurantSlug
}

// Replace installs an authoritative projection, discarding the previous one
// wholesale. Individual requests are never merged field by field.
func (e *Engine) Replace(requests []models.Request) {
	replacement := make([]models.Request, len(requests))
	copy(replacement, requests)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests = replacement
	e.canonicalizeLocked()
}

// Snapshot returns a copy of the projection in canonical order.
func (e *Engine) Snapshot() []models.Request {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.Request, len(e.requests))
	copy(out, e.requests)
	return out
}

// Playing returns the currently playing request, or nil when nothing plays.
func (e *Engine) Playing() *models.Request {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.requests {
		if e.requests[i].Status == models.StatusPlaying {
			playing := e.requests[i]
			return &playing
		}
	}
	return nil
}

// Pending returns the pending requests in queue order.
func (e *Engine) Pending() []models.Request {
	e.mu.Lock()
	defer e.mu.Unlock()

	var pending []models.Request
	for _, req := range e.requests {
		if req.Status == models.StatusPending {
			pending = append(pending, req)
		}
	}
	return pending
}

// ActiveCount counts the requester's pending and playing requests in the
// current projection.
func (e *Engine) ActiveCount(requesterKey string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeCountLocked(requesterKey)
}

// RemainingFor returns the requester's quota headroom in the current
// projection.
func (e *Engine) RemainingFor(requesterKey string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Remaining(e.activeCountLocked(requesterKey), e.maxPerRequester)
}

// Submit attempts to queue a song for the session's requester.
//
// Quota and duplicate checks run against the freshest projection, then the
// backend re-validates; either side may reject. On acceptance the
// authoritative echo is folded into the projection. On any error the
// projection is left untouched, so a failed submission never shows a
// speculative entry.
func (e *Engine) Submit(ctx context.Context, session models.UserSession, song models.Song) (*SubmitResult, error) {
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	e.mu.Lock()
	active := e.activeCountLocked(session.RequesterKey)
	duplicate := e.hasActiveSongLocked(session.RequesterKey, song.ID)
	e.mu.Unlock()

	if !CanRequest(active, e.maxPerRequester) {
		return &SubmitResult{Outcome: SubmitQuotaExceeded, Remaining: 0}, nil
	}
	if duplicate {
		return &SubmitResult{
			Outcome:   SubmitDuplicate,
			Remaining: Remaining(active, e.maxPerRequester),
		}, nil
	}

	echo, err := e.backend.SubmitRequest(ctx, e.restaurantSlug, session.RequesterKey, song, shared.GenerateID())
	if err != nil {
		// The backend may reject on state the local projection has not seen
		// yet. Those verdicts are outcomes here too.
		switch {
		case errors.Is(err, shared.ErrQuotaExceeded):
			return &SubmitResult{Outcome: SubmitQuotaExceeded, Remaining: 0}, nil
		case errors.Is(err, shared.ErrDuplicateRequest):
			return &SubmitResult{
				Outcome:   SubmitDuplicate,
				Remaining: Remaining(active, e.maxPerRequester),
			}, nil
		default:
			return nil, err
		}
	}

	e.mu.Lock()
	e.upsertLocked(*echo)
	e.canonicalizeLocked()
	remaining := Remaining(e.activeCountLocked(session.RequesterKey), e.maxPerRequester)
	accepted := e.findLocked(echo.ID)
	result := &SubmitResult{Outcome: SubmitAccepted, Request: accepted, Remaining: remaining}
	e.mu.Unlock()

	e.logger.Debug("request accepted", "request_id", echo.ID, "position", echo.QueuePosition)
	return result, nil
}

// Cancel cancels a pending request. Requests that are playing or already
// terminal are rejected with [shared.ErrNotPending] and the remaining
// positions are left untouched.
func (e *Engine) Cancel(ctx context.Context, requestID, cancelledBy string) error {
	e.mu.Lock()
	target := e.findLocked(requestID)
	if target == nil {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", shared.ErrRequestNotFound, requestID)
	}
	if target.Status != models.StatusPending {
		status := target.Status
		e.mu.Unlock()
		return fmt.Errorf("%w: request is %s", shared.ErrNotPending, status)
	}
	e.mu.Unlock()

	if err := e.backend.CancelRequest(ctx, requestID, cancelledBy); err != nil {
		return err
	}

	e.mu.Lock()
	if req := e.findLocked(requestID); req != nil {
		req.Status = models.StatusCancelled
		req.CancelledBy = cancelledBy
		req.QueuePosition = 0
	}
	e.canonicalizeLocked()
	e.mu.Unlock()

	e.logger.Debug("request cancelled", "request_id", requestID, "cancelled_by", cancelledBy)
	return nil
}

// Advance completes the playing request and promotes the head of the pending
// queue. Returns the promoted request, or nil when the queue is drained.
func (e *Engine) Advance(ctx context.Context) (*models.Request, error) {
	promoted, err := e.backend.AdvanceQueue(ctx, e.restaurantSlug)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	e.mu.Lock()
	for i := range e.requests {
		if e.requests[i].Status == models.StatusPlaying {
			e.requests[i].Status = models.StatusCompleted
			e.requests[i].CompletedAt = &now
			e.requests[i].QueuePosition = 0
		}
	}
	if promoted != nil {
		e.upsertLocked(*promoted)
	}
	e.canonicalizeLocked()
	e.mu.Unlock()

	if promoted == nil {
		e.logger.Debug("queue drained", "restaurant", e.restaurantSlug)
		return nil, nil
	}

	e.logger.Debug("request promoted", "request_id", promoted.ID)
	return promoted, nil
}

// MoveToTop re-ranks one pending request to position 1, shifting the requests
// it passed down by one. Relative order among the others is preserved.
func (e *Engine) MoveToTop(ctx context.Context, requestID string) error {
	e.mu.Lock()
	target := e.findLocked(requestID)
	if target == nil {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", shared.ErrRequestNotFound, requestID)
	}
	if target.Status != models.StatusPending {
		status := target.Status
		e.mu.Unlock()
		return fmt.Errorf("%w: request is %s", shared.ErrNotPending, status)
	}
	e.mu.Unlock()

	if err := e.backend.MoveToTop(ctx, requestID); err != nil {
		return err
	}

	e.mu.Lock()
	if req := e.findLocked(requestID); req != nil && req.Status == models.StatusPending {
		// Rank ahead of every other pending request; canonicalize assigns
		// the dense positions.
		req.QueuePosition = 0
	}
	e.canonicalizeLocked()
	e.mu.Unlock()

	e.logger.Debug("request moved to top", "request_id", requestID)
	return nil
}

// PositionOf returns the dense 1-based queue position of a pending request.
// Playing and terminal requests report position 0.
func (e *Engine) PositionOf(requestID string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	req := e.findLocked(requestID)
	if req == nil {
		return 0, fmt.Errorf("%w: %s", shared.ErrRequestNotFound, requestID)
	}
	if req.Status != models.StatusPending {
		return 0, nil
	}
	return req.QueuePosition, nil
}

// EstimatedWait converts a queue position into an approximate wait.
// The estimate is a heuristic, position times the configured average song
// length, never a playback promise.
func (e *Engine) EstimatedWait(position int) time.Duration {
	if position <= 0 {
		return 0
	}
	return time.Duration(float64(position) * e.avgSongMinutes * float64(time.Minute))
}

func (e *Engine) activeCountLocked(requesterKey string) int {
	count := 0
	for _, req := range e.requests {
		if req.RequesterKey == requesterKey && req.Status.Active() {
			count++
		}
	}
	return count
}

func (e *Engine) hasActiveSongLocked(requesterKey, songID string) bool {
	for _, req := range e.requests {
		if req.RequesterKey == requesterKey && req.Song.ID == songID && req.Status.Active() {
			return true
		}
	}
	return false
}

func (e *Engine) findLocked(requestID string) *models.Request {
	for i := range e.requests {
		if e.requests[i].ID == requestID {
			return &e.requests[i]
		}
	}
	return nil
}

func (e *Engine) upsertLocked(req models.Request) {
	for i := range e.requests {
		if e.requests[i].ID == req.ID {
			e.requests[i] = req
			return
		}
	}
	e.requests = append(e.requests, req)
}

// canonicalizeLocked sorts the projection and renumbers pending requests into
// a dense 1-based sequence.
//
// Pending order is deterministic: server position first, then requested_at,
// then request id, so two requests landing in the same millisecond still sort
// identically on every client.
func (e *Engine) canonicalizeLocked() {
	sort.SliceStable(e.requests, func(i, j int) bool {
		a, b := e.requests[i], e.requests[j]
		if ra, rb := statusRank(a.Status), statusRank(b.Status); ra != rb {
			return ra < rb
		}
		if a.Status == models.StatusPending {
			if a.QueuePosition != b.QueuePosition {
				return a.QueuePosition < b.QueuePosition
			}
			if !a.RequestedAt.Equal(b.RequestedAt) {
				return a.RequestedAt.Before(b.RequestedAt)
			}
			return a.ID < b.ID
		}
		return a.RequestedAt.Before(b.RequestedAt)
	})

	position := 0
	for i := range e.requests {
		if e.requests[i].Status == models.StatusPending {
			position++
			e.requests[i].QueuePosition = position
		} else {
			e.requests[i].QueuePosition = 0
		}
	}
}

func statusRank(s models.RequestStatus) int {
	switch s {
	case models.StatusPlaying:
		return 0
	case models.StatusPending:
		return 1
	case models.StatusCompleted:
		return 2
	default:
		return 3
	}
}
