package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rockolahq/rockola/internal/models"
	"github.com/rockolahq/rockola/internal/services"
	"github.com/rockolahq/rockola/internal/shared"
	tu "github.com/rockolahq/rockola/internal/testing"
)

var _ services.Backend = (*tu.MockBackend)(nil)

var baseTime = time.Date(2025, 6, 14, 20, 0, 0, 0, time.UTC)

func song(id string) models.Song {
	return models.Song{ID: id, Title: "Song " + id, Artist: "Artist", Origin: models.OriginCatalog}
}

func pendingRequest(id, requesterKey, songID string, position int) models.Request {
	return models.Request{
		ID:             id,
		RestaurantSlug: "la-terraza",
		RequesterKey:   requesterKey,
		Song:           song(songID),
		Status:         models.StatusPending,
		QueuePosition:  position,
		RequestedAt:    baseTime.Add(time.Duration(position) * time.Minute),
	}
}

func testSession(requesterKey string) models.UserSession {
	return models.UserSession{RestaurantSlug: "la-terraza", RequesterKey: requesterKey, IssuedAt: baseTime}
}

// echoBackend accepts every submission and echoes it back with a
// server-assigned id and end-of-queue position.
func echoBackend(nextPos *int) *tu.MockBackend {
	return &tu.MockBackend{
		SubmitRequestFn: func(ctx context.Context, slug, requesterKey string, s models.Song, idemKey string) (*models.Request, error) {
			*nextPos++
			return &models.Request{
				ID:             fmt.Sprintf("srv-%d", *nextPos),
				RestaurantSlug: slug,
				RequesterKey:   requesterKey,
				Song:           s,
				Status:         models.StatusPending,
				QueuePosition:  *nextPos,
				RequestedAt:    baseTime.Add(time.Duration(*nextPos) * time.Second),
			}, nil
		},
	}
}

func newTestEngine(backend services.Backend) *Engine {
	return NewEngine(EngineOpts{
		Backend:        backend,
		RestaurantSlug: "la-terraza",
	})
}

func pendingIDs(e *Engine) []string {
	var ids []string
	for _, req := range e.Pending() {
		ids = append(ids, req.ID)
	}
	return ids
}

func assertDensePositions(t *testing.T, e *Engine) {
	t.Helper()
	for i, req := range e.Pending() {
		if req.QueuePosition != i+1 {
			t.Errorf("position at index %d = %d, want %d (positions must be dense and 1-based)", i, req.QueuePosition, i+1)
		}
	}
}

func TestEngineSubmitQuota(t *testing.T) {
	t.Run("per-requester limit with independent requesters", func(t *testing.T) {
		var pos int
		engine := newTestEngine(echoBackend(&pos))
		ctx := context.Background()

		for i := range 2 {
			res, err := engine.Submit(ctx, testSession("table-4"), song(fmt.Sprintf("x%d", i)))
			if err != nil {
				t.Fatalf("submit %d failed: %v", i, err)
			}
			if res.Outcome != SubmitAccepted {
				t.Fatalf("submit %d outcome = %v, want accepted", i, res.Outcome)
			}
		}

		res, err := engine.Submit(ctx, testSession("table-4"), song("x2"))
		if err != nil {
			t.Fatalf("third submit errored: %v", err)
		}
		if res.Outcome != SubmitQuotaExceeded {
			t.Errorf("third submit outcome = %v, want quota exceeded", res.Outcome)
		}
		if res.Remaining != 0 {
			t.Errorf("remaining = %d, want 0", res.Remaining)
		}

		// Another requester is unaffected by table-4's quota.
		res, err = engine.Submit(ctx, testSession("table-9"), song("y0"))
		if err != nil {
			t.Fatalf("other requester submit failed: %v", err)
		}
		if res.Outcome != SubmitAccepted {
			t.Errorf("other requester outcome = %v, want accepted", res.Outcome)
		}
	})

	t.Run("cancellation frees a slot", func(t *testing.T) {
		var pos int
		engine := newTestEngine(echoBackend(&pos))
		ctx := context.Background()

		first, err := engine.Submit(ctx, testSession("table-4"), song("a"))
		if err != nil || first.Outcome != SubmitAccepted {
			t.Fatalf("setup submit failed: %+v %v", first, err)
		}
		if _, err := engine.Submit(ctx, testSession("table-4"), song("b")); err != nil {
			t.Fatal(err)
		}

		if err := engine.Cancel(ctx, first.Request.ID, "table-4"); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}

		res, err := engine.Submit(ctx, testSession("table-4"), song("c"))
		if err != nil {
			t.Fatal(err)
		}
		if res.Outcome != SubmitAccepted {
			t.Errorf("outcome after cancel = %v, want accepted", res.Outcome)
		}
	})

	t.Run("cancelled song may be re-requested", func(t *testing.T) {
		var pos int
		engine := newTestEngine(echoBackend(&pos))
		ctx := context.Background()

		first, err := engine.Submit(ctx, testSession("table-4"), song("a"))
		if err != nil {
			t.Fatal(err)
		}
		if err := engine.Cancel(ctx, first.Request.ID, "table-4"); err != nil {
			t.Fatal(err)
		}

		res, err := engine.Submit(ctx, testSession("table-4"), song("a"))
		if err != nil {
			t.Fatal(err)
		}
		if res.Outcome != SubmitAccepted {
			t.Errorf("re-request of cancelled song = %v, want accepted", res.Outcome)
		}
	})

	t.Run("duplicate active song is rejected", func(t *testing.T) {
		var pos int
		engine := newTestEngine(echoBackend(&pos))
		ctx := context.Background()

		if _, err := engine.Submit(ctx, testSession("table-4"), song("a")); err != nil {
			t.Fatal(err)
		}
		res, err := engine.Submit(ctx, testSession("table-4"), song("a"))
		if err != nil {
			t.Fatal(err)
		}
		if res.Outcome != SubmitDuplicate {
			t.Errorf("outcome = %v, want duplicate", res.Outcome)
		}
	})
}

func TestEngineSubmitFailure(t *testing.T) {
	t.Run("backend error leaves projection untouched", func(t *testing.T) {
		backend := &tu.MockBackend{
			SubmitRequestFn: func(ctx context.Context, slug, requesterKey string, s models.Song, idemKey string) (*models.Request, error) {
				return nil, fmt.Errorf("%w: boom", shared.ErrBackendRequest)
			},
		}
		engine := newTestEngine(backend)
		engine.Replace([]models.Request{pendingRequest("r1", "table-9", "z", 1)})

		_, err := engine.Submit(context.Background(), testSession("table-4"), song("a"))
		if !errors.Is(err, shared.ErrBackendRequest) {
			t.Fatalf("expected backend error, got %v", err)
		}

		snapshot := engine.Snapshot()
		if len(snapshot) != 1 || snapshot[0].ID != "r1" {
			t.Errorf("failed submit mutated the projection: %+v", snapshot)
		}
	})

	t.Run("server quota verdict becomes an outcome", func(t *testing.T) {
		backend := &tu.MockBackend{
			SubmitRequestFn: func(ctx context.Context, slug, requesterKey string, s models.Song, idemKey string) (*models.Request, error) {
				return nil, fmt.Errorf("%w: limit reached", shared.ErrQuotaExceeded)
			},
		}
		engine := newTestEngine(backend)

		res, err := engine.Submit(context.Background(), testSession("table-4"), song("a"))
		if err != nil {
			t.Fatalf("server quota verdict should not be an error: %v", err)
		}
		if res.Outcome != SubmitQuotaExceeded {
			t.Errorf("outcome = %v, want quota exceeded", res.Outcome)
		}
	})

	t.Run("unknown outcome propagates", func(t *testing.T) {
		backend := &tu.MockBackend{
			SubmitRequestFn: func(ctx context.Context, slug, requesterKey string, s models.Song, idemKey string) (*models.Request, error) {
				return nil, fmt.Errorf("%w: request timed out", shared.ErrUnknownOutcome)
			},
		}
		engine := newTestEngine(backend)

		_, err := engine.Submit(context.Background(), testSession("table-4"), song("a"))
		if !errors.Is(err, shared.ErrUnknownOutcome) {
			t.Errorf("expected ErrUnknownOutcome, got %v", err)
		}
		if len(engine.Snapshot()) != 0 {
			t.Error("unknown outcome must not insert a speculative entry")
		}
	})

	t.Run("missing identity is rejected before the backend is called", func(t *testing.T) {
		backend := &tu.MockBackend{}
		engine := newTestEngine(backend)

		_, err := engine.Submit(context.Background(), models.UserSession{RestaurantSlug: "la-terraza"}, song("a"))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if backend.SubmitCalls != 0 {
			t.Errorf("backend called %d times, want 0", backend.SubmitCalls)
		}
	})
}

func TestEngineCancel(t *testing.T) {
	seed := []models.Request{
		pendingRequest("r1", "table-4", "a", 1),
		pendingRequest("r2", "table-9", "b", 2),
		pendingRequest("r3", "table-4", "c", 3),
	}

	t.Run("cancelling renumbers densely", func(t *testing.T) {
		engine := newTestEngine(&tu.MockBackend{})
		engine.Replace(seed)

		if err := engine.Cancel(context.Background(), "r2", "table-9"); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}

		pending := engine.Pending()
		if len(pending) != 2 {
			t.Fatalf("pending = %d, want 2", len(pending))
		}
		if pending[0].ID != "r1" || pending[1].ID != "r3" {
			t.Errorf("order after cancel: %v", pendingIDs(engine))
		}
		assertDensePositions(t, engine)

		pos, err := engine.PositionOf("r3")
		if err != nil {
			t.Fatal(err)
		}
		if pos != 2 {
			t.Errorf("r3 position = %d, want 2", pos)
		}
	})

	t.Run("cancelled request records who cancelled", func(t *testing.T) {
		engine := newTestEngine(&tu.MockBackend{})
		engine.Replace(seed)

		if err := engine.Cancel(context.Background(), "r1", "operator"); err != nil {
			t.Fatal(err)
		}

		for _, req := range engine.Snapshot() {
			if req.ID == "r1" {
				if req.Status != models.StatusCancelled || req.CancelledBy != "operator" {
					t.Errorf("cancelled request = %+v", req)
				}
			}
		}
	})

	t.Run("non-pending request is rejected without touching positions", func(t *testing.T) {
		backend := &tu.MockBackend{}
		engine := newTestEngine(backend)
		playing := pendingRequest("r0", "table-2", "z", 0)
		playing.Status = models.StatusPlaying
		engine.Replace(append([]models.Request{playing}, seed...))

		before := pendingIDs(engine)

		err := engine.Cancel(context.Background(), "r0", "table-2")
		if !errors.Is(err, shared.ErrNotPending) {
			t.Fatalf("expected ErrNotPending, got %v", err)
		}
		if backend.CancelCalls != 0 {
			t.Errorf("backend called %d times, want 0", backend.CancelCalls)
		}

		after := pendingIDs(engine)
		if len(before) != len(after) {
			t.Fatalf("pending changed: %v -> %v", before, after)
		}
		for i := range before {
			if before[i] != after[i] {
				t.Errorf("pending changed: %v -> %v", before, after)
			}
		}
		assertDensePositions(t, engine)
	})

	t.Run("unknown request id", func(t *testing.T) {
		engine := newTestEngine(&tu.MockBackend{})
		engine.Replace(seed)

		if err := engine.Cancel(context.Background(), "ghost", "table-4"); !errors.Is(err, shared.ErrRequestNotFound) {
			t.Errorf("expected ErrRequestNotFound, got %v", err)
		}
	})

	t.Run("backend failure leaves projection untouched", func(t *testing.T) {
		backend := &tu.MockBackend{
			CancelRequestFn: func(ctx context.Context, requestID, cancelledBy string) error {
				return fmt.Errorf("%w: boom", shared.ErrBackendRequest)
			},
		}
		engine := newTestEngine(backend)
		engine.Replace(seed)

		if err := engine.Cancel(context.Background(), "r2", "table-9"); err == nil {
			t.Fatal("expected error")
		}
		if len(engine.Pending()) != 3 {
			t.Errorf("failed cancel mutated the projection: %v", pendingIDs(engine))
		}
	})
}

func TestEngineAdvance(t *testing.T) {
	t.Run("completes playing and promotes the head", func(t *testing.T) {
		playing := pendingRequest("r0", "table-2", "z", 0)
		playing.Status = models.StatusPlaying

		promoted := pendingRequest("r1", "table-4", "a", 1)
		promoted.Status = models.StatusPlaying
		promoted.QueuePosition = 0

		backend := &tu.MockBackend{
			AdvanceQueueFn: func(ctx context.Context, slug string) (*models.Request, error) {
				return &promoted, nil
			},
		}
		engine := newTestEngine(backend)
		engine.Replace([]models.Request{
			playing,
			pendingRequest("r1", "table-4", "a", 1),
			pendingRequest("r2", "table-9", "b", 2),
		})

		got, err := engine.Advance(context.Background())
		if err != nil {
			t.Fatalf("advance failed: %v", err)
		}
		if got == nil || got.ID != "r1" {
			t.Fatalf("promoted = %+v, want r1", got)
		}

		if p := engine.Playing(); p == nil || p.ID != "r1" {
			t.Errorf("playing = %+v, want r1", p)
		}
		pending := engine.Pending()
		if len(pending) != 1 || pending[0].ID != "r2" || pending[0].QueuePosition != 1 {
			t.Errorf("pending after advance: %+v", pending)
		}

		for _, req := range engine.Snapshot() {
			if req.ID == "r0" {
				if req.Status != models.StatusCompleted || req.CompletedAt == nil {
					t.Errorf("previous playing request not completed: %+v", req)
				}
			}
		}
	})

	t.Run("drained queue returns nil", func(t *testing.T) {
		playing := pendingRequest("r0", "table-2", "z", 0)
		playing.Status = models.StatusPlaying

		backend := &tu.MockBackend{}
		engine := newTestEngine(backend)
		engine.Replace([]models.Request{playing})

		got, err := engine.Advance(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got != nil {
			t.Errorf("promoted = %+v, want nil", got)
		}
		if engine.Playing() != nil {
			t.Error("queue should have no playing request after draining")
		}
	})
}

func TestEngineMoveToTop(t *testing.T) {
	engine := newTestEngine(&tu.MockBackend{})
	engine.Replace([]models.Request{
		pendingRequest("r1", "table-4", "a", 1),
		pendingRequest("r2", "table-9", "b", 2),
		pendingRequest("r3", "table-2", "c", 3),
	})

	if err := engine.MoveToTop(context.Background(), "r3"); err != nil {
		t.Fatalf("move to top failed: %v", err)
	}

	ids := pendingIDs(engine)
	want := []string{"r3", "r1", "r2"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order after move = %v, want %v", ids, want)
		}
	}
	assertDensePositions(t, engine)

	t.Run("non-pending request is rejected", func(t *testing.T) {
		playing := pendingRequest("r0", "table-2", "z", 0)
		playing.Status = models.StatusPlaying
		e := newTestEngine(&tu.MockBackend{})
		e.Replace([]models.Request{playing, pendingRequest("r1", "table-4", "a", 1)})

		if err := e.MoveToTop(context.Background(), "r0"); !errors.Is(err, shared.ErrNotPending) {
			t.Errorf("expected ErrNotPending, got %v", err)
		}
	})
}

func TestEngineOrdering(t *testing.T) {
	t.Run("identical timestamps break ties by id", func(t *testing.T) {
		at := baseTime
		a := models.Request{ID: "bbb", RestaurantSlug: "la-terraza", RequesterKey: "t1", Song: song("1"), Status: models.StatusPending, QueuePosition: 1, RequestedAt: at}
		b := models.Request{ID: "aaa", RestaurantSlug: "la-terraza", RequesterKey: "t2", Song: song("2"), Status: models.StatusPending, QueuePosition: 1, RequestedAt: at}

		engine := newTestEngine(&tu.MockBackend{})
		engine.Replace([]models.Request{a, b})

		first := pendingIDs(engine)

		// Feeding the same set in the other order must produce the same
		// ranking on every client.
		engine.Replace([]models.Request{b, a})
		second := pendingIDs(engine)

		if first[0] != "aaa" || second[0] != "aaa" || first[1] != second[1] {
			t.Errorf("ordering not deterministic: %v vs %v", first, second)
		}
		assertDensePositions(t, engine)
	})

	t.Run("replace is wholesale", func(t *testing.T) {
		engine := newTestEngine(&tu.MockBackend{})
		engine.Replace([]models.Request{
			pendingRequest("r1", "table-4", "a", 1),
			pendingRequest("r2", "table-9", "b", 2),
		})

		engine.Replace([]models.Request{pendingRequest("r9", "table-1", "q", 1)})

		snapshot := engine.Snapshot()
		if len(snapshot) != 1 || snapshot[0].ID != "r9" {
			t.Errorf("stale entries survived replacement: %+v", snapshot)
		}
	})
}

func TestEngineEstimatedWait(t *testing.T) {
	engine := NewEngine(EngineOpts{
		Backend:            &tu.MockBackend{},
		RestaurantSlug:     "la-terraza",
		AverageSongMinutes: 3.5,
	})

	tests := []struct {
		position int
		want     time.Duration
	}{
		{0, 0},
		{1, 3*time.Minute + 30*time.Second},
		{3, 10*time.Minute + 30*time.Second},
	}

	for _, tt := range tests {
		if got := engine.EstimatedWait(tt.position); got != tt.want {
			t.Errorf("EstimatedWait(%d) = %v, want %v", tt.position, got, tt.want)
		}
	}
}
