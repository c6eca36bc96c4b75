package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/rockolahq/rockola/internal/favorites"
	"github.com/rockolahq/rockola/internal/models"
	"github.com/rockolahq/rockola/internal/queue"
	"github.com/rockolahq/rockola/internal/repositories"
	"github.com/rockolahq/rockola/internal/services"
	"github.com/rockolahq/rockola/internal/session"
	"github.com/rockolahq/rockola/internal/shared"
	"github.com/rockolahq/rockola/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	backend services.Backend
	http    *services.HTTPBackend
	logger  *log.Logger
	output  io.Writer

	db       *sql.DB
	sessions *session.Manager
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Backend services.Backend
	HTTP    *services.HTTPBackend
	Logger  *log.Logger
	Output  io.Writer
	DB      *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Backend == nil {
		http := services.NewHTTPBackend(services.HTTPBackendOpts{
			BaseURL:   opts.Config.Backend.BaseURL,
			Timeout:   opts.Config.Backend.Timeout(),
			RateLimit: opts.Config.Backend.RateLimit,
		})
		opts.Backend = http
		opts.HTTP = http
	}

	return &Runner{
		config:  opts.Config,
		backend: opts.Backend,
		http:    opts.HTTP,
		logger:  opts.Logger,
		output:  opts.Output,
		db:      opts.DB,
	}
}

// SetLogger swaps the runner's logger, used when the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// database lazily opens the local SQLite database and ensures migrations ran.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	return db, nil
}

// sessionManager lazily builds the session manager over the local store.
func (r *Runner) sessionManager() (*session.Manager, error) {
	if r.sessions != nil {
		return r.sessions, nil
	}

	db, err := r.database()
	if err != nil {
		// Sessions still work without persistence; they just won't survive
		// process restarts.
		r.logger.Warn("session persistence unavailable", "error", err)
		r.sessions = session.NewManager(r.backend, nil, r.logger)
		return r.sessions, nil
	}

	r.sessions = session.NewManager(r.backend, repositories.NewSessionRepository(db), r.logger)
	return r.sessions, nil
}

// resolveSession establishes the requester session for a restaurant scope.
func (r *Runner) resolveSession(ctx context.Context, restaurantSlug, registeredUserID string) (*models.UserSession, error) {
	mgr, err := r.sessionManager()
	if err != nil {
		return nil, err
	}

	sess, err := mgr.Resolve(ctx, restaurantSlug, registeredUserID)
	if err != nil {
		return nil, err
	}
	if r.http != nil && sess.Token != "" {
		r.http.SetToken(sess.Token)
	}
	return sess, nil
}

// engineFor builds a queue engine scoped to one restaurant.
func (r *Runner) engineFor(restaurantSlug string) *queue.Engine {
	return queue.NewEngine(queue.EngineOpts{
		Backend:            r.backend,
		RestaurantSlug:     restaurantSlug,
		MaxPerRequester:    r.config.Queue.MaxActivePerRequester,
		AverageSongMinutes: r.config.Queue.AverageSongMinutes,
		Logger:             r.logger,
	})
}

// pollerFor builds a sync poller feeding the engine. The requester view polls
// only the requester's own requests; the operator view polls the full queue.
func (r *Runner) pollerFor(engine *queue.Engine, requesterKey string, operator bool) *tasks.Poller {
	var fetch tasks.Fetch
	interval := r.config.Sync.Interval()

	if operator {
		interval = r.config.Sync.OperatorInterval()
		fetch = func(ctx context.Context) ([]models.Request, error) {
			return r.backend.QueueForRestaurant(ctx, engine.RestaurantSlug())
		}
	} else {
		fetch = func(ctx context.Context) ([]models.Request, error) {
			return r.backend.RequestsForRequester(ctx, engine.RestaurantSlug(), requesterKey)
		}
	}

	return tasks.NewPoller(tasks.PollerOpts{
		Fetch:    fetch,
		Sink:     engine,
		Interval: interval,
		Logger:   r.logger,
	})
}

// syncedEngine builds an engine and primes it with one poll so quota and
// duplicate checks run against fresh state.
func (r *Runner) syncedEngine(ctx context.Context, restaurantSlug, requesterKey string, operator bool) (*queue.Engine, *tasks.Poller, error) {
	engine := r.engineFor(restaurantSlug)
	poller := r.pollerFor(engine, requesterKey, operator)
	if err := poller.Tick(ctx); err != nil {
		return nil, nil, fmt.Errorf("initial sync failed: %w", err)
	}
	return engine, poller, nil
}

// favoritesStore builds the favorite store over the local cache.
func (r *Runner) favoritesStore() *favorites.Store {
	var cache favorites.Cache
	if db, err := r.database(); err == nil {
		cache = repositories.NewFavoriteCacheRepository(db)
	} else {
		r.logger.Warn("favorite cache unavailable", "error", err)
	}
	return favorites.NewStore(r.backend, cache, r.logger)
}

// cacheSong records a song in the per-restaurant cache, best effort.
func (r *Runner) cacheSong(restaurantSlug string, song models.Song) {
	db, err := r.database()
	if err != nil {
		return
	}
	if err := repositories.NewSongCacheRepository(db).Cache(restaurantSlug, song); err != nil {
		r.logger.Debug("failed to cache song", "error", err)
	}
}

// Close releases runner resources.
func (r *Runner) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
