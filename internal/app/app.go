// Package app wires the NexTrip backend together: it opens the configured
// store, builds the repos and services on top of it, and assembles the HTTP
// handler with its middleware. Both cmd/api and the nexttrip CLI start here.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/pkordes/nexttrip/backend/internal/auth"
	"github.com/pkordes/nexttrip/backend/internal/config"
	"github.com/pkordes/nexttrip/backend/internal/events"
	"github.com/pkordes/nexttrip/backend/internal/geo"
	"github.com/pkordes/nexttrip/backend/internal/handler"
	"github.com/pkordes/nexttrip/backend/internal/middleware"
	"github.com/pkordes/nexttrip/backend/internal/repo"
	"github.com/pkordes/nexttrip/backend/internal/service"
	"github.com/pkordes/nexttrip/backend/spec"
)

// limiterPruneInterval is how often idle per-client rate limiters are dropped.
const limiterPruneInterval = time.Minute

// App holds every long-lived component of a running backend.
type App struct {
	cfg     config.Config
	log     *slog.Logger
	backend Backend

	Bus      *events.Bus
	Tokens   *auth.Issuer
	Session  *service.SessionService
	Trips    *service.TripService
	Timeline *service.TimelineService
	Settings *service.SettingsService
	Export   *service.ExportService
	Tracker  *service.Tracker
	Map      *geo.Recorder
	Sweeper  *service.StatusSweeper

	metrics *middleware.Metrics
	limiter *middleware.RateLimiter
	reloads *prometheus.CounterVec

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New opens the store named by cfg and builds the services over it.
// Nothing runs in the background until Start.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	backend, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a, err := NewWithStore(cfg, log, backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return a, nil
}

// NewWithStore builds the services over an already opened backend.
// Tests use it with an in-memory store.
func NewWithStore(cfg config.Config, log *slog.Logger, backend Backend) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	registry, err := service.NewRegistry(service.DemoPassword, bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	store := backend.Store
	bus := events.NewBus()
	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	settingsRepo := repo.NewSettingsRepo(store, log)

	session := service.NewSessionService(repo.NewUserRepo(store, log), registry, tokens, bus, log, service.SessionOptions{
		SignInDelay: cfg.SignInDelay,
	})
	trips := service.NewTripService(repo.NewTripRepo(store, log), settingsRepo, session, bus, log)
	timeline := service.NewTimelineService(repo.NewMemoryRepo(store, log), session, bus, log)
	session.OnSignOut(trips, timeline)

	view := geo.NewRecorder()
	view.OnChange(func() { bus.Publish(events.Event{Type: events.MapChanged}) })

	sweeper, err := service.NewStatusSweeper(trips, cfg.StatusSweepSchedule, log)
	if err != nil {
		return nil, err
	}

	metrics := middleware.NewMetrics()
	reloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nexttrip_store_reloads_total",
		Help: "Collections reloaded after another process changed the store.",
	}, []string{"key"})
	metrics.Registerer().MustRegister(reloads)

	return &App{
		cfg:      cfg,
		log:      log,
		backend:  backend,
		Bus:      bus,
		Tokens:   tokens,
		Session:  session,
		Trips:    trips,
		Timeline: timeline,
		Settings: service.NewSettingsService(settingsRepo, bus),
		Export:   service.NewExportService(trips, timeline, session),
		Tracker:  service.NewTracker(view, timeline, session, bus, log, service.TrackerOptions{}),
		Map:      view,
		Sweeper:  sweeper,
		metrics:  metrics,
		limiter:  middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		reloads:  reloads,
	}, nil
}

// Start launches the background work: the status sweep, rate limiter
// pruning and, for stores that announce changes, the sync loop that
// reloads collections written by other processes.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	if err := a.Sweeper.Start(ctx); err != nil {
		a.cancel()
		return err
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.limiter.Run(ctx, limiterPruneInterval)
	}()

	if w, ok := a.backend.Store.(repo.Watcher); ok {
		changes, err := w.Watch(ctx)
		if err != nil {
			a.Sweeper.Stop()
			a.cancel()
			return err
		}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.sync(ctx, w.Origin(), changes)
		}()
	}
	return nil
}

// sync applies changes made through other store handles.
func (a *App) sync(ctx context.Context, origin string, changes <-chan repo.Change) {
	for c := range changes {
		if c.Origin == origin {
			continue
		}
		if err := a.apply(ctx, c.Key); err != nil {
			a.log.WarnContext(ctx, "store sync failed", "key", c.Key, "error", err)
			continue
		}
		a.reloads.WithLabelValues(c.Key).Inc()
	}
}

// apply refreshes whatever depends on key and tells subscribers.
func (a *App) apply(ctx context.Context, key string) error {
	switch key {
	case repo.KeyUser:
		if err := a.Session.Reload(ctx); err != nil {
			return err
		}
		a.Bus.Publish(events.Event{Type: events.UserChanged})
	case repo.KeyTrips:
		// Reload publishes TripsChanged itself.
		if err := a.Trips.Reload(ctx); err != nil {
			return err
		}
	case repo.KeyMemories:
		// Reload publishes MemoriesChanged itself.
		if err := a.Timeline.Reload(ctx); err != nil {
			return err
		}
	case repo.KeyTheme:
		a.Bus.Publish(events.Event{Type: events.ThemeChanged})
	case repo.KeyCurrentTrip:
		a.Bus.Publish(events.Event{Type: events.CurrentChanged})
	}
	return nil
}

// Handler returns the complete HTTP handler: the API routes behind
// request ids, logging, panic recovery, CORS, metrics, rate limiting and
// body size limits.
func (a *App) Handler() http.Handler {
	api := handler.NewServer(handler.Deps{
		Trips:    a.Trips,
		Session:  a.Session,
		Timeline: a.Timeline,
		Tracker:  a.Tracker,
		Map:      a.Map,
		Settings: a.Settings,
		Export:   a.Export,
		Events:   a.Bus,
		Tokens:   a.Tokens,
		Health:   handler.HealthChecker(a.backend.Ping),
		Log:      a.log,
		Metrics:  a.metrics.Handler(),
		OpenAPI:  spec.OpenAPI,
	})

	// RequestID → RealIP → Logger → Recoverer, then the API-specific layers.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(a.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(a.cfg.CORSOrigins))
	r.Use(a.metrics.Middleware)
	r.Use(a.limiter.Handler)
	r.Use(middleware.NewMaxBodySizeHandler(a.cfg.MaxBodyBytes))
	r.Mount("/", api.Routes())
	return r
}

// Close stops background work and any running tracker task, then closes
// the event bus and the store.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	a.Tracker.Stop()
	a.Tracker.Wait()
	a.Sweeper.Stop()
	a.wg.Wait()
	a.Bus.Close()
	return a.backend.Close()
}
