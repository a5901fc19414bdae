// Package handler implements the HTTP API of the NexTrip backend.
// Every endpoint is a method on Server; the methods are split into
// domain-specific files (trip.go, me.go, tracking.go, ...) but all share the
// same Server struct so they can reach its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/nexttrip/backend/internal/domain"
	"github.com/pkordes/nexttrip/backend/internal/events"
	"github.com/pkordes/nexttrip/backend/internal/geo"
	"github.com/pkordes/nexttrip/backend/internal/middleware"
	"github.com/pkordes/nexttrip/backend/internal/service"
)

// TripServicer defines the trip operations the handlers depend on.
// Declaring it here, in the consumer package, lets handler tests inject a
// hand-written mock instead of a real service.
type TripServicer interface {
	List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int, error)
	Search(ctx context.Context, query string) ([]domain.Trip, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	Create(ctx context.Context, in domain.TripInput) (domain.Trip, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Duplicate(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	Start(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	Complete(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	Cancel(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	Stats(ctx context.Context) (domain.TripStats, error)
	Count(ctx context.Context) (int, error)

	SetCurrent(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	Current(ctx context.Context) (domain.Trip, error)
	ClearCurrent(ctx context.Context) error

	AddItineraryItem(ctx context.Context, tripID uuid.UUID, in domain.ItineraryInput) (domain.ItineraryItem, error)
	UpdateItineraryItem(ctx context.Context, tripID, itemID uuid.UUID, patch domain.ItineraryPatch) (domain.ItineraryItem, error)
	DeleteItineraryItem(ctx context.Context, tripID, itemID uuid.UUID) error
	AddExpense(ctx context.Context, tripID uuid.UUID, in domain.ExpenseInput) (domain.Expense, error)
	ExpenseSummary(ctx context.Context, tripID uuid.UUID) (domain.ExpenseSummary, error)
	AddChecklistItem(ctx context.Context, tripID uuid.UUID, in domain.ChecklistInput) (domain.ChecklistItem, error)
	ToggleChecklistItem(ctx context.Context, tripID, itemID uuid.UUID) (domain.ChecklistItem, error)
}

// SessionServicer covers authentication and the signed-in user's account.
type SessionServicer interface {
	SignUp(ctx context.Context, in service.SignUpInput) (service.Session, error)
	SignIn(ctx context.Context, email, password string) (service.Session, error)
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) (string, error)

	Current(ctx context.Context) (domain.User, error)
	HasPermission(ctx context.Context, p domain.Permission) bool
	UpdateProfile(ctx context.Context, name string) (domain.User, error)
	UpdatePreferences(ctx context.Context, p domain.PreferencesPatch) (domain.User, error)
	UpgradeTier(ctx context.Context, tier domain.Tier) (domain.User, error)
	ChangePassword(ctx context.Context, current, next, confirm string) error
	AddPoints(ctx context.Context, n int) (domain.User, error)
	DeductPoints(ctx context.Context, n int) (domain.User, error)
	ClaimReward(ctx context.Context) (domain.User, error)
	Badges(ctx context.Context, tripCount, memoryCount int) ([]domain.Badge, error)
	DeleteAccount(ctx context.Context) error
}

// TimelineServicer is the append-only memory timeline.
type TimelineServicer interface {
	Add(ctx context.Context, in domain.MemoryInput) (domain.Memory, error)
	List(ctx context.Context) ([]domain.Memory, error)
	Count(ctx context.Context) (int, error)
}

// TrackerServicer runs location tracking and route simulation.
type TrackerServicer interface {
	Status() service.TrackerStatus
	Record(ctx context.Context, f service.Fix) (domain.Memory, error)
	Watch(ctx context.Context) error
	Push(ctx context.Context, f service.Fix) error
	Simulate(ctx context.Context) error
	Stop()
}

// MapServicer is the server-side map view clients render from.
type MapServicer interface {
	geo.MapView
	Snapshot() geo.Snapshot
}

// SettingsServicer owns the theme.
type SettingsServicer interface {
	Theme(ctx context.Context) (domain.Theme, error)
	SetTheme(ctx context.Context, t domain.Theme) (domain.Theme, error)
	ToggleTheme(ctx context.Context) (domain.Theme, error)
}

// ExportServicer renders downloads and imports trip files.
type ExportServicer interface {
	TripJSON(ctx context.Context, id uuid.UUID) ([]byte, error)
	TripCSV(ctx context.Context, id uuid.UUID) ([]byte, error)
	TripPDF(ctx context.Context, id uuid.UUID) ([]byte, error)
	ImportTrip(ctx context.Context, data []byte) (domain.Trip, bool, error)
	DataJSON(ctx context.Context) ([]byte, error)
	GPX(ctx context.Context) ([]byte, error)
}

// EventSource hands out change-notification subscriptions.
type EventSource interface {
	Subscribe(buffer int) (<-chan events.Event, func())
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker func(ctx context.Context) error

// Deps are the Server's collaborators. Any may be nil in tests that do not
// reach the routes using it.
type Deps struct {
	Trips    TripServicer
	Session  SessionServicer
	Timeline TimelineServicer
	Tracker  TrackerServicer
	Map      MapServicer
	Settings SettingsServicer
	Export   ExportServicer
	Events   EventSource
	Tokens   middleware.TokenParser
	Health   HealthChecker
	Log      *slog.Logger

	// Metrics, when set, is served at /metrics.
	Metrics http.Handler
	// OpenAPI is the raw document served at /openapi.yaml.
	OpenAPI []byte
	// Heartbeat is the SSE keep-alive interval; 25s when zero.
	Heartbeat time.Duration
}

// Server implements every API endpoint.
type Server struct {
	trips     TripServicer
	session   SessionServicer
	timeline  TimelineServicer
	tracker   TrackerServicer
	mapView   MapServicer
	settings  SettingsServicer
	export    ExportServicer
	events    EventSource
	tokens    middleware.TokenParser
	health    HealthChecker
	log       *slog.Logger
	metrics   http.Handler
	openAPI   []byte
	heartbeat time.Duration
}

// NewServer constructs the Server with all its dependencies.
func NewServer(d Deps) *Server {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Heartbeat <= 0 {
		d.Heartbeat = 25 * time.Second
	}
	return &Server{
		trips:     d.Trips,
		session:   d.Session,
		timeline:  d.Timeline,
		tracker:   d.Tracker,
		mapView:   d.Map,
		settings:  d.Settings,
		export:    d.Export,
		events:    d.Events,
		tokens:    d.Tokens,
		health:    d.Health,
		log:       d.Log,
		metrics:   d.Metrics,
		openAPI:   d.OpenAPI,
		heartbeat: d.Heartbeat,
	}
}

// Routes returns the router for the whole API. Cross-cutting middleware
// (request ids, logging, CORS, limits) is applied by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public: no token exists yet, or the caller is recovering one.
		r.Post("/auth/signup", s.SignUp)
		r.Post("/auth/signin", s.SignIn)
		r.Post("/auth/reset-password", s.ResetPassword)

		r.Group(func(r chi.Router) {
			if s.tokens != nil {
				r.Use(middleware.RequireAuth(s.tokens, s.session))
			}

			r.Post("/auth/signout", s.SignOut)

			r.Route("/me", func(r chi.Router) {
				r.Get("/", s.GetMe)
				r.Patch("/", s.UpdateMe)
				r.Delete("/", s.DeleteMe)
				r.Patch("/preferences", s.UpdatePreferences)
				r.Put("/password", s.ChangePassword)
				r.Put("/tier", s.UpgradeTier)
				r.Post("/points", s.AdjustPoints)
				r.Post("/reward", s.ClaimReward)
				r.Get("/badges", s.GetBadges)
				r.Get("/permissions/{perm}", s.CheckPermission)
			})

			r.Route("/trips", func(r chi.Router) {
				r.Get("/", s.ListTrips)
				r.Post("/", s.CreateTrip)
				r.Post("/import", s.ImportTrip)
				r.Get("/stats", s.GetTripStats)
				r.Get("/current", s.GetCurrentTrip)
				r.Put("/current", s.SetCurrentTrip)
				r.Delete("/current", s.ClearCurrentTrip)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.GetTrip)
					r.Patch("/", s.UpdateTrip)
					r.Delete("/", s.DeleteTrip)
					r.Post("/duplicate", s.DuplicateTrip)
					r.Post("/start", s.StartTrip)
					r.Post("/complete", s.CompleteTrip)
					r.Post("/cancel", s.CancelTrip)
					r.Get("/export", s.ExportTrip)

					r.Post("/itinerary", s.AddItineraryItem)
					r.Patch("/itinerary/{itemId}", s.UpdateItineraryItem)
					r.Delete("/itinerary/{itemId}", s.DeleteItineraryItem)
					r.Post("/expenses", s.AddExpense)
					r.Get("/expenses/summary", s.GetExpenseSummary)
					r.Post("/checklist", s.AddChecklistItem)
					r.Post("/checklist/{itemId}/toggle", s.ToggleChecklistItem)
				})
			})

			r.Get("/memories", s.ListMemories)
			r.Post("/memories", s.AddMemory)

			r.Get("/tracking", s.GetTrackingStatus)
			r.Post("/tracking/fix", s.RecordFix)
			r.Post("/tracking/watch", s.StartWatch)
			r.Post("/tracking/simulate", s.SimulateRoute)
			r.Post("/tracking/stop", s.StopTracking)

			r.Get("/map", s.GetMap)
			r.Get("/map/geocode", s.Geocode)
			r.Get("/map/destinations", s.PopularDestinations)
			r.Post("/map/route", s.PlanRoute)
			r.Get("/map/distance", s.GetDistance)

			r.Get("/settings/theme", s.GetTheme)
			r.Put("/settings/theme", s.SetTheme)
			r.Post("/settings/theme/toggle", s.ToggleTheme)

			r.Get("/export/data", s.ExportData)
			r.Get("/export/gpx", s.ExportGPX)

			r.Get("/events", s.StreamEvents)
		})
	})
	return r
}
