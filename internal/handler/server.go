// Package handler implements the HTTP presentation boundary of the trip
// planner. All handlers are methods on Server; they are split into files by
// concern (health.go, trip.go, share.go, events.go, dashboard.go, export.go)
// but share the same Server struct and its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/trip-planner/backend/internal/domain"
	"github.com/pkordes/trip-planner/backend/internal/service"
	"github.com/pkordes/trip-planner/backend/spec"
)

// SessionController defines the sharing operations the handlers depend on.
// Defining the interface here, in the consumer package, lets handler tests
// inject a mock without a session or any store behind it.
type SessionController interface {
	CreateTrip(ctx context.Context) (string, error)
	JoinTrip(ctx context.Context, code string) (string, error)
	Disconnect(ctx context.Context) error
	Status() service.Status
}

// Itinerary defines the entity operations on the trip document.
type Itinerary interface {
	Document() domain.TripDocument
	AddDay(ctx context.Context, day domain.Day) (domain.Day, error)
	DeleteDay(ctx context.Context, id string) error
	AddActivity(ctx context.Context, dayID string, a domain.Activity) (domain.Activity, error)
	DeleteActivity(ctx context.Context, dayID, activityID string) error
	AddFlight(ctx context.Context, f domain.Flight) (domain.Flight, error)
	DeleteFlight(ctx context.Context, id string) error
	AddHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error)
	DeleteHotel(ctx context.Context, id string) error
	AddAttraction(ctx context.Context, a domain.Attraction) (domain.Attraction, error)
	DeleteAttraction(ctx context.Context, id string) error
	AddPackingItem(ctx context.Context, category domain.PackingCategory, name string) (domain.PackingItem, error)
	TogglePackingItem(ctx context.Context, category domain.PackingCategory, id string) (domain.PackingItem, error)
	DeletePackingItem(ctx context.Context, category domain.PackingCategory, id string) error
	AddBudgetItem(ctx context.Context, b domain.BudgetItem) (domain.BudgetItem, error)
	DeleteBudgetItem(ctx context.Context, id string) error
}

type Dashboarder interface {
	Dashboard() domain.Dashboard
}

type Exporter interface {
	Export() []domain.ExportRow
}

// RerenderFeed hands out rerender signals; *notify.Broadcaster satisfies it.
type RerenderFeed interface {
	Subscribe() (<-chan struct{}, func())
}

// Server holds every dependency the handlers need.
type Server struct {
	session   SessionController
	trip      Itinerary
	dashboard Dashboarder
	export    Exporter
	events    RerenderFeed
	log       *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(session SessionController, trip Itinerary, dashboard Dashboarder, export Exporter, events RerenderFeed, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{session: session, trip: trip, dashboard: dashboard, export: export, events: events, log: log}
}

// Routes registers every endpoint on r. joinLimit wraps POST /trip/join
// only; pass nil for no limit.
func (s *Server) Routes(r chi.Router, joinLimit func(http.Handler) http.Handler) {
	if joinLimit == nil {
		joinLimit = func(next http.Handler) http.Handler { return next }
	}

	r.Get("/healthz", s.getHealth)
	r.Get("/openapi.yaml", serveOpenAPI)

	r.Route("/trip", func(r chi.Router) {
		r.Get("/", s.getTrip)
		r.Get("/status", s.getStatus)
		r.Get("/events", s.streamEvents)
		r.Get("/dashboard", s.getDashboard)
		r.Get("/export", s.getExport)

		r.Post("/share", s.createShare)
		r.Delete("/share", s.deleteShare)
		r.With(joinLimit).Post("/join", s.joinShare)

		r.Post("/days", s.addDay)
		r.Delete("/days/{dayID}", s.deleteDay)
		r.Post("/days/{dayID}/activities", s.addActivity)
		r.Delete("/days/{dayID}/activities/{activityID}", s.deleteActivity)

		r.Post("/flights", s.addFlight)
		r.Delete("/flights/{id}", s.deleteFlight)
		r.Post("/hotels", s.addHotel)
		r.Delete("/hotels/{id}", s.deleteHotel)
		r.Post("/attractions", s.addAttraction)
		r.Delete("/attractions/{id}", s.deleteAttraction)
		r.Post("/budget", s.addBudgetItem)
		r.Delete("/budget/{id}", s.deleteBudgetItem)

		r.Post("/packing/{category}", s.addPackingItem)
		r.Post("/packing/{category}/{id}/toggle", s.togglePackingItem)
		r.Delete("/packing/{category}/{id}", s.deletePackingItem)
	})
}

// serveOpenAPI handles GET /openapi.yaml.
func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec.OpenAPI)
}
