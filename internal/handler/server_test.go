package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/backend/internal/domain"
	"github.com/pkordes/trip-planner/backend/internal/handler"
	"github.com/pkordes/trip-planner/backend/internal/service"
)

// mockSession is a test double for handler.SessionController.
// Set only the method fields your test needs.
type mockSession struct {
	create     func(ctx context.Context) (string, error)
	join       func(ctx context.Context, code string) (string, error)
	disconnect func(ctx context.Context) error
	status     service.Status
}

func (m *mockSession) CreateTrip(ctx context.Context) (string, error) { return m.create(ctx) }
func (m *mockSession) JoinTrip(ctx context.Context, code string) (string, error) {
	return m.join(ctx, code)
}
func (m *mockSession) Disconnect(ctx context.Context) error { return m.disconnect(ctx) }
func (m *mockSession) Status() service.Status               { return m.status }

var _ handler.SessionController = (*mockSession)(nil)

// mockItinerary is a test double for handler.Itinerary.
type mockItinerary struct {
	document          func() domain.TripDocument
	addDay            func(ctx context.Context, day domain.Day) (domain.Day, error)
	deleteDay         func(ctx context.Context, id string) error
	addActivity       func(ctx context.Context, dayID string, a domain.Activity) (domain.Activity, error)
	deleteActivity    func(ctx context.Context, dayID, activityID string) error
	addFlight         func(ctx context.Context, f domain.Flight) (domain.Flight, error)
	deleteFlight      func(ctx context.Context, id string) error
	addHotel          func(ctx context.Context, h domain.Hotel) (domain.Hotel, error)
	deleteHotel       func(ctx context.Context, id string) error
	addAttraction     func(ctx context.Context, a domain.Attraction) (domain.Attraction, error)
	deleteAttraction  func(ctx context.Context, id string) error
	addPackingItem    func(ctx context.Context, c domain.PackingCategory, name string) (domain.PackingItem, error)
	togglePackingItem func(ctx context.Context, c domain.PackingCategory, id string) (domain.PackingItem, error)
	deletePackingItem func(ctx context.Context, c domain.PackingCategory, id string) error
	addBudgetItem     func(ctx context.Context, b domain.BudgetItem) (domain.BudgetItem, error)
	deleteBudgetItem  func(ctx context.Context, id string) error
}

func (m *mockItinerary) Document() domain.TripDocument { return m.document() }
func (m *mockItinerary) AddDay(ctx context.Context, d domain.Day) (domain.Day, error) {
	return m.addDay(ctx, d)
}
func (m *mockItinerary) DeleteDay(ctx context.Context, id string) error { return m.deleteDay(ctx, id) }
func (m *mockItinerary) AddActivity(ctx context.Context, dayID string, a domain.Activity) (domain.Activity, error) {
	return m.addActivity(ctx, dayID, a)
}
func (m *mockItinerary) DeleteActivity(ctx context.Context, dayID, activityID string) error {
	return m.deleteActivity(ctx, dayID, activityID)
}
func (m *mockItinerary) AddFlight(ctx context.Context, f domain.Flight) (domain.Flight, error) {
	return m.addFlight(ctx, f)
}
func (m *mockItinerary) DeleteFlight(ctx context.Context, id string) error {
	return m.deleteFlight(ctx, id)
}
func (m *mockItinerary) AddHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	return m.addHotel(ctx, h)
}
func (m *mockItinerary) DeleteHotel(ctx context.Context, id string) error {
	return m.deleteHotel(ctx, id)
}
func (m *mockItinerary) AddAttraction(ctx context.Context, a domain.Attraction) (domain.Attraction, error) {
	return m.addAttraction(ctx, a)
}
func (m *mockItinerary) DeleteAttraction(ctx context.Context, id string) error {
	return m.deleteAttraction(ctx, id)
}
func (m *mockItinerary) AddPackingItem(ctx context.Context, c domain.PackingCategory, name string) (domain.PackingItem, error) {
	return m.addPackingItem(ctx, c, name)
}
func (m *mockItinerary) TogglePackingItem(ctx context.Context, c domain.PackingCategory, id string) (domain.PackingItem, error) {
	return m.togglePackingItem(ctx, c, id)
}
func (m *mockItinerary) DeletePackingItem(ctx context.Context, c domain.PackingCategory, id string) error {
	return m.deletePackingItem(ctx, c, id)
}
func (m *mockItinerary) AddBudgetItem(ctx context.Context, b domain.BudgetItem) (domain.BudgetItem, error) {
	return m.addBudgetItem(ctx, b)
}
func (m *mockItinerary) DeleteBudgetItem(ctx context.Context, id string) error {
	return m.deleteBudgetItem(ctx, id)
}

var _ handler.Itinerary = (*mockItinerary)(nil)

type stubDashboard struct{ dashboard domain.Dashboard }

func (s stubDashboard) Dashboard() domain.Dashboard { return s.dashboard }

type stubExporter struct{ rows []domain.ExportRow }

func (s stubExporter) Export() []domain.ExportRow { return s.rows }

// fakeFeed hands out a channel pre-loaded with n signals and then closed,
// so an event stream ends on its own after n+1 events.
type fakeFeed struct {
	signals   int
	cancelled bool
}

func (f *fakeFeed) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, f.signals)
	for range f.signals {
		ch <- struct{}{}
	}
	close(ch)
	return ch, func() { f.cancelled = true }
}

var _ handler.RerenderFeed = (*fakeFeed)(nil)

// ---- helpers ---------------------------------------------------------------

// deps collects the Server dependencies for one test; nil fields get empty
// doubles.
type deps struct {
	session   *mockSession
	trip      *mockItinerary
	dashboard handler.Dashboarder
	export    handler.Exporter
	events    handler.RerenderFeed
}

// newHTTPHandler wires a Server into a chi router the same way main.go does.
func newHTTPHandler(d deps) http.Handler {
	if d.session == nil {
		d.session = &mockSession{}
	}
	if d.trip == nil {
		d.trip = &mockItinerary{}
	}
	if d.dashboard == nil {
		d.dashboard = stubDashboard{}
	}
	if d.export == nil {
		d.export = stubExporter{}
	}
	if d.events == nil {
		d.events = &fakeFeed{}
	}
	srv := handler.NewServer(d.session, d.trip, d.dashboard, d.export, d.events, nil)
	r := chi.NewRouter()
	srv.Routes(r, nil)
	return r
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, body *bytes.Buffer) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}
