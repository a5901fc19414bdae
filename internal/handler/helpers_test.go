package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/nexttrip/backend/internal/domain"
	"github.com/pkordes/nexttrip/backend/internal/handler"
	"github.com/pkordes/nexttrip/backend/internal/service"
)

// mockTripServicer is a test double for handler.TripServicer.
// Set only the method fields your test needs.
type mockTripServicer struct {
	list           func(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int, error)
	search         func(ctx context.Context, q string) ([]domain.Trip, error)
	get            func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	create         func(ctx context.Context, in domain.TripInput) (domain.Trip, error)
	update         func(ctx context.Context, id uuid.UUID, p domain.TripPatch) (domain.Trip, error)
	delete         func(ctx context.Context, id uuid.UUID) error
	duplicate      func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	start          func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	complete       func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	cancel         func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	stats          func(ctx context.Context) (domain.TripStats, error)
	count          func(ctx context.Context) (int, error)
	setCurrent     func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	current        func(ctx context.Context) (domain.Trip, error)
	clearCurrent   func(ctx context.Context) error
	addItinerary   func(ctx context.Context, tripID uuid.UUID, in domain.ItineraryInput) (domain.ItineraryItem, error)
	updItinerary   func(ctx context.Context, tripID, itemID uuid.UUID, p domain.ItineraryPatch) (domain.ItineraryItem, error)
	delItinerary   func(ctx context.Context, tripID, itemID uuid.UUID) error
	addExpense     func(ctx context.Context, tripID uuid.UUID, in domain.ExpenseInput) (domain.Expense, error)
	expenseSummary func(ctx context.Context, tripID uuid.UUID) (domain.ExpenseSummary, error)
	addChecklist   func(ctx context.Context, tripID uuid.UUID, in domain.ChecklistInput) (domain.ChecklistItem, error)
	toggle         func(ctx context.Context, tripID, itemID uuid.UUID) (domain.ChecklistItem, error)
}

func (m *mockTripServicer) List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int, error) {
	return m.list(ctx, p)
}
func (m *mockTripServicer) Search(ctx context.Context, q string) ([]domain.Trip, error) {
	return m.search(ctx, q)
}
func (m *mockTripServicer) Get(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.get(ctx, id)
}
func (m *mockTripServicer) Create(ctx context.Context, in domain.TripInput) (domain.Trip, error) {
	return m.create(ctx, in)
}
func (m *mockTripServicer) Update(ctx context.Context, id uuid.UUID, p domain.TripPatch) (domain.Trip, error) {
	return m.update(ctx, id, p)
}
func (m *mockTripServicer) Delete(ctx context.Context, id uuid.UUID) error { return m.delete(ctx, id) }
func (m *mockTripServicer) Duplicate(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.duplicate(ctx, id)
}
func (m *mockTripServicer) Start(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.start(ctx, id)
}
func (m *mockTripServicer) Complete(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.complete(ctx, id)
}
func (m *mockTripServicer) Cancel(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.cancel(ctx, id)
}
func (m *mockTripServicer) Stats(ctx context.Context) (domain.TripStats, error) { return m.stats(ctx) }
func (m *mockTripServicer) Count(ctx context.Context) (int, error)                { return m.count(ctx) }
func (m *mockTripServicer) SetCurrent(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.setCurrent(ctx, id)
}
func (m *mockTripServicer) Current(ctx context.Context) (domain.Trip, error) { return m.current(ctx) }
func (m *mockTripServicer) ClearCurrent(ctx context.Context) error           { return m.clearCurrent(ctx) }
func (m *mockTripServicer) AddItineraryItem(ctx context.Context, tripID uuid.UUID, in domain.ItineraryInput) (domain.ItineraryItem, error) {
	return m.addItinerary(ctx, tripID, in)
}
func (m *mockTripServicer) UpdateItineraryItem(ctx context.Context, tripID, itemID uuid.UUID, p domain.ItineraryPatch) (domain.ItineraryItem, error) {
	return m.updItinerary(ctx, tripID, itemID, p)
}
func (m *mockTripServicer) DeleteItineraryItem(ctx context.Context, tripID, itemID uuid.UUID) error {
	return m.delItinerary(ctx, tripID, itemID)
}
func (m *mockTripServicer) AddExpense(ctx context.Context, tripID uuid.UUID, in domain.ExpenseInput) (domain.Expense, error) {
	return m.addExpense(ctx, tripID, in)
}
func (m *mockTripServicer) ExpenseSummary(ctx context.Context, tripID uuid.UUID) (domain.ExpenseSummary, error) {
	return m.expenseSummary(ctx, tripID)
}
func (m *mockTripServicer) AddChecklistItem(ctx context.Context, tripID uuid.UUID, in domain.ChecklistInput) (domain.ChecklistItem, error) {
	return m.addChecklist(ctx, tripID, in)
}
func (m *mockTripServicer) ToggleChecklistItem(ctx context.Context, tripID, itemID uuid.UUID) (domain.ChecklistItem, error) {
	return m.toggle(ctx, tripID, itemID)
}

// compile-time check: mockTripServicer must satisfy handler.TripServicer.
var _ handler.TripServicer = (*mockTripServicer)(nil)

// mockSessionServicer is a test double for handler.SessionServicer.
type mockSessionServicer struct {
	signUp        func(ctx context.Context, in service.SignUpInput) (service.Session, error)
	signIn        func(ctx context.Context, email, password string) (service.Session, error)
	signOut       func(ctx context.Context) error
	resetPassword func(ctx context.Context, email string) (string, error)
	current       func(ctx context.Context) (domain.User, error)
	hasPermission func(ctx context.Context, p domain.Permission) bool
	updateProfile func(ctx context.Context, name string) (domain.User, error)
	updatePrefs   func(ctx context.Context, p domain.PreferencesPatch) (domain.User, error)
	upgradeTier   func(ctx context.Context, t domain.Tier) (domain.User, error)
	changePass    func(ctx context.Context, current, next, confirm string) error
	addPoints     func(ctx context.Context, n int) (domain.User, error)
	deductPoints  func(ctx context.Context, n int) (domain.User, error)
	claimReward   func(ctx context.Context) (domain.User, error)
	badges        func(ctx context.Context, trips, memories int) ([]domain.Badge, error)
	deleteAccount func(ctx context.Context) error
}

func (m *mockSessionServicer) SignUp(ctx context.Context, in service.SignUpInput) (service.Session, error) {
	return m.signUp(ctx, in)
}
func (m *mockSessionServicer) SignIn(ctx context.Context, email, password string) (service.Session, error) {
	return m.signIn(ctx, email, password)
}
func (m *mockSessionServicer) SignOut(ctx context.Context) error { return m.signOut(ctx) }
func (m *mockSessionServicer) ResetPassword(ctx context.Context, email string) (string, error) {
	return m.resetPassword(ctx, email)
}
func (m *mockSessionServicer) Current(ctx context.Context) (domain.User, error) { return m.current(ctx) }
func (m *mockSessionServicer) HasPermission(ctx context.Context, p domain.Permission) bool {
	return m.hasPermission(ctx, p)
}
func (m *mockSessionServicer) UpdateProfile(ctx context.Context, name string) (domain.User, error) {
	return m.updateProfile(ctx, name)
}
func (m *mockSessionServicer) UpdatePreferences(ctx context.Context, p domain.PreferencesPatch) (domain.User, error) {
	return m.updatePrefs(ctx, p)
}
func (m *mockSessionServicer) UpgradeTier(ctx context.Context, t domain.Tier) (domain.User, error) {
	return m.upgradeTier(ctx, t)
}
func (m *mockSessionServicer) ChangePassword(ctx context.Context, current, next, confirm string) error {
	return m.changePass(ctx, current, next, confirm)
}
func (m *mockSessionServicer) AddPoints(ctx context.Context, n int) (domain.User, error) {
	return m.addPoints(ctx, n)
}
func (m *mockSessionServicer) DeductPoints(ctx context.Context, n int) (domain.User, error) {
	return m.deductPoints(ctx, n)
}
func (m *mockSessionServicer) ClaimReward(ctx context.Context) (domain.User, error) {
	return m.claimReward(ctx)
}
func (m *mockSessionServicer) Badges(ctx context.Context, trips, memories int) ([]domain.Badge, error) {
	return m.badges(ctx, trips, memories)
}
func (m *mockSessionServicer) DeleteAccount(ctx context.Context) error { return m.deleteAccount(ctx) }

var _ handler.SessionServicer = (*mockSessionServicer)(nil)

// mockTimelineServicer is a test double for handler.TimelineServicer.
type mockTimelineServicer struct {
	add   func(ctx context.Context, in domain.MemoryInput) (domain.Memory, error)
	list  func(ctx context.Context) ([]domain.Memory, error)
	count func(ctx context.Context) (int, error)
}

func (m *mockTimelineServicer) Add(ctx context.Context, in domain.MemoryInput) (domain.Memory, error) {
	return m.add(ctx, in)
}
func (m *mockTimelineServicer) List(ctx context.Context) ([]domain.Memory, error) { return m.list(ctx) }
func (m *mockTimelineServicer) Count(ctx context.Context) (int, error)           { return m.count(ctx) }

var _ handler.TimelineServicer = (*mockTimelineServicer)(nil)

// mockTrackerServicer is a test double for handler.TrackerServicer.
type mockTrackerServicer struct {
	status   func() service.TrackerStatus
	record   func(ctx context.Context, f service.Fix) (domain.Memory, error)
	watch    func(ctx context.Context) error
	push     func(ctx context.Context, f service.Fix) error
	simulate func(ctx context.Context) error
	stop     func()
}

func (m *mockTrackerServicer) Status() service.TrackerStatus { return m.status() }
func (m *mockTrackerServicer) Record(ctx context.Context, f service.Fix) (domain.Memory, error) {
	return m.record(ctx, f)
}
func (m *mockTrackerServicer) Watch(ctx context.Context) error    { return m.watch(ctx) }
func (m *mockTrackerServicer) Push(ctx context.Context, f service.Fix) error {
	return m.push(ctx, f)
}
func (m *mockTrackerServicer) Simulate(ctx context.Context) error { return m.simulate(ctx) }
func (m *mockTrackerServicer) Stop()                              { m.stop() }

var _ handler.TrackerServicer = (*mockTrackerServicer)(nil)

// mockExportServicer is a test double for handler.ExportServicer.
type mockExportServicer struct {
	tripJSON   func(ctx context.Context, id uuid.UUID) ([]byte, error)
	tripCSV    func(ctx context.Context, id uuid.UUID) ([]byte, error)
	tripPDF    func(ctx context.Context, id uuid.UUID) ([]byte, error)
	importTrip func(ctx context.Context, data []byte) (domain.Trip, bool, error)
	dataJSON   func(ctx context.Context) ([]byte, error)
	gpx        func(ctx context.Context) ([]byte, error)
}

func (m *mockExportServicer) TripJSON(ctx context.Context, id uuid.UUID) ([]byte, error) {
	return m.tripJSON(ctx, id)
}
func (m *mockExportServicer) TripCSV(ctx context.Context, id uuid.UUID) ([]byte, error) {
	return m.tripCSV(ctx, id)
}
func (m *mockExportServicer) TripPDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	return m.tripPDF(ctx, id)
}
func (m *mockExportServicer) ImportTrip(ctx context.Context, data []byte) (domain.Trip, bool, error) {
	return m.importTrip(ctx, data)
}
func (m *mockExportServicer) DataJSON(ctx context.Context) ([]byte, error) { return m.dataJSON(ctx) }
func (m *mockExportServicer) GPX(ctx context.Context) ([]byte, error)      { return m.gpx(ctx) }

var _ handler.ExportServicer = (*mockExportServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler builds the API router over the given dependencies, the same
// way cmd/api wires it in production (minus the outer middleware).
func newHTTPHandler(d handler.Deps) http.Handler {
	return handler.NewServer(d).Routes()
}

func tripFixture() domain.Trip {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	return domain.Trip{
		ID:          uuid.New(),
		Name:        "Summer Tour",
		Destination: "Lisbon, Portugal",
		StartDate:   &start,
		EndDate:     &end,
		Budget:      decimal.NewFromInt(2000),
		TravelClass: domain.ClassEconomy,
		Status:      domain.TripPlanned,
		Tags:        []string{},
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
		Itinerary:   []domain.ItineraryItem{},
		Expenses:    []domain.Expense{},
		Checklist:   []domain.ChecklistItem{},
	}
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func newRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// do runs one request against h and returns the recorder.
func do(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	return serve(h, newRequest(method, target, body))
}

// decodeError reads the standard error envelope.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}
