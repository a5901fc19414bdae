package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pkordes/nexttrip/backend/internal/domain"
	"github.com/pkordes/nexttrip/backend/internal/events"
	"github.com/pkordes/nexttrip/backend/internal/repo"
)

const (
	defaultChecklistCategory = "general"
	defaultChecklistPriority = "medium"
	recentTripsLimit         = 5
	dateLayout               = "2006-01-02"
)

var checklistPriorities = map[string]bool{"low": true, "medium": true, "high": true}

// Account is what the trip and timeline services need from the session:
// the owner of new records and somewhere to credit points.
type Account interface {
	PointsAwarder
	Current(ctx context.Context) (domain.User, error)
}

// TripService implements business logic for trips and their itinerary,
// expense and checklist collections.
type TripService struct {
	repo     repo.TripRepo
	settings repo.SettingsRepo
	account  Account
	bus      events.Publisher
	log      *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	loaded bool
	trips  []domain.Trip
}

// NewTripService constructs a TripService.
func NewTripService(trips repo.TripRepo, settings repo.SettingsRepo, account Account, bus events.Publisher, log *slog.Logger) *TripService {
	if bus == nil {
		bus = events.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &TripService{
		repo:     trips,
		settings: settings,
		account:  account,
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// WithClock replaces the time source. It returns s for chaining.
func (s *TripService) WithClock(now func() time.Time) *TripService {
	s.now = now
	return s
}

// Reload re-reads the collection from storage.
func (s *TripService) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	if err := s.loadLocked(ctx); err != nil {
		return fmt.Errorf("service.TripService.Reload: %w", err)
	}
	s.bus.Publish(events.Event{Type: events.TripsChanged})
	return nil
}

func (s *TripService) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	trips, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	s.trips = trips
	s.loaded = true
	return nil
}

// snapshot returns a deep copy of the collection.
func (s *TripService) snapshot(ctx context.Context) ([]domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}
	return cloneTrips(s.trips), nil
}

// All returns every trip in insertion order.
func (s *TripService) All(ctx context.Context) ([]domain.Trip, error) {
	trips, err := s.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.All: %w", err)
	}
	return trips, nil
}

// List returns one page of trips and the total count.
func (s *TripService) List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int, error) {
	trips, err := s.snapshot(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}
	return domain.Paginate(trips, p), len(trips), nil
}

// Count returns the number of trips.
func (s *TripService) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return 0, fmt.Errorf("service.TripService.Count: %w", err)
	}
	return len(s.trips), nil
}

// Get returns a single trip by ID.
// Returns domain.ErrNotFound if no trip with that ID exists.
func (s *TripService) Get(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Get: %w", err)
	}
	i := indexOfTrip(s.trips, id)
	if i < 0 {
		return domain.Trip{}, fmt.Errorf("service.TripService.Get: trip %s: %w", id, domain.ErrNotFound)
	}
	return s.trips[i].Clone(), nil
}

// Search matches query case-insensitively against name, destination,
// description and tags. An empty query matches everything.
func (s *TripService) Search(ctx context.Context, query string) ([]domain.Trip, error) {
	trips, err := s.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Search: %w", err)
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return trips, nil
	}
	out := []domain.Trip{}
	for _, t := range trips {
		if tripMatches(t, q) {
			out = append(out, t)
		}
	}
	return out, nil
}

func tripMatches(t domain.Trip, q string) bool {
	if strings.Contains(strings.ToLower(t.Name), q) ||
		strings.Contains(strings.ToLower(t.Destination), q) ||
		strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Create validates and persists a new planned trip, then awards
// PointsTripCreated to the signed-in user.
func (s *TripService) Create(ctx context.Context, in domain.TripInput) (domain.Trip, error) {
	now := s.now()
	if err := validateTripInput(in, now); err != nil {
		return domain.Trip{}, err
	}

	class := in.TravelClass
	if class == "" {
		class = domain.ClassEconomy
	}
	owner, _ := s.owner(ctx)

	trip := domain.Trip{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		Destination: strings.TrimSpace(in.Destination),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Budget:      in.Budget,
		TravelClass: class,
		Description: strings.TrimSpace(in.Description),
		Notes:       in.Notes,
		Tags:        normalizeTags(in.Tags),
		Status:      domain.TripPlanned,
		OwnerID:     owner,
		CreatedAt:   now,
		UpdatedAt:   now,
		Itinerary:   []domain.ItineraryItem{},
		Expenses:    []domain.Expense{},
		Checklist:   []domain.ChecklistItem{},
	}.Clone()

	err := s.mutate(ctx, func(trips []domain.Trip) ([]domain.Trip, error) {
		return append(trips, trip), nil
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	s.publish(trip.ID)
	s.award(ctx, PointsTripCreated, "trip created")
	return trip.Clone(), nil
}

// validateTripInput enforces the creation rules and reports the first one
// violated:
//   - name and destination are required (whitespace-only counts as empty)
//   - budget must not be negative
//   - travel class must be known when given
//   - when both dates are given, end must be after start and start must
//     not be before today
func validateTripInput(in domain.TripInput, now time.Time) error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Destination) == "" {
		return domain.NewValidationError(domain.CodeInvalidInput, "trip name and destination are required")
	}
	if in.Budget.IsNegative() {
		return domain.NewValidationError(domain.CodeInvalidInput, "budget must not be negative")
	}
	if in.TravelClass != "" && !in.TravelClass.Valid() {
		return domain.NewValidationError(domain.CodeInvalidInput, "unknown travel class")
	}
	if in.StartDate != nil && in.EndDate != nil {
		if !in.EndDate.After(*in.StartDate) {
			return domain.NewValidationError(domain.CodeInvalidDates, "end date must be after start date")
		}
		if calendarDate(*in.StartDate).Before(calendarDate(now)) {
			return domain.NewValidationError(domain.CodeInvalidDates, "start date cannot be in the past")
		}
	}
	return nil
}

// Update merges patch into the trip. Date order is checked against the
// merged record; a status change must follow the transition table.
func (s *TripService) Update(ctx context.Context, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return domain.Trip{}, domain.NewValidationError(domain.CodeInvalidInput, "trip name cannot be empty")
	}
	if patch.Destination != nil && strings.TrimSpace(*patch.Destination) == "" {
		return domain.Trip{}, domain.NewValidationError(domain.CodeInvalidInput, "destination cannot be empty")
	}
	if patch.Budget != nil && patch.Budget.IsNegative() {
		return domain.Trip{}, domain.NewValidationError(domain.CodeInvalidInput, "budget must not be negative")
	}
	if patch.TravelClass != nil && !patch.TravelClass.Valid() {
		return domain.Trip{}, domain.NewValidationError(domain.CodeInvalidInput, "unknown travel class")
	}

	trip, err := s.withTrip(ctx, id, func(t *domain.Trip, now time.Time) error {
		applyTripPatch(t, patch)
		if t.StartDate != nil && t.EndDate != nil && !t.EndDate.After(*t.StartDate) {
			return domain.NewValidationError(domain.CodeInvalidDates, "end date must be after start date")
		}
		if patch.Status != nil {
			return transition(t, *patch.Status, now)
		}
		return nil
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return trip, nil
}

func applyTripPatch(t *domain.Trip, p domain.TripPatch) {
	if p.Name != nil {
		t.Name = strings.TrimSpace(*p.Name)
	}
	if p.Destination != nil {
		t.Destination = strings.TrimSpace(*p.Destination)
	}
	if p.ClearDates {
		t.StartDate, t.EndDate = nil, nil
	}
	if p.StartDate != nil {
		v := *p.StartDate
		t.StartDate = &v
	}
	if p.EndDate != nil {
		v := *p.EndDate
		t.EndDate = &v
	}
	if p.Budget != nil {
		t.Budget = *p.Budget
	}
	if p.TravelClass != nil {
		t.TravelClass = *p.TravelClass
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Tags != nil {
		t.Tags = normalizeTags(p.Tags)
	}
}

// transition moves t to next, stamping the matching actual date.
func transition(t *domain.Trip, next domain.TripStatus, now time.Time) error {
	if !next.Valid() {
		return domain.NewValidationError(domain.CodeInvalidStatus, fmt.Sprintf("unknown status %q", next))
	}
	if !t.Status.CanTransition(next) {
		return domain.NewValidationError(domain.CodeInvalidStatus,
			fmt.Sprintf("cannot change status from %s to %s", t.Status, next))
	}
	if t.Status == next {
		return nil
	}
	switch next {
	case domain.TripActive:
		t.ActualStartDate = timePtr(now)
	case domain.TripCompleted:
		t.ActualEndDate = timePtr(now)
	case domain.TripCancelled:
		t.CancelledAt = timePtr(now)
	}
	t.Status = next
	return nil
}

// Start marks a planned trip active.
func (s *TripService) Start(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return s.setStatus(ctx, "service.TripService.Start", id, domain.TripActive)
}

// Complete marks a planned or active trip completed.
func (s *TripService) Complete(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return s.setStatus(ctx, "service.TripService.Complete", id, domain.TripCompleted)
}

// Cancel cancels a trip that is not yet completed or cancelled.
func (s *TripService) Cancel(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return s.setStatus(ctx, "service.TripService.Cancel", id, domain.TripCancelled)
}

func (s *TripService) setStatus(ctx context.Context, op string, id uuid.UUID, next domain.TripStatus) (domain.Trip, error) {
	trip, err := s.withTrip(ctx, id, func(t *domain.Trip, now time.Time) error {
		return transition(t, next, now)
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("%s: %w", op, err)
	}
	return trip, nil
}

// Delete removes a trip by ID and clears the current-trip pointer when it
// referenced that trip. Memories are not touched.
// Returns domain.ErrNotFound if it does not exist.
func (s *TripService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.mutate(ctx, func(trips []domain.Trip) ([]domain.Trip, error) {
		i := indexOfTrip(trips, id)
		if i < 0 {
			return nil, fmt.Errorf("trip %s: %w", id, domain.ErrNotFound)
		}
		return append(trips[:i], trips[i+1:]...), nil
	})
	if err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	s.publish(id)

	current, err := s.settings.CurrentTrip(ctx)
	if err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	if current == id {
		if err := s.settings.ClearCurrentTrip(ctx); err != nil {
			return fmt.Errorf("service.TripService.Delete: %w", err)
		}
		s.bus.Publish(events.Event{Type: events.CurrentChanged})
	}
	return nil
}

// Duplicate copies a trip into a reusable template: named "<name> (Copy)",
// planned, without dates or expenses, with fresh itinerary and checklist
// ids, itinerary times cleared and every checklist item incomplete.
func (s *TripService) Duplicate(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	var dup domain.Trip
	err := s.mutate(ctx, func(trips []domain.Trip) ([]domain.Trip, error) {
		i := indexOfTrip(trips, id)
		if i < 0 {
			return nil, fmt.Errorf("trip %s: %w", id, domain.ErrNotFound)
		}
		dup = duplicateTrip(trips[i], s.now())
		return append(trips, dup), nil
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Duplicate: %w", err)
	}
	s.publish(dup.ID)
	return dup.Clone(), nil
}

func duplicateTrip(src domain.Trip, now time.Time) domain.Trip {
	d := src.Clone()
	d.ID = uuid.New()
	d.Name = src.Name + " (Copy)"
	d.Status = domain.TripPlanned
	d.StartDate, d.EndDate = nil, nil
	d.ActualStartDate, d.ActualEndDate, d.CancelledAt = nil, nil, nil
	d.CreatedAt, d.UpdatedAt = now, now
	d.Expenses = []domain.Expense{}
	for i := range d.Itinerary {
		d.Itinerary[i].ID = uuid.New()
		d.Itinerary[i].Status = domain.ItemStatusPlanned
		d.Itinerary[i].StartTime = nil
		d.Itinerary[i].EndTime = nil
	}
	for i := range d.Checklist {
		d.Checklist[i].ID = uuid.New()
		d.Checklist[i].Completed = false
		d.Checklist[i].CompletedAt = nil
	}
	return d
}

// Upsert stores trip as given, replacing a trip with the same ID or
// appending it. It reports whether an existing trip was replaced.
func (s *TripService) Upsert(ctx context.Context, trip domain.Trip) (domain.Trip, bool, error) {
	if trip.ID == uuid.Nil {
		return domain.Trip{}, false, domain.NewValidationError(domain.CodeInvalidInput, "trip id is required")
	}
	if strings.TrimSpace(trip.Name) == "" || strings.TrimSpace(trip.Destination) == "" {
		return domain.Trip{}, false, domain.NewValidationError(domain.CodeInvalidInput, "trip name and destination are required")
	}
	if !trip.Status.Valid() {
		return domain.Trip{}, false, domain.NewValidationError(domain.CodeInvalidStatus, fmt.Sprintf("unknown status %q", trip.Status))
	}
	trip = normalizeCollections(trip.Clone())

	replaced := false
	err := s.mutate(ctx, func(trips []domain.Trip) ([]domain.Trip, error) {
		if i := indexOfTrip(trips, trip.ID); i >= 0 {
			trips[i] = trip
			replaced = true
			return trips, nil
		}
		return append(trips, trip), nil
	})
	if err != nil {
		return domain.Trip{}, false, fmt.Errorf("service.TripService.Upsert: %w", err)
	}
	s.publish(trip.ID)
	return trip.Clone(), replaced, nil
}

// ---- nested collections ----------------------------------------------------

// AddItineraryItem appends an item to the trip's itinerary.
func (s *TripService) AddItineraryItem(ctx context.Context, tripID uuid.UUID, in domain.ItineraryInput) (domain.ItineraryItem, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.ItineraryItem{}, domain.NewValidationError(domain.CodeInvalidInput, "title is required")
	}
	typ := in.Type
	if typ == "" {
		typ = domain.ItemActivity
	}
	if !typ.Valid() {
		return domain.ItineraryItem{}, domain.NewValidationError(domain.CodeInvalidInput, fmt.Sprintf("unknown item type %q", in.Type))
	}
	if in.Cost.IsNegative() {
		return domain.ItineraryItem{}, domain.NewValidationError(domain.CodeInvalidInput, "cost must not be negative")
	}
	if in.StartTime != nil && in.EndTime != nil && in.EndTime.Before(*in.StartTime) {
		return domain.ItineraryItem{}, domain.NewValidationError(domain.CodeInvalidDates, "end time must not be before start time")
	}

	var item domain.ItineraryItem
	_, err := s.withTrip(ctx, tripID, func(t *domain.Trip, now time.Time) error {
		item = domain.ItineraryItem{
			ID:          uuid.New(),
			Title:       strings.TrimSpace(in.Title),
			Description: in.Description,
			StartTime:   in.StartTime,
			EndTime:     in.EndTime,
			Location:    in.Location,
			Type:        typ,
			Status:      domain.ItemStatusPlanned,
			Cost:        in.Cost,
			Notes:       in.Notes,
			CreatedAt:   now,
		}
		t.Itinerary = append(t.Itinerary, item)
		return nil
	})
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.TripService.AddItineraryItem: %w", err)
	}
	return item, nil
}

// GetItineraryItem returns one itinerary item.
func (s *TripService) GetItineraryItem(ctx context.Context, tripID, itemID uuid.UUID) (domain.ItineraryItem, error) {
	trip, err := s.Get(ctx, tripID)
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.TripService.GetItineraryItem: %w", err)
	}
	for _, it := range trip.Itinerary {
		if it.ID == itemID {
			return it, nil
		}
	}
	return domain.ItineraryItem{}, fmt.Errorf("service.TripService.GetItineraryItem: item %s: %w", itemID, domain.ErrNotFound)
}

// UpdateItineraryItem merges patch into an itinerary item.
func (s *TripService) UpdateItineraryItem(ctx context.Context, tripID, itemID uuid.UUID, patch domain.ItineraryPatch) (domain.ItineraryItem, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return domain.ItineraryItem{}, domain.NewValidationError(domain.CodeInvalidInput, "title cannot be empty")
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return domain.ItineraryItem{}, domain.NewValidationError(domain.CodeInvalidInput, fmt.Sprintf("unknown item type %q", *patch.Type))
	}
	if patch.Cost != nil && patch.Cost.IsNegative() {
		return domain.ItineraryItem{}, domain.NewValidationError(domain.CodeInvalidInput, "cost must not be negative")
	}

	var item domain.ItineraryItem
	_, err := s.withTrip(ctx, tripID, func(t *domain.Trip, now time.Time) error {
		i := indexOfItem(t.Itinerary, itemID)
		if i < 0 {
			return fmt.Errorf("itinerary item %s: %w", itemID, domain.ErrNotFound)
		}
		it := &t.Itinerary[i]
		applyItineraryPatch(it, patch)
		if it.StartTime != nil && it.EndTime != nil && it.EndTime.Before(*it.StartTime) {
			return domain.NewValidationError(domain.CodeInvalidDates, "end time must not be before start time")
		}
		it.UpdatedAt = timePtr(now)
		item = *it
		return nil
	})
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.TripService.UpdateItineraryItem: %w", err)
	}
	return item, nil
}

func applyItineraryPatch(it *domain.ItineraryItem, p domain.ItineraryPatch) {
	if p.Title != nil {
		it.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.StartTime != nil {
		v := *p.StartTime
		it.StartTime = &v
	}
	if p.EndTime != nil {
		v := *p.EndTime
		it.EndTime = &v
	}
	if p.Location != nil {
		it.Location = *p.Location
	}
	if p.Type != nil {
		it.Type = *p.Type
	}
	if p.Status != nil {
		it.Status = *p.Status
	}
	if p.Cost != nil {
		it.Cost = *p.Cost
	}
	if p.Notes != nil {
		it.Notes = *p.Notes
	}
}

// DeleteItineraryItem removes an itinerary item by ID.
func (s *TripService) DeleteItineraryItem(ctx context.Context, tripID, itemID uuid.UUID) error {
	_, err := s.withTrip(ctx, tripID, func(t *domain.Trip, _ time.Time) error {
		i := indexOfItem(t.Itinerary, itemID)
		if i < 0 {
			return fmt.Errorf("itinerary item %s: %w", itemID, domain.ErrNotFound)
		}
		t.Itinerary = append(t.Itinerary[:i], t.Itinerary[i+1:]...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("service.TripService.DeleteItineraryItem: %w", err)
	}
	return nil
}

// AddExpense records an expense against the trip. Currency defaults to
// USD, category to "other", and date to today.
func (s *TripService) AddExpense(ctx context.Context, tripID uuid.UUID, in domain.ExpenseInput) (domain.Expense, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Expense{}, domain.NewValidationError(domain.CodeInvalidInput, "title is required")
	}
	if in.Amount.IsNegative() {
		return domain.Expense{}, domain.NewValidationError(domain.CodeInvalidInput, "amount must not be negative")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	if len(currency) != 3 {
		return domain.Expense{}, domain.NewValidationError(domain.CodeInvalidInput, "currency must be a 3-letter ISO code")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = domain.DefaultExpenseCategory
	}
	if in.Date != "" {
		if _, err := time.Parse(dateLayout, in.Date); err != nil {
			return domain.Expense{}, domain.NewValidationError(domain.CodeInvalidDates, "date must be YYYY-MM-DD")
		}
	}

	var exp domain.Expense
	_, err := s.withTrip(ctx, tripID, func(t *domain.Trip, now time.Time) error {
		date := in.Date
		if date == "" {
			date = now.Format(dateLayout)
		}
		exp = domain.Expense{
			ID:          uuid.New(),
			Title:       strings.TrimSpace(in.Title),
			Amount:      in.Amount,
			Currency:    currency,
			Category:    category,
			Date:        date,
			Description: in.Description,
			CreatedAt:   now,
		}
		t.Expenses = append(t.Expenses, exp)
		return nil
	})
	if err != nil {
		return domain.Expense{}, fmt.Errorf("service.TripService.AddExpense: %w", err)
	}
	return exp, nil
}

// ExpenseSummary totals the trip's expenses overall and by category.
// Amounts are summed as-is; currencies are not converted.
func (s *TripService) ExpenseSummary(ctx context.Context, tripID uuid.UUID) (domain.ExpenseSummary, error) {
	trip, err := s.Get(ctx, tripID)
	if err != nil {
		return domain.ExpenseSummary{}, fmt.Errorf("service.TripService.ExpenseSummary: %w", err)
	}
	sum := domain.ExpenseSummary{
		Total:      decimal.Zero,
		Count:      len(trip.Expenses),
		ByCategory: map[string]decimal.Decimal{},
		Average:    decimal.Zero,
	}
	for _, e := range trip.Expenses {
		sum.Total = sum.Total.Add(e.Amount)
		sum.ByCategory[e.Category] = sum.ByCategory[e.Category].Add(e.Amount)
	}
	if sum.Count > 0 {
		sum.Average = sum.Total.Div(decimal.NewFromInt(int64(sum.Count))).Round(2)
	}
	return sum, nil
}

// AddChecklistItem appends an incomplete checklist entry.
func (s *TripService) AddChecklistItem(ctx context.Context, tripID uuid.UUID, in domain.ChecklistInput) (domain.ChecklistItem, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.ChecklistItem{}, domain.NewValidationError(domain.CodeInvalidInput, "title is required")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = defaultChecklistCategory
	}
	priority := strings.ToLower(strings.TrimSpace(in.Priority))
	if priority == "" {
		priority = defaultChecklistPriority
	}
	if !checklistPriorities[priority] {
		return domain.ChecklistItem{}, domain.NewValidationError(domain.CodeInvalidInput, "priority must be low, medium, or high")
	}

	var item domain.ChecklistItem
	_, err := s.withTrip(ctx, tripID, func(t *domain.Trip, now time.Time) error {
		item = domain.ChecklistItem{
			ID:        uuid.New(),
			Title:     strings.TrimSpace(in.Title),
			Category:  category,
			Priority:  priority,
			CreatedAt: now,
		}
		t.Checklist = append(t.Checklist, item)
		return nil
	})
	if err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("service.TripService.AddChecklistItem: %w", err)
	}
	return item, nil
}

// ToggleChecklistItem flips the completed flag. Completing an item stamps
// CompletedAt and awards PointsChecklistComplete; un-completing clears it.
func (s *TripService) ToggleChecklistItem(ctx context.Context, tripID, itemID uuid.UUID) (domain.ChecklistItem, error) {
	var item domain.ChecklistItem
	_, err := s.withTrip(ctx, tripID, func(t *domain.Trip, now time.Time) error {
		i := indexOfChecklist(t.Checklist, itemID)
		if i < 0 {
			return fmt.Errorf("checklist item %s: %w", itemID, domain.ErrNotFound)
		}
		c := &t.Checklist[i]
		c.Completed = !c.Completed
		if c.Completed {
			c.CompletedAt = timePtr(now)
		} else {
			c.CompletedAt = nil
		}
		item = *c
		return nil
	})
	if err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("service.TripService.ToggleChecklistItem: %w", err)
	}
	if item.Completed {
		s.award(ctx, PointsChecklistComplete, "checklist item completed")
	}
	return item, nil
}

// ---- aggregates ------------------------------------------------------------

// Stats summarises the trips owned by the signed-in user, or the ownerless
// trips when nobody is signed in.
func (s *TripService) Stats(ctx context.Context) (domain.TripStats, error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return domain.TripStats{}, fmt.Errorf("service.TripService.Stats: %w", err)
	}
	trips, err := s.snapshot(ctx)
	if err != nil {
		return domain.TripStats{}, fmt.Errorf("service.TripService.Stats: %w", err)
	}
	mine := trips[:0]
	for _, t := range trips {
		if t.OwnerID == owner {
			mine = append(mine, t)
		}
	}
	return computeStats(mine, s.now()), nil
}

// owner returns the signed-in user's id, or uuid.Nil when nobody is signed
// in. Trips created while signed out carry uuid.Nil as their owner.
func (s *TripService) owner(ctx context.Context) (uuid.UUID, error) {
	if s.account == nil {
		return uuid.Nil, nil
	}
	u, err := s.account.Current(ctx)
	if errors.Is(err, domain.ErrUnauthenticated) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, err
	}
	return u.ID, nil
}

func computeStats(trips []domain.Trip, now time.Time) domain.TripStats {
	st := domain.TripStats{
		Total:         len(trips),
		TotalBudget:   decimal.Zero,
		AverageBudget: decimal.Zero,
		Destinations:  []string{},
		Countries:     []string{},
		UpcomingTrips: []domain.Trip{},
		RecentTrips:   []domain.Trip{},
	}
	seenDest := map[string]bool{}
	seenCountry := map[string]bool{}

	for _, t := range trips {
		switch t.Status {
		case domain.TripPlanned:
			st.Planned++
		case domain.TripActive:
			st.Active++
		case domain.TripCompleted:
			st.Completed++
		case domain.TripCancelled:
			st.Cancelled++
		}
		st.TotalBudget = st.TotalBudget.Add(t.Budget)

		if !seenDest[t.Destination] {
			seenDest[t.Destination] = true
			st.Destinations = append(st.Destinations, t.Destination)
		}
		if c := countryOf(t.Destination); !seenCountry[c] {
			seenCountry[c] = true
			st.Countries = append(st.Countries, c)
		}

		if t.StartDate != nil && t.StartDate.After(now) && t.Status != domain.TripCompleted {
			st.UpcomingTrips = append(st.UpcomingTrips, t)
		}
		if t.Status == domain.TripCompleted {
			st.RecentTrips = append(st.RecentTrips, t)
		}
	}
	if len(trips) > 0 {
		st.AverageBudget = st.TotalBudget.Div(decimal.NewFromInt(int64(len(trips)))).Round(2)
	}

	sort.SliceStable(st.UpcomingTrips, func(i, j int) bool {
		return st.UpcomingTrips[i].StartDate.Before(*st.UpcomingTrips[j].StartDate)
	})
	sort.SliceStable(st.RecentTrips, func(i, j int) bool {
		return finishedAt(st.RecentTrips[i]).After(finishedAt(st.RecentTrips[j]))
	})
	if len(st.RecentTrips) > recentTripsLimit {
		st.RecentTrips = st.RecentTrips[:recentTripsLimit]
	}
	return st
}

// countryOf returns the second comma-separated part of a destination, or
// the whole destination when there is none.
func countryOf(destination string) string {
	parts := strings.Split(destination, ",")
	if len(parts) > 1 {
		return strings.TrimSpace(parts[1])
	}
	return destination
}

func finishedAt(t domain.Trip) time.Time {
	if t.EndDate != nil {
		return *t.EndDate
	}
	return t.UpdatedAt
}

// AdvanceStatuses starts planned trips whose start date has passed and
// completes started trips whose end date has passed. It returns how many
// trips changed.
func (s *TripService) AdvanceStatuses(ctx context.Context, now time.Time) (int, error) {
	changed := 0
	var ids []uuid.UUID
	err := s.mutate(ctx, func(trips []domain.Trip) ([]domain.Trip, error) {
		for i := range trips {
			t := &trips[i]
			before := t.Status
			if t.Status == domain.TripPlanned && t.StartDate != nil && !t.StartDate.After(now) {
				_ = transition(t, domain.TripActive, now)
			}
			if t.Status == domain.TripActive && t.EndDate != nil && t.EndDate.Before(now) {
				_ = transition(t, domain.TripCompleted, now)
			}
			if t.Status != before {
				t.UpdatedAt = now
				changed++
				ids = append(ids, t.ID)
			}
		}
		if changed == 0 {
			return nil, errNoChange
		}
		return trips, nil
	})
	if errors.Is(err, errNoChange) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("service.TripService.AdvanceStatuses: %w", err)
	}
	for _, id := range ids {
		s.publish(id)
	}
	return changed, nil
}

// ---- current trip ----------------------------------------------------------

// SetCurrent points the current-trip pointer at an existing trip.
func (s *TripService) SetCurrent(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.Get(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.SetCurrent: %w", err)
	}
	if err := s.settings.SetCurrentTrip(ctx, id); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.SetCurrent: %w", err)
	}
	s.bus.Publish(events.Event{Type: events.CurrentChanged, ID: id.String()})
	return trip, nil
}

// Current returns the trip the pointer references.
// Returns domain.ErrNotFound when unset or dangling.
func (s *TripService) Current(ctx context.Context) (domain.Trip, error) {
	id, err := s.settings.CurrentTrip(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Current: %w", err)
	}
	if id == uuid.Nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Current: no current trip: %w", domain.ErrNotFound)
	}
	trip, err := s.Get(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Current: %w", err)
	}
	return trip, nil
}

// ClearCurrent unsets the current-trip pointer.
func (s *TripService) ClearCurrent(ctx context.Context) error {
	if err := s.settings.ClearCurrentTrip(ctx); err != nil {
		return fmt.Errorf("service.TripService.ClearCurrent: %w", err)
	}
	s.bus.Publish(events.Event{Type: events.CurrentChanged})
	return nil
}

// ---- internals -------------------------------------------------------------

var errNoChange = errors.New("no change")

// mutate runs fn on a deep copy of the collection, persists the result and
// swaps it in. Nothing changes when fn or the write fails.
func (s *TripService) mutate(ctx context.Context, fn func(trips []domain.Trip) ([]domain.Trip, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return err
	}
	next, err := fn(cloneTrips(s.trips))
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, next); err != nil {
		return err
	}
	s.trips = next
	return nil
}

// withTrip applies fn to one trip, stamps its UpdatedAt, and persists.
func (s *TripService) withTrip(ctx context.Context, id uuid.UUID, fn func(t *domain.Trip, now time.Time) error) (domain.Trip, error) {
	var out domain.Trip
	err := s.mutate(ctx, func(trips []domain.Trip) ([]domain.Trip, error) {
		i := indexOfTrip(trips, id)
		if i < 0 {
			return nil, fmt.Errorf("trip %s: %w", id, domain.ErrNotFound)
		}
		now := s.now()
		if err := fn(&trips[i], now); err != nil {
			return nil, err
		}
		trips[i].UpdatedAt = now
		out = trips[i].Clone()
		return trips, nil
	})
	if err != nil {
		return domain.Trip{}, err
	}
	s.publish(id)
	return out, nil
}

func (s *TripService) publish(id uuid.UUID) {
	s.bus.Publish(events.Event{Type: events.TripsChanged, ID: id.String()})
}

// award credits points after a successful write. A failed award is logged;
// the trip change it rewards has already been persisted.
func (s *TripService) award(ctx context.Context, n int, reason string) {
	if s.account == nil {
		return
	}
	if err := s.account.Award(ctx, n, reason); err != nil {
		s.log.WarnContext(ctx, "award points", slog.String("reason", reason), slog.String("error", err.Error()))
	}
}

func cloneTrips(trips []domain.Trip) []domain.Trip {
	out := make([]domain.Trip, len(trips))
	for i, t := range trips {
		out[i] = t.Clone()
	}
	return out
}

func normalizeCollections(t domain.Trip) domain.Trip {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Itinerary == nil {
		t.Itinerary = []domain.ItineraryItem{}
	}
	if t.Expenses == nil {
		t.Expenses = []domain.Expense{}
	}
	if t.Checklist == nil {
		t.Checklist = []domain.ChecklistItem{}
	}
	return t
}

func normalizeTags(tags []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[strings.ToLower(tag)] {
			continue
		}
		seen[strings.ToLower(tag)] = true
		out = append(out, tag)
	}
	return out
}

func indexOfTrip(trips []domain.Trip, id uuid.UUID) int {
	for i := range trips {
		if trips[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfItem(items []domain.ItineraryItem, id uuid.UUID) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfChecklist(items []domain.ChecklistItem, id uuid.UUID) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
