package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/nexttrip/backend/internal/domain"
	"github.com/pkordes/nexttrip/backend/internal/repo"
	"github.com/pkordes/nexttrip/backend/internal/service"
)

func propertyParams() *gopter.TestParameters {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 50
	return params
}

// ---- Create ----------------------------------------------------------------

func TestTripService_Create_Valid(t *testing.T) {
	svc, acct, _ := newTripService(t)

	got, err := svc.Create(context.Background(), validTripInput())

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, "Paris Getaway", got.Name)
	assert.Equal(t, domain.TripPlanned, got.Status)
	assert.Equal(t, domain.ClassEconomy, got.TravelClass)
	assert.Equal(t, acct.user.ID, got.OwnerID)
	assert.Equal(t, testNow, got.CreatedAt)
	assert.Empty(t, got.Itinerary)
	assert.NotNil(t, got.Itinerary)
	assert.Equal(t, []int{service.PointsTripCreated}, acct.awards)
}

func TestTripService_Create_Property_PlannedForValidInput(t *testing.T) {
	properties := gopter.NewProperties(propertyParams())

	properties.Property("valid input creates a planned trip", prop.ForAll(
		func(name string, daysAhead, length int) bool {
			svc, _, _ := newTripService(t)
			start := testNow.AddDate(0, 0, daysAhead)
			end := start.AddDate(0, 0, length)
			got, err := svc.Create(context.Background(), domain.TripInput{
				Name:        name,
				Destination: "Lisbon, Portugal",
				StartDate:   &start,
				EndDate:     &end,
			})
			return err == nil && got.Status == domain.TripPlanned
		},
		gen.Identifier(),
		gen.IntRange(0, 365),
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}

func TestTripService_Create_Invalid(t *testing.T) {
	yesterday := testNow.AddDate(0, 0, -1)
	tomorrow := testNow.AddDate(0, 0, 1)
	later := testNow.AddDate(0, 0, 5)

	tests := []struct {
		name   string
		modify func(in *domain.TripInput)
		code   string
	}{
		{"whitespace name", func(in *domain.TripInput) { in.Name = "   " }, domain.CodeInvalidInput},
		{"missing destination", func(in *domain.TripInput) { in.Destination = "" }, domain.CodeInvalidInput},
		{"negative budget", func(in *domain.TripInput) { in.Budget = decimal.NewFromInt(-1) }, domain.CodeInvalidInput},
		{"unknown class", func(in *domain.TripInput) { in.TravelClass = "steerage" }, domain.CodeInvalidInput},
		{"end before start", func(in *domain.TripInput) { in.StartDate, in.EndDate = &later, &tomorrow }, domain.CodeInvalidDates},
		{"end equals start", func(in *domain.TripInput) { in.StartDate, in.EndDate = &tomorrow, &tomorrow }, domain.CodeInvalidDates},
		{"start in the past", func(in *domain.TripInput) { in.StartDate, in.EndDate = &yesterday, &later }, domain.CodeInvalidDates},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, acct, _ := newTripService(t)
			in := validTripInput()
			tc.modify(&in)

			_, err := svc.Create(context.Background(), in)

			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, tc.code, domain.ValidationCode(err))
			assert.Empty(t, acct.awards)
		})
	}
}

func TestTripService_Create_StartTodayIsAllowed(t *testing.T) {
	svc, _, _ := newTripService(t)
	in := validTripInput()
	earlyToday := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	in.StartDate = &earlyToday

	_, err := svc.Create(context.Background(), in)

	assert.NoError(t, err)
}

// A date-only start decodes as UTC midnight. West of UTC the local clock is
// still on the same calendar day, so the trip starts today, not in the past.
func TestTripService_Create_StartTodayWestOfUTC(t *testing.T) {
	newYork := time.FixedZone("EDT", -4*60*60)
	tests := []struct {
		name    string
		start   time.Time
		wantErr bool
	}{
		{"today", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), false},
		{"yesterday", time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := newTripService(t)
			svc.WithClock(clockAt(time.Date(2026, 10, 19, 5, 2, 0, 0, newYork)))
			end := tc.start.AddDate(0, 0, 3)

			_, err := svc.Create(context.Background(), domain.TripInput{
				Name: "Fall Foliage", Destination: "Boston, USA", StartDate: &tc.start, EndDate: &end,
			})

			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTripService_Create_WithoutDates(t *testing.T) {
	svc, _, _ := newTripService(t)

	got, err := svc.Create(context.Background(), domain.TripInput{Name: "Someday", Destination: "Kyoto, Japan"})

	require.NoError(t, err)
	assert.Nil(t, got.StartDate)
	assert.Nil(t, got.EndDate)
}

func TestTripService_Create_SaveFailureLeavesNothingBehind(t *testing.T) {
	saveErr := errors.New("disk full")
	r := &mockTripRepo{
		load: func(context.Context) ([]domain.Trip, error) { return []domain.Trip{}, nil },
		save: func(context.Context, []domain.Trip) error { return saveErr },
	}
	acct := &fakeAccount{}
	svc := service.NewTripService(r, repo.NewSettingsRepo(repo.NewMemoryStore(), nil), acct, nil, discardLogger()).
		WithClock(clockAt(testNow))

	_, err := svc.Create(context.Background(), validTripInput())

	require.ErrorIs(t, err, saveErr)
	all, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, acct.awards, "no points for a trip that was not saved")
}

func TestTripService_Create_PersistsAcrossInstances(t *testing.T) {
	svc, _, store := newTripService(t)
	created, err := svc.Create(context.Background(), validTripInput())
	require.NoError(t, err)

	other := service.NewTripService(repo.NewTripRepo(store, nil), repo.NewSettingsRepo(store, nil), nil, nil, nil).
		WithClock(clockAt(testNow))
	got, err := other.Get(context.Background(), created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)
}

// ---- Get / List / Search ---------------------------------------------------

func TestTripService_Get_NotFound(t *testing.T) {
	svc, _, _ := newTripService(t)

	_, err := svc.Get(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripService_Get_ReturnsCopy(t *testing.T) {
	svc, _, _ := newTripService(t)
	created, err := svc.Create(context.Background(), validTripInput())
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	got.Name = "mutated"
	got.Tags = append(got.Tags, "x")

	again, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Paris Getaway", again.Name)
	assert.Empty(t, again.Tags)
}

func TestTripService_List_Paginates(t *testing.T) {
	svc, _, _ := newTripService(t)
	for i := range 5 {
		in := validTripInput()
		in.Name = fmt.Sprintf("Trip %d", i)
		_, err := svc.Create(context.Background(), in)
		require.NoError(t, err)
	}

	page, total, err := svc.List(context.Background(), domain.PaginationParams{Page: 2, Limit: 2})

	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "Trip 2", page[0].Name)
	assert.Equal(t, "Trip 3", page[1].Name)
}

func TestTripService_Search(t *testing.T) {
	svc, _, _ := newTripService(t)
	in := validTripInput()
	in.Tags = []string{"Food", "food", " art "}
	paris, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"Food", "art"}, paris.Tags)

	_, err = svc.Create(context.Background(), domain.TripInput{Name: "Hiking", Destination: "Denver, USA"})
	require.NoError(t, err)

	tests := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"PARIS", 1},
		{"food", 1},
		{"usa", 1},
		{"nowhere", 0},
	}
	for _, tc := range tests {
		got, err := svc.Search(context.Background(), tc.query)
		require.NoError(t, err)
		assert.Len(t, got, tc.want, "query %q", tc.query)
	}
}

// ---- Update / status -------------------------------------------------------

func TestTripService_Update_MergesPatch(t *testing.T) {
	svc, _, _ := newTripService(t)
	created, err := svc.Create(context.Background(), validTripInput())
	require.NoError(t, err)

	budget := decimal.NewFromInt(2500)
	got, err := svc.Update(context.Background(), created.ID, domain.TripPatch{
		Name:   ptr("  Paris in June "),
		Budget: &budget,
	})

	require.NoError(t, err)
	assert.Equal(t, "Paris in June", got.Name)
	assert.True(t, budget.Equal(got.Budget))
	assert.Equal(t, created.Destination, got.Destination)
}

func TestTripService_Update_RejectsInvertedDates(t *testing.T) {
	svc, _, _ := newTripService(t)
	created, err := svc.Create(context.Background(), validTripInput())
	require.NoError(t, err)

	early := created.StartDate.AddDate(0, 0, -1)
	_, err = svc.Update(context.Background(), created.ID, domain.TripPatch{EndDate: &early})

	require.ErrorIs(t, err, domain.ErrValidation)
	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created.EndDate, *got.EndDate, "failed update must not be applied")
}

func TestTripService_StatusTransitions(t *testing.T) {
	svc, _, _ := newTripService(t)
	created, err := svc.Create(context.Background(), validTripInput())
	require.NoError(t, err)

	started, err := svc.Start(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripActive, started.Status)
	require.NotNil(t, started.ActualStartDate)

	done, err := svc.Complete(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripCompleted, done.Status)
	require.NotNil(t, done.ActualEndDate)

	_, err = svc.Cancel(context.Background(), created.ID)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, domain.CodeInvalidStatus, domain.ValidationCode(err))

	_, err = svc.Update(context.Background(), created.ID, domain.TripPatch{Status: ptr(domain.TripPlanned)})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTripService_AdvanceStatuses(t *testing.T) {
	svc, _, _ := newTripService(t)
	ctx := context.Background()

	soon, err := svc.Create(ctx, validTripInput())
	require.NoError(t, err)
	in := validTripInput()
	start := testNow.AddDate(0, 1, 0)
	end := start.AddDate(0, 0, 3)
	in.StartDate, in.EndDate = &start, &end
	later, err := svc.Create(ctx, in)
	require.NoError(t, err)

	n, err := svc.AdvanceStatuses(ctx, testNow.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.Get(ctx, soon.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripActive, got.Status)

	n, err = svc.AdvanceStatuses(ctx, testNow.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err = svc.Get(ctx, soon.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripCompleted, got.Status)

	untouched, err := svc.Get(ctx, later.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripPlanned, untouched.Status)

	n, err = svc.AdvanceStatuses(ctx, testNow.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Zero(t, n)
}

// ---- Delete / Duplicate / Upsert -------------------------------------------

func TestTripService_Delete_ClearsCurrentTrip(t *testing.T) {
	svc, _, _ := newTripService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, validTripInput())
	require.NoError(t, err)
	_, err = svc.SetCurrent(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Current(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), domain.ErrNotFound)
}

func TestTripService_CurrentTrip(t *testing.T) {
	svc, _, _ := newTripService(t)
	ctx := context.Background()

	_, err := svc.Current(ctx)
	require.ErrorIs(t, err, domain.ErrNotFound)

	created, err := svc.Create(ctx, validTripInput())
	require.NoError(t, err)
	_, err = svc.SetCurrent(ctx, created.ID)
	require.NoError(t, err)

	got, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	require.NoError(t, svc.ClearCurrent(ctx))
	_, err = svc.Current(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.SetCurrent(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripService_Duplicate_Property(t *testing.T) {
	statuses := []func(*service.TripService, context.Context, uuid.UUID) (domain.Trip, error){
		func(*service.TripService, context.Context, uuid.UUID) (domain.Trip, error) { return domain.Trip{}, nil },
		(*service.TripService).Start,
		(*service.TripService).Complete,
		(*service.TripService).Cancel,
	}
	properties := gopter.NewProperties(propertyParams())

	properties.Property("duplicate has fresh ids, an open checklist and planned status", prop.ForAll(
		func(items, checks, completed, status int) bool {
			svc, _, _ := newTripService(t)
			ctx := context.Background()
			src, err := svc.Create(ctx, validTripInput())
			if err != nil {
				return false
			}
			for i := range items {
				if _, err := svc.AddItineraryItem(ctx, src.ID, domain.ItineraryInput{Title: fmt.Sprintf("item %d", i)}); err != nil {
					return false
				}
			}
			for i := range checks {
				c, err := svc.AddChecklistItem(ctx, src.ID, domain.ChecklistInput{Title: fmt.Sprintf("check %d", i)})
				if err != nil {
					return false
				}
				if i < completed {
					if _, err := svc.ToggleChecklistItem(ctx, src.ID, c.ID); err != nil {
						return false
					}
				}
			}
			if _, err := statuses[status](svc, ctx, src.ID); err != nil {
				return false
			}
			src, err = svc.Get(ctx, src.ID)
			if err != nil {
				return false
			}

			dup, err := svc.Duplicate(ctx, src.ID)
			if err != nil {
				return false
			}
			if dup.ID == src.ID || dup.Status != domain.TripPlanned || dup.Name != src.Name+" (Copy)" {
				return false
			}
			if len(dup.Itinerary) != len(src.Itinerary) || len(dup.Checklist) != len(src.Checklist) {
				return false
			}
			seen := map[uuid.UUID]bool{}
			for _, it := range src.Itinerary {
				seen[it.ID] = true
			}
			for _, c := range src.Checklist {
				seen[c.ID] = true
			}
			for _, it := range dup.Itinerary {
				if seen[it.ID] {
					return false
				}
			}
			for _, c := range dup.Checklist {
				if seen[c.ID] || c.Completed || c.CompletedAt != nil {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 4),
		gen.IntRange(0, 4),
		gen.IntRange(0, 4),
		gen.IntRange(0, len(statuses)-1),
	))

	properties.TestingRun(t)
}

func TestTripService_Duplicate_DropsDatesAndExpenses(t *testing.T) {
	svc, _, _ := newTripService(t)
	ctx := context.Background()
	src, err := svc.Create(ctx, validTripInput())
	require.NoError(t, err)
	_, err = svc.AddExpense(ctx, src.ID, domain.ExpenseInput{Title: "Hotel", Amount: decimal.NewFromInt(300)})
	require.NoError(t, err)

	dup, err := svc.Duplicate(ctx, src.ID)

	require.NoError(t, err)
	assert.Nil(t, dup.StartDate)
	assert.Nil(t, dup.EndDate)
	assert.Empty(t, dup.Expenses)
	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestTripService_Upsert(t *testing.T) {
	svc, _, _ := newTripService(t)
	ctx := context.Background()
	trip := domain.Trip{ID: uuid.New(), Name: "Imported", Destination: "Oslo, Norway", Status: domain.TripCompleted}

	got, replaced, err := svc.Upsert(ctx, trip)
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.NotNil(t, got.Checklist)

	trip.Name = "Imported again"
	got, replaced, err = svc.Upsert(ctx, trip)
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, "Imported again", got.Name)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, _, err = svc.Upsert(ctx, domain.Trip{Name: "no id", Destination: "x", Status: domain.TripPlanned})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, _, err = svc.Upsert(ctx, domain.Trip{ID: uuid.New(), Name: "bad", Destination: "x", Status: "lost"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- itinerary -------------------------------------------------------------

func TestTripService_DeleteItineraryItem_KeepsSiblingAndStampsTrip(t *testing.T) {
	store := repo.NewMemoryStore()
	now := testNow
	svc := service.NewTripService(repo.NewTripRepo(store, nil), repo.NewSettingsRepo(store, nil), nil, nil, nil).
		WithClock(func() time.Time { return now })
	ctx := context.Background()

	trip, err := svc.Create(ctx, validTripInput())
	require.NoError(t, err)
	first, err := svc.AddItineraryItem(ctx, trip.ID, domain.ItineraryInput{Title: "Louvre"})
	require.NoError(t, err)
	second, err := svc.AddItineraryItem(ctx, trip.ID, domain.ItineraryInput{Title: "Seine cruise"})
	require.NoError(t, err)

	now = testNow.Add(90 * time.Minute)
	require.NoError(t, svc.DeleteItineraryItem(ctx, trip.ID, first.ID))

	got, err := svc.GetItineraryItem(ctx, trip.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Seine cruise", got.Title)
	_, err = svc.GetItineraryItem(ctx, trip.ID, first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	updated, err := svc.Get(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, now, updated.UpdatedAt)
	assert.Len(t, updated.Itinerary, 1)
}

func TestTripService_AddItineraryItem_Defaults(t *testing.T) {
	svc, _, _ := newTripService(t)
	ctx := context.Background()
	trip, err := svc.Create(ctx, validTripInput())
	require.NoError(t, err)

	item, err := svc.AddItineraryItem(ctx, trip.ID, domain.ItineraryInput{Title: "Dinner"})

	require.NoError(t, err)
	assert.Equal(t, domain.ItemActivity, item.Type)
	assert.Equal(t, domain.ItemStatusPlanned, item.Status)

	_, err = svc.AddItineraryItem(ctx, trip.ID, domain.ItineraryInput{Title: "x", Type: "teleport"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.AddItineraryItem(ctx, uuid.New(), domain.ItineraryInput{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripService_UpdateItineraryItem(t *testing.T) {
	svc, _, _ := newTripService(t)
	ctx := context.Background()
	trip, err := svc.Create(ctx, validTripInput())
	require.NoError(t, err)
	item, err := svc.AddItineraryItem(ctx, trip.ID, domain.ItineraryInput{Title: "Dinner", Type: domain.ItemMeal})
	require.NoError(t, err)
	assert.Nil(t, item.UpdatedAt)

	got, err := svc.UpdateItineraryItem(ctx, trip.ID, item.ID, domain.ItineraryPatch{
		Location: ptr("Le Marais"),
		Status:   ptr("booked"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Le Marais", got.Location)
	assert.Equal(t, "booked", got.Status)
	assert.Equal(t, domain.ItemMeal, got.Type)
	require.NotNil(t, got.UpdatedAt)

	_, err = svc.UpdateItineraryItem(ctx, trip.ID, uuid.New(), domain.ItineraryPatch{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- expenses --------------------------------------------------------------

func TestTripService_ExpenseSummary(t *testing.T) {
	svc, _, _ := newTripService(t)
	ctx := context.Background()
	trip, err := svc.Create(ctx, validTripInput())
	require.NoError(t, err)

	exp, err := svc.AddExpense(ctx, trip.ID, domain.ExpenseInput{Title: "Hotel", Amount: decimal.NewFromInt(300), Category: "lodging"})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCurrency, exp.Currency)
	assert.Equal(t, "2025-06-01", exp.Date)

	_, err = svc.AddExpense(ctx, trip.ID, domain.ExpenseInput{Title: "Crepes", Amount: decimal.RequireFromString("12.50"), Currency: "eur", Category: "food"})
	require.NoError(t, err)
	_, err = svc.AddExpense(ctx, trip.ID, domain.ExpenseInput{Title: "Metro", Amount: decimal.NewFromInt(2)})
	require.NoError(t, err)

	sum, err := svc.ExpenseSummary(ctx, trip.ID)

	require.NoError(t, err)
	assert.Equal(t, 3, sum.Count)
	assert.True(t, decimal.RequireFromString("314.50").Equal(sum.Total), sum.Total.String())
	assert.True(t, decimal.RequireFromString("104.83").Equal(sum.Average), sum.Average.String())
	assert.True(t, decimal.NewFromInt(2).Equal(sum.ByCategory[domain.DefaultExpenseCategory]))
	assert.Len(t, sum.ByCategory, 3)
}

func TestTripService_AddExpense_Invalid(t *testing.T) {
	svc, _, _ := newTripService(t)
	ctx := context.Background()
	trip, err := svc.Create(ctx, validTripInput())
	require.NoError(t, err)

	tests := []domain.ExpenseInput{
		{Title: "", Amount: decimal.NewFromInt(1)},
		{Title: "refund", Amount: decimal.NewFromInt(-1)},
		{Title: "odd", Amount: decimal.NewFromInt(1), Currency: "EURO"},
		{Title: "when", Amount: decimal.NewFromInt(1), Date: "01/06/2025"},
	}
	for _, in := range tests {
		_, err := svc.AddExpense(ctx, trip.ID, in)
		assert.ErrorIs(t, err, domain.ErrValidation, "input %+v", in)
	}
}

// ---- checklist -------------------------------------------------------------

func TestTripService_AddChecklistItem(t *testing.T) {
	svc, _, _ := newTripService(t)
	ctx := context.Background()
	trip, err := svc.Create(ctx, validTripInput())
	require.NoError(t, err)

	item, err := svc.AddChecklistItem(ctx, trip.ID, domain.ChecklistInput{Title: "Passport", Priority: "HIGH"})
	require.NoError(t, err)
	assert.Equal(t, "high", item.Priority)
	assert.Equal(t, "general", item.Category)
	assert.False(t, item.Completed)

	_, err = svc.AddChecklistItem(ctx, trip.ID, domain.ChecklistInput{Title: "x", Priority: "urgent"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTripService_ToggleChecklistItem_Property_SelfInverse(t *testing.T) {
	properties := gopter.NewProperties(propertyParams())

	properties.Property("toggling twice restores the flag and awards 2 points once", prop.ForAll(
		func(startCompleted bool) bool {
			svc, acct, _ := newTripService(t)
			ctx := context.Background()
			trip, err := svc.Create(ctx, validTripInput())
			if err != nil {
				return false
			}
			item, err := svc.AddChecklistItem(ctx, trip.ID, domain.ChecklistInput{Title: "Adapter"})
			if err != nil {
				return false
			}
			if startCompleted {
				if item, err = svc.ToggleChecklistItem(ctx, trip.ID, item.ID); err != nil {
					return false
				}
			}
			before := acct.count()

			once, err := svc.ToggleChecklistItem(ctx, trip.ID, item.ID)
			if err != nil || once.Completed == item.Completed {
				return false
			}
			twice, err := svc.ToggleChecklistItem(ctx, trip.ID, item.ID)
			if err != nil || twice.Completed != item.Completed {
				return false
			}
			if (twice.CompletedAt != nil) != twice.Completed {
				return false
			}
			return acct.count()-before == 1 && acct.awards[len(acct.awards)-1] == service.PointsChecklistComplete
		},
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestTripService_ToggleChecklistItem_NotFound(t *testing.T) {
	svc, acct, _ := newTripService(t)
	ctx := context.Background()
	trip, err := svc.Create(ctx, validTripInput())
	require.NoError(t, err)

	_, err = svc.ToggleChecklistItem(ctx, trip.ID, uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, acct.count(), "only the creation award")
}

// ---- stats -----------------------------------------------------------------

func TestTripService_Stats_ParisGetaway(t *testing.T) {
	svc, _, _ := newTripService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, validTripInput())
	require.NoError(t, err)

	st, err := svc.Stats(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, 1, st.Planned)
	require.Len(t, st.UpcomingTrips, 1)
	assert.Equal(t, created.ID, st.UpcomingTrips[0].ID)
	assert.Contains(t, st.Countries, "France")
	assert.Contains(t, st.Destinations, "Paris, France")
}

func TestTripService_Stats_BudgetsAndRecent(t *testing.T) {
	svc, _, _ := newTripService(t)
	ctx := context.Background()

	for i, budget := range []int64{1000, 2000, 0} {
		in := validTripInput()
		in.Name = fmt.Sprintf("Trip %d", i)
		in.Destination = []string{"Rome, Italy", "Milan, Italy", "Reykjavik"}[i]
		in.Budget = decimal.NewFromInt(budget)
		trip, err := svc.Create(ctx, in)
		require.NoError(t, err)
		if i == 0 {
			_, err = svc.Complete(ctx, trip.ID)
			require.NoError(t, err)
		}
	}

	st, err := svc.Stats(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.Completed)
	assert.True(t, decimal.NewFromInt(3000).Equal(st.TotalBudget))
	assert.True(t, decimal.NewFromInt(1000).Equal(st.AverageBudget))
	assert.Equal(t, []string{"Italy", "Reykjavik"}, st.Countries)
	require.Len(t, st.RecentTrips, 1)
	assert.Equal(t, "Trip 0", st.RecentTrips[0].Name)
	assert.Len(t, st.UpcomingTrips, 2, "completed trips are not upcoming")
}

func TestTripService_Stats_OnlyOwnTrips(t *testing.T) {
	svc, acct, _ := newTripService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, validTripInput())
	require.NoError(t, err)

	acct.mu.Lock()
	acct.user = domain.User{ID: uuid.New(), Name: "Bob"}
	acct.mu.Unlock()
	in := validTripInput()
	in.Name = "Bob's Trip"
	_, err = svc.Create(ctx, in)
	require.NoError(t, err)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Total)
	require.Len(t, st.UpcomingTrips, 1)
	assert.Equal(t, "Bob's Trip", st.UpcomingTrips[0].Name)

	acct.mu.Lock()
	acct.user, acct.err = domain.User{}, domain.ErrUnauthenticated
	acct.mu.Unlock()
	st, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Total, "signed out sees only ownerless trips")

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTripService_Stats_Empty(t *testing.T) {
	svc, _, _ := newTripService(t)

	st, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Zero(t, st.Total)
	assert.True(t, st.AverageBudget.IsZero())
	assert.NotNil(t, st.Countries)
}

func TestTripService_Reload_PicksUpExternalWrites(t *testing.T) {
	svc, _, store := newTripService(t)
	ctx := context.Background()
	_, err := svc.Count(ctx)
	require.NoError(t, err)

	other := service.NewTripService(repo.NewTripRepo(store, nil), repo.NewSettingsRepo(store, nil), nil, nil, nil).
		WithClock(clockAt(testNow))
	_, err = other.Create(ctx, validTripInput())
	require.NoError(t, err)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "cached until reload")

	require.NoError(t, svc.Reload(ctx))
	count, err = svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
