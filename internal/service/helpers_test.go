package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pkordes/nexttrip/backend/internal/auth"
	"github.com/pkordes/nexttrip/backend/internal/domain"
	"github.com/pkordes/nexttrip/backend/internal/repo"
	"github.com/pkordes/nexttrip/backend/internal/service"
)

// mockTripRepo is a hand-written test double for repo.TripRepo.
// Each method is a function field; set only the ones your test needs.
type mockTripRepo struct {
	load  func(ctx context.Context) ([]domain.Trip, error)
	save  func(ctx context.Context, trips []domain.Trip) error
	clear func(ctx context.Context) error
}

func (m *mockTripRepo) Load(ctx context.Context) ([]domain.Trip, error) { return m.load(ctx) }
func (m *mockTripRepo) Save(ctx context.Context, trips []domain.Trip) error {
	return m.save(ctx, trips)
}
func (m *mockTripRepo) Clear(ctx context.Context) error { return m.clear(ctx) }

// compile-time check: mockTripRepo must satisfy repo.TripRepo.
var _ repo.TripRepo = (*mockTripRepo)(nil)

// mockMemoryRepo is a hand-written test double for repo.MemoryRepo.
type mockMemoryRepo struct {
	load func(ctx context.Context) ([]domain.Memory, error)
	save func(ctx context.Context, memories []domain.Memory) error
}

func (m *mockMemoryRepo) Load(ctx context.Context) ([]domain.Memory, error) { return m.load(ctx) }
func (m *mockMemoryRepo) Save(ctx context.Context, memories []domain.Memory) error {
	return m.save(ctx, memories)
}

var _ repo.MemoryRepo = (*mockMemoryRepo)(nil)

// fakeAccount records awards and returns a fixed user.
type fakeAccount struct {
	mu     sync.Mutex
	user   domain.User
	err    error
	awards []int
}

func (a *fakeAccount) Current(context.Context) (domain.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user, a.err
}

func (a *fakeAccount) Award(_ context.Context, n int, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.awards = append(a.awards, n)
	return nil
}

func (a *fakeAccount) total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	sum := 0
	for _, n := range a.awards {
		sum += n
	}
	return sum
}

func (a *fakeAccount) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.awards)
}

var _ service.Account = (*fakeAccount)(nil)

// ---- helpers ---------------------------------------------------------------

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// newTripService returns a TripService over a fresh in-memory store with
// the clock pinned to testNow.
func newTripService(t *testing.T) (*service.TripService, *fakeAccount, repo.Store) {
	t.Helper()
	return newTripServiceOn(repo.NewMemoryStore())
}

func newTripServiceOn(store repo.Store) (*service.TripService, *fakeAccount, repo.Store) {
	acct := &fakeAccount{user: domain.User{ID: uuid.New(), Name: "Tester"}}
	log := discardLogger()
	svc := service.NewTripService(repo.NewTripRepo(store, log), repo.NewSettingsRepo(store, log), acct, nil, log).
		WithClock(clockAt(testNow))
	return svc, acct, store
}

func newSessionService(t *testing.T, store repo.Store) *service.SessionService {
	t.Helper()
	reg, err := service.NewRegistry(service.DemoPassword, bcrypt.MinCost)
	require.NoError(t, err)
	log := discardLogger()
	return service.NewSessionService(
		repo.NewUserRepo(store, log),
		reg,
		auth.NewIssuer("test-secret", time.Hour),
		nil,
		log,
		service.SessionOptions{BcryptCost: bcrypt.MinCost, Now: clockAt(testNow)},
	)
}

func validTripInput() domain.TripInput {
	start := testNow.AddDate(0, 0, 1)
	end := testNow.AddDate(0, 0, 4)
	return domain.TripInput{
		Name:        "Paris Getaway",
		Destination: "Paris, France",
		StartDate:   &start,
		EndDate:     &end,
	}
}

func ptr[T any](v T) *T { return &v }
