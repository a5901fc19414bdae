package repo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkordes/nexttrip/backend/internal/domain"
)

// TripRepo defines the persistence operations for the trip collection.
// The service layer depends on this interface, not the concrete document
// implementation, which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Load returns every stored trip in insertion order.
	// An absent or unreadable collection is returned as an empty slice.
	Load(ctx context.Context) ([]domain.Trip, error)

	// Save overwrites the whole collection.
	Save(ctx context.Context, trips []domain.Trip) error

	// Clear removes the collection.
	Clear(ctx context.Context) error
}

type docTripRepo struct {
	doc document[[]domain.Trip]
}

// NewTripRepo constructs a TripRepo over the given store.
func NewTripRepo(store Store, log *slog.Logger) TripRepo {
	return &docTripRepo{doc: newDocument[[]domain.Trip](store, KeyTrips, log)}
}

func (r *docTripRepo) Load(ctx context.Context) ([]domain.Trip, error) {
	trips, _, err := r.doc.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.Load: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, nil
}

func (r *docTripRepo) Save(ctx context.Context, trips []domain.Trip) error {
	if trips == nil {
		trips = []domain.Trip{}
	}
	if err := r.doc.save(ctx, trips); err != nil {
		return fmt.Errorf("repo.TripRepo.Save: %w", err)
	}
	return nil
}

func (r *docTripRepo) Clear(ctx context.Context) error {
	if err := r.doc.delete(ctx); err != nil {
		return fmt.Errorf("repo.TripRepo.Clear: %w", err)
	}
	return nil
}
