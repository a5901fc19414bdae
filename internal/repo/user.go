package repo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkordes/nexttrip/backend/internal/domain"
)

// UserRepo persists the single session user record.
type UserRepo interface {
	// Load returns the stored user, or nil when nobody is signed in.
	Load(ctx context.Context) (*domain.User, error)

	Save(ctx context.Context, u domain.User) error

	// Clear removes every session key (user, trips, memories, current trip,
	// preferences, cache) in one call.
	Clear(ctx context.Context) error
}

type docUserRepo struct {
	store Store
	doc   document[domain.User]
}

// NewUserRepo constructs a UserRepo over the given store.
func NewUserRepo(store Store, log *slog.Logger) UserRepo {
	return &docUserRepo{store: store, doc: newDocument[domain.User](store, KeyUser, log)}
}

func (r *docUserRepo) Load(ctx context.Context) (*domain.User, error) {
	u, ok, err := r.doc.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.UserRepo.Load: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *docUserRepo) Save(ctx context.Context, u domain.User) error {
	if err := r.doc.save(ctx, u); err != nil {
		return fmt.Errorf("repo.UserRepo.Save: %w", err)
	}
	return nil
}

func (r *docUserRepo) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, SessionKeys...); err != nil {
		return fmt.Errorf("repo.UserRepo.Clear: %w", err)
	}
	return nil
}
