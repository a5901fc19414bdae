package repo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pkordes/nexttrip/backend/internal/domain"
)

// SettingsRepo persists the theme and the current-trip pointer.
type SettingsRepo interface {
	// Theme returns the stored theme, or domain.DefaultTheme when absent or
	// not one of the known values.
	Theme(ctx context.Context) (domain.Theme, error)
	SetTheme(ctx context.Context, t domain.Theme) error

	// CurrentTrip returns the id of the current trip, or uuid.Nil when unset.
	CurrentTrip(ctx context.Context) (uuid.UUID, error)
	SetCurrentTrip(ctx context.Context, id uuid.UUID) error
	ClearCurrentTrip(ctx context.Context) error
}

type docSettingsRepo struct {
	theme   document[domain.Theme]
	current document[uuid.UUID]
}

// NewSettingsRepo constructs a SettingsRepo over the given store.
func NewSettingsRepo(store Store, log *slog.Logger) SettingsRepo {
	return &docSettingsRepo{
		theme:   newDocument[domain.Theme](store, KeyTheme, log),
		current: newDocument[uuid.UUID](store, KeyCurrentTrip, log),
	}
}

func (r *docSettingsRepo) Theme(ctx context.Context) (domain.Theme, error) {
	t, ok, err := r.theme.load(ctx)
	if err != nil {
		return "", fmt.Errorf("repo.SettingsRepo.Theme: %w", err)
	}
	if !ok || !t.Valid() {
		return domain.DefaultTheme, nil
	}
	return t, nil
}

func (r *docSettingsRepo) SetTheme(ctx context.Context, t domain.Theme) error {
	if err := r.theme.save(ctx, t); err != nil {
		return fmt.Errorf("repo.SettingsRepo.SetTheme: %w", err)
	}
	return nil
}

func (r *docSettingsRepo) CurrentTrip(ctx context.Context) (uuid.UUID, error) {
	id, _, err := r.current.load(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repo.SettingsRepo.CurrentTrip: %w", err)
	}
	return id, nil
}

func (r *docSettingsRepo) SetCurrentTrip(ctx context.Context, id uuid.UUID) error {
	if err := r.current.save(ctx, id); err != nil {
		return fmt.Errorf("repo.SettingsRepo.SetCurrentTrip: %w", err)
	}
	return nil
}

func (r *docSettingsRepo) ClearCurrentTrip(ctx context.Context) error {
	if err := r.current.delete(ctx); err != nil {
		return fmt.Errorf("repo.SettingsRepo.ClearCurrentTrip: %w", err)
	}
	return nil
}
