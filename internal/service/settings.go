package service

import (
	"context"
	"fmt"

	"github.com/pkordes/nexttrip/backend/internal/domain"
	"github.com/pkordes/nexttrip/backend/internal/events"
	"github.com/pkordes/nexttrip/backend/internal/repo"
)

// SettingsService manages the display theme. The theme is not part of the
// session and survives sign-out.
type SettingsService struct {
	repo repo.SettingsRepo
	bus  events.Publisher
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(r repo.SettingsRepo, bus events.Publisher) *SettingsService {
	if bus == nil {
		bus = events.Nop{}
	}
	return &SettingsService{repo: r, bus: bus}
}

// Theme returns the stored theme, auto when none is stored.
func (s *SettingsService) Theme(ctx context.Context) (domain.Theme, error) {
	t, err := s.repo.Theme(ctx)
	if err != nil {
		return "", fmt.Errorf("service.SettingsService.Theme: %w", err)
	}
	return t, nil
}

// SetTheme stores t.
func (s *SettingsService) SetTheme(ctx context.Context, t domain.Theme) (domain.Theme, error) {
	if !t.Valid() {
		return "", domain.NewValidationError(domain.CodeInvalidInput, "theme must be light, dark, or auto")
	}
	if err := s.repo.SetTheme(ctx, t); err != nil {
		return "", fmt.Errorf("service.SettingsService.SetTheme: %w", err)
	}
	s.bus.Publish(events.Event{Type: events.ThemeChanged, ID: string(t)})
	return t, nil
}

// ToggleTheme advances the theme one step through dark, light, auto.
func (s *SettingsService) ToggleTheme(ctx context.Context) (domain.Theme, error) {
	cur, err := s.Theme(ctx)
	if err != nil {
		return "", fmt.Errorf("service.SettingsService.ToggleTheme: %w", err)
	}
	return s.SetTheme(ctx, cur.Next())
}
