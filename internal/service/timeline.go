package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/nexttrip/backend/internal/domain"
	"github.com/pkordes/nexttrip/backend/internal/events"
	"github.com/pkordes/nexttrip/backend/internal/repo"
)

// TimelineService owns the append-only memory timeline.
type TimelineService struct {
	repo   repo.MemoryRepo
	points PointsAwarder
	bus    events.Publisher
	log    *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	loaded   bool
	memories []domain.Memory
}

// NewTimelineService constructs a TimelineService.
func NewTimelineService(memories repo.MemoryRepo, points PointsAwarder, bus events.Publisher, log *slog.Logger) *TimelineService {
	if bus == nil {
		bus = events.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &TimelineService{repo: memories, points: points, bus: bus, log: log, now: time.Now}
}

// WithClock replaces the time source. It returns s for chaining.
func (s *TimelineService) WithClock(now func() time.Time) *TimelineService {
	s.now = now
	return s
}

// Reload re-reads the timeline from storage.
func (s *TimelineService) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	if err := s.loadLocked(ctx); err != nil {
		return fmt.Errorf("service.TimelineService.Reload: %w", err)
	}
	s.bus.Publish(events.Event{Type: events.MemoriesChanged})
	return nil
}

func (s *TimelineService) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	m, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	s.memories = m
	s.loaded = true
	return nil
}

// Add appends a memory with a generated id and timestamp. Photo memories
// earn PointsPhotoMemory and tracked pings PointsTrackedLocation.
func (s *TimelineService) Add(ctx context.Context, in domain.MemoryInput) (domain.Memory, error) {
	kind := in.Kind
	if kind == "" {
		kind = domain.MemoryPhoto
	}
	if !kind.Valid() {
		return domain.Memory{}, domain.NewValidationError(domain.CodeInvalidInput, fmt.Sprintf("unknown memory kind %q", in.Kind))
	}
	if in.Image != "" && !strings.HasPrefix(in.Image, "data:image/") {
		return domain.Memory{}, domain.NewValidationError(domain.CodeInvalidInput, "image must be a data:image URI")
	}
	if strings.TrimSpace(in.Caption) == "" && in.Image == "" && strings.TrimSpace(in.Location) == "" {
		return domain.Memory{}, domain.NewValidationError(domain.CodeInvalidInput, "a memory needs a caption, image or location")
	}

	m := domain.Memory{
		ID:        uuid.New(),
		Kind:      kind,
		Image:     in.Image,
		Caption:   strings.TrimSpace(in.Caption),
		Location:  strings.TrimSpace(in.Location),
		Timestamp: s.now().UTC(),
	}

	s.mu.Lock()
	if err := s.loadLocked(ctx); err != nil {
		s.mu.Unlock()
		return domain.Memory{}, fmt.Errorf("service.TimelineService.Add: %w", err)
	}
	next := make([]domain.Memory, len(s.memories), len(s.memories)+1)
	copy(next, s.memories)
	next = append(next, m)
	if err := s.repo.Save(ctx, next); err != nil {
		s.mu.Unlock()
		return domain.Memory{}, fmt.Errorf("service.TimelineService.Add: %w", err)
	}
	s.memories = next
	s.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.MemoriesChanged, ID: m.ID.String()})

	switch kind {
	case domain.MemoryPhoto:
		s.award(ctx, PointsPhotoMemory, "photo memory")
	case domain.MemoryTracked:
		s.award(ctx, PointsTrackedLocation, "tracked location")
	}
	return m, nil
}

// List returns the timeline oldest first.
func (s *TimelineService) List(ctx context.Context) ([]domain.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return nil, fmt.Errorf("service.TimelineService.List: %w", err)
	}
	return append([]domain.Memory{}, s.memories...), nil
}

// Count returns the number of memories.
func (s *TimelineService) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return 0, fmt.Errorf("service.TimelineService.Count: %w", err)
	}
	return len(s.memories), nil
}

func (s *TimelineService) award(ctx context.Context, n int, reason string) {
	if s.points == nil {
		return
	}
	if err := s.points.Award(ctx, n, reason); err != nil {
		s.log.WarnContext(ctx, "award points", slog.String("reason", reason), slog.String("error", err.Error()))
	}
}
