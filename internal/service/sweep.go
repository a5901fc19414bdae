package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the status sweep shortly after local midnight.
const DefaultSweepSchedule = "5 0 * * *"

// StatusAdvancer moves trips whose dates have arrived or passed to their
// next status and reports how many changed.
type StatusAdvancer interface {
	AdvanceStatuses(ctx context.Context, now time.Time) (int, error)
}

// StatusSweeper periodically advances trip statuses on a cron schedule.
type StatusSweeper struct {
	trips    StatusAdvancer
	schedule string
	log      *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	scheduler *cron.Cron
}

// NewStatusSweeper validates schedule (standard five-field cron syntax) and
// returns a sweeper that is not yet running.
func NewStatusSweeper(trips StatusAdvancer, schedule string, log *slog.Logger) (*StatusSweeper, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("service.NewStatusSweeper: invalid schedule %q: %w", schedule, err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &StatusSweeper{trips: trips, schedule: schedule, log: log, now: time.Now}, nil
}

// WithClock replaces the time source passed to each sweep.
func (s *StatusSweeper) WithClock(now func() time.Time) *StatusSweeper {
	s.now = now
	return s
}

// Sweep runs one pass immediately.
func (s *StatusSweeper) Sweep(ctx context.Context) (int, error) {
	n, err := s.trips.AdvanceStatuses(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("service.StatusSweeper.Sweep: %w", err)
	}
	if n > 0 {
		s.log.InfoContext(ctx, "trip statuses advanced", slog.Int("count", n))
	}
	return n, nil
}

// Start schedules the sweep. Calling Start on a running sweeper is a no-op.
func (s *StatusSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduler != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.log.WarnContext(ctx, "status sweep failed", slog.String("error", err.Error()))
		}
	}); err != nil {
		return fmt.Errorf("service.StatusSweeper.Start: %w", err)
	}
	c.Start()
	s.scheduler = c
	s.log.InfoContext(ctx, "status sweeper started", slog.String("schedule", s.schedule))
	return nil
}

// Stop halts the schedule and waits for a sweep in progress to finish.
func (s *StatusSweeper) Stop() {
	s.mu.Lock()
	c := s.scheduler
	s.scheduler = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}
