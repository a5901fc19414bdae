package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/pkordes/nexttrip/backend/internal/domain"
	"github.com/pkordes/nexttrip/backend/internal/events"
	"github.com/pkordes/nexttrip/backend/internal/geo"
)

// DefaultSimulationInterval is the delay between simulated route points.
const DefaultSimulationInterval = 2 * time.Second

// watchBuffer is how many pushed fixes a Watch holds before Push blocks.
const watchBuffer = 16

// Fix is one position report from a location source.
type Fix struct {
	Point orb.Point
	At    time.Time
}

// Tracking modes reported by TrackerStatus.
const (
	ModeIdle     = "idle"
	ModeWatch    = "watch"
	ModeSimulate = "simulate"
)

// TrackerStatus describes what the tracker is doing.
type TrackerStatus struct {
	Mode    string `json:"mode"`
	Running bool   `json:"running"`
}

// MemoryAppender is the part of TimelineService the tracker writes to.
type MemoryAppender interface {
	Add(ctx context.Context, in domain.MemoryInput) (domain.Memory, error)
}

// TrackerOptions tunes Tracker. Zero values select the defaults.
type TrackerOptions struct {
	Interval time.Duration
	// Route replayed by Simulate; the Paris walk by default.
	Route orb.LineString
}

// Tracker follows a location source or replays a demo route, moving the map
// and writing memories as it goes. At most one task runs at a time.
type Tracker struct {
	view     geo.MapView
	timeline MemoryAppender
	points   PointsAwarder
	bus      events.Publisher
	log      *slog.Logger
	interval time.Duration
	route    orb.LineString

	mu     sync.Mutex
	mode   string
	cancel context.CancelFunc
	done   chan struct{}
	// feed is the send side of the running Watch; nil otherwise.
	feed chan Fix
}

// NewTracker constructs a Tracker.
func NewTracker(view geo.MapView, timeline MemoryAppender, points PointsAwarder, bus events.Publisher, log *slog.Logger, opts TrackerOptions) *Tracker {
	if opts.Interval <= 0 {
		opts.Interval = DefaultSimulationInterval
	}
	if len(opts.Route) == 0 {
		opts.Route = geo.ParisWalk()
	}
	if bus == nil {
		bus = events.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		view:     view,
		timeline: timeline,
		points:   points,
		bus:      bus,
		log:      log,
		interval: opts.Interval,
		route:    opts.Route,
		mode:     ModeIdle,
	}
}

// Status reports the current mode.
func (t *Tracker) Status() TrackerStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TrackerStatus{Mode: t.mode, Running: t.mode != ModeIdle}
}

// Record handles a single fix: the map centres on it at tracking zoom, the
// route is extended, and a tracked memory is appended (which earns a point).
func (t *Tracker) Record(ctx context.Context, f Fix) (domain.Memory, error) {
	t.view.SetView(f.Point, geo.ZoomTracking)
	t.view.AddRoutePoint(f.Point)
	t.bus.Publish(events.Event{Type: events.MapChanged})

	m, err := t.timeline.Add(ctx, domain.MemoryInput{
		Kind:     domain.MemoryTracked,
		Caption:  "Tracked Location",
		Location: geo.FormatLatLng(f.Point),
	})
	if err != nil {
		return domain.Memory{}, fmt.Errorf("service.Tracker.Record: %w", err)
	}
	return m, nil
}

// Start consumes fixes from source until ctx ends, source closes, or Stop
// is called. It returns domain.ErrConflict if a task is already running.
func (t *Tracker) Start(ctx context.Context, source <-chan Fix) error {
	task, err := t.begin(ctx, ModeWatch)
	if err != nil {
		return fmt.Errorf("service.Tracker.Start: %w", err)
	}
	go task.run(t, t.consume(source))
	return nil
}

// Watch starts a location watch fed through Push, for sources that report
// one fix at a time (the HTTP client's geolocation watch). It runs until ctx
// ends or Stop is called and returns domain.ErrConflict if a task is already
// running.
func (t *Tracker) Watch(ctx context.Context) error {
	task, err := t.begin(ctx, ModeWatch)
	if err != nil {
		return fmt.Errorf("service.Tracker.Watch: %w", err)
	}
	feed := make(chan Fix, watchBuffer)
	t.mu.Lock()
	t.feed = feed
	t.mu.Unlock()
	go task.run(t, t.consume(feed))
	return nil
}

// Push hands f to the running Watch. It returns domain.ErrConflict when no
// Watch is running, including one that stopped while f was queued.
func (t *Tracker) Push(ctx context.Context, f Fix) error {
	t.mu.Lock()
	feed, done := t.feed, t.done
	t.mu.Unlock()
	if feed == nil {
		return fmt.Errorf("service.Tracker.Push: no location watch running: %w", domain.ErrConflict)
	}
	select {
	case feed <- f:
		return nil
	case <-done:
		return fmt.Errorf("service.Tracker.Push: location watch stopped: %w", domain.ErrConflict)
	case <-ctx.Done():
		return fmt.Errorf("service.Tracker.Push: %w", ctx.Err())
	}
}

func (t *Tracker) consume(source <-chan Fix) func(context.Context) {
	return func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case f, ok := <-source:
				if !ok {
					return
				}
				if _, err := t.Record(ctx, f); err != nil {
					t.log.WarnContext(ctx, "record location fix", slog.String("error", err.Error()))
				}
			}
		}
	}
}

// Simulate replays the demo route one point per interval, appending a
// simulated memory per point, and awards PointsRouteSimulated once the last
// point has been shown. It returns domain.ErrConflict if a task is already
// running.
func (t *Tracker) Simulate(ctx context.Context) error {
	task, err := t.begin(ctx, ModeSimulate)
	if err != nil {
		return fmt.Errorf("service.Tracker.Simulate: %w", err)
	}
	route := t.route.Clone()
	go task.run(t, func(ctx context.Context) {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if i >= len(route) {
				if t.points != nil {
					if err := t.points.Award(ctx, PointsRouteSimulated, "route simulation completed"); err != nil {
						t.log.WarnContext(ctx, "award points", slog.String("error", err.Error()))
					}
				}
				t.log.InfoContext(ctx, "route simulation completed", slog.Int("points", len(route)))
				return
			}

			p := route[i]
			t.view.SetView(p, geo.ZoomTracking)
			t.view.AddRoutePoint(p)
			t.bus.Publish(events.Event{Type: events.MapChanged})
			_, err := t.timeline.Add(ctx, domain.MemoryInput{
				Kind:     domain.MemorySimulated,
				Caption:  fmt.Sprintf("Simulated route point %d", i+1),
				Location: geo.FormatLatLng(p),
			})
			if err != nil {
				t.log.WarnContext(ctx, "record simulated point", slog.String("error", err.Error()))
			}
		}
	})
	return nil
}

// Stop cancels the running task, waits for it to exit, and clears the
// route. Calling it when nothing runs only clears the route.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	t.view.ClearRoute()
	t.bus.Publish(events.Event{Type: events.TrackingStopped})
}

// Wait blocks until the running task, if any, has finished.
func (t *Tracker) Wait() {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done != nil {
		<-done
	}
}

type trackerTask struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func (t *Tracker) begin(ctx context.Context, mode string) (trackerTask, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mode != ModeIdle {
		return trackerTask{}, fmt.Errorf("%s already running: %w", t.mode, domain.ErrConflict)
	}
	runCtx, cancel := context.WithCancel(ctx)
	task := trackerTask{ctx: runCtx, cancel: cancel, done: make(chan struct{})}
	t.mode = mode
	t.cancel = cancel
	t.done = task.done
	return task, nil
}

// run executes fn and resets the tracker to idle afterwards.
func (task trackerTask) run(t *Tracker, fn func(context.Context)) {
	defer func() {
		task.cancel()
		t.mu.Lock()
		t.mode = ModeIdle
		t.cancel = nil
		t.done = nil
		t.feed = nil
		t.mu.Unlock()
		close(task.done)
	}()
	fn(task.ctx)
}
