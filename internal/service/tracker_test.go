package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/nexttrip/backend/internal/domain"
	"github.com/pkordes/nexttrip/backend/internal/geo"
	"github.com/pkordes/nexttrip/backend/internal/repo"
	"github.com/pkordes/nexttrip/backend/internal/service"
)

func newTracker(interval time.Duration) (*service.Tracker, *geo.Recorder, *service.TimelineService, *fakeAccount) {
	acct := &fakeAccount{}
	view := geo.NewRecorder()
	timeline := newTimeline(repo.NewMemoryStore(), acct)
	tr := service.NewTracker(view, timeline, acct, nil, discardLogger(), service.TrackerOptions{Interval: interval})
	return tr, view, timeline, acct
}

func TestTracker_Simulate_ReplaysRouteAndAwards(t *testing.T) {
	tr, view, timeline, acct := newTracker(5 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, tr.Simulate(ctx))
	assert.Equal(t, service.ModeSimulate, tr.Status().Mode)
	tr.Wait()

	assert.Equal(t, service.ModeIdle, tr.Status().Mode)
	memories, err := timeline.List(ctx)
	require.NoError(t, err)
	require.Len(t, memories, 4)
	assert.Equal(t, domain.MemorySimulated, memories[0].Kind)
	assert.Equal(t, "Simulated route point 1", memories[0].Caption)
	assert.Equal(t, "48.8566, 2.3522", memories[0].Location)

	snap := view.Snapshot()
	assert.Len(t, snap.Route, 4)
	assert.Equal(t, geo.ZoomTracking, snap.Zoom)
	assert.Equal(t, []int{service.PointsRouteSimulated}, acct.awards)
}

func TestTracker_Start_RecordsFixesUntilSourceCloses(t *testing.T) {
	tr, view, timeline, acct := newTracker(time.Hour)
	ctx := context.Background()
	source := make(chan service.Fix, 2)
	source <- service.Fix{Point: geo.LatLng(40.7128, -74.0060), At: testNow}
	source <- service.Fix{Point: geo.LatLng(40.7306, -73.9352), At: testNow}
	close(source)

	require.NoError(t, tr.Start(ctx, source))
	tr.Wait()

	memories, err := timeline.List(ctx)
	require.NoError(t, err)
	require.Len(t, memories, 2)
	assert.Equal(t, domain.MemoryTracked, memories[0].Kind)
	assert.Equal(t, "Tracked Location", memories[0].Caption)
	assert.Equal(t, "40.7128, -74.0060", memories[0].Location)
	assert.Len(t, view.Snapshot().Route, 2)
	assert.Equal(t, 2*service.PointsTrackedLocation, acct.total())
}

func TestTracker_SecondTaskConflicts(t *testing.T) {
	tr, _, _, _ := newTracker(time.Hour)
	ctx := context.Background()

	require.NoError(t, tr.Simulate(ctx))
	defer tr.Stop()

	assert.ErrorIs(t, tr.Simulate(ctx), domain.ErrConflict)
	assert.ErrorIs(t, tr.Start(ctx, make(chan service.Fix)), domain.ErrConflict)
}

func TestTracker_Stop_CancelsAndClearsRoute(t *testing.T) {
	tr, view, timeline, acct := newTracker(time.Hour)
	ctx := context.Background()
	_, err := tr.Record(ctx, service.Fix{Point: geo.LatLng(51.5074, -0.1278)})
	require.NoError(t, err)
	require.Len(t, view.Snapshot().Route, 1)

	require.NoError(t, tr.Simulate(ctx))
	tr.Stop()
	tr.Stop()

	assert.Equal(t, service.ModeIdle, tr.Status().Mode)
	assert.Empty(t, view.Snapshot().Route)
	n, err := timeline.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "no simulated point was reached")
	assert.Equal(t, []int{service.PointsTrackedLocation}, acct.awards)

	require.NoError(t, tr.Simulate(ctx), "a stopped tracker can run again")
	tr.Stop()
}

func TestTracker_Watch_RecordsPushedFixesUntilStopped(t *testing.T) {
	tr, view, timeline, _ := newTracker(time.Hour)
	ctx := context.Background()

	require.ErrorIs(t, tr.Push(ctx, service.Fix{Point: geo.LatLng(1, 1)}), domain.ErrConflict, "nothing is watching yet")

	require.NoError(t, tr.Watch(ctx))
	assert.Equal(t, service.ModeWatch, tr.Status().Mode)
	assert.ErrorIs(t, tr.Watch(ctx), domain.ErrConflict)
	assert.ErrorIs(t, tr.Simulate(ctx), domain.ErrConflict)

	require.NoError(t, tr.Push(ctx, service.Fix{Point: geo.LatLng(40.7128, -74.0060), At: testNow}))
	require.NoError(t, tr.Push(ctx, service.Fix{Point: geo.LatLng(40.7306, -73.9352), At: testNow}))
	require.Eventually(t, func() bool {
		n, err := timeline.Count(ctx)
		return err == nil && n == 2
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, view.Snapshot().Route, 2)

	tr.Stop()
	assert.Equal(t, service.ModeIdle, tr.Status().Mode)
	assert.Empty(t, view.Snapshot().Route)
	assert.ErrorIs(t, tr.Push(ctx, service.Fix{Point: geo.LatLng(1, 1)}), domain.ErrConflict, "a stopped watch takes no more fixes")

	require.NoError(t, tr.Watch(ctx), "a stopped tracker can watch again")
	tr.Stop()
}

func TestTracker_Watch_EndsWithContext(t *testing.T) {
	tr, _, _, _ := newTracker(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, tr.Watch(ctx))
	cancel()
	tr.Wait()

	assert.Equal(t, service.ModeIdle, tr.Status().Mode)
	assert.ErrorIs(t, tr.Push(context.Background(), service.Fix{Point: geo.LatLng(1, 1)}), domain.ErrConflict)
}
