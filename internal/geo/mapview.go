package geo

import (
	"sync"

	"github.com/paulmach/orb"
)

// MapView is the map widget as the backend sees it. Implementations must
// tolerate repeated identical calls: setting the same view, adding the same
// marker, or appending the point already at the end of the route changes
// nothing.
type MapView interface {
	SetView(center orb.Point, zoom int)
	AddRoutePoint(p orb.Point)
	ClearRoute()
	AddMarker(p orb.Point, label string)
}

// Marker is a labelled point.
type Marker struct {
	Point orb.Point
	Label string
}

// Snapshot is a copy of a Recorder's state.
type Snapshot struct {
	Center  orb.Point
	Zoom    int
	Route   orb.LineString
	Markers []Marker
	// Bounds covers the route and markers; zero when both are empty.
	Bounds orb.Bound
	// RouteKM is the route's path length.
	RouteKM float64
}

// Recorder is an in-memory MapView. The HTTP API serves its snapshot to
// clients that render the real map.
type Recorder struct {
	mu       sync.Mutex
	center   orb.Point
	zoom     int
	route    orb.LineString
	markers  []Marker
	onChange func()
}

// NewRecorder returns a world view with no route or markers.
func NewRecorder() *Recorder {
	return &Recorder{zoom: ZoomWorld, center: LatLng(20, 0)}
}

// OnChange registers fn to run after every call that changed state.
// It runs outside the recorder's lock.
func (r *Recorder) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

func (r *Recorder) SetView(center orb.Point, zoom int) {
	r.update(func() bool {
		if r.center.Equal(center) && r.zoom == zoom {
			return false
		}
		r.center, r.zoom = center, zoom
		return true
	})
}

func (r *Recorder) AddRoutePoint(p orb.Point) {
	r.update(func() bool {
		if n := len(r.route); n > 0 && r.route[n-1].Equal(p) {
			return false
		}
		r.route = append(r.route, p)
		return true
	})
}

func (r *Recorder) ClearRoute() {
	r.update(func() bool {
		if len(r.route) == 0 {
			return false
		}
		r.route = nil
		return true
	})
}

func (r *Recorder) AddMarker(p orb.Point, label string) {
	r.update(func() bool {
		for _, m := range r.markers {
			if m.Label == label && m.Point.Equal(p) {
				return false
			}
		}
		r.markers = append(r.markers, Marker{Point: p, Label: label})
		return true
	})
}

// ClearMarkers removes every marker.
func (r *Recorder) ClearMarkers() {
	r.update(func() bool {
		if len(r.markers) == 0 {
			return false
		}
		r.markers = nil
		return true
	})
}

func (r *Recorder) update(fn func() bool) {
	r.mu.Lock()
	changed := fn()
	cb := r.onChange
	r.mu.Unlock()
	if changed && cb != nil {
		cb()
	}
}

// Snapshot returns a copy of the current state.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		Center:  r.center,
		Zoom:    r.zoom,
		Route:   r.route.Clone(),
		Markers: append([]Marker(nil), r.markers...),
		RouteKM: PathLength(r.route),
	}

	var mp orb.MultiPoint
	mp = append(mp, r.route...)
	for _, m := range r.markers {
		mp = append(mp, m.Point)
	}
	if len(mp) > 0 {
		s.Bounds = mp.Bound()
	}
	return s
}

// PlanRoute clears the route, marks start and end, and draws a straight
// route between them. It returns the route's length in kilometres.
func PlanRoute(v MapView, start, end orb.Point) float64 {
	v.ClearRoute()
	v.AddMarker(start, "Start")
	v.AddMarker(end, "Destination")
	route := StraightRoute(start, end, DefaultRouteSteps)
	for _, p := range route {
		v.AddRoutePoint(p)
	}
	return Distance(start, end)
}
