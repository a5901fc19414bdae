// Package geo holds the map collaborator contract and the small amount of
// geometry the rest of the backend needs: great-circle distance, straight
// line routes, a fixed geocoding table, and "lat, lng" parsing.
//
// Coordinates are orb.Point values, which store longitude first.
// Use LatLng to build one from the usual latitude-first pair.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// EarthRadiusKM is the sphere radius used by Distance.
const EarthRadiusKM = 6371.0

// DefaultRouteSteps is the number of segments StraightRoute produces when
// asked for zero or fewer.
const DefaultRouteSteps = 10

// Zoom levels used by the tracker and search.
const (
	ZoomWorld    = 2
	ZoomCity     = 12
	ZoomTracking = 15
)

// LatLng returns the point at the given latitude and longitude.
func LatLng(lat, lng float64) orb.Point {
	return orb.Point{lng, lat}
}

// Distance returns the haversine distance between a and b in kilometres.
func Distance(a, b orb.Point) float64 {
	dLat := radians(b.Lat() - a.Lat())
	dLon := radians(b.Lon() - a.Lon())

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat()))*math.Cos(radians(b.Lat()))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return EarthRadiusKM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PathLength is the summed Distance along ls.
func PathLength(ls orb.LineString) float64 {
	var total float64
	for i := 1; i < len(ls); i++ {
		total += Distance(ls[i-1], ls[i])
	}
	return total
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// StraightRoute linearly interpolates steps+1 points from start to end,
// both included.
func StraightRoute(start, end orb.Point, steps int) orb.LineString {
	if steps <= 0 {
		steps = DefaultRouteSteps
	}
	route := make(orb.LineString, 0, steps+1)
	for i := 0; i <= steps; i++ {
		r := float64(i) / float64(steps)
		route = append(route, LatLng(
			start.Lat()+(end.Lat()-start.Lat())*r,
			start.Lon()+(end.Lon()-start.Lon())*r,
		))
	}
	return route
}

// ParseLatLng parses "lat, lng" as written into memory locations.
func ParseLatLng(s string) (orb.Point, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return orb.Point{}, fmt.Errorf("geo.ParseLatLng: %q: missing comma", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("geo.ParseLatLng: latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("geo.ParseLatLng: longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return orb.Point{}, fmt.Errorf("geo.ParseLatLng: %q: out of range", s)
	}
	return LatLng(lat, lng), nil
}

// FormatLatLng renders p the way tracked memories store it (4 decimals).
func FormatLatLng(p orb.Point) string {
	return fmt.Sprintf("%.4f, %.4f", p.Lat(), p.Lon())
}
