package geo

import (
	"sort"
	"strings"

	"github.com/paulmach/orb"
)

// Destination is a featured place shown on the map.
type Destination struct {
	Name        string    `json:"name"`
	Point       orb.Point `json:"-"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
}

// PopularDestinations returns the featured destinations in display order.
func PopularDestinations() []Destination {
	return []Destination{
		{
			Name:        "Paris, France",
			Point:       LatLng(48.8566, 2.3522),
			Description: "The City of Light",
			Image:       "https://images.unsplash.com/photo-1502602898536-47ad22581b52?w=200&h=120&fit=crop",
		},
		{
			Name:        "Tokyo, Japan",
			Point:       LatLng(35.6762, 139.6503),
			Description: "Modern metropolis meets tradition",
			Image:       "https://images.unsplash.com/photo-1540959733332-eab4deabeeaf?w=200&h=120&fit=crop",
		},
		{
			Name:        "New York, USA",
			Point:       LatLng(40.7128, -74.0060),
			Description: "The Big Apple",
			Image:       "https://images.unsplash.com/photo-1496442226666-8d4d0e62e6e9?w=200&h=120&fit=crop",
		},
		{
			Name:        "London, UK",
			Point:       LatLng(51.5074, -0.1278),
			Description: "Royal city with rich history",
			Image:       "https://images.unsplash.com/photo-1513635269975-59663e0ac1ad?w=200&h=120&fit=crop",
		},
		{
			Name:        "Sydney, Australia",
			Point:       LatLng(-33.8688, 151.2093),
			Description: "Harbor city down under",
			Image:       "https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=200&h=120&fit=crop",
		},
	}
}

var cities = map[string]orb.Point{
	"paris":     LatLng(48.8566, 2.3522),
	"london":    LatLng(51.5074, -0.1278),
	"tokyo":     LatLng(35.6762, 139.6503),
	"new york":  LatLng(40.7128, -74.0060),
	"sydney":    LatLng(-33.8688, 151.2093),
	"rome":      LatLng(41.9028, 12.4964),
	"barcelona": LatLng(41.3851, 2.1734),
	"amsterdam": LatLng(52.3676, 4.9041),
	"berlin":    LatLng(52.5200, 13.4050),
	"istanbul":  LatLng(41.0082, 28.9784),
}

// Geocode looks query up in the fixed city table, ignoring case and
// surrounding space.
func Geocode(query string) (orb.Point, bool) {
	p, ok := cities[strings.ToLower(strings.TrimSpace(query))]
	return p, ok
}

// KnownCities lists the names Geocode understands, sorted.
func KnownCities() []string {
	names := make([]string, 0, len(cities))
	for n := range cities {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParisWalk is the demo route replayed by the tracker's simulation:
// Notre-Dame, Eiffel Tower, Louvre, Latin Quarter.
func ParisWalk() orb.LineString {
	return orb.LineString{
		LatLng(48.8566, 2.3522),
		LatLng(48.8584, 2.2945),
		LatLng(48.8606, 2.3376),
		LatLng(48.8529, 2.3499),
	}
}
