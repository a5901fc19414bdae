package handler

import (
	"net/http"
	"strings"

	"github.com/pkordes/nexttrip/backend/internal/geo"
)

// GetMap handles GET /map: the current view, route and markers.
func (s *Server) GetMap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, snapshotToResponse(s.mapView.Snapshot()))
}

// Geocode handles GET /map/geocode?q=. Only the built-in city table is
// searched.
func (s *Server) Geocode(w http.ResponseWriter, r *http.Request) {
	var q string
	if !queryParam(w, r, "q", true, &q) {
		return
	}
	q = strings.TrimSpace(q)
	p, ok := geo.Geocode(q)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "location not found; try one of: "+strings.Join(geo.KnownCities(), ", "))
		return
	}
	writeJSON(w, http.StatusOK, geocodeResponse{latLng: toLatLng(p), Query: q})
}

// PopularDestinations handles GET /map/destinations.
func (s *Server) PopularDestinations(w http.ResponseWriter, r *http.Request) {
	dests := geo.PopularDestinations()
	out := make([]destinationResponse, len(dests))
	for i, d := range dests {
		out[i] = destinationResponse{latLng: toLatLng(d.Point), Name: d.Name, Description: d.Description, Image: d.Image}
	}
	writeJSON(w, http.StatusOK, out)
}

// PlanRoute handles POST /map/route: it marks both ends on the map and
// draws a straight route between them.
func (s *Server) PlanRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start, end := req.Start.point(), req.End.point()
	km := geo.PlanRoute(s.mapView, start, end)
	writeJSON(w, http.StatusOK, routeResponse{
		Route: lineToResponse(geo.StraightRoute(start, end, geo.DefaultRouteSteps)),
		KM:    km,
	})
}

// GetDistance handles GET /map/distance?from_lat=&from_lng=&to_lat=&to_lng=.
func (s *Server) GetDistance(w http.ResponseWriter, r *http.Request) {
	var from, to latLng
	if !queryParam(w, r, "from_lat", true, &from.Lat) ||
		!queryParam(w, r, "from_lng", true, &from.Lng) ||
		!queryParam(w, r, "to_lat", true, &to.Lat) ||
		!queryParam(w, r, "to_lng", true, &to.Lng) {
		return
	}
	for _, p := range []latLng{from, to} {
		if err := validate.Struct(p); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", validationMessage(err))
			return
		}
	}
	writeJSON(w, http.StatusOK, distanceResponse{Kilometres: geo.Distance(from.point(), to.point())})
}
