package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/nexttrip/backend/internal/domain"
)

const tripNotFound = "trip not found"

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= (defaults: page=1, limit=20, max=100) and ?q=
// for a case-insensitive search over name, destination, description and tags.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	var page, limit *int
	var q string
	if !queryParam(w, r, "page", false, &page) ||
		!queryParam(w, r, "limit", false, &limit) ||
		!queryParam(w, r, "q", false, &q) {
		return
	}
	params := domain.NewPaginationParams(page, limit)

	var (
		trips []domain.Trip
		total int
		err   error
	)
	if q = strings.TrimSpace(q); q != "" {
		var all []domain.Trip
		all, err = s.trips.Search(r.Context(), q)
		total = len(all)
		trips = domain.Paginate(all, params)
	} else {
		trips, total, err = s.trips.List(r.Context(), params)
	}
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusOK, tripListResponse{
		Data:       tripsToResponse(trips),
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req createTripRequest
	if !decodeBody(w, r, &req) {
		return
	}
	created, err := s.trips.Create(r.Context(), req.toInput())
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	w.Header().Set("Location", "/api/v1/trips/"+created.ID.String())
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	s.tripAction(w, r, http.StatusOK, s.trips.Get)
}

// UpdateTrip handles PATCH /trips/{id}. Only the fields present in the body
// change.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req updateTripRequest
	if !decodeBody(w, r, &req) {
		return
	}
	updated, err := s.trips.Update(r.Context(), id, req.toPatch())
	if err != nil {
		s.writeServiceError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(updated))
}

// DeleteTrip handles DELETE /trips/{id}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.trips.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, tripNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateTrip handles POST /trips/{id}/duplicate.
func (s *Server) DuplicateTrip(w http.ResponseWriter, r *http.Request) {
	s.tripAction(w, r, http.StatusCreated, s.trips.Duplicate)
}

// StartTrip handles POST /trips/{id}/start.
func (s *Server) StartTrip(w http.ResponseWriter, r *http.Request) {
	s.tripAction(w, r, http.StatusOK, s.trips.Start)
}

// CompleteTrip handles POST /trips/{id}/complete.
func (s *Server) CompleteTrip(w http.ResponseWriter, r *http.Request) {
	s.tripAction(w, r, http.StatusOK, s.trips.Complete)
}

// CancelTrip handles POST /trips/{id}/cancel.
func (s *Server) CancelTrip(w http.ResponseWriter, r *http.Request) {
	s.tripAction(w, r, http.StatusOK, s.trips.Cancel)
}

// tripAction runs fn for the trip in the {id} path parameter and writes
// the resulting trip with status.
func (s *Server) tripAction(w http.ResponseWriter, r *http.Request, status int, fn func(context.Context, uuid.UUID) (domain.Trip, error)) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	trip, err := fn(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, status, tripToResponse(trip))
}

// GetTripStats handles GET /trips/stats.
func (s *Server) GetTripStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.trips.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, tripStatsResponse{
		TripStats:     stats,
		UpcomingTrips: tripsToResponse(stats.UpcomingTrips),
		RecentTrips:   tripsToResponse(stats.RecentTrips),
	})
}

// GetCurrentTrip handles GET /trips/current.
func (s *Server) GetCurrentTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.trips.Current(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "no current trip")
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// SetCurrentTrip handles PUT /trips/current.
func (s *Server) SetCurrentTrip(w http.ResponseWriter, r *http.Request) {
	var req currentTripRequest
	if !decodeBody(w, r, &req) {
		return
	}
	trip, err := s.trips.SetCurrent(r.Context(), req.TripID)
	if err != nil {
		s.writeServiceError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// ClearCurrentTrip handles DELETE /trips/current.
func (s *Server) ClearCurrentTrip(w http.ResponseWriter, r *http.Request) {
	if err := s.trips.ClearCurrent(r.Context()); err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
