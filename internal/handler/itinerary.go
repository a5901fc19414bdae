package handler

import (
	"net/http"

	"github.com/pkordes/nexttrip/backend/internal/domain"
)

// AddItineraryItem handles POST /trips/{id}/itinerary.
func (s *Server) AddItineraryItem(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req itineraryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	item, err := s.trips.AddItineraryItem(r.Context(), tripID, domain.ItineraryInput{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		Type:        domain.ItemType(req.Type),
		Cost:        req.Cost,
		Notes:       req.Notes,
	})
	if err != nil {
		s.writeServiceError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// UpdateItineraryItem handles PATCH /trips/{id}/itinerary/{itemId}.
func (s *Server) UpdateItineraryItem(w http.ResponseWriter, r *http.Request) {
	tripID, itemID, ok := tripAndItem(w, r)
	if !ok {
		return
	}
	var req itineraryPatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	item, err := s.trips.UpdateItineraryItem(r.Context(), tripID, itemID, req.toPatch())
	if err != nil {
		s.writeServiceError(w, r, err, "itinerary item not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteItineraryItem handles DELETE /trips/{id}/itinerary/{itemId}.
func (s *Server) DeleteItineraryItem(w http.ResponseWriter, r *http.Request) {
	tripID, itemID, ok := tripAndItem(w, r)
	if !ok {
		return
	}
	if err := s.trips.DeleteItineraryItem(r.Context(), tripID, itemID); err != nil {
		s.writeServiceError(w, r, err, "itinerary item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddExpense handles POST /trips/{id}/expenses.
func (s *Server) AddExpense(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req expenseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	exp, err := s.trips.AddExpense(r.Context(), tripID, domain.ExpenseInput{
		Title:       req.Title,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Category:    req.Category,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		s.writeServiceError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, exp)
}

// GetExpenseSummary handles GET /trips/{id}/expenses/summary.
func (s *Server) GetExpenseSummary(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	sum, err := s.trips.ExpenseSummary(r.Context(), tripID)
	if err != nil {
		s.writeServiceError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// AddChecklistItem handles POST /trips/{id}/checklist.
func (s *Server) AddChecklistItem(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req checklistRequest
	if !decodeBody(w, r, &req) {
		return
	}
	item, err := s.trips.AddChecklistItem(r.Context(), tripID, domain.ChecklistInput{
		Title:    req.Title,
		Category: req.Category,
		Priority: req.Priority,
	})
	if err != nil {
		s.writeServiceError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// ToggleChecklistItem handles POST /trips/{id}/checklist/{itemId}/toggle.
func (s *Server) ToggleChecklistItem(w http.ResponseWriter, r *http.Request) {
	tripID, itemID, ok := tripAndItem(w, r)
	if !ok {
		return
	}
	item, err := s.trips.ToggleChecklistItem(r.Context(), tripID, itemID)
	if err != nil {
		s.writeServiceError(w, r, err, "checklist item not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}
