package handler

import (
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"

	"github.com/pkordes/nexttrip/backend/internal/auth"
	"github.com/pkordes/nexttrip/backend/internal/domain"
	"github.com/pkordes/nexttrip/backend/internal/geo"
)

// --- requests ---------------------------------------------------------------

// Domain rules (required names, date order, codes) are enforced by the
// services so that the API and the CLI report the same errors. The tags
// here only reject values of the wrong shape.

type signUpRequest struct {
	Name            string `json:"name" validate:"max=100"`
	Email           string `json:"email" validate:"max=254"`
	Password        string `json:"password" validate:"max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"max=128"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"max=254"`
	Password string `json:"password" validate:"max=128"`
}

type resetPasswordRequest struct {
	Email string `json:"email" validate:"max=254"`
}

type updateMeRequest struct {
	Name string `json:"name" validate:"max=100"`
}

type preferencesRequest struct {
	Notifications *bool   `json:"notifications"`
	Newsletter    *bool   `json:"newsletter"`
	Theme         *string `json:"theme" validate:"omitempty,oneof=light dark auto"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"max=128"`
}

type tierRequest struct {
	Tier string `json:"tier" validate:"required,oneof=Free Pro Premium"`
}

type pointsRequest struct {
	Delta int `json:"delta" validate:"ne=0"`
}

type createTripRequest struct {
	Name        string              `json:"name" validate:"max=200"`
	Destination string              `json:"destination" validate:"max=200"`
	StartDate   *openapi_types.Date `json:"start_date"`
	EndDate     *openapi_types.Date `json:"end_date"`
	Budget      decimal.Decimal     `json:"budget"`
	TravelClass string              `json:"travel_class" validate:"omitempty,oneof=economy premium_economy business first"`
	Description string              `json:"description" validate:"max=5000"`
	Notes       string              `json:"notes" validate:"max=5000"`
	Tags        []string            `json:"tags" validate:"max=20,dive,max=50"`
}

type updateTripRequest struct {
	Name        *string             `json:"name" validate:"omitempty,max=200"`
	Destination *string             `json:"destination" validate:"omitempty,max=200"`
	StartDate   *openapi_types.Date `json:"start_date"`
	EndDate     *openapi_types.Date `json:"end_date"`
	ClearDates  bool                `json:"clear_dates"`
	Budget      *decimal.Decimal    `json:"budget"`
	TravelClass *string             `json:"travel_class" validate:"omitempty,oneof=economy premium_economy business first"`
	Description *string             `json:"description" validate:"omitempty,max=5000"`
	Notes       *string             `json:"notes" validate:"omitempty,max=5000"`
	Tags        []string            `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	Status      *string             `json:"status" validate:"omitempty,oneof=planned active completed cancelled"`
}

type currentTripRequest struct {
	TripID uuid.UUID `json:"trip_id" validate:"required"`
}

type itineraryRequest struct {
	Title       string          `json:"title" validate:"max=200"`
	Description string          `json:"description" validate:"max=5000"`
	StartTime   *time.Time      `json:"start_time"`
	EndTime     *time.Time      `json:"end_time"`
	Location    string          `json:"location" validate:"max=200"`
	Type        string          `json:"type" validate:"omitempty,oneof=activity transport accommodation meal"`
	Cost        decimal.Decimal `json:"cost"`
	Notes       string          `json:"notes" validate:"max=5000"`
}

type itineraryPatchRequest struct {
	Title       *string          `json:"title" validate:"omitempty,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	StartTime   *time.Time       `json:"start_time"`
	EndTime     *time.Time       `json:"end_time"`
	Location    *string          `json:"location" validate:"omitempty,max=200"`
	Type        *string          `json:"type" validate:"omitempty,oneof=activity transport accommodation meal"`
	Status      *string          `json:"status" validate:"omitempty,max=50"`
	Cost        *decimal.Decimal `json:"cost"`
	Notes       *string          `json:"notes" validate:"omitempty,max=5000"`
}

type expenseRequest struct {
	Title       string          `json:"title" validate:"max=200"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" validate:"omitempty,alpha,len=3"`
	Category    string          `json:"category" validate:"max=50"`
	Date        string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Description string          `json:"description" validate:"max=5000"`
}

type checklistRequest struct {
	Title    string `json:"title" validate:"max=200"`
	Category string `json:"category" validate:"max=50"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type memoryRequest struct {
	Kind     string `json:"kind" validate:"omitempty,oneof=photo tracked simulated"`
	Image    string `json:"image"`
	Caption  string `json:"caption" validate:"max=500"`
	Location string `json:"location" validate:"max=200"`
}

type latLng struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

func (p latLng) point() orb.Point { return geo.LatLng(p.Lat, p.Lng) }

func toLatLng(p orb.Point) latLng { return latLng{Lat: p.Lat(), Lng: p.Lon()} }

type fixRequest struct {
	latLng
	At *time.Time `json:"at"`
}

type routeRequest struct {
	Start *latLng `json:"start" validate:"required"`
	End   *latLng `json:"end" validate:"required"`
}

type themeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark auto"`
}

// --- responses --------------------------------------------------------------

// Pagination describes one page of a list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type tripResponse struct {
	domain.Trip
	// Planned dates are calendar dates on the wire.
	StartDate *openapi_types.Date `json:"start_date,omitempty"`
	EndDate   *openapi_types.Date `json:"end_date,omitempty"`
}

type tripListResponse struct {
	Data       []tripResponse `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

type tripStatsResponse struct {
	domain.TripStats
	UpcomingTrips []tripResponse `json:"upcoming_trips"`
	RecentTrips   []tripResponse `json:"recent_trips"`
}

type importResponse struct {
	Trip     tripResponse `json:"trip"`
	Replaced bool         `json:"replaced"`
}

type sessionResponse struct {
	User domain.User `json:"user"`
	auth.Token
}

type messageResponse struct {
	Message string `json:"message"`
}

type permissionResponse struct {
	Permission string `json:"permission"`
	Allowed    bool   `json:"allowed"`
}

type themeResponse struct {
	Theme domain.Theme `json:"theme"`
}

type markerResponse struct {
	latLng
	Label string `json:"label"`
}

type boundsResponse struct {
	Min latLng `json:"min"`
	Max latLng `json:"max"`
}

type mapResponse struct {
	Center  latLng           `json:"center"`
	Zoom    int              `json:"zoom"`
	Route   []latLng         `json:"route"`
	Markers []markerResponse `json:"markers"`
	Bounds  *boundsResponse  `json:"bounds"`
	RouteKM float64          `json:"route_km"`
}

type destinationResponse struct {
	latLng
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type geocodeResponse struct {
	latLng
	Query string `json:"query"`
}

type distanceResponse struct {
	Kilometres float64 `json:"km"`
}

type routeResponse struct {
	Route []latLng `json:"route"`
	KM    float64  `json:"km"`
}

// --- mapping helpers --------------------------------------------------------

func tripToResponse(t domain.Trip) tripResponse {
	resp := tripResponse{Trip: t}
	if t.StartDate != nil {
		resp.StartDate = &openapi_types.Date{Time: *t.StartDate}
	}
	if t.EndDate != nil {
		resp.EndDate = &openapi_types.Date{Time: *t.EndDate}
	}
	return resp
}

func tripsToResponse(trips []domain.Trip) []tripResponse {
	out := make([]tripResponse, len(trips))
	for i, t := range trips {
		out[i] = tripToResponse(t)
	}
	return out
}

// publicUser strips the password hash before a user leaves the server.
func publicUser(u domain.User) domain.User {
	u.PasswordHash = ""
	return u
}

func dateToTime(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func (req createTripRequest) toInput() domain.TripInput {
	return domain.TripInput{
		Name:        req.Name,
		Destination: req.Destination,
		StartDate:   dateToTime(req.StartDate),
		EndDate:     dateToTime(req.EndDate),
		Budget:      req.Budget,
		TravelClass: domain.TravelClass(req.TravelClass),
		Description: req.Description,
		Notes:       req.Notes,
		Tags:        req.Tags,
	}
}

func (req updateTripRequest) toPatch() domain.TripPatch {
	p := domain.TripPatch{
		Name:        req.Name,
		Destination: req.Destination,
		StartDate:   dateToTime(req.StartDate),
		EndDate:     dateToTime(req.EndDate),
		ClearDates:  req.ClearDates,
		Budget:      req.Budget,
		Description: req.Description,
		Notes:       req.Notes,
		Tags:        req.Tags,
	}
	if req.TravelClass != nil {
		c := domain.TravelClass(*req.TravelClass)
		p.TravelClass = &c
	}
	if req.Status != nil {
		s := domain.TripStatus(*req.Status)
		p.Status = &s
	}
	return p
}

func (req itineraryPatchRequest) toPatch() domain.ItineraryPatch {
	p := domain.ItineraryPatch{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		Status:      req.Status,
		Cost:        req.Cost,
		Notes:       req.Notes,
	}
	if req.Type != nil {
		t := domain.ItemType(*req.Type)
		p.Type = &t
	}
	return p
}

func snapshotToResponse(s geo.Snapshot) mapResponse {
	resp := mapResponse{
		Center:  toLatLng(s.Center),
		Zoom:    s.Zoom,
		Route:   lineToResponse(s.Route),
		Markers: make([]markerResponse, len(s.Markers)),
		RouteKM: s.RouteKM,
	}
	for i, m := range s.Markers {
		resp.Markers[i] = markerResponse{latLng: toLatLng(m.Point), Label: m.Label}
	}
	if len(s.Route)+len(s.Markers) > 0 {
		resp.Bounds = &boundsResponse{Min: toLatLng(s.Bounds.Min), Max: toLatLng(s.Bounds.Max)}
	}
	return resp
}

func lineToResponse(ls orb.LineString) []latLng {
	out := make([]latLng, len(ls))
	for i, p := range ls {
		out[i] = toLatLng(p)
	}
	return out
}
