package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/nexttrip/backend/internal/geo"
	"github.com/pkordes/nexttrip/backend/internal/handler"
)

type mapBody struct {
	Center struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"center"`
	Zoom    int `json:"zoom"`
	Route   []struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"route"`
	Markers []struct {
		Label string `json:"label"`
	} `json:"markers"`
	Bounds  *json.RawMessage `json:"bounds"`
	RouteKM float64          `json:"route_km"`
}

func TestGetMap_initialView(t *testing.T) {
	h := newHTTPHandler(handler.Deps{Map: geo.NewRecorder()})

	rec := do(h, http.MethodGet, "/api/v1/map", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body mapBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, geo.ZoomWorld, body.Zoom)
	assert.Empty(t, body.Route)
	assert.Empty(t, body.Markers)
	assert.Nil(t, body.Bounds)
}

func TestPlanRoute_updatesMap(t *testing.T) {
	view := geo.NewRecorder()
	h := newHTTPHandler(handler.Deps{Map: view})

	rec := do(h, http.MethodPost, "/api/v1/map/route", jsonBody(t, map[string]any{
		"start": map[string]float64{"lat": 48.8566, "lng": 2.3522},
		"end":   map[string]float64{"lat": 51.5074, "lng": -0.1278},
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	var route struct {
		Route []json.RawMessage `json:"route"`
		KM    float64           `json:"km"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&route))
	assert.Len(t, route.Route, geo.DefaultRouteSteps+1)
	assert.InDelta(t, 344, route.KM, 2)

	rec = do(h, http.MethodGet, "/api/v1/map", nil)
	var body mapBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Markers, 2)
	assert.Equal(t, "Start", body.Markers[0].Label)
	assert.Equal(t, "Destination", body.Markers[1].Label)
	assert.Len(t, body.Route, geo.DefaultRouteSteps+1)
	assert.NotNil(t, body.Bounds)
	assert.InDelta(t, route.KM, body.RouteKM, 1)
}

func TestPlanRoute_validation(t *testing.T) {
	h := newHTTPHandler(handler.Deps{Map: geo.NewRecorder()})

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing end", map[string]any{"start": map[string]float64{"lat": 1, "lng": 1}}},
		{"latitude out of range", map[string]any{
			"start": map[string]float64{"lat": 91, "lng": 0},
			"end":   map[string]float64{"lat": 0, "lng": 0},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/api/v1/map/route", jsonBody(t, tc.body))

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestGeocode(t *testing.T) {
	h := newHTTPHandler(handler.Deps{})

	rec := do(h, http.MethodGet, "/api/v1/map/geocode?q=Paris", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Lat   float64 `json:"lat"`
		Lng   float64 `json:"lng"`
		Query string  `json:"query"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.InDelta(t, 48.8566, body.Lat, 1e-9)
	assert.InDelta(t, 2.3522, body.Lng, 1e-9)
	assert.Equal(t, "Paris", body.Query)

	rec = do(h, http.MethodGet, "/api/v1/map/geocode?q=Atlantis", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "london")

	rec = do(h, http.MethodGet, "/api/v1/map/geocode", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetDistance(t *testing.T) {
	h := newHTTPHandler(handler.Deps{})

	rec := do(h, http.MethodGet, "/api/v1/map/distance?from_lat=48.8566&from_lng=2.3522&to_lat=51.5074&to_lng=-0.1278", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		KM float64 `json:"km"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.InDelta(t, 344, body.KM, 2)

	rec = do(h, http.MethodGet, "/api/v1/map/distance?from_lat=48.8566&from_lng=2.3522&to_lat=51.5074", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(h, http.MethodGet, "/api/v1/map/distance?from_lat=0&from_lng=200&to_lat=0&to_lng=0", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPopularDestinations(t *testing.T) {
	h := newHTTPHandler(handler.Deps{})

	rec := do(h, http.MethodGet, "/api/v1/map/destinations", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []struct {
		Name string  `json:"name"`
		Lat  float64 `json:"lat"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body, len(geo.PopularDestinations()))
	assert.Equal(t, "Paris, France", body[0].Name)
}
