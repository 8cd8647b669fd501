package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// ---- GET /trip -------------------------------------------------------------

func TestGetTrip_200(t *testing.T) {
	doc := domain.NewTripDocument()
	doc.Days = []domain.Day{{ID: "d1", Number: 1, Title: "Arrival", Activities: []domain.Activity{}}}
	trip := &mockItinerary{document: func() domain.TripDocument { return doc }}

	req := httptest.NewRequest(http.MethodGet, "/trip", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{trip: trip}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.TripDocument
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got.Days, 1)
	assert.Equal(t, "Arrival", got.Days[0].Title)
}

// ---- days & activities -----------------------------------------------------

func TestAddDay_201(t *testing.T) {
	var captured domain.Day
	trip := &mockItinerary{
		addDay: func(_ context.Context, d domain.Day) (domain.Day, error) {
			captured = d
			d.ID = "d1"
			return d, nil
		},
	}

	body := jsonBody(t, map[string]any{"number": 2, "date": "2024-01-10", "title": "Kyoto"})
	req := httptest.NewRequest(http.MethodPost, "/trip/days", body)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{trip: trip}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, domain.Day{Number: 2, Date: "2024-01-10", Title: "Kyoto"}, captured)

	var resp domain.Day
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "d1", resp.ID)
}

func TestAddDay_422_ValidationError(t *testing.T) {
	trip := &mockItinerary{
		addDay: func(_ context.Context, _ domain.Day) (domain.Day, error) {
			return domain.Day{}, fmt.Errorf("service.ItineraryService.AddDay: %w", fmt.Errorf("%w: title is required", domain.ErrValidation))
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/trip/days", jsonBody(t, map[string]any{"number": 1, "title": "  "}))
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{trip: trip}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec.Body)
	assert.Equal(t, "validation_error", resp.Error.Code)
	assert.Equal(t, "title is required", resp.Error.Message)
}

func TestAddDay_422_BadDate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/trip/days", strings.NewReader(`{"number":1,"title":"x","date":"10/01/2024"}`))
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAddDay_422_RequestShape(t *testing.T) {
	called := false
	trip := &mockItinerary{
		addDay: func(_ context.Context, d domain.Day) (domain.Day, error) {
			called = true
			return d, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/trip/days", jsonBody(t, map[string]any{"number": 0}))
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{trip: trip}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "number must be at least 1; title is required", decodeError(t, rec.Body).Error.Message)
	assert.False(t, called, "service must not run for a malformed request")
}

func TestAddDay_422_MissingBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/trip/days", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "request body is required", decodeError(t, rec.Body).Error.Message)
}

func TestDeleteDay_204(t *testing.T) {
	var gotID string
	trip := &mockItinerary{
		deleteDay: func(_ context.Context, id string) error {
			gotID = id
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/trip/days/d1", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{trip: trip}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "d1", gotID)
}

func TestDeleteDay_404(t *testing.T) {
	trip := &mockItinerary{
		deleteDay: func(_ context.Context, _ string) error {
			return fmt.Errorf("service.ItineraryService.DeleteDay: %w", domain.ErrNotFound)
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/trip/days/missing", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{trip: trip}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeError(t, rec.Body)
	assert.Equal(t, "not_found", resp.Error.Code)
	assert.Equal(t, "day not found", resp.Error.Message)
}

func TestAddActivity_201(t *testing.T) {
	var gotDay string
	trip := &mockItinerary{
		addActivity: func(_ context.Context, dayID string, a domain.Activity) (domain.Activity, error) {
			gotDay = dayID
			a.ID = "a1"
			return a, nil
		},
	}

	body := jsonBody(t, map[string]any{"time": "09:00", "title": "Temple"})
	req := httptest.NewRequest(http.MethodPost, "/trip/days/d1/activities", body)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{trip: trip}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "d1", gotDay)
	var resp domain.Activity
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Temple", resp.Title)
}

func TestDeleteActivity_204(t *testing.T) {
	var gotDay, gotActivity string
	trip := &mockItinerary{
		deleteActivity: func(_ context.Context, dayID, activityID string) error {
			gotDay, gotActivity = dayID, activityID
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/trip/days/d1/activities/a1", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{trip: trip}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "d1", gotDay)
	assert.Equal(t, "a1", gotActivity)
}

// ---- flights, hotels, attractions ------------------------------------------

func TestAddFlight_201(t *testing.T) {
	trip := &mockItinerary{
		addFlight: func(_ context.Context, f domain.Flight) (domain.Flight, error) {
			f.ID = "f1"
			return f, nil
		},
	}

	body := jsonBody(t, map[string]any{"from": "LHR", "to": "HND", "date": "2024-01-09T10:30", "price": 640.5})
	req := httptest.NewRequest(http.MethodPost, "/trip/flights", body)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{trip: trip}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp domain.Flight
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "f1", resp.ID)
	assert.Equal(t, 640.5, resp.Price)
}

func TestDeleteFlight_404(t *testing.T) {
	trip := &mockItinerary{
		deleteFlight: func(_ context.Context, _ string) error { return domain.ErrNotFound },
	}

	req := httptest.NewRequest(http.MethodDelete, "/trip/flights/nope", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{trip: trip}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddHotel_201(t *testing.T) {
	var captured domain.Hotel
	trip := &mockItinerary{
		addHotel: func(_ context.Context, h domain.Hotel) (domain.Hotel, error) {
			captured = h
			h.ID = "h1"
			return h, nil
		},
	}

	body := jsonBody(t, map[string]any{
		"name": "Ryokan", "location": "Kyoto", "checkin": "2024-01-10", "checkout": "2024-01-13", "price": 120,
	})
	req := httptest.NewRequest(http.MethodPost, "/trip/hotels", body)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{trip: trip}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "2024-01-10", captured.CheckIn)
	assert.Equal(t, "2024-01-13", captured.CheckOut)
	assert.Equal(t, 120.0, captured.Price)
}

func TestAddHotel_422_MissingDates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/trip/hotels", jsonBody(t, map[string]any{"name": "Ryokan"}))
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "checkin is required; checkout is required", decodeError(t, rec.Body).Error.Message)
}

func TestAddAttraction_201(t *testing.T) {
	trip := &mockItinerary{
		addAttraction: func(_ context.Context, a domain.Attraction) (domain.Attraction, error) {
			a.ID = "x1"
			return a, nil
		},
	}

	body := jsonBody(t, map[string]any{"name": "Fushimi Inari", "category": "shrine", "price": "free"})
	req := httptest.NewRequest(http.MethodPost, "/trip/attractions", body)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{trip: trip}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp domain.Attraction
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "free", resp.Price)
}

func TestDeleteHotelAndAttraction_204(t *testing.T) {
	trip := &mockItinerary{
		deleteHotel:      func(_ context.Context, _ string) error { return nil },
		deleteAttraction: func(_ context.Context, _ string) error { return nil },
	}
	h := newHTTPHandler(deps{trip: trip})

	for _, path := range []string{"/trip/hotels/h1", "/trip/attractions/x1"} {
		req := httptest.NewRequest(http.MethodDelete, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code, path)
	}
}

// ---- packing & budget ------------------------------------------------------

func TestAddPackingItem_201(t *testing.T) {
	var gotCategory domain.PackingCategory
	trip := &mockItinerary{
		addPackingItem: func(_ context.Context, c domain.PackingCategory, name string) (domain.PackingItem, error) {
			gotCategory = c
			return domain.PackingItem{ID: "p1", Name: name}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/trip/packing/tech", jsonBody(t, map[string]any{"name": "Charger"}))
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{trip: trip}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, domain.PackingTech, gotCategory)
}

func TestTogglePackingItem_200(t *testing.T) {
	trip := &mockItinerary{
		togglePackingItem: func(_ context.Context, _ domain.PackingCategory, id string) (domain.PackingItem, error) {
			return domain.PackingItem{ID: id, Name: "Charger", Checked: true}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/trip/packing/tech/p1/toggle", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{trip: trip}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.PackingItem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Checked)
}

func TestDeletePackingItem_422_UnknownCategory(t *testing.T) {
	trip := &mockItinerary{
		deletePackingItem: func(_ context.Context, c domain.PackingCategory, _ string) error {
			return fmt.Errorf("%w: unknown packing category %q", domain.ErrValidation, c)
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/trip/packing/snacks/p1", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{trip: trip}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAddBudgetItem_201(t *testing.T) {
	var captured domain.BudgetItem
	trip := &mockItinerary{
		addBudgetItem: func(_ context.Context, b domain.BudgetItem) (domain.BudgetItem, error) {
			captured = b
			b.ID = "b1"
			return b, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/trip/budget", jsonBody(t, map[string]any{"name": "Train pass", "amount": 0}))
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{trip: trip}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Train pass", captured.Name)
	assert.Zero(t, captured.Amount)
}

func TestAddBudgetItem_422_MissingAmount(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/trip/budget", jsonBody(t, map[string]any{"name": "Train pass"}))
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "amount is required", decodeError(t, rec.Body).Error.Message)
}

func TestDeleteBudgetItem_500_UnexpectedError(t *testing.T) {
	trip := &mockItinerary{
		deleteBudgetItem: func(_ context.Context, _ string) error { return errors.New("disk full") },
	}

	req := httptest.NewRequest(http.MethodDelete, "/trip/budget/b1", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{trip: trip}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec.Body)
	assert.Equal(t, "internal_error", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "disk full")
}
