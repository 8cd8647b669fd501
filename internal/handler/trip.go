package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// getTrip handles GET /trip.
func (s *Server) getTrip(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.trip.Document())
}

// --- days & activities -------------------------------------------------------

// DayRequest is the body of POST /trip/days.
type DayRequest struct {
	Number int                 `json:"number" validate:"min=1"`
	Date   *openapi_types.Date `json:"date,omitempty"`
	Title  string              `json:"title" validate:"required,max=200"`
}

// addDay handles POST /trip/days.
func (s *Server) addDay(w http.ResponseWriter, r *http.Request) {
	var body DayRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	day := domain.Day{Number: body.Number, Title: body.Title}
	if body.Date != nil {
		day.Date = formatDate(*body.Date)
	}

	created, err := s.trip.AddDay(r.Context(), day)
	if err != nil {
		s.fail(w, r, err, "day not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// deleteDay handles DELETE /trip/days/{dayID}.
func (s *Server) deleteDay(w http.ResponseWriter, r *http.Request) {
	if err := s.trip.DeleteDay(r.Context(), chi.URLParam(r, "dayID")); err != nil {
		s.fail(w, r, err, "day not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ActivityRequest is the body of POST /trip/days/{dayID}/activities.
type ActivityRequest struct {
	Time        string `json:"time" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
}

// addActivity handles POST /trip/days/{dayID}/activities.
func (s *Server) addActivity(w http.ResponseWriter, r *http.Request) {
	var body ActivityRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	created, err := s.trip.AddActivity(r.Context(), chi.URLParam(r, "dayID"), domain.Activity{
		Time: body.Time, Title: body.Title, Description: body.Description,
	})
	if err != nil {
		s.fail(w, r, err, "day not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// deleteActivity handles DELETE /trip/days/{dayID}/activities/{activityID}.
func (s *Server) deleteActivity(w http.ResponseWriter, r *http.Request) {
	err := s.trip.DeleteActivity(r.Context(), chi.URLParam(r, "dayID"), chi.URLParam(r, "activityID"))
	if err != nil {
		s.fail(w, r, err, "activity not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- flights, hotels, attractions -------------------------------------------

// FlightRequest is the body of POST /trip/flights. Date is YYYY-MM-DDTHH:MM.
type FlightRequest struct {
	From    string  `json:"from" validate:"required,max=100"`
	To      string  `json:"to" validate:"required,max=100"`
	Date    string  `json:"date" validate:"required"`
	Airline string  `json:"airline,omitempty" validate:"max=100"`
	Price   float64 `json:"price"`
}

func (s *Server) addFlight(w http.ResponseWriter, r *http.Request) {
	var body FlightRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	created, err := s.trip.AddFlight(r.Context(), domain.Flight{
		From: body.From, To: body.To, Date: body.Date, Airline: body.Airline, Price: body.Price,
	})
	if err != nil {
		s.fail(w, r, err, "flight not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) deleteFlight(w http.ResponseWriter, r *http.Request) {
	if err := s.trip.DeleteFlight(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "flight not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HotelRequest is the body of POST /trip/hotels. Price is per night.
type HotelRequest struct {
	Name     string              `json:"name" validate:"required,max=200"`
	Location string              `json:"location" validate:"max=200"`
	CheckIn  *openapi_types.Date `json:"checkin" validate:"required"`
	CheckOut *openapi_types.Date `json:"checkout" validate:"required"`
	Price    float64             `json:"price"`
}

func (s *Server) addHotel(w http.ResponseWriter, r *http.Request) {
	var body HotelRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	created, err := s.trip.AddHotel(r.Context(), domain.Hotel{
		Name:     body.Name,
		Location: body.Location,
		CheckIn:  formatDate(*body.CheckIn),
		CheckOut: formatDate(*body.CheckOut),
		Price:    body.Price,
	})
	if err != nil {
		s.fail(w, r, err, "hotel not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) deleteHotel(w http.ResponseWriter, r *http.Request) {
	if err := s.trip.DeleteHotel(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "hotel not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AttractionRequest is the body of POST /trip/attractions. Price is free text.
type AttractionRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Category    string `json:"category" validate:"max=100"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	Price       string `json:"price,omitempty" validate:"max=100"`
}

func (s *Server) addAttraction(w http.ResponseWriter, r *http.Request) {
	var body AttractionRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	created, err := s.trip.AddAttraction(r.Context(), domain.Attraction{
		Name: body.Name, Category: body.Category, Description: body.Description, Price: body.Price,
	})
	if err != nil {
		s.fail(w, r, err, "attraction not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) deleteAttraction(w http.ResponseWriter, r *http.Request) {
	if err := s.trip.DeleteAttraction(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "attraction not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- packing & budget --------------------------------------------------------

// PackingRequest is the body of POST /trip/packing/{category}.
type PackingRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (s *Server) addPackingItem(w http.ResponseWriter, r *http.Request) {
	var body PackingRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	category := domain.PackingCategory(chi.URLParam(r, "category"))
	created, err := s.trip.AddPackingItem(r.Context(), category, body.Name)
	if err != nil {
		s.fail(w, r, err, "packing item not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// togglePackingItem handles POST /trip/packing/{category}/{id}/toggle and
// returns the item with its new checked state.
func (s *Server) togglePackingItem(w http.ResponseWriter, r *http.Request) {
	category := domain.PackingCategory(chi.URLParam(r, "category"))
	item, err := s.trip.TogglePackingItem(r.Context(), category, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "packing item not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) deletePackingItem(w http.ResponseWriter, r *http.Request) {
	category := domain.PackingCategory(chi.URLParam(r, "category"))
	if err := s.trip.DeletePackingItem(r.Context(), category, chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "packing item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BudgetRequest is the body of POST /trip/budget. Amount is required.
type BudgetRequest struct {
	Name   string   `json:"name" validate:"required,max=200"`
	Amount *float64 `json:"amount" validate:"required"`
	Notes  string   `json:"notes,omitempty" validate:"max=2000"`
}

func (s *Server) addBudgetItem(w http.ResponseWriter, r *http.Request) {
	var body BudgetRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	created, err := s.trip.AddBudgetItem(r.Context(), domain.BudgetItem{
		Name: body.Name, Amount: *body.Amount, Notes: body.Notes,
	})
	if err != nil {
		s.fail(w, r, err, "budget item not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) deleteBudgetItem(w http.ResponseWriter, r *http.Request) {
	if err := s.trip.DeleteBudgetItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "budget item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers ---------------------------------------------------------

func formatDate(d openapi_types.Date) string {
	return d.Format(domain.DateLayout)
}
