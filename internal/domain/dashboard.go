package domain

import (
	"strings"
	"time"
)

// Cost categories used by the dashboard breakdown.
const (
	CostFlights     = "flights"
	CostHotels      = "hotels"
	CostFood        = "food"
	CostTransport   = "transport"
	CostAttractions = "attractions"
	CostOther       = "other"
)

// kmPerFlight is the rough distance credited to each flight on the map summary.
const kmPerFlight = 800

// Dashboard is the read-only summary shown on the trip overview.
// Every field is derived from a TripDocument; nothing here is persisted.
type Dashboard struct {
	TotalBudget     float64 `json:"total_budget"`
	TotalDays       int     `json:"total_days"`
	TotalActivities int     `json:"total_activities"`
	PackingPercent  int     `json:"packing_percent"`

	FlightCount     int     `json:"flight_count"`
	HotelNights     int     `json:"hotel_nights"`
	AttractionCount int     `json:"attraction_count"`
	PackingCount    int     `json:"packing_count"`
	DailyAverage    float64 `json:"daily_average"`
	PerPerson       float64 `json:"per_person"`

	// CostBreakdown maps a cost category to its total. Categories with no
	// cost are omitted.
	CostBreakdown map[string]float64 `json:"cost_breakdown"`

	Timeline []TimelineEntry `json:"timeline"`
	Map      MapSummary      `json:"map"`
}

// TimelineEntry is one day on the dashboard timeline.
// Weekday is empty when the day has no parsable date.
type TimelineEntry struct {
	Number  int    `json:"number"`
	Date    string `json:"date,omitempty"`
	Weekday string `json:"weekday,omitempty"`
	Title   string `json:"title"`
}

// MapSummary describes the hotel markers and route statistics.
type MapSummary struct {
	Center              MapMarker   `json:"center"`
	Markers             []MapMarker `json:"markers"`
	UniqueLocations     int         `json:"unique_locations"`
	FlightCount         int         `json:"flight_count"`
	EstimatedDistanceKm int         `json:"estimated_distance_km"`
}

// MapMarker is a hotel resolved to known coordinates.
type MapMarker struct {
	Hotel    string  `json:"hotel"`
	Location string  `json:"location"`
	Place    string  `json:"place"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// BuildDashboard derives the dashboard from doc. travellers is the group size
// used for the per-person figure; values below 1 are treated as 1.
func BuildDashboard(doc TripDocument, travellers int) Dashboard {
	if travellers < 1 {
		travellers = 1
	}
	total := doc.TotalBudget()

	days := len(doc.Days)
	divisor := days
	if divisor == 0 {
		divisor = 1
	}

	d := Dashboard{
		TotalBudget:     total,
		TotalDays:       days,
		TotalActivities: doc.TotalActivities(),
		PackingPercent:  doc.PackingPercent(),
		FlightCount:     len(doc.Flights),
		AttractionCount: len(doc.Attractions),
		PackingCount:    doc.PackingCount(),
		DailyAverage:    total / float64(divisor),
		PerPerson:       total / float64(travellers),
		CostBreakdown:   costBreakdown(doc),
		Timeline:        make([]TimelineEntry, 0, days),
		Map:             mapSummary(doc),
	}
	for _, h := range doc.Hotels {
		d.HotelNights += h.Nights()
	}
	for _, day := range doc.Days {
		e := TimelineEntry{Number: day.Number, Date: day.Date, Title: day.Title}
		if t, err := time.Parse(DateLayout, day.Date); err == nil {
			e.Weekday = t.Weekday().String()[:3]
		}
		d.Timeline = append(d.Timeline, e)
	}
	return d
}

// costBreakdown groups budget items by ClassifyExpense, then overwrites the
// flights and hotels buckets with the totals of the booked flights and stays.
func costBreakdown(doc TripDocument) map[string]float64 {
	out := map[string]float64{}
	for _, b := range doc.Budget {
		out[ClassifyExpense(b.Name)] += b.Amount
	}

	var flights, hotels float64
	for _, f := range doc.Flights {
		flights += f.Price
	}
	for _, h := range doc.Hotels {
		hotels += h.TotalCost()
	}
	if flights > 0 {
		out[CostFlights] = flights
	}
	if hotels > 0 {
		out[CostHotels] = hotels
	}

	for k, v := range out {
		if v == 0 {
			delete(out, k)
		}
	}
	return out
}

var expenseKeywords = []struct {
	category string
	words    []string
}{
	{CostFlights, []string{"flight", "טיסה"}},
	{CostHotels, []string{"hotel", "מלון", "לינה"}},
	{CostFood, []string{"food", "אוכל", "מסעדה"}},
	{CostTransport, []string{"transport", "תחבורה", "מונית"}},
	{CostAttractions, []string{"attraction", "אטרקציה", "כניסה"}},
}

// ClassifyExpense maps a free-text budget item name to a cost category.
// The first matching keyword group wins; anything unmatched is CostOther.
func ClassifyExpense(name string) string {
	lower := strings.ToLower(name)
	for _, group := range expenseKeywords {
		for _, w := range group.words {
			if strings.Contains(lower, w) {
				return group.category
			}
		}
	}
	return CostOther
}

func mapSummary(doc TripDocument) MapSummary {
	m := MapSummary{
		Markers:             []MapMarker{},
		FlightCount:         len(doc.Flights),
		EstimatedDistanceKm: len(doc.Flights) * kmPerFlight,
	}
	locations := map[string]struct{}{}
	for _, h := range doc.Hotels {
		locations[h.Location] = struct{}{}
		p, ok := MatchPlace(h.Location)
		if !ok {
			continue
		}
		m.Markers = append(m.Markers, MapMarker{
			Hotel:    h.Name,
			Location: h.Location,
			Place:    p.Name,
			Lat:      p.Lat,
			Lng:      p.Lng,
		})
	}
	m.Center = MapMarker{Place: DefaultPlace.Name, Lat: DefaultPlace.Lat, Lng: DefaultPlace.Lng}
	if len(m.Markers) > 0 {
		m.Center = m.Markers[0]
	}
	m.UniqueLocations = len(locations)
	if m.UniqueLocations == 0 {
		m.UniqueLocations = len(doc.Hotels)
	}
	return m
}
