// Package domain contains the core data types for the trip planner.
// The whole itinerary lives in one aggregate, TripDocument, which is the
// unit of local persistence and remote synchronisation.
// Apart from go-cmp for structural equality this package has no external
// dependencies and is imported by every other internal package.
package domain

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// DateLayout is the wire format of calendar dates (day date, hotel stays).
const DateLayout = "2006-01-02"

// DateTimeLayout is the wire format of flight departure times.
const DateTimeLayout = "2006-01-02T15:04"

// PackingCategory is one of the fixed packing list sections.
type PackingCategory string

const (
	PackingClothing PackingCategory = "clothing"
	PackingHealth   PackingCategory = "health"
	PackingTech     PackingCategory = "tech"
)

// PackingCategories lists the fixed categories in display order.
var PackingCategories = []PackingCategory{PackingClothing, PackingHealth, PackingTech}

// Valid reports whether c is one of the fixed packing categories.
func (c PackingCategory) Valid() bool {
	return slices.Contains(PackingCategories, c)
}

// TripDocument is the single aggregate holding a whole itinerary.
// Days are kept sorted by Number; every other collection keeps insertion order.
// The JSON shape is shared by every client of a remote document, so field
// names must not change.
type TripDocument struct {
	Days        []Day        `json:"days"`
	Flights     []Flight     `json:"flights"`
	Hotels      []Hotel      `json:"hotels"`
	Attractions []Attraction `json:"attractions"`
	Packing     Packing      `json:"packing"`
	Budget      []BudgetItem `json:"budget"`
}

// Packing maps each category to its checklist.
type Packing map[PackingCategory][]PackingItem

// Day is one numbered day of the itinerary. Activities are owned by the day
// and kept sorted by Time.
type Day struct {
	ID         string     `json:"id"`
	Number     int        `json:"number"`
	Date       string     `json:"date,omitempty"`
	Title      string     `json:"title"`
	Activities []Activity `json:"activities"`
}

// Activity is a timed entry within a day. Time is "HH:MM" and sorts lexicographically.
type Activity struct {
	ID          string `json:"id"`
	Time        string `json:"time"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Flight is a single flight leg.
type Flight struct {
	ID      string  `json:"id"`
	From    string  `json:"from"`
	To      string  `json:"to"`
	Date    string  `json:"date"`
	Airline string  `json:"airline,omitempty"`
	Price   float64 `json:"price"`
}

// Hotel is a stay. Price is per night.
type Hotel struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Location string  `json:"location"`
	CheckIn  string  `json:"checkin"`
	CheckOut string  `json:"checkout"`
	Price    float64 `json:"price"`
}

// Attraction is a place to visit. Price is free text and never aggregated.
type Attraction struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price,omitempty"`
}

// PackingItem is one checklist entry.
type PackingItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
}

// BudgetItem is a planned expense.
type BudgetItem struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Notes  string  `json:"notes,omitempty"`
}

// NewTripDocument returns an empty document with every collection allocated.
func NewTripDocument() TripDocument {
	d := TripDocument{}
	d.Normalize()
	return d
}

// Normalize replaces nil collections with empty ones and makes sure every
// fixed packing category is present. Documents written by other clients
// may omit empty collections.
func (d *TripDocument) Normalize() {
	if d.Days == nil {
		d.Days = []Day{}
	}
	for i := range d.Days {
		if d.Days[i].Activities == nil {
			d.Days[i].Activities = []Activity{}
		}
	}
	if d.Flights == nil {
		d.Flights = []Flight{}
	}
	if d.Hotels == nil {
		d.Hotels = []Hotel{}
	}
	if d.Attractions == nil {
		d.Attractions = []Attraction{}
	}
	if d.Budget == nil {
		d.Budget = []BudgetItem{}
	}
	if d.Packing == nil {
		d.Packing = Packing{}
	}
	for _, c := range PackingCategories {
		if d.Packing[c] == nil {
			d.Packing[c] = []PackingItem{}
		}
	}
}

// Clone returns a deep copy of d. Mutating the copy never affects d.
func (d TripDocument) Clone() TripDocument {
	out := TripDocument{
		Days:        make([]Day, len(d.Days)),
		Flights:     slices.Clone(d.Flights),
		Hotels:      slices.Clone(d.Hotels),
		Attractions: slices.Clone(d.Attractions),
		Budget:      slices.Clone(d.Budget),
	}
	for i, day := range d.Days {
		day.Activities = slices.Clone(day.Activities)
		out.Days[i] = day
	}
	if d.Packing != nil {
		out.Packing = make(Packing, len(d.Packing))
		for c, items := range d.Packing {
			out.Packing[c] = slices.Clone(items)
		}
	}
	out.Normalize()
	return out
}

// Equal reports full structural equality. Nil and empty collections are
// treated as equal so a document that went through JSON compares equal to
// the one it was encoded from.
func (d TripDocument) Equal(other TripDocument) bool {
	return cmp.Equal(tripFields(d), tripFields(other), cmpopts.EquateEmpty())
}

// tripFields has TripDocument's fields but not its methods, so cmp compares
// it field by field instead of calling back into Equal.
type tripFields TripDocument

// --- mutations --------------------------------------------------------------

// AddDay appends day and re-sorts days by Number. Equal numbers keep their
// insertion order.
func (d *TripDocument) AddDay(day Day) {
	if day.Activities == nil {
		day.Activities = []Activity{}
	}
	d.Days = append(d.Days, day)
	sort.SliceStable(d.Days, func(i, j int) bool { return d.Days[i].Number < d.Days[j].Number })
}

// DeleteDay removes a day together with its activities.
func (d *TripDocument) DeleteDay(id string) error {
	i := slices.IndexFunc(d.Days, func(x Day) bool { return x.ID == id })
	if i < 0 {
		return fmt.Errorf("day %s: %w", id, ErrNotFound)
	}
	d.Days = slices.Delete(d.Days, i, i+1)
	return nil
}

// AddActivity appends a to the day identified by dayID and re-sorts that
// day's activities by Time.
func (d *TripDocument) AddActivity(dayID string, a Activity) error {
	i := slices.IndexFunc(d.Days, func(x Day) bool { return x.ID == dayID })
	if i < 0 {
		return fmt.Errorf("day %s: %w", dayID, ErrNotFound)
	}
	acts := append(d.Days[i].Activities, a)
	sort.SliceStable(acts, func(x, y int) bool { return acts[x].Time < acts[y].Time })
	d.Days[i].Activities = acts
	return nil
}

// DeleteActivity removes one activity from a day.
func (d *TripDocument) DeleteActivity(dayID, activityID string) error {
	i := slices.IndexFunc(d.Days, func(x Day) bool { return x.ID == dayID })
	if i < 0 {
		return fmt.Errorf("day %s: %w", dayID, ErrNotFound)
	}
	acts := d.Days[i].Activities
	j := slices.IndexFunc(acts, func(x Activity) bool { return x.ID == activityID })
	if j < 0 {
		return fmt.Errorf("activity %s: %w", activityID, ErrNotFound)
	}
	d.Days[i].Activities = slices.Delete(acts, j, j+1)
	return nil
}

func (d *TripDocument) AddFlight(f Flight) { d.Flights = append(d.Flights, f) }

func (d *TripDocument) DeleteFlight(id string) error {
	var err error
	d.Flights, err = deleteByID(d.Flights, id, "flight", func(f Flight) string { return f.ID })
	return err
}

func (d *TripDocument) AddHotel(h Hotel) { d.Hotels = append(d.Hotels, h) }

func (d *TripDocument) DeleteHotel(id string) error {
	var err error
	d.Hotels, err = deleteByID(d.Hotels, id, "hotel", func(h Hotel) string { return h.ID })
	return err
}

func (d *TripDocument) AddAttraction(a Attraction) { d.Attractions = append(d.Attractions, a) }

func (d *TripDocument) DeleteAttraction(id string) error {
	var err error
	d.Attractions, err = deleteByID(d.Attractions, id, "attraction", func(a Attraction) string { return a.ID })
	return err
}

func (d *TripDocument) AddBudgetItem(b BudgetItem) { d.Budget = append(d.Budget, b) }

func (d *TripDocument) DeleteBudgetItem(id string) error {
	var err error
	d.Budget, err = deleteByID(d.Budget, id, "budget item", func(b BudgetItem) string { return b.ID })
	return err
}

// AddPackingItem appends item to the checklist of category.
func (d *TripDocument) AddPackingItem(category PackingCategory, item PackingItem) {
	if d.Packing == nil {
		d.Packing = Packing{}
	}
	d.Packing[category] = append(d.Packing[category], item)
}

// TogglePackingItem flips the Checked flag of one item.
func (d *TripDocument) TogglePackingItem(category PackingCategory, id string) error {
	items := d.Packing[category]
	i := slices.IndexFunc(items, func(x PackingItem) bool { return x.ID == id })
	if i < 0 {
		return fmt.Errorf("packing item %s: %w", id, ErrNotFound)
	}
	items[i].Checked = !items[i].Checked
	return nil
}

func (d *TripDocument) DeletePackingItem(category PackingCategory, id string) error {
	items, err := deleteByID(d.Packing[category], id, "packing item", func(p PackingItem) string { return p.ID })
	if err != nil {
		return err
	}
	d.Packing[category] = items
	return nil
}

func deleteByID[T any](items []T, id, kind string, key func(T) string) ([]T, error) {
	i := slices.IndexFunc(items, func(x T) bool { return key(x) == id })
	if i < 0 {
		return items, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return slices.Delete(items, i, i+1), nil
}

// --- derived queries --------------------------------------------------------

// TotalBudget is the sum of every budget item amount.
func (d TripDocument) TotalBudget() float64 {
	var total float64
	for _, b := range d.Budget {
		total += b.Amount
	}
	return total
}

// ActivityCount is the number of activities planned for the day.
func (d Day) ActivityCount() int { return len(d.Activities) }

// TotalActivities is the number of activities across all days.
func (d TripDocument) TotalActivities() int {
	n := 0
	for _, day := range d.Days {
		n += day.ActivityCount()
	}
	return n
}

// Nights is the number of nights between check-in and check-out, rounded up.
// Unparsable dates and checkout before checkin both yield 0.
func (h Hotel) Nights() int {
	in, err := time.Parse(DateLayout, h.CheckIn)
	if err != nil {
		return 0
	}
	out, err := time.Parse(DateLayout, h.CheckOut)
	if err != nil {
		return 0
	}
	nights := math.Ceil(out.Sub(in).Hours() / 24)
	if nights < 0 {
		return 0
	}
	return int(nights)
}

// TotalCost is the per-night price multiplied by the number of nights.
func (h Hotel) TotalCost() float64 {
	return h.Price * float64(h.Nights())
}

// PackingCount is the number of packing items across all categories.
func (d TripDocument) PackingCount() int {
	n := 0
	for _, items := range d.Packing {
		n += len(items)
	}
	return n
}

// PackingProgress is the fraction of packing items checked, in [0,1].
// An empty checklist has progress 0.
func (d TripDocument) PackingProgress() float64 {
	total, checked := 0, 0
	for _, items := range d.Packing {
		for _, it := range items {
			total++
			if it.Checked {
				checked++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(checked) / float64(total)
}

// PackingPercent is PackingProgress as a rounded whole percentage.
func (d TripDocument) PackingPercent() int {
	return int(math.Round(d.PackingProgress() * 100))
}
