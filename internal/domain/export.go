package domain

import (
	"strconv"
	"strings"
)

// Export sections, in the order rows are emitted.
const (
	SectionDay        = "day"
	SectionActivity   = "activity"
	SectionFlight     = "flight"
	SectionHotel      = "hotel"
	SectionAttraction = "attraction"
	SectionPacking    = "packing"
	SectionBudget     = "budget"
)

// ExportRow is a single row in the full-itinerary export.
// It is a flat, denormalized view: one row per entity, with the parent day
// number repeated on every activity row. Fields that do not apply to a
// section are left at their zero value.
type ExportRow struct {
	Section string  `json:"section" yaml:"section"`
	Day     int     `json:"day,omitempty" yaml:"day,omitempty"`
	Date    string  `json:"date,omitempty" yaml:"date,omitempty"`
	Time    string  `json:"time,omitempty" yaml:"time,omitempty"`
	Title   string  `json:"title" yaml:"title"`
	Detail  string  `json:"detail,omitempty" yaml:"detail,omitempty"`
	Amount  float64 `json:"amount,omitempty" yaml:"amount,omitempty"`
	Checked bool    `json:"checked,omitempty" yaml:"checked,omitempty"`
}

// CSVHeader returns the column names matching ExportRow.CSVRecord.
func CSVHeader() []string {
	return []string{"section", "day", "date", "time", "title", "detail", "amount", "checked"}
}

// CSVRecord encodes the row as a flat string slice. Zero day and amount
// are written as empty cells.
func (r ExportRow) CSVRecord() []string {
	day, amount, checked := "", "", ""
	if r.Day != 0 {
		day = strconv.Itoa(r.Day)
	}
	if r.Amount != 0 {
		amount = strconv.FormatFloat(r.Amount, 'f', -1, 64)
	}
	if r.Checked {
		checked = "true"
	}
	return []string{r.Section, day, r.Date, r.Time, r.Title, r.Detail, amount, checked}
}

// BuildExport flattens doc into export rows: days each followed by their
// activities, then flights, hotels, attractions, packing (in category order)
// and budget items.
func BuildExport(doc TripDocument) []ExportRow {
	rows := []ExportRow{}
	for _, day := range doc.Days {
		rows = append(rows, ExportRow{Section: SectionDay, Day: day.Number, Date: day.Date, Title: day.Title})
		for _, a := range day.Activities {
			rows = append(rows, ExportRow{
				Section: SectionActivity, Day: day.Number, Date: day.Date,
				Time: a.Time, Title: a.Title, Detail: a.Description,
			})
		}
	}
	for _, f := range doc.Flights {
		rows = append(rows, ExportRow{
			Section: SectionFlight, Date: f.Date,
			Title: f.From + " → " + f.To, Detail: f.Airline, Amount: f.Price,
		})
	}
	for _, h := range doc.Hotels {
		rows = append(rows, ExportRow{
			Section: SectionHotel, Date: h.CheckIn,
			Title: h.Name, Detail: strings.TrimSpace(h.Location + " " + h.CheckIn + ".." + h.CheckOut),
			Amount: h.TotalCost(),
		})
	}
	for _, a := range doc.Attractions {
		detail := a.Category
		if a.Price != "" {
			detail += " (" + a.Price + ")"
		}
		rows = append(rows, ExportRow{Section: SectionAttraction, Title: a.Name, Detail: detail})
	}
	for _, c := range PackingCategories {
		for _, it := range doc.Packing[c] {
			rows = append(rows, ExportRow{Section: SectionPacking, Title: it.Name, Detail: string(c), Checked: it.Checked})
		}
	}
	for _, b := range doc.Budget {
		rows = append(rows, ExportRow{Section: SectionBudget, Title: b.Name, Detail: b.Notes, Amount: b.Amount})
	}
	return rows
}
