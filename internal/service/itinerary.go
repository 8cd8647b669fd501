// Package service contains the business logic of the trip planner.
// TripSession owns the document and its synchronisation; the other services
// validate input and apply entity changes through it. No storage code lives
// here; services depend on small interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// Mutator is the part of TripSession the entity services need.
type Mutator interface {
	Mutate(ctx context.Context, fn func(*domain.TripDocument) error) (domain.TripDocument, error)
	Snapshot() domain.TripDocument
}

// ItineraryService validates entity input and applies it to the session
// document. Every successful call is persisted and, when connected, pushed.
type ItineraryService struct {
	session Mutator
	newID   func() string
}

// NewItineraryService constructs an ItineraryService. Entity ids are random
// UUIDs.
func NewItineraryService(m Mutator) *ItineraryService {
	return &ItineraryService{session: m, newID: uuid.NewString}
}

// Document returns the current document.
func (s *ItineraryService) Document() domain.TripDocument {
	return s.session.Snapshot()
}

// AddDay validates and inserts a day, keeping days ordered by number.
// Returns domain.ErrValidation if input violates business rules.
func (s *ItineraryService) AddDay(ctx context.Context, day domain.Day) (domain.Day, error) {
	day.Title = strings.TrimSpace(day.Title)
	if err := validateDay(day); err != nil {
		return domain.Day{}, err
	}
	day.ID = s.newID()
	day.Activities = []domain.Activity{}
	if err := s.apply(ctx, func(d *domain.TripDocument) error {
		d.AddDay(day)
		return nil
	}); err != nil {
		return domain.Day{}, fmt.Errorf("service.ItineraryService.AddDay: %w", err)
	}
	return day, nil
}

// DeleteDay removes a day and its activities.
// Returns domain.ErrNotFound if no such day exists.
func (s *ItineraryService) DeleteDay(ctx context.Context, id string) error {
	if err := s.apply(ctx, func(d *domain.TripDocument) error { return d.DeleteDay(id) }); err != nil {
		return fmt.Errorf("service.ItineraryService.DeleteDay: %w", err)
	}
	return nil
}

// AddActivity validates and inserts an activity into a day, keeping the
// day's activities ordered by time.
// Returns domain.ErrNotFound if the day does not exist.
func (s *ItineraryService) AddActivity(ctx context.Context, dayID string, a domain.Activity) (domain.Activity, error) {
	a.Title = strings.TrimSpace(a.Title)
	if err := validateActivity(&a); err != nil {
		return domain.Activity{}, err
	}
	a.ID = s.newID()
	if err := s.apply(ctx, func(d *domain.TripDocument) error { return d.AddActivity(dayID, a) }); err != nil {
		return domain.Activity{}, fmt.Errorf("service.ItineraryService.AddActivity: %w", err)
	}
	return a, nil
}

func (s *ItineraryService) DeleteActivity(ctx context.Context, dayID, activityID string) error {
	if err := s.apply(ctx, func(d *domain.TripDocument) error { return d.DeleteActivity(dayID, activityID) }); err != nil {
		return fmt.Errorf("service.ItineraryService.DeleteActivity: %w", err)
	}
	return nil
}

// AddFlight validates and appends a flight. A negative or non-finite price
// is stored as 0.
func (s *ItineraryService) AddFlight(ctx context.Context, f domain.Flight) (domain.Flight, error) {
	f.From, f.To = strings.TrimSpace(f.From), strings.TrimSpace(f.To)
	if f.From == "" || f.To == "" {
		return domain.Flight{}, fmt.Errorf("%w: from and to are required", domain.ErrValidation)
	}
	if _, err := time.Parse(domain.DateTimeLayout, f.Date); err != nil {
		return domain.Flight{}, fmt.Errorf("%w: date must be YYYY-MM-DDTHH:MM", domain.ErrValidation)
	}
	f.Price = price(f.Price)
	f.ID = s.newID()
	if err := s.apply(ctx, func(d *domain.TripDocument) error {
		d.AddFlight(f)
		return nil
	}); err != nil {
		return domain.Flight{}, fmt.Errorf("service.ItineraryService.AddFlight: %w", err)
	}
	return f, nil
}

func (s *ItineraryService) DeleteFlight(ctx context.Context, id string) error {
	if err := s.apply(ctx, func(d *domain.TripDocument) error { return d.DeleteFlight(id) }); err != nil {
		return fmt.Errorf("service.ItineraryService.DeleteFlight: %w", err)
	}
	return nil
}

// AddHotel validates and appends a stay.
// Returns domain.ErrValidation if checkout is before checkin.
func (s *ItineraryService) AddHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	h.Name = strings.TrimSpace(h.Name)
	if err := validateHotel(h); err != nil {
		return domain.Hotel{}, err
	}
	h.Price = price(h.Price)
	h.ID = s.newID()
	if err := s.apply(ctx, func(d *domain.TripDocument) error {
		d.AddHotel(h)
		return nil
	}); err != nil {
		return domain.Hotel{}, fmt.Errorf("service.ItineraryService.AddHotel: %w", err)
	}
	return h, nil
}

func (s *ItineraryService) DeleteHotel(ctx context.Context, id string) error {
	if err := s.apply(ctx, func(d *domain.TripDocument) error { return d.DeleteHotel(id) }); err != nil {
		return fmt.Errorf("service.ItineraryService.DeleteHotel: %w", err)
	}
	return nil
}

func (s *ItineraryService) AddAttraction(ctx context.Context, a domain.Attraction) (domain.Attraction, error) {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return domain.Attraction{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	a.ID = s.newID()
	if err := s.apply(ctx, func(d *domain.TripDocument) error {
		d.AddAttraction(a)
		return nil
	}); err != nil {
		return domain.Attraction{}, fmt.Errorf("service.ItineraryService.AddAttraction: %w", err)
	}
	return a, nil
}

func (s *ItineraryService) DeleteAttraction(ctx context.Context, id string) error {
	if err := s.apply(ctx, func(d *domain.TripDocument) error { return d.DeleteAttraction(id) }); err != nil {
		return fmt.Errorf("service.ItineraryService.DeleteAttraction: %w", err)
	}
	return nil
}

// AddPackingItem appends an unchecked item to category.
func (s *ItineraryService) AddPackingItem(ctx context.Context, category domain.PackingCategory, name string) (domain.PackingItem, error) {
	if !category.Valid() {
		return domain.PackingItem{}, fmt.Errorf("%w: unknown packing category %q", domain.ErrValidation, category)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.PackingItem{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	item := domain.PackingItem{ID: s.newID(), Name: name}
	if err := s.apply(ctx, func(d *domain.TripDocument) error {
		d.AddPackingItem(category, item)
		return nil
	}); err != nil {
		return domain.PackingItem{}, fmt.Errorf("service.ItineraryService.AddPackingItem: %w", err)
	}
	return item, nil
}

// TogglePackingItem flips the checked flag and returns the updated item.
func (s *ItineraryService) TogglePackingItem(ctx context.Context, category domain.PackingCategory, id string) (domain.PackingItem, error) {
	if !category.Valid() {
		return domain.PackingItem{}, fmt.Errorf("%w: unknown packing category %q", domain.ErrValidation, category)
	}
	doc, err := s.session.Mutate(ctx, func(d *domain.TripDocument) error { return d.TogglePackingItem(category, id) })
	if err != nil {
		return domain.PackingItem{}, fmt.Errorf("service.ItineraryService.TogglePackingItem: %w", err)
	}
	for _, item := range doc.Packing[category] {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.PackingItem{}, fmt.Errorf("service.ItineraryService.TogglePackingItem: %w", domain.ErrNotFound)
}

func (s *ItineraryService) DeletePackingItem(ctx context.Context, category domain.PackingCategory, id string) error {
	if !category.Valid() {
		return fmt.Errorf("%w: unknown packing category %q", domain.ErrValidation, category)
	}
	if err := s.apply(ctx, func(d *domain.TripDocument) error { return d.DeletePackingItem(category, id) }); err != nil {
		return fmt.Errorf("service.ItineraryService.DeletePackingItem: %w", err)
	}
	return nil
}

// AddBudgetItem validates and appends a budget line.
// Returns domain.ErrValidation if the amount is not a finite number.
func (s *ItineraryService) AddBudgetItem(ctx context.Context, b domain.BudgetItem) (domain.BudgetItem, error) {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return domain.BudgetItem{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if math.IsNaN(b.Amount) || math.IsInf(b.Amount, 0) {
		return domain.BudgetItem{}, fmt.Errorf("%w: amount must be a number", domain.ErrValidation)
	}
	b.ID = s.newID()
	if err := s.apply(ctx, func(d *domain.TripDocument) error {
		d.AddBudgetItem(b)
		return nil
	}); err != nil {
		return domain.BudgetItem{}, fmt.Errorf("service.ItineraryService.AddBudgetItem: %w", err)
	}
	return b, nil
}

func (s *ItineraryService) DeleteBudgetItem(ctx context.Context, id string) error {
	if err := s.apply(ctx, func(d *domain.TripDocument) error { return d.DeleteBudgetItem(id) }); err != nil {
		return fmt.Errorf("service.ItineraryService.DeleteBudgetItem: %w", err)
	}
	return nil
}

func (s *ItineraryService) apply(ctx context.Context, fn func(*domain.TripDocument) error) error {
	_, err := s.session.Mutate(ctx, fn)
	return err
}

// validateDay enforces:
//   - Number must be at least 1.
//   - Title must be non-empty.
//   - Date, if set, must be YYYY-MM-DD.
func validateDay(day domain.Day) error {
	if day.Number < 1 {
		return fmt.Errorf("%w: day number must be at least 1", domain.ErrValidation)
	}
	if day.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if day.Date != "" {
		if _, err := time.Parse(domain.DateLayout, day.Date); err != nil {
			return fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrValidation)
		}
	}
	return nil
}

// validateActivity also rewrites Time as zero-padded HH:MM so activities
// sort correctly as strings.
func validateActivity(a *domain.Activity) error {
	t, err := time.Parse("15:04", a.Time)
	if err != nil {
		return fmt.Errorf("%w: time must be HH:MM", domain.ErrValidation)
	}
	a.Time = t.Format("15:04")
	if a.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	return nil
}

// validateHotel rejects a checkout before checkin at entry, so night counts
// are never negative for stays created here.
func validateHotel(h domain.Hotel) error {
	if h.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	in, err := time.Parse(domain.DateLayout, h.CheckIn)
	if err != nil {
		return fmt.Errorf("%w: checkin must be YYYY-MM-DD", domain.ErrValidation)
	}
	out, err := time.Parse(domain.DateLayout, h.CheckOut)
	if err != nil {
		return fmt.Errorf("%w: checkout must be YYYY-MM-DD", domain.ErrValidation)
	}
	if out.Before(in) {
		return fmt.Errorf("%w: checkout must not be before checkin", domain.ErrValidation)
	}
	return nil
}

// price maps missing or nonsensical prices to 0.
func price(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	return p
}
