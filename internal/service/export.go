package service

import (
	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// Snapshotter hands out copies of the current document.
type Snapshotter interface {
	Snapshot() domain.TripDocument
}

// ExportService assembles a flat export of the whole itinerary.
type ExportService struct {
	session Snapshotter
}

// NewExportService constructs an ExportService reading from the session.
func NewExportService(s Snapshotter) *ExportService {
	return &ExportService{session: s}
}

// Export returns one ExportRow per entity, grouped by section: each day is
// followed by its activities, then flights, hotels, attractions, packing
// and budget.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ExportService) Export() []domain.ExportRow {
	rows := domain.BuildExport(s.session.Snapshot())
	if rows == nil {
		return []domain.ExportRow{}
	}
	return rows
}
