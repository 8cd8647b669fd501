package service

import (
	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// DashboardService derives the summary view of the current document.
// Nothing is cached; every call recomputes from a fresh snapshot.
type DashboardService struct {
	session    Snapshotter
	travellers int
}

// NewDashboardService constructs a DashboardService. travellers is used for
// the per-person budget figure.
func NewDashboardService(s Snapshotter, travellers int) *DashboardService {
	return &DashboardService{session: s, travellers: travellers}
}

func (s *DashboardService) Dashboard() domain.Dashboard {
	return domain.BuildDashboard(s.session.Snapshot(), s.travellers)
}
