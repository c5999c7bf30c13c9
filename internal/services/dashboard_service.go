package services

import (
	"errors"

	"github.com/pharmaciedusoleil/portal/internal/content"
	"github.com/pharmaciedusoleil/portal/internal/models"
)

var ErrUnknownTab = errors.New("unknown dashboard tab")

type Overview struct {
	Profile       models.UserProfile    `json:"profile"`
	Medications   int                   `json:"active_medications"`
	LatestRecords []models.HealthRecord `json:"latest_records"`
	LastOrder     *models.Order         `json:"last_order,omitempty"`
}

// DashboardView is one tab of the account dashboard.
type DashboardView struct {
	Tab  string                `json:"tab"`
	Tabs []models.DashboardTab `json:"tabs"`
	Data any                   `json:"data"`
}

// DashboardService serves the sample account dashboard.
type DashboardService struct {
	dashboard content.Dashboard
}

func NewDashboardService(site *content.Site) *DashboardService {
	return &DashboardService{dashboard: site.Dashboard}
}

// View returns the requested tab, "overview" when tab is empty.
func (s *DashboardService) View(tab string) (DashboardView, error) {
	if tab == "" {
		tab = "overview"
	}
	d := s.dashboard
	view := DashboardView{Tab: tab, Tabs: d.Tabs}

	switch tab {
	case "overview":
		o := Overview{Profile: d.Profile, Medications: len(d.Medications)}
		o.LatestRecords = d.HealthRecords[:min(3, len(d.HealthRecords))]
		if len(d.Orders) > 0 {
			o.LastOrder = &d.Orders[0]
		}
		view.Data = o
	case "health":
		view.Data = d.HealthRecords
	case "medications":
		view.Data = d.Medications
	case "orders":
		view.Data = d.Orders
	case "loyalty":
		view.Data = struct {
			Points int `json:"points"`
			content.Loyalty
		}{d.Profile.LoyaltyPoints, d.Loyalty}
	default:
		return DashboardView{}, ErrUnknownTab
	}
	return view, nil
}
