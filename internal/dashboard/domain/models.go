package domain

import (
	"context"

	equipmentdomain "github.com/selfix/washfleet/internal/equipment/domain"
	projectdomain "github.com/selfix/washfleet/internal/project/domain"
	statusdomain "github.com/selfix/washfleet/internal/status/domain"
)

// AllUnits marks a site-wide entry. Body replacements are planned per site,
// not per lane, so body alerts collapse to one entry with this unit id.
const AllUnits = "all"

// Alert is one wear part needing attention on the overview board.
type Alert struct {
	SiteCode        string                  `json:"site_code"`
	UnitID          string                  `json:"unit_id"`
	SiteName        string                  `json:"site_name"`
	Part            equipmentdomain.Part    `json:"part"`
	Status          statusdomain.PartStatus `json:"status"`
	CumulativeCount int64                   `json:"cumulative_count"`
	MonthlyAverage  int64                   `json:"monthly_average"`
	MonthsSinceRail int                     `json:"months_since_rail,omitempty"`
	PendingWorkNote string                  `json:"pending_work_note,omitempty"`
}

// ExchangeTarget lists the parts proposed for replacement on one unit.
type ExchangeTarget struct {
	SiteCode string                 `json:"site_code"`
	UnitID   string                 `json:"unit_id"`
	SiteName string                 `json:"site_name"`
	Parts    []equipmentdomain.Part `json:"parts"`
}

// Overview is the landing view: what needs attention, what is in flight.
type Overview struct {
	Alerts          []Alert                      `json:"alerts"`
	NormalCount     int                          `json:"normal_count"`
	SubsidyNotices  []statusdomain.SubsidyNotice `json:"subsidy_notices,omitempty"`
	ActiveProjects  []projectdomain.Project      `json:"active_projects"`
	SnapshotCount   int                          `json:"snapshot_count"`
	SuppressedCount int                          `json:"suppressed_count"`
}

// QuoteDraftResult reports what CreateQuoteDrafts produced.
type QuoteDraftResult struct {
	DraftsCreated      int `json:"drafts_created"`
	ProjectsRegistered int `json:"projects_registered"`
}

type Service interface {
	Overview(ctx context.Context) (*Overview, error)
	ExchangeTargets(ctx context.Context) ([]ExchangeTarget, error)
	// CreateQuoteDrafts turns the current exchange targets into vendor quote
	// request drafts and registers a project per target part.
	CreateQuoteDrafts(ctx context.Context) (*QuoteDraftResult, error)
}
