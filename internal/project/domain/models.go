package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	equipmentdomain "github.com/selfix/washfleet/internal/equipment/domain"
)

// Status is a project's position in the replacement workflow.
type Status string

const (
	EstimateRequested Status = "estimate_requested"
	EstimateReceived  Status = "estimate_received"
	Ordered           Status = "ordered"
	Scheduled         Status = "scheduled"
	Completed         Status = "completed"
	Cancelled         Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case EstimateRequested, EstimateReceived, Ordered, Scheduled, Completed, Cancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == Completed || s == Cancelled
}

var linearOrder = map[Status]int{
	EstimateRequested: 0,
	EstimateReceived:  1,
	Ordered:           2,
	Scheduled:         3,
}

// CanTransition reports whether a project may move from one status to
// another. The workflow is linear with two exceptions: Cancelled is reachable
// from any non-terminal status, and a non-terminal project may be reverted to
// an earlier status to correct a mistake.
func CanTransition(from, to Status) bool {
	if from.Terminal() || from == to {
		return false
	}
	if to == Cancelled {
		return true
	}
	if to == Completed {
		return from == Scheduled
	}
	fromIdx, okFrom := linearOrder[from]
	toIdx, okTo := linearOrder[to]
	if !okFrom || !okTo {
		return false
	}
	return toIdx == fromIdx+1 || toIdx < fromIdx
}

// Project tracks one wear-part replacement from estimate to completion.
type Project struct {
	ID               snowflake.ID         `gorm:"primaryKey" json:"id"`
	SiteCode         string               `gorm:"index:ix_projects_site_unit" json:"site_code"`
	UnitID           string               `gorm:"index:ix_projects_site_unit" json:"unit_id"`
	SiteName         string               `json:"site_name"`
	Part             equipmentdomain.Part `json:"part"`
	Status           Status               `gorm:"index" json:"status"`
	ScheduledDate    *time.Time           `json:"scheduled_date,omitempty"`
	CalendarEventRef string               `json:"calendar_event_ref,omitempty"`
	Note             string               `json:"note,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

// Active reports whether the project still blocks a new registration for
// the same site, unit and part.
func (p *Project) Active() bool {
	return !p.Status.Terminal()
}
