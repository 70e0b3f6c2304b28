// Package domain contains the maintenance status model: the pure
// derivation rules and the cached per-unit snapshot they produce.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	equipmentdomain "github.com/selfix/washfleet/internal/equipment/domain"
)

// PartStatus is the maintenance state of one wear part.
type PartStatus string

const (
	StatusNormal        PartStatus = "normal"
	StatusNotice        PartStatus = "notice"
	StatusFirstNotice   PartStatus = "first_notice"
	StatusSecondNotice  PartStatus = "second_notice"
	StatusPrepare       PartStatus = "prepare"
	StatusNotApplicable PartStatus = "not_applicable"
)

// NeedsAttention reports whether the status should surface in alert lists.
func (s PartStatus) NeedsAttention() bool {
	switch s {
	case StatusNotice, StatusFirstNotice, StatusSecondNotice, StatusPrepare:
		return true
	}
	return false
}

// Snapshot is the cached derivation result for one unit. It is fully
// recomputable from the equipment registry and the usage ledger; it exists
// so dashboards and the inspection pipeline read one table instead of
// re-deriving on every request. Stale only between Refresh calls.
type Snapshot struct {
	ID              snowflake.ID              `json:"id" gorm:"primaryKey"`
	SiteCode        string                    `json:"site_code" gorm:"type:text;not null;uniqueIndex:ux_snapshots_site_unit,priority:1"`
	UnitID          string                    `json:"unit_id" gorm:"type:text;not null;uniqueIndex:ux_snapshots_site_unit,priority:2"`
	SiteName        string                    `json:"site_name" gorm:"type:text;not null"`
	BrushType       equipmentdomain.BrushType `json:"brush_type" gorm:"type:text;not null"`
	CumulativeCount int64                     `json:"cumulative_count" gorm:"not null"`
	MonthlyAverage  int64                     `json:"monthly_average" gorm:"not null"`
	BodyInstalledAt *time.Time                `json:"body_installed_at"`
	RailStatus      PartStatus                `json:"rail_status" gorm:"type:text;not null"`
	BrushStatus     PartStatus                `json:"brush_status" gorm:"type:text;not null"`
	BodyStatus      PartStatus                `json:"body_status" gorm:"type:text;not null"`
	MonthsSinceRail int                       `json:"months_since_rail" gorm:"not null"`
	SubsidyLocked   bool                      `json:"subsidy_locked" gorm:"not null;default:false"`
	PendingWorkNote string                    `json:"pending_work_note" gorm:"type:text;not null;default:''"`
	RefreshedAt     time.Time                 `json:"refreshed_at" gorm:"not null"`
}

// TableName sets the database table name.
func (Snapshot) TableName() string { return "status_snapshots" }
