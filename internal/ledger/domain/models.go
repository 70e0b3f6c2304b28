// Package domain contains the usage ledger models and the pure pieces of
// the cumulative-count engine.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// UsageRecord is one month of metered wash activity for a unit. The
// cumulative count is a running sum of daily counts within the unit's
// current lifetime and resets to zero at reinstallation.
type UsageRecord struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	SiteCode        string       `json:"site_code" gorm:"type:text;not null;uniqueIndex:ux_usage_site_unit_period,priority:1"`
	UnitID          string       `json:"unit_id" gorm:"type:text;not null;uniqueIndex:ux_usage_site_unit_period,priority:2"`
	Period          string       `json:"period" gorm:"type:text;not null;uniqueIndex:ux_usage_site_unit_period,priority:3"`
	DailyCount      int64        `json:"daily_count" gorm:"not null"`
	CumulativeCount int64        `json:"cumulative_count" gorm:"not null"`
	CreatedAt       time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "usage_records" }

// UsageRecordBackup preserves the pre-recalculation state of a ledger row.
// Rows are written before any mutation so a failed or disputed batch
// recompute can be rolled back by hand.
type UsageRecordBackup struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	RunID           string       `json:"run_id" gorm:"type:text;not null;index"`
	TakenAt         time.Time    `json:"taken_at" gorm:"not null"`
	SiteCode        string       `json:"site_code" gorm:"type:text;not null"`
	UnitID          string       `json:"unit_id" gorm:"type:text;not null"`
	Period          string       `json:"period" gorm:"type:text;not null"`
	DailyCount      int64        `json:"daily_count" gorm:"not null"`
	CumulativeCount int64        `json:"cumulative_count" gorm:"not null"`
}

// TableName sets the database table name.
func (UsageRecordBackup) TableName() string { return "usage_record_backups" }

// DailySubmission is one month's reported daily count for a unit.
type DailySubmission struct {
	SiteCode   string `json:"site_code"`
	UnitID     string `json:"unit_id"`
	Period     string `json:"period"`
	DailyCount int64  `json:"daily_count"`
}

// RecalculationResult summarises a full ledger recompute.
type RecalculationResult struct {
	RunID       string `json:"run_id"`
	UpdatedRows int    `json:"updated_rows"`
}

// UnitKey is the composite grouping key for ledger records. Identifiers are
// trimmed so that whitespace variance in submissions cannot split a group.
type UnitKey struct {
	SiteCode string
	UnitID   string
}

func NewUnitKey(siteCode, unitID string) UnitKey {
	return UnitKey{
		SiteCode: strings.TrimSpace(siteCode),
		UnitID:   strings.TrimSpace(unitID),
	}
}
