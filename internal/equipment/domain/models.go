// Package domain contains the per-unit equipment registry models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BrushType distinguishes the wash brush fitted to a unit. Only cloth
// brushes follow the staged replacement policy.
type BrushType string

const (
	BrushTypeCloth  BrushType = "cloth"
	BrushTypeSponge BrushType = "sponge"
)

// Part identifies a replaceable component tracked by the system.
type Part string

const (
	PartRailWheel    Part = "rail_wheel"
	PartClothBrush   Part = "cloth_brush"
	PartBody         Part = "body"
	PartSplashBlower Part = "splash_blower"
)

// Valid reports whether p names a known part.
func (p Part) Valid() bool {
	switch p {
	case PartRailWheel, PartClothBrush, PartBody, PartSplashBlower:
		return true
	}
	return false
}

// Equipment is one physical wash unit at a site. Replacement dates gate the
// status derivation: a recorded rail date suppresses rail notices until the
// next body install clears it.
type Equipment struct {
	ID                 snowflake.ID `json:"id" gorm:"primaryKey"`
	SiteCode           string       `json:"site_code" gorm:"type:text;not null;uniqueIndex:ux_equipment_site_unit,priority:1"`
	UnitID             string       `json:"unit_id" gorm:"type:text;not null;uniqueIndex:ux_equipment_site_unit,priority:2"`
	SiteName           string       `json:"site_name" gorm:"type:text;not null"`
	BrushType          BrushType    `json:"brush_type" gorm:"type:text;not null;default:'sponge'"`
	BodyInstalledAt    *time.Time   `json:"body_installed_at"`
	RailReplacedAt     *time.Time   `json:"rail_replaced_at"`
	BrushReplacedAt    *time.Time   `json:"brush_replaced_at"`
	BrushReplacedCount int64        `json:"brush_replaced_count" gorm:"not null;default:0"`
	PendingWorkNote    string       `json:"pending_work_note" gorm:"type:text;not null;default:''"`
	CreatedAt          time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Equipment) TableName() string { return "equipment" }

// ReplacementHistory is an append-only record of completed part swaps.
type ReplacementHistory struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	SiteCode        string       `json:"site_code" gorm:"type:text;not null;index"`
	UnitID          string       `json:"unit_id" gorm:"type:text;not null"`
	Part            Part         `json:"part" gorm:"type:text;not null"`
	ReplacedAt      time.Time    `json:"replaced_at" gorm:"not null"`
	CumulativeCount int64        `json:"cumulative_count" gorm:"not null"`
	CreatedAt       time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ReplacementHistory) TableName() string { return "replacement_history" }
