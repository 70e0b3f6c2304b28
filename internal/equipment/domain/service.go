package domain

import (
	"context"
	"errors"
	"time"
)

type RecordReplacementRequest struct {
	SiteCode        string    `json:"site_code"`
	UnitID          string    `json:"unit_id"`
	Part            Part      `json:"part"`
	ReplacedAt      time.Time `json:"replaced_at"`
	CumulativeCount int64     `json:"cumulative_count"`
}

type Service interface {
	List(ctx context.Context) ([]Equipment, error)
	Get(ctx context.Context, siteCode, unitID string) (*Equipment, error)
	// RecordReplacement stamps the registry with a completed swap and
	// appends the history row. A body replacement also resets the rail and
	// brush dates and zeroes the brush counter.
	RecordReplacement(ctx context.Context, req RecordReplacementRequest) error
	SaveWorkNote(ctx context.Context, siteCode, unitID, note string) error
	History(ctx context.Context, siteCode, unitID string) ([]ReplacementHistory, error)
}

var (
	ErrEquipmentNotFound = errors.New("equipment_not_found")
	ErrInvalidPart       = errors.New("invalid_part")
	ErrInvalidSite       = errors.New("invalid_site")
	ErrInvalidUnit       = errors.New("invalid_unit")
	ErrInvalidDate       = errors.New("invalid_date")
)
