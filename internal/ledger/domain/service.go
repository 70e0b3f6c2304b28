package domain

import (
	"context"
	"errors"
)

type Service interface {
	// ApplyDailySubmissions upserts one month of daily counts per unit,
	// deriving each cumulative value from the chronologically prior record.
	// Duplicate periods overwrite rather than add. Returns rows written.
	ApplyDailySubmissions(ctx context.Context, subs []DailySubmission) (int, error)

	// CorrectMonth rewrites a single period's daily count and recomputes
	// that period's cumulative value from its predecessor. Later months are
	// left untouched; call RecalculateAll for multi-month consistency.
	CorrectMonth(ctx context.Context, siteCode, unitID, period string, dailyCount int64) error

	// CorrectMonthByCumulative is the inverse correction: it pins the
	// cumulative value and derives the daily count from the predecessor.
	CorrectMonthByCumulative(ctx context.Context, siteCode, unitID, period string, targetCumulative int64) error

	// RecalculateAll rebuilds every cumulative column from daily counts,
	// zeroing periods that predate a unit's install month. A backup of the
	// prior state is persisted before anything is mutated.
	RecalculateAll(ctx context.Context) (RecalculationResult, error)

	List(ctx context.Context, siteCode, unitID string) ([]UsageRecord, error)
	GetMonth(ctx context.Context, siteCode, unitID, period string) (*UsageRecord, error)
}

var (
	ErrInvalidPeriod  = errors.New("invalid_period")
	ErrInvalidSite    = errors.New("invalid_site")
	ErrInvalidUnit    = errors.New("invalid_unit")
	ErrUnknownUnit    = errors.New("unknown_unit")
	ErrRecordNotFound = errors.New("usage_record_not_found")
)
