package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	equipmentdomain "github.com/selfix/washfleet/internal/equipment/domain"
	ledgerdomain "github.com/selfix/washfleet/internal/ledger/domain"
	obsmetrics "github.com/selfix/washfleet/internal/observability/metrics"
	"github.com/selfix/washfleet/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	EquipmentSvc equipmentdomain.Service
	Metrics      *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	equipmentSvc equipmentdomain.Service
	metrics      *obsmetrics.Metrics
}

func NewService(p ServiceParam) ledgerdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("ledger.service"),
		genID:        p.GenID,
		equipmentSvc: p.EquipmentSvc,
		metrics:      p.Metrics,
	}
}

// registryIndex caches the equipment registry facts a batch operation
// needs: which units exist and when each was (re)installed. Built once per
// call, never per lookup.
type registryIndex struct {
	known         map[ledgerdomain.UnitKey]bool
	installMonths map[ledgerdomain.UnitKey]int
}

func (s *Service) buildRegistryIndex(ctx context.Context) (*registryIndex, error) {
	units, err := s.equipmentSvc.List(ctx)
	if err != nil {
		return nil, err
	}
	idx := &registryIndex{
		known:         make(map[ledgerdomain.UnitKey]bool, len(units)),
		installMonths: make(map[ledgerdomain.UnitKey]int, len(units)),
	}
	for _, u := range units {
		key := ledgerdomain.NewUnitKey(u.SiteCode, u.UnitID)
		idx.known[key] = true
		if u.BodyInstalledAt != nil {
			idx.installMonths[key] = ledgerdomain.MonthIndexOf(*u.BodyInstalledAt)
		}
	}
	return idx, nil
}

func (idx *registryIndex) installMonth(key ledgerdomain.UnitKey) (int, bool) {
	m, ok := idx.installMonths[key]
	return m, ok
}

func (s *Service) loadGrouped(ctx context.Context) (map[ledgerdomain.UnitKey][]*ledgerdomain.UsageRecord, error) {
	var rows []*ledgerdomain.UsageRecord
	if err := s.db.WithContext(ctx).Order("site_code, unit_id, period").Find(&rows).Error; err != nil {
		return nil, err
	}
	groups := make(map[ledgerdomain.UnitKey][]*ledgerdomain.UsageRecord)
	for _, r := range rows {
		key := ledgerdomain.NewUnitKey(r.SiteCode, r.UnitID)
		groups[key] = append(groups[key], r)
	}
	return groups, nil
}

// priorCumulative resolves the cumulative baseline for a period: the value
// of the latest record strictly before it. When the unit's install month
// falls after that record (or there is none) and at or before the target,
// the baseline is the reinstallation reset, zero.
func priorCumulative(group []*ledgerdomain.UsageRecord, targetIdx int, installIdx int, hasInstall bool) int64 {
	var prior int64
	priorIdx := -1
	for _, rec := range group {
		idx, err := ledgerdomain.PeriodIndex(rec.Period)
		if err != nil || idx >= targetIdx {
			continue
		}
		if priorIdx < 0 || idx > priorIdx {
			priorIdx = idx
			prior = rec.CumulativeCount
		}
	}
	if hasInstall && (priorIdx < 0 || installIdx > priorIdx) && installIdx <= targetIdx {
		return 0
	}
	return prior
}

func (s *Service) ApplyDailySubmissions(ctx context.Context, subs []ledgerdomain.DailySubmission) (int, error) {
	if len(subs) == 0 {
		return 0, nil
	}

	type normalized struct {
		key        ledgerdomain.UnitKey
		period     string
		periodIdx  int
		dailyCount int64
	}

	registry, err := s.buildRegistryIndex(ctx)
	if err != nil {
		return 0, err
	}

	batch := make([]normalized, 0, len(subs))
	for _, sub := range subs {
		key := ledgerdomain.NewUnitKey(sub.SiteCode, sub.UnitID)
		if key.SiteCode == "" {
			return 0, ledgerdomain.ErrInvalidSite
		}
		if key.UnitID == "" {
			return 0, ledgerdomain.ErrInvalidUnit
		}
		if !registry.known[key] {
			return 0, ledgerdomain.ErrUnknownUnit
		}
		period, err := ledgerdomain.NormalizePeriod(sub.Period)
		if err != nil {
			return 0, err
		}
		idx, _ := ledgerdomain.PeriodIndex(period)
		batch = append(batch, normalized{key: key, period: period, periodIdx: idx, dailyCount: sub.DailyCount})
	}

	// Earlier months first, so a multi-month batch chains cumulative values
	// through its own submissions.
	sort.SliceStable(batch, func(i, j int) bool { return batch[i].periodIdx < batch[j].periodIdx })

	groups, err := s.loadGrouped(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	var updates []*ledgerdomain.UsageRecord
	var inserts []*ledgerdomain.UsageRecord

	for _, sub := range batch {
		group := groups[sub.key]
		installIdx, hasInstall := registry.installMonth(sub.key)
		prior := priorCumulative(group, sub.periodIdx, installIdx, hasInstall)

		var existing *ledgerdomain.UsageRecord
		for _, rec := range group {
			if rec.Period == sub.period {
				existing = rec
				break
			}
		}

		if existing != nil {
			// Last write wins: a resubmitted month overwrites, never adds.
			existing.DailyCount = sub.dailyCount
			existing.CumulativeCount = prior + sub.dailyCount
			existing.UpdatedAt = now
			updates = append(updates, existing)
			continue
		}

		rec := &ledgerdomain.UsageRecord{
			ID:              s.genID.Generate(),
			SiteCode:        sub.key.SiteCode,
			UnitID:          sub.key.UnitID,
			Period:          sub.period,
			DailyCount:      sub.dailyCount,
			CumulativeCount: prior + sub.dailyCount,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		groups[sub.key] = append(group, rec)
		inserts = append(inserts, rec)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range updates {
			err := tx.Model(&ledgerdomain.UsageRecord{}).
				Where("id = ?", rec.ID).
				Updates(map[string]any{
					"daily_count":      rec.DailyCount,
					"cumulative_count": rec.CumulativeCount,
					"updated_at":       rec.UpdatedAt,
				}).Error
			if err != nil {
				return err
			}
		}
		if len(inserts) > 0 {
			if err := tx.Create(inserts).Error; err != nil {
				if db.IsDuplicateKeyErr(err) {
					return fmt.Errorf("period submitted concurrently: %w", err)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	written := len(updates) + len(inserts)
	if s.metrics != nil {
		s.metrics.LedgerRowsWritten.Add(float64(written))
	}
	s.log.Info("daily submissions applied",
		zap.Int("submitted", len(subs)),
		zap.Int("updated", len(updates)),
		zap.Int("inserted", len(inserts)),
	)
	return written, nil
}

func (s *Service) CorrectMonth(ctx context.Context, siteCode, unitID, period string, dailyCount int64) error {
	return s.correctMonth(ctx, siteCode, unitID, period, func(prior int64, installReset bool) (int64, int64) {
		if installReset {
			return dailyCount, 0
		}
		return dailyCount, prior + dailyCount
	})
}

func (s *Service) CorrectMonthByCumulative(ctx context.Context, siteCode, unitID, period string, targetCumulative int64) error {
	return s.correctMonth(ctx, siteCode, unitID, period, func(prior int64, installReset bool) (int64, int64) {
		daily := targetCumulative - prior
		if daily < 0 {
			daily = 0
		}
		// The cumulative value is pinned exactly even when the derived
		// daily count was clamped.
		return daily, targetCumulative
	})
}

// correctMonth rewrites one period from its predecessor's cumulative value.
// It deliberately does not cascade; the caller runs RecalculateAll when
// later months must follow.
func (s *Service) correctMonth(
	ctx context.Context,
	siteCode, unitID, period string,
	compute func(prior int64, installReset bool) (daily int64, cumulative int64),
) error {
	key := ledgerdomain.NewUnitKey(siteCode, unitID)
	if key.SiteCode == "" {
		return ledgerdomain.ErrInvalidSite
	}
	if key.UnitID == "" {
		return ledgerdomain.ErrInvalidUnit
	}
	normalized, err := ledgerdomain.NormalizePeriod(period)
	if err != nil {
		return err
	}
	targetIdx, _ := ledgerdomain.PeriodIndex(normalized)

	registry, err := s.buildRegistryIndex(ctx)
	if err != nil {
		return err
	}
	groups, err := s.loadGrouped(ctx)
	if err != nil {
		return err
	}

	group := groups[key]
	var target *ledgerdomain.UsageRecord
	rest := make([]*ledgerdomain.UsageRecord, 0, len(group))
	for _, rec := range group {
		if rec.Period == normalized {
			target = rec
			continue
		}
		rest = append(rest, rec)
	}
	if target == nil {
		return ledgerdomain.ErrRecordNotFound
	}

	installIdx, hasInstall := registry.installMonth(key)
	prior := priorCumulative(rest, targetIdx, installIdx, hasInstall)
	installReset := hasInstall && targetIdx < installIdx

	daily, cumulative := compute(prior, installReset)

	return s.db.WithContext(ctx).
		Model(&ledgerdomain.UsageRecord{}).
		Where("id = ?", target.ID).
		Updates(map[string]any{
			"daily_count":      daily,
			"cumulative_count": cumulative,
			"updated_at":       time.Now().UTC(),
		}).Error
}

func (s *Service) RecalculateAll(ctx context.Context) (ledgerdomain.RecalculationResult, error) {
	result := ledgerdomain.RecalculationResult{RunID: uuid.NewString()}

	registry, err := s.buildRegistryIndex(ctx)
	if err != nil {
		return result, err
	}
	groups, err := s.loadGrouped(ctx)
	if err != nil {
		return result, err
	}

	takenAt := time.Now().UTC()
	var backups []*ledgerdomain.UsageRecordBackup
	type pendingUpdate struct {
		id         snowflake.ID
		cumulative int64
	}
	var updates []pendingUpdate

	for key, group := range groups {
		sort.Slice(group, func(i, j int) bool { return group[i].Period < group[j].Period })
		installIdx, hasInstall := registry.installMonth(key)

		var prev int64
		for _, rec := range group {
			backups = append(backups, &ledgerdomain.UsageRecordBackup{
				ID:              s.genID.Generate(),
				RunID:           result.RunID,
				TakenAt:         takenAt,
				SiteCode:        rec.SiteCode,
				UnitID:          rec.UnitID,
				Period:          rec.Period,
				DailyCount:      rec.DailyCount,
				CumulativeCount: rec.CumulativeCount,
			})

			idx, err := ledgerdomain.PeriodIndex(rec.Period)
			if err != nil {
				return result, err
			}
			var next int64
			if hasInstall && idx < installIdx {
				next = 0
			} else {
				next = prev + rec.DailyCount
			}
			prev = next

			if next != rec.CumulativeCount {
				updates = append(updates, pendingUpdate{id: rec.ID, cumulative: next})
			}
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The backup lands before any mutation so a failed run can still be
		// rolled back from it.
		if len(backups) > 0 {
			if err := tx.CreateInBatches(backups, 200).Error; err != nil {
				return err
			}
		}
		for _, u := range updates {
			// Only the cumulative column is rewritten; daily counts and
			// audit timestamps stay as submitted.
			err := tx.Model(&ledgerdomain.UsageRecord{}).
				Where("id = ?", u.id).
				Update("cumulative_count", u.cumulative).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	result.UpdatedRows = len(updates)
	if s.metrics != nil {
		s.metrics.LedgerRowsWritten.Add(float64(len(updates)))
	}
	s.log.Info("ledger recalculated",
		zap.String("run_id", result.RunID),
		zap.Int("groups", len(groups)),
		zap.Int("updated_rows", result.UpdatedRows),
	)
	return result, nil
}

func (s *Service) List(ctx context.Context, siteCode, unitID string) ([]ledgerdomain.UsageRecord, error) {
	q := s.db.WithContext(ctx).Order("period")
	if site := strings.TrimSpace(siteCode); site != "" {
		q = q.Where("site_code = ?", site)
	}
	if unit := strings.TrimSpace(unitID); unit != "" {
		q = q.Where("unit_id = ?", unit)
	}
	var rows []ledgerdomain.UsageRecord
	err := q.Find(&rows).Error
	return rows, err
}

func (s *Service) GetMonth(ctx context.Context, siteCode, unitID, period string) (*ledgerdomain.UsageRecord, error) {
	normalized, err := ledgerdomain.NormalizePeriod(period)
	if err != nil {
		return nil, err
	}
	var row ledgerdomain.UsageRecord
	err = s.db.WithContext(ctx).
		Where("site_code = ? AND unit_id = ? AND period = ?",
			strings.TrimSpace(siteCode), strings.TrimSpace(unitID), normalized).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledgerdomain.ErrRecordNotFound
		}
		return nil, err
	}
	return &row, nil
}
