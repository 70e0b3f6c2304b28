package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/selfix/washfleet/internal/clock"
	"github.com/selfix/washfleet/internal/config"
	equipmentdomain "github.com/selfix/washfleet/internal/equipment/domain"
	ledgerdomain "github.com/selfix/washfleet/internal/ledger/domain"
	statusdomain "github.com/selfix/washfleet/internal/status/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Config       config.Config
	Clock        clock.Clock
	EquipmentSvc equipmentdomain.Service
	LedgerSvc    ledgerdomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	cfg          config.Config
	clock        clock.Clock
	equipmentSvc equipmentdomain.Service
	ledgerSvc    ledgerdomain.Service
}

func NewService(p ServiceParam) statusdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("status.service"),
		genID:        p.GenID,
		cfg:          p.Config,
		clock:        p.Clock,
		equipmentSvc: p.EquipmentSvc,
		ledgerSvc:    p.LedgerSvc,
	}
}

func (s *Service) thresholds() statusdomain.Thresholds {
	m := s.cfg.Maintenance
	return statusdomain.Thresholds{
		RailCount:          m.RailThreshold,
		BrushFirstCount:    m.BrushFirstThreshold,
		BrushSecondCount:   m.BrushSecondThreshold,
		BodyCount:          m.BodyThreshold,
		ForecastMonths:     m.ForecastMonths,
		BrushWarningMonths: m.BrushWarningMonths,
	}
}

func (s *Service) Refresh(ctx context.Context) (int, error) {
	units, err := s.equipmentSvc.List(ctx)
	if err != nil {
		return 0, err
	}
	records, err := s.ledgerSvc.List(ctx, "", "")
	if err != nil {
		return 0, err
	}

	groups := make(map[ledgerdomain.UnitKey][]ledgerdomain.UsageRecord)
	for _, r := range records {
		key := ledgerdomain.NewUnitKey(r.SiteCode, r.UnitID)
		groups[key] = append(groups[key], r)
	}

	today := s.clock.Now()
	th := s.thresholds()
	snapshots := make([]*statusdomain.Snapshot, 0, len(units))

	for _, eq := range units {
		key := ledgerdomain.NewUnitKey(eq.SiteCode, eq.UnitID)
		group := groups[key]
		sort.Slice(group, func(i, j int) bool { return group[i].Period < group[j].Period })

		count := currentCount(group, eq.BodyInstalledAt)
		avg := ledgerdomain.MonthlyAverage(group)
		derived := statusdomain.Derive(eq, count, avg, today, th)

		subsidy := statusdomain.CheckSubsidy(
			eq.SiteName, eq.BodyInstalledAt,
			s.cfg.Maintenance.SubsidySites, s.cfg.Maintenance.SubsidyLockYears,
			today,
		)

		snapshots = append(snapshots, &statusdomain.Snapshot{
			ID:              s.genID.Generate(),
			SiteCode:        key.SiteCode,
			UnitID:          key.UnitID,
			SiteName:        eq.SiteName,
			BrushType:       eq.BrushType,
			CumulativeCount: count,
			MonthlyAverage:  avg,
			BodyInstalledAt: eq.BodyInstalledAt,
			RailStatus:      derived.Rail,
			BrushStatus:     derived.Brush,
			BodyStatus:      derived.Body,
			MonthsSinceRail: derived.MonthsSinceRail,
			SubsidyLocked:   subsidy != nil,
			PendingWorkNote: eq.PendingWorkNote,
			RefreshedAt:     today,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&statusdomain.Snapshot{}).Error; err != nil {
			return err
		}
		if len(snapshots) == 0 {
			return nil
		}
		return tx.CreateInBatches(snapshots, 200).Error
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("status snapshots refreshed", zap.Int("units", len(snapshots)))
	return len(snapshots), nil
}

// currentCount takes the latest ledger record's cumulative value, treating
// a unit whose install month postdates that record as freshly reset.
func currentCount(sorted []ledgerdomain.UsageRecord, installedAt *time.Time) int64 {
	if len(sorted) == 0 {
		return 0
	}
	latest := sorted[len(sorted)-1]
	if installedAt != nil {
		latestIdx, err := ledgerdomain.PeriodIndex(latest.Period)
		if err == nil && ledgerdomain.MonthIndexOf(*installedAt) > latestIdx {
			return 0
		}
	}
	return latest.CumulativeCount
}

func (s *Service) List(ctx context.Context) ([]statusdomain.Snapshot, error) {
	var rows []statusdomain.Snapshot
	err := s.db.WithContext(ctx).Order("site_code, unit_id").Find(&rows).Error
	return rows, err
}

func (s *Service) Get(ctx context.Context, siteCode, unitID string) (*statusdomain.Snapshot, error) {
	var row statusdomain.Snapshot
	err := s.db.WithContext(ctx).
		Where("site_code = ? AND unit_id = ?", strings.TrimSpace(siteCode), strings.TrimSpace(unitID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, statusdomain.ErrSnapshotNotFound
		}
		return nil, err
	}
	return &row, nil
}
