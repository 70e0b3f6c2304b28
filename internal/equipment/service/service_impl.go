package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	equipmentdomain "github.com/selfix/washfleet/internal/equipment/domain"
	"github.com/selfix/washfleet/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node

	equipment repository.Repository[equipmentdomain.Equipment]
	history   repository.Repository[equipmentdomain.ReplacementHistory]
}

func NewService(p ServiceParam) equipmentdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("equipment.service"),
		genID:     p.GenID,
		equipment: repository.ProvideStore[equipmentdomain.Equipment](p.DB),
		history:   repository.ProvideStore[equipmentdomain.ReplacementHistory](p.DB),
	}
}

func (s *Service) List(ctx context.Context) ([]equipmentdomain.Equipment, error) {
	var rows []equipmentdomain.Equipment
	err := s.db.WithContext(ctx).
		Order("site_code, unit_id").
		Find(&rows).Error
	return rows, err
}

func (s *Service) Get(ctx context.Context, siteCode, unitID string) (*equipmentdomain.Equipment, error) {
	siteCode = strings.TrimSpace(siteCode)
	unitID = strings.TrimSpace(unitID)
	if siteCode == "" {
		return nil, equipmentdomain.ErrInvalidSite
	}
	if unitID == "" {
		return nil, equipmentdomain.ErrInvalidUnit
	}

	row, err := s.equipment.FindOne(ctx, &equipmentdomain.Equipment{SiteCode: siteCode, UnitID: unitID})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, equipmentdomain.ErrEquipmentNotFound
	}
	return row, nil
}

func (s *Service) RecordReplacement(ctx context.Context, req equipmentdomain.RecordReplacementRequest) error {
	if !req.Part.Valid() {
		return equipmentdomain.ErrInvalidPart
	}
	if req.ReplacedAt.IsZero() {
		return equipmentdomain.ErrInvalidDate
	}

	eq, err := s.Get(ctx, req.SiteCode, req.UnitID)
	if err != nil {
		return err
	}

	replacedAt := req.ReplacedAt.UTC()
	switch req.Part {
	case equipmentdomain.PartRailWheel:
		eq.RailReplacedAt = &replacedAt
	case equipmentdomain.PartClothBrush:
		eq.BrushReplacedAt = &replacedAt
		eq.BrushReplacedCount = req.CumulativeCount
	case equipmentdomain.PartBody:
		// A body swap starts a new lifetime: every gate resets with it.
		eq.BodyInstalledAt = &replacedAt
		eq.RailReplacedAt = &replacedAt
		eq.BrushReplacedAt = &replacedAt
		eq.BrushReplacedCount = 0
	case equipmentdomain.PartSplashBlower:
		// Tracked in history only; no registry gate for the blower.
	}
	eq.PendingWorkNote = ""

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.equipment.WithTrx(tx).Save(ctx, eq); err != nil {
			return err
		}
		return s.history.WithTrx(tx).Create(ctx, &equipmentdomain.ReplacementHistory{
			ID:              s.genID.Generate(),
			SiteCode:        eq.SiteCode,
			UnitID:          eq.UnitID,
			Part:            req.Part,
			ReplacedAt:      replacedAt,
			CumulativeCount: req.CumulativeCount,
		})
	})
}

func (s *Service) SaveWorkNote(ctx context.Context, siteCode, unitID, note string) error {
	eq, err := s.Get(ctx, siteCode, unitID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Model(&equipmentdomain.Equipment{}).
		Where("id = ?", eq.ID).
		Update("pending_work_note", strings.TrimSpace(note)).Error
}

func (s *Service) History(ctx context.Context, siteCode, unitID string) ([]equipmentdomain.ReplacementHistory, error) {
	var rows []equipmentdomain.ReplacementHistory
	err := s.db.WithContext(ctx).
		Where("site_code = ? AND unit_id = ?", strings.TrimSpace(siteCode), strings.TrimSpace(unitID)).
		Order("replaced_at DESC").
		Find(&rows).Error
	return rows, err
}
