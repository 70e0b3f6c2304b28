package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/selfix/washfleet/internal/clock"
	equipmentdomain "github.com/selfix/washfleet/internal/equipment/domain"
	projectdomain "github.com/selfix/washfleet/internal/project/domain"
	"github.com/selfix/washfleet/internal/providers/calendar"
	statusdomain "github.com/selfix/washfleet/internal/status/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// siteWideUnit marks a project that covers every unit at a site.
const siteWideUnit = "all"

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Calendar     calendar.Provider
	EquipmentSvc equipmentdomain.Service
	StatusSvc    statusdomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	calendar     calendar.Provider
	equipmentSvc equipmentdomain.Service
	statusSvc    statusdomain.Service
}

func NewService(p ServiceParam) projectdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("project.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		calendar:     p.Calendar,
		equipmentSvc: p.EquipmentSvc,
		statusSvc:    p.StatusSvc,
	}
}

func (s *Service) Register(ctx context.Context, req projectdomain.RegisterRequest) (*projectdomain.Project, error) {
	if !req.Part.Valid() {
		return nil, equipmentdomain.ErrInvalidPart
	}
	siteCode, unitID, siteName, err := s.resolveTarget(ctx, req.SiteCode, req.UnitID)
	if err != nil {
		return nil, err
	}

	var active int64
	err = s.db.WithContext(ctx).Model(&projectdomain.Project{}).
		Where("site_code = ? AND unit_id = ? AND part = ? AND status NOT IN ?",
			siteCode, unitID, req.Part,
			[]projectdomain.Status{projectdomain.Completed, projectdomain.Cancelled}).
		Count(&active).Error
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, projectdomain.ErrProjectExists
	}

	project := &projectdomain.Project{
		ID:       s.genID.Generate(),
		SiteCode: siteCode,
		UnitID:   unitID,
		SiteName: siteName,
		Part:     req.Part,
		Status:   projectdomain.EstimateRequested,
		Note:     req.Note,
	}
	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, err
	}

	s.log.Info("project registered",
		zap.String("site", project.SiteCode),
		zap.String("unit", project.UnitID),
		zap.String("part", string(project.Part)))
	return project, nil
}

// resolveTarget validates the project target against the registry. Body
// projects cover a whole site and use the pseudo unit id "all"; any unit at
// the site proves the site exists and supplies the display name.
func (s *Service) resolveTarget(ctx context.Context, siteCode, unitID string) (string, string, string, error) {
	if unitID != siteWideUnit {
		eq, err := s.equipmentSvc.Get(ctx, siteCode, unitID)
		if err != nil {
			return "", "", "", err
		}
		return eq.SiteCode, eq.UnitID, eq.SiteName, nil
	}

	units, err := s.equipmentSvc.List(ctx)
	if err != nil {
		return "", "", "", err
	}
	for _, eq := range units {
		if eq.SiteCode == siteCode {
			return eq.SiteCode, siteWideUnit, eq.SiteName, nil
		}
	}
	return "", "", "", equipmentdomain.ErrEquipmentNotFound
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]projectdomain.Project, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if activeOnly {
		q = q.Where("status NOT IN ?", []projectdomain.Status{projectdomain.Completed, projectdomain.Cancelled})
	}
	var rows []projectdomain.Project
	err := q.Find(&rows).Error
	return rows, err
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*projectdomain.Project, error) {
	var row projectdomain.Project
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, projectdomain.ErrProjectNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (s *Service) ActiveKeys(ctx context.Context, completedGrace time.Duration) (map[string]bool, error) {
	var rows []projectdomain.Project
	cutoff := s.clock.Now().Add(-completedGrace)
	err := s.db.WithContext(ctx).
		Where("status NOT IN ? OR (status = ? AND updated_at >= ?)",
			[]projectdomain.Status{projectdomain.Completed, projectdomain.Cancelled},
			projectdomain.Completed, cutoff).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	keys := make(map[string]bool, len(rows))
	for _, p := range rows {
		keys[projectdomain.SuppressionKey(p.SiteCode, p.UnitID, p.Part)] = true
	}
	return keys, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id snowflake.ID, to projectdomain.Status) (*projectdomain.Project, error) {
	if !to.Valid() {
		return nil, projectdomain.ErrInvalidStatus
	}
	switch to {
	case projectdomain.Scheduled:
		return nil, fmt.Errorf("%w: scheduling requires a date", projectdomain.ErrInvalidTransition)
	case projectdomain.Completed:
		return s.Complete(ctx, id, nil)
	case projectdomain.Cancelled:
		return s.Cancel(ctx, id)
	}

	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !projectdomain.CanTransition(project.Status, to) {
		return nil, projectdomain.ErrInvalidTransition
	}

	if project.Status == projectdomain.Scheduled {
		s.releaseCalendar(ctx, project)
	}
	project.Status = to
	if err := s.db.WithContext(ctx).Save(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

func (s *Service) Schedule(ctx context.Context, id snowflake.ID, date time.Time) (*projectdomain.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !projectdomain.CanTransition(project.Status, projectdomain.Scheduled) {
		return nil, projectdomain.ErrInvalidTransition
	}

	title := fmt.Sprintf("%s %s: %s replacement", project.SiteName, project.UnitID, project.Part)
	ref, err := s.calendar.CreateEvent(ctx, title, date, project.Note)
	if err != nil {
		s.log.Error("create calendar event", zap.Int64("project", int64(project.ID)), zap.Error(err))
		ref = ""
	}

	project.Status = projectdomain.Scheduled
	project.ScheduledDate = &date
	project.CalendarEventRef = ref
	if err := s.db.WithContext(ctx).Save(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

func (s *Service) Complete(ctx context.Context, id snowflake.ID, workDate *time.Time) (*projectdomain.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !projectdomain.CanTransition(project.Status, projectdomain.Completed) {
		return nil, projectdomain.ErrInvalidTransition
	}

	replacedAt := s.clock.Now()
	switch {
	case workDate != nil:
		replacedAt = *workDate
	case project.ScheduledDate != nil:
		replacedAt = *project.ScheduledDate
	}

	for _, unitID := range s.completionUnits(ctx, project) {
		snap, err := s.statusSvc.Get(ctx, project.SiteCode, unitID)
		var count int64
		if err == nil {
			count = snap.CumulativeCount
		} else if !errors.Is(err, statusdomain.ErrSnapshotNotFound) {
			return nil, err
		}

		err = s.equipmentSvc.RecordReplacement(ctx, equipmentdomain.RecordReplacementRequest{
			SiteCode:        project.SiteCode,
			UnitID:          unitID,
			Part:            project.Part,
			ReplacedAt:      replacedAt,
			CumulativeCount: count,
		})
		if err != nil {
			return nil, err
		}
	}

	project.Status = projectdomain.Completed
	if err := s.db.WithContext(ctx).Save(project).Error; err != nil {
		return nil, err
	}

	if project.CalendarEventRef != "" {
		title := fmt.Sprintf("[done] %s %s: %s replacement", project.SiteName, project.UnitID, project.Part)
		if err := s.calendar.RenameEvent(ctx, project.CalendarEventRef, title); err != nil {
			s.log.Warn("rename calendar event", zap.Int64("project", int64(project.ID)), zap.Error(err))
		}
	}

	if _, err := s.statusSvc.Refresh(ctx); err != nil {
		s.log.Error("refresh snapshots after completion", zap.Error(err))
	}

	s.log.Info("project completed",
		zap.String("site", project.SiteCode),
		zap.String("unit", project.UnitID),
		zap.String("part", string(project.Part)),
		zap.Time("replaced_at", replacedAt))
	return project, nil
}

func (s *Service) Cancel(ctx context.Context, id snowflake.ID) (*projectdomain.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !projectdomain.CanTransition(project.Status, projectdomain.Cancelled) {
		return nil, projectdomain.ErrInvalidTransition
	}

	if project.Status == projectdomain.Scheduled {
		s.releaseCalendar(ctx, project)
	}
	project.Status = projectdomain.Cancelled
	if err := s.db.WithContext(ctx).Save(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// completionUnits expands a site-wide project into its member units.
func (s *Service) completionUnits(ctx context.Context, project *projectdomain.Project) []string {
	if project.UnitID != siteWideUnit {
		return []string{project.UnitID}
	}
	units, err := s.equipmentSvc.List(ctx)
	if err != nil {
		s.log.Error("list units for site-wide completion", zap.Error(err))
		return nil
	}
	var out []string
	for _, eq := range units {
		if eq.SiteCode == project.SiteCode {
			out = append(out, eq.UnitID)
		}
	}
	return out
}

// releaseCalendar drops the event and clears the schedule fields. Calendar
// failures are logged, never propagated.
func (s *Service) releaseCalendar(ctx context.Context, project *projectdomain.Project) {
	if project.CalendarEventRef != "" {
		if err := s.calendar.DeleteEvent(ctx, project.CalendarEventRef); err != nil {
			s.log.Warn("delete calendar event",
				zap.Int64("project", int64(project.ID)),
				zap.String("event", project.CalendarEventRef),
				zap.Error(err))
		}
	}
	project.CalendarEventRef = ""
	project.ScheduledDate = nil
}
