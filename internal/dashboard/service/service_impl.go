package service

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"text/template"
	"time"

	"github.com/selfix/washfleet/internal/clock"
	"github.com/selfix/washfleet/internal/config"
	dashboarddomain "github.com/selfix/washfleet/internal/dashboard/domain"
	equipmentdomain "github.com/selfix/washfleet/internal/equipment/domain"
	projectdomain "github.com/selfix/washfleet/internal/project/domain"
	"github.com/selfix/washfleet/internal/providers/email"
	statusdomain "github.com/selfix/washfleet/internal/status/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// completedGrace keeps a just-finished replacement out of the alert list
// long enough for the next ledger cycle to reflect the reset.
const completedGrace = 30 * 24 * time.Hour

type ServiceParam struct {
	fx.In

	Log        *zap.Logger
	Config     config.Config
	Clock      clock.Clock
	Mailer     email.Provider
	StatusSvc  statusdomain.Service
	ProjectSvc projectdomain.Service
}

type Service struct {
	log        *zap.Logger
	cfg        config.Config
	clock      clock.Clock
	mailer     email.Provider
	statusSvc  statusdomain.Service
	projectSvc projectdomain.Service
}

func NewService(p ServiceParam) dashboarddomain.Service {
	return &Service{
		log:        p.Log.Named("dashboard.service"),
		cfg:        p.Config,
		clock:      p.Clock,
		mailer:     p.Mailer,
		statusSvc:  p.StatusSvc,
		projectSvc: p.ProjectSvc,
	}
}

func (s *Service) Overview(ctx context.Context) (*dashboarddomain.Overview, error) {
	snapshots, err := s.statusSvc.List(ctx)
	if err != nil {
		return nil, err
	}
	suppressed, err := s.projectSvc.ActiveKeys(ctx, completedGrace)
	if err != nil {
		return nil, err
	}

	alerts, suppressedCount := buildAlerts(snapshots, suppressed)

	activeProjects, err := s.projectSvc.List(ctx, true)
	if err != nil {
		return nil, err
	}

	alerted := make(map[string]bool)
	for _, a := range alerts {
		alerted[a.SiteCode+"|"+a.UnitID] = true
		if a.UnitID == dashboarddomain.AllUnits {
			for _, snap := range snapshots {
				if snap.SiteCode == a.SiteCode {
					alerted[snap.SiteCode+"|"+snap.UnitID] = true
				}
			}
		}
	}
	normal := 0
	for _, snap := range snapshots {
		if !alerted[snap.SiteCode+"|"+snap.UnitID] {
			normal++
		}
	}

	return &dashboarddomain.Overview{
		Alerts:          alerts,
		NormalCount:     normal,
		SubsidyNotices:  s.subsidyNotices(snapshots),
		ActiveProjects:  activeProjects,
		SnapshotCount:   len(snapshots),
		SuppressedCount: suppressedCount,
	}, nil
}

func (s *Service) ExchangeTargets(ctx context.Context) ([]dashboarddomain.ExchangeTarget, error) {
	snapshots, err := s.statusSvc.List(ctx)
	if err != nil {
		return nil, err
	}
	suppressed, err := s.projectSvc.ActiveKeys(ctx, completedGrace)
	if err != nil {
		return nil, err
	}

	alerts, _ := buildAlerts(snapshots, suppressed)

	byUnit := make(map[string]*dashboarddomain.ExchangeTarget)
	var order []string
	for _, a := range alerts {
		key := a.SiteCode + "|" + a.UnitID
		target, ok := byUnit[key]
		if !ok {
			target = &dashboarddomain.ExchangeTarget{
				SiteCode: a.SiteCode,
				UnitID:   a.UnitID,
				SiteName: a.SiteName,
			}
			byUnit[key] = target
			order = append(order, key)
		}
		target.Parts = append(target.Parts, a.Part)
	}

	targets := make([]dashboarddomain.ExchangeTarget, 0, len(order))
	for _, key := range order {
		targets = append(targets, *byUnit[key])
	}
	return targets, nil
}

// buildAlerts turns snapshots into alert rows. Body alerts collapse to one
// site-wide row; rail and brush alerts stay per unit. Units covered by an
// active or recently completed project are suppressed.
func buildAlerts(snapshots []statusdomain.Snapshot, suppressed map[string]bool) ([]dashboarddomain.Alert, int) {
	var alerts []dashboarddomain.Alert
	suppressedCount := 0

	skip := func(site, unit string, part equipmentdomain.Part) bool {
		if suppressed[projectdomain.SuppressionKey(site, unit, part)] {
			suppressedCount++
			return true
		}
		return false
	}

	bodySites := make(map[string]*dashboarddomain.Alert)
	var bodyOrder []string

	for _, snap := range snapshots {
		if snap.RailStatus == statusdomain.StatusNotice && !skip(snap.SiteCode, snap.UnitID, equipmentdomain.PartRailWheel) {
			alerts = append(alerts, dashboarddomain.Alert{
				SiteCode:        snap.SiteCode,
				UnitID:          snap.UnitID,
				SiteName:        snap.SiteName,
				Part:            equipmentdomain.PartRailWheel,
				Status:          snap.RailStatus,
				CumulativeCount: snap.CumulativeCount,
				MonthlyAverage:  snap.MonthlyAverage,
				MonthsSinceRail: snap.MonthsSinceRail,
				PendingWorkNote: snap.PendingWorkNote,
			})
		}

		if snap.BrushStatus.NeedsAttention() && !skip(snap.SiteCode, snap.UnitID, equipmentdomain.PartClothBrush) {
			alerts = append(alerts, dashboarddomain.Alert{
				SiteCode:        snap.SiteCode,
				UnitID:          snap.UnitID,
				SiteName:        snap.SiteName,
				Part:            equipmentdomain.PartClothBrush,
				Status:          snap.BrushStatus,
				CumulativeCount: snap.CumulativeCount,
				MonthlyAverage:  snap.MonthlyAverage,
				PendingWorkNote: snap.PendingWorkNote,
			})
		}

		if snap.BodyStatus == statusdomain.StatusPrepare {
			group, ok := bodySites[snap.SiteCode]
			if !ok {
				bodySites[snap.SiteCode] = &dashboarddomain.Alert{
					SiteCode:        snap.SiteCode,
					UnitID:          dashboarddomain.AllUnits,
					SiteName:        snap.SiteName,
					Part:            equipmentdomain.PartBody,
					Status:          snap.BodyStatus,
					CumulativeCount: snap.CumulativeCount,
					MonthlyAverage:  snap.MonthlyAverage,
				}
				bodyOrder = append(bodyOrder, snap.SiteCode)
			} else if snap.CumulativeCount > group.CumulativeCount {
				group.CumulativeCount = snap.CumulativeCount
				group.MonthlyAverage = snap.MonthlyAverage
			}
		}
	}

	for _, site := range bodyOrder {
		group := bodySites[site]
		if skip(group.SiteCode, dashboarddomain.AllUnits, equipmentdomain.PartBody) {
			continue
		}
		alerts = append(alerts, *group)
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].SiteCode != alerts[j].SiteCode {
			return alerts[i].SiteCode < alerts[j].SiteCode
		}
		return alerts[i].UnitID < alerts[j].UnitID
	})
	return alerts, suppressedCount
}

func (s *Service) subsidyNotices(snapshots []statusdomain.Snapshot) []statusdomain.SubsidyNotice {
	var notices []statusdomain.SubsidyNotice
	seen := make(map[string]bool)
	today := s.clock.Now()
	for _, snap := range snapshots {
		if !snap.SubsidyLocked || seen[snap.SiteCode] {
			continue
		}
		notice := statusdomain.CheckSubsidy(
			snap.SiteName, snap.BodyInstalledAt,
			s.cfg.Maintenance.SubsidySites, s.cfg.Maintenance.SubsidyLockYears,
			today,
		)
		if notice != nil {
			seen[snap.SiteCode] = true
			notices = append(notices, *notice)
		}
	}
	return notices
}

type quoteLine struct {
	SiteName string
	UnitID   string
	Parts    []equipmentdomain.Part
}

var quoteTmpl = template.Must(template.New("quote").Parse(
	`Hello,

Please send a quote for the following wear part replacements:
{{range .Lines}}
- {{.SiteName}} (unit: {{.UnitID}}): {{range $i, $p := .Parts}}{{if $i}}, {{end}}{{$p}}{{end}}{{end}}

Regards,
Maintenance planning
`))

func (s *Service) CreateQuoteDrafts(ctx context.Context) (*dashboarddomain.QuoteDraftResult, error) {
	targets, err := s.ExchangeTargets(ctx)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return &dashboarddomain.QuoteDraftResult{}, nil
	}

	excluded := make(map[string]bool, len(s.cfg.Vendors.BlowerExcludedSites))
	for _, site := range s.cfg.Vendors.BlowerExcludedSites {
		excluded[site] = true
	}

	var machineLines, blowerLines []quoteLine
	registered := 0

	for _, target := range targets {
		var machineParts, blowerParts []equipmentdomain.Part
		for _, part := range target.Parts {
			if part == equipmentdomain.PartSplashBlower {
				blowerParts = append(blowerParts, part)
			} else {
				machineParts = append(machineParts, part)
			}
			// A new body ships with a matching splash blower unless the
			// site keeps its existing one.
			if part == equipmentdomain.PartBody && !excluded[target.SiteName] {
				blowerParts = append(blowerParts, equipmentdomain.PartSplashBlower)
			}
		}

		if len(machineParts) > 0 {
			machineLines = append(machineLines, quoteLine{target.SiteName, target.UnitID, machineParts})
		}
		if len(blowerParts) > 0 {
			blowerLines = append(blowerLines, quoteLine{target.SiteName, target.UnitID, blowerParts})
		}

		for _, part := range append(append([]equipmentdomain.Part{}, machineParts...), blowerParts...) {
			_, err := s.projectSvc.Register(ctx, projectdomain.RegisterRequest{
				SiteCode: target.SiteCode,
				UnitID:   target.UnitID,
				Part:     part,
				Note:     "registered from quote draft run",
			})
			switch {
			case err == nil:
				registered++
			case errors.Is(err, projectdomain.ErrProjectExists):
			default:
				s.log.Warn("register project from quote run",
					zap.String("site", target.SiteCode),
					zap.String("unit", target.UnitID),
					zap.String("part", string(part)),
					zap.Error(err))
			}
		}
	}

	drafts := 0
	draft := func(to string, lines []quoteLine) {
		if to == "" || len(lines) == 0 {
			return
		}
		var body bytes.Buffer
		if err := quoteTmpl.Execute(&body, map[string]any{"Lines": lines}); err != nil {
			s.log.Error("render quote draft", zap.Error(err))
			return
		}
		subject := "Quote request: wear part replacements " + s.clock.Now().Format("2006-01")
		if err := s.mailer.CreateDraft(ctx, []string{to}, subject, body.String()); err != nil {
			s.log.Error("create quote draft", zap.String("to", to), zap.Error(err))
			return
		}
		drafts++
	}
	draft(s.cfg.Vendors.MachineVendorEmail, machineLines)
	draft(s.cfg.Vendors.BlowerVendorEmail, blowerLines)

	s.log.Info("quote drafts created", zap.Int("drafts", drafts), zap.Int("projects", registered))
	return &dashboarddomain.QuoteDraftResult{DraftsCreated: drafts, ProjectsRegistered: registered}, nil
}
