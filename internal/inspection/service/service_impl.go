package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/selfix/washfleet/internal/clock"
	"github.com/selfix/washfleet/internal/config"
	inspectiondomain "github.com/selfix/washfleet/internal/inspection/domain"
	"github.com/selfix/washfleet/internal/observability/metrics"
	"github.com/selfix/washfleet/internal/providers/email"
	"github.com/selfix/washfleet/internal/providers/pdftext"
	statusdomain "github.com/selfix/washfleet/internal/status/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log       *zap.Logger
	Config    config.Config
	Clock     clock.Clock
	Extractor pdftext.Extractor
	Mailer    email.Provider
	StatusSvc statusdomain.Service
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	cfg       config.Config
	clock     clock.Clock
	extractor pdftext.Extractor
	mailer    email.Provider
	statusSvc statusdomain.Service
	metrics   *metrics.Metrics
}

func NewService(p ServiceParam) inspectiondomain.Service {
	return &Service{
		log:       p.Log.Named("inspection.service"),
		cfg:       p.Config,
		clock:     p.Clock,
		extractor: p.Extractor,
		mailer:    p.Mailer,
		statusSvc: p.StatusSvc,
		metrics:   p.Metrics,
	}
}

func (s *Service) ProcessInbox(ctx context.Context) ([]inspectiondomain.FileResult, error) {
	inbox := s.cfg.Inspection.InboxDir
	entries, err := os.ReadDir(inbox)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read inbox: %w", err)
	}

	var results []inspectiondomain.FileResult
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		path := filepath.Join(inbox, entry.Name())
		res := s.processFile(ctx, path)
		results = append(results, res)

		if err := s.archive(path); err != nil {
			s.log.Error("archive report", zap.String("file", entry.Name()), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.ReportsProcessed.Inc()
		}
	}

	s.notifyAnomalies(ctx, results)
	return results, nil
}

func (s *Service) processFile(ctx context.Context, path string) inspectiondomain.FileResult {
	res := inspectiondomain.FileResult{File: filepath.Base(path)}

	text, err := s.extractor.ExtractText(ctx, path)
	if err != nil {
		res.Skipped = fmt.Sprintf("text extraction failed: %v", err)
		s.log.Warn("extract report text", zap.String("file", res.File), zap.Error(err))
		return res
	}

	report, err := inspectiondomain.ParseReport(text, s.cfg.Inspection.SiteAliases)
	if err != nil {
		res.Skipped = err.Error()
		s.log.Warn("parse report", zap.String("file", res.File), zap.Error(err))
		return res
	}

	refDate := inspectiondomain.ReferenceDate(s.clock.Now())
	tolerance := s.cfg.Inspection.ToleranceMonths

	for _, reading := range report.Readings {
		unitID := string(reading.Position)
		baseline := s.baseline(ctx, report.SiteCode, unitID)
		cmp := inspectiondomain.Reconcile(reading.Count, report.VisitDate, baseline, refDate, tolerance)

		res.Results = append(res.Results, inspectiondomain.UnitResult{
			SiteCode:   report.SiteCode,
			SiteName:   report.SiteName,
			UnitID:     unitID,
			VisitDate:  report.VisitDate,
			Comparison: cmp,
		})

		fields := []zap.Field{
			zap.String("site", report.SiteCode),
			zap.String("unit", unitID),
			zap.Int64("reported", cmp.Reported),
			zap.String("classification", string(cmp.Classification)),
		}
		if cmp.Predicted != nil {
			fields = append(fields, zap.Int64("predicted", *cmp.Predicted))
		}
		s.log.Info("reading reconciled", fields...)

		if cmp.Classification.IsAnomaly() && s.metrics != nil {
			s.metrics.ReportAnomalies.Inc()
		}
	}
	return res
}

func (s *Service) baseline(ctx context.Context, siteCode, unitID string) *inspectiondomain.Baseline {
	snap, err := s.statusSvc.Get(ctx, siteCode, unitID)
	if err != nil {
		if !errors.Is(err, statusdomain.ErrSnapshotNotFound) {
			s.log.Warn("load baseline snapshot",
				zap.String("site", siteCode), zap.String("unit", unitID), zap.Error(err))
		}
		return nil
	}
	return &inspectiondomain.Baseline{
		CumulativeCount: snap.CumulativeCount,
		MonthlyAverage:  snap.MonthlyAverage,
	}
}

func (s *Service) archive(path string) error {
	done := s.cfg.Inspection.DoneDir
	if err := os.MkdirAll(done, 0o755); err != nil {
		return err
	}
	stamp := s.clock.Now().Format("20060102T150405")
	return os.Rename(path, filepath.Join(done, stamp+"-"+filepath.Base(path)))
}

func (s *Service) notifyAnomalies(ctx context.Context, results []inspectiondomain.FileResult) {
	to := s.cfg.Inspection.NotifyEmail
	if to == "" {
		return
	}

	var b strings.Builder
	for _, file := range results {
		for _, r := range file.Results {
			if !r.Comparison.Classification.IsAnomaly() {
				continue
			}
			fmt.Fprintf(&b, "%s / %s (%s): reported %d", r.SiteName, r.UnitID, file.File, r.Comparison.Reported)
			if r.Comparison.Predicted != nil {
				fmt.Fprintf(&b, ", predicted %d, diff %+d", *r.Comparison.Predicted, *r.Comparison.Diff)
			}
			fmt.Fprintf(&b, " [%s]\n", r.Comparison.Classification)
		}
	}
	if b.Len() == 0 {
		return
	}

	subject := "Inspection report anomalies " + s.clock.Now().Format("2006-01-02")
	if err := s.mailer.Send(ctx, []string{to}, subject, b.String()); err != nil {
		s.log.Error("send anomaly mail", zap.Error(err))
	}
}
