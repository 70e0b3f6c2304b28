package scheduler

import (
	"context"
	"time"

	"github.com/selfix/washfleet/internal/clock"
	inspectiondomain "github.com/selfix/washfleet/internal/inspection/domain"
	"github.com/selfix/washfleet/internal/observability/metrics"
	statusdomain "github.com/selfix/washfleet/internal/status/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log           *zap.Logger
	Clock         clock.Clock
	StatusSvc     statusdomain.Service
	InspectionSvc inspectiondomain.Service
	Metrics       *metrics.Metrics `optional:"true"`
	Config        Config           `optional:"true"`
}

// Scheduler periodically refreshes status snapshots and drains the
// inspection-report inbox. Jobs run sequentially; a run finishes before the
// next tick is honoured.
type Scheduler struct {
	log           *zap.Logger
	cfg           Config
	clock         clock.Clock
	statusSvc     statusdomain.Service
	inspectionSvc inspectiondomain.Service
	metrics       *metrics.Metrics
}

func New(p Params) *Scheduler {
	return &Scheduler{
		log:           p.Log.Named("scheduler"),
		cfg:           p.Config.withDefaults(),
		clock:         p.Clock,
		statusSvc:     p.StatusSvc,
		inspectionSvc: p.InspectionSvc,
		metrics:       p.Metrics,
	}
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		s.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) RunOnce(ctx context.Context) {
	s.runJob(ctx, "refresh_snapshots", func(ctx context.Context) error {
		_, err := s.statusSvc.Refresh(ctx)
		return err
	})
	s.runJob(ctx, "process_inspection_inbox", func(ctx context.Context) error {
		_, err := s.inspectionSvc.ProcessInbox(ctx)
		return err
	})
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	start := s.clock.Now()
	if s.metrics != nil {
		s.metrics.JobRuns.WithLabelValues(name).Inc()
	}

	if err := fn(ctx); err != nil {
		if s.metrics != nil {
			s.metrics.JobFailures.WithLabelValues(name).Inc()
		}
		s.log.Error("job failed", zap.String("job", name), zap.Error(err))
		return
	}

	s.log.Info("job finished",
		zap.String("job", name),
		zap.Duration("took", s.clock.Now().Sub(start)))
}
