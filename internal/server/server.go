package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/selfix/washfleet/internal/config"
	"github.com/selfix/washfleet/internal/dashboard"
	dashboarddomain "github.com/selfix/washfleet/internal/dashboard/domain"
	"github.com/selfix/washfleet/internal/equipment"
	equipmentdomain "github.com/selfix/washfleet/internal/equipment/domain"
	"github.com/selfix/washfleet/internal/inspection"
	inspectiondomain "github.com/selfix/washfleet/internal/inspection/domain"
	"github.com/selfix/washfleet/internal/ledger"
	ledgerdomain "github.com/selfix/washfleet/internal/ledger/domain"
	"github.com/selfix/washfleet/internal/observability/metrics"
	"github.com/selfix/washfleet/internal/project"
	projectdomain "github.com/selfix/washfleet/internal/project/domain"
	"github.com/selfix/washfleet/internal/providers"
	"github.com/selfix/washfleet/internal/status"
	statusdomain "github.com/selfix/washfleet/internal/status/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	providers.Module,
	equipment.Module,
	ledger.Module,
	status.Module,
	inspection.Module,
	project.Module,
	dashboard.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware(m))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(m *metrics.Metrics) *gin.Engine {
	return NewEngine(m)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	equipmentSvc  equipmentdomain.Service
	ledgerSvc     ledgerdomain.Service
	statusSvc     statusdomain.Service
	inspectionSvc inspectiondomain.Service
	projectSvc    projectdomain.Service
	dashboardSvc  dashboarddomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	EquipmentSvc  equipmentdomain.Service
	LedgerSvc     ledgerdomain.Service
	StatusSvc     statusdomain.Service
	InspectionSvc inspectiondomain.Service
	ProjectSvc    projectdomain.Service
	DashboardSvc  dashboarddomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		equipmentSvc:  p.EquipmentSvc,
		ledgerSvc:     p.LedgerSvc,
		statusSvc:     p.StatusSvc,
		inspectionSvc: p.InspectionSvc,
		projectSvc:    p.ProjectSvc,
		dashboardSvc:  p.DashboardSvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api/v1")
	{
		api.GET("/dashboard", s.GetDashboard)
		api.GET("/dashboard/exchange-targets", s.ListExchangeTargets)
		api.POST("/dashboard/quote-drafts", s.CreateQuoteDrafts)

		snapshots := api.Group("/snapshots")
		{
			snapshots.GET("", s.ListSnapshots)
			snapshots.POST("/refresh", s.RefreshSnapshots)
			snapshots.GET("/:site/:unit", s.GetSnapshot)
		}

		equipmentGroup := api.Group("/equipment")
		{
			equipmentGroup.GET("", s.ListEquipment)
			equipmentGroup.GET("/:site/:unit", s.GetEquipment)
			equipmentGroup.GET("/:site/:unit/history", s.GetReplacementHistory)
			equipmentGroup.PUT("/:site/:unit/work-note", s.SaveWorkNote)
		}

		usage := api.Group("/usage")
		{
			usage.GET("", s.ListUsage)
			usage.POST("/submissions", s.ApplyDailySubmissions)
			usage.POST("/corrections", s.CorrectMonth)
			usage.POST("/corrections/cumulative", s.CorrectMonthByCumulative)
			usage.POST("/recalculate", s.RecalculateAll)
		}

		projectsGroup := api.Group("/projects")
		{
			projectsGroup.GET("", s.ListProjects)
			projectsGroup.POST("", s.RegisterProject)
			projectsGroup.GET("/:id", s.GetProject)
			projectsGroup.POST("/:id/status", s.UpdateProjectStatus)
			projectsGroup.POST("/:id/schedule", s.ScheduleProject)
			projectsGroup.POST("/:id/complete", s.CompleteProject)
			projectsGroup.POST("/:id/cancel", s.CancelProject)
		}

		api.POST("/inspections/process", s.ProcessInspectionInbox)
	}
}
