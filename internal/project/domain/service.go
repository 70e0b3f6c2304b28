package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	equipmentdomain "github.com/selfix/washfleet/internal/equipment/domain"
)

var (
	ErrProjectNotFound   = errors.New("project_not_found")
	ErrProjectExists     = errors.New("project_exists")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrInvalidStatus     = errors.New("invalid_status")
)

type RegisterRequest struct {
	SiteCode string
	UnitID   string
	Part     equipmentdomain.Part
	Note     string
}

// Service is the replacement-project workflow.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Project, error)
	List(ctx context.Context, activeOnly bool) ([]Project, error)
	Get(ctx context.Context, id snowflake.ID) (*Project, error)
	// ActiveKeys returns the set of site/unit/part keys holding a
	// non-terminal project, plus those completed within the grace window.
	ActiveKeys(ctx context.Context, completedGrace time.Duration) (map[string]bool, error)
	UpdateStatus(ctx context.Context, id snowflake.ID, to Status) (*Project, error)
	Schedule(ctx context.Context, id snowflake.ID, date time.Time) (*Project, error)
	Complete(ctx context.Context, id snowflake.ID, workDate *time.Time) (*Project, error)
	Cancel(ctx context.Context, id snowflake.ID) (*Project, error)
}

// SuppressionKey is the dedupe key for active projects.
func SuppressionKey(siteCode, unitID string, part equipmentdomain.Part) string {
	return siteCode + "|" + unitID + "|" + string(part)
}
