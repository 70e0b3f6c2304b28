package status

import (
	"github.com/selfix/washfleet/internal/status/service"
	"go.uber.org/fx"
)

var Module = fx.Module("status.service",
	fx.Provide(service.NewService),
)
