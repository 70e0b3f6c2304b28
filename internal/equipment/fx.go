package equipment

import (
	"github.com/selfix/washfleet/internal/equipment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("equipment.service",
	fx.Provide(service.NewService),
)
