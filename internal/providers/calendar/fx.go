package calendar

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.calendar",
	fx.Provide(func(log *zap.Logger) Provider {
		return WithLogging(NewNoOp(), log.Named("providers.calendar"))
	}),
)
