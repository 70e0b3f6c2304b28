package pdftext

import "go.uber.org/fx"

var Module = fx.Module("providers.pdftext",
	fx.Provide(New),
)
