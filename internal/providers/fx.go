package providers

import (
	"github.com/selfix/washfleet/internal/providers/calendar"
	"github.com/selfix/washfleet/internal/providers/email"
	"github.com/selfix/washfleet/internal/providers/pdftext"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	calendar.Module,
	pdftext.Module,
)
