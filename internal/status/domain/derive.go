package domain

import (
	"time"

	equipmentdomain "github.com/selfix/washfleet/internal/equipment/domain"
)

// Thresholds parameterise the replacement policy. Zero values are replaced
// by the fleet's standing policy so a partially-populated config cannot
// silently disable a gate.
type Thresholds struct {
	RailCount          int64
	BrushFirstCount    int64
	BrushSecondCount   int64
	BodyCount          int64
	ForecastMonths     int
	BrushWarningMonths int
}

// DefaultThresholds returns the standing replacement policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RailCount:          55000,
		BrushFirstCount:    35000,
		BrushSecondCount:   70000,
		BodyCount:          100000,
		ForecastMonths:     15,
		BrushWarningMonths: 18,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.RailCount <= 0 {
		t.RailCount = d.RailCount
	}
	if t.BrushFirstCount <= 0 {
		t.BrushFirstCount = d.BrushFirstCount
	}
	if t.BrushSecondCount <= 0 {
		t.BrushSecondCount = d.BrushSecondCount
	}
	if t.BodyCount <= 0 {
		t.BodyCount = d.BodyCount
	}
	if t.ForecastMonths <= 0 {
		t.ForecastMonths = d.ForecastMonths
	}
	if t.BrushWarningMonths <= 0 {
		t.BrushWarningMonths = d.BrushWarningMonths
	}
	return t
}

// freshCounterFloor suppresses brush notices right after a counter reset;
// below this the months-based triggers would otherwise fire on units whose
// ledger restarted at zero.
const freshCounterFloor = 1000

// Result is the derived maintenance status for one unit.
type Result struct {
	Rail            PartStatus
	Brush           PartStatus
	Body            PartStatus
	MonthsSinceRail int
}

// Derive maps equipment facts plus the current cumulative count and usage
// rate to per-part status. Pure: same inputs, same output.
func Derive(eq equipmentdomain.Equipment, cumulativeCount, monthlyAverage int64, today time.Time, th Thresholds) Result {
	th = th.withDefaults()

	res := Result{
		Rail:            StatusNormal,
		Brush:           StatusNormal,
		Body:            StatusNormal,
		MonthsSinceRail: monthsSince(eq.RailReplacedAt, today),
	}

	// Rail: a recorded replacement date is the sole gate. Once set the rail
	// stays normal until a body install clears it again.
	if eq.RailReplacedAt == nil && cumulativeCount >= th.RailCount {
		res.Rail = StatusNotice
	}

	// Brush: staged thresholds apply to cloth brushes only, on count since
	// the last exchange or on elapsed months, whichever trips first.
	if eq.BrushType != equipmentdomain.BrushTypeCloth {
		res.Brush = StatusNotApplicable
	} else {
		countSince := cumulativeCount - eq.BrushReplacedCount
		if countSince < 0 {
			countSince = 0
		}
		months := monthsSince(eq.BrushReplacedAt, today)

		switch {
		case countSince >= th.BrushSecondCount || months >= th.BrushWarningMonths*2:
			res.Brush = StatusSecondNotice
		case countSince >= th.BrushFirstCount || months >= th.BrushWarningMonths:
			res.Brush = StatusFirstNotice
		}
		if cumulativeCount < freshCounterFloor {
			res.Brush = StatusNormal
		}
	}

	// Body: the January budget cycle looks ahead by the forecast horizon;
	// the rest of the year only the realised count triggers preparation.
	if today.Month() == time.January {
		forecast := cumulativeCount + monthlyAverage*int64(th.ForecastMonths)
		if forecast >= th.BodyCount {
			res.Body = StatusPrepare
		}
	} else if cumulativeCount >= th.BodyCount {
		res.Body = StatusPrepare
	}

	return res
}

// monthsSince returns the calendar-month difference between a recorded
// date and today, or zero when no valid date is recorded.
func monthsSince(from *time.Time, today time.Time) int {
	if from == nil || from.IsZero() {
		return 0
	}
	return (today.Year()-from.Year())*12 + int(today.Month()) - int(from.Month())
}
