package domain

import (
	"math"
	"time"
)

// Classification labels the outcome of comparing a field report against
// the ledger prediction.
type Classification string

const (
	Normal             Classification = "normal"
	ReportTooHigh      Classification = "report_too_high"
	ReportTooLow       Classification = "report_too_low"
	ReportPossiblyStale Classification = "report_possibly_stale"
	NoBaselineData     Classification = "no_baseline_data"
)

// IsAnomaly reports whether the classification warrants notifying a person.
// A possibly stale report is surfaced in logs only.
func (c Classification) IsAnomaly() bool {
	return c == ReportTooHigh || c == ReportTooLow
}

// Baseline is the ledger-side view of a unit used to predict what the
// field counter should read at the reference date.
type Baseline struct {
	CumulativeCount int64
	MonthlyAverage  int64
}

// Comparison is the full result of reconciling one reported counter.
type Comparison struct {
	Reported       int64
	Predicted      *int64
	Diff           *int64
	Classification Classification
}

// ReferenceDate returns the last day of the month before now. Reports are
// reconciled against the ledger as of the most recently closed month.
func ReferenceDate(now time.Time) time.Time {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return firstOfMonth.AddDate(0, 0, -1)
}

// Reconcile compares a reported counter value against the prediction derived
// from the ledger baseline.
//
// When the report is dated on or before the reference date the ledger value
// is used directly. When it is dated after, the prediction extrapolates the
// monthly average over the elapsed days. An undated report is assumed to be
// roughly half a month newer than the reference date.
func Reconcile(reported int64, reportDate *time.Time, baseline *Baseline, referenceDate time.Time, toleranceMonths float64) Comparison {
	if baseline == nil {
		return Comparison{Reported: reported, Classification: NoBaselineData}
	}

	var predicted int64
	switch {
	case reportDate == nil:
		predicted = baseline.CumulativeCount + int64(math.Round(float64(baseline.MonthlyAverage)*1.5))
	case !reportDate.After(referenceDate):
		predicted = baseline.CumulativeCount
	default:
		days := reportDate.Sub(referenceDate).Hours() / 24
		predicted = baseline.CumulativeCount + int64(math.Round(float64(baseline.MonthlyAverage)*days/30))
	}

	diff := reported - predicted
	threshold := int64(math.Round(float64(baseline.MonthlyAverage) * toleranceMonths))

	cls := Normal
	switch {
	case diff > threshold:
		cls = ReportTooHigh
	case diff < -threshold:
		if reported < baseline.CumulativeCount {
			cls = ReportPossiblyStale
		} else {
			cls = ReportTooLow
		}
	}

	return Comparison{
		Reported:       reported,
		Predicted:      &predicted,
		Diff:           &diff,
		Classification: cls,
	}
}
