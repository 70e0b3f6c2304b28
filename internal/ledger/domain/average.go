package domain

import (
	"math"
	"sort"
)

// trailingIncrements is how many month-over-month increments feed the
// usage-rate estimate.
const trailingIncrements = 12

// MonthlyAverage estimates a unit's monthly usage rate from its ledger.
// It averages the trailing positive cumulative increments; non-positive
// increments are corrections or reinstallation resets, not usage, and are
// skipped. With fewer than two records the single daily count stands in
// for the rate, or zero when the ledger is empty.
func MonthlyAverage(records []UsageRecord) int64 {
	if len(records) == 0 {
		return 0
	}
	if len(records) == 1 {
		return records[0].DailyCount
	}

	sorted := make([]UsageRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Period < sorted[j].Period })

	var increments []int64
	for i := 1; i < len(sorted); i++ {
		delta := sorted[i].CumulativeCount - sorted[i-1].CumulativeCount
		if delta <= 0 {
			continue
		}
		increments = append(increments, delta)
	}
	if len(increments) == 0 {
		return sorted[len(sorted)-1].DailyCount
	}
	if len(increments) > trailingIncrements {
		increments = increments[len(increments)-trailingIncrements:]
	}

	var sum int64
	for _, d := range increments {
		sum += d
	}
	return int64(math.Round(float64(sum) / float64(len(increments))))
}
