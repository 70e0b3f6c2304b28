package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func usage(period string, daily, cumulative int64) UsageRecord {
	return UsageRecord{SiteCode: "OSK", UnitID: "1", Period: period, DailyCount: daily, CumulativeCount: cumulative}
}

func TestMonthlyAverage_Empty(t *testing.T) {
	assert.Zero(t, MonthlyAverage(nil))
}

func TestMonthlyAverage_SingleRecordFallsBackToDaily(t *testing.T) {
	avg := MonthlyAverage([]UsageRecord{usage("2024-01", 1200, 1200)})
	assert.Equal(t, int64(1200), avg)
}

func TestMonthlyAverage_MeanOfIncrements(t *testing.T) {
	avg := MonthlyAverage([]UsageRecord{
		usage("2024-01", 1000, 1000),
		usage("2024-02", 1400, 2400),
		usage("2024-03", 1100, 3500),
	})
	// increments 1400 and 1100
	assert.Equal(t, int64(1250), avg)
}

func TestMonthlyAverage_SkipsResets(t *testing.T) {
	avg := MonthlyAverage([]UsageRecord{
		usage("2024-01", 1000, 50000),
		usage("2024-02", 1200, 51200),
		usage("2024-03", 900, 900), // reinstall reset
		usage("2024-04", 1000, 1900),
	})
	// deltas: +1200, -50300 (skipped), +1000
	assert.Equal(t, int64(1100), avg)
}

func TestMonthlyAverage_UnsortedInput(t *testing.T) {
	avg := MonthlyAverage([]UsageRecord{
		usage("2024-03", 1100, 3500),
		usage("2024-01", 1000, 1000),
		usage("2024-02", 1400, 2400),
	})
	assert.Equal(t, int64(1250), avg)
}

func TestMonthlyAverage_KeepsOnlyTrailingTwelve(t *testing.T) {
	records := []UsageRecord{usage("2022-01", 0, 0)}
	cum := int64(0)
	// 5 old months at 10000/month, then 12 recent months at 1000/month.
	for m := 2; m <= 6; m++ {
		cum += 10000
		records = append(records, usage(fmt.Sprintf("2022-%02d", m), 10000, cum))
	}
	for m := 7; m <= 12; m++ {
		cum += 1000
		records = append(records, usage(fmt.Sprintf("2022-%02d", m), 1000, cum))
	}
	for m := 1; m <= 6; m++ {
		cum += 1000
		records = append(records, usage(fmt.Sprintf("2023-%02d", m), 1000, cum))
	}
	assert.Equal(t, int64(1000), MonthlyAverage(records))
}

func TestMonthlyAverage_NoPositiveIncrements(t *testing.T) {
	avg := MonthlyAverage([]UsageRecord{
		usage("2024-01", 500, 500),
		usage("2024-02", 400, 400),
	})
	assert.Equal(t, int64(400), avg)
}
