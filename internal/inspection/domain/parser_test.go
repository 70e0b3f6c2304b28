package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAliases = map[string]string{
	"Rinku Sennan": "RNK",
	"Sakai Minato": "SKI",
}

func TestParseReport_FullSheet(t *testing.T) {
	text := `Monthly inspection sheet
Site: Rinku Sennan   Visit: 2025/02/14
Wash counter left 28,450
Wash counter center 31200
Wash counter right 27980`

	report, err := ParseReport(text, testAliases)
	require.NoError(t, err)

	assert.Equal(t, "RNK", report.SiteCode)
	assert.Equal(t, "Rinku Sennan", report.SiteName)
	require.NotNil(t, report.VisitDate)
	assert.Equal(t, time.Date(2025, time.February, 14, 0, 0, 0, 0, time.UTC), *report.VisitDate)

	require.Len(t, report.Readings, 3)
	assert.Equal(t, Reading{Position: PositionLeft, Count: 28450}, report.Readings[0])
	assert.Equal(t, Reading{Position: PositionCenter, Count: 31200}, report.Readings[1])
	assert.Equal(t, Reading{Position: PositionRight, Count: 27980}, report.Readings[2])
}

func TestParseReport_DuplicateReadingsKeepLargest(t *testing.T) {
	// OCR often picks the same counter up twice with a dropped digit.
	text := `Sakai Minato inspection
left 3120
left 31200`

	report, err := ParseReport(text, testAliases)
	require.NoError(t, err)
	require.Len(t, report.Readings, 1)
	assert.Equal(t, int64(31200), report.Readings[0].Count)
}

func TestParseReport_UnknownSite(t *testing.T) {
	_, err := ParseReport("left 1000 at some new place", testAliases)
	assert.ErrorIs(t, err, ErrUnknownReportSite)
}

func TestParseReport_NoReadings(t *testing.T) {
	_, err := ParseReport("Rinku Sennan, visit 2025-02-14, no counters visible", testAliases)
	assert.ErrorIs(t, err, ErrNoReadings)
}

func TestParseReport_MissingDateIsNotAnError(t *testing.T) {
	report, err := ParseReport("Rinku Sennan center 5000", testAliases)
	require.NoError(t, err)
	assert.Nil(t, report.VisitDate)
}

func TestParseReport_CentreSpelling(t *testing.T) {
	report, err := ParseReport("Rinku Sennan centre 4200", testAliases)
	require.NoError(t, err)
	require.Len(t, report.Readings, 1)
	assert.Equal(t, PositionCenter, report.Readings[0].Position)
}
