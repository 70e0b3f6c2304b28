package domain

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Position identifies one counter on an inspection sheet. Inspection sheets
// report the machine lanes by position rather than by unit id, so positions
// double as unit ids after normalization.
type Position string

const (
	PositionLeft   Position = "left"
	PositionCenter Position = "center"
	PositionRight  Position = "right"
)

// Reading is one counter value lifted from a report.
type Reading struct {
	Position Position
	Count    int64
}

// Report is the structured form of one inspection sheet.
type Report struct {
	SiteCode  string
	SiteName  string
	VisitDate *time.Time
	Readings  []Reading
}

var (
	ErrUnknownReportSite = errors.New("unknown_report_site")
	ErrNoReadings        = errors.New("no_readings")
)

var (
	visitDateRe = regexp.MustCompile(`(\d{4})[/.-](\d{1,2})[/.-](\d{1,2})`)
	readingRe   = regexp.MustCompile(`(?i)\b(left|center|centre|right)\b\D{0,24}?([0-9][0-9,]{2,})`)
)

// ParseReport extracts site, visit date and per-position counter readings
// from raw extracted PDF text. Site resolution walks the alias map looking
// for a substring hit; OCR text is noisy, so duplicate readings for the same
// position are collapsed keeping the largest value.
func ParseReport(text string, siteAliases map[string]string) (*Report, error) {
	report := &Report{}

	for alias, code := range siteAliases {
		if alias == "" {
			continue
		}
		if strings.Contains(text, alias) {
			report.SiteCode = code
			report.SiteName = alias
			break
		}
	}
	if report.SiteCode == "" {
		return nil, ErrUnknownReportSite
	}

	if m := visitDateRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
			report.VisitDate = &d
		}
	}

	best := make(map[Position]int64)
	for _, m := range readingRe.FindAllStringSubmatch(text, -1) {
		pos := normalizePosition(m[1])
		count, err := strconv.ParseInt(strings.ReplaceAll(m[2], ",", ""), 10, 64)
		if err != nil {
			continue
		}
		if prev, ok := best[pos]; !ok || count > prev {
			best[pos] = count
		}
	}
	for _, pos := range []Position{PositionLeft, PositionCenter, PositionRight} {
		if count, ok := best[pos]; ok {
			report.Readings = append(report.Readings, Reading{Position: pos, Count: count})
		}
	}
	if len(report.Readings) == 0 {
		return nil, ErrNoReadings
	}

	return report, nil
}

func normalizePosition(raw string) Position {
	switch strings.ToLower(raw) {
	case "left":
		return PositionLeft
	case "right":
		return PositionRight
	default:
		return PositionCenter
	}
}
