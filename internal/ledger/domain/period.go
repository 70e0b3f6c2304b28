package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Periods are calendar months in "2006-01" form. The string form sorts
// chronologically and is independent of time zones, which matters because
// submissions arrive from sites in arbitrary locales.

var periodPattern = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})$`)

// NormalizePeriod parses a period string and returns it in canonical
// "2006-01" form.
func NormalizePeriod(raw string) (string, error) {
	m := periodPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", ErrInvalidPeriod
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return "", ErrInvalidPeriod
	}
	return fmt.Sprintf("%04d-%02d", year, month), nil
}

// PeriodIndex maps a canonical period to a monotonic month number, so
// chronological comparisons are plain integer comparisons.
func PeriodIndex(period string) (int, error) {
	m := periodPattern.FindStringSubmatch(period)
	if m == nil {
		return 0, ErrInvalidPeriod
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return 0, ErrInvalidPeriod
	}
	return year*12 + (month - 1), nil
}

// PeriodOf returns the canonical period containing t.
func PeriodOf(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// MonthIndexOf returns the monotonic month number containing t.
func MonthIndexOf(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}
