package domain

import (
	"fmt"
	"strings"
	"time"
)

// SubsidyNotice warns that replacing a unit's body before the subsidy lock
// expires may trigger a repayment obligation.
type SubsidyNotice struct {
	SiteName    string    `json:"site_name"`
	InstalledAt time.Time `json:"installed_at"`
	LockEndsAt  time.Time `json:"lock_ends_at"`
	Message     string    `json:"message"`
}

// CheckSubsidy returns a notice when the site is on the subsidy list
// (substring match against the site name) and the lock-in window since the
// body install has not yet elapsed. Nil otherwise.
func CheckSubsidy(siteName string, installedAt *time.Time, subsidySites []string, lockYears int, today time.Time) *SubsidyNotice {
	if installedAt == nil || installedAt.IsZero() || lockYears <= 0 {
		return nil
	}

	matched := false
	for _, target := range subsidySites {
		if target != "" && strings.Contains(siteName, target) {
			matched = true
			break
		}
	}
	if !matched {
		return nil
	}

	lockEnd := installedAt.AddDate(lockYears, 0, 0)
	if !today.Before(lockEnd) {
		return nil
	}

	return &SubsidyNotice{
		SiteName:    siteName,
		InstalledAt: *installedAt,
		LockEndsAt:  lockEnd,
		Message: fmt.Sprintf(
			"subsidy lock: installed %s, replacement restricted until %s (%d-year obligation)",
			installedAt.Format("2006-01-02"), lockEnd.Format("2006-01-02"), lockYears,
		),
	}
}
