package domain

import (
	"context"
	"time"
)

// UnitResult is the reconciliation outcome for one counter on one report.
type UnitResult struct {
	SiteCode   string
	SiteName   string
	UnitID     string
	VisitDate  *time.Time
	Comparison Comparison
}

// FileResult covers one inbox file end to end.
type FileResult struct {
	File    string
	Skipped string
	Results []UnitResult
}

// Service drives the inspection-report pipeline: pick up PDFs from the inbox
// directory, reconcile their counter readings against the latest snapshots,
// archive the files and notify on anomalies.
type Service interface {
	ProcessInbox(ctx context.Context) ([]FileResult, error)
}
