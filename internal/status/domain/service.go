package domain

import (
	"context"
	"errors"
)

type Service interface {
	// Refresh recomputes every snapshot from the equipment registry and the
	// usage ledger and replaces the cache in one bulk write. Returns the
	// number of snapshots written.
	Refresh(ctx context.Context) (int, error)
	List(ctx context.Context) ([]Snapshot, error)
	Get(ctx context.Context, siteCode, unitID string) (*Snapshot, error)
}

var ErrSnapshotNotFound = errors.New("snapshot_not_found")
