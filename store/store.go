// Package store is the report persistence boundary: one atomic insert per
// completed run, listed newest first.
package store

import (
	"context"

	"cybershield/types"
)

// ReportStore persists completed-run reports.
type ReportStore interface {
	// Create persists the report and returns its assigned ID.
	Create(ctx context.Context, report types.Report) (int64, error)
	// List returns up to limit reports, newest first.
	List(ctx context.Context, limit int) ([]types.Report, error)
}
