package usage

import (
	"context"
	"time"

	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/period"
)

type Store interface {
	// UpsertReport replaces any existing report for the same (resource,
	// component, period) tuple. Last write wins.
	UpsertReport(ctx context.Context, r *Report) error
	GetReport(ctx context.Context, resourceID id.ResourceID, componentType string, p period.Period) (*Report, error)
	ListReports(ctx context.Context, resourceID id.ResourceID, p period.Period) ([]*Report, error)
	PurgeReports(ctx context.Context, before time.Time) (int64, error)
}
