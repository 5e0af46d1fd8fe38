package resource

import (
	"context"
	"time"

	"github.com/xraph/accrual/id"
)

type Store interface {
	Create(ctx context.Context, r *Resource) error
	Get(ctx context.Context, resourceID id.ResourceID) (*Resource, error)
	List(ctx context.Context, opts ListOpts) ([]*Resource, error)
	Update(ctx context.Context, r *Resource) error

	CreatePlanPeriod(ctx context.Context, pp *PlanPeriod) error
	GetActivePlanPeriod(ctx context.Context, resourceID id.ResourceID) (*PlanPeriod, error)
	ClosePlanPeriod(ctx context.Context, periodID id.PlanPeriodID, end time.Time) error
	ListPlanPeriods(ctx context.Context, resourceID id.ResourceID) ([]*PlanPeriod, error)
}

type ListOpts struct {
	CustomerID id.CustomerID
	State      State
	// Billable restricts the listing to states that accrue charges.
	Billable bool
	Limit    int
	Offset   int
}
