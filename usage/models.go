package usage

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/period"
	"github.com/xraph/accrual/types"
)

// Report is the stored usage total for one (resource, component, billing
// period) tuple. Reporting agents send cumulative totals, not deltas, so
// a new report for the same tuple replaces the previous one.
type Report struct {
	types.Entity
	ID            id.UsageReportID `json:"id"`
	ResourceID    id.ResourceID    `json:"resource_id"`
	ComponentType string           `json:"component_type"`
	PlanPeriodID  id.PlanPeriodID  `json:"plan_period_id"`
	Amount        decimal.Decimal  `json:"amount"`
	Period        period.Period    `json:"period"`
	// RecordedAt is the day within the period the total was measured on.
	RecordedAt time.Time `json:"recorded_at"`
}

// Event is one raw usage measurement queued for asynchronous ingestion.
// The flush worker folds events into Reports per billing period.
type Event struct {
	ResourceID    id.ResourceID   `json:"resource_id"`
	ComponentType string          `json:"component_type"`
	Amount        decimal.Decimal `json:"amount"`
	RecordedAt    time.Time       `json:"recorded_at"`
}
