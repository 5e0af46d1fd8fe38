package accrual

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/invoice"
	"github.com/xraph/accrual/period"
	"github.com/xraph/accrual/plan"
	"github.com/xraph/accrual/pricing"
	"github.com/xraph/accrual/resource"
	"github.com/xraph/accrual/types"
	"github.com/xraph/accrual/usage"
)

// ReportUsage records a cumulative usage total for one resource
// component (non-blocking). Reporting agents send running totals for the
// billing period, not deltas; a later report for the same period
// replaces the earlier one.
func (e *Engine) ReportUsage(ctx context.Context, resourceID id.ResourceID, componentType string, amount decimal.Decimal, recordedAt time.Time) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	event := &usage.Event{
		ResourceID:    resourceID,
		ComponentType: componentType,
		Amount:        amount,
		RecordedAt:    recordedAt.UTC(),
	}

	select {
	case e.usageBuffer <- event:
		return nil
	default:
		return ErrUsageBufferFull
	}
}

// usageFlushWorker drains the usage buffer into the store in batches.
func (e *Engine) usageFlushWorker(ctx context.Context) {
	defer e.wg.Done()

	batch := make([]*usage.Event, 0, e.usageBatchSize)
	ticker := time.NewTicker(e.usageFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			// Final flush
			if len(batch) > 0 {
				e.flushUsageBatch(ctx, batch)
			}
			return

		case event := <-e.usageBuffer:
			batch = append(batch, event)
			if len(batch) >= e.usageBatchSize {
				e.flushUsageBatch(ctx, batch)
				batch = make([]*usage.Event, 0, e.usageBatchSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				e.flushUsageBatch(ctx, batch)
				batch = make([]*usage.Event, 0, e.usageBatchSize)
			}
		}
	}
}

func (e *Engine) flushUsageBatch(ctx context.Context, batch []*usage.Event) {
	start := time.Now()

	var failed int
	for _, event := range batch {
		if err := e.ingestUsageEvent(ctx, event); err != nil {
			failed++
			e.logger.Error("failed to ingest usage event",
				"resource_id", event.ResourceID,
				"component_type", event.ComponentType,
				"error", err,
			)
		}
	}

	elapsed := time.Since(start)
	e.plugins.EmitUsageFlushed(ctx, len(batch)-failed, elapsed)

	e.logger.Debug("flushed usage batch",
		"batch_size", len(batch),
		"failed", failed,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ingestUsageEvent persists one usage event as the period's report and
// folds it into the month's invoice.
func (e *Engine) ingestUsageEvent(ctx context.Context, event *usage.Event) error {
	res, err := e.store.GetResource(ctx, event.ResourceID)
	if err != nil {
		return err
	}

	report := &usage.Report{
		Entity:        types.NewEntity(),
		ID:            id.NewUsageReportID(),
		ResourceID:    res.ID,
		ComponentType: event.ComponentType,
		Amount:        event.Amount,
		Period:        period.Of(event.RecordedAt),
		RecordedAt:    event.RecordedAt,
	}
	if pp, err := e.store.GetActivePlanPeriod(ctx, res.ID); err == nil {
		report.PlanPeriodID = pp.ID
	}

	if err := e.store.UpsertUsageReport(ctx, report); err != nil {
		return err
	}

	return e.applyUsageReport(ctx, res, report)
}

// applyUsageReport upserts the invoice item derived from one usage
// report. The item's quantity is always the report's converted amount,
// never a running sum, so re-applying reports is idempotent.
func (e *Engine) applyUsageReport(ctx context.Context, res *resource.Resource, report *usage.Report) error {
	comp, err := e.store.GetComponent(ctx, res.OfferingID, report.ComponentType)
	if err != nil {
		return err
	}
	if comp.BillingType != plan.BillingUsage {
		// Only usage components bill from reports.
		return nil
	}

	pl, err := e.store.GetPlan(ctx, res.PlanID)
	if err != nil {
		return err
	}
	pc := pl.FindComponent(comp.Type)
	if pc == nil {
		e.logger.Warn("plan has no price for component, usage charge skipped",
			"resource_id", res.ID,
			"plan_id", pl.ID,
			"component_type", comp.Type,
		)
		e.plugins.EmitComponentSkipped(ctx, res.ID.String(), comp.Type)
		return nil
	}

	cust, err := e.store.GetCustomer(ctx, res.CustomerID)
	if err != nil {
		return err
	}
	inv, _, err := e.registerInvoice(ctx, cust, report.Period)
	if err != nil {
		return err
	}
	if inv.State.Finalized() {
		return ErrInvoiceFinalized
	}

	qty := pricing.UsageQuantity(comp, report.Amount)

	items, err := e.store.ListInvoiceItems(ctx, inv.ID)
	if err != nil {
		return err
	}
	var existing *invoice.Item
	for _, item := range items {
		if item.Scope.Kind == invoice.ScopeResource && item.Scope.ID == res.ID &&
			item.Details.BillingType == plan.BillingUsage &&
			item.Details.ComponentType == comp.Type {
			existing = item
			break
		}
	}

	if existing != nil {
		existing.Quantity = qty
		existing.Touch()
		if err := e.store.UpdateInvoiceItem(ctx, existing); err != nil {
			return err
		}
	} else {
		end := report.Period.End()
		item := &invoice.Item{
			Entity:    types.NewEntity(),
			ID:        id.NewInvoiceItemID(),
			InvoiceID: inv.ID,
			Scope:     invoice.Scope{Kind: invoice.ScopeResource, ID: res.ID},
			Name:      res.Name + " (" + comp.Name + ")",
			Details: invoice.Details{
				PlanName:        pl.Name,
				ComponentType:   comp.Type,
				ComponentName:   comp.Name,
				BillingType:     comp.BillingType,
				PlanComponentID: pc.ID,
			},
			Unit:         plan.UnitQuantity,
			UnitPrice:    pc.Price,
			Quantity:     qty,
			MeasuredUnit: comp.MeasuredUnit,
			Start:        report.Period.Start(),
			End:          &end,
			ProjectID:    res.ProjectID,
			ProjectName:  res.ProjectName,
		}
		if err := e.store.CreateInvoiceItem(ctx, item); err != nil {
			return err
		}
		e.plugins.EmitItemRegistered(ctx, item)
	}

	if err := e.recalcInvoiceTotals(ctx, inv.ID); err != nil {
		return err
	}

	e.plugins.EmitUsageApplied(ctx, report)
	return nil
}
