package accrual

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/accrual/customer"
	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/invoice"
	"github.com/xraph/accrual/period"
	"github.com/xraph/accrual/resource"
)

// RunRecalculation walks all billing state and reconciles invoices with
// it: elapsed pending invoices are closed out and finalized, still
// active resources are rolled into the current month, usage reports are
// re-applied, and cached totals recomputed. Every step is a pure
// function of persisted inputs, so the run is idempotent and safe to
// re-run or interrupt at any time.
//
// A failure in one customer's unit of work never aborts the others; the
// collected failures are returned as a MultiError.
func (e *Engine) RunRecalculation(ctx context.Context) error {
	started := time.Now()
	now := e.now()
	current := period.Of(now)

	var merr MultiError

	// Close out and finalize invoices whose month has fully elapsed.
	pending, err := e.store.ListPendingInvoices(ctx)
	if err != nil {
		return err
	}
	for _, inv := range pending {
		if !inv.Period().Before(current) {
			continue
		}
		if err := e.rollOverInvoice(ctx, inv); err != nil {
			merr.Add(fmt.Errorf("roll over invoice %s: %w", inv.ID, err))
		}
	}

	// Reconcile every customer's current month.
	customers, err := e.store.ListCustomers(ctx, customer.ListOpts{})
	if err != nil {
		return err
	}
	for _, cust := range customers {
		if err := e.recalcCustomer(ctx, cust, current); err != nil {
			merr.Add(fmt.Errorf("recalculate customer %s: %w", cust.ID, err))
			e.logger.Error("customer recalculation failed",
				"customer_id", cust.ID,
				"error", err,
			)
		}
	}

	elapsed := time.Since(started)
	e.plugins.EmitRecalcCompleted(ctx, len(customers), len(merr.Errors), elapsed)

	e.logger.Debug("recalculation finished",
		"customers", len(customers),
		"failures", len(merr.Errors),
		"elapsed_ms", elapsed.Milliseconds(),
	)

	return merr.ErrOrNil()
}

// rollOverInvoice closes the invoice's still open items at its month end
// and finalizes it. Resources still active get fresh items in the
// current month the next time their customer is reconciled.
func (e *Engine) rollOverInvoice(ctx context.Context, inv *invoice.Invoice) error {
	items, err := e.store.ListInvoiceItems(ctx, inv.ID)
	if err != nil {
		return err
	}

	monthEnd := inv.Period().End()
	for _, item := range items {
		if !item.IsOpen() {
			continue
		}
		if err := e.closeItem(ctx, item, monthEnd); err != nil {
			return err
		}
	}

	if err := e.recalcInvoiceTotals(ctx, inv.ID); err != nil {
		return err
	}
	return e.finalizeInvoice(ctx, inv.ID)
}

// recalcCustomer reconciles one customer's current month invoice: every
// billable resource has an open item set, and usage reports are
// re-applied from the stored set.
func (e *Engine) recalcCustomer(ctx context.Context, cust *customer.Customer, current period.Period) error {
	resources, err := e.store.ListResources(ctx, resource.ListOpts{
		CustomerID: cust.ID,
		Billable:   true,
	})
	if err != nil {
		return err
	}
	if len(resources) == 0 {
		return nil
	}

	inv, _, err := e.registerInvoice(ctx, cust, current)
	if err != nil {
		return err
	}
	if inv.State.Finalized() {
		// The month was finalized early; new activity belongs to the
		// next reconciliation of the following month.
		return nil
	}

	items, err := e.store.ListInvoiceItems(ctx, inv.ID)
	if err != nil {
		return err
	}
	hasOpenItem := make(map[id.ResourceID]bool)
	for _, item := range items {
		if item.Scope.Kind == invoice.ScopeResource && item.IsOpen() {
			hasOpenItem[item.Scope.ID] = true
		}
	}

	for _, res := range resources {
		if !hasOpenItem[res.ID] {
			// A resource that became billable mid-month accrues from
			// its plan period start, not the month boundary.
			start := current.Start()
			if pp, err := e.store.GetActivePlanPeriod(ctx, res.ID); err == nil {
				if pp.Start.After(start) {
					start = pp.Start
				}
			} else if !IsNotFound(err) && !errors.Is(err, ErrNoPlanPeriod) {
				return err
			}
			if err := e.registerResource(ctx, res, start, false); err != nil {
				return err
			}
		}

		reports, err := e.store.ListUsageReports(ctx, res.ID, current)
		if err != nil {
			return err
		}
		for _, report := range reports {
			if err := e.applyUsageReport(ctx, res, report); err != nil {
				return err
			}
		}
	}

	return e.recalcInvoiceTotals(ctx, inv.ID)
}

// FinalizeMonth closes out all pending invoices of the given month,
// setting their items' ends to the month boundary and moving the
// invoices to the created state.
func (e *Engine) FinalizeMonth(ctx context.Context, p period.Period) error {
	invoices, err := e.store.ListInvoices(ctx, invoice.ListOpts{
		State: invoice.StatePending,
		Year:  p.Year,
		Month: int(p.Month),
	})
	if err != nil {
		return err
	}

	var merr MultiError
	for _, inv := range invoices {
		if err := e.rollOverInvoice(ctx, inv); err != nil {
			merr.Add(fmt.Errorf("finalize invoice %s: %w", inv.ID, err))
		}
	}
	return merr.ErrOrNil()
}

// finalizeInvoice moves a pending invoice to the created state and
// stamps its number and dates. Its items are immutable from here on.
func (e *Engine) finalizeInvoice(ctx context.Context, invID id.InvoiceID) error {
	inv, err := e.store.GetInvoice(ctx, invID)
	if err != nil {
		return err
	}
	if !inv.State.CanTransitionTo(invoice.StateCreated) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, inv.State, invoice.StateCreated)
	}

	now := e.now()
	due := now.AddDate(0, 0, e.paymentTermDays)
	inv.State = invoice.StateCreated
	inv.Number = inv.GenerateNumber()
	inv.InvoiceDate = &now
	inv.DueDate = &due
	inv.Touch()

	if err := e.store.UpdateInvoice(ctx, inv); err != nil {
		return err
	}

	e.logger.Info("invoice finalized",
		"invoice_id", inv.ID,
		"number", inv.Number,
		"total", inv.TotalPrice,
	)
	e.plugins.EmitInvoiceFinalized(ctx, inv)
	return nil
}

// MarkInvoicePaid moves a created invoice to the paid state.
func (e *Engine) MarkInvoicePaid(ctx context.Context, invID id.InvoiceID) error {
	inv, err := e.store.GetInvoice(ctx, invID)
	if err != nil {
		return err
	}
	if inv.State == invoice.StatePaid {
		return ErrInvoicePaid
	}
	if !inv.State.CanTransitionTo(invoice.StatePaid) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, inv.State, invoice.StatePaid)
	}

	now := e.now()
	inv.State = invoice.StatePaid
	inv.PaidAt = &now
	inv.Touch()

	if err := e.store.UpdateInvoice(ctx, inv); err != nil {
		return err
	}

	e.plugins.EmitInvoicePaid(ctx, inv)
	return nil
}

// CancelInvoice cancels a pending or created invoice.
func (e *Engine) CancelInvoice(ctx context.Context, invID id.InvoiceID, reason string) error {
	inv, err := e.store.GetInvoice(ctx, invID)
	if err != nil {
		return err
	}
	if !inv.State.CanTransitionTo(invoice.StateCanceled) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, inv.State, invoice.StateCanceled)
	}

	inv.State = invoice.StateCanceled
	inv.Touch()

	if err := e.store.UpdateInvoice(ctx, inv); err != nil {
		return err
	}

	e.plugins.EmitInvoiceCanceled(ctx, inv, reason)
	return nil
}

// recalcInvoiceTotals recomputes the invoice's cached aggregates from
// its full item set, quantized once at the sum.
func (e *Engine) recalcInvoiceTotals(ctx context.Context, invID id.InvoiceID) error {
	inv, err := e.store.GetInvoice(ctx, invID)
	if err != nil {
		return err
	}
	items, err := e.store.ListInvoiceItems(ctx, invID)
	if err != nil {
		return err
	}

	inv.Items = make([]invoice.Item, len(items))
	for i, item := range items {
		inv.Items[i] = *item
	}
	inv.TotalPrice = inv.Price()
	inv.TotalCurrent = inv.PriceCurrent(e.now())
	inv.Touch()

	return e.store.UpdateInvoice(ctx, inv)
}
