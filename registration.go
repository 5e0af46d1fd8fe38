package accrual

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/accrual/customer"
	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/invoice"
	"github.com/xraph/accrual/period"
	"github.com/xraph/accrual/plan"
	"github.com/xraph/accrual/pricing"
	"github.com/xraph/accrual/resource"
	"github.com/xraph/accrual/types"
)

// registerInvoice finds or creates the customer's invoice for the given
// month. Safe under concurrent callers: the storage layer enforces
// uniqueness of (customer, year, month), and a create that loses the
// race falls back to re-fetching the winner's row.
func (e *Engine) registerInvoice(ctx context.Context, cust *customer.Customer, p period.Period) (*invoice.Invoice, bool, error) {
	inv, err := e.store.GetInvoiceByPeriod(ctx, cust.ID, p)
	if err == nil {
		return inv, false, nil
	}
	if !IsNotFound(err) {
		return nil, false, err
	}

	inv = &invoice.Invoice{
		Entity:       types.NewEntity(),
		ID:           id.NewInvoiceID(),
		CustomerID:   cust.ID,
		Year:         p.Year,
		Month:        p.Month,
		State:        invoice.StatePending,
		Currency:     cust.Currency,
		TaxPercent:   cust.TaxPercent,
		TotalPrice:   types.Zero(cust.Currency),
		TotalCurrent: types.Zero(cust.Currency),
	}

	if err := e.store.CreateInvoice(ctx, inv); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			existing, ferr := e.store.GetInvoiceByPeriod(ctx, cust.ID, p)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	e.logger.Debug("invoice created",
		"customer_id", cust.ID,
		"period", p,
	)
	e.plugins.EmitInvoiceCreated(ctx, inv)
	return inv, true, nil
}

// OnResourceActivated is the entry point for a resource entering the OK
// state. It opens the resource's plan period and registers invoice items
// in the current month's invoice.
func (e *Engine) OnResourceActivated(ctx context.Context, resourceID id.ResourceID, at time.Time) error {
	at = at.UTC()
	res, err := e.store.GetResource(ctx, resourceID)
	if err != nil {
		return err
	}
	if res.State == resource.StateOK {
		// A duplicate activation would open a second plan period and
		// bill the resource's components twice on the same invoice.
		return fmt.Errorf("%w: resource is already active", ErrInvalidState)
	}
	if !res.State.CanTransitionTo(resource.StateOK) {
		return fmt.Errorf("%w: %s cannot activate", ErrInvalidState, res.State)
	}

	res.State = resource.StateOK
	res.Touch()
	if err := e.store.UpdateResource(ctx, res); err != nil {
		return err
	}

	pp := &resource.PlanPeriod{
		Entity:     types.NewEntity(),
		ID:         id.NewPlanPeriodID(),
		ResourceID: res.ID,
		PlanID:     res.PlanID,
		Start:      at,
	}
	if err := e.store.CreatePlanPeriod(ctx, pp); err != nil {
		return err
	}

	if err := e.registerResource(ctx, res, at, true); err != nil {
		e.logger.Error("failed to register activated resource",
			"resource_id", res.ID,
			"error", err,
		)
		return err
	}

	e.plugins.EmitResourceActivated(ctx, res)
	return nil
}

// OnResourceTerminated is the entry point for resource termination. The
// open plan period and all open invoice items are closed at the
// termination instant and quantities recomputed over the final window.
func (e *Engine) OnResourceTerminated(ctx context.Context, resourceID id.ResourceID, at time.Time) error {
	at = at.UTC()
	res, err := e.store.GetResource(ctx, resourceID)
	if err != nil {
		return err
	}
	if res.State != resource.StateTerminating && !res.State.CanTransitionTo(resource.StateTerminating) {
		return fmt.Errorf("%w: %s cannot terminate", ErrInvalidState, res.State)
	}

	if pp, err := e.store.GetActivePlanPeriod(ctx, res.ID); err == nil {
		if err := e.store.ClosePlanPeriod(ctx, pp.ID, at); err != nil {
			return err
		}
	} else if !IsNotFound(err) && !errors.Is(err, ErrNoPlanPeriod) {
		return err
	}

	if err := e.closeResourceItems(ctx, res, at); err != nil {
		e.logger.Error("failed to close invoice items on termination",
			"resource_id", res.ID,
			"error", err,
		)
		return err
	}

	// The external terminating hop collapses here; billing only needs
	// the terminal state.
	res.State = resource.StateTerminated
	res.Touch()
	if err := e.store.UpdateResource(ctx, res); err != nil {
		return err
	}

	e.plugins.EmitResourceTerminated(ctx, res)
	return nil
}

// OnPlanChanged is the entry point for a mid-month plan switch. The open
// item is closed at the change instant and a new item opened immediately
// after under the new plan, on the same invoice.
func (e *Engine) OnPlanChanged(ctx context.Context, resourceID id.ResourceID, newPlanID id.PlanID, at time.Time) error {
	at = at.UTC()
	res, err := e.store.GetResource(ctx, resourceID)
	if err != nil {
		return err
	}
	if !res.State.Billable() {
		return ErrNotBillable
	}

	newPlan, err := e.store.GetPlan(ctx, newPlanID)
	if err != nil {
		return err
	}
	if newPlan.IsArchived() {
		return ErrPlanArchived
	}

	if pp, err := e.store.GetActivePlanPeriod(ctx, res.ID); err == nil {
		if err := e.store.ClosePlanPeriod(ctx, pp.ID, at); err != nil {
			return err
		}
	} else if !IsNotFound(err) && !errors.Is(err, ErrNoPlanPeriod) {
		return err
	}
	if err := e.closeResourceItems(ctx, res, at); err != nil {
		return err
	}

	oldPlanID := res.PlanID
	res.PlanID = newPlanID
	res.Touch()
	if err := e.store.UpdateResource(ctx, res); err != nil {
		return err
	}

	pp := &resource.PlanPeriod{
		Entity:     types.NewEntity(),
		ID:         id.NewPlanPeriodID(),
		ResourceID: res.ID,
		PlanID:     newPlanID,
		Start:      at,
	}
	if err := e.store.CreatePlanPeriod(ctx, pp); err != nil {
		return err
	}

	if err := e.registerResource(ctx, res, at, false); err != nil {
		return err
	}

	e.plugins.EmitPlanChanged(ctx, res, oldPlanID.String(), newPlanID.String())
	return nil
}

// OnLimitsChanged is the entry point for a change of a resource's
// requested limits. Limit-billed items in the current pending invoice
// are updated to the new quantities.
func (e *Engine) OnLimitsChanged(ctx context.Context, resourceID id.ResourceID, limits map[string]int64, at time.Time) error {
	at = at.UTC()
	res, err := e.store.GetResource(ctx, resourceID)
	if err != nil {
		return err
	}
	if !res.State.Billable() {
		return ErrNotBillable
	}

	res.Limits = limits
	res.Touch()
	if err := e.store.UpdateResource(ctx, res); err != nil {
		return err
	}

	cust, err := e.store.GetCustomer(ctx, res.CustomerID)
	if err != nil {
		return err
	}
	inv, _, err := e.registerInvoice(ctx, cust, period.Of(at))
	if err != nil {
		return err
	}
	if inv.State.Finalized() {
		return ErrInvoiceFinalized
	}

	items, err := e.store.ListInvoiceItems(ctx, inv.ID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Scope.Kind != invoice.ScopeResource || item.Scope.ID != res.ID {
			continue
		}
		if item.Details.BillingType != plan.BillingLimit || !item.IsOpen() {
			continue
		}
		comp, err := e.store.GetComponent(ctx, res.OfferingID, item.Details.ComponentType)
		if err != nil {
			return err
		}
		item.Quantity = pricing.UsageQuantity(comp, decimal.NewFromInt(limits[comp.Type]))
		item.Touch()
		if err := e.store.UpdateInvoiceItem(ctx, item); err != nil {
			return err
		}
	}

	return e.recalcInvoiceTotals(ctx, inv.ID)
}

// registerResource opens invoice items for all billable components of
// the resource's current plan, starting at the given instant. One-time
// components are charged only on first activation.
func (e *Engine) registerResource(ctx context.Context, res *resource.Resource, start time.Time, activation bool) error {
	cust, err := e.store.GetCustomer(ctx, res.CustomerID)
	if err != nil {
		return err
	}
	inv, _, err := e.registerInvoice(ctx, cust, period.Of(start))
	if err != nil {
		return err
	}
	if inv.State.Finalized() {
		return ErrInvoiceFinalized
	}

	pl, err := e.store.GetPlan(ctx, res.PlanID)
	if err != nil {
		return err
	}
	components, err := e.store.ListComponents(ctx, res.OfferingID)
	if err != nil {
		return err
	}

	for _, comp := range components {
		if err := e.registerComponent(ctx, inv, res, pl, comp, start, activation); err != nil {
			return err
		}
	}

	return e.recalcInvoiceTotals(ctx, inv.ID)
}

// registerComponent opens a single invoice item for one component, or
// skips it when the plan carries no price for it.
func (e *Engine) registerComponent(ctx context.Context, inv *invoice.Invoice, res *resource.Resource, pl *plan.Plan, comp *plan.Component, start time.Time, activation bool) error {
	if comp.BillingType == plan.BillingUsage {
		// Usage components get items when usage is reported.
		return nil
	}
	if comp.BillingType == plan.BillingOneTime && !activation {
		return nil
	}

	pc := pl.FindComponent(comp.Type)
	if pc == nil {
		e.logger.Warn("plan has no price for component, charge skipped",
			"resource_id", res.ID,
			"plan_id", pl.ID,
			"component_type", comp.Type,
		)
		e.plugins.EmitComponentSkipped(ctx, res.ID.String(), comp.Type)
		return nil
	}

	item := &invoice.Item{
		Entity:    types.NewEntity(),
		ID:        id.NewInvoiceItemID(),
		InvoiceID: inv.ID,
		Scope:     invoice.Scope{Kind: invoice.ScopeResource, ID: res.ID},
		Name:      fmt.Sprintf("%s (%s)", res.Name, comp.Name),
		Details: invoice.Details{
			PlanName:        pl.Name,
			ComponentType:   comp.Type,
			ComponentName:   comp.Name,
			BillingType:     comp.BillingType,
			PlanComponentID: pc.ID,
		},
		MeasuredUnit: comp.MeasuredUnit,
		Start:        start,
		ProjectID:    res.ProjectID,
		ProjectName:  res.ProjectName,
	}

	switch comp.BillingType {
	case plan.BillingFixed:
		price := pc.Price
		if pc.Amount > 1 {
			price = price.Mul(decimal.NewFromInt(pc.Amount))
		}
		item.Unit = pl.Unit
		item.UnitPrice = price
		// Projected to month end while the item is open; recomputed on close.
		item.Quantity = pricing.Quantity(pl.Unit, start, period.MonthEnd(start))
	case plan.BillingOneTime:
		item.Unit = plan.UnitQuantity
		item.UnitPrice = pc.Price
		item.Quantity = decimal.NewFromInt(1)
		closed := start
		item.End = &closed
	case plan.BillingLimit:
		item.Unit = plan.UnitQuantity
		item.UnitPrice = pc.Price
		item.Quantity = pricing.UsageQuantity(comp, decimal.NewFromInt(res.Limits[comp.Type]))
	}

	if err := e.store.CreateInvoiceItem(ctx, item); err != nil {
		return err
	}

	e.plugins.EmitItemRegistered(ctx, item)
	return nil
}

// closeResourceItems closes the resource's open items in the current
// pending invoice at the given instant.
func (e *Engine) closeResourceItems(ctx context.Context, res *resource.Resource, at time.Time) error {
	cust, err := e.store.GetCustomer(ctx, res.CustomerID)
	if err != nil {
		return err
	}
	inv, err := e.store.GetInvoiceByPeriod(ctx, cust.ID, period.Of(at))
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	if inv.State.Finalized() {
		return ErrInvoiceFinalized
	}

	items, err := e.store.ListInvoiceItems(ctx, inv.ID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Scope.Kind != invoice.ScopeResource || item.Scope.ID != res.ID || !item.IsOpen() {
			continue
		}
		if err := e.closeItem(ctx, item, at); err != nil {
			return err
		}
	}

	return e.recalcInvoiceTotals(ctx, inv.ID)
}

// closeItem sets the item's end and recomputes time-based quantities
// over the final window. Quantity-unit items keep their stored quantity.
func (e *Engine) closeItem(ctx context.Context, item *invoice.Item, at time.Time) error {
	end := at
	item.End = &end
	switch item.Unit {
	case plan.UnitPerDay, plan.UnitPerHour, plan.UnitPerHalfMonth, plan.UnitPerMonth:
		item.Quantity = pricing.Quantity(item.Unit, item.Start, at)
	}
	item.Touch()

	if err := e.store.UpdateInvoiceItem(ctx, item); err != nil {
		return err
	}

	e.plugins.EmitItemTerminated(ctx, item)
	return nil
}
