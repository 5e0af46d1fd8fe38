package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/period"
	"github.com/xraph/accrual/plan"
	"github.com/xraph/accrual/types"
)

// State is an invoice's lifecycle state. Pending invoices accumulate
// items; every other state is finalized and its items are immutable.
type State string

const (
	StatePending  State = "pending"
	StateCreated  State = "created"
	StatePaid     State = "paid"
	StateCanceled State = "canceled"
)

var transitions = map[State][]State{
	StatePending: {StateCreated, StateCanceled},
	StateCreated: {StatePaid, StateCanceled},
}

func (s State) CanTransitionTo(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Finalized reports whether items may no longer be added or modified.
func (s State) Finalized() bool {
	return s != StatePending
}

// Invoice is one customer's bill for one calendar month. At most one
// exists per (customer, year, month); the storage layer enforces this.
type Invoice struct {
	types.Entity
	ID         id.InvoiceID    `json:"id"`
	CustomerID id.CustomerID   `json:"customer_id"`
	Year       int             `json:"year"`
	Month      time.Month      `json:"month"`
	State      State           `json:"state"`
	Currency   string          `json:"currency"`
	TaxPercent decimal.Decimal `json:"tax_percent"`

	// Cached aggregates, recomputed from the item set on every change.
	TotalPrice   types.Money `json:"total_price"`
	TotalCurrent types.Money `json:"total_current"`

	Number      string            `json:"number,omitempty"`
	InvoiceDate *time.Time        `json:"invoice_date,omitempty"`
	DueDate     *time.Time        `json:"due_date,omitempty"`
	PaidAt      *time.Time        `json:"paid_at,omitempty"`
	Items       []Item            `json:"items"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Period returns the billing month the invoice covers.
func (inv *Invoice) Period() period.Period {
	return period.Period{Year: inv.Year, Month: inv.Month}
}

// Price sums the items' individually quantized prices, quantized once
// more at the sum.
func (inv *Invoice) Price() types.Money {
	total := types.Zero(inv.Currency)
	for i := range inv.Items {
		total = total.Add(inv.Items[i].Price())
	}
	return total.Quantize()
}

// PriceCurrent is like Price but projects open daily and hourly items up
// to the given instant instead of using their stored quantities.
func (inv *Invoice) PriceCurrent(now time.Time) types.Money {
	total := types.Zero(inv.Currency)
	for i := range inv.Items {
		total = total.Add(inv.Items[i].PriceCurrent(now))
	}
	return total.Quantize()
}

// Tax applies the invoice's tax percentage to the given price.
func (inv *Invoice) Tax(price types.Money) types.Money {
	return price.Mul(inv.TaxPercent.Div(decimal.NewFromInt(100))).Quantize()
}

// Total returns price plus tax.
func (inv *Invoice) Total() types.Money {
	p := inv.Price()
	return p.Add(inv.Tax(p))
}

// GenerateNumber derives the invoice's display number from its period
// and id, e.g. "INV-201707-4Q7FA3".
func (inv *Invoice) GenerateNumber() string {
	suffix := inv.ID.String()
	if n := len(suffix); n > 6 {
		suffix = suffix[n-6:]
	}
	return fmt.Sprintf("INV-%04d%02d-%s", inv.Year, int(inv.Month), strings.ToUpper(suffix))
}

// ScopeKind tags the kind of entity an item bills.
type ScopeKind string

const (
	ScopeResource ScopeKind = "resource"
	ScopeOffering ScopeKind = "offering"
	ScopeCustom   ScopeKind = "custom"
)

// Scope is a weak reference to the billed entity. The referenced row may
// be deleted at any time; the item's Details snapshot keeps the invoice
// renderable regardless.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	ID   id.AnyID  `json:"id,omitempty"`
}

// Details is the human-readable snapshot captured at registration time.
type Details struct {
	OfferingName    string             `json:"offering_name,omitempty"`
	PlanName        string             `json:"plan_name,omitempty"`
	ComponentType   string             `json:"component_type,omitempty"`
	ComponentName   string             `json:"component_name,omitempty"`
	BillingType     plan.BillingType   `json:"billing_type,omitempty"`
	PlanComponentID id.PlanComponentID `json:"plan_component_id,omitempty"`
	Extra           map[string]string  `json:"extra,omitempty"`
}

// Item is one priced line of an invoice. An item with no End is open and
// still accruing; closing it sets End and recomputes Quantity over the
// final window.
type Item struct {
	types.Entity
	ID           id.InvoiceItemID `json:"id"`
	InvoiceID    id.InvoiceID     `json:"invoice_id"`
	Scope        Scope            `json:"scope"`
	Name         string           `json:"name"`
	Details      Details          `json:"details"`
	Unit         plan.Unit        `json:"unit"`
	UnitPrice    types.Money      `json:"unit_price"`
	Quantity     decimal.Decimal  `json:"quantity"`
	MeasuredUnit string           `json:"measured_unit,omitempty"`
	Start        time.Time        `json:"start"`
	End          *time.Time       `json:"end,omitempty"`
	ProjectID    id.ProjectID     `json:"project_id"`
	ProjectName  string           `json:"project_name"`
}

func (it *Item) IsOpen() bool {
	return it.End == nil
}

// BilledEnd returns the effective end of the item's window: End when
// closed, otherwise the end of the item's month.
func (it *Item) BilledEnd() time.Time {
	if it.End != nil {
		return *it.End
	}
	return period.MonthEnd(it.Start)
}

// Price returns quantity times unit price, quantized to the currency's
// precision.
func (it *Item) Price() types.Money {
	return it.UnitPrice.Mul(it.Quantity).Quantize()
}

// PriceCurrent estimates the item's price as of now. Open daily and
// hourly items bill only the portion elapsed so far; everything else
// uses the stored quantity.
func (it *Item) PriceCurrent(now time.Time) types.Money {
	qty := it.Quantity
	if it.IsOpen() {
		end := it.BilledEnd()
		if now.Before(end) {
			end = now
		}
		switch it.Unit {
		case plan.UnitPerDay:
			qty = decimal.NewFromInt(int64(period.FullDays(it.Start, end)))
		case plan.UnitPerHour:
			qty = decimal.NewFromInt(int64(period.FullHours(it.Start, end)))
		}
	}
	return it.UnitPrice.Mul(qty).Quantize()
}
