package plan

import (
	"github.com/shopspring/decimal"

	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/types"
)

// Unit is the billing unit of a plan. It determines how a resource's
// active window inside a month is converted into a billed quantity.
type Unit string

const (
	UnitPerDay       Unit = "day"
	UnitPerHour      Unit = "hour"
	UnitPerHalfMonth Unit = "half_month"
	UnitPerMonth     Unit = "month"
	UnitQuantity     Unit = "quantity"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitPerDay, UnitPerHour, UnitPerHalfMonth, UnitPerMonth, UnitQuantity:
		return true
	}
	return false
}

// BillingType describes how an offering component is charged.
type BillingType string

const (
	// BillingFixed components accrue for as long as the resource is active.
	BillingFixed BillingType = "fixed"
	// BillingUsage components are charged from reported usage totals.
	BillingUsage BillingType = "usage"
	// BillingOneTime components are charged once, on resource activation.
	BillingOneTime BillingType = "one"
	// BillingLimit components are charged from the resource's requested limits.
	BillingLimit BillingType = "limit"
)

func (b BillingType) Valid() bool {
	switch b {
	case BillingFixed, BillingUsage, BillingOneTime, BillingLimit:
		return true
	}
	return false
}

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Component is one billable dimension of an offering, such as "cpu" or
// "ram". Usage reports and plan prices both reference components by Type.
type Component struct {
	types.Entity
	ID           id.ComponentID    `json:"id"`
	OfferingID   id.OfferingID     `json:"offering_id"`
	Type         string            `json:"type"`
	Name         string            `json:"name"`
	MeasuredUnit string            `json:"measured_unit"`
	BillingType  BillingType       `json:"billing_type"`
	Factor       int64             `json:"factor"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ConvertUsage divides a raw reported amount by the component's factor,
// e.g. CPU minutes with factor 60 become CPU hours. A factor below 2
// leaves the amount unchanged.
func (c *Component) ConvertUsage(amount decimal.Decimal) decimal.Decimal {
	if c.Factor < 2 {
		return amount
	}
	return amount.Div(decimal.NewFromInt(c.Factor))
}

// Plan is a named pricing configuration for an offering. Once a plan has
// been referenced by an invoice item it must never be mutated; price
// changes archive the old plan and create a new one, so historical
// invoices stay reproducible.
type Plan struct {
	types.Entity
	ID         id.PlanID         `json:"id"`
	OfferingID id.OfferingID     `json:"offering_id"`
	Name       string            `json:"name"`
	Currency   string            `json:"currency"`
	Unit       Unit              `json:"unit"`
	Status     Status            `json:"status"`
	Components []PlanComponent   `json:"components"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// PlanComponent carries the plan's price for one offering component.
type PlanComponent struct {
	ID            id.PlanComponentID `json:"id"`
	PlanID        id.PlanID          `json:"plan_id"`
	ComponentType string             `json:"component_type"`
	Price         types.Money        `json:"price"`
	Amount        int64              `json:"amount"`
}

// FindComponent returns the plan's price entry for the given component
// type, or nil when the plan does not price that component.
func (p *Plan) FindComponent(componentType string) *PlanComponent {
	for i := range p.Components {
		if p.Components[i].ComponentType == componentType {
			return &p.Components[i]
		}
	}
	return nil
}

func (p *Plan) IsArchived() bool {
	return p.Status == StatusArchived
}
