package store

import (
	"context"
	"time"

	"github.com/xraph/accrual/customer"
	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/invoice"
	"github.com/xraph/accrual/period"
	"github.com/xraph/accrual/plan"
	"github.com/xraph/accrual/resource"
	"github.com/xraph/accrual/usage"
)

// Store is the unified storage interface for all accrual entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
//
// Two behaviors are load-bearing for billing correctness and every
// implementation must provide them:
//
//   - CreateInvoice enforces uniqueness of (customer, year, month) at the
//     storage layer and fails with ErrAlreadyExists on conflict, even under
//     concurrent callers.
//   - CreateInvoiceItem and UpdateInvoiceItem fail with ErrInvoiceFinalized
//     once the owning invoice has left the pending state.
type Store interface {
	// Customer methods
	CreateCustomer(ctx context.Context, c *customer.Customer) error
	GetCustomer(ctx context.Context, customerID id.CustomerID) (*customer.Customer, error)
	ListCustomers(ctx context.Context, opts customer.ListOpts) ([]*customer.Customer, error)
	UpdateCustomer(ctx context.Context, c *customer.Customer) error

	// Plan methods
	CreatePlan(ctx context.Context, p *plan.Plan) error
	GetPlan(ctx context.Context, planID id.PlanID) (*plan.Plan, error)
	ListPlans(ctx context.Context, opts plan.ListOpts) ([]*plan.Plan, error)
	UpdatePlan(ctx context.Context, p *plan.Plan) error
	ArchivePlan(ctx context.Context, planID id.PlanID) error
	CreateComponent(ctx context.Context, c *plan.Component) error
	GetComponent(ctx context.Context, offeringID id.OfferingID, componentType string) (*plan.Component, error)
	ListComponents(ctx context.Context, offeringID id.OfferingID) ([]*plan.Component, error)

	// Resource methods
	CreateResource(ctx context.Context, r *resource.Resource) error
	GetResource(ctx context.Context, resourceID id.ResourceID) (*resource.Resource, error)
	ListResources(ctx context.Context, opts resource.ListOpts) ([]*resource.Resource, error)
	UpdateResource(ctx context.Context, r *resource.Resource) error
	CreatePlanPeriod(ctx context.Context, pp *resource.PlanPeriod) error
	GetActivePlanPeriod(ctx context.Context, resourceID id.ResourceID) (*resource.PlanPeriod, error)
	ClosePlanPeriod(ctx context.Context, periodID id.PlanPeriodID, end time.Time) error
	ListPlanPeriods(ctx context.Context, resourceID id.ResourceID) ([]*resource.PlanPeriod, error)

	// Usage methods
	UpsertUsageReport(ctx context.Context, r *usage.Report) error
	GetUsageReport(ctx context.Context, resourceID id.ResourceID, componentType string, p period.Period) (*usage.Report, error)
	ListUsageReports(ctx context.Context, resourceID id.ResourceID, p period.Period) ([]*usage.Report, error)
	PurgeUsageReports(ctx context.Context, before time.Time) (int64, error)

	// Invoice methods
	CreateInvoice(ctx context.Context, inv *invoice.Invoice) error
	GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error)
	GetInvoiceByPeriod(ctx context.Context, customerID id.CustomerID, p period.Period) (*invoice.Invoice, error)
	ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error)
	UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error
	ListPendingInvoices(ctx context.Context) ([]*invoice.Invoice, error)
	CreateInvoiceItem(ctx context.Context, item *invoice.Item) error
	UpdateInvoiceItem(ctx context.Context, item *invoice.Item) error
	GetInvoiceItem(ctx context.Context, itemID id.InvoiceItemID) (*invoice.Item, error)
	ListInvoiceItems(ctx context.Context, invID id.InvoiceID) ([]*invoice.Item, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
