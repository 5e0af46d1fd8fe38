// Package memory provides an in-memory Store implementation, primarily
// for tests and examples. All data is lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xraph/accrual"
	"github.com/xraph/accrual/customer"
	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/invoice"
	"github.com/xraph/accrual/period"
	"github.com/xraph/accrual/plan"
	"github.com/xraph/accrual/resource"
	"github.com/xraph/accrual/usage"
)

type Store struct {
	mu sync.RWMutex

	// Customer storage
	customers map[string]*customer.Customer

	// Plan storage
	plans      map[string]*plan.Plan
	components map[string]*plan.Component

	// Resource storage
	resources   map[string]*resource.Resource
	planPeriods map[string]*resource.PlanPeriod

	// Usage report storage, keyed by (resource, component, period)
	reports map[string]*usage.Report

	// Invoice storage. invoiceByPeriod maps the (customer, year, month)
	// key to the invoice ID and backs the uniqueness guarantee.
	invoices        map[string]*invoice.Invoice
	invoiceByPeriod map[string]string
	items           map[string]*invoice.Item
}

func New() *Store {
	return &Store{
		customers:       make(map[string]*customer.Customer),
		plans:           make(map[string]*plan.Plan),
		components:      make(map[string]*plan.Component),
		resources:       make(map[string]*resource.Resource),
		planPeriods:     make(map[string]*resource.PlanPeriod),
		reports:         make(map[string]*usage.Report),
		invoices:        make(map[string]*invoice.Invoice),
		invoiceByPeriod: make(map[string]string),
		items:           make(map[string]*invoice.Item),
	}
}

func periodKey(customerID id.CustomerID, year, month int) string {
	return fmt.Sprintf("%s:%04d-%02d", customerID, year, month)
}

func reportKey(resourceID id.ResourceID, componentType string, p period.Period) string {
	return fmt.Sprintf("%s:%s:%s", resourceID, componentType, p)
}

func paginate[T any](result []T, limit, offset int) []T {
	start := offset
	if start > len(result) {
		start = len(result)
	}
	end := start + limit
	if limit == 0 || end > len(result) {
		end = len(result)
	}
	return result[start:end]
}

// Customer Store implementation

func (s *Store) CreateCustomer(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[c.ID.String()]; exists {
		return accrual.ErrAlreadyExists
	}
	s.customers[c.ID.String()] = cloneCustomer(c)
	return nil
}

func (s *Store) GetCustomer(_ context.Context, customerID id.CustomerID) (*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.customers[customerID.String()]; ok {
		return cloneCustomer(c), nil
	}
	return nil, accrual.ErrCustomerNotFound
}

func (s *Store) ListCustomers(_ context.Context, opts customer.ListOpts) ([]*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*customer.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		result = append(result, cloneCustomer(c))
	}
	sortByCreation(result, func(c *customer.Customer) (time.Time, string) { return c.CreatedAt, c.ID.String() })
	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateCustomer(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[c.ID.String()]; !exists {
		return accrual.ErrCustomerNotFound
	}
	s.customers[c.ID.String()] = cloneCustomer(c)
	return nil
}

// Plan Store implementation

func (s *Store) CreatePlan(_ context.Context, p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[p.ID.String()]; exists {
		return accrual.ErrAlreadyExists
	}
	s.plans[p.ID.String()] = clonePlan(p)
	return nil
}

func (s *Store) GetPlan(_ context.Context, planID id.PlanID) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.plans[planID.String()]; ok {
		return clonePlan(p), nil
	}
	return nil, accrual.ErrPlanNotFound
}

func (s *Store) ListPlans(_ context.Context, opts plan.ListOpts) ([]*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*plan.Plan, 0)
	for _, p := range s.plans {
		if !opts.OfferingID.IsNil() && p.OfferingID != opts.OfferingID {
			continue
		}
		if opts.Status != "" && p.Status != opts.Status {
			continue
		}
		result = append(result, clonePlan(p))
	}
	sortByCreation(result, func(p *plan.Plan) (time.Time, string) { return p.CreatedAt, p.ID.String() })
	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdatePlan(_ context.Context, p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[p.ID.String()]; !exists {
		return accrual.ErrPlanNotFound
	}
	s.plans[p.ID.String()] = clonePlan(p)
	return nil
}

func (s *Store) ArchivePlan(_ context.Context, planID id.PlanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, exists := s.plans[planID.String()]; exists {
		p.Status = plan.StatusArchived
		p.Touch()
		return nil
	}
	return accrual.ErrPlanNotFound
}

func (s *Store) CreateComponent(_ context.Context, c *plan.Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.components {
		if existing.OfferingID == c.OfferingID && existing.Type == c.Type {
			return accrual.ErrAlreadyExists
		}
	}
	s.components[c.ID.String()] = cloneComponent(c)
	return nil
}

func (s *Store) GetComponent(_ context.Context, offeringID id.OfferingID, componentType string) (*plan.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.components {
		if c.OfferingID == offeringID && c.Type == componentType {
			return cloneComponent(c), nil
		}
	}
	return nil, accrual.ErrComponentNotFound
}

func (s *Store) ListComponents(_ context.Context, offeringID id.OfferingID) ([]*plan.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*plan.Component, 0)
	for _, c := range s.components {
		if c.OfferingID == offeringID {
			result = append(result, cloneComponent(c))
		}
	}
	sortByCreation(result, func(c *plan.Component) (time.Time, string) { return c.CreatedAt, c.ID.String() })
	return result, nil
}

// Resource Store implementation

func (s *Store) CreateResource(_ context.Context, r *resource.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.resources[r.ID.String()]; exists {
		return accrual.ErrAlreadyExists
	}
	s.resources[r.ID.String()] = cloneResource(r)
	return nil
}

func (s *Store) GetResource(_ context.Context, resourceID id.ResourceID) (*resource.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.resources[resourceID.String()]; ok {
		return cloneResource(r), nil
	}
	return nil, accrual.ErrResourceNotFound
}

func (s *Store) ListResources(_ context.Context, opts resource.ListOpts) ([]*resource.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*resource.Resource, 0)
	for _, r := range s.resources {
		if !opts.CustomerID.IsNil() && r.CustomerID != opts.CustomerID {
			continue
		}
		if opts.State != "" && r.State != opts.State {
			continue
		}
		if opts.Billable && !r.State.Billable() {
			continue
		}
		result = append(result, cloneResource(r))
	}
	sortByCreation(result, func(r *resource.Resource) (time.Time, string) { return r.CreatedAt, r.ID.String() })
	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateResource(_ context.Context, r *resource.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.resources[r.ID.String()]; !exists {
		return accrual.ErrResourceNotFound
	}
	s.resources[r.ID.String()] = cloneResource(r)
	return nil
}

func (s *Store) CreatePlanPeriod(_ context.Context, pp *resource.PlanPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.planPeriods[pp.ID.String()]; exists {
		return accrual.ErrAlreadyExists
	}
	if pp.End == nil {
		// At most one open period per resource, matching the partial
		// unique index the SQL and mongo stores carry.
		for _, existing := range s.planPeriods {
			if existing.ResourceID == pp.ResourceID && existing.End == nil {
				return accrual.ErrAlreadyExists
			}
		}
	}
	s.planPeriods[pp.ID.String()] = clonePlanPeriod(pp)
	return nil
}

func (s *Store) GetActivePlanPeriod(_ context.Context, resourceID id.ResourceID) (*resource.PlanPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, pp := range s.planPeriods {
		if pp.ResourceID == resourceID && pp.End == nil {
			return clonePlanPeriod(pp), nil
		}
	}
	return nil, accrual.ErrNoPlanPeriod
}

func (s *Store) ClosePlanPeriod(_ context.Context, periodID id.PlanPeriodID, end time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pp, exists := s.planPeriods[periodID.String()]; exists {
		pp.End = &end
		pp.Touch()
		return nil
	}
	return accrual.ErrNoPlanPeriod
}

func (s *Store) ListPlanPeriods(_ context.Context, resourceID id.ResourceID) ([]*resource.PlanPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*resource.PlanPeriod, 0)
	for _, pp := range s.planPeriods {
		if pp.ResourceID == resourceID {
			result = append(result, clonePlanPeriod(pp))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return result, nil
}

// Usage Store implementation

func (s *Store) UpsertUsageReport(_ context.Context, r *usage.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := reportKey(r.ResourceID, r.ComponentType, r.Period)
	stored := cloneReport(r)
	if existing, ok := s.reports[key]; ok {
		// Last write wins, but the row keeps its identity.
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	}
	s.reports[key] = stored
	return nil
}

func (s *Store) GetUsageReport(_ context.Context, resourceID id.ResourceID, componentType string, p period.Period) (*usage.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.reports[reportKey(resourceID, componentType, p)]; ok {
		return cloneReport(r), nil
	}
	return nil, accrual.ErrNotFound
}

func (s *Store) ListUsageReports(_ context.Context, resourceID id.ResourceID, p period.Period) ([]*usage.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*usage.Report, 0)
	for _, r := range s.reports {
		if r.ResourceID == resourceID && r.Period == p {
			result = append(result, cloneReport(r))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ComponentType < result[j].ComponentType })
	return result, nil
}

func (s *Store) PurgeUsageReports(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for key, r := range s.reports {
		if r.RecordedAt.Before(before) {
			delete(s.reports, key)
			count++
		}
	}
	return count, nil
}

// Invoice Store implementation

func (s *Store) CreateInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := periodKey(inv.CustomerID, inv.Year, int(inv.Month))
	if _, exists := s.invoiceByPeriod[key]; exists {
		return accrual.ErrAlreadyExists
	}
	s.invoices[inv.ID.String()] = cloneInvoice(inv)
	s.invoiceByPeriod[key] = inv.ID.String()
	return nil
}

func (s *Store) GetInvoice(_ context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv, ok := s.invoices[invID.String()]; ok {
		return cloneInvoice(inv), nil
	}
	return nil, accrual.ErrInvoiceNotFound
}

func (s *Store) GetInvoiceByPeriod(_ context.Context, customerID id.CustomerID, p period.Period) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if invID, ok := s.invoiceByPeriod[periodKey(customerID, p.Year, int(p.Month))]; ok {
		return cloneInvoice(s.invoices[invID]), nil
	}
	return nil, accrual.ErrInvoiceNotFound
}

func (s *Store) ListInvoices(_ context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*invoice.Invoice, 0)
	for _, inv := range s.invoices {
		if !opts.CustomerID.IsNil() && inv.CustomerID != opts.CustomerID {
			continue
		}
		if opts.State != "" && inv.State != opts.State {
			continue
		}
		if opts.Year != 0 && inv.Year != opts.Year {
			continue
		}
		if opts.Month != 0 && int(inv.Month) != opts.Month {
			continue
		}
		result = append(result, cloneInvoice(inv))
	}
	sortByCreation(result, func(inv *invoice.Invoice) (time.Time, string) { return inv.CreatedAt, inv.ID.String() })
	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID.String()]; !exists {
		return accrual.ErrInvoiceNotFound
	}
	s.invoices[inv.ID.String()] = cloneInvoice(inv)
	return nil
}

func (s *Store) ListPendingInvoices(_ context.Context) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*invoice.Invoice, 0)
	for _, inv := range s.invoices {
		if inv.State == invoice.StatePending {
			result = append(result, cloneInvoice(inv))
		}
	}
	sortByCreation(result, func(inv *invoice.Invoice) (time.Time, string) { return inv.CreatedAt, inv.ID.String() })
	return result, nil
}

func (s *Store) CreateInvoiceItem(_ context.Context, item *invoice.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[item.InvoiceID.String()]
	if !ok {
		return accrual.ErrInvoiceNotFound
	}
	if inv.State.Finalized() {
		return accrual.ErrInvoiceFinalized
	}
	if _, exists := s.items[item.ID.String()]; exists {
		return accrual.ErrAlreadyExists
	}
	s.items[item.ID.String()] = cloneItem(item)
	return nil
}

func (s *Store) UpdateInvoiceItem(_ context.Context, item *invoice.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[item.InvoiceID.String()]
	if !ok {
		return accrual.ErrInvoiceNotFound
	}
	if inv.State.Finalized() {
		return accrual.ErrInvoiceFinalized
	}
	if _, exists := s.items[item.ID.String()]; !exists {
		return accrual.ErrItemNotFound
	}
	s.items[item.ID.String()] = cloneItem(item)
	return nil
}

func (s *Store) GetInvoiceItem(_ context.Context, itemID id.InvoiceItemID) (*invoice.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, ok := s.items[itemID.String()]; ok {
		return cloneItem(item), nil
	}
	return nil, accrual.ErrItemNotFound
}

func (s *Store) ListInvoiceItems(_ context.Context, invID id.InvoiceID) ([]*invoice.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*invoice.Item, 0)
	for _, item := range s.items {
		if item.InvoiceID == invID {
			result = append(result, cloneItem(item))
		}
	}
	sortByCreation(result, func(item *invoice.Item) (time.Time, string) { return item.CreatedAt, item.ID.String() })
	return result, nil
}

// Store management

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}

// sortByCreation orders records oldest first, tie-broken by ID so tests
// see a stable order.
func sortByCreation[T any](result []T, key func(T) (time.Time, string)) {
	sort.Slice(result, func(i, j int) bool {
		ti, idi := key(result[i])
		tj, idj := key(result[j])
		if ti.Equal(tj) {
			return idi < idj
		}
		return ti.Before(tj)
	})
}

// Clone helpers keep callers from mutating stored state through shared
// pointers, matching the isolation a database-backed store gives.

func cloneCustomer(c *customer.Customer) *customer.Customer {
	out := *c
	out.Metadata = cloneMetadata(c.Metadata)
	return &out
}

func clonePlan(p *plan.Plan) *plan.Plan {
	out := *p
	out.Components = make([]plan.PlanComponent, len(p.Components))
	copy(out.Components, p.Components)
	out.Metadata = cloneMetadata(p.Metadata)
	return &out
}

func cloneComponent(c *plan.Component) *plan.Component {
	out := *c
	out.Metadata = cloneMetadata(c.Metadata)
	return &out
}

func cloneResource(r *resource.Resource) *resource.Resource {
	out := *r
	if r.Limits != nil {
		out.Limits = make(map[string]int64, len(r.Limits))
		for k, v := range r.Limits {
			out.Limits[k] = v
		}
	}
	out.Metadata = cloneMetadata(r.Metadata)
	return &out
}

func clonePlanPeriod(pp *resource.PlanPeriod) *resource.PlanPeriod {
	out := *pp
	if pp.End != nil {
		end := *pp.End
		out.End = &end
	}
	return &out
}

func cloneReport(r *usage.Report) *usage.Report {
	out := *r
	return &out
}

func cloneInvoice(inv *invoice.Invoice) *invoice.Invoice {
	out := *inv
	out.Items = make([]invoice.Item, len(inv.Items))
	copy(out.Items, inv.Items)
	out.Metadata = cloneMetadata(inv.Metadata)
	if inv.InvoiceDate != nil {
		d := *inv.InvoiceDate
		out.InvoiceDate = &d
	}
	if inv.DueDate != nil {
		d := *inv.DueDate
		out.DueDate = &d
	}
	if inv.PaidAt != nil {
		d := *inv.PaidAt
		out.PaidAt = &d
	}
	return &out
}

func cloneItem(item *invoice.Item) *invoice.Item {
	out := *item
	if item.End != nil {
		end := *item.End
		out.End = &end
	}
	out.Details.Extra = cloneMetadata(item.Details.Extra)
	return &out
}

func cloneMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
