// Package mongo provides a MongoDB-backed Store implementation using Grove ORM.
//
// Invoice uniqueness per (customer, year, month) and the usage report upsert
// key are both enforced by unique indexes created in Migrate, so concurrent
// writers across processes cannot produce duplicates.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	accrual "github.com/xraph/accrual"
	"github.com/xraph/accrual/customer"
	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/invoice"
	"github.com/xraph/accrual/period"
	"github.com/xraph/accrual/plan"
	"github.com/xraph/accrual/resource"
	accrualstore "github.com/xraph/accrual/store"
	"github.com/xraph/accrual/usage"
)

// Collection name constants.
const (
	colCustomers    = "accrual_customers"
	colPlans        = "accrual_plans"
	colComponents   = "accrual_components"
	colResources    = "accrual_resources"
	colPlanPeriods  = "accrual_plan_periods"
	colUsageReports = "accrual_usage_reports"
	colInvoices     = "accrual_invoices"
	colInvoiceItems = "accrual_invoice_items"
)

// compile-time interface check
var _ accrualstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all accrual collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("accrual/mongo: %w: migrate %s indexes: %v", accrual.ErrMigrationFailed, col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Customer Store ====================

func (s *Store) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	m := toCustomerModel(c)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return accrual.ErrAlreadyExists
		}
		return fmt.Errorf("accrual/mongo: create customer: %w", err)
	}
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, customerID id.CustomerID) (*customer.Customer, error) {
	var m customerModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": customerID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, accrual.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("accrual/mongo: get customer: %w", err)
	}
	return fromCustomerModel(&m)
}

func (s *Store) ListCustomers(ctx context.Context, opts customer.ListOpts) ([]*customer.Customer, error) {
	var models []customerModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "created_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("accrual/mongo: list customers: %w", err)
	}

	result := make([]*customer.Customer, len(models))
	for i := range models {
		c, err := fromCustomerModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c *customer.Customer) error {
	m := toCustomerModel(c)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("accrual/mongo: update customer: %w", err)
	}
	if res.MatchedCount() == 0 {
		return accrual.ErrCustomerNotFound
	}
	return nil
}

// ==================== Plan Store ====================

func (s *Store) CreatePlan(ctx context.Context, p *plan.Plan) error {
	m := toPlanModel(p)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return accrual.ErrAlreadyExists
		}
		return fmt.Errorf("accrual/mongo: create plan: %w", err)
	}
	return nil
}

func (s *Store) GetPlan(ctx context.Context, planID id.PlanID) (*plan.Plan, error) {
	var m planModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": planID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, accrual.ErrPlanNotFound
		}
		return nil, fmt.Errorf("accrual/mongo: get plan: %w", err)
	}
	return fromPlanModel(&m)
}

func (s *Store) ListPlans(ctx context.Context, opts plan.ListOpts) ([]*plan.Plan, error) {
	var models []planModel

	filter := bson.M{}
	if !opts.OfferingID.IsNil() {
		filter["offering_id"] = opts.OfferingID.String()
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("accrual/mongo: list plans: %w", err)
	}

	result := make([]*plan.Plan, len(models))
	for i := range models {
		p, err := fromPlanModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) UpdatePlan(ctx context.Context, p *plan.Plan) error {
	m := toPlanModel(p)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("accrual/mongo: update plan: %w", err)
	}
	if res.MatchedCount() == 0 {
		return accrual.ErrPlanNotFound
	}
	return nil
}

func (s *Store) ArchivePlan(ctx context.Context, planID id.PlanID) error {
	res, err := s.mdb.NewUpdate((*planModel)(nil)).
		Filter(bson.M{"_id": planID.String()}).
		Set("status", string(plan.StatusArchived)).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("accrual/mongo: archive plan: %w", err)
	}
	if res.MatchedCount() == 0 {
		return accrual.ErrPlanNotFound
	}
	return nil
}

func (s *Store) CreateComponent(ctx context.Context, c *plan.Component) error {
	m := toComponentModel(c)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return accrual.ErrAlreadyExists
		}
		return fmt.Errorf("accrual/mongo: create component: %w", err)
	}
	return nil
}

func (s *Store) GetComponent(ctx context.Context, offeringID id.OfferingID, componentType string) (*plan.Component, error) {
	var m componentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"offering_id": offeringID.String(), "type": componentType}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, accrual.ErrComponentNotFound
		}
		return nil, fmt.Errorf("accrual/mongo: get component: %w", err)
	}
	return fromComponentModel(&m)
}

func (s *Store) ListComponents(ctx context.Context, offeringID id.OfferingID) ([]*plan.Component, error) {
	var models []componentModel

	err := s.mdb.NewFind(&models).
		Filter(bson.M{"offering_id": offeringID.String()}).
		Sort(bson.D{{Key: "type", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("accrual/mongo: list components: %w", err)
	}

	result := make([]*plan.Component, len(models))
	for i := range models {
		c, err := fromComponentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

// ==================== Resource Store ====================

func (s *Store) CreateResource(ctx context.Context, r *resource.Resource) error {
	m := toResourceModel(r)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return accrual.ErrAlreadyExists
		}
		return fmt.Errorf("accrual/mongo: create resource: %w", err)
	}
	return nil
}

func (s *Store) GetResource(ctx context.Context, resourceID id.ResourceID) (*resource.Resource, error) {
	var m resourceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": resourceID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, accrual.ErrResourceNotFound
		}
		return nil, fmt.Errorf("accrual/mongo: get resource: %w", err)
	}
	return fromResourceModel(&m)
}

func (s *Store) ListResources(ctx context.Context, opts resource.ListOpts) ([]*resource.Resource, error) {
	var models []resourceModel

	filter := bson.M{}
	if !opts.CustomerID.IsNil() {
		filter["customer_id"] = opts.CustomerID.String()
	}
	if opts.State != "" {
		filter["state"] = string(opts.State)
	}
	if opts.Billable {
		filter["state"] = bson.M{"$in": bson.A{
			string(resource.StateOK),
			string(resource.StateTerminating),
		}}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("accrual/mongo: list resources: %w", err)
	}

	result := make([]*resource.Resource, len(models))
	for i := range models {
		r, err := fromResourceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) UpdateResource(ctx context.Context, r *resource.Resource) error {
	m := toResourceModel(r)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("accrual/mongo: update resource: %w", err)
	}
	if res.MatchedCount() == 0 {
		return accrual.ErrResourceNotFound
	}
	return nil
}

func (s *Store) CreatePlanPeriod(ctx context.Context, pp *resource.PlanPeriod) error {
	m := toPlanPeriodModel(pp)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return accrual.ErrAlreadyExists
		}
		return fmt.Errorf("accrual/mongo: create plan period: %w", err)
	}
	return nil
}

func (s *Store) GetActivePlanPeriod(ctx context.Context, resourceID id.ResourceID) (*resource.PlanPeriod, error) {
	var m planPeriodModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"resource_id": resourceID.String(), "end_time": nil}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, accrual.ErrNoPlanPeriod
		}
		return nil, fmt.Errorf("accrual/mongo: get active plan period: %w", err)
	}
	return fromPlanPeriodModel(&m)
}

func (s *Store) ClosePlanPeriod(ctx context.Context, periodID id.PlanPeriodID, end time.Time) error {
	res, err := s.mdb.NewUpdate((*planPeriodModel)(nil)).
		Filter(bson.M{"_id": periodID.String()}).
		Set("end_time", end).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("accrual/mongo: close plan period: %w", err)
	}
	if res.MatchedCount() == 0 {
		return accrual.ErrNoPlanPeriod
	}
	return nil
}

func (s *Store) ListPlanPeriods(ctx context.Context, resourceID id.ResourceID) ([]*resource.PlanPeriod, error) {
	var models []planPeriodModel

	err := s.mdb.NewFind(&models).
		Filter(bson.M{"resource_id": resourceID.String()}).
		Sort(bson.D{{Key: "start_time", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("accrual/mongo: list plan periods: %w", err)
	}

	result := make([]*resource.PlanPeriod, len(models))
	for i := range models {
		pp, err := fromPlanPeriodModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = pp
	}
	return result, nil
}

// ==================== Usage Store ====================

func (s *Store) UpsertUsageReport(ctx context.Context, r *usage.Report) error {
	m := toUsageReportModel(r)
	t := now()

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{
			"resource_id":    m.ResourceID,
			"component_type": m.ComponentType,
			"year":           m.Year,
			"month":          m.Month,
		}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"amount":         m.Amount,
				"plan_period_id": m.PlanPeriodID,
				"recorded_at":    m.RecordedAt,
				"updated_at":     t,
			},
			// Replaced reports keep the identity of the original row.
			"$setOnInsert": bson.M{
				"_id":            m.ID,
				"resource_id":    m.ResourceID,
				"component_type": m.ComponentType,
				"year":           m.Year,
				"month":          m.Month,
				"created_at":     t,
			},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("accrual/mongo: upsert usage report: %w", err)
	}
	return nil
}

func (s *Store) GetUsageReport(ctx context.Context, resourceID id.ResourceID, componentType string, p period.Period) (*usage.Report, error) {
	var m usageReportModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"resource_id":    resourceID.String(),
			"component_type": componentType,
			"year":           p.Year,
			"month":          int(p.Month),
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, accrual.ErrNotFound
		}
		return nil, fmt.Errorf("accrual/mongo: get usage report: %w", err)
	}
	return fromUsageReportModel(&m)
}

func (s *Store) ListUsageReports(ctx context.Context, resourceID id.ResourceID, p period.Period) ([]*usage.Report, error) {
	var models []usageReportModel

	err := s.mdb.NewFind(&models).
		Filter(bson.M{
			"resource_id": resourceID.String(),
			"year":        p.Year,
			"month":       int(p.Month),
		}).
		Sort(bson.D{{Key: "component_type", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("accrual/mongo: list usage reports: %w", err)
	}

	result := make([]*usage.Report, len(models))
	for i := range models {
		r, err := fromUsageReportModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) PurgeUsageReports(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*usageReportModel)(nil)).
		Filter(bson.M{"recorded_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("accrual/mongo: purge usage reports: %w", err)
	}
	return res.DeletedCount(), nil
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	m := toInvoiceModel(inv)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return accrual.ErrAlreadyExists
		}
		return fmt.Errorf("accrual/mongo: create invoice: %w", err)
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": invID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, accrual.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("accrual/mongo: get invoice: %w", err)
	}
	return fromInvoiceModel(&m)
}

func (s *Store) GetInvoiceByPeriod(ctx context.Context, customerID id.CustomerID, p period.Period) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"customer_id": customerID.String(),
			"year":        p.Year,
			"month":       int(p.Month),
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, accrual.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("accrual/mongo: get invoice by period: %w", err)
	}
	return fromInvoiceModel(&m)
}

func (s *Store) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel

	filter := bson.M{}
	if !opts.CustomerID.IsNil() {
		filter["customer_id"] = opts.CustomerID.String()
	}
	if opts.State != "" {
		filter["state"] = string(opts.State)
	}
	if opts.Year != 0 {
		filter["year"] = opts.Year
	}
	if opts.Month != 0 {
		filter["month"] = opts.Month
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("accrual/mongo: list invoices: %w", err)
	}

	result := make([]*invoice.Invoice, len(models))
	for i := range models {
		inv, err := fromInvoiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = inv
	}
	return result, nil
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	m := toInvoiceModel(inv)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("accrual/mongo: update invoice: %w", err)
	}
	if res.MatchedCount() == 0 {
		return accrual.ErrInvoiceNotFound
	}
	return nil
}

func (s *Store) ListPendingInvoices(ctx context.Context) ([]*invoice.Invoice, error) {
	var models []invoiceModel

	err := s.mdb.NewFind(&models).
		Filter(bson.M{"state": string(invoice.StatePending)}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("accrual/mongo: list pending invoices: %w", err)
	}

	result := make([]*invoice.Invoice, len(models))
	for i := range models {
		inv, err := fromInvoiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = inv
	}
	return result, nil
}

func (s *Store) CreateInvoiceItem(ctx context.Context, item *invoice.Item) error {
	if err := s.checkInvoiceMutable(ctx, item.InvoiceID); err != nil {
		return err
	}
	m := toInvoiceItemModel(item)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return accrual.ErrAlreadyExists
		}
		return fmt.Errorf("accrual/mongo: create invoice item: %w", err)
	}
	return nil
}

func (s *Store) UpdateInvoiceItem(ctx context.Context, item *invoice.Item) error {
	if err := s.checkInvoiceMutable(ctx, item.InvoiceID); err != nil {
		return err
	}
	m := toInvoiceItemModel(item)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("accrual/mongo: update invoice item: %w", err)
	}
	if res.MatchedCount() == 0 {
		return accrual.ErrItemNotFound
	}
	return nil
}

func (s *Store) GetInvoiceItem(ctx context.Context, itemID id.InvoiceItemID) (*invoice.Item, error) {
	var m invoiceItemModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": itemID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, accrual.ErrItemNotFound
		}
		return nil, fmt.Errorf("accrual/mongo: get invoice item: %w", err)
	}
	return fromInvoiceItemModel(&m)
}

func (s *Store) ListInvoiceItems(ctx context.Context, invID id.InvoiceID) ([]*invoice.Item, error) {
	var models []invoiceItemModel

	err := s.mdb.NewFind(&models).
		Filter(bson.M{"invoice_id": invID.String()}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("accrual/mongo: list invoice items: %w", err)
	}

	result := make([]*invoice.Item, len(models))
	for i := range models {
		item, err := fromInvoiceItemModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = item
	}
	return result, nil
}

// checkInvoiceMutable reads the owning invoice's state and rejects item
// writes once the invoice has left the pending state.
func (s *Store) checkInvoiceMutable(ctx context.Context, invID id.InvoiceID) error {
	var m invoiceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": invID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return accrual.ErrInvoiceNotFound
		}
		return fmt.Errorf("accrual/mongo: check invoice state: %w", err)
	}
	if invoice.State(m.State).Finalized() {
		return accrual.ErrInvoiceFinalized
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all accrual collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colCustomers: {
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colPlans: {
			{Keys: bson.D{{Key: "offering_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colComponents: {
			{
				Keys:    bson.D{{Key: "offering_id", Value: 1}, {Key: "type", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colResources: {
			{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "state", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colPlanPeriods: {
			{Keys: bson.D{{Key: "resource_id", Value: 1}, {Key: "start_time", Value: 1}}},
			{
				// Only one open period per resource.
				Keys: bson.D{{Key: "resource_id", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"end_time": bson.M{"$type": "null"}}),
			},
		},
		colUsageReports: {
			{
				Keys: bson.D{
					{Key: "resource_id", Value: 1},
					{Key: "component_type", Value: 1},
					{Key: "year", Value: 1},
					{Key: "month", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "recorded_at", Value: 1}}},
		},
		colInvoices: {
			{
				Keys: bson.D{
					{Key: "customer_id", Value: 1},
					{Key: "year", Value: 1},
					{Key: "month", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "state", Value: 1}}},
		},
		colInvoiceItems: {
			{Keys: bson.D{{Key: "invoice_id", Value: 1}}},
			{Keys: bson.D{{Key: "scope_kind", Value: 1}, {Key: "scope_id", Value: 1}}},
		},
	}
}
