// Package postgres provides a PostgreSQL store for Accrual backed by the
// Grove ORM. The (customer, year, month) invoice uniqueness guarantee is
// enforced by a unique index, so concurrent invoice creation is safe
// across processes.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/accrual"
	"github.com/xraph/accrual/customer"
	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/invoice"
	"github.com/xraph/accrual/period"
	"github.com/xraph/accrual/plan"
	"github.com/xraph/accrual/resource"
	accrualstore "github.com/xraph/accrual/store"
	"github.com/xraph/accrual/usage"
)

// compile-time interface check
var _ accrualstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("accrual/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("accrual/postgres: %w: %v", accrual.ErrMigrationFailed, err)
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
	_, err := s.pg.NewInsert(m).Exec(ctx)
	if isUniqueViolation(err) {
		return accrual.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetCustomer(ctx context.Context, customerID id.CustomerID) (*customer.Customer, error) {
	m := new(customerModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", customerID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, accrual.ErrCustomerNotFound
		}
		return nil, err
	}
	return fromCustomerModel(m)
}

func (s *Store) ListCustomers(ctx context.Context, opts customer.ListOpts) ([]*customer.Customer, error) {
	var models []customerModel
	q := s.pg.NewSelect(&models)

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return accrual.ErrCustomerNotFound
	}
	return nil
}

// ==================== Plan Store ====================

func (s *Store) CreatePlan(ctx context.Context, p *plan.Plan) error {
	m := toPlanModel(p)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	if isUniqueViolation(err) {
		return accrual.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetPlan(ctx context.Context, planID id.PlanID) (*plan.Plan, error) {
	m := new(planModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", planID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, accrual.ErrPlanNotFound
		}
		return nil, err
	}
	return fromPlanModel(m)
}

func (s *Store) ListPlans(ctx context.Context, opts plan.ListOpts) ([]*plan.Plan, error) {
	var models []planModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if !opts.OfferingID.IsNil() {
		argIdx++
		q = q.Where(fmt.Sprintf("offering_id = $%d", argIdx), opts.OfferingID.String())
	}
	if opts.Status != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("status = $%d", argIdx), string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return accrual.ErrPlanNotFound
	}
	return nil
}

func (s *Store) ArchivePlan(ctx context.Context, planID id.PlanID) error {
	t := now()
	res, err := s.pg.NewUpdate((*planModel)(nil)).
		Set("status = $1", string(plan.StatusArchived)).
		Set("updated_at = $2", t).
		Where("id = $3", planID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return accrual.ErrPlanNotFound
	}
	return nil
}

func (s *Store) CreateComponent(ctx context.Context, c *plan.Component) error {
	m := toComponentModel(c)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	if isUniqueViolation(err) {
		return accrual.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetComponent(ctx context.Context, offeringID id.OfferingID, componentType string) (*plan.Component, error) {
	m := new(componentModel)
	err := s.pg.NewSelect(m).
		Where("offering_id = $1", offeringID.String()).
		Where("type = $2", componentType).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, accrual.ErrComponentNotFound
		}
		return nil, err
	}
	return fromComponentModel(m)
}

func (s *Store) ListComponents(ctx context.Context, offeringID id.OfferingID) ([]*plan.Component, error) {
	var models []componentModel
	err := s.pg.NewSelect(&models).
		Where("offering_id = $1", offeringID.String()).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
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
	_, err := s.pg.NewInsert(m).Exec(ctx)
	if isUniqueViolation(err) {
		return accrual.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetResource(ctx context.Context, resourceID id.ResourceID) (*resource.Resource, error) {
	m := new(resourceModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", resourceID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, accrual.ErrResourceNotFound
		}
		return nil, err
	}
	return fromResourceModel(m)
}

func (s *Store) ListResources(ctx context.Context, opts resource.ListOpts) ([]*resource.Resource, error) {
	var models []resourceModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if !opts.CustomerID.IsNil() {
		argIdx++
		q = q.Where(fmt.Sprintf("customer_id = $%d", argIdx), opts.CustomerID.String())
	}
	if opts.State != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("state = $%d", argIdx), string(opts.State))
	}
	if opts.Billable {
		argIdx++
		first := argIdx
		argIdx++
		q = q.Where(fmt.Sprintf("state IN ($%d, $%d)", first, argIdx),
			string(resource.StateOK), string(resource.StateTerminating))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return accrual.ErrResourceNotFound
	}
	return nil
}

func (s *Store) CreatePlanPeriod(ctx context.Context, pp *resource.PlanPeriod) error {
	m := toPlanPeriodModel(pp)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	if isUniqueViolation(err) {
		return accrual.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetActivePlanPeriod(ctx context.Context, resourceID id.ResourceID) (*resource.PlanPeriod, error) {
	m := new(planPeriodModel)
	err := s.pg.NewSelect(m).
		Where("resource_id = $1", resourceID.String()).
		Where("end_time IS NULL").
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, accrual.ErrNoPlanPeriod
		}
		return nil, err
	}
	return fromPlanPeriodModel(m)
}

func (s *Store) ClosePlanPeriod(ctx context.Context, periodID id.PlanPeriodID, end time.Time) error {
	res, err := s.pg.NewUpdate((*planPeriodModel)(nil)).
		Set("end_time = $1", end).
		Set("updated_at = $2", now()).
		Where("id = $3", periodID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return accrual.ErrNoPlanPeriod
	}
	return nil
}

func (s *Store) ListPlanPeriods(ctx context.Context, resourceID id.ResourceID) ([]*resource.PlanPeriod, error) {
	var models []planPeriodModel
	err := s.pg.NewSelect(&models).
		Where("resource_id = $1", resourceID.String()).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
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
	m.UpdatedAt = now()
	_, err := s.pg.NewInsert(m).
		OnConflict("(resource_id, component_type, year, month) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("plan_period_id = EXCLUDED.plan_period_id").
		Set("recorded_at = EXCLUDED.recorded_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetUsageReport(ctx context.Context, resourceID id.ResourceID, componentType string, p period.Period) (*usage.Report, error) {
	m := new(usageReportModel)
	err := s.pg.NewSelect(m).
		Where("resource_id = $1", resourceID.String()).
		Where("component_type = $2", componentType).
		Where("year = $3", p.Year).
		Where("month = $4", int(p.Month)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, accrual.ErrNotFound
		}
		return nil, err
	}
	return fromUsageReportModel(m)
}

func (s *Store) ListUsageReports(ctx context.Context, resourceID id.ResourceID, p period.Period) ([]*usage.Report, error) {
	var models []usageReportModel
	err := s.pg.NewSelect(&models).
		Where("resource_id = $1", resourceID.String()).
		Where("year = $2", p.Year).
		Where("month = $3", int(p.Month)).
		OrderExpr("component_type ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
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
	res, err := s.pg.NewDelete((*usageReportModel)(nil)).
		Where("recorded_at < $1", before).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	m := toInvoiceModel(inv)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	if isUniqueViolation(err) {
		return accrual.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	m := new(invoiceModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", invID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, accrual.ErrInvoiceNotFound
		}
		return nil, err
	}
	return fromInvoiceModel(m)
}

func (s *Store) GetInvoiceByPeriod(ctx context.Context, customerID id.CustomerID, p period.Period) (*invoice.Invoice, error) {
	m := new(invoiceModel)
	err := s.pg.NewSelect(m).
		Where("customer_id = $1", customerID.String()).
		Where("year = $2", p.Year).
		Where("month = $3", int(p.Month)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, accrual.ErrInvoiceNotFound
		}
		return nil, err
	}
	return fromInvoiceModel(m)
}

func (s *Store) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if !opts.CustomerID.IsNil() {
		argIdx++
		q = q.Where(fmt.Sprintf("customer_id = $%d", argIdx), opts.CustomerID.String())
	}
	if opts.State != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("state = $%d", argIdx), string(opts.State))
	}
	if opts.Year != 0 {
		argIdx++
		q = q.Where(fmt.Sprintf("year = $%d", argIdx), opts.Year)
	}
	if opts.Month != 0 {
		argIdx++
		q = q.Where(fmt.Sprintf("month = $%d", argIdx), opts.Month)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return accrual.ErrInvoiceNotFound
	}
	return nil
}

func (s *Store) ListPendingInvoices(ctx context.Context) ([]*invoice.Invoice, error) {
	var models []invoiceModel
	err := s.pg.NewSelect(&models).
		Where("state = $1", string(invoice.StatePending)).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
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
	_, err := s.pg.NewInsert(m).Exec(ctx)
	if isUniqueViolation(err) {
		return accrual.ErrAlreadyExists
	}
	return err
}

func (s *Store) UpdateInvoiceItem(ctx context.Context, item *invoice.Item) error {
	if err := s.checkInvoiceMutable(ctx, item.InvoiceID); err != nil {
		return err
	}
	m := toInvoiceItemModel(item)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return accrual.ErrItemNotFound
	}
	return nil
}

func (s *Store) GetInvoiceItem(ctx context.Context, itemID id.InvoiceItemID) (*invoice.Item, error) {
	m := new(invoiceItemModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", itemID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, accrual.ErrItemNotFound
		}
		return nil, err
	}
	return fromInvoiceItemModel(m)
}

func (s *Store) ListInvoiceItems(ctx context.Context, invID id.InvoiceID) ([]*invoice.Item, error) {
	var models []invoiceItemModel
	err := s.pg.NewSelect(&models).
		Where("invoice_id = $1", invID.String()).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
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

// checkInvoiceMutable rejects item writes once the owning invoice has
// left the pending state.
func (s *Store) checkInvoiceMutable(ctx context.Context, invID id.InvoiceID) error {
	var state string
	err := s.pg.NewRaw(`SELECT state FROM accrual_invoices WHERE id = $1`, invID.String()).Scan(ctx, &state)
	if err != nil {
		if isNoRows(err) {
			return accrual.ErrInvoiceNotFound
		}
		return err
	}
	if invoice.State(state).Finalized() {
		return accrual.ErrInvoiceFinalized
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation matches PostgreSQL unique constraint errors
// (SQLSTATE 23505) without depending on the driver's error type.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
