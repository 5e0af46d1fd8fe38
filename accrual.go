package accrual

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/accrual/customer"
	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/invoice"
	"github.com/xraph/accrual/period"
	"github.com/xraph/accrual/plan"
	"github.com/xraph/accrual/plugin"
	"github.com/xraph/accrual/resource"
	"github.com/xraph/accrual/store"
	"github.com/xraph/accrual/types"
	"github.com/xraph/accrual/usage"
)

// Engine is the billing accrual engine. It reacts to resource lifecycle
// events, folds reported usage into invoices, and keeps each customer's
// monthly invoice consistent with resource uptime.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Background workers
	usageBuffer chan *usage.Event
	stopChan    chan struct{}
	wg          sync.WaitGroup

	// Configuration
	usageBatchSize     int
	usageFlushInterval time.Duration
	recalcInterval     time.Duration
	paymentTermDays    int
	now                func() time.Time
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:              s,
		plugins:            plugin.NewRegistry(),
		logger:             slog.Default(),
		usageBuffer:        make(chan *usage.Event, 10000),
		stopChan:           make(chan struct{}),
		usageBatchSize:     100,
		usageFlushInterval: 5 * time.Second,
		recalcInterval:     time.Hour,
		paymentTermDays:    30,
		now:                func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithUsageConfig configures usage ingestion parameters.
func WithUsageConfig(batchSize int, flushInterval time.Duration) Option {
	return func(e *Engine) {
		e.usageBatchSize = batchSize
		e.usageFlushInterval = flushInterval
	}
}

// WithRecalcInterval sets how often the accrual recalculation runs.
// Zero disables the periodic worker; RunRecalculation can still be
// called directly.
func WithRecalcInterval(interval time.Duration) Option {
	return func(e *Engine) {
		e.recalcInterval = interval
	}
}

// WithPaymentTerm sets the number of days between an invoice being
// finalized and its due date.
func WithPaymentTerm(days int) Option {
	return func(e *Engine) {
		e.paymentTermDays = days
	}
}

// WithClock overrides the engine's time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Start begins background workers.
func (e *Engine) Start(ctx context.Context) error {
	// Migrate database
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	// Initialize plugins
	e.plugins.EmitInit(ctx, e)

	// Start usage flush worker
	e.wg.Add(1)
	go e.usageFlushWorker(ctx)

	// Start periodic recalculation
	if e.recalcInterval > 0 {
		e.wg.Add(1)
		go e.recalcWorker(ctx)
	}

	e.logger.Info("accrual engine started",
		"usage_batch_size", e.usageBatchSize,
		"usage_flush_interval", e.usageFlushInterval,
		"recalc_interval", e.recalcInterval,
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	close(e.stopChan)
	e.wg.Wait()

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// recalcWorker triggers the accrual recalculation on a fixed interval.
func (e *Engine) recalcWorker(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.recalcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			if err := e.RunRecalculation(ctx); err != nil {
				e.logger.Error("scheduled recalculation finished with failures",
					"error", err,
				)
			}
		}
	}
}

// ──────────────────────────────────────────────────
// Customer Management
// ──────────────────────────────────────────────────

// CreateCustomer creates a new billing customer.
func (e *Engine) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	if c.ID.IsNil() {
		c.ID = id.NewCustomerID()
	}
	if c.Currency == "" {
		return ValidationError{Field: "currency", Message: "must not be empty"}
	}
	c.Entity = types.NewEntity()

	return e.store.CreateCustomer(ctx, c)
}

// GetCustomer retrieves a customer by ID.
func (e *Engine) GetCustomer(ctx context.Context, customerID id.CustomerID) (*customer.Customer, error) {
	return e.store.GetCustomer(ctx, customerID)
}

// ──────────────────────────────────────────────────
// Plan Management
// ──────────────────────────────────────────────────

// CreatePlan creates a new billing plan.
func (e *Engine) CreatePlan(ctx context.Context, p *plan.Plan) error {
	if !p.Unit.Valid() {
		return ValidationError{Field: "unit", Message: "unknown billing unit"}
	}
	if p.ID.IsNil() {
		p.ID = id.NewPlanID()
	}
	if p.Status == "" {
		p.Status = plan.StatusActive
	}
	seen := make(map[string]bool, len(p.Components))
	for i := range p.Components {
		pc := &p.Components[i]
		if seen[pc.ComponentType] {
			return ErrDuplicateComponent
		}
		seen[pc.ComponentType] = true
		if pc.ID.IsNil() {
			pc.ID = id.NewPlanComponentID()
		}
		pc.PlanID = p.ID
		if pc.Price.IsNegative() {
			return ValidationError{Field: "price", Message: "must not be negative"}
		}
	}
	p.Entity = types.NewEntity()

	if err := e.store.CreatePlan(ctx, p); err != nil {
		return err
	}

	e.plugins.EmitPlanCreated(ctx, p)
	return nil
}

// GetPlan retrieves a plan by ID.
func (e *Engine) GetPlan(ctx context.Context, planID id.PlanID) (*plan.Plan, error) {
	return e.store.GetPlan(ctx, planID)
}

// ArchivePlan retires a plan. Prices on archived plans never change, so
// historical invoice items stay reproducible; a price change means
// archiving the old plan and creating a new one.
func (e *Engine) ArchivePlan(ctx context.Context, planID id.PlanID) error {
	if err := e.store.ArchivePlan(ctx, planID); err != nil {
		return err
	}
	e.plugins.EmitPlanArchived(ctx, planID.String())
	return nil
}

// CreateComponent registers a billable offering component.
func (e *Engine) CreateComponent(ctx context.Context, c *plan.Component) error {
	if !c.BillingType.Valid() {
		return ValidationError{Field: "billing_type", Message: "unknown billing type"}
	}
	if c.Type == "" {
		return ValidationError{Field: "type", Message: "must not be empty"}
	}
	if c.ID.IsNil() {
		c.ID = id.NewComponentID()
	}
	c.Entity = types.NewEntity()

	return e.store.CreateComponent(ctx, c)
}

// ──────────────────────────────────────────────────
// Resource Management
// ──────────────────────────────────────────────────

// CreateResource registers a resource with the billing engine. The
// resource starts in the creating state and accrues nothing until it is
// activated.
func (e *Engine) CreateResource(ctx context.Context, r *resource.Resource) error {
	if r.ID.IsNil() {
		r.ID = id.NewResourceID()
	}
	if r.State == "" {
		r.State = resource.StateCreating
	}
	r.Entity = types.NewEntity()

	return e.store.CreateResource(ctx, r)
}

// GetResource retrieves a resource by ID.
func (e *Engine) GetResource(ctx context.Context, resourceID id.ResourceID) (*resource.Resource, error) {
	return e.store.GetResource(ctx, resourceID)
}

// ──────────────────────────────────────────────────
// Invoice reads
// ──────────────────────────────────────────────────

// GetInvoice retrieves an invoice with its items.
func (e *Engine) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	return e.store.GetInvoice(ctx, invID)
}

// GetInvoiceByPeriod retrieves a customer's invoice for one month.
func (e *Engine) GetInvoiceByPeriod(ctx context.Context, customerID id.CustomerID, p period.Period) (*invoice.Invoice, error) {
	return e.store.GetInvoiceByPeriod(ctx, customerID, p)
}

// ListInvoices lists invoices matching the options.
func (e *Engine) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	return e.store.ListInvoices(ctx, opts)
}
