// Package observability provides a metrics extension for the accrual engine
// that records lifecycle event counts via go-utils MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/accrual/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnPlanCreated        = (*MetricsExtension)(nil)
	_ plugin.OnPlanArchived       = (*MetricsExtension)(nil)
	_ plugin.OnResourceActivated  = (*MetricsExtension)(nil)
	_ plugin.OnResourceTerminated = (*MetricsExtension)(nil)
	_ plugin.OnPlanChanged        = (*MetricsExtension)(nil)
	_ plugin.OnUsageApplied       = (*MetricsExtension)(nil)
	_ plugin.OnUsageFlushed       = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceCreated     = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceFinalized   = (*MetricsExtension)(nil)
	_ plugin.OnInvoicePaid        = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceCanceled    = (*MetricsExtension)(nil)
	_ plugin.OnItemRegistered     = (*MetricsExtension)(nil)
	_ plugin.OnItemTerminated     = (*MetricsExtension)(nil)
	_ plugin.OnComponentSkipped   = (*MetricsExtension)(nil)
	_ plugin.OnRecalcCompleted    = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as an accrual plugin to automatically track billing metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Plan metrics
	PlanCreated  Counter
	PlanArchived Counter

	// Resource metrics
	ResourceActivated  Counter
	ResourceTerminated Counter
	PlanChanged        Counter

	// Usage metrics
	UsageReportsApplied Counter
	UsageBatchSize      Histogram
	UsageFlushLatency   Histogram

	// Invoice metrics
	InvoiceCreated   Counter
	InvoiceFinalized Counter
	InvoicePaid      Counter
	InvoiceCanceled  Counter

	// Invoice item metrics
	ItemsRegistered   Counter
	ItemsTerminated   Counter
	ComponentsSkipped Counter

	// Recalculation metrics
	RecalcCustomers Histogram
	RecalcFailures  Counter
	RecalcLatency   Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Plan metrics
		PlanCreated:  factory.Counter("accrual.plan.created"),
		PlanArchived: factory.Counter("accrual.plan.archived"),

		// Resource metrics
		ResourceActivated:  factory.Counter("accrual.resource.activated"),
		ResourceTerminated: factory.Counter("accrual.resource.terminated"),
		PlanChanged:        factory.Counter("accrual.resource.plan_changed"),

		// Usage metrics
		UsageReportsApplied: factory.Counter("accrual.usage.reports.applied"),
		UsageBatchSize:      factory.Histogram("accrual.usage.batch.size"),
		UsageFlushLatency:   factory.Histogram("accrual.usage.flush.latency_ms"),

		// Invoice metrics
		InvoiceCreated:   factory.Counter("accrual.invoice.created"),
		InvoiceFinalized: factory.Counter("accrual.invoice.finalized"),
		InvoicePaid:      factory.Counter("accrual.invoice.paid"),
		InvoiceCanceled:  factory.Counter("accrual.invoice.canceled"),

		// Invoice item metrics
		ItemsRegistered:   factory.Counter("accrual.item.registered"),
		ItemsTerminated:   factory.Counter("accrual.item.terminated"),
		ComponentsSkipped: factory.Counter("accrual.component.skipped"),

		// Recalculation metrics
		RecalcCustomers: factory.Histogram("accrual.recalc.customers"),
		RecalcFailures:  factory.Counter("accrual.recalc.failures"),
		RecalcLatency:   factory.Histogram("accrual.recalc.latency_ms"),

		// Error metrics
		StoreErrors:  factory.Counter("accrual.store.errors"),
		PluginErrors: factory.Counter("accrual.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Plan lifecycle hooks
// ──────────────────────────────────────────────────

// OnPlanCreated implements plugin.OnPlanCreated.
func (m *MetricsExtension) OnPlanCreated(_ context.Context, _ interface{}) error {
	m.PlanCreated.Inc()
	return nil
}

// OnPlanArchived implements plugin.OnPlanArchived.
func (m *MetricsExtension) OnPlanArchived(_ context.Context, _ string) error {
	m.PlanArchived.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Resource lifecycle hooks
// ──────────────────────────────────────────────────

// OnResourceActivated implements plugin.OnResourceActivated.
func (m *MetricsExtension) OnResourceActivated(_ context.Context, _ interface{}) error {
	m.ResourceActivated.Inc()
	return nil
}

// OnResourceTerminated implements plugin.OnResourceTerminated.
func (m *MetricsExtension) OnResourceTerminated(_ context.Context, _ interface{}) error {
	m.ResourceTerminated.Inc()
	return nil
}

// OnPlanChanged implements plugin.OnPlanChanged.
func (m *MetricsExtension) OnPlanChanged(_ context.Context, _ interface{}, _, _ string) error {
	m.PlanChanged.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Usage lifecycle hooks
// ──────────────────────────────────────────────────

// OnUsageApplied implements plugin.OnUsageApplied.
func (m *MetricsExtension) OnUsageApplied(_ context.Context, _ interface{}) error {
	m.UsageReportsApplied.Inc()
	return nil
}

// OnUsageFlushed implements plugin.OnUsageFlushed.
func (m *MetricsExtension) OnUsageFlushed(_ context.Context, count int, elapsed time.Duration) error {
	m.UsageBatchSize.Observe(float64(count))
	m.UsageFlushLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated implements plugin.OnInvoiceCreated.
func (m *MetricsExtension) OnInvoiceCreated(_ context.Context, _ interface{}) error {
	m.InvoiceCreated.Inc()
	return nil
}

// OnInvoiceFinalized implements plugin.OnInvoiceFinalized.
func (m *MetricsExtension) OnInvoiceFinalized(_ context.Context, _ interface{}) error {
	m.InvoiceFinalized.Inc()
	return nil
}

// OnInvoicePaid implements plugin.OnInvoicePaid.
func (m *MetricsExtension) OnInvoicePaid(_ context.Context, _ interface{}) error {
	m.InvoicePaid.Inc()
	return nil
}

// OnInvoiceCanceled implements plugin.OnInvoiceCanceled.
func (m *MetricsExtension) OnInvoiceCanceled(_ context.Context, _ interface{}, _ string) error {
	m.InvoiceCanceled.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Invoice item hooks
// ──────────────────────────────────────────────────

// OnItemRegistered implements plugin.OnItemRegistered.
func (m *MetricsExtension) OnItemRegistered(_ context.Context, _ interface{}) error {
	m.ItemsRegistered.Inc()
	return nil
}

// OnItemTerminated implements plugin.OnItemTerminated.
func (m *MetricsExtension) OnItemTerminated(_ context.Context, _ interface{}) error {
	m.ItemsTerminated.Inc()
	return nil
}

// OnComponentSkipped implements plugin.OnComponentSkipped.
func (m *MetricsExtension) OnComponentSkipped(_ context.Context, _, _ string) error {
	m.ComponentsSkipped.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Recalculation hooks
// ──────────────────────────────────────────────────

// OnRecalcCompleted implements plugin.OnRecalcCompleted.
func (m *MetricsExtension) OnRecalcCompleted(_ context.Context, customers, failures int, elapsed time.Duration) error {
	m.RecalcCustomers.Observe(float64(customers))
	if failures > 0 {
		m.RecalcFailures.Add(float64(failures))
	}
	m.RecalcLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
