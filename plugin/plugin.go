// Package plugin provides an extensible plugin system for the accrual
// engine. Plugins hook into billing lifecycle events; they observe the
// pipeline and must never block it.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Plan lifecycle hooks
// ──────────────────────────────────────────────────

// OnPlanCreated is called when a new plan is created.
type OnPlanCreated interface {
	Plugin
	OnPlanCreated(ctx context.Context, plan interface{}) error
}

// OnPlanArchived is called when a plan is archived.
type OnPlanArchived interface {
	Plugin
	OnPlanArchived(ctx context.Context, planID string) error
}

// ──────────────────────────────────────────────────
// Resource lifecycle hooks
// ──────────────────────────────────────────────────

// OnResourceActivated is called when a resource enters a billable state.
type OnResourceActivated interface {
	Plugin
	OnResourceActivated(ctx context.Context, res interface{}) error
}

// OnResourceTerminated is called when a resource is terminated.
type OnResourceTerminated interface {
	Plugin
	OnResourceTerminated(ctx context.Context, res interface{}) error
}

// OnPlanChanged is called when a resource switches billing plans.
type OnPlanChanged interface {
	Plugin
	OnPlanChanged(ctx context.Context, res interface{}, oldPlanID, newPlanID string) error
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated is called when a month's invoice is created.
type OnInvoiceCreated interface {
	Plugin
	OnInvoiceCreated(ctx context.Context, inv interface{}) error
}

// OnInvoiceFinalized is called when a pending invoice is finalized.
type OnInvoiceFinalized interface {
	Plugin
	OnInvoiceFinalized(ctx context.Context, inv interface{}) error
}

// OnInvoicePaid is called when an invoice is paid.
type OnInvoicePaid interface {
	Plugin
	OnInvoicePaid(ctx context.Context, inv interface{}) error
}

// OnInvoiceCanceled is called when an invoice is canceled.
type OnInvoiceCanceled interface {
	Plugin
	OnInvoiceCanceled(ctx context.Context, inv interface{}, reason string) error
}

// ──────────────────────────────────────────────────
// Invoice item hooks
// ──────────────────────────────────────────────────

// OnItemRegistered is called when a new invoice item is opened.
type OnItemRegistered interface {
	Plugin
	OnItemRegistered(ctx context.Context, item interface{}) error
}

// OnItemTerminated is called when an open invoice item is closed.
type OnItemTerminated interface {
	Plugin
	OnItemTerminated(ctx context.Context, item interface{}) error
}

// OnComponentSkipped is called when a billed component has no matching
// plan price and its charge is skipped.
type OnComponentSkipped interface {
	Plugin
	OnComponentSkipped(ctx context.Context, resourceID, componentType string) error
}

// ──────────────────────────────────────────────────
// Usage hooks
// ──────────────────────────────────────────────────

// OnUsageApplied is called when a usage report is folded into an invoice.
type OnUsageApplied interface {
	Plugin
	OnUsageApplied(ctx context.Context, report interface{}) error
}

// OnUsageFlushed is called when buffered usage events are flushed to the store.
type OnUsageFlushed interface {
	Plugin
	OnUsageFlushed(ctx context.Context, count int, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Recalculation hooks
// ──────────────────────────────────────────────────

// OnRecalcCompleted is called after a recalculation run finishes.
type OnRecalcCompleted interface {
	Plugin
	OnRecalcCompleted(ctx context.Context, customers int, failures int, elapsed time.Duration) error
}
