// Package audithook bridges accrual lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/accrual/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnPlanCreated        = (*Extension)(nil)
	_ plugin.OnPlanArchived       = (*Extension)(nil)
	_ plugin.OnResourceActivated  = (*Extension)(nil)
	_ plugin.OnResourceTerminated = (*Extension)(nil)
	_ plugin.OnPlanChanged        = (*Extension)(nil)
	_ plugin.OnInvoiceCreated     = (*Extension)(nil)
	_ plugin.OnInvoiceFinalized   = (*Extension)(nil)
	_ plugin.OnInvoicePaid        = (*Extension)(nil)
	_ plugin.OnInvoiceCanceled    = (*Extension)(nil)
	_ plugin.OnItemRegistered     = (*Extension)(nil)
	_ plugin.OnItemTerminated     = (*Extension)(nil)
	_ plugin.OnComponentSkipped   = (*Extension)(nil)
	_ plugin.OnUsageFlushed       = (*Extension)(nil)
	_ plugin.OnRecalcCompleted    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges accrual lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Plan lifecycle hooks
// ──────────────────────────────────────────────────

// OnPlanCreated implements plugin.OnPlanCreated.
func (e *Extension) OnPlanCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionPlanCreated, SeverityInfo, OutcomeSuccess,
		ResourcePlan, "", CategoryBilling, nil,
		"event", "plan_created",
	)
}

// OnPlanArchived implements plugin.OnPlanArchived.
func (e *Extension) OnPlanArchived(ctx context.Context, planID string) error {
	return e.record(ctx, ActionPlanArchived, SeverityInfo, OutcomeSuccess,
		ResourcePlan, planID, CategoryBilling, nil,
		"plan_id", planID,
	)
}

// ──────────────────────────────────────────────────
// Resource lifecycle hooks
// ──────────────────────────────────────────────────

// OnResourceActivated implements plugin.OnResourceActivated.
func (e *Extension) OnResourceActivated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionResourceActivated, SeverityInfo, OutcomeSuccess,
		ResourceResource, "", CategoryResource, nil,
		"event", "resource_activated",
	)
}

// OnResourceTerminated implements plugin.OnResourceTerminated.
func (e *Extension) OnResourceTerminated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionResourceTerminated, SeverityInfo, OutcomeSuccess,
		ResourceResource, "", CategoryResource, nil,
		"event", "resource_terminated",
	)
}

// OnPlanChanged implements plugin.OnPlanChanged.
func (e *Extension) OnPlanChanged(ctx context.Context, _ interface{}, oldPlanID, newPlanID string) error {
	return e.record(ctx, ActionPlanChanged, SeverityInfo, OutcomeSuccess,
		ResourceResource, "", CategoryResource, nil,
		"old_plan_id", oldPlanID,
		"new_plan_id", newPlanID,
	)
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated implements plugin.OnInvoiceCreated.
func (e *Extension) OnInvoiceCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionInvoiceCreated, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, "", CategoryPayment, nil,
		"event", "invoice_created",
	)
}

// OnInvoiceFinalized implements plugin.OnInvoiceFinalized.
func (e *Extension) OnInvoiceFinalized(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionInvoiceFinalized, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, "", CategoryPayment, nil,
		"event", "invoice_finalized",
	)
}

// OnInvoicePaid implements plugin.OnInvoicePaid.
func (e *Extension) OnInvoicePaid(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionInvoicePaid, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, "", CategoryPayment, nil,
		"event", "invoice_paid",
	)
}

// OnInvoiceCanceled implements plugin.OnInvoiceCanceled.
func (e *Extension) OnInvoiceCanceled(ctx context.Context, _ interface{}, reason string) error {
	return e.record(ctx, ActionInvoiceCanceled, SeverityWarning, OutcomeSuccess,
		ResourceInvoice, "", CategoryPayment, nil,
		"event", "invoice_canceled",
		"cancel_reason", reason,
	)
}

// ──────────────────────────────────────────────────
// Invoice item hooks
// ──────────────────────────────────────────────────

// OnItemRegistered implements plugin.OnItemRegistered.
func (e *Extension) OnItemRegistered(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionItemRegistered, SeverityInfo, OutcomeSuccess,
		ResourceItem, "", CategoryBilling, nil,
		"event", "item_registered",
	)
}

// OnItemTerminated implements plugin.OnItemTerminated.
func (e *Extension) OnItemTerminated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionItemTerminated, SeverityInfo, OutcomeSuccess,
		ResourceItem, "", CategoryBilling, nil,
		"event", "item_terminated",
	)
}

// OnComponentSkipped implements plugin.OnComponentSkipped.
// A skipped component means a billable charge was silently dropped,
// which is worth surfacing in the audit trail.
func (e *Extension) OnComponentSkipped(ctx context.Context, resourceID, componentType string) error {
	return e.record(ctx, ActionComponentSkipped, SeverityWarning, OutcomePartial,
		ResourceItem, resourceID, CategoryBilling, nil,
		"resource_id", resourceID,
		"component_type", componentType,
	)
}

// ──────────────────────────────────────────────────
// Usage and recalculation hooks
// ──────────────────────────────────────────────────

// OnUsageFlushed implements plugin.OnUsageFlushed.
func (e *Extension) OnUsageFlushed(ctx context.Context, count int, elapsed time.Duration) error {
	return e.record(ctx, ActionUsageFlushed, SeverityInfo, OutcomeSuccess,
		ResourceUsage, "", CategoryUsage, nil,
		"count", count,
		"elapsed", elapsed.String(),
	)
}

// OnRecalcCompleted implements plugin.OnRecalcCompleted.
func (e *Extension) OnRecalcCompleted(ctx context.Context, customers, failures int, elapsed time.Duration) error {
	severity := SeverityInfo
	outcome := OutcomeSuccess
	if failures > 0 {
		severity = SeverityError
		outcome = OutcomePartial
	}
	return e.record(ctx, ActionRecalcCompleted, severity, outcome,
		ResourceRecalc, "", CategoryBilling, nil,
		"customers", customers,
		"failures", failures,
		"elapsed", elapsed.String(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
