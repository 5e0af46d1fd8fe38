package audithook

// Action constants for audit events.
const (
	// Plan actions
	ActionPlanCreated  = "plan.created"
	ActionPlanArchived = "plan.archived"

	// Resource actions
	ActionResourceActivated  = "resource.activated"
	ActionResourceTerminated = "resource.terminated"
	ActionPlanChanged        = "resource.plan_changed"

	// Usage actions
	ActionUsageApplied = "usage.applied"
	ActionUsageFlushed = "usage.flushed"

	// Invoice actions
	ActionInvoiceCreated   = "invoice.created"
	ActionInvoiceFinalized = "invoice.finalized"
	ActionInvoicePaid      = "invoice.paid"
	ActionInvoiceCanceled  = "invoice.canceled"

	// Invoice item actions
	ActionItemRegistered   = "item.registered"
	ActionItemTerminated   = "item.terminated"
	ActionComponentSkipped = "component.skipped"

	// Recalculation actions
	ActionRecalcCompleted = "recalc.completed"
)

// Resource constants for audit events.
const (
	ResourcePlan     = "plan"
	ResourceResource = "resource"
	ResourceUsage    = "usage"
	ResourceInvoice  = "invoice"
	ResourceItem     = "invoice_item"
	ResourceRecalc   = "recalculation"
)

// Category constants for audit events.
const (
	CategoryBilling  = "billing"
	CategoryResource = "resource"
	CategoryUsage    = "usage"
	CategoryPayment  = "payment"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
