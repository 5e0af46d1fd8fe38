// Package id defines TypeID-based identity types for all Accrual entities.
//
// Every entity in Accrual uses a single ID struct with a prefix that identifies
// the entity type. IDs are K-sortable (UUIDv7-based), globally unique,
// and URL-safe in the format "prefix_suffix".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all Accrual entity types.
const (
	PrefixCustomer      Prefix = "cust"  // Billing customer (organization)
	PrefixProject       Prefix = "proj"  // Project a resource belongs to
	PrefixPlan          Prefix = "plan"  // Pricing plan
	PrefixComponent     Prefix = "comp"  // Offering component
	PrefixPlanComponent Prefix = "pcomp" // Per-plan component price
	PrefixResource      Prefix = "res"   // Billed resource
	PrefixOffering      Prefix = "off"   // Marketplace offering
	PrefixPlanPeriod    Prefix = "pp"    // Resource plan period
	PrefixUsageReport   Prefix = "use"   // Component usage report
	PrefixInvoice       Prefix = "inv"   // Invoice
	PrefixInvoiceItem   Prefix = "item"  // Invoice item
)

// ID is the primary identifier type for all Accrual entities.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "inv_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// MustParseWithPrefix is like ParseWithPrefix but panics on error.
func MustParseWithPrefix(s string, expected Prefix) ID {
	parsed, err := ParseWithPrefix(s, expected)
	if err != nil {
		panic(fmt.Sprintf("id: must parse with prefix %q: %v", expected, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Type aliases per entity
// ──────────────────────────────────────────────────

// CustomerID is a type-safe identifier for customers (prefix: "cust").
type CustomerID = ID

// ProjectID is a type-safe identifier for projects (prefix: "proj").
type ProjectID = ID

// PlanID is a type-safe identifier for plans (prefix: "plan").
type PlanID = ID

// ComponentID is a type-safe identifier for offering components (prefix: "comp").
type ComponentID = ID

// PlanComponentID is a type-safe identifier for plan components (prefix: "pcomp").
type PlanComponentID = ID

// ResourceID is a type-safe identifier for resources (prefix: "res").
type ResourceID = ID

// OfferingID is a type-safe identifier for offerings (prefix: "off").
type OfferingID = ID

// PlanPeriodID is a type-safe identifier for resource plan periods (prefix: "pp").
type PlanPeriodID = ID

// UsageReportID is a type-safe identifier for usage reports (prefix: "use").
type UsageReportID = ID

// InvoiceID is a type-safe identifier for invoices (prefix: "inv").
type InvoiceID = ID

// InvoiceItemID is a type-safe identifier for invoice items (prefix: "item").
type InvoiceItemID = ID

// AnyID is a type alias that accepts any valid prefix.
type AnyID = ID

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewCustomerID generates a new unique customer ID.
func NewCustomerID() ID { return New(PrefixCustomer) }

// NewProjectID generates a new unique project ID.
func NewProjectID() ID { return New(PrefixProject) }

// NewPlanID generates a new unique plan ID.
func NewPlanID() ID { return New(PrefixPlan) }

// NewComponentID generates a new unique offering component ID.
func NewComponentID() ID { return New(PrefixComponent) }

// NewPlanComponentID generates a new unique plan component ID.
func NewPlanComponentID() ID { return New(PrefixPlanComponent) }

// NewResourceID generates a new unique resource ID.
func NewResourceID() ID { return New(PrefixResource) }

// NewOfferingID generates a new unique offering ID.
func NewOfferingID() ID { return New(PrefixOffering) }

// NewPlanPeriodID generates a new unique plan period ID.
func NewPlanPeriodID() ID { return New(PrefixPlanPeriod) }

// NewUsageReportID generates a new unique usage report ID.
func NewUsageReportID() ID { return New(PrefixUsageReport) }

// NewInvoiceID generates a new unique invoice ID.
func NewInvoiceID() ID { return New(PrefixInvoice) }

// NewInvoiceItemID generates a new unique invoice item ID.
func NewInvoiceItemID() ID { return New(PrefixInvoiceItem) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParseCustomerID parses a string and validates the "cust" prefix.
func ParseCustomerID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCustomer) }

// ParseProjectID parses a string and validates the "proj" prefix.
func ParseProjectID(s string) (ID, error) { return ParseWithPrefix(s, PrefixProject) }

// ParsePlanID parses a string and validates the "plan" prefix.
func ParsePlanID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPlan) }

// ParseComponentID parses a string and validates the "comp" prefix.
func ParseComponentID(s string) (ID, error) { return ParseWithPrefix(s, PrefixComponent) }

// ParsePlanComponentID parses a string and validates the "pcomp" prefix.
func ParsePlanComponentID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPlanComponent) }

// ParseResourceID parses a string and validates the "res" prefix.
func ParseResourceID(s string) (ID, error) { return ParseWithPrefix(s, PrefixResource) }

// ParseOfferingID parses a string and validates the "off" prefix.
func ParseOfferingID(s string) (ID, error) { return ParseWithPrefix(s, PrefixOffering) }

// ParsePlanPeriodID parses a string and validates the "pp" prefix.
func ParsePlanPeriodID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPlanPeriod) }

// ParseUsageReportID parses a string and validates the "use" prefix.
func ParseUsageReportID(s string) (ID, error) { return ParseWithPrefix(s, PrefixUsageReport) }

// ParseInvoiceID parses a string and validates the "inv" prefix.
func ParseInvoiceID(s string) (ID, error) { return ParseWithPrefix(s, PrefixInvoice) }

// ParseInvoiceItemID parses a string and validates the "item" prefix.
func ParseInvoiceItemID(s string) (ID, error) { return ParseWithPrefix(s, PrefixInvoiceItem) }

// ParseAny parses a string into an ID without type checking the prefix.
func ParseAny(s string) (ID, error) { return Parse(s) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
