package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/accrual/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"CustomerID", id.NewCustomerID, "cust_"},
		{"ProjectID", id.NewProjectID, "proj_"},
		{"PlanID", id.NewPlanID, "plan_"},
		{"ComponentID", id.NewComponentID, "comp_"},
		{"PlanComponentID", id.NewPlanComponentID, "pcomp_"},
		{"ResourceID", id.NewResourceID, "res_"},
		{"OfferingID", id.NewOfferingID, "off_"},
		{"PlanPeriodID", id.NewPlanPeriodID, "pp_"},
		{"UsageReportID", id.NewUsageReportID, "use_"},
		{"InvoiceID", id.NewInvoiceID, "inv_"},
		{"InvoiceItemID", id.NewInvoiceItemID, "item_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixPlan)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixPlan {
		t.Errorf("expected prefix %q, got %q", id.PrefixPlan, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"CustomerID", id.NewCustomerID, id.ParseCustomerID},
		{"ProjectID", id.NewProjectID, id.ParseProjectID},
		{"PlanID", id.NewPlanID, id.ParsePlanID},
		{"ComponentID", id.NewComponentID, id.ParseComponentID},
		{"PlanComponentID", id.NewPlanComponentID, id.ParsePlanComponentID},
		{"ResourceID", id.NewResourceID, id.ParseResourceID},
		{"OfferingID", id.NewOfferingID, id.ParseOfferingID},
		{"PlanPeriodID", id.NewPlanPeriodID, id.ParsePlanPeriodID},
		{"UsageReportID", id.NewUsageReportID, id.ParseUsageReportID},
		{"InvoiceID", id.NewInvoiceID, id.ParseInvoiceID},
		{"InvoiceItemID", id.NewInvoiceItemID, id.ParseInvoiceItemID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		parseFn func(string) (id.ID, error)
	}{
		{"ParseCustomerID rejects proj_", id.NewProjectID().String(), id.ParseCustomerID},
		{"ParseProjectID rejects plan_", id.NewPlanID().String(), id.ParseProjectID},
		{"ParsePlanID rejects comp_", id.NewComponentID().String(), id.ParsePlanID},
		{"ParseComponentID rejects pcomp_", id.NewPlanComponentID().String(), id.ParseComponentID},
		{"ParsePlanComponentID rejects res_", id.NewResourceID().String(), id.ParsePlanComponentID},
		{"ParseResourceID rejects pp_", id.NewPlanPeriodID().String(), id.ParseResourceID},
		{"ParsePlanPeriodID rejects use_", id.NewUsageReportID().String(), id.ParsePlanPeriodID},
		{"ParseUsageReportID rejects inv_", id.NewInvoiceID().String(), id.ParseUsageReportID},
		{"ParseInvoiceID rejects item_", id.NewInvoiceItemID().String(), id.ParseInvoiceID},
		{"ParseInvoiceItemID rejects cust_", id.NewCustomerID().String(), id.ParseInvoiceItemID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parseFn(tt.input)
			if err == nil {
				t.Errorf("expected error for cross-type parse of %q, got nil", tt.input)
			}
		})
	}
}

func TestParseAny(t *testing.T) {
	ids := []id.ID{
		id.NewCustomerID(),
		id.NewProjectID(),
		id.NewPlanID(),
		id.NewComponentID(),
		id.NewPlanComponentID(),
		id.NewResourceID(),
		id.NewOfferingID(),
		id.NewPlanPeriodID(),
		id.NewUsageReportID(),
		id.NewInvoiceID(),
		id.NewInvoiceItemID(),
	}

	for _, i := range ids {
		t.Run(i.String(), func(t *testing.T) {
			parsed, err := id.ParseAny(i.String())
			if err != nil {
				t.Fatalf("ParseAny(%q) failed: %v", i.String(), err)
			}
			if parsed.String() != i.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), i.String())
			}
		})
	}
}

func TestParseWithPrefix(t *testing.T) {
	i := id.NewPlanID()
	parsed, err := id.ParseWithPrefix(i.String(), id.PrefixPlan)
	if err != nil {
		t.Fatalf("ParseWithPrefix failed: %v", err)
	}
	if parsed.String() != i.String() {
		t.Errorf("mismatch: %q != %q", parsed.String(), i.String())
	}

	_, err = id.ParseWithPrefix(i.String(), id.PrefixResource)
	if err == nil {
		t.Error("expected error for wrong prefix")
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := id.Parse("")
	if err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestMarshalUnmarshalText(t *testing.T) {
	original := id.NewPlanID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	var restored id.ID
	if unmarshalErr := restored.UnmarshalText(data); unmarshalErr != nil {
		t.Fatalf("UnmarshalText failed: %v", unmarshalErr)
	}
	if restored.String() != original.String() {
		t.Errorf("mismatch: %q != %q", restored.String(), original.String())
	}

	// Nil round-trip.
	var nilID id.ID
	data, err = nilID.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText(nil) failed: %v", err)
	}
	var restored2 id.ID
	if err := restored2.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText(nil) failed: %v", err)
	}
	if !restored2.IsNil() {
		t.Error("expected nil after round-trip of nil ID")
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewResourceID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if scanErr := scanned.Scan(val); scanErr != nil {
		t.Fatalf("Scan failed: %v", scanErr)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	// Nil round-trip.
	var nilID id.ID
	val, err = nilID.Value()
	if err != nil {
		t.Fatalf("Value(nil) failed: %v", err)
	}
	if val != nil {
		t.Errorf("expected nil value for nil ID, got %v", val)
	}

	var scanned2 id.ID
	if err := scanned2.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if !scanned2.IsNil() {
		t.Error("expected nil after scan of nil")
	}
}

func TestUniqueness(t *testing.T) {
	a := id.NewPlanID()
	b := id.NewPlanID()
	if a.String() == b.String() {
		t.Errorf("two consecutive NewPlanID() calls returned the same ID: %q", a.String())
	}
}
