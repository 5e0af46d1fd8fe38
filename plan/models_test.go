package plan

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xraph/accrual/types"
)

func TestUnitValid(t *testing.T) {
	valid := []Unit{UnitPerDay, UnitPerHour, UnitPerHalfMonth, UnitPerMonth, UnitQuantity}
	for _, u := range valid {
		if !u.Valid() {
			t.Errorf("Unit(%q).Valid() = false", u)
		}
	}
	if Unit("weekly").Valid() {
		t.Error("unknown unit should not be valid")
	}
}

func TestBillingTypeValid(t *testing.T) {
	valid := []BillingType{BillingFixed, BillingUsage, BillingOneTime, BillingLimit}
	for _, b := range valid {
		if !b.Valid() {
			t.Errorf("BillingType(%q).Valid() = false", b)
		}
	}
	if BillingType("metered").Valid() {
		t.Error("unknown billing type should not be valid")
	}
}

func TestComponentConvertUsage(t *testing.T) {
	tests := []struct {
		name   string
		factor int64
		amount string
		want   string
	}{
		{"minutes to hours", 60, "120", "2"},
		{"factor one passes through", 1, "42.5", "42.5"},
		{"factor zero passes through", 0, "7", "7"},
		{"fractional result", 60, "90", "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Component{Type: "cpu", Factor: tt.factor}
			got := c.ConvertUsage(decimal.RequireFromString(tt.amount))
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ConvertUsage(%s) = %s, want %s", tt.amount, got, tt.want)
			}
		})
	}
}

func TestPlanFindComponent(t *testing.T) {
	p := &Plan{
		Name: "Standard",
		Unit: UnitPerDay,
		Components: []PlanComponent{
			{ComponentType: "cpu", Price: types.USD("4.95")},
			{ComponentType: "ram", Price: types.USD("1.20")},
		},
	}

	pc := p.FindComponent("ram")
	if pc == nil {
		t.Fatal("FindComponent(ram) = nil")
	}
	if !pc.Price.Equal(types.USD("1.20")) {
		t.Errorf("price = %v", pc.Price)
	}

	if p.FindComponent("gpu") != nil {
		t.Error("FindComponent(gpu) should be nil")
	}
}

func TestPlanIsArchived(t *testing.T) {
	p := &Plan{Status: StatusActive}
	if p.IsArchived() {
		t.Error("active plan reported archived")
	}
	p.Status = StatusArchived
	if !p.IsArchived() {
		t.Error("archived plan not reported")
	}
}
