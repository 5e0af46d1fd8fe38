package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/accrual/period"
	"github.com/xraph/accrual/plan"
	"github.com/xraph/accrual/types"
)

func july(day, hour, min, sec int) time.Time {
	return time.Date(2017, time.July, day, hour, min, sec, 0, time.UTC)
}

func TestQuantityPerDay(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       int64
	}{
		{"mid month to month end", july(14, 0, 0, 0), july(31, 23, 59, 59), 18},
		{"single hour bills one day", july(5, 10, 0, 0), july(5, 11, 0, 0), 1},
		{"exact two days", july(1, 0, 0, 0), july(3, 0, 0, 0), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quantity(plan.UnitPerDay, tt.start, tt.end)
			if !got.Equal(decimal.NewFromInt(tt.want)) {
				t.Errorf("Quantity = %s, want %d", got, tt.want)
			}
		})
	}
}

func TestQuantityPerHour(t *testing.T) {
	got := Quantity(plan.UnitPerHour, july(5, 10, 0, 0), july(5, 12, 30, 0))
	if !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Quantity = %s, want 3", got)
	}
}

func TestQuantityPerMonth(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       string
	}{
		{"full month", july(1, 0, 0, 0), july(31, 23, 59, 59), "1"},
		{"half of month", july(1, 0, 0, 0), july(15, 23, 59, 59), "0.48"},
		{"single day", july(10, 0, 0, 0), july(10, 23, 59, 59), "0.03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quantity(plan.UnitPerMonth, tt.start, tt.end)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Quantity = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestQuantityPerHalfMonth(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       string
	}{
		{"exact first half", july(1, 0, 0, 0), july(15, 23, 59, 59), "1"},
		{"exact second half", july(16, 0, 0, 0), july(31, 23, 59, 59), "1"},
		{"full month", july(1, 0, 0, 0), july(31, 23, 59, 59), "2"},
		{"within first half", july(3, 0, 0, 0), july(10, 0, 0, 0), "1"},
		{"within second half", july(20, 0, 0, 0), july(25, 0, 0, 0), "1"},
		{"interior touching both halves", july(10, 0, 0, 0), july(20, 23, 59, 59), "2"},
		{"month start into second half", july(1, 0, 0, 0), july(20, 23, 59, 59), "1.32"},
		{"first half through month end", july(10, 0, 0, 0), july(31, 23, 59, 59), "1.39"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quantity(plan.UnitPerHalfMonth, tt.start, tt.end)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Quantity = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestQuantityFlat(t *testing.T) {
	got := Quantity(plan.UnitQuantity, july(10, 0, 0, 0), july(20, 0, 0, 0))
	if !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Quantity = %s, want 1", got)
	}
}

func TestDailyItemTotal(t *testing.T) {
	// Resource created 2017-07-14, billed at 4.95 per day, terminated at
	// the last second of the month: 18 days for 89.10.
	qty := Quantity(plan.UnitPerDay, july(14, 0, 0, 0), july(31, 23, 59, 59))
	total := types.USD("4.95").Mul(qty).Quantize()
	if !total.Equal(types.USD("89.10")) {
		t.Errorf("total = %v, want 89.10", total)
	}
}

func TestPerDayPrice(t *testing.T) {
	p := period.Period{Year: 2017, Month: time.July}

	tests := []struct {
		name  string
		unit  plan.Unit
		price types.Money
		want  types.Money
	}{
		{"daily passes through", plan.UnitPerDay, types.USD("4.95"), types.USD("4.95")},
		{"monthly divided by days", plan.UnitPerMonth, types.USD("31"), types.USD("1")},
		{"half month divided by half days", plan.UnitPerHalfMonth, types.USD("15.5"), types.USD("1")},
		{"quantity has no daily price", plan.UnitQuantity, types.USD("9.99"), types.Zero("USD")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PerDayPrice(tt.unit, tt.price, p)
			if !got.Equal(tt.want) {
				t.Errorf("PerDayPrice = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUsageQuantity(t *testing.T) {
	cpu := &plan.Component{Type: "cpu", Factor: 60}

	got := UsageQuantity(cpu, decimal.NewFromInt(120))
	if !got.Equal(decimal.NewFromInt(2)) {
		t.Errorf("UsageQuantity(120 min) = %s, want 2", got)
	}

	if got := UsageQuantity(cpu, decimal.NewFromInt(-5)); !got.IsZero() {
		t.Errorf("negative usage should clamp to zero, got %s", got)
	}
}
