package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/plan"
	"github.com/xraph/accrual/types"
)

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StatePending, StateCreated, true},
		{StatePending, StateCanceled, true},
		{StatePending, StatePaid, false},
		{StateCreated, StatePaid, true},
		{StateCreated, StateCanceled, true},
		{StateCreated, StatePending, false},
		{StatePaid, StateCanceled, false},
		{StateCanceled, StatePending, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStateFinalized(t *testing.T) {
	if StatePending.Finalized() {
		t.Error("pending should not be finalized")
	}
	for _, s := range []State{StateCreated, StatePaid, StateCanceled} {
		if !s.Finalized() {
			t.Errorf("%s should be finalized", s)
		}
	}
}

func TestItemPrice(t *testing.T) {
	it := &Item{
		Unit:      plan.UnitPerDay,
		UnitPrice: types.USD("4.95"),
		Quantity:  decimal.NewFromInt(18),
	}
	if got := it.Price(); !got.Equal(types.USD("89.10")) {
		t.Errorf("Price() = %v, want 89.10", got)
	}
}

func TestItemPriceCurrent(t *testing.T) {
	start := time.Date(2017, time.July, 14, 0, 0, 0, 0, time.UTC)
	it := &Item{
		Unit:      plan.UnitPerDay,
		UnitPrice: types.USD("4.95"),
		Quantity:  decimal.NewFromInt(18),
		Start:     start,
	}

	// Open item five days in: bills only the elapsed days.
	now := start.AddDate(0, 0, 5)
	if got := it.PriceCurrent(now); !got.Equal(types.USD("24.75")) {
		t.Errorf("PriceCurrent open = %v, want 24.75", got)
	}

	// Closed item: stored quantity is authoritative.
	end := start.AddDate(0, 0, 10)
	it.End = &end
	it.Quantity = decimal.NewFromInt(10)
	if got := it.PriceCurrent(now); !got.Equal(types.USD("49.50")) {
		t.Errorf("PriceCurrent closed = %v, want 49.50", got)
	}
}

func TestItemBilledEnd(t *testing.T) {
	start := time.Date(2017, time.July, 14, 0, 0, 0, 0, time.UTC)
	it := &Item{Start: start}

	if !it.IsOpen() {
		t.Error("item without end should be open")
	}
	wantOpen := time.Date(2017, time.July, 31, 23, 59, 59, 999999999, time.UTC)
	if got := it.BilledEnd(); !got.Equal(wantOpen) {
		t.Errorf("open BilledEnd = %v, want month end", got)
	}

	end := start.AddDate(0, 0, 3)
	it.End = &end
	if got := it.BilledEnd(); !got.Equal(end) {
		t.Errorf("closed BilledEnd = %v, want %v", got, end)
	}
}

func TestInvoiceTotals(t *testing.T) {
	inv := &Invoice{
		Year:       2017,
		Month:      time.July,
		Currency:   "USD",
		TaxPercent: decimal.NewFromInt(20),
		Items: []Item{
			{Unit: plan.UnitPerDay, UnitPrice: types.USD("4.95"), Quantity: decimal.NewFromInt(18)},
			{Unit: plan.UnitQuantity, UnitPrice: types.USD("10.90"), Quantity: decimal.NewFromInt(1)},
		},
	}

	if got := inv.Price(); !got.Equal(types.USD("100.00")) {
		t.Errorf("Price() = %v, want 100.00", got)
	}
	if got := inv.Tax(inv.Price()); !got.Equal(types.USD("20.00")) {
		t.Errorf("Tax() = %v, want 20.00", got)
	}
	if got := inv.Total(); !got.Equal(types.USD("120.00")) {
		t.Errorf("Total() = %v, want 120.00", got)
	}
}

func TestGenerateNumber(t *testing.T) {
	inv := &Invoice{ID: id.NewInvoiceID(), Year: 2017, Month: time.July}
	got := inv.GenerateNumber()
	if len(got) < len("INV-201707-") {
		t.Fatalf("number too short: %q", got)
	}
	if got[:len("INV-201707-")] != "INV-201707-" {
		t.Errorf("number = %q, want INV-201707- prefix", got)
	}
}
