package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   string
		currency string
		display  string
	}{
		{"USD", USD("49.00"), "49", "usd", "$49.00"},
		{"EUR", EUR("199.00"), "199", "eur", "€199.00"},
		{"GBP", GBP("99.00"), "99", "gbp", "£99.00"},
		{"JPY", JPY("100"), "100", "jpy", "¥100"},
		{"Fractional USD", USD("4.95"), "4.95", "usd", "$4.95"},
		{"Zero USD", Zero("USD"), "0", "usd", "$0.00"},
		{"Zero EUR", Zero("EUR"), "0", "eur", "€0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.money.Amount.Equal(decimal.RequireFromString(tt.amount)) {
				t.Errorf("Amount: got %s, want %s", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return USD("1.00").Add(USD("2.00")) }, USD("3.00")},
		{"Subtract", func() Money { return USD("5.00").Subtract(USD("2.00")) }, USD("3.00")},
		{"Mul", func() Money { return USD("4.95").Mul(decimal.NewFromInt(18)) }, USD("89.10")},
		{"Div", func() Money { return USD("9.00").Div(decimal.NewFromInt(3)) }, USD("3.00")},
		{"Negate", func() Money { return USD("1.00").Negate() }, USD("-1.00")},
		{"Abs positive", func() Money { return USD("1.00").Abs() }, USD("1.00")},
		{"Abs negative", func() Money { return USD("-1.00").Abs() }, USD("1.00")},
		{"Complex", func() Money {
			return USD("10.00").Add(USD("5.00")).Mul(decimal.NewFromInt(2)).Subtract(USD("10.00"))
		}, USD("20.00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.op()
			if !got.Equal(tt.expected) {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestMoneyQuantize(t *testing.T) {
	tests := []struct {
		name     string
		in       Money
		expected string
	}{
		{"exact", USD("89.10"), "89.10"},
		{"half rounds up", USD("1.005"), "1.01"},
		{"below half rounds down", USD("1.004"), "1.00"},
		{"per-month proration", USD("100").Mul(decimal.RequireFromString("0.58")), "58.00"},
		{"yen has no decimals", JPY("100.5"), "101"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Quantize().FormatMajor()
			if got != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestMoneyComparisons(t *testing.T) {
	if !USD("1.00").LessThan(USD("2.00")) {
		t.Error("expected 1.00 < 2.00")
	}
	if !USD("2.00").GreaterThan(USD("1.00")) {
		t.Error("expected 2.00 > 1.00")
	}
	if !USD("1.0").Equal(USD("1.00")) {
		t.Error("expected 1.0 == 1.00 (decimal equality ignores scale)")
	}
	if USD("1.00").Equal(EUR("1.00")) {
		t.Error("expected currency mismatch to compare unequal")
	}
	if got := USD("1.00").Min(USD("2.00")); !got.Equal(USD("1.00")) {
		t.Errorf("Min: got %s", got)
	}
	if got := USD("1.00").Max(USD("2.00")); !got.Equal(USD("2.00")) {
		t.Errorf("Max: got %s", got)
	}
}

func TestMoneyCurrencyMismatchPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on currency mismatch")
		}
	}()
	_ = USD("1.00").Add(EUR("1.00"))
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	original := USD("4.95")
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var restored Money
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !restored.Equal(original) {
		t.Errorf("round-trip mismatch: %s != %s", restored, original)
	}
}

func TestSum(t *testing.T) {
	got := Sum(USD("1.00"), USD("2.50"), USD("0.50"))
	if !got.Equal(USD("4.00")) {
		t.Errorf("got %s, want $4.00", got)
	}

	if !Sum().IsZero() {
		t.Error("empty Sum should be zero")
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"half rounds up", "0.125", "0.13"},
		{"below half rounds down", "0.124", "0.12"},
		{"whole", "2", "2"},
		{"month factor", "0.5806451612903226", "0.58"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quantize(decimal.RequireFromString(tt.in))
			if !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}
