// Package pricing converts billing windows and reported usage into the
// quantities that appear on invoice items.
//
// All factor quantization rounds half up to two decimal places, applied
// independently per item so rounding never accumulates across splits.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/accrual/period"
	"github.com/xraph/accrual/plan"
	"github.com/xraph/accrual/types"
)

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

// Quantity returns the billed quantity for a window [start, end] clipped
// to one calendar month, under the given billing unit.
//
// Per-day and per-hour units use ceiling semantics: a resource active for
// any portion of a day or hour bills the whole day or hour. Per-month
// bills the fraction of the month's days that were used. Per-half-month
// bills one unit for each half of the month the window touches, except
// that a window pinned to a month boundary on one side bills the other
// side fractionally. Quantity-unit plans always bill one.
func Quantity(unit plan.Unit, start, end time.Time) decimal.Decimal {
	start = start.UTC()
	end = end.UTC()
	monthDays := period.Of(start).Days()

	switch unit {
	case plan.UnitPerHour:
		return decimal.NewFromInt(int64(period.FullHours(start, end)))
	case plan.UnitPerDay:
		return decimal.NewFromInt(int64(period.FullDays(start, end)))
	case plan.UnitPerHalfMonth:
		return halfMonthQuantity(start.Day(), end.Day(), monthDays)
	case plan.UnitQuantity:
		return one
	default:
		if start.Day() == 1 && end.Day() == monthDays {
			return one
		}
		useDays := int64(end.Sub(start).Hours()/24) + 1
		ratio := decimal.NewFromInt(useDays).Div(decimal.NewFromInt(int64(monthDays)))
		return types.Quantize(ratio)
	}
}

// halfMonthQuantity splits the month into [1, 15] and [16, monthDays].
func halfMonthQuantity(startDay, endDay, monthDays int) decimal.Decimal {
	halfDays := decimal.NewFromInt(int64(monthDays)).Div(two)

	switch {
	case endDay <= 15 || startDay >= 16:
		// Touches one half only.
		return one
	case startDay == 1 && endDay == monthDays:
		return two
	case startDay == 1:
		// Full first half plus a fraction of the second.
		frac := decimal.NewFromInt(int64(endDay - 15)).Div(halfDays)
		return types.Quantize(one.Add(frac))
	case endDay == monthDays:
		// Full second half plus a fraction of the first.
		frac := decimal.NewFromInt(int64(16 - startDay)).Div(halfDays)
		return types.Quantize(one.Add(frac))
	default:
		// Interior window touching both halves.
		return two
	}
}

// PerDayPrice converts a plan component's unit price into an estimated
// price per day, used for current-cost projections of open items.
func PerDayPrice(unit plan.Unit, price types.Money, p period.Period) types.Money {
	switch unit {
	case plan.UnitPerDay:
		return price
	case plan.UnitPerMonth:
		return price.Div(decimal.NewFromInt(int64(p.Days())))
	case plan.UnitPerHalfMonth:
		return price.Div(decimal.NewFromInt(int64(p.Days())).Div(two))
	default:
		return types.Zero(price.Currency)
	}
}

// UsageQuantity converts a raw reported amount into the billed quantity
// for a usage component, applying the component's unit conversion factor.
func UsageQuantity(c *plan.Component, amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return c.ConvertUsage(amount)
}
