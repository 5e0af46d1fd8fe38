package accrual_test

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/accrual"
	"github.com/xraph/accrual/customer"
	"github.com/xraph/accrual/period"
	"github.com/xraph/accrual/plan"
	"github.com/xraph/accrual/resource"
	"github.com/xraph/accrual/store/memory"
	"github.com/xraph/accrual/types"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Initialize the engine
		e := accrual.New(store,
			accrual.WithLogger(slog.Default()),
			accrual.WithUsageConfig(100, 5*time.Second),
			accrual.WithRecalcInterval(time.Hour),
		)

		// Start the engine
		ctx := context.Background()
		if err := e.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer e.Stop()

		// Create a customer
		cust := &customer.Customer{
			Name:       "Acme Corp",
			Currency:   "USD",
			TaxPercent: decimal.NewFromInt(20),
		}
		if err := e.CreateCustomer(ctx, cust); err != nil {
			t.Fatal(err)
		}

		// Create a plan billed per day
		p := &plan.Plan{
			Name:     "Standard",
			Currency: "USD",
			Unit:     plan.UnitPerDay,
			Status:   plan.StatusActive,
			Components: []plan.PlanComponent{
				{ComponentType: "cpu", Price: types.USD("4.95")},
			},
		}
		if err := e.CreatePlan(ctx, p); err != nil {
			t.Fatal(err)
		}

		// Describe the billable component
		comp := &plan.Component{
			OfferingID:   p.OfferingID,
			Type:         "cpu",
			Name:         "CPU",
			MeasuredUnit: "cores",
			BillingType:  plan.BillingFixed,
		}
		if err := e.CreateComponent(ctx, comp); err != nil {
			t.Fatal(err)
		}

		// Register a resource and activate it
		res := &resource.Resource{
			CustomerID:  cust.ID,
			OfferingID:  p.OfferingID,
			PlanID:      p.ID,
			Name:        "vm-1",
			ProjectName: "default",
		}
		if err := e.CreateResource(ctx, res); err != nil {
			t.Fatal(err)
		}
		if err := e.OnResourceActivated(ctx, res.ID, time.Now().UTC()); err != nil {
			t.Fatal(err)
		}

		// The current month's invoice now carries an accruing item
		inv, err := e.GetInvoiceByPeriod(ctx, cust.ID, period.Current())
		if err != nil {
			t.Fatal(err)
		}

		log.Printf("Invoice running total: %s\n", inv.TotalPrice.String())
	})

	// Test Money type examples
	t.Run("MoneyExamples", func(t *testing.T) {
		// Constructors
		_ = types.USD("49.00")
		_ = types.EUR("99.00")
		_ = types.Zero("USD")

		// Arithmetic
		m1 := types.USD("1.00")
		m2 := types.USD("2.00")
		_ = m1.Add(m2)
		_ = m1.Mul(decimal.NewFromInt(3))
		_ = m1.Div(decimal.NewFromInt(2))

		// Comparison
		if m1.LessThan(m2) {
			// m1 is less than m2
		}

		// Formatting
		_ = m1.String()      // "$1.00"
		_ = m1.FormatMajor() // "1.00"
	})
}
