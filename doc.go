// Package accrual provides a billing accrual engine for Go applications.
//
// Accrual is designed as a library, not a service. Given a resource's
// lifecycle events (activation, plan change, termination) and a pricing
// plan, it computes exact invoice line items with start/end timestamps
// and quantities, keeping each customer's monthly invoice consistent
// with resource uptime and reported usage. It provides:
//
//   - Prorated invoice items for daily, hourly, half-monthly and monthly
//     billing units, with deterministic half-up rounding
//   - Find-or-create monthly invoices that stay unique per customer and
//     month even under concurrent registration
//   - Usage-based billing from cumulative usage reports, re-applied
//     idempotently (last write wins per period)
//   - A re-entrant recalculation task that rolls active resources across
//     month boundaries and self-heals from persisted state
//   - Pluggable storage (memory, PostgreSQL, SQLite, MongoDB)
//   - Lifecycle hooks via a plugin registry
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/accrual"
//	    "github.com/xraph/accrual/store/memory"
//	)
//
//	// Create engine
//	e := accrual.New(memory.New())
//
//	// Start the engine (begins background workers)
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
// Production deployments construct a persistent store instead: the
// postgres, sqlite and mongo packages each expose a New that wraps a
// *grove.DB opened with the matching driver.
//
// # Core Concepts
//
// Plans define a billing unit and per-component prices:
//
//	p := &plan.Plan{
//	    Name:     "Standard",
//	    Currency: "USD",
//	    Unit:     plan.UnitPerDay,
//	    Components: []plan.PlanComponent{
//	        {ComponentType: "cpu", Price: accrual.USD("4.95")},
//	    },
//	}
//
// Resource lifecycle events drive item registration:
//
//	e.OnResourceActivated(ctx, resourceID, time.Now())
//	e.OnPlanChanged(ctx, resourceID, newPlanID, time.Now())
//	e.OnResourceTerminated(ctx, resourceID, time.Now())
//
// Usage components bill from cumulative reports:
//
//	e.ReportUsage(ctx, resourceID, "cpu", decimal.NewFromInt(120), time.Now())
//
// Plans are treated as append-only: once a plan has been referenced by
// an invoice item its prices never change. Archive the old plan and
// create a new one instead, so historical invoices stay reproducible.
//
// All monetary and quantity arithmetic uses arbitrary-precision decimals,
// never floating point. Quantization is round-half-up to the currency's
// precision, applied per item and once more at invoice-total aggregation.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	plan_01h2xcejqtf2nbrexx3vqjhp41  // Plan ID
//	res_01h2xcejqtf2nbrexx3vqjhp41   // Resource ID
//	inv_01h455vb4pex5vsknk084sn02q   // Invoice ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package accrual
