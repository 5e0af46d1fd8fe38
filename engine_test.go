package accrual_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/accrual"
	"github.com/xraph/accrual/customer"
	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/invoice"
	"github.com/xraph/accrual/period"
	"github.com/xraph/accrual/plan"
	"github.com/xraph/accrual/resource"
	"github.com/xraph/accrual/store/memory"
	"github.com/xraph/accrual/types"
)

// July 2017 has 31 days, which makes the proration fractions in these
// tests easy to verify by hand.
var july = period.Period{Year: 2017, Month: time.July}

func utc(day, hour int) time.Time {
	return time.Date(2017, time.July, day, hour, 0, 0, 0, time.UTC)
}

func newEngine(t *testing.T, now func() time.Time, opts ...accrual.Option) *accrual.Engine {
	t.Helper()
	opts = append([]accrual.Option{
		accrual.WithClock(now),
		accrual.WithRecalcInterval(0),
	}, opts...)
	return accrual.New(memory.New(), opts...)
}

func frozen(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func createCustomer(t *testing.T, e *accrual.Engine) *customer.Customer {
	t.Helper()
	cust := &customer.Customer{Name: "Acme Corp", Currency: "USD"}
	if err := e.CreateCustomer(context.Background(), cust); err != nil {
		t.Fatal(err)
	}
	return cust
}

func createPlan(t *testing.T, e *accrual.Engine, offeringID id.OfferingID, unit plan.Unit, componentType, price string) *plan.Plan {
	t.Helper()
	p := &plan.Plan{
		OfferingID: offeringID,
		Name:       "Standard",
		Currency:   "USD",
		Unit:       unit,
		Components: []plan.PlanComponent{
			{ComponentType: componentType, Price: types.USD(price)},
		},
	}
	if err := e.CreatePlan(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func createComponent(t *testing.T, e *accrual.Engine, offeringID id.OfferingID, componentType string, billing plan.BillingType, factor int64) *plan.Component {
	t.Helper()
	c := &plan.Component{
		OfferingID:  offeringID,
		Type:        componentType,
		Name:        strings.ToUpper(componentType),
		BillingType: billing,
		Factor:      factor,
	}
	if err := e.CreateComponent(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	return c
}

func activateResource(t *testing.T, e *accrual.Engine, cust *customer.Customer, p *plan.Plan, name string, at time.Time) *resource.Resource {
	t.Helper()
	ctx := context.Background()
	res := &resource.Resource{
		CustomerID: cust.ID,
		OfferingID: p.OfferingID,
		PlanID:     p.ID,
		Name:       name,
	}
	if err := e.CreateResource(ctx, res); err != nil {
		t.Fatal(err)
	}
	if err := e.OnResourceActivated(ctx, res.ID, at); err != nil {
		t.Fatal(err)
	}
	return res
}

func requireTotal(t *testing.T, inv *invoice.Invoice, want string) {
	t.Helper()
	if !inv.TotalPrice.Equal(types.USD(want)) {
		t.Fatalf("invoice total = %s, want $%s", inv.TotalPrice, want)
	}
}

func TestActivationProratesDailyPlan(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, frozen(utc(20, 12)))

	cust := createCustomer(t, e)
	offeringID := id.NewOfferingID()
	p := createPlan(t, e, offeringID, plan.UnitPerDay, "cpu", "4.95")
	createComponent(t, e, offeringID, "cpu", plan.BillingFixed, 1)

	// Mid-month activation: days 14 through 31 of a 31-day month.
	activateResource(t, e, cust, p, "vm-1", utc(14, 0))

	inv, err := e.GetInvoiceByPeriod(ctx, cust.ID, july)
	if err != nil {
		t.Fatal(err)
	}
	if inv.State != invoice.StatePending {
		t.Fatalf("invoice state = %s, want pending", inv.State)
	}
	if len(inv.Items) != 1 {
		t.Fatalf("item count = %d, want 1", len(inv.Items))
	}

	item := inv.Items[0]
	if !item.IsOpen() {
		t.Fatal("expected the item to still be open")
	}
	if item.Unit != plan.UnitPerDay {
		t.Fatalf("item unit = %s, want day", item.Unit)
	}
	if !item.Quantity.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("item quantity = %s, want 18", item.Quantity)
	}
	requireTotal(t, inv, "89.10")
}

func TestActivationOnMonthStartBillsFullMonth(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, frozen(utc(20, 12)))

	cust := createCustomer(t, e)
	offeringID := id.NewOfferingID()
	p := createPlan(t, e, offeringID, plan.UnitPerMonth, "cpu", "100.00")
	createComponent(t, e, offeringID, "cpu", plan.BillingFixed, 1)

	activateResource(t, e, cust, p, "vm-1", utc(1, 0))

	inv, err := e.GetInvoiceByPeriod(ctx, cust.ID, july)
	if err != nil {
		t.Fatal(err)
	}
	if !inv.Items[0].Quantity.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("item quantity = %s, want 1", inv.Items[0].Quantity)
	}
	requireTotal(t, inv, "100.00")
}

func TestHalfMonthWindowTouchingBothHalves(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, frozen(utc(25, 12)))

	cust := createCustomer(t, e)
	offeringID := id.NewOfferingID()
	p := createPlan(t, e, offeringID, plan.UnitPerHalfMonth, "cpu", "50.00")
	createComponent(t, e, offeringID, "cpu", plan.BillingFixed, 1)

	res := activateResource(t, e, cust, p, "vm-1", utc(10, 0))
	if err := e.OnResourceTerminated(ctx, res.ID, utc(20, 0)); err != nil {
		t.Fatal(err)
	}

	// An interior window spanning day 15 bills both halves.
	inv, err := e.GetInvoiceByPeriod(ctx, cust.ID, july)
	if err != nil {
		t.Fatal(err)
	}
	item := inv.Items[0]
	if item.IsOpen() {
		t.Fatal("expected the item to be closed after termination")
	}
	if !item.Quantity.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("item quantity = %s, want 2", item.Quantity)
	}
	requireTotal(t, inv, "100.00")

	got, err := e.GetResource(ctx, res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != resource.StateTerminated {
		t.Fatalf("resource state = %s, want terminated", got.State)
	}
}

func TestPlanChangeSplitsItems(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, frozen(utc(25, 12)))

	cust := createCustomer(t, e)
	offeringID := id.NewOfferingID()
	oldPlan := createPlan(t, e, offeringID, plan.UnitPerDay, "cpu", "4.95")
	newPlan := createPlan(t, e, offeringID, plan.UnitPerDay, "cpu", "10.00")
	createComponent(t, e, offeringID, "cpu", plan.BillingFixed, 1)

	res := activateResource(t, e, cust, oldPlan, "vm-1", utc(1, 0))
	if err := e.OnPlanChanged(ctx, res.ID, newPlan.ID, utc(16, 0)); err != nil {
		t.Fatal(err)
	}

	inv, err := e.GetInvoiceByPeriod(ctx, cust.ID, july)
	if err != nil {
		t.Fatal(err)
	}
	if len(inv.Items) != 2 {
		t.Fatalf("item count = %d, want 2", len(inv.Items))
	}

	var closed, open *invoice.Item
	for i := range inv.Items {
		if inv.Items[i].IsOpen() {
			open = &inv.Items[i]
		} else {
			closed = &inv.Items[i]
		}
	}
	if closed == nil || open == nil {
		t.Fatal("expected one closed and one open item after the plan change")
	}

	// Days 1 through 15 under the old plan, 16 through 31 under the new.
	if !closed.Quantity.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("closed item quantity = %s, want 15", closed.Quantity)
	}
	if !open.Quantity.Equal(decimal.NewFromInt(16)) {
		t.Fatalf("open item quantity = %s, want 16", open.Quantity)
	}
	requireTotal(t, inv, "234.25")

	got, err := e.GetResource(ctx, res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PlanID != newPlan.ID {
		t.Fatalf("resource plan = %s, want %s", got.PlanID, newPlan.ID)
	}
}

func TestConcurrentActivationsShareOneInvoice(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, frozen(utc(20, 12)))

	cust := createCustomer(t, e)
	offeringID := id.NewOfferingID()
	p := createPlan(t, e, offeringID, plan.UnitPerDay, "cpu", "4.95")
	createComponent(t, e, offeringID, "cpu", plan.BillingFixed, 1)

	const workers = 20
	resources := make([]*resource.Resource, workers)
	for i := range resources {
		res := &resource.Resource{
			CustomerID: cust.ID,
			OfferingID: offeringID,
			PlanID:     p.ID,
			Name:       "vm",
		}
		if err := e.CreateResource(ctx, res); err != nil {
			t.Fatal(err)
		}
		resources[i] = res
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for _, res := range resources {
		wg.Add(1)
		go func(rid id.ResourceID) {
			defer wg.Done()
			errs <- e.OnResourceActivated(ctx, rid, utc(14, 0))
		}(res.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}

	// Concurrent registrations may leave the cached item snapshot behind
	// the item set; one reconciliation pass settles it.
	if err := e.RunRecalculation(ctx); err != nil {
		t.Fatal(err)
	}

	invoices, err := e.ListInvoices(ctx, invoice.ListOpts{CustomerID: cust.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(invoices) != 1 {
		t.Fatalf("invoice count = %d, want 1", len(invoices))
	}
	if len(invoices[0].Items) != workers {
		t.Fatalf("item count = %d, want %d", len(invoices[0].Items), workers)
	}
}

func TestOneTimeComponentChargedOnActivationOnly(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, frozen(utc(25, 12)))

	cust := createCustomer(t, e)
	offeringID := id.NewOfferingID()
	oldPlan := createPlan(t, e, offeringID, plan.UnitPerMonth, "installation", "25.00")
	newPlan := createPlan(t, e, offeringID, plan.UnitPerMonth, "installation", "40.00")
	createComponent(t, e, offeringID, "installation", plan.BillingOneTime, 1)

	res := activateResource(t, e, cust, oldPlan, "vm-1", utc(1, 0))

	// A plan change re-registers the resource but must not charge the
	// one-time component again.
	if err := e.OnPlanChanged(ctx, res.ID, newPlan.ID, utc(16, 0)); err != nil {
		t.Fatal(err)
	}

	inv, err := e.GetInvoiceByPeriod(ctx, cust.ID, july)
	if err != nil {
		t.Fatal(err)
	}
	if len(inv.Items) != 1 {
		t.Fatalf("item count = %d, want 1", len(inv.Items))
	}
	if inv.Items[0].IsOpen() {
		t.Fatal("one-time items close at their start instant")
	}
	requireTotal(t, inv, "25.00")
}

func TestLimitComponentFollowsRequestedLimits(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, frozen(utc(20, 12)))

	cust := createCustomer(t, e)
	offeringID := id.NewOfferingID()
	p := createPlan(t, e, offeringID, plan.UnitPerMonth, "storage", "0.10")
	createComponent(t, e, offeringID, "storage", plan.BillingLimit, 1)

	res := &resource.Resource{
		CustomerID: cust.ID,
		OfferingID: offeringID,
		PlanID:     p.ID,
		Name:       "vol-1",
		Limits:     map[string]int64{"storage": 100},
	}
	if err := e.CreateResource(ctx, res); err != nil {
		t.Fatal(err)
	}
	if err := e.OnResourceActivated(ctx, res.ID, utc(1, 0)); err != nil {
		t.Fatal(err)
	}

	inv, err := e.GetInvoiceByPeriod(ctx, cust.ID, july)
	if err != nil {
		t.Fatal(err)
	}
	if !inv.Items[0].Quantity.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("item quantity = %s, want 100", inv.Items[0].Quantity)
	}
	requireTotal(t, inv, "10.00")

	if err := e.OnLimitsChanged(ctx, res.ID, map[string]int64{"storage": 200}, utc(10, 0)); err != nil {
		t.Fatal(err)
	}

	inv, err = e.GetInvoiceByPeriod(ctx, cust.ID, july)
	if err != nil {
		t.Fatal(err)
	}
	if !inv.Items[0].Quantity.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("item quantity after limit change = %s, want 200", inv.Items[0].Quantity)
	}
	requireTotal(t, inv, "20.00")
}

func TestUsageReportingLastWriteWins(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, frozen(utc(20, 12)),
		accrual.WithUsageConfig(1, 10*time.Millisecond),
	)
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer e.Stop()

	cust := createCustomer(t, e)
	offeringID := id.NewOfferingID()
	// Factor 60 converts reported minutes into billed hours.
	p := createPlan(t, e, offeringID, plan.UnitQuantity, "minutes", "3.00")
	createComponent(t, e, offeringID, "minutes", plan.BillingUsage, 60)

	res := activateResource(t, e, cust, p, "fn-1", utc(10, 0))

	report := func(amount int64) {
		t.Helper()
		if err := e.ReportUsage(ctx, res.ID, "minutes", decimal.NewFromInt(amount), utc(15, 0)); err != nil {
			t.Fatal(err)
		}
	}
	waitForQuantity := func(want int64) *invoice.Invoice {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			inv, err := e.GetInvoiceByPeriod(ctx, cust.ID, july)
			if err == nil {
				for _, item := range inv.Items {
					if item.Details.BillingType == plan.BillingUsage &&
						item.Quantity.Equal(decimal.NewFromInt(want)) {
						return inv
					}
				}
			}
			time.Sleep(10 * time.Millisecond)
		}
		t.Fatalf("usage item never reached quantity %d", want)
		return nil
	}

	report(120)
	inv := waitForQuantity(2)

	usageItems := 0
	for _, item := range inv.Items {
		if item.Details.BillingType == plan.BillingUsage {
			usageItems++
			if !item.UnitPrice.Equal(types.USD("3.00")) {
				t.Fatalf("usage unit price = %s, want $3.00", item.UnitPrice)
			}
		}
	}
	if usageItems != 1 {
		t.Fatalf("usage item count = %d, want 1", usageItems)
	}

	// A later cumulative total replaces the earlier one.
	report(180)
	inv = waitForQuantity(3)

	usageItems = 0
	for _, item := range inv.Items {
		if item.Details.BillingType == plan.BillingUsage {
			usageItems++
		}
	}
	if usageItems != 1 {
		t.Fatalf("usage item count after re-report = %d, want 1", usageItems)
	}
}

func TestRecalculationRollsOverMonth(t *testing.T) {
	ctx := context.Background()
	now := utc(20, 12)
	e := newEngine(t, func() time.Time { return now })

	cust := createCustomer(t, e)
	offeringID := id.NewOfferingID()
	p := createPlan(t, e, offeringID, plan.UnitPerDay, "cpu", "4.95")
	createComponent(t, e, offeringID, "cpu", plan.BillingFixed, 1)

	activateResource(t, e, cust, p, "vm-1", utc(14, 0))

	// Cross the month boundary and reconcile.
	now = time.Date(2017, time.August, 10, 9, 0, 0, 0, time.UTC)
	if err := e.RunRecalculation(ctx); err != nil {
		t.Fatal(err)
	}

	julyInv, err := e.GetInvoiceByPeriod(ctx, cust.ID, july)
	if err != nil {
		t.Fatal(err)
	}
	if julyInv.State != invoice.StateCreated {
		t.Fatalf("july invoice state = %s, want created", julyInv.State)
	}
	if !strings.HasPrefix(julyInv.Number, "INV-201707-") {
		t.Fatalf("july invoice number = %q, want INV-201707- prefix", julyInv.Number)
	}
	if julyInv.Items[0].IsOpen() {
		t.Fatal("july item should be closed at month end")
	}
	requireTotal(t, julyInv, "89.10")

	august := period.Period{Year: 2017, Month: time.August}
	augInv, err := e.GetInvoiceByPeriod(ctx, cust.ID, august)
	if err != nil {
		t.Fatal(err)
	}
	if augInv.State != invoice.StatePending {
		t.Fatalf("august invoice state = %s, want pending", augInv.State)
	}
	if len(augInv.Items) != 1 {
		t.Fatalf("august item count = %d, want 1", len(augInv.Items))
	}
	if !augInv.Items[0].Quantity.Equal(decimal.NewFromInt(31)) {
		t.Fatalf("august item quantity = %s, want 31", augInv.Items[0].Quantity)
	}
	requireTotal(t, augInv, "153.45")

	// A second run must not duplicate items or change totals.
	if err := e.RunRecalculation(ctx); err != nil {
		t.Fatal(err)
	}
	augInv, err = e.GetInvoiceByPeriod(ctx, cust.ID, august)
	if err != nil {
		t.Fatal(err)
	}
	if len(augInv.Items) != 1 {
		t.Fatalf("august item count after rerun = %d, want 1", len(augInv.Items))
	}
	requireTotal(t, augInv, "153.45")
}

func TestRecalculationSelfHealsMissingItems(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	e := accrual.New(st,
		accrual.WithClock(frozen(utc(20, 12))),
		accrual.WithRecalcInterval(0),
	)

	cust := createCustomer(t, e)
	offeringID := id.NewOfferingID()
	p := createPlan(t, e, offeringID, plan.UnitPerDay, "cpu", "4.95")
	createComponent(t, e, offeringID, "cpu", plan.BillingFixed, 1)

	// Two billable resources that were never routed through the
	// activation entry point, so neither has invoice items yet. One
	// carries a plan period opened mid-month, as a crashed activation
	// would leave behind; the other has no period at all.
	midMonth := &resource.Resource{
		CustomerID: cust.ID,
		OfferingID: offeringID,
		PlanID:     p.ID,
		Name:       "vm-mid-month",
		State:      resource.StateOK,
	}
	if err := e.CreateResource(ctx, midMonth); err != nil {
		t.Fatal(err)
	}
	pp := &resource.PlanPeriod{
		Entity:     types.NewEntity(),
		ID:         id.NewPlanPeriodID(),
		ResourceID: midMonth.ID,
		PlanID:     p.ID,
		Start:      utc(14, 0),
	}
	if err := st.CreatePlanPeriod(ctx, pp); err != nil {
		t.Fatal(err)
	}

	orphan := &resource.Resource{
		CustomerID: cust.ID,
		OfferingID: offeringID,
		PlanID:     p.ID,
		Name:       "vm-orphan",
		State:      resource.StateOK,
	}
	if err := e.CreateResource(ctx, orphan); err != nil {
		t.Fatal(err)
	}

	if err := e.RunRecalculation(ctx); err != nil {
		t.Fatal(err)
	}

	inv, err := e.GetInvoiceByPeriod(ctx, cust.ID, july)
	if err != nil {
		t.Fatal(err)
	}
	if len(inv.Items) != 2 {
		t.Fatalf("item count = %d, want 2", len(inv.Items))
	}

	byResource := make(map[string]*invoice.Item, len(inv.Items))
	for i := range inv.Items {
		byResource[inv.Items[i].Scope.ID.String()] = &inv.Items[i]
	}

	// The mid-month resource accrues from its plan period start, not
	// the month boundary.
	mid := byResource[midMonth.ID.String()]
	if mid == nil {
		t.Fatal("no item registered for the mid-month resource")
	}
	if !mid.Start.Equal(utc(14, 0)) {
		t.Fatalf("mid-month item start = %s, want %s", mid.Start, utc(14, 0))
	}
	if !mid.Quantity.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("mid-month item quantity = %s, want 18", mid.Quantity)
	}
	if !mid.Price().Equal(types.USD("89.10")) {
		t.Fatalf("mid-month item price = %s, want $89.10", mid.Price())
	}

	// Without a plan period the item falls back to the month boundary.
	orph := byResource[orphan.ID.String()]
	if orph == nil {
		t.Fatal("no item registered for the orphan resource")
	}
	if !orph.Start.Equal(july.Start()) {
		t.Fatalf("orphan item start = %s, want %s", orph.Start, july.Start())
	}
	if !orph.Quantity.Equal(decimal.NewFromInt(31)) {
		t.Fatalf("orphan item quantity = %s, want 31", orph.Quantity)
	}
}

func TestDuplicateActivationRejected(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	e := accrual.New(st,
		accrual.WithClock(frozen(utc(20, 12))),
		accrual.WithRecalcInterval(0),
	)

	cust := createCustomer(t, e)
	offeringID := id.NewOfferingID()
	p := createPlan(t, e, offeringID, plan.UnitPerDay, "cpu", "4.95")
	createComponent(t, e, offeringID, "cpu", plan.BillingFixed, 1)

	res := activateResource(t, e, cust, p, "vm-1", utc(14, 0))

	// Re-delivering the activation event must not open a second plan
	// period or bill the components again.
	err := e.OnResourceActivated(ctx, res.ID, utc(14, 0))
	if !errors.Is(err, accrual.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}

	inv, err := e.GetInvoiceByPeriod(ctx, cust.ID, july)
	if err != nil {
		t.Fatal(err)
	}
	if len(inv.Items) != 1 {
		t.Fatalf("item count = %d, want 1", len(inv.Items))
	}
	requireTotal(t, inv, "89.10")

	pp, err := st.GetActivePlanPeriod(ctx, res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !pp.Start.Equal(utc(14, 0)) {
		t.Fatalf("plan period start = %s, want %s", pp.Start, utc(14, 0))
	}
}

func TestTerminationRequiresTerminableState(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, frozen(utc(20, 12)))

	cust := createCustomer(t, e)
	offeringID := id.NewOfferingID()
	p := createPlan(t, e, offeringID, plan.UnitPerDay, "cpu", "4.95")
	createComponent(t, e, offeringID, "cpu", plan.BillingFixed, 1)

	// A resource still in the creating state has nothing to terminate.
	res := &resource.Resource{
		CustomerID: cust.ID,
		OfferingID: offeringID,
		PlanID:     p.ID,
		Name:       "vm-1",
	}
	if err := e.CreateResource(ctx, res); err != nil {
		t.Fatal(err)
	}
	if err := e.OnResourceTerminated(ctx, res.ID, utc(14, 0)); !errors.Is(err, accrual.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}

	if err := e.OnResourceActivated(ctx, res.ID, utc(14, 0)); err != nil {
		t.Fatal(err)
	}
	if err := e.OnResourceTerminated(ctx, res.ID, utc(20, 0)); err != nil {
		t.Fatal(err)
	}

	// Terminated is terminal.
	if err := e.OnResourceTerminated(ctx, res.ID, utc(21, 0)); !errors.Is(err, accrual.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestFinalizedInvoiceRejectsNewActivity(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, frozen(utc(20, 12)))

	cust := createCustomer(t, e)
	offeringID := id.NewOfferingID()
	p := createPlan(t, e, offeringID, plan.UnitPerDay, "cpu", "4.95")
	createComponent(t, e, offeringID, "cpu", plan.BillingFixed, 1)

	activateResource(t, e, cust, p, "vm-1", utc(14, 0))
	if err := e.FinalizeMonth(ctx, july); err != nil {
		t.Fatal(err)
	}

	res := &resource.Resource{
		CustomerID: cust.ID,
		OfferingID: offeringID,
		PlanID:     p.ID,
		Name:       "vm-2",
	}
	if err := e.CreateResource(ctx, res); err != nil {
		t.Fatal(err)
	}
	err := e.OnResourceActivated(ctx, res.ID, utc(25, 0))
	if !errors.Is(err, accrual.ErrInvoiceFinalized) {
		t.Fatalf("err = %v, want ErrInvoiceFinalized", err)
	}
}

func TestInvoicePaymentTransitions(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, frozen(utc(20, 12)))

	cust := createCustomer(t, e)
	offeringID := id.NewOfferingID()
	p := createPlan(t, e, offeringID, plan.UnitPerDay, "cpu", "4.95")
	createComponent(t, e, offeringID, "cpu", plan.BillingFixed, 1)

	activateResource(t, e, cust, p, "vm-1", utc(14, 0))

	inv, err := e.GetInvoiceByPeriod(ctx, cust.ID, july)
	if err != nil {
		t.Fatal(err)
	}

	// A pending invoice cannot be paid directly.
	if err := e.MarkInvoicePaid(ctx, inv.ID); !errors.Is(err, accrual.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}

	if err := e.FinalizeMonth(ctx, july); err != nil {
		t.Fatal(err)
	}
	if err := e.MarkInvoicePaid(ctx, inv.ID); err != nil {
		t.Fatal(err)
	}

	paid, err := e.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if paid.State != invoice.StatePaid {
		t.Fatalf("invoice state = %s, want paid", paid.State)
	}
	if paid.PaidAt == nil || !paid.PaidAt.Equal(utc(20, 12)) {
		t.Fatalf("paid at = %v, want %s", paid.PaidAt, utc(20, 12))
	}
	if paid.DueDate == nil || !paid.DueDate.Equal(utc(20, 12).AddDate(0, 0, 30)) {
		t.Fatalf("due date = %v, want 30 days after finalization", paid.DueDate)
	}

	if err := e.MarkInvoicePaid(ctx, inv.ID); !errors.Is(err, accrual.ErrInvoicePaid) {
		t.Fatalf("err = %v, want ErrInvoicePaid", err)
	}
	if err := e.CancelInvoice(ctx, inv.ID, "duplicate"); !errors.Is(err, accrual.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}
