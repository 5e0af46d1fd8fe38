package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/accrual"
	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/invoice"
	"github.com/xraph/accrual/period"
	"github.com/xraph/accrual/resource"
	"github.com/xraph/accrual/store"
	"github.com/xraph/accrual/types"
	"github.com/xraph/accrual/usage"
)

var _ store.Store = (*Store)(nil)

func newPendingInvoice(customerID id.CustomerID, p period.Period) *invoice.Invoice {
	return &invoice.Invoice{
		Entity:     types.NewEntity(),
		ID:         id.NewInvoiceID(),
		CustomerID: customerID,
		Year:       p.Year,
		Month:      p.Month,
		State:      invoice.StatePending,
		Currency:   "USD",
	}
}

func TestCreateInvoiceUniquePerPeriod(t *testing.T) {
	ctx := context.Background()
	s := New()
	custID := id.NewCustomerID()
	p := period.Period{Year: 2017, Month: time.July}

	first := newPendingInvoice(custID, p)
	if err := s.CreateInvoice(ctx, first); err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}

	dup := newPendingInvoice(custID, p)
	if err := s.CreateInvoice(ctx, dup); !errors.Is(err, accrual.ErrAlreadyExists) {
		t.Errorf("CreateInvoice() duplicate error = %v, want ErrAlreadyExists", err)
	}

	// A different month for the same customer is fine.
	other := newPendingInvoice(custID, period.Period{Year: 2017, Month: time.August})
	if err := s.CreateInvoice(ctx, other); err != nil {
		t.Errorf("CreateInvoice() next month error = %v", err)
	}

	got, err := s.GetInvoiceByPeriod(ctx, custID, p)
	if err != nil {
		t.Fatalf("GetInvoiceByPeriod() error = %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("GetInvoiceByPeriod() ID = %v, want %v", got.ID, first.ID)
	}
}

func TestCreateInvoiceConcurrent(t *testing.T) {
	ctx := context.Background()
	s := New()
	custID := id.NewCustomerID()
	p := period.Period{Year: 2017, Month: time.July}

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	var created int

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.CreateInvoice(ctx, newPendingInvoice(custID, p))
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			} else if !errors.Is(err, accrual.ErrAlreadyExists) {
				t.Errorf("CreateInvoice() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("created = %d invoices, want exactly 1", created)
	}
}

func TestItemsRejectedOnFinalizedInvoice(t *testing.T) {
	ctx := context.Background()
	s := New()
	custID := id.NewCustomerID()
	inv := newPendingInvoice(custID, period.Period{Year: 2017, Month: time.July})
	if err := s.CreateInvoice(ctx, inv); err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}

	item := &invoice.Item{
		Entity:    types.NewEntity(),
		ID:        id.NewInvoiceItemID(),
		InvoiceID: inv.ID,
		Name:      "small / cpu",
		UnitPrice: types.USD("4.95"),
		Quantity:  decimal.NewFromInt(18),
		Start:     time.Date(2017, 7, 14, 0, 0, 0, 0, time.UTC),
	}
	if err := s.CreateInvoiceItem(ctx, item); err != nil {
		t.Fatalf("CreateInvoiceItem() error = %v", err)
	}

	inv.State = invoice.StateCreated
	if err := s.UpdateInvoice(ctx, inv); err != nil {
		t.Fatalf("UpdateInvoice() error = %v", err)
	}

	item.Quantity = decimal.NewFromInt(20)
	if err := s.UpdateInvoiceItem(ctx, item); !errors.Is(err, accrual.ErrInvoiceFinalized) {
		t.Errorf("UpdateInvoiceItem() error = %v, want ErrInvoiceFinalized", err)
	}

	late := &invoice.Item{
		Entity:    types.NewEntity(),
		ID:        id.NewInvoiceItemID(),
		InvoiceID: inv.ID,
		Name:      "late charge",
	}
	if err := s.CreateInvoiceItem(ctx, late); !errors.Is(err, accrual.ErrInvoiceFinalized) {
		t.Errorf("CreateInvoiceItem() error = %v, want ErrInvoiceFinalized", err)
	}
}

func TestGetInvoiceReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	custID := id.NewCustomerID()
	inv := newPendingInvoice(custID, period.Period{Year: 2017, Month: time.July})
	if err := s.CreateInvoice(ctx, inv); err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}

	got, err := s.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice() error = %v", err)
	}
	got.State = invoice.StateCanceled

	again, err := s.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice() error = %v", err)
	}
	if again.State != invoice.StatePending {
		t.Errorf("stored invoice mutated through returned pointer: state = %v", again.State)
	}
}

func TestUpsertUsageReportLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := New()
	resID := id.NewResourceID()
	p := period.Period{Year: 2017, Month: time.July}

	first := &usage.Report{
		Entity:        types.NewEntity(),
		ID:            id.NewUsageReportID(),
		ResourceID:    resID,
		ComponentType: "cpu",
		Amount:        decimal.NewFromInt(100),
		Period:        p,
		RecordedAt:    time.Date(2017, 7, 10, 0, 0, 0, 0, time.UTC),
	}
	if err := s.UpsertUsageReport(ctx, first); err != nil {
		t.Fatalf("UpsertUsageReport() error = %v", err)
	}

	second := &usage.Report{
		Entity:        types.NewEntity(),
		ID:            id.NewUsageReportID(),
		ResourceID:    resID,
		ComponentType: "cpu",
		Amount:        decimal.NewFromInt(120),
		Period:        p,
		RecordedAt:    time.Date(2017, 7, 20, 0, 0, 0, 0, time.UTC),
	}
	if err := s.UpsertUsageReport(ctx, second); err != nil {
		t.Fatalf("UpsertUsageReport() error = %v", err)
	}

	got, err := s.GetUsageReport(ctx, resID, "cpu", p)
	if err != nil {
		t.Fatalf("GetUsageReport() error = %v", err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(120)) {
		t.Errorf("Amount = %s, want 120", got.Amount)
	}
	if got.ID != first.ID {
		t.Errorf("upsert replaced the row identity: ID = %v, want %v", got.ID, first.ID)
	}

	reports, err := s.ListUsageReports(ctx, resID, p)
	if err != nil {
		t.Fatalf("ListUsageReports() error = %v", err)
	}
	if len(reports) != 1 {
		t.Errorf("ListUsageReports() returned %d reports, want 1", len(reports))
	}
}

func TestCreatePlanPeriodSingleOpenPerResource(t *testing.T) {
	ctx := context.Background()
	s := New()
	resID := id.NewResourceID()
	planID := id.NewPlanID()

	open := &resource.PlanPeriod{
		Entity:     types.NewEntity(),
		ID:         id.NewPlanPeriodID(),
		ResourceID: resID,
		PlanID:     planID,
		Start:      time.Date(2017, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := s.CreatePlanPeriod(ctx, open); err != nil {
		t.Fatalf("CreatePlanPeriod() error = %v", err)
	}

	dup := &resource.PlanPeriod{
		Entity:     types.NewEntity(),
		ID:         id.NewPlanPeriodID(),
		ResourceID: resID,
		PlanID:     planID,
		Start:      time.Date(2017, 7, 14, 0, 0, 0, 0, time.UTC),
	}
	if err := s.CreatePlanPeriod(ctx, dup); !errors.Is(err, accrual.ErrAlreadyExists) {
		t.Errorf("CreatePlanPeriod() second open period error = %v, want ErrAlreadyExists", err)
	}

	// Closing the open period makes room for a new one.
	if err := s.ClosePlanPeriod(ctx, open.ID, time.Date(2017, 7, 14, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("ClosePlanPeriod() error = %v", err)
	}
	if err := s.CreatePlanPeriod(ctx, dup); err != nil {
		t.Errorf("CreatePlanPeriod() after close error = %v", err)
	}

	// A closed historical period never conflicts.
	end := time.Date(2017, 6, 30, 0, 0, 0, 0, time.UTC)
	closed := &resource.PlanPeriod{
		Entity:     types.NewEntity(),
		ID:         id.NewPlanPeriodID(),
		ResourceID: resID,
		PlanID:     planID,
		Start:      time.Date(2017, 6, 1, 0, 0, 0, 0, time.UTC),
		End:        &end,
	}
	if err := s.CreatePlanPeriod(ctx, closed); err != nil {
		t.Errorf("CreatePlanPeriod() closed period error = %v", err)
	}
}
