package invoice

import (
	"context"

	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/period"
)

type Store interface {
	// Create persists a new invoice. It must fail with the storage
	// layer's already-exists error when an invoice for the same
	// (customer, year, month) exists, even under concurrent callers.
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, invID id.InvoiceID) (*Invoice, error)
	GetByPeriod(ctx context.Context, customerID id.CustomerID, p period.Period) (*Invoice, error)
	List(ctx context.Context, opts ListOpts) ([]*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	ListPending(ctx context.Context) ([]*Invoice, error)

	// Item mutations must be rejected once the owning invoice is
	// finalized.
	CreateItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, itemID id.InvoiceItemID) (*Item, error)
	ListItems(ctx context.Context, invID id.InvoiceID) ([]*Item, error)
}

type ListOpts struct {
	CustomerID id.CustomerID
	State      State
	Year       int
	Month      int
	Limit      int
	Offset     int
}
