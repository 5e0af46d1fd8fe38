package customer

import (
	"context"

	"github.com/xraph/accrual/id"
)

type Store interface {
	Create(ctx context.Context, c *Customer) error
	Get(ctx context.Context, customerID id.CustomerID) (*Customer, error)
	List(ctx context.Context, opts ListOpts) ([]*Customer, error)
	Update(ctx context.Context, c *Customer) error
}

type ListOpts struct {
	Limit  int
	Offset int
}
