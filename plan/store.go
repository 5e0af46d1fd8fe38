package plan

import (
	"context"

	"github.com/xraph/accrual/id"
)

type Store interface {
	Create(ctx context.Context, p *Plan) error
	Get(ctx context.Context, planID id.PlanID) (*Plan, error)
	List(ctx context.Context, opts ListOpts) ([]*Plan, error)
	Update(ctx context.Context, p *Plan) error
	Archive(ctx context.Context, planID id.PlanID) error

	CreateComponent(ctx context.Context, c *Component) error
	GetComponent(ctx context.Context, offeringID id.OfferingID, componentType string) (*Component, error)
	ListComponents(ctx context.Context, offeringID id.OfferingID) ([]*Component, error)
}

type ListOpts struct {
	OfferingID id.OfferingID
	Status     Status
	Limit      int
	Offset     int
}
