package resource

import (
	"time"

	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/types"
)

// State is a resource's lifecycle state. Billing reacts to transitions
// into and out of the billable states but never drives them.
type State string

const (
	StateCreating    State = "creating"
	StateOK          State = "ok"
	StateErred       State = "erred"
	StateTerminating State = "terminating"
	StateTerminated  State = "terminated"
)

var transitions = map[State][]State{
	StateCreating:    {StateOK, StateErred},
	StateOK:          {StateTerminating, StateErred},
	StateErred:       {StateOK, StateTerminating},
	StateTerminating: {StateTerminated, StateErred},
}

// CanTransitionTo reports whether the lifecycle permits moving from s to
// next. Terminated is terminal.
func (s State) CanTransitionTo(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Billable reports whether a resource in this state accrues charges.
// A terminating resource still bills until termination completes.
func (s State) Billable() bool {
	return s == StateOK || s == StateTerminating
}

// Resource is one billed marketplace entity. Project name and id are
// denormalized so invoices render after the project is deleted or the
// resource is moved.
type Resource struct {
	types.Entity
	ID          id.ResourceID     `json:"id"`
	CustomerID  id.CustomerID     `json:"customer_id"`
	OfferingID  id.OfferingID     `json:"offering_id"`
	PlanID      id.PlanID         `json:"plan_id"`
	Name        string            `json:"name"`
	State       State             `json:"state"`
	Limits      map[string]int64  `json:"limits,omitempty"`
	ProjectID   id.ProjectID      `json:"project_id"`
	ProjectName string            `json:"project_name"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// PlanPeriod records the window during which a resource was billed under
// one plan. A nil End marks the currently active period. Periods for one
// resource never overlap.
type PlanPeriod struct {
	types.Entity
	ID         id.PlanPeriodID `json:"id"`
	ResourceID id.ResourceID   `json:"resource_id"`
	PlanID     id.PlanID       `json:"plan_id"`
	Start      time.Time       `json:"start"`
	End        *time.Time      `json:"end,omitempty"`
}

func (pp *PlanPeriod) IsActive() bool {
	return pp.End == nil
}

// Contains reports whether the instant falls inside [Start, End), with an
// open End extending to infinity.
func (pp *PlanPeriod) Contains(t time.Time) bool {
	if t.Before(pp.Start) {
		return false
	}
	return pp.End == nil || t.Before(*pp.End)
}
