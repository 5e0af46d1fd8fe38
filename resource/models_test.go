package resource

import (
	"testing"
	"time"
)

func TestStateCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateCreating, StateOK, true},
		{StateCreating, StateTerminated, false},
		{StateOK, StateTerminating, true},
		{StateOK, StateCreating, false},
		{StateTerminating, StateTerminated, true},
		{StateTerminated, StateOK, false},
		{StateErred, StateOK, true},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStateBillable(t *testing.T) {
	billable := []State{StateOK, StateTerminating}
	for _, s := range billable {
		if !s.Billable() {
			t.Errorf("%s should be billable", s)
		}
	}
	for _, s := range []State{StateCreating, StateErred, StateTerminated} {
		if s.Billable() {
			t.Errorf("%s should not be billable", s)
		}
	}
}

func TestPlanPeriodContains(t *testing.T) {
	start := time.Date(2017, time.July, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2017, time.July, 20, 0, 0, 0, 0, time.UTC)

	open := &PlanPeriod{Start: start}
	if !open.IsActive() {
		t.Error("period without end should be active")
	}
	if !open.Contains(start.AddDate(0, 2, 0)) {
		t.Error("open period should contain any future instant")
	}
	if open.Contains(start.Add(-time.Second)) {
		t.Error("period should not contain instants before start")
	}

	closed := &PlanPeriod{Start: start, End: &end}
	if closed.IsActive() {
		t.Error("closed period reported active")
	}
	if !closed.Contains(start) {
		t.Error("closed period should contain its start")
	}
	if closed.Contains(end) {
		t.Error("end bound is exclusive")
	}
}
