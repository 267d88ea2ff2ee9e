package order

import (
	"testing"

	"github.com/makerclub/printq/internal/entity"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from, to entity.OrderStatus
		ok       bool
	}{
		{entity.StatusSubmitted, entity.StatusApproved, true},
		{entity.StatusSubmitted, entity.StatusCancelled, true},
		{entity.StatusSubmitted, entity.StatusStarted, false},
		{entity.StatusSubmitted, entity.StatusFinished, false},
		{entity.StatusSubmitted, entity.StatusFailed, false},
		{entity.StatusApproved, entity.StatusStarted, true},
		{entity.StatusApproved, entity.StatusCancelled, true},
		{entity.StatusApproved, entity.StatusFailed, true},
		{entity.StatusApproved, entity.StatusFinished, false},
		{entity.StatusStarted, entity.StatusFinished, true},
		{entity.StatusStarted, entity.StatusFailed, true},
		{entity.StatusStarted, entity.StatusCancelled, false},
		{entity.StatusFinished, entity.StatusApproved, false},
		{entity.StatusFailed, entity.StatusSubmitted, false},
		{entity.StatusCancelled, entity.StatusApproved, false},
		{entity.StatusSubmitted, entity.StatusSubmitted, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestTerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	terminals := []entity.OrderStatus{entity.StatusFinished, entity.StatusFailed, entity.StatusCancelled}
	all := []entity.OrderStatus{
		entity.StatusSubmitted, entity.StatusApproved, entity.StatusStarted,
		entity.StatusFinished, entity.StatusFailed, entity.StatusCancelled,
	}
	for _, from := range terminals {
		if !from.Terminal() {
			t.Errorf("%s should report terminal", from)
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("terminal %s has outgoing edge to %s", from, to)
			}
		}
	}
}
