package order

import "github.com/makerclub/printq/internal/entity"

// legalTransitions defines the lifecycle graph. Terminal states have no
// outgoing edges; everything absent here is illegal.
var legalTransitions = map[entity.OrderStatus][]entity.OrderStatus{
	entity.StatusSubmitted: {entity.StatusApproved, entity.StatusCancelled},
	entity.StatusApproved:  {entity.StatusStarted, entity.StatusCancelled, entity.StatusFailed},
	entity.StatusStarted:   {entity.StatusFinished, entity.StatusFailed},
}

// CanTransition reports whether moving from to next is a defined edge.
func CanTransition(from, to entity.OrderStatus) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
