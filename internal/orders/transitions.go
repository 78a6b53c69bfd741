package orders

import "github.com/clearstock/supplychain-backend/pkg/enums"

// forwardTransitions is the allow-list of legal forward edges. Cancelled is
// reachable from every non-terminal state; delivered and cancelled are
// terminal.
var forwardTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
}

// backwardTransitions holds the reverse edges between non-terminal states,
// only honored when the backward policy flag is enabled.
var backwardTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusConfirmed:  {enums.OrderStatusPending},
	enums.OrderStatusProcessing: {enums.OrderStatusConfirmed},
	enums.OrderStatusShipped:    {enums.OrderStatusProcessing},
}

// CanTransition reports whether an order may move from one status to another
// under the configured policy.
func CanTransition(from, to enums.OrderStatus, allowBackward bool) bool {
	if from == to {
		return false
	}
	if from.Terminal() {
		return false
	}
	for _, next := range forwardTransitions[from] {
		if next == to {
			return true
		}
	}
	if allowBackward {
		for _, prev := range backwardTransitions[from] {
			if prev == to {
				return true
			}
		}
	}
	return false
}
