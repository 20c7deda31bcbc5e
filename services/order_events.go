package services

import (
	"context"
	"strings"

	"studenteats/models"
)

// OrderEvents pushes order changes to open websockets and to registered devices.
type OrderEvents struct {
	rt *RealtimeHub
	ps *PushService
}

func NewOrderEvents(rt *RealtimeHub, ps *PushService) *OrderEvents {
	return &OrderEvents{rt: rt, ps: ps}
}

func (e *OrderEvents) OrderChanged(ctx context.Context, o *models.Order, event string) {
	if e.rt != nil {
		e.rt.Broadcast(o.UserID, map[string]any{
			"kind":  event,
			"order": o,
		})
	}
	// devices only hear about status moves
	if e.ps != nil && event == "order.status_changed" {
		status := strings.ReplaceAll(string(o.Status), "_", " ")
		e.ps.PushToUser(ctx, o.UserID, "Order update", "Your order is now "+status, map[string]string{
			"kind": event, "orderId": o.ID, "status": string(o.Status),
		})
	}
}
