package queue

import (
	"context"
	"fmt"

	"github.com/aq2208/order-api/internal/logging"
	"github.com/aq2208/order-api/internal/usecase"
)

// OrderEventsHandler projects order events into the status cache.
type OrderEventsHandler struct {
	cache usecase.OrderCache
}

func NewOrderEventsHandler(cache usecase.OrderCache) *OrderEventsHandler {
	return &OrderEventsHandler{cache: cache}
}

// HandleOrderEvent is intended to be used with the JSON adapter (queue.JSONHandler[usecase.OrderEventMsg]).
func (h *OrderEventsHandler) HandleOrderEvent(ctx context.Context, msg usecase.OrderEventMsg) error {
	if msg.OrderID == "" || msg.Status == "" {
		return fmt.Errorf("%w: order event without order id or status", ErrMalformed)
	}
	if err := h.cache.SetStatus(ctx, msg.OrderID, usecase.CachedStatus{UserID: msg.UserID, Status: msg.Status}); err != nil {
		return fmt.Errorf("cache status of %s: %w", msg.OrderID, err)
	}
	logging.FromCtx(ctx).Debug("order status projected", "type", msg.Type, "order_id", msg.OrderID, "status", msg.Status)
	return nil
}
