package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

var ErrMissingShop = fmt.Errorf("%w: order event without shop_id", interfaces.ErrMalformedMessage)

// OrderEventHandler recomputes a shop's queue whenever one of its orders is
// placed or changes status.
type OrderEventHandler struct {
	queue  interfaces.QueueService
	logger logger.Logger
}

func NewOrderEventHandler(queue interfaces.QueueService, logger logger.Logger) *OrderEventHandler {
	return &OrderEventHandler{
		queue:  queue,
		logger: logger,
	}
}

func (h *OrderEventHandler) HandleOrderEvent(ctx context.Context, body []byte) error {
	var msg interfaces.OrderEventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse order event", "", nil, err)
		return fmt.Errorf("%w: %w", interfaces.ErrMalformedMessage, err)
	}
	if msg.ShopID == "" {
		return fmt.Errorf("%w: order %s", ErrMissingShop, msg.OrderID)
	}

	h.logger.Debug("order_event_received", fmt.Sprintf("Order %s %s", msg.OrderID, msg.Event), "", map[string]interface{}{
		"order_id": msg.OrderID,
		"shop_id":  msg.ShopID,
		"event":    msg.Event,
	})

	_, err := h.queue.Refresh(ctx, msg.ShopID)
	return err
}
