package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

// NotificationHandler prints status changes and queue updates for people
// watching the counter.
type NotificationHandler struct {
	logger logger.Logger
	out    io.Writer
}

func NewNotificationHandler(logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		logger: logger,
		out:    os.Stdout,
	}
}

func (h *NotificationHandler) HandleStatusUpdate(ctx context.Context, body []byte) error {
	var msg interfaces.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received status update for order %s", msg.OrderID),
		msg.OrderID, map[string]interface{}{
			"order_id":   msg.OrderID,
			"new_status": msg.NewStatus,
		})

	line := fmt.Sprintf("Notification for order %s: Status changed from '%s' to '%s' by %s",
		msg.OrderID, msg.OldStatus, msg.NewStatus, msg.ChangedBy)
	if msg.EstimatedCompletion != nil {
		line += fmt.Sprintf(", ready around %s", msg.EstimatedCompletion.Format(time.Kitchen))
	}
	fmt.Fprintln(h.out, line)

	return nil
}

func (h *NotificationHandler) HandleQueueUpdate(ctx context.Context, body []byte) error {
	var snap interfaces.QueueSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse queue update", "", nil, err)
		return err
	}

	if len(snap.Entries) == 0 {
		fmt.Fprintf(h.out, "Queue for shop %s is empty\n", snap.ShopID)
		return nil
	}

	next := snap.Entries[0]
	fmt.Fprintf(h.out, "Queue for shop %s: %d orders, %.0f min of work, next up %s (%s)\n",
		snap.ShopID, len(snap.Entries), snap.TotalPrepMinutes, next.OrderID, next.Recommendation)
	return nil
}
