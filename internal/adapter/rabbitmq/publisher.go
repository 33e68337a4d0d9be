package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

const (
	OrdersExchange        = "orders_topic"
	QueueUpdatesExchange  = "vendor_queue_fanout"
	NotificationsExchange = "notifications_fanout"
)

type publisher struct {
	conn Connection
}

func NewPublisher(conn Connection) interfaces.MessagePublisher {
	return &publisher{conn: conn}
}

// OrderRoutingKey is order.<shop>.<event>. Dots in the shop id would add
// topic segments, so they are replaced.
func OrderRoutingKey(shopID, event string) string {
	return fmt.Sprintf("order.%s.%s", strings.ReplaceAll(shopID, ".", "_"), event)
}

func (p *publisher) PublishOrderEvent(ctx context.Context, msg interfaces.OrderEventMessage) error {
	return p.publish(ctx, OrdersExchange, "topic", OrderRoutingKey(msg.ShopID, msg.Event), msg, true)
}

func (p *publisher) PublishStatusUpdate(ctx context.Context, msg interfaces.StatusUpdateMessage) error {
	return p.publish(ctx, NotificationsExchange, "fanout", "", msg, false)
}

func (p *publisher) PublishQueueUpdate(ctx context.Context, snapshot interfaces.QueueSnapshot) error {
	return p.publish(ctx, QueueUpdatesExchange, "fanout", "", snapshot, false)
}

func (p *publisher) publish(ctx context.Context, exchange, kind, key string, msg any, persistent bool) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, kind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}
	if persistent {
		pub.DeliveryMode = amqp.Persistent
	}

	if err := ch.PublishWithContext(ctx, exchange, key, false, false, pub); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}
