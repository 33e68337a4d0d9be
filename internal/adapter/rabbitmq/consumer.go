package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

const (
	SchedulerQueue    = "scheduler_queue"
	schedulerDLQ      = "scheduler_queue_dlq"
	ordersDLXExchange = "orders_dlq"
)

type consumer struct {
	conn           Connection
	prefetch       int
	logger         logger.Logger
	reconnectDelay time.Duration
}

func NewConsumer(conn Connection, prefetch int, logger logger.Logger) interfaces.MessageConsumer {
	return &consumer{conn: conn, prefetch: prefetch, logger: logger, reconnectDelay: 5 * time.Second}
}

// ConsumeOrderEvents delivers every order event to handler until ctx is done.
// A failed message is retried once, then dead-lettered.
func (c *consumer) ConsumeOrderEvents(ctx context.Context, handler interfaces.MessageHandler) error {
	return c.withReconnect(ctx, "order events", func() error {
		return c.consumeOrderEvents(ctx, handler)
	})
}

// ConsumeFanout binds a temporary exclusive queue to exchange. Handler errors
// are logged and the message is dropped.
func (c *consumer) ConsumeFanout(ctx context.Context, exchange string, handler interfaces.MessageHandler) error {
	return c.withReconnect(ctx, exchange, func() error {
		return c.consumeFanout(ctx, exchange, handler)
	})
}

func (c *consumer) withReconnect(ctx context.Context, name string, consume func() error) error {
	for {
		err := consume()

		// Если контекст отменен или соединение закрыто намеренно - выходим
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err == nil {
			return nil
		}

		c.logger.Error("rabbitmq_consumer_disconnected",
			fmt.Sprintf("Consumer of %s disconnected, reconnecting in %s", name, c.reconnectDelay), "", nil, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *consumer) consumeOrderEvents(ctx context.Context, handler interfaces.MessageHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := setupSchedulerInfrastructure(ch); err != nil {
		return err
	}

	msgs, err := ch.Consume(SchedulerQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			if err := handler(ctx, msg.Body); err != nil {
				// Первая ошибка - повторяем, вторая - в DLQ.
				// Битые сообщения сразу в DLQ
				requeue := !msg.Redelivered && !errors.Is(err, interfaces.ErrMalformedMessage)
				c.logger.Warn("order_event_failed", "Failed to handle order event", "", map[string]interface{}{
					"requeue": requeue,
					"error":   err.Error(),
				})
				_ = msg.Nack(false, requeue)
			} else {
				_ = msg.Ack(false)
			}
		}
	}
}

func (c *consumer) consumeFanout(ctx context.Context, exchange string, handler interfaces.MessageHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			if err := handler(ctx, msg.Body); err != nil {
				c.logger.Warn("fanout_message_failed", "Failed to handle message", "", map[string]interface{}{
					"exchange": exchange,
					"error":    err.Error(),
				})
			}
		}
	}
}

func setupSchedulerInfrastructure(ch Channel) error {
	if err := ch.ExchangeDeclare(OrdersExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare orders exchange: %w", err)
	}

	if err := ch.ExchangeDeclare(ordersDLXExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(schedulerDLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	if err := ch.QueueBind(schedulerDLQ, "", ordersDLXExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange": ordersDLXExchange,
	}

	q, err := ch.QueueDeclare(SchedulerQueue, true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("failed to declare scheduler queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "order.#", OrdersExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind scheduler queue: %w", err)
	}

	return nil
}
