package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/YelzhanWeb/canteen/internal/domain"
)

const (
	OrderEventPlaced        = "placed"
	OrderEventStatusChanged = "status_changed"
)

// Сообщения RabbitMQ
type OrderEventMessage struct {
	OrderID   string        `json:"order_id"`
	ShopID    string        `json:"shop_id"`
	Event     string        `json:"event"`
	Status    domain.Status `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}

type StatusUpdateMessage struct {
	OrderID             string        `json:"order_id"`
	ShopID              string        `json:"shop_id"`
	OldStatus           domain.Status `json:"old_status"`
	NewStatus           domain.Status `json:"new_status"`
	ChangedBy           string        `json:"changed_by"`
	Timestamp           time.Time     `json:"timestamp"`
	EstimatedCompletion *time.Time    `json:"estimated_completion,omitempty"`
}

type MessagePublisher interface {
	PublishOrderEvent(ctx context.Context, msg OrderEventMessage) error
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
	PublishQueueUpdate(ctx context.Context, snapshot QueueSnapshot) error
}

type MessageConsumer interface {
	ConsumeOrderEvents(ctx context.Context, handler MessageHandler) error
	ConsumeFanout(ctx context.Context, exchange string, handler MessageHandler) error
}

type MessageHandler func(ctx context.Context, body []byte) error

// ErrMalformedMessage marks handler errors that a redelivery cannot fix.
// Consumers dead-letter such messages without retrying them.
var ErrMalformedMessage = errors.New("malformed message")
