package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/scheduler"
)

var ErrQueueEmpty = errors.New("no pending orders in queue")

// QueueEntry is one ranked order of a shop's queue.
type QueueEntry struct {
	scheduler.PriorityResult
	Position       int    `json:"position"`
	CustomerName   string `json:"customer_name,omitempty"`
	Recommendation string `json:"recommendation"`
	// WaitMinutes is the time since the order was placed, 0 when unknown.
	WaitMinutes float64 `json:"wait_minutes"`
	// EstimatedReadyAt assumes the kitchen works the queue in order.
	EstimatedReadyAt time.Time `json:"estimated_ready_at"`
}

type QueueSnapshot struct {
	ShopID           string       `json:"shop_id"`
	Strategy         string       `json:"strategy"`
	GeneratedAt      time.Time    `json:"generated_at"`
	TotalPrepMinutes float64      `json:"total_prep_minutes"`
	Entries          []QueueEntry `json:"entries"`
}

type UpdateStatusCommand struct {
	OrderID   string
	Status    domain.Status
	ChangedBy string
}

type QueueService interface {
	GetQueue(ctx context.Context, shopID string) (*QueueSnapshot, error)
	Next(ctx context.Context, shopID string) (*QueueEntry, error)
	Refresh(ctx context.Context, shopID string) (*QueueSnapshot, error)
	Invalidate(ctx context.Context, shopID string) error
}

type PipelineService interface {
	UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*domain.Order, error)
}

type TrackingService interface {
	GetOrderStatus(ctx context.Context, orderID string) (*TrackingOrderResponse, error)
	GetOrderHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error)
}

// Ответы Tracking Service
type TrackingOrderResponse struct {
	OrderID          string
	ShopID           string
	CurrentStatus    domain.Status
	UpdatedAt        time.Time
	EstimatedReadyAt *time.Time
	ProcessedBy      *string
}
