package tracking

import (
	"context"
	"time"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
	"github.com/YelzhanWeb/canteen/internal/scheduler"
)

type Service struct {
	orderRepo interfaces.OrderRepository
	queue     interfaces.QueueService
	logger    logger.Logger
	weights   scheduler.Weights
}

// NewService builds the tracker. Without a queue, pending orders have no
// ready estimate.
func NewService(orderRepo interfaces.OrderRepository, queue interfaces.QueueService, logger logger.Logger, weights scheduler.Weights) *Service {
	return &Service{
		orderRepo: orderRepo,
		queue:     queue,
		logger:    logger,
		weights:   weights,
	}
}

func (s *Service) GetOrderStatus(ctx context.Context, orderID string) (*interfaces.TrackingOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	resp := &interfaces.TrackingOrderResponse{
		OrderID:       order.ID,
		ShopID:        order.ShopID,
		CurrentStatus: order.Status,
		UpdatedAt:     order.UpdatedAt,
		ProcessedBy:   order.ProcessedBy,
	}

	switch order.Status {
	case domain.StatusProcessing:
		prep := s.weights.PrepTime(scheduler.TotalQuantity(*order))
		est := order.UpdatedAt.Add(time.Duration(prep * float64(time.Minute)))
		resp.EstimatedReadyAt = &est
	case domain.StatusPending:
		resp.EstimatedReadyAt = s.queuedEstimate(ctx, order)
	}

	return resp, nil
}

// queuedEstimate looks the order up in its shop's current queue.
func (s *Service) queuedEstimate(ctx context.Context, order *domain.Order) *time.Time {
	if s.queue == nil {
		return nil
	}

	snap, err := s.queue.GetQueue(ctx, order.ShopID)
	if err != nil {
		s.logger.Warn("queue_lookup_failed", "Failed to load queue for estimate", "", map[string]interface{}{
			"order_id": order.ID,
			"shop_id":  order.ShopID,
			"error":    err.Error(),
		})
		return nil
	}

	for _, e := range snap.Entries {
		if e.OrderID == order.ID {
			est := e.EstimatedReadyAt
			return &est
		}
	}
	return nil
}

func (s *Service) GetOrderHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.orderRepo.GetStatusHistory(ctx, order.ID)
}
