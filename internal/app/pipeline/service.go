package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
	"github.com/YelzhanWeb/canteen/internal/scheduler"
)

// Service moves orders through the vendor pipeline and tells everyone who
// listens about it.
type Service struct {
	orderRepo interfaces.OrderRepository
	queue     interfaces.QueueService
	publisher interfaces.MessagePublisher
	logger    logger.Logger
	weights   scheduler.Weights
	now       func() time.Time
}

// NewService builds the pipeline. queue and publisher may be nil.
func NewService(
	orderRepo interfaces.OrderRepository,
	queue interfaces.QueueService,
	publisher interfaces.MessagePublisher,
	logger logger.Logger,
	weights scheduler.Weights,
) *Service {
	return &Service{
		orderRepo: orderRepo,
		queue:     queue,
		publisher: publisher,
		logger:    logger,
		weights:   weights,
		now:       time.Now,
	}
}

func (s *Service) UpdateStatus(ctx context.Context, cmd interfaces.UpdateStatusCommand) (*domain.Order, error) {
	if !cmd.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, cmd.Status)
	}

	order, err := s.orderRepo.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	// Идемпотентность: повторный запрос с тем же статусом ничего не меняет
	if order.Status == cmd.Status {
		return order, nil
	}

	oldStatus := order.Status
	if err := order.TransitionTo(cmd.Status, cmd.ChangedBy); err != nil {
		return nil, fmt.Errorf("%w: %s -> %s", err, oldStatus, cmd.Status)
	}

	if err := s.orderRepo.UpdateStatusWithLog(ctx, order, oldStatus, cmd.ChangedBy); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Debug("order_status_changed", fmt.Sprintf("Order %s moved to %s", order.ID, order.Status), "", map[string]interface{}{
		"order_id":   order.ID,
		"shop_id":    order.ShopID,
		"old_status": oldStatus,
		"new_status": order.Status,
	})

	s.notify(ctx, order, oldStatus, cmd.ChangedBy)

	if s.queue != nil {
		if err := s.queue.Invalidate(ctx, order.ShopID); err != nil {
			s.logger.Warn("queue_invalidate_failed", "Failed to invalidate queue", "", map[string]interface{}{
				"shop_id": order.ShopID,
				"error":   err.Error(),
			})
		}
	}

	return order, nil
}

// notify never fails the status change.
func (s *Service) notify(ctx context.Context, order *domain.Order, oldStatus domain.Status, changedBy string) {
	if s.publisher == nil {
		return
	}

	now := s.now()
	update := interfaces.StatusUpdateMessage{
		OrderID:   order.ID,
		ShopID:    order.ShopID,
		OldStatus: oldStatus,
		NewStatus: order.Status,
		ChangedBy: changedBy,
		Timestamp: now,
	}

	// Если заказ начали готовить, добавляем примерное время готовности
	if order.Status == domain.StatusProcessing {
		prep := s.weights.PrepTime(scheduler.TotalQuantity(*order))
		estimated := now.Add(time.Duration(prep * float64(time.Minute)))
		update.EstimatedCompletion = &estimated
	}

	if err := s.publisher.PublishStatusUpdate(ctx, update); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish status update", "", map[string]interface{}{
			"order_id": order.ID,
		}, err)
	}

	event := interfaces.OrderEventMessage{
		OrderID:   order.ID,
		ShopID:    order.ShopID,
		Event:     interfaces.OrderEventStatusChanged,
		Status:    order.Status,
		Timestamp: now,
	}
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish order event", "", map[string]interface{}{
			"order_id": order.ID,
		}, err)
	}
}
