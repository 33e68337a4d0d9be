package queue

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/YelzhanWeb/canteen/internal/adapter/logger"
	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
	"github.com/YelzhanWeb/canteen/internal/scheduler"
)

// Service keeps every shop's ranked queue. Each computation builds its own
// scheduler over a fresh snapshot of open orders.
type Service struct {
	repo      interfaces.OrderRepository
	cache     interfaces.QueueCache
	publisher interfaces.MessagePublisher
	logger    logger.Logger
	weights   scheduler.Weights
	strategy  scheduler.Strategy
	now       func() time.Time
}

// NewService wires the queue. cache and publisher are optional.
func NewService(
	repo interfaces.OrderRepository,
	cache interfaces.QueueCache,
	publisher interfaces.MessagePublisher,
	logger logger.Logger,
	weights scheduler.Weights,
	strategy scheduler.Strategy,
) (*Service, error) {
	// Fail at startup rather than on the first request.
	if _, err := scheduler.New(nil, weights, strategy); err != nil {
		return nil, err
	}

	return &Service{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		weights:   weights,
		strategy:  strategy,
		now:       time.Now,
	}, nil
}

func (s *Service) GetQueue(ctx context.Context, shopID string) (*interfaces.QueueSnapshot, error) {
	if s.cache != nil {
		snap, err := s.cache.Get(ctx, shopID)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, interfaces.ErrCacheMiss) {
			s.logger.Warn("cache_read_failed", "Failed to read cached queue", "", map[string]interface{}{
				"shop_id": shopID,
				"error":   err.Error(),
			})
		}
	}

	snap, err := s.build(ctx, shopID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, snap)
	return snap, nil
}

// Next returns the highest ranked order the kitchen has not started yet.
func (s *Service) Next(ctx context.Context, shopID string) (*interfaces.QueueEntry, error) {
	snap, err := s.GetQueue(ctx, shopID)
	if err != nil {
		return nil, err
	}
	for i := range snap.Entries {
		if snap.Entries[i].Status == domain.StatusPending {
			entry := snap.Entries[i]
			return &entry, nil
		}
	}
	return nil, interfaces.ErrQueueEmpty
}

// Refresh recomputes the queue regardless of the cache and publishes it.
func (s *Service) Refresh(ctx context.Context, shopID string) (*interfaces.QueueSnapshot, error) {
	snap, err := s.build(ctx, shopID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, snap)

	if s.publisher != nil {
		if err := s.publisher.PublishQueueUpdate(ctx, *snap); err != nil {
			s.logger.Error("rabbitmq_publish_failed", "Failed to publish queue update", "", map[string]interface{}{
				"shop_id": shopID,
			}, err)
		}
	}

	s.logger.Debug("queue_refreshed", fmt.Sprintf("Queue for shop %s refreshed", shopID), "", map[string]interface{}{
		"shop_id": shopID,
		"orders":  len(snap.Entries),
	})
	return snap, nil
}

func (s *Service) Invalidate(ctx context.Context, shopID string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, shopID); err != nil {
		return fmt.Errorf("failed to invalidate queue: %w", err)
	}
	return nil
}

// RunRefresher refreshes every shop with open orders on each tick until ctx
// is done. Shops that just ran out of orders get one last, empty refresh.
func (s *Service) RunRefresher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	active := map[string]bool{}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			active = s.refreshAll(ctx, active)
		}
	}
}

func (s *Service) refreshAll(ctx context.Context, previous map[string]bool) map[string]bool {
	shops, err := s.repo.ListActiveShops(ctx)
	if err != nil {
		s.logger.Error("db_error", "Failed to list active shops", "", nil, err)
		return previous
	}

	current := make(map[string]bool, len(shops))
	for _, id := range shops {
		current[id] = true
	}
	for id := range previous {
		if !current[id] {
			shops = append(shops, id)
		}
	}

	for _, id := range shops {
		if _, err := s.Refresh(ctx, id); err != nil {
			s.logger.Error("queue_refresh_failed", "Failed to refresh queue", "", map[string]interface{}{
				"shop_id": id,
			}, err)
		}
	}
	return current
}

func (s *Service) build(ctx context.Context, shopID string) (*interfaces.QueueSnapshot, error) {
	orders, err := s.repo.ListOpenByShop(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open orders: %w", err)
	}

	sched, err := scheduler.New(orders, s.weights, s.strategy)
	if err != nil {
		return nil, err
	}

	// Both slices share the same ranking.
	ranked := sched.PrioritizeOrders()
	seq := sched.OptimalSequence()

	now := s.now().UTC()
	snap := &interfaces.QueueSnapshot{
		ShopID:      shopID,
		Strategy:    string(s.strategy),
		GeneratedAt: now,
		Entries:     make([]interfaces.QueueEntry, len(seq)),
	}

	for i, r := range seq {
		o := ranked[i]
		snap.TotalPrepMinutes += r.EstimatedPrepTime

		wait := 0.0
		if !o.CreatedAt.IsZero() {
			wait = math.Max(0, now.Sub(o.CreatedAt).Minutes())
		}

		snap.Entries[i] = interfaces.QueueEntry{
			PriorityResult:   r,
			Position:         i + 1,
			CustomerName:     o.CustomerName,
			Recommendation:   s.weights.Recommend(r.Complexity),
			WaitMinutes:      math.Round(wait*10) / 10,
			EstimatedReadyAt: now.Add(minutes(snap.TotalPrepMinutes)),
		}
	}

	return snap, nil
}

func (s *Service) store(ctx context.Context, snap *interfaces.QueueSnapshot) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, snap); err != nil {
		s.logger.Warn("cache_write_failed", "Failed to cache queue", "", map[string]interface{}{
			"shop_id": snap.ShopID,
			"error":   err.Error(),
		})
	}
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}
