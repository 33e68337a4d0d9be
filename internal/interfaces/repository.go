package interfaces

import (
	"context"
	"errors"

	"github.com/YelzhanWeb/canteen/internal/domain"
)

// OrderRepository is the marketplace's order store as seen by the vendor side.
type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// ListOpenByShop returns the shop's pending and processing orders,
	// oldest first.
	ListOpenByShop(ctx context.Context, shopID string) ([]domain.Order, error)
	ListActiveShops(ctx context.Context) ([]string, error)
	// UpdateStatusWithLog stores the order's new status only if the stored
	// status is still from, otherwise it fails with
	// domain.ErrInvalidStatusTransition.
	UpdateStatusWithLog(ctx context.Context, order *domain.Order, from domain.Status, changedBy string) error
	GetStatusHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error)
}

var ErrCacheMiss = errors.New("queue snapshot not cached")

// QueueCache keeps the latest queue snapshot per shop.
type QueueCache interface {
	Get(ctx context.Context, shopID string) (*QueueSnapshot, error)
	Set(ctx context.Context, snapshot *QueueSnapshot) error
	Delete(ctx context.Context, shopID string) error
}
