// Package firestore reads vendor orders from the marketplace's Firestore
// collection. Each order document keeps its items inline and its status
// changes in a status_log subcollection.
package firestore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/YelzhanWeb/canteen/internal/config"
	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

const statusLogCollection = "status_log"

// openStatuses is domain.OpenStatuses as stored strings, for "in" filters.
var openStatuses = func() []string {
	out := make([]string, len(domain.OpenStatuses))
	for i, s := range domain.OpenStatuses {
		out[i] = string(s)
	}
	return out
}()

type itemRecord struct {
	Name     string  `firestore:"name"`
	Quantity int     `firestore:"quantity"`
	Price    float64 `firestore:"price"`
}

type orderRecord struct {
	ShopID       string       `firestore:"shop_id"`
	CustomerName string       `firestore:"customer_name"`
	Items        []itemRecord `firestore:"items"`
	TotalAmount  float64      `firestore:"total_amount"`
	Status       string       `firestore:"status"`
	ProcessedBy  *string      `firestore:"processed_by"`
	CreatedAt    time.Time    `firestore:"created_at"`
	UpdatedAt    time.Time    `firestore:"updated_at"`
	PickedUpAt   *time.Time   `firestore:"picked_up_at"`
}

type statusLogRecord struct {
	Status    string    `firestore:"status"`
	ChangedBy string    `firestore:"changed_by"`
	ChangedAt time.Time `firestore:"changed_at"`
	Notes     *string   `firestore:"notes"`
}

func (r orderRecord) toDomain(id string) domain.Order {
	order := domain.Order{
		ID:           id,
		ShopID:       r.ShopID,
		CustomerName: r.CustomerName,
		TotalAmount:  r.TotalAmount,
		Status:       domain.Status(r.Status),
		ProcessedBy:  r.ProcessedBy,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		PickedUpAt:   r.PickedUpAt,
	}
	if r.Items != nil {
		order.Items = make([]domain.OrderItem, len(r.Items))
		for i, it := range r.Items {
			order.Items[i] = domain.OrderItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price}
		}
	}
	return order
}

// Connect opens a Firestore client through the Firebase Admin SDK. Without a
// credentials file, application default credentials are used.
func Connect(ctx context.Context, cfg config.FirebaseConfig) (*firestore.Client, error) {
	opts := []option.ClientOption{}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase app.Firestore: %w", err)
	}
	return client, nil
}

type orderRepository struct {
	client     *firestore.Client
	collection string
}

func NewOrderRepository(client *firestore.Client, collection string) interfaces.OrderRepository {
	return &orderRepository{client: client, collection: collection}
}

func (r *orderRepository) orders() *firestore.CollectionRef {
	return r.client.Collection(r.collection)
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	snap, err := r.orders().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	var rec orderRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode order %s: %w", id, err)
	}
	order := rec.toDomain(snap.Ref.ID)
	return &order, nil
}

// ListOpenByShop sorts in memory so the query needs no composite index.
func (r *orderRepository) ListOpenByShop(ctx context.Context, shopID string) ([]domain.Order, error) {
	iter := r.orders().
		Where("shop_id", "==", shopID).
		Where("status", "in", openStatuses).
		Documents(ctx)
	defer iter.Stop()

	var orders []domain.Order
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query open orders: %w", err)
		}
		var rec orderRecord
		if err := snap.DataTo(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode order %s: %w", snap.Ref.ID, err)
		}
		orders = append(orders, rec.toDomain(snap.Ref.ID))
	}

	slices.SortStableFunc(orders, func(a, b domain.Order) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return orders, nil
}

func (r *orderRepository) ListActiveShops(ctx context.Context) ([]string, error) {
	iter := r.orders().
		Where("status", "in", openStatuses).
		Select("shop_id").
		Documents(ctx)
	defer iter.Stop()

	seen := map[string]bool{}
	var shops []string
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query active shops: %w", err)
		}
		v, err := snap.DataAt("shop_id")
		if err != nil {
			continue
		}
		id, ok := v.(string)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		shops = append(shops, id)
	}

	slices.Sort(shops)
	return shops, nil
}

func (r *orderRepository) UpdateStatusWithLog(ctx context.Context, order *domain.Order, from domain.Status, changedBy string) error {
	ref := r.orders().Doc(order.ID)

	changedAt := order.UpdatedAt
	if changedAt.IsZero() {
		changedAt = time.Now()
	}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		current, err := snap.DataAt("status")
		if err != nil {
			return fmt.Errorf("failed to read status of order %s: %w", order.ID, err)
		}
		if current != string(from) {
			return fmt.Errorf("%w: order %s is %v, expected %s", domain.ErrInvalidStatusTransition, order.ID, current, from)
		}

		updates := []firestore.Update{
			{Path: "status", Value: string(order.Status)},
			{Path: "processed_by", Value: order.ProcessedBy},
			{Path: "updated_at", Value: order.UpdatedAt},
			{Path: "picked_up_at", Value: order.PickedUpAt},
		}
		if err := tx.Update(ref, updates); err != nil {
			return err
		}

		return tx.Create(ref.Collection(statusLogCollection).NewDoc(), statusLogRecord{
			Status:    string(order.Status),
			ChangedBy: changedBy,
			ChangedAt: changedAt,
		})
	})
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, order.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error) {
	iter := r.orders().Doc(orderID).Collection(statusLogCollection).
		OrderBy("changed_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var logs []*domain.StatusLog
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query status history: %w", err)
		}
		var rec statusLogRecord
		if err := snap.DataTo(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode status log: %w", err)
		}
		// Firestore ids are random strings; number entries in order instead.
		logs = append(logs, &domain.StatusLog{
			ID:        len(logs) + 1,
			OrderID:   orderID,
			Status:    domain.Status(rec.Status),
			ChangedBy: rec.ChangedBy,
			ChangedAt: rec.ChangedAt,
			Notes:     rec.Notes,
		})
	}
	return logs, nil
}
