package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, shop_id, customer_name, total_amount, status, processed_by, created_at, updated_at, picked_up_at`

func scanOrder(row Row) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID, &order.ShopID, &order.CustomerName, &order.TotalAmount, &order.Status,
		&order.ProcessedBy, &order.CreatedAt, &order.UpdatedAt, &order.PickedUpAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	orders := []domain.Order{*order}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *orderRepository) ListOpenByShop(ctx context.Context, shopID string) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE shop_id = $1 AND status IN ('pending', 'processing')
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to query open orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read open orders: %w", err)
	}
	rows.Close()

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems fills the item lists of orders in one round trip.
func (r *orderRepository) loadItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	query := `SELECT order_id, name, quantity, price FROM order_items WHERE order_id = ANY($1) ORDER BY id`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			item    domain.OrderItem
		)
		if err := rows.Scan(&orderID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return rows.Err()
}

func (r *orderRepository) ListActiveShops(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT shop_id FROM orders
		WHERE status IN ('pending', 'processing')
		ORDER BY shop_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active shops: %w", err)
	}
	defer rows.Close()

	var shops []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan shop id: %w", err)
		}
		shops = append(shops, id)
	}
	return shops, rows.Err()
}

func (r *orderRepository) UpdateStatusWithLog(ctx context.Context, order *domain.Order, from domain.Status, changedBy string) error {
	changedAt := order.UpdatedAt
	if changedAt.IsZero() {
		changedAt = time.Now()
	}

	return inTx(ctx, r.db, func(tx Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders
			SET status = $1, processed_by = $2, updated_at = $3, picked_up_at = $4
			WHERE id = $5 AND status = $6
		`, order.Status, order.ProcessedBy, order.UpdatedAt, order.PickedUpAt, order.ID, from)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return staleUpdate(ctx, tx, order.ID, from)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
			VALUES ($1, $2, $3, $4)
		`, order.ID, order.Status, changedBy, changedAt)
		if err != nil {
			return fmt.Errorf("failed to log status: %w", err)
		}
		return nil
	})
}

// staleUpdate explains why a conditional update matched no row.
func staleUpdate(ctx context.Context, tx Tx, id string, from domain.Status) error {
	var current domain.Status
	err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to load order status: %w", err)
	}
	return fmt.Errorf("%w: order %s is %s, expected %s", domain.ErrInvalidStatusTransition, id, current, from)
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error) {
	query := `
		SELECT id, order_id, status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		var log domain.StatusLog
		if err := rows.Scan(&log.ID, &log.OrderID, &log.Status, &log.ChangedBy, &log.ChangedAt, &log.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}
