// Package report loads order exports and prints ranked queues for the
// offline rank mode.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/YelzhanWeb/canteen/internal/domain"
	"github.com/YelzhanWeb/canteen/internal/scheduler"
)

// OrderRecord is one order of a JSON export. Missing quantities and item
// lists are allowed.
type OrderRecord struct {
	ID           string       `json:"id"`
	ShopID       string       `json:"shop_id"`
	CustomerName string       `json:"customer_name"`
	Status       string       `json:"status"`
	Items        []ItemRecord `json:"items"`
}

type ItemRecord struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// LoadOrders decodes a JSON array of orders. Orders without a status are
// pending.
func LoadOrders(r io.Reader) ([]domain.Order, error) {
	var records []OrderRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	orders := make([]domain.Order, len(records))
	for i, rec := range records {
		status := domain.Status(rec.Status)
		if status == "" {
			status = domain.StatusPending
		}
		if !status.Valid() {
			return nil, fmt.Errorf("order %s: %w: %q", rec.ID, domain.ErrInvalidStatus, rec.Status)
		}

		o := domain.Order{
			ID:           rec.ID,
			ShopID:       rec.ShopID,
			CustomerName: rec.CustomerName,
			Status:       status,
		}
		if rec.Items != nil {
			o.Items = make([]domain.OrderItem, len(rec.Items))
			for j, it := range rec.Items {
				o.Items[j] = domain.OrderItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price}
			}
		}
		o.CalculateTotal()
		orders[i] = o
	}
	return orders, nil
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Render writes the ranked sequence as a table followed by a total line.
func Render(w io.Writer, results []scheduler.PriorityResult, weights scheduler.Weights) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "ORDER", "ITEMS", "PRIORITY", "PREP MIN", "COMPLEXITY", "RECOMMENDATION").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	total := 0.0
	for i, r := range results {
		total += r.EstimatedPrepTime
		t.Row(
			strconv.Itoa(i+1),
			r.OrderID,
			strconv.Itoa(r.ItemCount),
			strconv.FormatFloat(r.Priority, 'f', 2, 64),
			strconv.FormatFloat(r.EstimatedPrepTime, 'f', 0, 64),
			strconv.FormatFloat(r.Complexity, 'f', 1, 64),
			weights.Recommend(r.Complexity),
		)
	}

	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d orders, %.0f min of work\n", len(results), total)
	return err
}
