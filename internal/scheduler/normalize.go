package scheduler

import "github.com/YelzhanWeb/canteen/internal/domain"

// Normalize fills the defaults of a partial order record: items without a
// quantity count once. The input order is left untouched; the returned copy
// owns its item slice.
func Normalize(o domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(o.Items))
	for i, it := range o.Items {
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		items[i] = it
	}
	o.Items = items
	return o
}

// TotalQuantity sums item quantities of a raw order. A missing item list
// counts as zero.
func TotalQuantity(o domain.Order) int {
	total := 0
	for _, it := range Normalize(o).Items {
		total += it.Quantity
	}
	return total
}
