package domain

import (
	"errors"
	"slices"
	"time"
)

// Order is a customer's request to a shop as stored by the marketplace.
type Order struct {
	ID           string
	ShopID       string
	CustomerName string
	Items        []OrderItem
	TotalAmount  float64
	Status       Status
	ProcessedBy  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PickedUpAt   *time.Time
}

// OrderItem represents an item in an order. A zero Quantity means the
// record did not carry one.
type OrderItem struct {
	Name     string
	Quantity int
	Price    float64
}

// CalculateTotal calculates the total amount of the order
func (o *Order) CalculateTotal() {
	total := 0.0
	for _, item := range o.Items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		total += item.Price * float64(qty)
	}
	o.TotalAmount = total
}

// TransitionTo transitions the order to a new status
func (o *Order) TransitionTo(newStatus Status, processedBy string) error {
	if !o.CanTransitionTo(newStatus) {
		return ErrInvalidStatusTransition
	}

	now := time.Now()
	o.Status = newStatus
	o.UpdatedAt = now

	if processedBy != "" {
		o.ProcessedBy = &processedBy
	}

	if newStatus == StatusPickedUp {
		o.PickedUpAt = &now
	}

	return nil
}

var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {StatusPickedUp},
	StatusCancelled:  {},
	StatusPickedUp:   {},
}

// CanTransitionTo checks if the order can transition to the new status
func (o *Order) CanTransitionTo(newStatus Status) bool {
	for _, s := range validTransitions[o.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// IsOpen reports whether the vendor still has to prepare the order.
func (o *Order) IsOpen() bool {
	return slices.Contains(OpenStatuses, o.Status)
}

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidStatus           = errors.New("invalid order status")
	ErrOrderNotFound           = errors.New("order not found")
)
