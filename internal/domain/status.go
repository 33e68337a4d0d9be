package domain

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusPickedUp   Status = "picked_up"
)

// OpenStatuses are the statuses a vendor still has to work on.
var OpenStatuses = []Status{StatusPending, StatusProcessing}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled, StatusPickedUp:
		return true
	}
	return false
}

// StatusLog represents a log entry for order status changes
type StatusLog struct {
	ID        int
	OrderID   string
	Status    Status
	ChangedBy string
	ChangedAt time.Time
	Notes     *string
}
