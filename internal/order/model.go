package order

import (
	"time"

	"github.com/shopspring/decimal"

	"ecom-backend/internal/identity"
)

type Status string

const (
	StatusPlaced     Status = "placed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var statusRank = map[Status]int{
	StatusPlaced:     0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// ParseStatus validates a raw status value.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPlaced, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

// CanTransition reports whether from -> to is a legal move: strictly forward
// through the fulfilment states, with cancelled reachable from any
// non-terminal state and terminal itself.
func CanTransition(from, to Status) bool {
	if from == StatusCancelled || from == StatusDelivered {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return statusRank[to] > statusRank[from]
}

type Order struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id,omitempty"`
	SessionKey string    `json:"-"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Items      []Item    `json:"items,omitempty"`
}

func (o *Order) Owner() identity.Owner {
	if o.UserID != "" {
		return identity.User(o.UserID)
	}
	return identity.Session(o.SessionKey)
}

// Item snapshots the unit price at order time; it is never recomputed from
// the product's current price.
type Item struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// UpdateStatusRequest payload for the admin status transition.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required" example:"shipped"`
}
