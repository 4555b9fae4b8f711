package cart

import (
	"time"

	"ecom-backend/internal/identity"
)

type Item struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id,omitempty"`
	SessionKey string    `json:"-"`
	ProductID  string    `json:"product"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (i Item) Owner() identity.Owner {
	if i.UserID != "" {
		return identity.User(i.UserID)
	}
	return identity.Session(i.SessionKey)
}

// AddItemRequest payload to put a product in the cart.
// swagger:model AddItemRequest
type AddItemRequest struct {
	ProductID string `json:"product" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}
