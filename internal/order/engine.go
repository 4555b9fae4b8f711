package order

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ecom-backend/internal/cart"
	"ecom-backend/internal/database"
	"ecom-backend/internal/identity"
	"ecom-backend/internal/notify"
)

// Engine converts carts into orders and drives admin status transitions.
// The storage transaction is the correctness mechanism for stock; the engine
// sequences the best-effort notification strictly after commit.
type Engine struct {
	orders Repository
	carts  cart.Repository
	bus    notify.Bus
	log    *zap.Logger
}

func NewEngine(orders Repository, carts cart.Repository, bus notify.Bus, log *zap.Logger) *Engine {
	return &Engine{orders: orders, carts: carts, bus: bus, log: log}
}

func (e *Engine) PlaceOrder(ctx context.Context, owner identity.Owner) (*Order, error) {
	items, err := e.carts.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("resolve cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	o, err := e.orders.Place(ctx, owner)
	if err != nil {
		// A placement that kept losing the serialization race is a stock
		// loser, not a server fault.
		if database.IsRetryable(err) {
			return nil, &InsufficientStockError{}
		}
		return nil, err
	}

	e.publish(owner, notify.Event{
		OwnerID: owner.UserID(),
		OrderID: o.ID,
		Message: fmt.Sprintf("Order #%s placed successfully!", o.ID),
	})
	return o, nil
}

func (e *Engine) UpdateStatus(ctx context.Context, orderID, newStatus string, admin bool) (*Order, error) {
	if !admin {
		return nil, ErrForbidden
	}
	next, ok := ParseStatus(newStatus)
	if !ok {
		return nil, ErrInvalidStatus
	}

	o, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, next) {
		return nil, ErrInvalidStatus
	}
	if err := e.orders.UpdateStatus(ctx, orderID, o.Status, next); err != nil {
		return nil, err
	}
	o.Status = next

	e.publish(o.Owner(), notify.Event{
		OwnerID: o.UserID,
		OrderID: o.ID,
		Message: fmt.Sprintf("Order #%s status updated to %s!", o.ID, title(string(next))),
	})
	return o, nil
}

func (e *Engine) GetByID(ctx context.Context, id string) (*Order, error) {
	return e.orders.GetByID(ctx, id)
}

func (e *Engine) ListByOwner(ctx context.Context, owner identity.Owner, limit, offset int) ([]Order, error) {
	return e.orders.ListByOwner(ctx, owner, limit, offset)
}

// publish delivers a notification to the owner's topic. Delivery is
// best-effort: any failure is logged and swallowed, never propagated to the
// caller whose order already committed.
func (e *Engine) publish(owner identity.Owner, ev notify.Event) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("notification publish failed",
				zap.String("topic", owner.Topic()), zap.Any("panic", r))
		}
	}()
	e.bus.Publish(owner.Topic(), ev)
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
