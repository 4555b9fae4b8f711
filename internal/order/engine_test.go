package order

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ecom-backend/internal/cart"
	"ecom-backend/internal/identity"
	"ecom-backend/internal/notify"
)

// memState backs both the cart repository and the order repository so the
// fake Place can mirror the real transactional semantics: everything under
// one lock, all-or-nothing.
type memState struct {
	mu       sync.Mutex
	stock    map[string]int
	prices   map[string]decimal.Decimal
	cart     map[string][]cart.Item // keyed by owner topic
	orders   map[string]*Order
	sequence int
}

func newMemState() *memState {
	return &memState{
		stock:  map[string]int{},
		prices: map[string]decimal.Decimal{},
		cart:   map[string][]cart.Item{},
		orders: map[string]*Order{},
	}
}

func (s *memState) addProduct(id string, stock int, price string) {
	s.stock[id] = stock
	s.prices[id] = decimal.RequireFromString(price)
}

func (s *memState) addCartItem(owner identity.Owner, productID string, qty int) {
	key := owner.Topic()
	it := cart.Item{ID: fmt.Sprintf("ci-%d", len(s.cart[key])), ProductID: productID, Quantity: qty}
	if !owner.IsAnonymous() {
		it.UserID = owner.UserID()
	} else {
		it.SessionKey = owner.SessionKey()
	}
	s.cart[key] = append(s.cart[key], it)
}

type memCarts struct{ s *memState }

func (m *memCarts) AddOrUpdate(ctx context.Context, owner identity.Owner, productID string, qty int) (*cart.Item, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.addCartItem(owner, productID, qty)
	items := m.s.cart[owner.Topic()]
	return &items[len(items)-1], nil
}

func (m *memCarts) ListByOwner(ctx context.Context, owner identity.Owner) ([]cart.Item, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return append([]cart.Item(nil), m.s.cart[owner.Topic()]...), nil
}

func (m *memCarts) Remove(ctx context.Context, owner identity.Owner, productID string) (bool, error) {
	return false, nil
}

func (m *memCarts) Clear(ctx context.Context, owner identity.Owner) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.cart, owner.Topic())
	return nil
}

type memOrders struct{ s *memState }

func (m *memOrders) Place(ctx context.Context, owner identity.Owner) (*Order, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	items := m.s.cart[owner.Topic()]
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, it := range items {
		if m.s.stock[it.ProductID] < it.Quantity {
			return nil, &InsufficientStockError{ProductID: it.ProductID}
		}
	}

	m.s.sequence++
	o := &Order{ID: fmt.Sprintf("ord-%d", m.s.sequence), Status: StatusPlaced}
	if !owner.IsAnonymous() {
		o.UserID = owner.UserID()
	} else {
		o.SessionKey = owner.SessionKey()
	}
	for i, it := range items {
		o.Items = append(o.Items, Item{
			ID:        fmt.Sprintf("%s-it-%d", o.ID, i),
			OrderID:   o.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     m.s.prices[it.ProductID],
		})
		m.s.stock[it.ProductID] -= it.Quantity
	}
	delete(m.s.cart, owner.Topic())
	m.s.orders[o.ID] = o
	return o, nil
}

func (m *memOrders) GetByID(ctx context.Context, id string) (*Order, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	o, ok := m.s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) ListByOwner(ctx context.Context, owner identity.Owner, limit, offset int) ([]Order, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []Order
	for _, o := range m.s.orders {
		if o.Owner() == owner {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(ctx context.Context, id string, expected, next Status) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	o, ok := m.s.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != expected {
		return ErrInvalidStatus
	}
	o.Status = next
	return nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []struct {
		topic string
		ev    notify.Event
	}
	panics bool
}

func (b *recordingBus) Publish(topic string, ev notify.Event) {
	if b.panics {
		panic("bus down")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, struct {
		topic string
		ev    notify.Event
	}{topic, ev})
}

func (b *recordingBus) Subscribe(topic string) *notify.Subscription { return nil }
func (b *recordingBus) Unsubscribe(sub *notify.Subscription)        {}

func newTestEngine(s *memState, bus notify.Bus) *Engine {
	return NewEngine(&memOrders{s: s}, &memCarts{s: s}, bus, zap.NewNop())
}

func TestPlaceOrder_Success(t *testing.T) {
	s := newMemState()
	bus := &recordingBus{}
	e := newTestEngine(s, bus)
	owner := identity.User("u1")

	s.addProduct("A", 5, "19.90")
	s.addCartItem(owner, "A", 2)

	o, err := e.PlaceOrder(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, o.Items, 1)

	assert.Equal(t, StatusPlaced, o.Status)
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, o.Items[0].Price.Equal(decimal.RequireFromString("19.90")))
	assert.Equal(t, 3, s.stock["A"])
	assert.Empty(t, s.cart[owner.Topic()], "cart must be consumed")

	require.Len(t, bus.events, 1)
	assert.Equal(t, "user_u1", bus.events[0].topic)
	assert.Equal(t, fmt.Sprintf("Order #%s placed successfully!", o.ID), bus.events[0].ev.Message)
}

func TestPlaceOrder_SnapshotPriceImmuneToLaterChange(t *testing.T) {
	s := newMemState()
	e := newTestEngine(s, &recordingBus{})
	owner := identity.Session("sess-1")

	s.addProduct("A", 5, "10.00")
	s.addCartItem(owner, "A", 1)

	o, err := e.PlaceOrder(context.Background(), owner)
	require.NoError(t, err)

	s.prices["A"] = decimal.RequireFromString("99.99")

	got, err := e.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, got.Items[0].Price.Equal(decimal.RequireFromString("10.00")))
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	s := newMemState()
	bus := &recordingBus{}
	e := newTestEngine(s, bus)

	_, err := e.PlaceOrder(context.Background(), identity.User("u1"))
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, s.orders)
	assert.Empty(t, bus.events)
}

func TestPlaceOrder_InsufficientStockIsAtomic(t *testing.T) {
	s := newMemState()
	e := newTestEngine(s, &recordingBus{})
	owner := identity.User("u1")

	s.addProduct("A", 5, "10.00")
	s.addProduct("B", 1, "5.00")
	s.addCartItem(owner, "A", 2)
	s.addCartItem(owner, "B", 3)

	_, err := e.PlaceOrder(context.Background(), owner)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "B", stockErr.ProductID)

	// nothing persisted, nothing decremented, cart intact
	assert.Empty(t, s.orders)
	assert.Equal(t, 5, s.stock["A"])
	assert.Equal(t, 1, s.stock["B"])
	assert.Len(t, s.cart[owner.Topic()], 2)
}

func TestPlaceOrder_ConcurrentSingleUnit(t *testing.T) {
	s := newMemState()
	e := newTestEngine(s, &recordingBus{})
	s.addProduct("A", 1, "10.00")

	owners := []identity.Owner{identity.User("u1"), identity.User("u2")}
	for _, o := range owners {
		s.addCartItem(o, "A", 1)
	}

	errs := make(chan error, len(owners))
	var wg sync.WaitGroup
	for _, o := range owners {
		wg.Add(1)
		go func(owner identity.Owner) {
			defer wg.Done()
			_, err := e.PlaceOrder(context.Background(), owner)
			errs <- err
		}(o)
	}
	wg.Wait()
	close(errs)

	var ok, insufficient int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		var stockErr *InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		insufficient++
	}
	assert.Equal(t, 1, ok, "exactly one placement succeeds")
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, 0, s.stock["A"])
}

func TestPlaceOrder_NotificationFailureDoesNotFailOrder(t *testing.T) {
	s := newMemState()
	e := newTestEngine(s, &recordingBus{panics: true})
	owner := identity.User("u1")

	s.addProduct("A", 5, "10.00")
	s.addCartItem(owner, "A", 1)

	o, err := e.PlaceOrder(context.Background(), owner)
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, 4, s.stock["A"], "order committed despite notify failure")
}

func TestUpdateStatus_Forbidden(t *testing.T) {
	s := newMemState()
	e := newTestEngine(s, &recordingBus{})

	_, err := e.UpdateStatus(context.Background(), "ord-1", "shipped", false)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	s := newMemState()
	e := newTestEngine(s, &recordingBus{})

	_, err := e.UpdateStatus(context.Background(), "missing", "shipped", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func placeTestOrder(t *testing.T, e *Engine, s *memState, owner identity.Owner) *Order {
	t.Helper()
	s.addProduct("A", 5, "10.00")
	s.addCartItem(owner, "A", 1)
	o, err := e.PlaceOrder(context.Background(), owner)
	require.NoError(t, err)
	return o
}

func TestUpdateStatus_UnknownValueLeavesOrderUnchanged(t *testing.T) {
	s := newMemState()
	bus := &recordingBus{}
	e := newTestEngine(s, bus)
	o := placeTestOrder(t, e, s, identity.User("u1"))

	_, err := e.UpdateStatus(context.Background(), o.ID, "frobnicated", true)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	got, err := e.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPlaced, got.Status)
}

func TestUpdateStatus_BackwardTransitionRejected(t *testing.T) {
	s := newMemState()
	e := newTestEngine(s, &recordingBus{})
	o := placeTestOrder(t, e, s, identity.User("u1"))

	_, err := e.UpdateStatus(context.Background(), o.ID, "delivered", true)
	require.NoError(t, err)

	_, err = e.UpdateStatus(context.Background(), o.ID, "processing", true)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatus_SuccessNotifiesOwner(t *testing.T) {
	s := newMemState()
	bus := &recordingBus{}
	e := newTestEngine(s, bus)
	o := placeTestOrder(t, e, s, identity.User("u7"))
	bus.events = nil

	got, err := e.UpdateStatus(context.Background(), o.ID, "shipped", true)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, got.Status)

	require.Len(t, bus.events, 1)
	assert.Equal(t, "user_u7", bus.events[0].topic)
	assert.Equal(t, fmt.Sprintf("Order #%s status updated to Shipped!", o.ID), bus.events[0].ev.Message)
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPlaced, StatusProcessing, true},
		{StatusPlaced, StatusDelivered, true},
		{StatusProcessing, StatusPlaced, false},
		{StatusShipped, StatusCancelled, true},
		{StatusCancelled, StatusPlaced, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusPlaced, StatusPlaced, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}
