// Package notify is the in-process publish/subscribe channel for order
// events. Delivery is fire-and-forget: only currently connected subscribers
// see an event, and a subscriber that cannot keep up is skipped rather than
// blocking the publisher.
package notify

import (
	"sync"

	"go.uber.org/zap"
)

type Event struct {
	OwnerID string `json:"owner_id,omitempty"`
	OrderID string `json:"order_id,omitempty"`
	Message string `json:"message"`
}

type Bus interface {
	Publish(topic string, ev Event)
	Subscribe(topic string) *Subscription
	Unsubscribe(sub *Subscription)
}

type Subscription struct {
	topic string
	ch    chan Event
}

// C is the receive side; it is closed on Unsubscribe.
func (s *Subscription) C() <-chan Event { return s.ch }

func (s *Subscription) Topic() string { return s.topic }

const subscriberBuffer = 16

type Hub struct {
	log *zap.Logger

	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:    log,
		topics: make(map[string]map[*Subscription]struct{}),
	}
}

func (h *Hub) Subscribe(topic string) *Subscription {
	sub := &Subscription{topic: topic, ch: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.topics[topic]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.topics[topic] = set
	}
	set[sub] = struct{}{}
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return // already removed
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.topics, sub.topic)
	}
	close(sub.ch)
}

func (h *Hub) Publish(topic string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.topics[topic] {
		select {
		case sub.ch <- ev:
		default:
			h.log.Warn("notification dropped, subscriber buffer full",
				zap.String("topic", topic))
		}
	}
}
