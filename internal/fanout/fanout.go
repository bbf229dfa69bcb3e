// Package fanout is an in-process publish/subscribe hub keyed by topic.
package fanout

import (
	"sync"

	"github.com/MrSnakeDoc/flare/internal/logger"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 256

// Hub delivers every value published on a topic to each subscriber of that
// topic, in publish order. Delivery is best effort: a subscriber whose
// buffer is full misses the value.
type Hub[T any] struct {
	mu     sync.Mutex
	topics map[string]map[int]chan T
	nextID int
	buffer int
	logger logger.Logger
}

// New creates a hub with buffer-sized subscriber queues.
func New[T any](buffer int, log logger.Logger) *Hub[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub[T]{
		topics: make(map[string]map[int]chan T),
		buffer: buffer,
		logger: log,
	}
}

// Publish fans v out to the current subscribers of topic.
// It never blocks and returns how many subscribers received v.
func (h *Hub[T]) Publish(topic string, v T) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for id, ch := range h.topics[topic] {
		select {
		case ch <- v:
			delivered++
		default:
			h.logger.Warn("subscriber queue full, dropping message",
				logger.String("topic", topic),
				logger.Int("subscriber", id))
		}
	}
	return delivered
}

// Subscribe registers a subscriber on topic. The returned cancel func
// unregisters it and closes the channel; it is safe to call more than once.
func (h *Hub[T]) Subscribe(topic string) (<-chan T, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan T, h.buffer)
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[int]chan T)
	}
	h.topics[topic][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.topics[topic], id)
			if len(h.topics[topic]) == 0 {
				delete(h.topics, topic)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of live subscribers on topic.
func (h *Hub[T]) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}
