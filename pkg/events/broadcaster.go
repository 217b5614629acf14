package events

import (
	"context"
	"sync"

	"github.com/thekingleo527/FrancoSphere-sub016/pkg/logger"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/metrics"
)

const defaultSubscriberBuffer = 64

// Broadcaster fans domain events out to any number of subscribers. Delivery
// is at-most-once and best-effort: each subscriber sees every event published
// after it subscribed, in publish order, unless its buffer fills, in which
// case events are dropped rather than blocking the publisher.
type Broadcaster struct {
	mu      sync.RWMutex
	subs    map[uint64]chan DomainEvent
	nextID  uint64
	buffer  int
	closed  bool
	logg    *logger.Logger
	metrics *metrics.EventMetrics
}

// Subscription is one live event stream. Close it when the consumer goes
// away; events published before Subscribe are never replayed.
type Subscription struct {
	id     uint64
	ch     chan DomainEvent
	parent *Broadcaster
	once   sync.Once
}

// NewBroadcaster builds a broadcaster with the given per-subscriber buffer
// depth. Logger and metrics may be nil.
func NewBroadcaster(buffer int, logg *logger.Logger, m *metrics.EventMetrics) *Broadcaster {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Broadcaster{
		subs:    make(map[uint64]chan DomainEvent),
		buffer:  buffer,
		logg:    logg,
		metrics: m,
	}
}

// Subscribe registers a new consumer and returns its stream.
func (b *Broadcaster) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan DomainEvent, b.buffer)
	if b.closed {
		close(ch)
		return &Subscription{ch: ch, parent: b}
	}

	b.nextID++
	id := b.nextID
	b.subs[id] = ch
	return &Subscription{id: id, ch: ch, parent: b}
}

// Publish pushes the event to every current subscriber without blocking. A
// subscriber whose buffer is full misses the event; it re-derives its view by
// querying the store next time it renders.
func (b *Broadcaster) Publish(event DomainEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	b.metrics.IncPublished(string(event.Kind))
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.metrics.IncDropped(string(event.Kind))
			if b.logg != nil {
				b.logg.Warn(context.Background(), "event dropped for slow subscriber")
			}
		}
	}
}

// SubscriberCount reports the number of live subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close terminates every subscription. Subsequent Publish calls are no-ops
// and subsequent Subscribe calls return an already-closed stream.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}

// C returns the receive side of the subscription stream.
func (s *Subscription) C() <-chan DomainEvent {
	return s.ch
}

// Close removes the subscription from the broadcaster and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.parent == nil {
			return
		}
		s.parent.mu.Lock()
		defer s.parent.mu.Unlock()
		if ch, ok := s.parent.subs[s.id]; ok {
			delete(s.parent.subs, s.id)
			close(ch)
		}
	})
}
