// Package events fans typed change notifications out to in-process subscribers.
package events

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Broadcaster delivers published values to all current subscribers, in
// subscription order, before Publish returns.
//
// Values carry a sequence number taken with Stamp while the publisher still
// holds the lock that guarded the change. A subscriber never receives a value
// older than one it has already been handed, so after concurrent or nested
// publishes every subscriber ends on the newest value. A publish that reaches
// a subscriber already inside its callback is queued and handed over as soon
// as that callback returns; queued values that are overtaken are dropped.
type Broadcaster[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*subscriber[T]
	seq    atomic.Uint64
}

type subscriber[T any] struct {
	fn func(T)

	mu         sync.Mutex
	seen       uint64
	pending    T
	hasPending bool
	draining   bool
}

// NewBroadcaster returns an empty broadcaster.
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[uint64]*subscriber[T])}
}

// Subscribe registers fn and returns a function that removes it. The returned
// function is safe to call more than once.
func (b *Broadcaster[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = &subscriber[T]{fn: fn}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Stamp reserves the next sequence number. Call it under the same lock as the
// state change the value describes.
func (b *Broadcaster[T]) Stamp() uint64 {
	return b.seq.Add(1)
}

// Publish stamps value and delivers it.
func (b *Broadcaster[T]) Publish(value T) {
	b.PublishAt(b.Stamp(), value)
}

// PublishAt delivers value, stamped seq, to every subscriber that has not yet
// seen a newer value. Subscribers run without the broadcaster lock held, so
// they may subscribe, unsubscribe or publish again.
func (b *Broadcaster[T]) PublishAt(seq uint64, value T) {
	b.mu.RLock()
	ids := make([]uint64, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	subs := make([]*subscriber[T], 0, len(ids))
	for _, id := range ids {
		subs = append(subs, b.subs[id])
	}
	b.mu.RUnlock()

	for _, s := range subs {
		s.deliver(seq, value)
	}
}

func (s *subscriber[T]) deliver(seq uint64, value T) {
	s.mu.Lock()
	if seq <= s.seen {
		s.mu.Unlock()
		return
	}
	s.seen = seq
	s.pending = value
	s.hasPending = true
	if s.draining {
		s.mu.Unlock()
		return
	}

	s.draining = true
	for s.hasPending {
		next := s.pending
		var zero T
		s.pending = zero
		s.hasPending = false
		s.mu.Unlock()

		s.fn(next)

		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}

// Len reports the number of registered subscribers.
func (b *Broadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
