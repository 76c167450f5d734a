package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultCapacity is the per-subscriber queue size used when New gets a non-positive capacity.
const DefaultCapacity = 16

var (
	ErrClosed = errors.New("broadcast: subscription closed")
	ErrLagged = errors.New("broadcast: subscriber lagged")
)

// LaggedError reports events dropped from a subscriber's queue since its last Recv.
type LaggedError struct {
	Skipped uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("broadcast: subscriber lagged, %d events skipped", e.Skipped)
}

func (e *LaggedError) Is(target error) bool {
	return target == ErrLagged
}

// Broadcaster fans every published value out to all current subscribers.
// Subscribers never see values published before they subscribed.
type Broadcaster[T any] struct {
	capacity int

	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*Subscription[T]
	closed bool
}

func New[T any](capacity int) *Broadcaster[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Broadcaster[T]{capacity: capacity, subs: map[uint64]*Subscription[T]{}}
}

// Publish delivers v to every subscriber and returns how many were reached.
// Publishing with no subscribers is not an error.
func (b *Broadcaster[T]) Publish(v T) int {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return 0
	}
	subs := make([]*Subscription[T], 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.push(v)
	}
	return len(subs)
}

func (b *Broadcaster[T]) Subscribe() *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &Subscription[T]{
		owner:    b,
		capacity: b.capacity,
		notify:   make(chan struct{}, 1),
	}
	if b.closed {
		sub.closed = true
		return sub
	}
	b.nextID++
	sub.id = b.nextID
	b.subs[sub.id] = sub
	return sub
}

// Subscribers returns the number of attached subscriptions.
func (b *Broadcaster[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close detaches every subscriber. Queued values can still be drained.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = map[uint64]*Subscription[T]{}
	b.closed = true
	b.mu.Unlock()
	for _, sub := range subs {
		sub.markClosed()
	}
}

func (b *Broadcaster[T]) remove(id uint64) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

// Subscription is one receiver with a bounded queue. On overflow the oldest
// unread values are dropped and the next Recv reports a *LaggedError.
type Subscription[T any] struct {
	owner    *Broadcaster[T]
	id       uint64
	capacity int
	notify   chan struct{}

	mu      sync.Mutex
	queue   []T
	skipped uint64
	closed  bool
}

func (s *Subscription[T]) push(v T) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if len(s.queue) >= s.capacity {
		s.queue = s.queue[1:]
		s.skipped++
	}
	s.queue = append(s.queue, v)
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription[T]) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Recv returns the next value. A lag report is returned once, before the
// values that survived the overflow.
func (s *Subscription[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	for {
		s.mu.Lock()
		if s.skipped > 0 {
			skipped := s.skipped
			s.skipped = 0
			s.mu.Unlock()
			return zero, &LaggedError{Skipped: skipped}
		}
		if len(s.queue) > 0 {
			v := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return v, nil
		}
		if s.closed {
			s.mu.Unlock()
			return zero, ErrClosed
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Close detaches the subscription; pending values are discarded.
func (s *Subscription[T]) Close() {
	if s.owner != nil && s.id != 0 {
		s.owner.remove(s.id)
	}
	s.mu.Lock()
	s.queue = nil
	s.closed = true
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription[T]) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wake()
}
