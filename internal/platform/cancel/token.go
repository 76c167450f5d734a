package cancel

import (
	"context"
	"sync"
	"sync/atomic"
)

// Source is the sending half of a latch-once cancellation signal.
// Firing with no live tokens is allowed and has no effect beyond latching.
type Source struct {
	once sync.Once
	done chan struct{}
}

func NewSource() *Source {
	return &Source{done: make(chan struct{})}
}

// NewChild returns a source that fires when it is fired itself or when parent fires.
func NewChild(parent *Token) *Source {
	child := NewSource()
	if parent == nil {
		return child
	}
	if parent.IsCancelled() {
		child.Fire()
		return child
	}
	go func() {
		select {
		case <-parent.done:
			child.Fire()
		case <-child.done:
		}
	}()
	return child
}

// Fire cancels every token handed out by the source, past and future.
func (s *Source) Fire() {
	s.once.Do(func() { close(s.done) })
}

// Close drops the producer. Outstanding and future receivers observe it exactly like Fire.
func (s *Source) Close() {
	s.Fire()
}

func (s *Source) Fired() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Token returns a new receiver handle.
func (s *Source) Token() *Token {
	return &Token{done: s.done}
}

// Token is a read-only subscription to a Source. Each handle keeps its own
// observed flag so repeated checks stay cheap once cancellation was seen.
type Token struct {
	done     <-chan struct{}
	observed atomic.Bool
}

// IsCancelled never blocks. Once it reports true it keeps reporting true.
func (t *Token) IsCancelled() bool {
	if t.observed.Load() {
		return true
	}
	select {
	case <-t.done:
		t.observed.Store(true)
		return true
	default:
		return false
	}
}

// Recv suspends until the source fires or ctx ends. It returns nil when the
// signal was received, ctx.Err() otherwise.
func (t *Token) Recv(ctx context.Context) error {
	if t.IsCancelled() {
		return nil
	}
	select {
	case <-t.done:
		t.observed.Store(true)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Context returns a child of parent that is cancelled when the token fires.
func (t *Token) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-t.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Never returns a token that is never cancelled.
func Never() *Token {
	return &Token{done: make(chan struct{})}
}
