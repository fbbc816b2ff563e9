package teabind

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vango-dev/vstore/pkg/store"
)

// SliceMsg is delivered after a selected slice changed. Prev is the slice
// as of the last delivered message.
type SliceMsg[T any] struct {
	Next T
	Prev T
}

// SelectorBinding delivers changes of one selected slice.
type SelectorBinding[T any] struct {
	mu      sync.Mutex
	prev    T
	next    T
	pending bool
	closed  bool

	signal      chan struct{}
	unsubscribe func()
}

// BindSelector subscribes selector on api. Messages are only produced when
// equal (Is by default) reports a change.
func BindSelector[S, T any](api *store.Store[S], selector store.Selector[S, T], equal ...store.Equality[T]) *SelectorBinding[T] {
	initial := selector(api.GetState())
	b := &SelectorBinding[T]{
		prev:   initial,
		next:   initial,
		signal: make(chan struct{}, 1),
	}
	b.unsubscribe = store.SubscribeSelector(api, selector, b.changed, equal...)
	return b
}

// changed keeps the newest slice and the one last delivered.
func (b *SelectorBinding[T]) changed(next, _ T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.next = next
	b.pending = true
	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// Current returns the newest slice.
func (b *SelectorBinding[T]) Current() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.next
}

// Wait returns a command that blocks until the slice changes and yields a
// SliceMsg. After Close the command yields nil.
func (b *SelectorBinding[T]) Wait() tea.Cmd {
	return func() tea.Msg {
		for range b.signal {
			b.mu.Lock()
			if b.closed {
				b.mu.Unlock()
				return nil
			}
			if !b.pending {
				b.mu.Unlock()
				continue
			}
			msg := SliceMsg[T]{Next: b.next, Prev: b.prev}
			b.prev = b.next
			b.pending = false
			b.mu.Unlock()
			return msg
		}
		return nil
	}
}

// Close unsubscribes and releases pending Wait commands.
func (b *SelectorBinding[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.unsubscribe()
	close(b.signal)
}
