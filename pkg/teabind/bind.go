package teabind

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vango-dev/vstore/pkg/store"
)

// ChangedMsg is delivered after the bound store changed.
type ChangedMsg[S any] struct {
	State S
}

// Binding delivers store changes to a Bubble Tea program.
type Binding[S any] struct {
	ext store.ExternalStore[S]

	// changed holds at most one pending notification.
	changed chan struct{}

	mu          sync.Mutex
	closed      bool
	unsubscribe func()
}

// Bind subscribes to ext. Call Close to unsubscribe.
func Bind[S any](ext store.ExternalStore[S]) *Binding[S] {
	b := &Binding[S]{
		ext:     ext,
		changed: make(chan struct{}, 1),
	}
	b.unsubscribe = ext.Subscribe(b.notify)
	return b
}

func (b *Binding[S]) notify() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.changed <- struct{}{}:
	default:
	}
}

// Snapshot returns the current state.
func (b *Binding[S]) Snapshot() S {
	return b.ext.Snapshot()
}

// Wait returns a command that blocks until the next change and yields a
// ChangedMsg. After Close the command yields nil.
func (b *Binding[S]) Wait() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-b.changed; !ok {
			return nil
		}
		// A notification buffered before Close is dropped.
		b.mu.Lock()
		closed := b.closed
		b.mu.Unlock()
		if closed {
			return nil
		}
		return ChangedMsg[S]{State: b.ext.Snapshot()}
	}
}

// Close unsubscribes and releases pending Wait commands.
func (b *Binding[S]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.unsubscribe()
	close(b.changed)
}
