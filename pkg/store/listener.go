package store

import "sync/atomic"

// globalIDCounter is the source of unique listener IDs.
var globalIDCounter uint64

// nextID returns the next unique ID. IDs are never reused.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

// Listener is notified after every state transition of a store it is
// subscribed to.
type Listener interface {
	// OnStoreChange is called with no arguments after the new state has been
	// assigned. Call GetState to observe it.
	OnStoreChange()

	// ID returns a unique identifier for this listener.
	// Subscribing a listener whose ID is already registered is a no-op.
	ID() uint64
}

// listenerFunc adapts a plain function to the Listener interface.
type listenerFunc struct {
	id uint64
	fn func()
}

func (l *listenerFunc) OnStoreChange() { l.fn() }
func (l *listenerFunc) ID() uint64     { return l.id }

// ListenerFunc wraps fn in a Listener with a fresh identity.
// Keep the returned value to subscribe the same listener more than once
// without duplicating notifications.
func ListenerFunc(fn func()) Listener {
	return &listenerFunc{id: nextID(), fn: fn}
}
