package store

import (
	"errors"
	"fmt"
)

// ErrListenerPanic is matched by errors.Is for every ListenerPanicError.
var ErrListenerPanic = errors.New("store: listener panicked")

// ListenerKind identifies which notification pass a callback belongs to.
type ListenerKind string

const (
	// KindListener is a plain listener registered with Subscribe.
	KindListener ListenerKind = "listener"

	// KindSelector is a selector subscription (selector, equality or listener).
	KindSelector ListenerKind = "selector"
)

// ListenerPanicError reports a panic recovered from a listener when the store
// was created with WithListenerRecovery.
type ListenerPanicError struct {
	Store string
	Kind  ListenerKind
	Value any
}

// Error implements the error interface.
func (e *ListenerPanicError) Error() string {
	if e.Store != "" {
		return fmt.Sprintf("store %q: %s panicked: %v", e.Store, e.Kind, e.Value)
	}
	return fmt.Sprintf("store: %s panicked: %v", e.Kind, e.Value)
}

// Is reports ErrListenerPanic as the sentinel for this error.
func (e *ListenerPanicError) Is(target error) bool {
	return target == ErrListenerPanic
}

// Unwrap returns the panic value when it was an error.
func (e *ListenerPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
