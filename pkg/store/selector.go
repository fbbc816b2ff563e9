package store

// Selector projects the full state down to a slice.
type Selector[S, T any] func(state S) T

// selectorRecord is the type-erased view of a selector subscription.
type selectorRecord[S any] interface {
	check(state S)
}

// selectorSub holds one selector subscription and its cached slice.
type selectorSub[S, T any] struct {
	selector Selector[S, T]
	listener func(next, prev T)
	equal    Equality[T]

	// current is the last slice the listener was (or, at registration,
	// would have been) called with.
	current T
}

// check re-evaluates the selector against state and fires the listener
// when the slice changed.
func (sub *selectorSub[S, T]) check(state S) {
	next := sub.selector(state)
	if sub.equal(next, sub.current) {
		return
	}
	prev := sub.current
	sub.current = next
	sub.listener(next, prev)
}

// SubscribeSelector registers listener for changes of selector's output.
//
// The current slice is computed immediately from the current state without
// calling listener. After every SetState the selector runs again; when equal
// (Is unless provided) reports a difference the cached slice is replaced and
// listener receives the new and previous slices.
//
// The returned function removes exactly this subscription.
func SubscribeSelector[S, T any](api *Store[S], selector Selector[S, T], listener func(next, prev T), equal ...Equality[T]) (unsubscribe func()) {
	eq := Equality[T](Is[T])
	if len(equal) > 0 && equal[0] != nil {
		eq = equal[0]
	}

	sub := &selectorSub[S, T]{
		selector: selector,
		listener: listener,
		equal:    eq,
		current:  selector(api.GetState()),
	}
	return api.addSub(sub)
}

// Select reads the current state through selector.
// It is the non-reactive read a UI binding performs on each render.
func Select[S, T any](api ExternalStore[S], selector Selector[S, T]) T {
	return selector(api.Snapshot())
}

// ExternalStore is the read-only accessor a UI binding synchronizes with.
type ExternalStore[S any] interface {
	// Subscribe registers onChange for every state transition and returns
	// the function that removes it.
	Subscribe(onChange func()) (unsubscribe func())

	// Snapshot returns the current state.
	Snapshot() S
}

// External returns a read-only accessor for s.
func (s *Store[S]) External() ExternalStore[S] {
	return external[S]{s: s}
}

type external[S any] struct {
	s *Store[S]
}

func (e external[S]) Subscribe(onChange func()) func() { return e.s.SubscribeFunc(onChange) }
func (e external[S]) Snapshot() S                      { return e.s.GetState() }
