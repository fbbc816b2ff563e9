package store

import (
	"slices"
	"sync"
)

// SetFunc is the signature of Store.SetState.
// The optional replace flag defaults to false (shallow merge).
type SetFunc[S any] func(partial Partial[S], replace ...bool)

// GetFunc is the signature of Store.GetState.
type GetFunc[S any] func() S

// StateCreator produces the initial state. It is called exactly once by
// Create with the store's own setter, getter and the store itself.
type StateCreator[S any] func(set SetFunc[S], get GetFunc[S], api *Store[S]) S

// Store is the owning container of one canonical state value and its
// listener bookkeeping.
type Store[S any] struct {
	// mu guards state, listeners and subs. It is never held while user
	// callbacks run.
	mu sync.RWMutex

	state S

	// listeners are kept in registration order; listenerIDs deduplicates.
	listeners   []Listener
	listenerIDs map[uint64]struct{}

	// subs are the selector subscriptions in registration order.
	subs []selectorRecord[S]

	// setter is what SetState dispatches to. Middleware may replace it.
	setter SetFunc[S]

	opts options
}

// Create builds a store by running initializer once, synchronously.
//
// The initializer receives the store's base setter, its getter and the store
// itself. Without middleware set behaves exactly like api.SetState; with
// middleware, each layer wraps the set it receives and installs the wrapper
// on api. Calling set from inside the initializer itself writes to a zero
// state that the initializer's return value then replaces.
func Create[S any](initializer StateCreator[S], opts ...Option) *Store[S] {
	s := &Store[S]{
		listenerIDs: make(map[uint64]struct{}),
		opts:        applyOptions(opts),
	}
	s.setter = s.commit

	// The base setter is handed down, not SetState: middleware installs its
	// wrapper on the store and must not dispatch back into itself.
	initial := initializer(s.commit, s.GetState, s)

	s.mu.Lock()
	s.state = initial
	s.mu.Unlock()
	return s
}

// New creates a store holding initial.
func New[S any](initial S, opts ...Option) *Store[S] {
	return Create(func(SetFunc[S], GetFunc[S], *Store[S]) S {
		return initial
	}, opts...)
}

// Name returns the name configured with WithName.
func (s *Store[S]) Name() string {
	return s.opts.name
}

// GetState returns the current state. It has no side effects.
func (s *Store[S]) GetState() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetState computes the next state from partial and notifies subscribers.
//
// With replace false (the default) the effective partial is shallow-merged
// onto the current state; with replace true it becomes the entire state.
// Plain listeners are then invoked in registration order, followed by every
// selector subscription whose slice changed.
func (s *Store[S]) SetState(partial Partial[S], replace ...bool) {
	s.mu.RLock()
	set := s.setter
	s.mu.RUnlock()
	set(partial, replace...)
}

// InstallSetter replaces the function SetState dispatches to and returns it.
// It is meant for middleware: the installed setter usually wraps the set
// function the middleware itself received.
func (s *Store[S]) InstallSetter(set SetFunc[S]) SetFunc[S] {
	s.mu.Lock()
	s.setter = set
	s.mu.Unlock()
	return set
}

// commit is the base setter.
func (s *Store[S]) commit(partial Partial[S], replace ...bool) {
	current := s.GetState()

	var next S
	if partial == nil {
		next = resolveNil(current, isReplace(replace))
	} else {
		next = partial.apply(current, isReplace(replace))
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	if isReplace(replace) {
		s.opts.logger.Debug("store state replaced", "store", s.opts.name)
	}

	s.notify()
}

// notify runs the listener pass and then the selector pass.
// Both lists are copied first so callbacks may subscribe or unsubscribe.
// Entries removed earlier in the same pass are skipped; entries added
// during the pass wait for the next one.
func (s *Store[S]) notify() {
	s.mu.RLock()
	listeners := slices.Clone(s.listeners)
	subs := slices.Clone(s.subs)
	s.mu.RUnlock()

	for _, l := range listeners {
		if !s.hasListener(l.ID()) {
			continue
		}
		s.invoke(KindListener, l.OnStoreChange)
	}
	for _, sub := range subs {
		if !s.hasSub(sub) {
			continue
		}
		s.invoke(KindSelector, func() {
			sub.check(s.GetState())
		})
	}
}

func (s *Store[S]) hasListener(id uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.listenerIDs[id]
	return ok
}

func (s *Store[S]) hasSub(sub selectorRecord[S]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.subs, sub)
}

// invoke runs fn, isolating panics only when recovery is configured.
func (s *Store[S]) invoke(kind ListenerKind, fn func()) {
	if s.opts.onPanic == nil {
		fn()
		return
	}

	defer func() {
		if r := recover(); r != nil {
			err := &ListenerPanicError{Store: s.opts.name, Kind: kind, Value: r}
			s.opts.logger.Error("store listener panicked",
				"store", s.opts.name,
				"kind", string(kind),
				"panic", r,
			)
			s.opts.onPanic(err)
		}
	}()
	fn()
}

// Subscribe registers l to be notified after every SetState.
// Registering a listener whose ID is already subscribed is a no-op.
// The returned function removes the listener.
func (s *Store[S]) Subscribe(l Listener) (unsubscribe func()) {
	if l == nil {
		return func() {}
	}

	id := l.ID()
	s.mu.Lock()
	if _, ok := s.listenerIDs[id]; !ok {
		s.listenerIDs[id] = struct{}{}
		s.listeners = append(s.listeners, l)
	}
	s.mu.Unlock()

	s.opts.logger.Debug("store listener subscribed", "store", s.opts.name, "listener", id)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.listenerIDs[id]; !ok {
			return
		}
		delete(s.listenerIDs, id)
		s.listeners = slices.DeleteFunc(s.listeners, func(existing Listener) bool {
			return existing.ID() == id
		})
		s.opts.logger.Debug("store listener unsubscribed", "store", s.opts.name, "listener", id)
	}
}

// SubscribeFunc registers fn as a new listener with its own identity.
func (s *Store[S]) SubscribeFunc(fn func()) (unsubscribe func()) {
	return s.Subscribe(ListenerFunc(fn))
}

// ListenerCount returns the number of plain listeners.
func (s *Store[S]) ListenerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}

// SubscriptionCount returns the number of selector subscriptions.
func (s *Store[S]) SubscriptionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// addSub appends a selector subscription and returns its remover.
func (s *Store[S]) addSub(sub selectorRecord[S]) func() {
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	s.opts.logger.Debug("store selector subscribed", "store", s.opts.name)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// Removal is by identity so other records are never disturbed.
		if i := slices.Index(s.subs, sub); i >= 0 {
			s.subs = slices.Delete(s.subs, i, i+1)
		}
	}
}

// isReplace reads the optional replace flag.
func isReplace(replace []bool) bool {
	return len(replace) > 0 && replace[0]
}
