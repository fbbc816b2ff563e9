package store

// Middleware wraps a StateCreator. A middleware usually wraps the set
// function it receives, installs the wrapper with Store.InstallSetter and
// calls the inner creator with the wrapper.
type Middleware[S any] func(StateCreator[S]) StateCreator[S]

// Compose chains middleware so that the first one is outermost:
//
//	Compose(a, b)(creator) == a(b(creator))
//
// Writes therefore pass through the innermost wrapper first.
func Compose[S any](mws ...Middleware[S]) Middleware[S] {
	return func(creator StateCreator[S]) StateCreator[S] {
		for i := len(mws) - 1; i >= 0; i-- {
			if mws[i] != nil {
				creator = mws[i](creator)
			}
		}
		return creator
	}
}

// SubscribeWithSelector returns creator unchanged. Selector subscriptions
// are part of every Store (see SubscribeSelector); this exists so stores
// composed from middleware lists written against other store libraries keep
// the same shape.
func SubscribeWithSelector[S any](creator StateCreator[S]) StateCreator[S] {
	return creator
}

// DraftMiddleware adapts Draft to the Middleware signature.
func DraftMiddleware[S any](opts ...DraftOption) Middleware[S] {
	return func(creator StateCreator[S]) StateCreator[S] {
		return Draft(creator, opts...)
	}
}
