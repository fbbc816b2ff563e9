package store

// DraftOption configures the Draft middleware.
type DraftOption func(*draftConfig)

type draftConfig struct {
	strategy CloneStrategy
}

// WithCloneStrategy replaces SafeClone as the draft producer.
func WithCloneStrategy(strategy CloneStrategy) DraftOption {
	return func(c *draftConfig) {
		if strategy != nil {
			c.strategy = strategy
		}
	}
}

// Draft wraps creator so that function partials mutate a draft.
//
// When SetState receives a Func or Mutate partial, Draft clones the current
// state with the configured CloneStrategy, hands the clone to the function
// and commits the clone through the underlying setter with the same replace
// flag. Literal partials pass straight through without cloning. Action names
// are kept, and PartialKind of the committed write still reports "func" or
// "mutate".
//
// A Func's return value is ignored under Draft: a Func that returns Fields
// or another partial instead of writing to its argument commits the
// unchanged draft. Such results are logged at debug level. Use Mutate.
//
// Drafts work on value states (structs, maps). A pointer state is category
// "other" and is never cloned, so mutating it mutates the committed state.
//
// A Func receives the draft by value: for map states writes are visible in
// the draft, for struct states only writes through nested plain values are.
// Prefer Mutate for struct states.
//
// The wrapped setter is installed on the store, so calls to Store.SetState
// from outside the initializer are handled the same way.
func Draft[S any](creator StateCreator[S], opts ...DraftOption) StateCreator[S] {
	cfg := draftConfig{strategy: SafeClone{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(set SetFunc[S], get GetFunc[S], api *Store[S]) S {
		draftSet := SetFunc[S](func(partial Partial[S], replace ...bool) {
			name := ""
			if a, ok := partial.(Action[S]); ok {
				name = a.Name
				partial = a.Partial
			}

			var run func(draft *S)
			switch p := partial.(type) {
			case Func[S]:
				run = func(draft *S) {
					if result := p(*draft); result != nil {
						api.opts.logger.Debug("store draft ignored func result",
							"store", api.opts.name,
							"action", name,
							"result", PartialKind(result),
						)
					}
				}
			case Mutate[S]:
				run = func(draft *S) { p(draft) }
			default:
				set(label(name, partial), replace...)
				return
			}

			draft := Clone(cfg.strategy, get())
			run(&draft)
			set(label(name, drafted[S]{Value: Value[S]{State: draft}, kind: PartialKind(partial)}), replace...)
		})

		api.InstallSetter(draftSet)
		return creator(draftSet, get, api)
	}
}

// drafted is a draft committed by Draft. It applies like Value and keeps
// the kind of the function partial that produced it.
type drafted[S any] struct {
	Value[S]
	kind string
}

// label re-attaches an action name stripped before dispatch.
func label[S any](name string, partial Partial[S]) Partial[S] {
	if name == "" {
		return partial
	}
	return Action[S]{Name: name, Partial: partial}
}
