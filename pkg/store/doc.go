// Package store provides the reactive state-store runtime for vstore.
//
// A Store owns one canonical state value of type S, a set of plain listeners
// and an ordered list of selector subscriptions. Every write goes through
// SetState, which swaps the state and then notifies synchronously on the
// calling goroutine.
//
// # Creating a Store
//
// Create runs an initializer exactly once. The initializer receives the same
// set/get/api surface that callers use from the outside, so slices can read
// and write the store from their own closures:
//
//	type counter struct {
//	    Count int
//	    Inc   func()
//	}
//
//	s := store.Create(func(set store.SetFunc[counter], get store.GetFunc[counter], api *store.Store[counter]) counter {
//	    return counter{
//	        Inc: func() {
//	            set(store.Fields[counter]{"Count": get().Count + 1})
//	        },
//	    }
//	})
//
// # Partials
//
// SetState accepts a Partial:
//
//	s.SetState(store.Fields[counter]{"Count": 3})          // shallow merge
//	s.SetState(store.Value[counter]{State: next}, true)    // replace
//	s.SetState(store.Func[counter](func(c counter) store.Partial[counter] {
//	    return store.Fields[counter]{"Count": c.Count + 1}
//	}))
//
// # Subscriptions
//
// Subscribe registers a listener that fires on every SetState.
// SubscribeSelector narrows the subscription to a derived slice and only
// fires when the slice changes according to an Equality (Is by default):
//
//	unsub := store.SubscribeSelector(s,
//	    func(c counter) int { return c.Count },
//	    func(next, prev int) { fmt.Println(prev, "->", next) },
//	)
//	defer unsub()
//
// # Drafts
//
// The Draft middleware lets function partials mutate a safe clone of the
// state instead of computing a patch by hand:
//
//	s := store.Create(store.Draft(func(set store.SetFunc[state], get store.GetFunc[state], api *store.Store[state]) state {
//	    return state{}
//	}))
//	s.SetState(store.Mutate[state](func(d *state) {
//	    d.List = append(d.List, 3)
//	}))
//
// See CloneStrategy for the exact clone policy, including the values that are
// shared with the original state rather than copied.
//
// # Thread Safety
//
// GetState may be called from any goroutine. Writes are expected to come
// from a single goroutine; listeners run on the writer's goroutine and no
// lock is held while they run, so they may call SetState or Subscribe.
package store
