package devtools

import (
	"encoding/json"
	"errors"

	"github.com/vango-dev/vstore/pkg/store"
)

// ErrUnnamedStore is returned when attaching a store without a name.
var ErrUnnamedStore = errors.New("devtools: store has no name; create it with store.WithName")

func snapshotOf[S any](api *store.Store[S]) func() (json.RawMessage, error) {
	return func() (json.RawMessage, error) {
		return json.Marshal(api.GetState())
	}
}

// Attach registers api with the bridge under its name and publishes a
// state frame after every transition. The store must have a name and must
// not already be attached.
//
// Frames published through Attach carry no action name; use Middleware
// for that.
func Attach[S any](b *Bridge, api *store.Store[S]) (detach func(), err error) {
	name := api.Name()
	if name == "" {
		return nil, ErrUnnamedStore
	}

	src := &source{name: name, snapshot: snapshotOf(api)}
	if err := b.register(src, true); err != nil {
		return nil, err
	}
	src.detach = api.SubscribeFunc(func() {
		b.publish(name, FrameState, "")
	})

	return func() { b.Detach(name) }, nil
}

// Middleware attaches the store to the bridge while it is created and
// publishes a state frame after every write, labelled with the write's
// action name.
//
// Writes that bypass SetState are not seen. Place Middleware outermost in
// a Compose chain so that it observes the action names callers pass.
func Middleware[S any](b *Bridge) store.Middleware[S] {
	return func(creator store.StateCreator[S]) store.StateCreator[S] {
		return func(set store.SetFunc[S], get store.GetFunc[S], api *store.Store[S]) S {
			name := api.Name()
			if name == "" {
				b.logger.Warn("devtools middleware skipped", "error", ErrUnnamedStore)
				return creator(set, get, api)
			}

			// The state does not exist yet, so there is nothing to announce.
			// Clients connecting later receive it in their init frames.
			if err := b.register(&source{name: name, snapshot: snapshotOf(api)}, false); err != nil {
				b.logger.Warn("devtools middleware skipped", "store", name, "error", err)
				return creator(set, get, api)
			}

			wrapped := api.InstallSetter(func(partial store.Partial[S], replace ...bool) {
				set(partial, replace...)
				b.publish(name, FrameState, store.ActionName(partial))
			})
			return creator(wrapped, get, api)
		}
	}
}
