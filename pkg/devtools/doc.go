// Package devtools exposes stores to an observer over HTTP and websocket.
//
// A Bridge holds any number of named stores. Attach registers a store and
// publishes a frame after every state transition; Middleware does the same
// from inside the store's setter so frames also carry the action name of
// store.Action partials.
//
// Routes returns a chi router with:
//
//	GET /stores          attached stores with their last sequence number
//	GET /stores/{name}   the current state of one store as JSON
//	GET /ws              a websocket stream of Frame values
//
// A websocket client first receives one "init" frame per attached store,
// then a "state" frame per transition. The bridge is read-only: clients
// cannot write to stores.
//
//	bridge := devtools.NewBridge(devtools.WithLogger(logger))
//	cart := store.Create(
//	    devtools.Middleware[Cart](bridge)(initializer),
//	    store.WithName("cart"),
//	)
//	router.Mount("/devtools", bridge.Routes())
package devtools
