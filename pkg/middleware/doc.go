// Package middleware provides observability middleware for vstore stores.
//
// Every constructor returns a store.Middleware[S]. Compose them with
// store.Compose; writes pass through the innermost layer first.
//
// # Prometheus Metrics
//
// Prometheus records every SetState:
//   - vstore_set_state_total: counter by store, mode, partial kind and status
//   - vstore_set_state_duration_seconds: SetState latency, notifications included
//   - vstore_listeners: plain listeners per store after the last write
//   - vstore_selector_subscriptions: selector subscriptions per store
//
// ListenerPanicHandler feeds vstore_listener_panics_total when passed to
// store.WithListenerRecovery.
//
//	s := store.Create(
//	    store.Compose(
//	        middleware.Prometheus[State](middleware.WithNamespace("app")),
//	        store.DraftMiddleware[State](),
//	    )(initializer),
//	    store.WithName("cart"),
//	    store.WithListenerRecovery(middleware.ListenerPanicHandler()),
//	)
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # OpenTelemetry
//
// OpenTelemetry starts one span per SetState, named after the action when
// the partial is a store.Action. A listener panic is recorded on the span
// before it propagates.
//
//	middleware.OpenTelemetry[State](
//	    middleware.WithTracerName("cart"),
//	    middleware.WithActionFilter(func(action string) bool {
//	        return action != "tick"
//	    }),
//	)
//
// # Logging
//
// Logging writes one structured record per SetState to a slog.Logger.
package middleware
