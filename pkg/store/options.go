package store

import "log/slog"

// Option configures a Store.
type Option func(*options)

// options holds configuration for a Store.
type options struct {
	// name identifies the store in logs, metrics and devtools.
	name string

	// logger receives debug records for subscription bookkeeping.
	logger *slog.Logger

	// onPanic, when set, isolates each listener invocation and receives
	// recovered panics. When nil a panicking listener aborts the pass.
	onPanic func(error)
}

// WithName sets the store name used by logs, metrics and devtools.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the structured logger. The default discards all records.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithListenerRecovery isolates every listener and selector subscription in
// its own recover boundary. A panic is logged, passed to handler as a
// *ListenerPanicError, and the remaining listeners of the pass still run.
//
// This changes the default semantics, where a panicking listener propagates
// out of SetState and prevents later listeners from being notified.
func WithListenerRecovery(handler func(error)) Option {
	return func(o *options) {
		if handler == nil {
			handler = func(error) {}
		}
		o.onPanic = handler
	}
}

// applyOptions applies the given options and returns the resulting config.
func applyOptions(opts []Option) options {
	o := options{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
