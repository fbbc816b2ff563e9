package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/vango-dev/vstore/pkg/store"
)

// Logging creates middleware that writes one record per SetState to logger
// at level. A nil logger uses slog.Default().
func Logging[S any](logger *slog.Logger, level slog.Level) store.Middleware[S] {
	if logger == nil {
		logger = slog.Default()
	}

	return func(creator store.StateCreator[S]) store.StateCreator[S] {
		return func(set store.SetFunc[S], get store.GetFunc[S], api *store.Store[S]) S {
			name := storeLabel(api.Name())
			wrapped := api.InstallSetter(func(partial store.Partial[S], replace ...bool) {
				ctx := context.Background()
				if !logger.Enabled(ctx, level) {
					set(partial, replace...)
					return
				}

				start := time.Now()
				set(partial, replace...)

				attrs := []slog.Attr{
					slog.String("store", name),
					slog.String("mode", modeLabel(replace)),
					slog.String("kind", store.PartialKind(partial)),
					slog.Duration("duration", time.Since(start)),
				}
				if action := store.ActionName(partial); action != "" {
					attrs = append(attrs, slog.String("action", action))
				}
				logger.LogAttrs(ctx, level, "store state set", attrs...)
			})
			return creator(wrapped, get, api)
		}
	}
}
