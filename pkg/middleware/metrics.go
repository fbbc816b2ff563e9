package middleware

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/vstore/pkg/store"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vstore").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for SetState duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "vstore",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the collectors for one registry and namespace.
type metrics struct {
	setsTotal     *prometheus.CounterVec
	setDuration   *prometheus.HistogramVec
	listeners     *prometheus.GaugeVec
	subscriptions *prometheus.GaugeVec
	panics        *prometheus.CounterVec
}

// metricsKey identifies a set of registered collectors.
type metricsKey struct {
	registry  prometheus.Registerer
	namespace string
	subsystem string
}

// registered caches collectors so that several stores (and several
// middleware instances) share them instead of registering twice.
var (
	registered   = make(map[metricsKey]*metrics)
	registeredMu sync.Mutex
)

// metricsFor returns the collectors for config, registering them on first use.
func metricsFor(config MetricsConfig) *metrics {
	key := metricsKey{config.Registry, config.Namespace, config.Subsystem}

	registeredMu.Lock()
	defer registeredMu.Unlock()
	if m, ok := registered[key]; ok {
		return m
	}
	m := initMetrics(config)
	registered[key] = m
	return m
}

// initMetrics initializes the Prometheus metrics.
func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		setsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "set_state_total",
			Help:        "Total number of SetState calls",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "mode", "kind", "status"}),

		setDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "set_state_duration_seconds",
			Help:        "SetState duration in seconds, listener notification included",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"store"}),

		listeners: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listeners",
			Help:        "Number of plain listeners subscribed to the store",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		subscriptions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "selector_subscriptions",
			Help:        "Number of selector subscriptions on the store",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		panics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listener_panics_total",
			Help:        "Total number of recovered listener panics",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "kind"}),
	}
}

// Prometheus creates middleware that records metrics for every SetState.
//
// The store label is the name given with store.WithName, or "default".
// A SetState that panics (a listener panic propagating) is counted with
// status "panic" and the panic continues.
//
// Example:
//
//	s := store.Create(
//	    middleware.Prometheus[State](middleware.WithNamespace("myapp"))(initializer),
//	    store.WithName("cart"),
//	)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus[S any](opts ...MetricsOption) store.Middleware[S] {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	m := metricsFor(config)

	return func(creator store.StateCreator[S]) store.StateCreator[S] {
		return func(set store.SetFunc[S], get store.GetFunc[S], api *store.Store[S]) S {
			name := storeLabel(api.Name())
			m.listeners.WithLabelValues(name).Set(0)
			m.subscriptions.WithLabelValues(name).Set(0)

			wrapped := api.InstallSetter(func(partial store.Partial[S], replace ...bool) {
				start := time.Now()
				status := "panic"
				defer func() {
					m.setDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
					m.setsTotal.WithLabelValues(name, modeLabel(replace), store.PartialKind(partial), status).Inc()
					m.listeners.WithLabelValues(name).Set(float64(api.ListenerCount()))
					m.subscriptions.WithLabelValues(name).Set(float64(api.SubscriptionCount()))
				}()

				set(partial, replace...)
				status = "success"
			})
			return creator(wrapped, get, api)
		}
	}
}

// ListenerPanicHandler returns a handler for store.WithListenerRecovery that
// counts recovered panics by store and listener kind.
func ListenerPanicHandler(opts ...MetricsOption) func(error) {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	m := metricsFor(config)

	return func(err error) {
		var lpe *store.ListenerPanicError
		if !errors.As(err, &lpe) {
			return
		}
		m.panics.WithLabelValues(storeLabel(lpe.Store), string(lpe.Kind)).Inc()
	}
}

// storeLabel keeps the store label non-empty.
func storeLabel(name string) string {
	if name == "" {
		return "default"
	}
	return name
}

// modeLabel names the write mode.
func modeLabel(replace []bool) string {
	if len(replace) > 0 && replace[0] {
		return "replace"
	}
	return "merge"
}
