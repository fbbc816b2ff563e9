package middleware

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/vstore/pkg/store"
)

type counterState struct {
	Count int
}

func initial(store.SetFunc[counterState], store.GetFunc[counterState], *store.Store[counterState]) counterState {
	return counterState{}
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestPrometheus_RecordsWrites(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := store.Create(Prometheus[counterState](WithRegistry(reg))(initial), store.WithName("counter"))
	m := metricsFor(MetricsConfig{Registry: reg, Namespace: "vstore"})

	s.Subscribe(store.ListenerFunc(func() {}))
	store.SubscribeSelector(s, func(c counterState) int { return c.Count }, func(int, int) {})

	s.SetState(store.Fields[counterState]{"Count": 1})
	s.SetState(store.Named[counterState]("reset", store.Value[counterState]{}), true)

	if got := testutil.ToFloat64(m.setsTotal.WithLabelValues("counter", "merge", "fields", "success")); got != 1 {
		t.Errorf("set_state_total(merge, fields)=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.setsTotal.WithLabelValues("counter", "replace", "value", "success")); got != 1 {
		t.Errorf("set_state_total(replace, value)=%v, want 1", got)
	}
	if got := metricHistogramCount(t, m.setDuration.WithLabelValues("counter")); got != 2 {
		t.Errorf("set_state_duration_seconds count=%d, want 2", got)
	}
	if got := testutil.ToFloat64(m.listeners.WithLabelValues("counter")); got != 1 {
		t.Errorf("listeners=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.subscriptions.WithLabelValues("counter")); got != 1 {
		t.Errorf("selector_subscriptions=%v, want 1", got)
	}
}

func TestPrometheus_LabelsDraftedWritesByOriginalKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	creator := store.Compose(Prometheus[counterState](WithRegistry(reg)), store.DraftMiddleware[counterState]())(initial)
	s := store.Create(creator, store.WithName("counter"))
	m := metricsFor(MetricsConfig{Registry: reg, Namespace: "vstore"})

	s.SetState(store.Mutate[counterState](func(c *counterState) { c.Count++ }))
	s.SetState(store.Named[counterState]("bump", store.Mutate[counterState](func(c *counterState) { c.Count++ })))

	if got := testutil.ToFloat64(m.setsTotal.WithLabelValues("counter", "merge", "mutate", "success")); got != 2 {
		t.Errorf("set_state_total(merge, mutate)=%v, want 2", got)
	}
	if got := testutil.ToFloat64(m.setsTotal.WithLabelValues("counter", "merge", "value", "success")); got != 0 {
		t.Errorf("set_state_total(merge, value)=%v, want 0", got)
	}
	if s.GetState().Count != 2 {
		t.Errorf("expected count 2, got %d", s.GetState().Count)
	}
}

func TestPrometheus_CountsPanickingWrites(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := store.Create(Prometheus[counterState](WithRegistry(reg))(initial))
	m := metricsFor(MetricsConfig{Registry: reg, Namespace: "vstore"})

	s.SubscribeFunc(func() { panic("boom") })

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected the panic to propagate")
			}
		}()
		s.SetState(store.Fields[counterState]{"Count": 1})
	}()

	if got := testutil.ToFloat64(m.setsTotal.WithLabelValues("default", "merge", "fields", "panic")); got != 1 {
		t.Errorf("set_state_total(panic)=%v, want 1", got)
	}
}

func TestPrometheus_SharesCollectorsPerRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()

	// A second registration on the same registry would panic in promauto.
	a := store.Create(Prometheus[counterState](WithRegistry(reg))(initial), store.WithName("a"))
	b := store.Create(Prometheus[counterState](WithRegistry(reg))(initial), store.WithName("b"))

	a.SetState(store.Fields[counterState]{"Count": 1})
	b.SetState(store.Fields[counterState]{"Count": 1})
	b.SetState(store.Fields[counterState]{"Count": 2})

	if n := testutil.CollectAndCount(metricsFor(MetricsConfig{Registry: reg, Namespace: "vstore"}).setsTotal); n != 2 {
		t.Errorf("expected 2 label sets, got %d", n)
	}
}

func TestPrometheus_Options(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := store.Create(Prometheus[counterState](
		WithRegistry(reg),
		WithNamespace("app"),
		WithSubsystem("ui"),
		WithConstLabels(prometheus.Labels{"env": "test"}),
		WithBuckets([]float64{0.1, 1}),
	)(initial), store.WithName("opts"))

	s.SetState(store.Fields[counterState]{"Count": 1})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "app_ui_set_state_total" {
			found = true
			labels := f.GetMetric()[0].GetLabel()
			hasEnv := false
			for _, l := range labels {
				if l.GetName() == "env" && l.GetValue() == "test" {
					hasEnv = true
				}
			}
			if !hasEnv {
				t.Error("expected const label env=test")
			}
		}
	}
	if !found {
		t.Error("expected app_ui_set_state_total to be registered")
	}
}

func TestListenerPanicHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := store.New(counterState{},
		store.WithName("guarded"),
		store.WithListenerRecovery(ListenerPanicHandler(WithRegistry(reg))),
	)
	m := metricsFor(MetricsConfig{Registry: reg, Namespace: "vstore"})

	s.SubscribeFunc(func() { panic("boom") })
	store.SubscribeSelector(s, func(c counterState) int {
		if c.Count > 0 {
			panic("selector boom")
		}
		return c.Count
	}, func(int, int) {})

	s.SetState(store.Fields[counterState]{"Count": 1})

	if got := testutil.ToFloat64(m.panics.WithLabelValues("guarded", "listener")); got != 1 {
		t.Errorf("listener_panics_total(listener)=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.panics.WithLabelValues("guarded", "selector")); got != 1 {
		t.Errorf("listener_panics_total(selector)=%v, want 1", got)
	}
}

func TestLabels(t *testing.T) {
	if storeLabel("") != "default" || storeLabel("x") != "x" {
		t.Error("storeLabel should default empty names")
	}
	if modeLabel(nil) != "merge" || modeLabel([]bool{true}) != "replace" {
		t.Error("modeLabel mismatch")
	}
}
