package store

import (
	"errors"
	"sync"
	"testing"
)

type pair struct {
	A int
	B int
}

// testListener counts notifications.
type testListener struct {
	id    uint64
	mu    sync.Mutex
	count int
}

func newTestListener() *testListener {
	return &testListener{id: nextID()}
}

func (l *testListener) OnStoreChange() {
	l.mu.Lock()
	l.count++
	l.mu.Unlock()
}

func (l *testListener) ID() uint64 {
	return l.id
}

func (l *testListener) getCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

func TestSetStateMergesFields(t *testing.T) {
	shared := []int{1}
	s := New(map[string]any{"a": shared, "b": 2})
	before := s.GetState()

	s.SetState(Fields[map[string]any]{"b": 3})

	state := s.GetState()
	if state["b"] != 3 {
		t.Errorf("expected b=3, got %v", state["b"])
	}
	if !Is(state["a"], before["a"]) {
		t.Error("expected a to keep the same reference after merge")
	}
	if before["b"] != 2 {
		t.Errorf("merge must not write into the previous state, got b=%v", before["b"])
	}
}

func TestSetStateReplace(t *testing.T) {
	s := New(map[string]any{"a": 1, "b": 2})

	s.SetState(Fields[map[string]any]{"b": 3}, true)

	state := s.GetState()
	if len(state) != 1 {
		t.Fatalf("expected only one key after replace, got %v", state)
	}
	if state["b"] != 3 {
		t.Errorf("expected b=3, got %v", state["b"])
	}
	if _, ok := state["a"]; ok {
		t.Error("expected a to be gone after replace")
	}
}

func TestSetStateReplaceStruct(t *testing.T) {
	s := New(pair{A: 1, B: 2})

	s.SetState(Fields[pair]{"B": 3}, true)

	if got := s.GetState(); got != (pair{B: 3}) {
		t.Errorf("expected {0 3}, got %+v", got)
	}
}

func TestSetStateFunctionalUpdates(t *testing.T) {
	s := New(pair{A: 1, B: 2})
	inc := Func[pair](func(p pair) Partial[pair] {
		return Fields[pair]{"B": p.B + 1}
	})

	s.SetState(inc)
	s.SetState(inc)

	if got := s.GetState(); got.B != 4 || got.A != 1 {
		t.Errorf("expected {1 4}, got %+v", got)
	}
}

func TestSetStateValue(t *testing.T) {
	s := New(map[string]any{"a": 1, "b": 2})

	s.SetState(Value[map[string]any]{State: map[string]any{"b": 5, "c": 6}})

	state := s.GetState()
	if state["a"] != 1 || state["b"] != 5 || state["c"] != 6 {
		t.Errorf("expected merged {a:1 b:5 c:6}, got %v", state)
	}

	s.SetState(Value[map[string]any]{State: map[string]any{"c": 7}}, true)
	if state := s.GetState(); len(state) != 1 || state["c"] != 7 {
		t.Errorf("expected replaced {c:7}, got %v", state)
	}
}

func TestSetStateNilPartial(t *testing.T) {
	s := New(pair{A: 1, B: 2})
	l := newTestListener()
	s.Subscribe(l)

	s.SetState(nil)
	if got := s.GetState(); got != (pair{A: 1, B: 2}) {
		t.Errorf("nil merge should keep state, got %+v", got)
	}
	if l.getCount() != 1 {
		t.Errorf("nil merge still notifies, got %d", l.getCount())
	}

	s.SetState(nil, true)
	if got := s.GetState(); got != (pair{}) {
		t.Errorf("nil replace should zero the state, got %+v", got)
	}
}

func TestSetStateJSONTagKeys(t *testing.T) {
	type settings struct {
		Theme string `json:"theme"`
		Size  int64  `json:"size,omitempty"`
	}
	s := New(settings{Theme: "light", Size: 10})

	s.SetState(Fields[settings]{"theme": "dark", "size": 12})

	if got := s.GetState(); got.Theme != "dark" || got.Size != 12 {
		t.Errorf("expected {dark 12}, got %+v", got)
	}
}

func TestSetStateUnknownFieldPanics(t *testing.T) {
	s := New(pair{})

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for unknown field")
		}
	}()
	s.SetState(Fields[pair]{"C": 1})
}

func TestSetStatePointerState(t *testing.T) {
	initial := &pair{A: 1, B: 2}
	s := New(initial)

	s.SetState(Fields[*pair]{"B": 3})

	got := s.GetState()
	if got == initial {
		t.Error("merge into a struct pointer should allocate a new struct")
	}
	if got.A != 1 || got.B != 3 {
		t.Errorf("expected {1 3}, got %+v", *got)
	}
	if initial.B != 2 {
		t.Errorf("previous state must not change, got %+v", *initial)
	}
}

func TestMutateWithoutDraftIsShallow(t *testing.T) {
	type doc struct {
		Title string
		Tags  []string
	}
	s := New(doc{Title: "a", Tags: []string{"x"}})
	before := s.GetState()

	s.SetState(Mutate[doc](func(d *doc) {
		d.Title = "b"
		d.Tags[0] = "y"
	}))

	if got := s.GetState(); got.Title != "b" || got.Tags[0] != "y" {
		t.Errorf("expected mutation applied, got %+v", got)
	}
	if before.Title != "a" {
		t.Error("top-level fields are copied")
	}
	if before.Tags[0] != "y" {
		t.Error("without Draft nested slices are shared with the previous state")
	}
}

func TestCreateRunsInitializerOnce(t *testing.T) {
	calls := 0
	var captured *Store[pair]

	s := Create(func(set SetFunc[pair], get GetFunc[pair], api *Store[pair]) pair {
		calls++
		captured = api
		return pair{A: 1}
	})

	if calls != 1 {
		t.Errorf("expected initializer to run once, ran %d times", calls)
	}
	if captured != s {
		t.Error("initializer api should be the created store")
	}
	if s.GetState().A != 1 {
		t.Errorf("expected initial A=1, got %d", s.GetState().A)
	}
}

func TestCreateClosuresReadAndWrite(t *testing.T) {
	type counter struct {
		Count int
		Inc   func()
	}

	s := Create(func(set SetFunc[counter], get GetFunc[counter], api *Store[counter]) counter {
		return counter{
			Inc: func() {
				set(Fields[counter]{"Count": get().Count + 1})
			},
		}
	})

	s.GetState().Inc()
	s.GetState().Inc()

	if s.GetState().Count != 2 {
		t.Errorf("expected Count=2, got %d", s.GetState().Count)
	}
}

func TestListenerOrder(t *testing.T) {
	s := New(pair{})
	var order []string

	s.SubscribeFunc(func() { order = append(order, "L1") })
	s.SubscribeFunc(func() { order = append(order, "L2") })

	s.SetState(Fields[pair]{"A": 1})

	if len(order) != 2 || order[0] != "L1" || order[1] != "L2" {
		t.Errorf("expected [L1 L2], got %v", order)
	}
}

func TestListenerSeesNewState(t *testing.T) {
	s := New(pair{})
	var seen int

	s.SubscribeFunc(func() { seen = s.GetState().A })
	s.SetState(Fields[pair]{"A": 7})

	if seen != 7 {
		t.Errorf("listener should observe post-update state, got %d", seen)
	}
}

func TestListenersBeforeSelectors(t *testing.T) {
	s := New(pair{})
	var order []string

	SubscribeSelector(s, func(p pair) int { return p.A }, func(int, int) {
		order = append(order, "selector")
	})
	s.SubscribeFunc(func() { order = append(order, "listener") })

	s.SetState(Fields[pair]{"A": 1})

	if len(order) != 2 || order[0] != "listener" || order[1] != "selector" {
		t.Errorf("expected [listener selector], got %v", order)
	}
}

func TestUnsubscribe(t *testing.T) {
	s := New(pair{})
	l1 := newTestListener()
	l2 := newTestListener()

	unsub := s.Subscribe(l1)
	s.Subscribe(l2)

	s.SetState(Fields[pair]{"A": 1})
	unsub()
	s.SetState(Fields[pair]{"A": 2})

	if l1.getCount() != 1 {
		t.Errorf("unsubscribed listener expected 1 notification, got %d", l1.getCount())
	}
	if l2.getCount() != 2 {
		t.Errorf("remaining listener expected 2 notifications, got %d", l2.getCount())
	}

	// Calling unsubscribe again is harmless.
	unsub()
	if s.ListenerCount() != 1 {
		t.Errorf("expected 1 listener, got %d", s.ListenerCount())
	}
}

func TestSubscribeDeduplicates(t *testing.T) {
	s := New(pair{})
	l := newTestListener()

	s.Subscribe(l)
	unsub := s.Subscribe(l)

	s.SetState(Fields[pair]{"A": 1})
	if l.getCount() != 1 {
		t.Errorf("expected 1 notification (deduplicated), got %d", l.getCount())
	}
	if s.ListenerCount() != 1 {
		t.Errorf("expected 1 registered listener, got %d", s.ListenerCount())
	}

	unsub()
	s.SetState(Fields[pair]{"A": 2})
	if l.getCount() != 1 {
		t.Errorf("expected no notification after unsubscribe, got %d", l.getCount())
	}
}

func TestSubscribeFuncIdentities(t *testing.T) {
	s := New(pair{})
	count := 0
	fn := func() { count++ }

	// Each call wraps fn in a new Listener.
	s.SubscribeFunc(fn)
	s.SubscribeFunc(fn)
	s.SetState(Fields[pair]{"A": 1})

	if count != 2 {
		t.Errorf("expected 2 notifications, got %d", count)
	}
}

func TestListenerPanicPropagates(t *testing.T) {
	s := New(pair{})
	second := newTestListener()

	s.SubscribeFunc(func() { panic("boom") })
	s.Subscribe(second)

	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Errorf("expected panic boom, got %v", r)
			}
		}()
		s.SetState(Fields[pair]{"A": 1})
	}()

	if second.getCount() != 0 {
		t.Errorf("later listeners must not run after a panic, got %d", second.getCount())
	}
	if s.GetState().A != 1 {
		t.Error("state is assigned before notification")
	}
}

func TestListenerRecovery(t *testing.T) {
	var reported []error
	s := New(pair{}, WithName("app"), WithListenerRecovery(func(err error) {
		reported = append(reported, err)
	}))
	second := newTestListener()
	var selected []int

	s.SubscribeFunc(func() { panic("boom") })
	s.Subscribe(second)
	SubscribeSelector(s, func(p pair) int {
		if p.A == 1 {
			panic(errors.New("selector failed"))
		}
		return p.A
	}, func(next, _ int) {
		selected = append(selected, next)
	})

	s.SetState(Fields[pair]{"A": 1})

	if second.getCount() != 1 {
		t.Errorf("expected isolated listener to run, got %d", second.getCount())
	}
	if len(reported) != 2 {
		t.Fatalf("expected 2 reported panics, got %d", len(reported))
	}

	var lpe *ListenerPanicError
	if !errors.As(reported[0], &lpe) || lpe.Kind != KindListener || lpe.Store != "app" {
		t.Errorf("unexpected first error: %v", reported[0])
	}
	if !errors.Is(reported[1], ErrListenerPanic) {
		t.Errorf("expected ErrListenerPanic, got %v", reported[1])
	}
	if reported[1].(*ListenerPanicError).Unwrap() == nil {
		t.Error("error panic values should unwrap")
	}

	s.SetState(Fields[pair]{"A": 2})
	if len(selected) != 1 || selected[0] != 2 {
		t.Errorf("selector should recover on the next transition, got %v", selected)
	}
}

func TestReentrantSetState(t *testing.T) {
	s := New(pair{})
	calls := 0
	s.SubscribeFunc(func() {
		calls++
		if st := s.GetState(); st.A == 1 && st.B == 0 {
			s.SetState(Fields[pair]{"B": 1})
		}
	})

	s.SetState(Fields[pair]{"A": 1})

	if got := s.GetState(); got != (pair{A: 1, B: 1}) {
		t.Errorf("expected {1 1}, got %+v", got)
	}
	if calls != 2 {
		t.Errorf("expected 2 listener calls, got %d", calls)
	}
}

func TestUnsubscribeDuringNotify(t *testing.T) {
	s := New(pair{})
	second := newTestListener()
	third := newTestListener()

	var unsubSecond func()
	s.SubscribeFunc(func() { unsubSecond() })
	unsubSecond = s.Subscribe(second)
	s.Subscribe(third)

	s.SetState(Fields[pair]{"A": 1})

	if got := second.getCount(); got != 0 {
		t.Errorf("expected 0 calls after mid-pass unsubscribe, got %d", got)
	}
	if got := third.getCount(); got != 1 {
		t.Errorf("expected 1 call for the remaining listener, got %d", got)
	}
}

func TestSubscribeDuringNotify(t *testing.T) {
	s := New(pair{})
	late := newTestListener()

	s.SubscribeFunc(func() { s.Subscribe(late) })
	s.SetState(Fields[pair]{"A": 1})
	s.SetState(Fields[pair]{"A": 2})

	if late.getCount() != 1 {
		t.Errorf("listener added during a pass starts with the next pass, got %d", late.getCount())
	}
}

func TestConcurrentReaders(t *testing.T) {
	s := New(pair{})
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.GetState()
			}
		}()
	}
	for i := 0; i < 100; i++ {
		s.SetState(Fields[pair]{"A": i})
	}
	wg.Wait()

	if s.GetState().A != 99 {
		t.Errorf("expected A=99, got %d", s.GetState().A)
	}
}
