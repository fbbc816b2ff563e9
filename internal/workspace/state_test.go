package workspace

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/vango-dev/vstore/pkg/store"
)

var errBackend = errors.New("backend unavailable")

// failing returns a backend that fails the named operations.
func failing(ops ...string) *LocalBackend {
	return &LocalBackend{Fail: func(op string) error {
		if slices.Contains(ops, op) {
			return errBackend
		}
		return nil
	}}
}

func loaded(t *testing.T, backend Backend) *store.Store[State] {
	t.Helper()
	s := NewStore(Options{Backend: backend})
	seed, err := LoadSeed("testdata/seed.yaml")
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	s.GetState().Load(seed)
	return s
}

// recorder keeps every state the store passed through.
type recorder struct {
	mu     sync.Mutex
	states []State
}

func record(s *store.Store[State]) *recorder {
	r := &recorder{}
	s.SubscribeFunc(func() {
		r.mu.Lock()
		r.states = append(r.states, s.GetState())
		r.mu.Unlock()
	})
	return r
}

func TestNewStoreIsEmpty(t *testing.T) {
	s := NewStore(Options{})
	state := s.GetState()

	if state.Initialized {
		t.Error("a new store is not initialized")
	}
	if state.Projects == nil || state.Environments == nil || state.History == nil {
		t.Error("slices start empty, not nil")
	}
	if state.CreateProject == nil || state.RecordHistory == nil || state.Load == nil {
		t.Error("actions are installed")
	}
}

func TestLoadSelectsDefaults(t *testing.T) {
	s := loaded(t, nil)
	state := s.GetState()

	if !state.Initialized {
		t.Error("expected initialized")
	}
	if state.ActiveProjectID != "p1" || state.ActiveCollectionID != "c1" || state.ActiveRequestID != "r1" {
		t.Errorf("unexpected selection %q/%q/%q", state.ActiveProjectID, state.ActiveCollectionID, state.ActiveRequestID)
	}
	if state.ActiveEnvironmentID != "e2" {
		t.Errorf("expected the default environment e2, got %q", state.ActiveEnvironmentID)
	}
	if len(state.History) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(state.History))
	}
	if state.RequestCount() != 2 {
		t.Errorf("expected 2 requests, got %d", state.RequestCount())
	}
}

func TestLoadWithoutDefaultEnvironment(t *testing.T) {
	s := NewStore(Options{})
	s.GetState().Load(Seed{Environments: []Environment{{ID: "a"}, {ID: "b"}}})

	if got := s.GetState().ActiveEnvironmentID; got != "a" {
		t.Errorf("expected the first environment, got %q", got)
	}
}

func TestSelection(t *testing.T) {
	s := loaded(t, nil)

	s.GetState().SetActiveRequest("r2")
	if req, ok := s.GetState().ActiveRequest(); !ok || req.Name != "Create invoice" {
		t.Errorf("unexpected active request %+v", req)
	}

	s.GetState().SetActiveCollection("c1")
	if got := s.GetState().ActiveRequestID; got != "r1" {
		t.Errorf("selecting a collection selects its first request, got %q", got)
	}

	s.GetState().SetActiveProject("missing")
	state := s.GetState()
	if state.ActiveProjectID != "missing" || state.ActiveCollectionID != "" || state.ActiveRequestID != "" {
		t.Errorf("unknown project clears the selection, got %q/%q", state.ActiveCollectionID, state.ActiveRequestID)
	}
}

func TestCreateProjectOptimistic(t *testing.T) {
	s := NewStore(Options{})
	rec := record(s)

	saved, err := s.GetState().CreateProject(context.Background(), "Payments")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	if len(rec.states) != 2 {
		t.Fatalf("expected optimistic and commit transitions, got %d", len(rec.states))
	}
	optimistic := rec.states[0]
	if len(optimistic.Projects) != 1 || !IsTemporary(optimistic.Projects[0].ID) {
		t.Errorf("expected a temporary project first, got %+v", optimistic.Projects)
	}

	state := s.GetState()
	if len(state.Projects) != 1 || state.Projects[0].ID != saved.ID || IsTemporary(saved.ID) {
		t.Errorf("expected the saved project, got %+v", state.Projects)
	}
	if state.ActiveProjectID != saved.ID {
		t.Errorf("expected %s active, got %s", saved.ID, state.ActiveProjectID)
	}
}

func TestCreateProjectRollback(t *testing.T) {
	s := loaded(t, failing("createProject"))

	_, err := s.GetState().CreateProject(context.Background(), "Payments")
	if !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}

	state := s.GetState()
	if len(state.Projects) != 1 || state.ActiveProjectID != "p1" {
		t.Errorf("expected rollback to the seeded project, got %+v active %q", state.Projects, state.ActiveProjectID)
	}
}

func TestCreateCollectionAndRequest(t *testing.T) {
	s := loaded(t, nil)
	ctx := context.Background()

	col, err := s.GetState().CreateCollection(ctx, "p1", "Customers")
	if err != nil {
		t.Fatalf("create collection: %v", err)
	}
	req, err := s.GetState().CreateRequest(ctx, col.ID, Request{URL: "https://api.example.com/customers"})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	if req.Name != "New request" || req.Method != "GET" {
		t.Errorf("expected defaults, got %+v", req)
	}
	state := s.GetState()
	if state.ActiveCollectionID != col.ID || state.ActiveRequestID != req.ID {
		t.Errorf("expected the new entities to be active, got %q/%q", state.ActiveCollectionID, state.ActiveRequestID)
	}
	if state.RequestCount() != 3 {
		t.Errorf("expected 3 requests, got %d", state.RequestCount())
	}
}

func TestCreateRequestRollback(t *testing.T) {
	s := loaded(t, failing("createRequest"))

	if _, err := s.GetState().CreateRequest(context.Background(), "c1", Request{Name: "x"}); !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	state := s.GetState()
	if state.RequestCount() != 2 || state.ActiveRequestID != "" {
		t.Errorf("expected rollback, got %d requests, active %q", state.RequestCount(), state.ActiveRequestID)
	}
}

func TestNotFound(t *testing.T) {
	s := loaded(t, nil)
	ctx := context.Background()
	state := s.GetState()

	checks := map[string]error{
		"collection": func() error { _, err := state.CreateCollection(ctx, "nope", "x"); return err }(),
		"request":    func() error { _, err := state.CreateRequest(ctx, "nope", Request{}); return err }(),
		"update":     state.UpdateRequest(ctx, "nope", func(r Request) Request { return r }),
		"duplicate":  func() error { _, err := state.DuplicateRequest(ctx, "nope"); return err }(),
		"reorder":    state.ReorderRequests(ctx, "nope", nil),
		"env":        state.UpdateEnvironment(ctx, "nope", func(e Environment) Environment { return e }),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
}

func TestUpdateRequestKeepsPreviousState(t *testing.T) {
	s := loaded(t, nil)
	before := s.GetState()

	err := s.GetState().UpdateRequest(context.Background(), "r1", func(r Request) Request {
		r.URL = "https://api.example.com/v2/invoices"
		r.Tags = append(r.Tags, "v2")
		return r
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	after, _ := s.GetState().ActiveRequest()
	if after.URL != "https://api.example.com/v2/invoices" {
		t.Errorf("expected the new URL, got %s", after.URL)
	}
	old, _ := before.ActiveRequest()
	if old.URL != "https://api.example.com/invoices" || len(old.Tags) != 0 {
		t.Errorf("previous state must not change, got %+v", old)
	}
}

func TestUpdateRequestRollback(t *testing.T) {
	s := loaded(t, failing("updateRequest"))

	err := s.GetState().UpdateRequest(context.Background(), "r1", func(r Request) Request {
		r.Name = "Renamed"
		return r
	})
	if !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if req, _ := s.GetState().ActiveRequest(); req.Name != "List invoices" {
		t.Errorf("expected rollback, got %q", req.Name)
	}
}

func TestDuplicateRequest(t *testing.T) {
	s := loaded(t, nil)

	dup, err := s.GetState().DuplicateRequest(context.Background(), "r2")
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if dup.Name != "Create invoice copy" || dup.ID == "r2" {
		t.Errorf("unexpected copy %+v", dup)
	}
	if s.GetState().ActiveRequestID != dup.ID {
		t.Errorf("expected the copy to be active")
	}
}

func TestReorderRequests(t *testing.T) {
	s := loaded(t, nil)

	if err := s.GetState().ReorderRequests(context.Background(), "c1", []string{"r2", "r1"}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	reqs := s.GetState().Projects[0].Collections[0].Requests
	if reqs[0].ID != "r2" || reqs[1].ID != "r1" {
		t.Errorf("unexpected order %s, %s", reqs[0].ID, reqs[1].ID)
	}
}

func TestReorderRequestsRollback(t *testing.T) {
	s := loaded(t, failing("reorderRequests"))

	if err := s.GetState().ReorderRequests(context.Background(), "c1", []string{"r2"}); !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	reqs := s.GetState().Projects[0].Collections[0].Requests
	if len(reqs) != 2 || reqs[0].ID != "r1" {
		t.Errorf("expected the original order, got %+v", reqs)
	}
}

func TestEnvironments(t *testing.T) {
	s := loaded(t, nil)
	ctx := context.Background()

	env, err := s.GetState().AddEnvironment(ctx, Environment{Name: "QA", IsDefault: true})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	state := s.GetState()
	if state.ActiveEnvironmentID != env.ID {
		t.Errorf("a new default environment becomes active")
	}
	defaults := 0
	for _, e := range state.Environments {
		if e.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		t.Errorf("expected exactly one default, got %d", defaults)
	}

	err = s.GetState().UpdateEnvironment(ctx, "e1", func(e Environment) Environment {
		e.IsDefault = true
		return e
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if active, _ := s.GetState().ActiveEnvironment(); active.ID != "e1" || !active.IsDefault {
		t.Errorf("expected e1 as the default, got %+v", active)
	}
}

func TestEnvironmentRollback(t *testing.T) {
	s := loaded(t, failing("createEnvironment", "updateEnvironment"))
	ctx := context.Background()

	if _, err := s.GetState().AddEnvironment(ctx, Environment{Name: "QA", IsDefault: true}); err == nil {
		t.Fatal("expected an error")
	}
	err := s.GetState().UpdateEnvironment(ctx, "e1", func(e Environment) Environment {
		e.IsDefault = true
		return e
	})
	if err == nil {
		t.Fatal("expected an error")
	}

	state := s.GetState()
	if len(state.Environments) != 2 || state.ActiveEnvironmentID != "e2" {
		t.Errorf("expected rollback, got %+v active %q", state.Environments, state.ActiveEnvironmentID)
	}
	if state.Environments[1].IsDefault != true || state.Environments[0].IsDefault {
		t.Errorf("default flags must be restored, got %+v", state.Environments)
	}
}

func TestHistory(t *testing.T) {
	s := NewStore(Options{})

	for i := range MaxHistory + 5 {
		s.GetState().RecordHistory(HistoryEntry{Method: "GET", Status: i})
	}

	history := s.GetState().History
	if len(history) != MaxHistory {
		t.Fatalf("expected %d entries, got %d", MaxHistory, len(history))
	}
	if history[0].Status != MaxHistory+4 {
		t.Errorf("expected newest first, got status %d", history[0].Status)
	}
	if history[0].ID == "" || history[0].ExecutedAt.IsZero() {
		t.Error("id and time are filled in")
	}

	s.GetState().ClearHistory()
	if len(s.GetState().History) != 0 {
		t.Error("expected empty history")
	}
}

func TestActionNamesReachMiddleware(t *testing.T) {
	var names []string
	record := func(creator store.StateCreator[State]) store.StateCreator[State] {
		return func(set store.SetFunc[State], get store.GetFunc[State], api *store.Store[State]) State {
			wrapped := api.InstallSetter(func(p store.Partial[State], replace ...bool) {
				names = append(names, store.ActionName(p))
				set(p, replace...)
			})
			return creator(wrapped, get, api)
		}
	}

	s := NewStore(Options{Middleware: []store.Middleware[State]{record}})
	s.GetState().Load(DemoSeed())
	s.GetState().SetActiveRequest("req-get-pet")

	if !slices.Equal(names, []string{"load", "setActiveRequest"}) {
		t.Errorf("unexpected action names %v", names)
	}
}
