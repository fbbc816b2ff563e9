package workspace

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/vango-dev/vstore/pkg/store"
)

// ErrNotFound is returned by actions that reference an unknown entity.
var ErrNotFound = errors.New("workspace: not found")

// State is the workspace store's state.
type State struct {
	Initialized bool `json:"initialized"`

	CollectionsSlice
	EnvironmentsSlice
	HistorySlice

	// Load replaces all entities with the seed's and selects the first
	// project, collection and request and the default environment.
	Load func(seed Seed) `json:"-"`
}

// Options configures NewStore.
type Options struct {
	// Backend receives optimistic writes. Defaults to a LocalBackend.
	Backend Backend

	// Middleware wraps the store, outermost first. Draft is always applied
	// innermost.
	Middleware []store.Middleware[State]

	// StoreOptions are passed to store.Create.
	StoreOptions []store.Option
}

// NewStore creates a workspace store.
func NewStore(opts Options) *store.Store[State] {
	backend := opts.Backend
	if backend == nil {
		backend = &LocalBackend{}
	}

	mws := append(append([]store.Middleware[State]{}, opts.Middleware...), store.DraftMiddleware[State]())
	return store.Create(store.Compose(mws...)(creator(backend)), opts.StoreOptions...)
}

// creator composes the slices into one initializer.
func creator(backend Backend) store.StateCreator[State] {
	return func(set store.SetFunc[State], get store.GetFunc[State], _ *store.Store[State]) State {
		return State{
			CollectionsSlice:  newCollectionsSlice(set, get, backend),
			EnvironmentsSlice: newEnvironmentsSlice(set, get, backend),
			HistorySlice:      newHistorySlice(set),
			Load: func(seed Seed) {
				set(store.Named[State]("load", store.Mutate[State](func(s *State) {
					s.load(seed)
				})))
			},
		}
	}
}

func (s *State) load(seed Seed) {
	s.Projects = seed.Projects
	s.Environments = seed.Environments
	s.History = seed.History
	if len(s.History) > MaxHistory {
		s.History = s.History[:MaxHistory]
	}

	s.ActiveProjectID, s.ActiveCollectionID, s.ActiveRequestID = "", "", ""
	if len(s.Projects) > 0 {
		s.selectProject(&s.Projects[0])
	}

	s.ActiveEnvironmentID = ""
	for _, env := range s.Environments {
		if env.IsDefault {
			s.ActiveEnvironmentID = env.ID
			break
		}
	}
	if s.ActiveEnvironmentID == "" && len(s.Environments) > 0 {
		s.ActiveEnvironmentID = s.Environments[0].ID
	}

	s.Initialized = true
}

// ActiveRequest returns the selected request.
func (s State) ActiveRequest() (Request, bool) {
	if r := s.findRequest(s.ActiveRequestID); r != nil {
		return *r, true
	}
	return Request{}, false
}

// ActiveEnvironment returns the selected environment.
func (s State) ActiveEnvironment() (Environment, bool) {
	for _, env := range s.Environments {
		if env.ID == s.ActiveEnvironmentID {
			return env, true
		}
	}
	return Environment{}, false
}

// RequestCount returns the number of requests in all projects.
func (s State) RequestCount() int {
	n := 0
	for _, p := range s.Projects {
		for _, c := range p.Collections {
			n += len(c.Requests)
		}
	}
	return n
}

func (s *State) findProject(id string) *Project {
	for i := range s.Projects {
		if s.Projects[i].ID == id {
			return &s.Projects[i]
		}
	}
	return nil
}

func (s *State) findCollection(id string) *Collection {
	for i := range s.Projects {
		for j := range s.Projects[i].Collections {
			if s.Projects[i].Collections[j].ID == id {
				return &s.Projects[i].Collections[j]
			}
		}
	}
	return nil
}

// findRequestCollection returns the collection holding the request.
func (s *State) findRequestCollection(requestID string) *Collection {
	for i := range s.Projects {
		for j := range s.Projects[i].Collections {
			c := &s.Projects[i].Collections[j]
			for k := range c.Requests {
				if c.Requests[k].ID == requestID {
					return c
				}
			}
		}
	}
	return nil
}

func (s *State) findRequest(id string) *Request {
	c := s.findRequestCollection(id)
	if c == nil {
		return nil
	}
	for i := range c.Requests {
		if c.Requests[i].ID == id {
			return &c.Requests[i]
		}
	}
	return nil
}

// tempID marks entities that exist only optimistically.
func tempID() string {
	return "tmp-" + uuid.NewString()
}

// IsTemporary reports whether id was assigned optimistically and not yet
// confirmed by the backend.
func IsTemporary(id string) bool {
	return strings.HasPrefix(id, "tmp-")
}
