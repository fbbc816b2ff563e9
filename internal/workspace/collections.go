package workspace

import (
	"context"
	"fmt"
	"slices"

	"github.com/vango-dev/vstore/pkg/store"
)

// CollectionsSlice holds projects, their collections and requests, and the
// current selection.
type CollectionsSlice struct {
	Projects           []Project `json:"projects"`
	ActiveProjectID    string    `json:"activeProjectId,omitempty"`
	ActiveCollectionID string    `json:"activeCollectionId,omitempty"`
	ActiveRequestID    string    `json:"activeRequestId,omitempty"`

	SetActiveProject    func(projectID string)                                                          `json:"-"`
	SetActiveCollection func(collectionID string)                                                       `json:"-"`
	SetActiveRequest    func(requestID string)                                                          `json:"-"`
	CreateProject       func(ctx context.Context, name string) (Project, error)                         `json:"-"`
	CreateCollection    func(ctx context.Context, projectID, name string) (Collection, error)           `json:"-"`
	CreateRequest       func(ctx context.Context, collectionID string, req Request) (Request, error)    `json:"-"`
	UpdateRequest       func(ctx context.Context, requestID string, update func(Request) Request) error `json:"-"`
	DuplicateRequest    func(ctx context.Context, requestID string) (Request, error)                    `json:"-"`
	ReorderRequests     func(ctx context.Context, collectionID string, orderedIDs []string) error       `json:"-"`
}

// selectProject makes p active along with its first collection and request.
func (s *State) selectProject(p *Project) {
	s.ActiveProjectID = p.ID
	s.ActiveCollectionID, s.ActiveRequestID = "", ""
	if len(p.Collections) > 0 {
		s.selectCollection(&p.Collections[0])
	}
}

// selectCollection makes c active along with its first request.
func (s *State) selectCollection(c *Collection) {
	s.ActiveCollectionID = c.ID
	s.ActiveRequestID = ""
	if len(c.Requests) > 0 {
		s.ActiveRequestID = c.Requests[0].ID
	}
}

func newCollectionsSlice(set store.SetFunc[State], get store.GetFunc[State], backend Backend) CollectionsSlice {
	mutate := func(name string, fn func(s *State)) {
		set(store.Named[State](name, store.Mutate[State](fn)))
	}

	return CollectionsSlice{
		Projects: []Project{},

		SetActiveProject: func(projectID string) {
			mutate("setActiveProject", func(s *State) {
				s.ActiveProjectID = projectID
				s.ActiveCollectionID, s.ActiveRequestID = "", ""
				if p := s.findProject(projectID); p != nil {
					s.selectProject(p)
				}
			})
		},

		SetActiveCollection: func(collectionID string) {
			mutate("setActiveCollection", func(s *State) {
				s.ActiveCollectionID = collectionID
				s.ActiveRequestID = ""
				if c := s.findCollection(collectionID); c != nil {
					s.selectCollection(c)
				}
			})
		},

		SetActiveRequest: func(requestID string) {
			mutate("setActiveRequest", func(s *State) {
				s.ActiveRequestID = requestID
			})
		},

		CreateProject: func(ctx context.Context, name string) (Project, error) {
			tmp := Project{ID: tempID(), Name: name, Collections: []Collection{}}
			mutate("createProject", func(s *State) {
				s.Projects = append(s.Projects, tmp)
				s.ActiveProjectID = tmp.ID
				s.ActiveCollectionID, s.ActiveRequestID = "", ""
			})

			saved, err := backend.CreateProject(ctx, name)
			if err != nil {
				mutate("createProject/rollback", func(s *State) {
					s.Projects = slices.DeleteFunc(s.Projects, func(p Project) bool { return p.ID == tmp.ID })
					s.ActiveProjectID = ""
					if len(s.Projects) > 0 {
						s.ActiveProjectID = s.Projects[0].ID
					}
				})
				return Project{}, fmt.Errorf("create project %q: %w", name, err)
			}

			mutate("createProject/commit", func(s *State) {
				if p := s.findProject(tmp.ID); p != nil {
					*p = saved
					s.ActiveProjectID = saved.ID
				}
			})
			return saved, nil
		},

		CreateCollection: func(ctx context.Context, projectID, name string) (Collection, error) {
			current := get()
			if current.findProject(projectID) == nil {
				return Collection{}, fmt.Errorf("project %q: %w", projectID, ErrNotFound)
			}

			tmp := Collection{ID: tempID(), Name: name, Requests: []Request{}}
			mutate("createCollection", func(s *State) {
				if p := s.findProject(projectID); p != nil {
					p.Collections = append(p.Collections, tmp)
					s.ActiveCollectionID = tmp.ID
				}
			})

			saved, err := backend.CreateCollection(ctx, projectID, name)
			if err != nil {
				mutate("createCollection/rollback", func(s *State) {
					if p := s.findProject(projectID); p != nil {
						p.Collections = slices.DeleteFunc(p.Collections, func(c Collection) bool { return c.ID == tmp.ID })
					}
					if s.ActiveCollectionID == tmp.ID {
						s.ActiveCollectionID = ""
					}
				})
				return Collection{}, fmt.Errorf("create collection %q: %w", name, err)
			}

			mutate("createCollection/commit", func(s *State) {
				if c := s.findCollection(tmp.ID); c != nil {
					*c = saved
					s.ActiveCollectionID = saved.ID
				}
			})
			return saved, nil
		},

		CreateRequest: func(ctx context.Context, collectionID string, req Request) (Request, error) {
			current := get()
			if current.findCollection(collectionID) == nil {
				return Request{}, fmt.Errorf("collection %q: %w", collectionID, ErrNotFound)
			}

			if req.Name == "" {
				req.Name = "New request"
			}
			if req.Method == "" {
				req.Method = "GET"
			}
			tmp := req
			tmp.ID = tempID()
			mutate("createRequest", func(s *State) {
				if c := s.findCollection(collectionID); c != nil {
					c.Requests = append(c.Requests, tmp)
					s.ActiveRequestID = tmp.ID
				}
			})

			saved, err := backend.CreateRequest(ctx, collectionID, req)
			if err != nil {
				mutate("createRequest/rollback", func(s *State) {
					if c := s.findCollection(collectionID); c != nil {
						c.Requests = slices.DeleteFunc(c.Requests, func(r Request) bool { return r.ID == tmp.ID })
					}
					if s.ActiveRequestID == tmp.ID {
						s.ActiveRequestID = ""
					}
				})
				return Request{}, fmt.Errorf("create request %q: %w", req.Name, err)
			}

			mutate("createRequest/commit", func(s *State) {
				if r := s.findRequest(tmp.ID); r != nil {
					*r = saved
					s.ActiveRequestID = saved.ID
				}
			})
			return saved, nil
		},

		UpdateRequest: func(ctx context.Context, requestID string, update func(Request) Request) error {
			current := get()
			r := current.findRequest(requestID)
			if r == nil {
				return fmt.Errorf("request %q: %w", requestID, ErrNotFound)
			}
			previous := *r
			updated := update(previous)
			updated.ID = requestID

			mutate("updateRequest", func(s *State) {
				if r := s.findRequest(requestID); r != nil {
					*r = updated
				}
			})

			if err := backend.UpdateRequest(ctx, updated); err != nil {
				mutate("updateRequest/rollback", func(s *State) {
					if r := s.findRequest(requestID); r != nil {
						*r = previous
					}
				})
				return fmt.Errorf("update request %q: %w", requestID, err)
			}
			return nil
		},

		DuplicateRequest: func(ctx context.Context, requestID string) (Request, error) {
			current := get()
			c := current.findRequestCollection(requestID)
			if c == nil {
				return Request{}, fmt.Errorf("request %q: %w", requestID, ErrNotFound)
			}
			collectionID := c.ID
			original := *current.findRequest(requestID)

			tmp := original
			tmp.ID = tempID()
			tmp.Name = original.Name + " copy"
			mutate("duplicateRequest", func(s *State) {
				if c := s.findCollection(collectionID); c != nil {
					c.Requests = append(c.Requests, tmp)
					s.ActiveRequestID = tmp.ID
				}
			})

			saved, err := backend.DuplicateRequest(ctx, original)
			if err != nil {
				mutate("duplicateRequest/rollback", func(s *State) {
					if c := s.findCollection(collectionID); c != nil {
						c.Requests = slices.DeleteFunc(c.Requests, func(r Request) bool { return r.ID == tmp.ID })
					}
					if s.ActiveRequestID == tmp.ID {
						s.ActiveRequestID = requestID
					}
				})
				return Request{}, fmt.Errorf("duplicate request %q: %w", requestID, err)
			}

			mutate("duplicateRequest/commit", func(s *State) {
				if r := s.findRequest(tmp.ID); r != nil {
					*r = saved
					s.ActiveRequestID = saved.ID
				}
			})
			return saved, nil
		},

		ReorderRequests: func(ctx context.Context, collectionID string, orderedIDs []string) error {
			current := get()
			c := current.findCollection(collectionID)
			if c == nil {
				return fmt.Errorf("collection %q: %w", collectionID, ErrNotFound)
			}
			original := slices.Clone(c.Requests)

			mutate("reorderRequests", func(s *State) {
				c := s.findCollection(collectionID)
				if c == nil {
					return
				}
				reordered := make([]Request, 0, len(orderedIDs))
				for _, id := range orderedIDs {
					if i := slices.IndexFunc(c.Requests, func(r Request) bool { return r.ID == id }); i >= 0 {
						reordered = append(reordered, c.Requests[i])
					}
				}
				c.Requests = reordered
			})

			if err := backend.ReorderRequests(ctx, collectionID, orderedIDs); err != nil {
				mutate("reorderRequests/rollback", func(s *State) {
					if c := s.findCollection(collectionID); c != nil {
						c.Requests = original
					}
				})
				return fmt.Errorf("reorder requests in %q: %w", collectionID, err)
			}
			return nil
		},
	}
}
