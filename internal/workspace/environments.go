package workspace

import (
	"context"
	"fmt"
	"slices"

	"github.com/vango-dev/vstore/pkg/store"
)

// EnvironmentsSlice holds environments and the active one. At most one
// environment is the default.
type EnvironmentsSlice struct {
	Environments        []Environment `json:"environments"`
	ActiveEnvironmentID string        `json:"activeEnvironmentId,omitempty"`

	SetActiveEnvironment func(id string)                                                                  `json:"-"`
	AddEnvironment       func(ctx context.Context, env Environment) (Environment, error)                  `json:"-"`
	UpdateEnvironment    func(ctx context.Context, id string, update func(Environment) Environment) error `json:"-"`
}

// makeDefault clears IsDefault on every environment except id and
// activates id.
func (s *State) makeDefault(id string) {
	for i := range s.Environments {
		if s.Environments[i].ID != id {
			s.Environments[i].IsDefault = false
		}
	}
	s.ActiveEnvironmentID = id
}

func (s *State) findEnvironment(id string) *Environment {
	for i := range s.Environments {
		if s.Environments[i].ID == id {
			return &s.Environments[i]
		}
	}
	return nil
}

func newEnvironmentsSlice(set store.SetFunc[State], get store.GetFunc[State], backend Backend) EnvironmentsSlice {
	mutate := func(name string, fn func(s *State)) {
		set(store.Named[State](name, store.Mutate[State](fn)))
	}

	return EnvironmentsSlice{
		Environments: []Environment{},

		SetActiveEnvironment: func(id string) {
			mutate("setActiveEnvironment", func(s *State) {
				s.ActiveEnvironmentID = id
			})
		},

		AddEnvironment: func(ctx context.Context, env Environment) (Environment, error) {
			current := get()
			previous := slices.Clone(current.Environments)
			previousActive := current.ActiveEnvironmentID

			tmp := env
			tmp.ID = tempID()
			mutate("addEnvironment", func(s *State) {
				s.Environments = append(s.Environments, tmp)
				if tmp.IsDefault {
					s.makeDefault(tmp.ID)
				}
			})

			saved, err := backend.CreateEnvironment(ctx, env)
			if err != nil {
				mutate("addEnvironment/rollback", func(s *State) {
					s.Environments = previous
					s.ActiveEnvironmentID = previousActive
				})
				return Environment{}, fmt.Errorf("add environment %q: %w", env.Name, err)
			}

			mutate("addEnvironment/commit", func(s *State) {
				if e := s.findEnvironment(tmp.ID); e != nil {
					*e = saved
					if saved.IsDefault {
						s.ActiveEnvironmentID = saved.ID
					}
				}
			})
			return saved, nil
		},

		UpdateEnvironment: func(ctx context.Context, id string, update func(Environment) Environment) error {
			current := get()
			e := current.findEnvironment(id)
			if e == nil {
				return fmt.Errorf("environment %q: %w", id, ErrNotFound)
			}
			previous := slices.Clone(current.Environments)
			previousActive := current.ActiveEnvironmentID
			updated := update(*e)
			updated.ID = id

			mutate("updateEnvironment", func(s *State) {
				if e := s.findEnvironment(id); e != nil {
					*e = updated
				}
				if updated.IsDefault {
					s.makeDefault(id)
				}
			})

			if err := backend.UpdateEnvironment(ctx, updated); err != nil {
				mutate("updateEnvironment/rollback", func(s *State) {
					s.Environments = previous
					s.ActiveEnvironmentID = previousActive
				})
				return fmt.Errorf("update environment %q: %w", id, err)
			}
			return nil
		},
	}
}
