package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Backend persists workspace entities. The store calls it after applying
// an optimistic update and rolls the update back when it fails.
type Backend interface {
	CreateProject(ctx context.Context, name string) (Project, error)
	CreateCollection(ctx context.Context, projectID, name string) (Collection, error)
	CreateRequest(ctx context.Context, collectionID string, req Request) (Request, error)
	UpdateRequest(ctx context.Context, req Request) error
	DuplicateRequest(ctx context.Context, req Request) (Request, error)
	ReorderRequests(ctx context.Context, collectionID string, orderedIDs []string) error
	CreateEnvironment(ctx context.Context, env Environment) (Environment, error)
	UpdateEnvironment(ctx context.Context, env Environment) error
}

// LocalBackend answers every call in process. It assigns fresh ids to
// created entities and keeps nothing.
type LocalBackend struct {
	// Latency delays every call.
	Latency time.Duration

	// Fail, if set, is asked before each call and may return an error for
	// the named operation.
	Fail func(op string) error
}

func (b *LocalBackend) call(ctx context.Context, op string) error {
	if b.Latency > 0 {
		timer := time.NewTimer(b.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}
	if b.Fail != nil {
		if err := b.Fail(op); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

func (b *LocalBackend) CreateProject(ctx context.Context, name string) (Project, error) {
	if err := b.call(ctx, "createProject"); err != nil {
		return Project{}, err
	}
	return Project{ID: uuid.NewString(), Name: name, Collections: []Collection{}}, nil
}

func (b *LocalBackend) CreateCollection(ctx context.Context, projectID, name string) (Collection, error) {
	if err := b.call(ctx, "createCollection"); err != nil {
		return Collection{}, err
	}
	return Collection{ID: uuid.NewString(), Name: name, Requests: []Request{}}, nil
}

func (b *LocalBackend) CreateRequest(ctx context.Context, collectionID string, req Request) (Request, error) {
	if err := b.call(ctx, "createRequest"); err != nil {
		return Request{}, err
	}
	req.ID = uuid.NewString()
	return req, nil
}

func (b *LocalBackend) UpdateRequest(ctx context.Context, req Request) error {
	return b.call(ctx, "updateRequest")
}

func (b *LocalBackend) DuplicateRequest(ctx context.Context, req Request) (Request, error) {
	if err := b.call(ctx, "duplicateRequest"); err != nil {
		return Request{}, err
	}
	req.ID = uuid.NewString()
	req.Name += " copy"
	return req, nil
}

func (b *LocalBackend) ReorderRequests(ctx context.Context, collectionID string, orderedIDs []string) error {
	return b.call(ctx, "reorderRequests")
}

func (b *LocalBackend) CreateEnvironment(ctx context.Context, env Environment) (Environment, error) {
	if err := b.call(ctx, "createEnvironment"); err != nil {
		return Environment{}, err
	}
	env.ID = uuid.NewString()
	return env, nil
}

func (b *LocalBackend) UpdateEnvironment(ctx context.Context, env Environment) error {
	return b.call(ctx, "updateEnvironment")
}
