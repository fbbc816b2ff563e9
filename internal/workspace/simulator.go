package workspace

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/vango-dev/vstore/pkg/store"
)

// Simulator drives a workspace store with a stream of user-like actions so
// that devtools and metrics have something to show.
type Simulator struct {
	Store    *store.Store[State]
	Interval time.Duration
	Logger   *slog.Logger

	rng *rand.Rand
}

var statuses = []int{http.StatusOK, http.StatusOK, http.StatusOK, http.StatusCreated, http.StatusNotFound, http.StatusInternalServerError}

// Run performs one step per Interval until ctx is done.
func (s *Simulator) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Second
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Step(ctx); err != nil {
				logger.Debug("simulated action failed", "error", err)
			}
		}
	}
}

// Step performs one random action.
func (s *Simulator) Step(ctx context.Context) error {
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(1, 2))
	}
	state := s.Store.GetState()

	switch n := s.rng.IntN(10); {
	case n < 6:
		s.execute(state)
	case n < 8:
		s.selectRandomRequest(state)
	case n < 9:
		if len(state.Environments) > 0 {
			env := state.Environments[s.rng.IntN(len(state.Environments))]
			state.SetActiveEnvironment(env.ID)
		}
	default:
		if state.ActiveCollectionID != "" {
			_, err := state.CreateRequest(ctx, state.ActiveCollectionID, Request{
				Name:   "Generated request",
				Method: http.MethodGet,
				URL:    "https://example.com/generated",
			})
			return err
		}
	}
	return nil
}

// execute records a fake response for the active request.
func (s *Simulator) execute(state State) {
	req, ok := state.ActiveRequest()
	if !ok {
		return
	}
	state.RecordHistory(HistoryEntry{
		RequestID: req.ID,
		Method:    req.Method,
		URL:       req.URL,
		Status:    statuses[s.rng.IntN(len(statuses))],
		Duration:  time.Duration(20+s.rng.IntN(400)) * time.Millisecond,
	})
}

func (s *Simulator) selectRandomRequest(state State) {
	var ids []string
	for _, p := range state.Projects {
		for _, c := range p.Collections {
			for _, r := range c.Requests {
				ids = append(ids, r.ID)
			}
		}
	}
	if len(ids) == 0 {
		return
	}
	state.SetActiveRequest(ids[s.rng.IntN(len(ids))])
}
