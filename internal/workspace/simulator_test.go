package workspace

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"
)

func TestSimulatorSteps(t *testing.T) {
	s := NewStore(Options{})
	s.GetState().Load(DemoSeed())
	sim := &Simulator{Store: s, rng: rand.New(rand.NewPCG(7, 7))}

	transitions := 0
	s.SubscribeFunc(func() { transitions++ })

	for range 50 {
		if err := sim.Step(context.Background()); err != nil {
			t.Fatalf("step: %v", err)
		}
	}

	if transitions == 0 {
		t.Error("expected the simulator to write to the store")
	}
	if len(s.GetState().History) == 0 {
		t.Error("expected history entries")
	}
}

func TestSimulatorRunStopsWithContext(t *testing.T) {
	s := NewStore(Options{})
	sim := &Simulator{Store: s, Interval: time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := sim.Run(ctx); err != context.DeadlineExceeded {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
