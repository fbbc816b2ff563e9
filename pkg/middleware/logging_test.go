package middleware

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/vstore/pkg/store"
)

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := store.Create(Logging[counterState](logger, slog.LevelInfo)(initial), store.WithName("logged"))
	s.SetState(store.Named[counterState]("bump", store.Fields[counterState]{"Count": 1}))

	out := buf.String()
	for _, want := range []string{"store state set", "store=logged", "action=bump", "kind=fields", "mode=merge"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestLogging_DisabledLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	s := store.Create(Logging[counterState](logger, slog.LevelDebug)(initial))
	s.SetState(store.Fields[counterState]{"Count": 3})

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
	if s.GetState().Count != 3 {
		t.Errorf("write should still apply, got %d", s.GetState().Count)
	}
}
