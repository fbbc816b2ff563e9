package teabind

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vango-dev/vstore/pkg/store"
)

type counter struct {
	Count int
	Label string
}

// run executes cmd with a timeout.
func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("command did not return")
		return nil
	}
}

func TestBindingCoalescesChanges(t *testing.T) {
	s := store.New(counter{})
	b := Bind(s.External())
	defer b.Close()

	s.SetState(store.Fields[counter]{"Count": 1})
	s.SetState(store.Fields[counter]{"Count": 2})

	msg, ok := run(t, b.Wait()).(ChangedMsg[counter])
	if !ok {
		t.Fatalf("expected ChangedMsg, got %T", msg)
	}
	if msg.State.Count != 2 {
		t.Errorf("expected the latest state, got %+v", msg.State)
	}

	select {
	case <-b.changed:
		t.Error("two changes before Wait should produce one message")
	default:
	}
}

func TestBindingClose(t *testing.T) {
	s := store.New(counter{})
	b := Bind(s.External())

	if s.ListenerCount() != 1 {
		t.Fatalf("expected 1 listener, got %d", s.ListenerCount())
	}

	b.Close()
	b.Close()

	if s.ListenerCount() != 0 {
		t.Errorf("expected Close to unsubscribe, got %d listeners", s.ListenerCount())
	}
	if msg := run(t, b.Wait()); msg != nil {
		t.Errorf("expected nil after Close, got %v", msg)
	}
	s.SetState(store.Fields[counter]{"Count": 1})
}

func TestBindingSnapshot(t *testing.T) {
	s := store.New(counter{Count: 7})
	b := Bind(s.External())
	defer b.Close()

	if b.Snapshot().Count != 7 {
		t.Errorf("expected 7, got %d", b.Snapshot().Count)
	}
}

func TestSelectorBinding(t *testing.T) {
	s := store.New(counter{Count: 1})
	b := BindSelector(s, func(c counter) int { return c.Count })
	defer b.Close()

	s.SetState(store.Fields[counter]{"Label": "ignored"})
	select {
	case <-b.signal:
		t.Fatal("unrelated writes must not signal")
	default:
	}

	s.SetState(store.Fields[counter]{"Count": 2})
	s.SetState(store.Fields[counter]{"Count": 3})

	msg, ok := run(t, b.Wait()).(SliceMsg[int])
	if !ok {
		t.Fatalf("expected SliceMsg, got %T", msg)
	}
	if msg.Next != 3 || msg.Prev != 1 {
		t.Errorf("expected 1 -> 3, got %d -> %d", msg.Prev, msg.Next)
	}

	s.SetState(store.Fields[counter]{"Count": 4})
	msg = run(t, b.Wait()).(SliceMsg[int])
	if msg.Next != 4 || msg.Prev != 3 {
		t.Errorf("expected 3 -> 4, got %d -> %d", msg.Prev, msg.Next)
	}
	if b.Current() != 4 {
		t.Errorf("expected current 4, got %d", b.Current())
	}
}

func TestSelectorBindingClose(t *testing.T) {
	s := store.New(counter{})
	b := BindSelector(s, func(c counter) string { return c.Label })

	b.Close()

	if s.SubscriptionCount() != 0 {
		t.Errorf("expected Close to unsubscribe, got %d", s.SubscriptionCount())
	}
	if msg := run(t, b.Wait()); msg != nil {
		t.Errorf("expected nil after Close, got %v", msg)
	}
}

func TestBindingCloseDropsBufferedChange(t *testing.T) {
	s := store.New(counter{})
	b := Bind(s.External())

	s.SetState(store.Fields[counter]{"Count": 1})
	b.Close()

	if msg := run(t, b.Wait()); msg != nil {
		t.Errorf("expected nil after Close, got %v", msg)
	}
}

func TestSelectorBindingCloseDropsBufferedChange(t *testing.T) {
	s := store.New(counter{})
	b := BindSelector(s, func(c counter) int { return c.Count })

	s.SetState(store.Fields[counter]{"Count": 1})
	b.Close()

	if msg := run(t, b.Wait()); msg != nil {
		t.Errorf("expected nil after Close, got %v", msg)
	}
}
