package tui

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/vango-dev/vstore/pkg/devtools"
	"github.com/vango-dev/vstore/pkg/store"
)

// Entry is one remote store as last seen on the stream.
type Entry struct {
	Name      string
	Seq       uint64
	Action    string
	State     json.RawMessage
	Error     string
	Updates   int
	UpdatedAt time.Time
}

// View is the state of the viewer's local store.
type View struct {
	Entries   []Entry
	Connected bool
	Err       string
	Frames    int
}

// Entry returns the entry for name.
func (v View) Entry(name string) (Entry, bool) {
	for _, e := range v.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// NewViewStore creates the viewer's local store.
func NewViewStore(opts ...store.Option) *store.Store[View] {
	return store.Create(store.Draft(func(store.SetFunc[View], store.GetFunc[View], *store.Store[View]) View {
		return View{}
	}), append([]store.Option{store.WithName("tui")}, opts...)...)
}

// ApplyFrame folds a devtools frame into the view.
func ApplyFrame(api *store.Store[View], f devtools.Frame) {
	api.SetState(store.Named[View]("frame/"+string(f.Type), store.Mutate[View](func(v *View) {
		v.Frames++
		i := slices.IndexFunc(v.Entries, func(e Entry) bool { return e.Name == f.Store })

		if f.Type == devtools.FrameDetach {
			if i >= 0 {
				v.Entries = slices.Delete(v.Entries, i, i+1)
			}
			return
		}

		if i < 0 {
			v.Entries = append(v.Entries, Entry{Name: f.Store})
			slices.SortFunc(v.Entries, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
			i = slices.IndexFunc(v.Entries, func(e Entry) bool { return e.Name == f.Store })
		}
		e := &v.Entries[i]
		e.Seq = f.Seq
		e.State = f.State
		e.Error = f.Error
		e.UpdatedAt = f.Time
		if f.Type == devtools.FrameState {
			e.Action = f.Action
			e.Updates++
		}
	})))
}

func setConnected(api *store.Store[View], connected bool, err error) {
	api.SetState(store.Named[View]("connection", store.Mutate[View](func(v *View) {
		v.Connected = connected
		v.Err = ""
		if err != nil {
			v.Err = err.Error()
		}
		if !connected {
			v.Entries = nil
		}
	})))
}

// Feed copies a devtools stream into a view store, reconnecting after
// failures.
type Feed struct {
	URL    string
	Store  *store.Store[View]
	Retry  time.Duration
	Logger *slog.Logger
}

// Run streams until ctx is done.
func (f *Feed) Run(ctx context.Context) error {
	retry := f.Retry
	if retry <= 0 {
		retry = 2 * time.Second
	}
	logger := f.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	for {
		err := f.stream(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Debug("devtools stream ended", "url", f.URL, "error", err)
		setConnected(f.Store, false, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry):
		}
	}
}

// stream reads frames from one connection until it fails.
func (f *Feed) stream(ctx context.Context) error {
	conn, err := devtools.Dial(ctx, f.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	setConnected(f.Store, true, nil)
	for {
		frame, err := conn.Next()
		if err != nil {
			return err
		}
		ApplyFrame(f.Store, frame)
	}
}
