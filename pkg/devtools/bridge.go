package devtools

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the structured logger. The default discards all records.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithAllowedOrigins restricts which origins may open the websocket.
// With no origins every origin is allowed.
func WithAllowedOrigins(origins ...string) Option {
	return func(b *Bridge) {
		b.origins = origins
	}
}

// WithWriteTimeout bounds each websocket write.
func WithWriteTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.writeTimeout = d
		}
	}
}

// source is one attached store as the bridge sees it.
type source struct {
	name       string
	snapshot   func() (json.RawMessage, error)
	seq        uint64
	lastAction string
	detach     func()
}

// client is one websocket connection. writeMu serializes writes, which
// gorilla/websocket requires.
type client struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Bridge fans store transitions out to websocket clients.
type Bridge struct {
	mu      sync.RWMutex
	sources map[string]*source
	clients map[*client]struct{}

	// seq orders frames across all stores.
	seq atomic.Uint64

	upgrader     websocket.Upgrader
	origins      []string
	writeTimeout time.Duration
	logger       *slog.Logger
}

// NewBridge creates a bridge with no attached stores.
func NewBridge(opts ...Option) *Bridge {
	b := &Bridge{
		sources:      make(map[string]*source),
		clients:      make(map[*client]struct{}),
		writeTimeout: 5 * time.Second,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     b.checkOrigin,
	}
	return b
}

// checkOrigin allows every origin unless WithAllowedOrigins was given.
func (b *Bridge) checkOrigin(r *http.Request) bool {
	if len(b.origins) == 0 {
		return true
	}
	return slices.Contains(b.origins, r.Header.Get("Origin"))
}

// register adds a named source and, when announce is set, sends its init
// frame to connected clients.
func (b *Bridge) register(src *source, announce bool) error {
	b.mu.Lock()
	if _, exists := b.sources[src.name]; exists {
		b.mu.Unlock()
		return fmt.Errorf("devtools: store %q is already attached", src.name)
	}
	b.sources[src.name] = src
	b.mu.Unlock()

	b.logger.Debug("devtools store attached", "store", src.name)
	if announce {
		b.publish(src.name, FrameInit, "")
	}
	return nil
}

// Detach removes the named store and announces it to connected clients.
// Detaching an unknown name does nothing.
func (b *Bridge) Detach(name string) {
	b.mu.Lock()
	src, ok := b.sources[name]
	if ok {
		delete(b.sources, name)
	}
	b.mu.Unlock()
	if !ok {
		return
	}

	if src.detach != nil {
		src.detach()
	}
	b.logger.Debug("devtools store detached", "store", name)
	b.broadcast(Frame{
		Type:  FrameDetach,
		Store: name,
		Seq:   b.seq.Add(1),
		Time:  time.Now(),
	})
}

// publish snapshots a store and broadcasts the frame.
func (b *Bridge) publish(name string, typ FrameType, action string) {
	b.mu.Lock()
	src, ok := b.sources[name]
	if !ok {
		b.mu.Unlock()
		return
	}
	seq := b.seq.Add(1)
	src.seq = seq
	if typ == FrameState {
		src.lastAction = action
	}
	snapshot := src.snapshot
	b.mu.Unlock()

	b.broadcast(b.frame(name, typ, seq, action, snapshot))
}

// frame builds a frame, reporting encoding failures in Error.
func (b *Bridge) frame(name string, typ FrameType, seq uint64, action string, snapshot func() (json.RawMessage, error)) Frame {
	f := Frame{
		Type:   typ,
		Store:  name,
		Seq:    seq,
		Action: action,
		Time:   time.Now(),
	}
	state, err := snapshot()
	if err != nil {
		b.logger.Warn("devtools snapshot failed", "store", name, "error", err)
		f.Error = err.Error()
		return f
	}
	f.State = state
	return f
}

// broadcast sends a frame to all clients, dropping those that fail.
func (b *Bridge) broadcast(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		b.logger.Warn("devtools frame encoding failed", "store", f.Store, "error", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		if err := b.write(c, data); err != nil {
			b.logger.Debug("devtools client dropped", "client", c.id, "error", err)
			b.removeClient(c)
		}
	}
}

// write sends one message to a client.
func (b *Bridge) write(c *client, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(b.writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// HandleWebSocket upgrades the connection, sends one init frame per store
// and keeps the connection until the client disconnects.
func (b *Bridge) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Debug("devtools upgrade failed", "error", err)
		return
	}

	c := &client{id: uuid.NewString(), conn: conn}

	// Hold the client's write lock while registering so that no broadcast
	// overtakes the init frames.
	c.writeMu.Lock()
	b.mu.Lock()
	b.clients[c] = struct{}{}
	inits := make([]Frame, 0, len(b.sources))
	for _, name := range b.sortedNamesLocked() {
		src := b.sources[name]
		inits = append(inits, b.frame(name, FrameInit, src.seq, src.lastAction, src.snapshot))
	}
	b.mu.Unlock()

	var initErr error
	for _, f := range inits {
		data, err := json.Marshal(f)
		if err != nil {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(b.writeTimeout))
		if initErr = conn.WriteMessage(websocket.TextMessage, data); initErr != nil {
			break
		}
	}
	c.writeMu.Unlock()

	b.logger.Info("devtools client connected", "client", c.id, "stores", len(inits))

	if initErr == nil {
		// Keep connection alive until client disconnects
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}

	b.removeClient(c)
	b.logger.Info("devtools client disconnected", "client", c.id)
}

// removeClient forgets and closes a client.
func (b *Bridge) removeClient(c *client) {
	b.mu.Lock()
	_, ok := b.clients[c]
	delete(b.clients, c)
	b.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

// Stores returns the attached stores sorted by name.
func (b *Bridge) Stores() []StoreInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	infos := make([]StoreInfo, 0, len(b.sources))
	for _, name := range b.sortedNamesLocked() {
		src := b.sources[name]
		infos = append(infos, StoreInfo{Name: name, Seq: src.seq, LastAction: src.lastAction})
	}
	return infos
}

// Snapshot returns the JSON state of the named store.
func (b *Bridge) Snapshot(name string) (json.RawMessage, bool, error) {
	b.mu.RLock()
	src, ok := b.sources[name]
	b.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	state, err := src.snapshot()
	return state, true, err
}

func (b *Bridge) sortedNamesLocked() []string {
	names := make([]string, 0, len(b.sources))
	for name := range b.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClientCount returns the number of connected clients.
func (b *Bridge) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close detaches every store and closes all client connections.
func (b *Bridge) Close() {
	b.mu.Lock()
	sources := make([]*source, 0, len(b.sources))
	for _, src := range b.sources {
		sources = append(sources, src)
	}
	b.sources = make(map[string]*source)
	clients := b.clients
	b.clients = make(map[*client]struct{})
	b.mu.Unlock()

	for _, src := range sources {
		if src.detach != nil {
			src.detach()
		}
	}
	for c := range clients {
		c.conn.Close()
	}
}

func closeDeadline() time.Time {
	return time.Now().Add(time.Second)
}
