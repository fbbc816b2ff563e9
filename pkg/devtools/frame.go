package devtools

import (
	"encoding/json"
	"time"
)

// FrameType identifies a devtools frame.
type FrameType string

const (
	// FrameInit carries the state of a store when a client connects or
	// when the store is attached.
	FrameInit FrameType = "init"

	// FrameState carries the state after a transition.
	FrameState FrameType = "state"

	// FrameDetach announces that a store was detached.
	FrameDetach FrameType = "detach"
)

// Frame is sent to websocket clients.
type Frame struct {
	Type   FrameType       `json:"type"`
	Store  string          `json:"store"`
	Seq    uint64          `json:"seq"`
	Action string          `json:"action,omitempty"`
	State  json.RawMessage `json:"state,omitempty"`
	Error  string          `json:"error,omitempty"`
	Time   time.Time       `json:"time"`
}

// StoreInfo describes an attached store.
type StoreInfo struct {
	Name       string `json:"name"`
	Seq        uint64 `json:"seq"`
	LastAction string `json:"lastAction,omitempty"`
}
