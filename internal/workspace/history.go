package workspace

import (
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/vstore/pkg/store"
)

// MaxHistory bounds the number of history entries kept.
const MaxHistory = 100

// HistorySlice holds executed requests, newest first.
type HistorySlice struct {
	History []HistoryEntry `json:"history"`

	RecordHistory func(entry HistoryEntry) `json:"-"`
	ClearHistory  func()                   `json:"-"`
}

func newHistorySlice(set store.SetFunc[State]) HistorySlice {
	return HistorySlice{
		History: []HistoryEntry{},

		RecordHistory: func(entry HistoryEntry) {
			if entry.ID == "" {
				entry.ID = uuid.NewString()
			}
			if entry.ExecutedAt.IsZero() {
				entry.ExecutedAt = time.Now()
			}
			set(store.Named[State]("recordHistory", store.Mutate[State](func(s *State) {
				s.History = append([]HistoryEntry{entry}, s.History...)
				if len(s.History) > MaxHistory {
					s.History = s.History[:MaxHistory]
				}
			})))
		},

		ClearHistory: func() {
			set(store.Named[State]("clearHistory", store.Mutate[State](func(s *State) {
				s.History = []HistoryEntry{}
			})))
		},
	}
}
