package workspace

import "time"

// KeyValue is a header, query parameter or environment variable.
type KeyValue struct {
	Key     string `json:"key" yaml:"key" toml:"key"`
	Value   string `json:"value" yaml:"value" toml:"value"`
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
}

// Request is a saved HTTP request.
type Request struct {
	ID      string     `json:"id" yaml:"id" toml:"id"`
	Name    string     `json:"name" yaml:"name" toml:"name"`
	Method  string     `json:"method" yaml:"method" toml:"method"`
	URL     string     `json:"url" yaml:"url" toml:"url"`
	Headers []KeyValue `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`
	Params  []KeyValue `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
	Body    string     `json:"body,omitempty" yaml:"body,omitempty" toml:"body,omitempty"`
	Tags    []string   `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"`
}

// Collection groups requests.
type Collection struct {
	ID          string    `json:"id" yaml:"id" toml:"id"`
	Name        string    `json:"name" yaml:"name" toml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Requests    []Request `json:"requests" yaml:"requests" toml:"requests"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"`
}

// Project groups collections.
type Project struct {
	ID          string       `json:"id" yaml:"id" toml:"id"`
	Name        string       `json:"name" yaml:"name" toml:"name"`
	Collections []Collection `json:"collections" yaml:"collections" toml:"collections"`
}

// Environment is a named set of variables.
type Environment struct {
	ID        string     `json:"id" yaml:"id" toml:"id"`
	Name      string     `json:"name" yaml:"name" toml:"name"`
	IsDefault bool       `json:"isDefault" yaml:"isDefault" toml:"isDefault"`
	Variables []KeyValue `json:"variables,omitempty" yaml:"variables,omitempty" toml:"variables,omitempty"`
}

// HistoryEntry records one executed request.
type HistoryEntry struct {
	ID         string        `json:"id" yaml:"id" toml:"id"`
	RequestID  string        `json:"requestId,omitempty" yaml:"requestId,omitempty" toml:"requestId,omitempty"`
	Method     string        `json:"method" yaml:"method" toml:"method"`
	URL        string        `json:"url" yaml:"url" toml:"url"`
	Status     int           `json:"status" yaml:"status" toml:"status"`
	Duration   time.Duration `json:"duration" yaml:"duration" toml:"duration"`
	ExecutedAt time.Time     `json:"executedAt" yaml:"executedAt" toml:"executedAt"`
}
