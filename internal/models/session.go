package models

import "time"

// SessionKind is the pipeline type behind a session.
type SessionKind string

const (
	SessionDocument SessionKind = "document"
	SessionMarket   SessionKind = "market"
)

// Session is the persisted summary of one pipeline instance.
type Session struct {
	ID           string      `json:"id"`
	Kind         SessionKind `json:"kind"`
	Name         string      `json:"name,omitempty"`
	SourceID     string      `json:"source_id,omitempty"`
	Tickers      []string    `json:"tickers,omitempty"`
	PeriodMonths int         `json:"period_months,omitempty"`
	State        string      `json:"state"`
	Error        string      `json:"error,omitempty"`
	Pages        int         `json:"pages,omitempty"`
	Chunks       int         `json:"chunks"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// HistoryEntry is one answered question in a session.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Question  string    `json:"question"`
	Response  string    `json:"response"`
	// Context is the exact text the answer was generated from.
	Context   string    `json:"context"`
	Sources   []Source  `json:"sources"`
	Tickers   []string  `json:"tickers,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
