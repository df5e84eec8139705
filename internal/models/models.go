// Package models holds the rows persisted by the journal store.
package models

// JournalEntry is one recorded command exchange. OccurredAt is in unix
// milliseconds.
type JournalEntry struct {
	ID         int64  `json:"id"`
	OccurredAt int64  `json:"occurred_at"`
	Command    string `json:"command"`
	User       string `json:"user,omitempty"`
	ClTRID     string `json:"cl_trid,omitempty"`
	SvTRID     string `json:"sv_trid,omitempty"`
	Code       int    `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	Reason     string `json:"reason,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Request    string `json:"request,omitempty"`
	Response   string `json:"response,omitempty"`
	Error      string `json:"error,omitempty"`
}

// JournalFilter narrows a journal listing. Zero values match everything.
type JournalFilter struct {
	Command string
	ClTRID  string
	Since   int64
	Limit   int
}
