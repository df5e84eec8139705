// Package events defines the command event passed through the plugin
// pipeline after every EPP exchange.
package events

import "time"

// CommandEvent describes one request/response exchange on a session.
type CommandEvent struct {
	Command    string // e.g. "domain:check", "login", "poll"
	User       string
	Request    string
	Response   string
	Code       int
	Message    string
	Reason     string
	ClTRID     string
	SvTRID     string
	StartedAt  time.Time
	Duration   time.Duration
	Err        error
	Attributes map[string]any
	Drop       bool

	// JournalID is set by the store when the event is persisted.
	JournalID int64
}

// Failed reports whether the exchange ended in a transport or protocol
// error rather than a registry result.
func (e *CommandEvent) Failed() bool {
	return e.Err != nil
}
