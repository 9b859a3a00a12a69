package domain

import "time"

type EventKind string

const (
	EventInitial  EventKind = "INITIAL"
	EventDown     EventKind = "DOWN"
	EventUp       EventKind = "UP"
	EventNoChange EventKind = "NOCHANGE"
)

// StateEvent describes how a target's alive state moved between two
// consecutive observations.
type StateEvent struct {
	TargetID      TargetID  `json:"target_id"`
	PreviousAlive *bool     `json:"previous_alive,omitempty"`
	CurrentAlive  bool      `json:"current_alive"`
	Timestamp     time.Time `json:"timestamp"`
}

// Kind derives the transition kind from the previous and current state.
func (e StateEvent) Kind() EventKind {
	switch {
	case e.PreviousAlive == nil:
		return EventInitial
	case *e.PreviousAlive && !e.CurrentAlive:
		return EventDown
	case !*e.PreviousAlive && e.CurrentAlive:
		return EventUp
	default:
		return EventNoChange
	}
}

// IsTransition is true for DOWN and UP.
func (e StateEvent) IsTransition() bool {
	k := e.Kind()
	return k == EventDown || k == EventUp
}

// AlertRecord is what the email capability receives for a DOWN transition.
type AlertRecord struct {
	TargetName string
	IP         string
	Timestamp  time.Time
}

type Severity string

const (
	SeverityUp   Severity = "up"
	SeverityDown Severity = "down"
	SeverityInfo Severity = "info"
)

// LogEntry is one human readable line in the event log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	TargetID  *TargetID `json:"target_id,omitempty"`
	Severity  Severity  `json:"severity"`
}

// Tagged reports whether the entry belongs to target id.
func (e LogEntry) Tagged(id TargetID) bool {
	return e.TargetID != nil && *e.TargetID == id
}
