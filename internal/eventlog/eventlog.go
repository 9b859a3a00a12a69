// Package eventlog keeps a bounded, most-recent-first list of human readable
// monitoring events.
package eventlog

import (
	"sync"
	"time"

	"github.com/hamed0406/pingwatch/internal/domain"
)

const DefaultCapacity = 50

type Log struct {
	mu       sync.RWMutex
	entries  []domain.LogEntry // newest first
	capacity int
	showAll  bool
	now      func() time.Time
}

type Option func(*Log)

// WithShowAll makes Filter(nil) return every entry instead of nothing.
func WithShowAll(v bool) Option { return func(l *Log) { l.showAll = v } }

func WithClock(now func() time.Time) Option { return func(l *Log) { l.now = now } }

func New(capacity int, opts ...Option) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l := &Log{
		entries:  make([]domain.LogEntry, 0, capacity),
		capacity: capacity,
		now:      time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Append prepends e and evicts the oldest entries beyond capacity.
func (l *Log) Append(e domain.LogEntry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}
	if e.Severity == "" {
		e.Severity = domain.SeverityInfo
	}
	if e.TargetID != nil {
		id := *e.TargetID
		e.TargetID = &id
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, domain.LogEntry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = e
	if len(l.entries) > l.capacity {
		clear(l.entries[l.capacity:])
		l.entries = l.entries[:l.capacity]
	}
}

// Info appends an untagged informational entry.
func (l *Log) Info(text string) {
	l.Append(domain.LogEntry{Text: text, Severity: domain.SeverityInfo})
}

// Filter returns entries tagged with *id in log order. With a nil id it
// returns all entries in show-all mode and nothing otherwise, since the log
// is only shown while a single target is selected.
func (l *Log) Filter(id *domain.TargetID) []domain.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if id == nil {
		if !l.showAll {
			return nil
		}
		out := make([]domain.LogEntry, len(l.entries))
		copy(out, l.entries)
		return out
	}
	var out []domain.LogEntry
	for _, e := range l.entries {
		if e.Tagged(*id) {
			out = append(out, e)
		}
	}
	return out
}

// Detach untags every entry of a removed target. The entries stay in the
// log until evicted but no longer match a filter, so a reused id starts
// with an empty history.
func (l *Log) Detach(id domain.TargetID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for i := range l.entries {
		if l.entries[i].Tagged(id) {
			l.entries[i].TargetID = nil
			n++
		}
	}
	return n
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *Log) Capacity() int { return l.capacity }
