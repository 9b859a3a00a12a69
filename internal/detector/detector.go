// Package detector turns a stream of probe results into state transitions.
//
// Each target moves UNKNOWN -> (ALIVE | DOWN) on its first observation and
// then flips between ALIVE and DOWN. Results are applied in the order
// Observe is called (arrival order); completion order across overlapping
// probes of one target is not reordered by timestamp.
package detector

import (
	"sync"
	"time"

	"github.com/hamed0406/pingwatch/internal/domain"
)

type Detector struct {
	mu   sync.Mutex
	last map[domain.TargetID]bool
	now  func() time.Time
}

func New() *Detector {
	return &Detector{
		last: make(map[domain.TargetID]bool),
		now:  time.Now,
	}
}

// Observe records r and returns the event it produced. The record is always
// overwritten with the observed state, including on the first observation.
func (d *Detector) Observe(r domain.ProbeResult) domain.StateEvent {
	ts := r.CheckedAt
	if ts.IsZero() {
		ts = d.now().UTC()
	}

	d.mu.Lock()
	prev, seen := d.last[r.TargetID]
	d.last[r.TargetID] = r.Alive
	d.mu.Unlock()

	ev := domain.StateEvent{
		TargetID:     r.TargetID,
		CurrentAlive: r.Alive,
		Timestamp:    ts,
	}
	if seen {
		ev.PreviousAlive = &prev
	}
	return ev
}

// known returns the last recorded state for id.
func (d *Detector) known(id domain.TargetID) (alive, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	alive, ok = d.last[id]
	return alive, ok
}

// Forget drops the recorded state of the given targets so that their next
// observation is treated as initial.
func (d *Detector) Forget(ids ...domain.TargetID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		delete(d.last, id)
	}
}

// Retain drops every recorded state whose id is not in keep.
func (d *Detector) Retain(keep []domain.Target) {
	ids := make(map[domain.TargetID]struct{}, len(keep))
	for _, t := range keep {
		ids[t.ID] = struct{}{}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for id := range d.last {
		if _, ok := ids[id]; !ok {
			delete(d.last, id)
		}
	}
}

func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = make(map[domain.TargetID]bool)
}

func (d *Detector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.last)
}
