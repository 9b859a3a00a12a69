package registry

import (
	"sync"

	"github.com/hamed0406/pingwatch/internal/domain"
)

// Registry holds the current ordered set of monitored targets. The only
// mutation is ReplaceAll; the configuration surface always submits the
// complete desired set.
type Registry struct {
	mu      sync.RWMutex
	targets []domain.Target
	index   map[domain.TargetID]int
}

func New() *Registry {
	return &Registry{index: make(map[domain.TargetID]int)}
}

// ReplaceAll swaps the full target set and returns the ids that were present
// before but are not any more. Later duplicates of an id are dropped.
func (r *Registry) ReplaceAll(targets []domain.Target) (removed []domain.TargetID) {
	next := make([]domain.Target, 0, len(targets))
	index := make(map[domain.TargetID]int, len(targets))
	for _, t := range targets {
		if _, dup := index[t.ID]; dup {
			continue
		}
		index[t.ID] = len(next)
		next = append(next, t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, old := range r.targets {
		if _, ok := index[old.ID]; !ok {
			removed = append(removed, old.ID)
		}
	}
	r.targets = next
	r.index = index
	return removed
}

// List returns a copy of the targets in insertion order.
func (r *Registry) List() []domain.Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Target, len(r.targets))
	copy(out, r.targets)
	return out
}

func (r *Registry) Get(id domain.TargetID) (domain.Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return domain.Target{}, false
	}
	return r.targets[i], true
}
