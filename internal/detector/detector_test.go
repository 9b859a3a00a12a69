package detector

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/pingwatch/internal/domain"
)

func res(id string, alive bool) domain.ProbeResult {
	return domain.ProbeResult{TargetID: domain.TargetID(id), Alive: alive, CheckedAt: time.Now().UTC()}
}

func kinds(d *Detector, id string, seq ...bool) []domain.EventKind {
	out := make([]domain.EventKind, 0, len(seq))
	for _, alive := range seq {
		out = append(out, d.Observe(res(id, alive)).Kind())
	}
	return out
}

func TestObserve_UpDownScenario(t *testing.T) {
	d := New()
	got := kinds(d, "1", true, false, false, true)
	assert.Equal(t, []domain.EventKind{
		domain.EventInitial, domain.EventDown, domain.EventNoChange, domain.EventUp,
	}, got)
}

func TestObserve_InitialNeverTransitions(t *testing.T) {
	for _, alive := range []bool{true, false} {
		d := New()
		ev := d.Observe(res("x", alive))
		assert.Equal(t, domain.EventInitial, ev.Kind())
		assert.Nil(t, ev.PreviousAlive)
		got, ok := d.known("x")
		require.True(t, ok, "initial observation must still be recorded")
		assert.Equal(t, alive, got)
	}
}

// One DOWN per true->false edge, one UP per false->true edge, nothing else.
func TestObserve_EdgeCountsMatchSequence(t *testing.T) {
	seqs := [][]bool{
		{true, true, true},
		{false, false, true, true, false},
		{true, false, true, false, true, false},
		{false},
		{true, false, false, false, false, true, true},
	}
	for i, seq := range seqs {
		t.Run(fmt.Sprintf("seq%d", i), func(t *testing.T) {
			d := New()
			var wantDown, wantUp int
			for j := 1; j < len(seq); j++ {
				if seq[j-1] && !seq[j] {
					wantDown++
				}
				if !seq[j-1] && seq[j] {
					wantUp++
				}
			}
			var gotDown, gotUp int
			for _, k := range kinds(d, "t", seq...) {
				switch k {
				case domain.EventDown:
					gotDown++
				case domain.EventUp:
					gotUp++
				}
			}
			assert.Equal(t, wantDown, gotDown)
			assert.Equal(t, wantUp, gotUp)
		})
	}
}

func TestForget_ReaddedIDStartsFresh(t *testing.T) {
	d := New()
	d.Observe(res("1", true))
	d.Forget("1")
	_, ok := d.known("1")
	assert.False(t, ok)

	ev := d.Observe(res("1", false))
	assert.Equal(t, domain.EventInitial, ev.Kind(), "old state must not be replayed")
}

func TestRetain_DropsMissingTargets(t *testing.T) {
	d := New()
	d.Observe(res("1", true))
	d.Observe(res("2", true))
	d.Retain([]domain.Target{{ID: "2"}})
	assert.Equal(t, 1, d.Len())
	_, ok := d.known("1")
	assert.False(t, ok)
}

// Completion order, not issue order, decides the current state: a late
// result from an older probe overwrites a newer one that arrived first.
func TestObserve_ArrivalOrderWins(t *testing.T) {
	d := New()
	issued := time.Now().UTC()
	newer := domain.ProbeResult{TargetID: "1", Alive: false, CheckedAt: issued.Add(time.Second)}
	older := domain.ProbeResult{TargetID: "1", Alive: true, CheckedAt: issued}

	d.Observe(newer)
	ev := d.Observe(older)
	assert.Equal(t, domain.EventUp, ev.Kind())
	alive, _ := d.known("1")
	assert.True(t, alive)
}

func TestObserve_ConcurrentTargets(t *testing.T) {
	d := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("t%d", i)
			for j := 0; j < 20; j++ {
				d.Observe(res(id, j%2 == 0))
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, d.Len())
}

func TestObserve_FillsMissingTimestamp(t *testing.T) {
	d := New()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d.now = func() time.Time { return fixed }
	ev := d.Observe(domain.ProbeResult{TargetID: "1", Alive: true})
	assert.Equal(t, fixed, ev.Timestamp)
}
