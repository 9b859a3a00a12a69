package stream

import (
	"math"
	"strconv"
	"time"

	"github.com/hamed0406/pingwatch/internal/domain"
)

const (
	barScaleMS = 200.0
	slowMS     = 100.0

	ColorOK    = "accent"
	ColorSlow  = "#ffb300"
	ColorError = "error"
)

// ResultView is one probe result shaped for a status card: indicator,
// latency readout and a history bar.
type ResultView struct {
	TargetID   domain.TargetID  `json:"target_id"`
	Alive      bool             `json:"alive"`
	LatencyMS  *float64         `json:"latency_ms,omitempty"`
	Label      string           `json:"label"`
	BarPercent float64          `json:"bar_percent"`
	BarColor   string           `json:"bar_color"`
	Kind       domain.EventKind `json:"kind"`
	CheckedAt  time.Time        `json:"checked_at"`
}

// NewResultView maps a result onto the 0-200ms bar scale. A down target
// shows TIMEOUT with a full error-coloured bar.
func NewResultView(r domain.ProbeResult, ev domain.StateEvent) ResultView {
	v := ResultView{
		TargetID:  r.TargetID,
		Alive:     r.Alive,
		Kind:      ev.Kind(),
		CheckedAt: r.CheckedAt,
	}
	if !r.Alive {
		v.Label = "TIMEOUT"
		v.BarPercent = 100
		v.BarColor = ColorError
		return v
	}
	ms, ok := r.LatencyMS()
	if !ok {
		v.Label = "-- ms"
		v.BarColor = ColorOK
		return v
	}
	v.LatencyMS = &ms
	v.Label = formatMS(ms)
	v.BarPercent = math.Min(ms/barScaleMS*100, 100)
	v.BarColor = ColorOK
	if ms > slowMS {
		v.BarColor = ColorSlow
	}
	return v
}

func formatMS(ms float64) string {
	return strconv.FormatInt(int64(math.Round(ms)), 10) + " ms"
}
