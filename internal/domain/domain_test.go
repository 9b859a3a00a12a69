package domain

import (
	"testing"
	"time"
)

func boolp(b bool) *bool { return &b }

func TestStateEvent_Kind(t *testing.T) {
	cases := []struct {
		prev *bool
		cur  bool
		want EventKind
	}{
		{nil, true, EventInitial},
		{nil, false, EventInitial},
		{boolp(true), false, EventDown},
		{boolp(false), true, EventUp},
		{boolp(true), true, EventNoChange},
		{boolp(false), false, EventNoChange},
	}
	for _, c := range cases {
		ev := StateEvent{TargetID: "1", PreviousAlive: c.prev, CurrentAlive: c.cur}
		if got := ev.Kind(); got != c.want {
			t.Fatalf("Kind(prev=%v, cur=%v)=%s want %s", c.prev, c.cur, got, c.want)
		}
		if ev.IsTransition() != (c.want == EventDown || c.want == EventUp) {
			t.Fatalf("IsTransition mismatch for %s", c.want)
		}
	}
}

func TestProbeResult_LatencyMS(t *testing.T) {
	if _, ok := (ProbeResult{}).LatencyMS(); ok {
		t.Fatalf("expected no latency on empty result")
	}
	d := 1500 * time.Microsecond
	ms, ok := ProbeResult{Alive: true, Latency: &d}.LatencyMS()
	if !ok || ms != 1.5 {
		t.Fatalf("want 1.5ms, got %v ok=%v", ms, ok)
	}
}

func TestLogEntry_Tagged(t *testing.T) {
	id := TargetID("A")
	e := LogEntry{Text: "x", TargetID: &id}
	if !e.Tagged("A") || e.Tagged("B") {
		t.Fatalf("tag matching wrong: %+v", e)
	}
	if (LogEntry{Text: "info"}).Tagged("A") {
		t.Fatalf("untagged entry must not match")
	}
}

func TestSMTPConfig_Configured(t *testing.T) {
	if (SMTPConfig{Host: "smtp.example.com"}).Configured() {
		t.Fatalf("host alone is not enough")
	}
	c := SMTPConfig{Host: "smtp.example.com", Port: 587, From: "a@example.com", To: "b@example.com"}
	if !c.Configured() {
		t.Fatalf("expected configured: %+v", c)
	}
}
