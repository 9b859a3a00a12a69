package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSlack_OK(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		got = payload["text"]
		w.WriteHeader(200)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL)
	if s == nil {
		t.Fatal("expected slack client")
	}
	err := s.Send(context.Background(), "Title", "Hello")
	if err != nil {
		t.Fatalf("send err: %v", err)
	}
	if !strings.HasPrefix(got, "*Title*") {
		t.Fatalf("payload not as expected: %q", got)
	}
}

func TestSlack_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL)
	err := s.Send(context.Background(), "X", "Y")
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestSlack_DisabledWithoutWebhook(t *testing.T) {
	s := NewSlack("")
	if s.Enabled() {
		t.Fatal("nil slack must report disabled")
	}
	if err := s.Send(context.Background(), "X", "Y"); err == nil {
		t.Fatal("expected error from disabled slack")
	}
}

type fakeNotifier struct {
	calls int
	err   error
}

func (f *fakeNotifier) Send(context.Context, string, string) error {
	f.calls++
	return f.err
}

func TestMulti_SendsToAllAndCombinesErrors(t *testing.T) {
	a := &fakeNotifier{err: errors.New("a broke")}
	b := &fakeNotifier{}
	c := &fakeNotifier{err: errors.New("c broke")}

	err := Multi{a, nil, b, c}.Send(context.Background(), "t", "x")
	if a.calls != 1 || b.calls != 1 || c.calls != 1 {
		t.Fatalf("calls = %d %d %d, want 1 each", a.calls, b.calls, c.calls)
	}
	if err == nil || !strings.Contains(err.Error(), "a broke") || !strings.Contains(err.Error(), "c broke") {
		t.Fatalf("combined error missing parts: %v", err)
	}
}

func TestDesktop_UsesNotifyFunc(t *testing.T) {
	var title, msg string
	d := &Desktop{notify: func(ti, m, _ string) error {
		title, msg = ti, m
		return nil
	}}
	if err := d.Send(context.Background(), "Host Down", "router is unreachable"); err != nil {
		t.Fatal(err)
	}
	if title != "Host Down" || msg != "router is unreachable" {
		t.Fatalf("got %q %q", title, msg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Send(ctx, "a", "b"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestTone_Play(t *testing.T) {
	var freq float64
	var dur int
	tone := NewTone()
	tone.beep = func(f float64, d int) error {
		freq, dur = f, d
		return nil
	}
	if err := tone.Play(); err != nil {
		t.Fatal(err)
	}
	if freq != 880 || dur != 150 {
		t.Fatalf("got %v Hz for %d ms", freq, dur)
	}
}

func TestParsePermission(t *testing.T) {
	cases := map[string]Permission{
		"granted": PermissionGranted,
		"denied":  PermissionDenied,
		"default": PermissionDefault,
		"":        PermissionDefault,
		"bogus":   PermissionDefault,
	}
	for in, want := range cases {
		if got := ParsePermission(in); got != want {
			t.Errorf("ParsePermission(%q) = %q, want %q", in, got, want)
		}
	}
}
