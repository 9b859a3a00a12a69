package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit_AllowsThenBlocks(t *testing.T) {
	mock := clock.NewMock()
	h := RateLimitWithClock(60, 2, mock)(okHandler())
	req := httptest.NewRequest("POST", "/api/smtp/test", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("want 200 got %d", rr.Code)
		}
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != 429 {
		t.Fatalf("want 429 got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "1" {
		t.Fatalf("want Retry-After 1, got %q", rr.Header().Get("Retry-After"))
	}

	mock.Add(1100 * time.Millisecond)
	rr2 := httptest.NewRecorder()
	h.ServeHTTP(rr2, req)
	if rr2.Code != 200 {
		t.Fatalf("want 200 after refill got %d", rr2.Code)
	}
}

func TestRateLimit_PerClient(t *testing.T) {
	h := RateLimitWithClock(60, 1, clock.NewMock())(okHandler())

	a := httptest.NewRequest("POST", "/", nil)
	a.RemoteAddr = "1.2.3.4:1"
	b := httptest.NewRequest("POST", "/", nil)
	b.RemoteAddr = "5.6.7.8:1"
	b.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")

	for _, req := range []*http.Request{a, b} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("first request per client must pass, got %d", rr.Code)
		}
	}
	if got := clientIP(b); got != "9.9.9.9" {
		t.Fatalf("clientIP = %q", got)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(0, 0)(okHandler())
	for i := 0; i < 10; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
		if rr.Code != 200 {
			t.Fatalf("disabled limiter blocked request %d", i)
		}
	}
}

func TestLimiter_SweepsIdleBuckets(t *testing.T) {
	mock := clock.NewMock()
	l := newLimiter(1, 1, time.Minute, mock)
	l.allow("a")
	l.allow("b")
	mock.Add(2 * time.Minute)
	l.allow("c")
	if len(l.m) != 1 {
		t.Fatalf("expected only the fresh bucket, got %d", len(l.m))
	}
}
