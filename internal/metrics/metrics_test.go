package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/pingwatch/internal/domain"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	lat := 5 * time.Millisecond
	m.ObserveProbe(domain.ProbeResult{Alive: true, Latency: &lat})
	m.ObserveProbe(domain.ProbeResult{Alive: false})
	m.ObserveProbe(domain.ProbeResult{Alive: false})
	m.ObserveEvent(domain.EventDown)
	m.ChannelFailed("email")
	m.ProbeSkipped()
	m.SetTargets(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.probes.WithLabelValues("alive")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.probes.WithLabelValues("down")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("DOWN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.channelFailures.WithLabelValues("email")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skipped))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.targets))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveProbe(domain.ProbeResult{})
	m.ObserveEvent(domain.EventUp)
	m.ChannelFailed("sound")
	m.ProbeSkipped()
	m.SetTargets(1)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SetTargets(2)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "pingwatch_targets 2"))
}
