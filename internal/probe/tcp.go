package probe

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"
)

// TCPChecker treats a completed TCP handshake as "alive". It is the fallback
// for hosts without a usable ping binary.
type TCPChecker struct {
	Port   int
	Dialer *net.Dialer
}

func NewTCPChecker(port int) *TCPChecker {
	if port <= 0 {
		port = 80
	}
	return &TCPChecker{Port: port, Dialer: &net.Dialer{}}
}

func (c *TCPChecker) Check(ctx context.Context, addr string) CheckResult {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return CheckResult{Output: "invalid address"}
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(c.Port))
	}

	start := time.Now()
	conn, err := c.Dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		// a refused connection still proves the host answered
		if isRefused(err) {
			return CheckResult{Alive: true, Latency: time.Since(start), HasLatency: true, Output: "connection refused"}
		}
		return CheckResult{Output: err.Error()}
	}
	lat := time.Since(start)
	_ = conn.Close()
	return CheckResult{Alive: true, Latency: lat, HasLatency: true, Output: "connected " + addr}
}

func isRefused(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}
