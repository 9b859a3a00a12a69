package probe

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ExecChecker shells out to the system ping binary for a single echo
// request. ICMP itself is left to the OS.
type ExecChecker struct {
	Binary  string // defaults to "ping"
	Timeout time.Duration
	Logger  *zap.Logger
	GOOS    string
}

func NewExecChecker(timeout time.Duration, logger *zap.Logger) *ExecChecker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecChecker{Binary: "ping", Timeout: timeout, Logger: logger, GOOS: runtime.GOOS}
}

// ErrSpawn marks a failure to start the ping process at all.
var ErrSpawn = errors.New("cannot start ping")

func (c *ExecChecker) Check(ctx context.Context, addr string) CheckResult {
	addr = strings.TrimSpace(addr)
	if addr == "" || strings.HasPrefix(addr, "-") || strings.ContainsAny(addr, " \t\n") {
		return CheckResult{Output: "invalid address"}
	}

	cmd := exec.CommandContext(ctx, c.Binary, c.args(addr)...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Start(); err != nil {
		c.Logger.Warn("probe_spawn_failed",
			zap.String("binary", c.Binary),
			zap.String("addr", addr),
			zap.Error(err),
		)
		return CheckResult{Output: ErrSpawn.Error() + ": " + err.Error()}
	}
	err := cmd.Wait()
	out := strings.TrimSpace(buf.String())
	if err != nil {
		// non-zero exit: no reply, unknown host or killed by the deadline
		return CheckResult{Output: out}
	}
	if c.GOOS == "windows" && !strings.Contains(out, "TTL=") {
		// windows exits 0 on "Destination host unreachable"
		return CheckResult{Output: out}
	}

	res := CheckResult{Alive: true, Output: out}
	if lat, ok := parseLatency(out); ok {
		res.Latency = lat
		res.HasLatency = true
	}
	return res
}

func (c *ExecChecker) args(addr string) []string {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	switch c.GOOS {
	case "windows":
		return []string{"-n", "1", "-w", strconv.FormatInt(timeout.Milliseconds(), 10), addr}
	case "darwin", "freebsd", "netbsd", "openbsd":
		// BSD ping takes -W in milliseconds
		return []string{"-c", "1", "-W", strconv.FormatInt(timeout.Milliseconds(), 10), addr}
	default:
		secs := int(timeout.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		return []string{"-c", "1", "-W", strconv.Itoa(secs), addr}
	}
}

// matches "time=12.3 ms", "time<1ms" and "Zeit=4ms"
var latencyRe = regexp.MustCompile(`(?i)(?:time|zeit|temps)\s*[=<]\s*([0-9]+(?:[.,][0-9]+)?)\s*ms`)

func parseLatency(out string) (time.Duration, bool) {
	m := latencyRe.FindStringSubmatch(out)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(v * float64(time.Millisecond)), true
}
