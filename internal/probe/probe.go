package probe

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/domain"
)

// DefaultTimeout bounds every reachability check.
const DefaultTimeout = 2 * time.Second

// CheckResult is the outcome of a single reachability check.
//
// Latency is only meaningful when HasLatency is set; a reply without a
// parsable round-trip time still counts as alive.
type CheckResult struct {
	Alive      bool
	Latency    time.Duration
	HasLatency bool
	Output     string
}

// Checker performs one reachability check against an address (IP or host).
type Checker interface {
	Check(ctx context.Context, addr string) CheckResult
}

// Prober binds a Checker to targets and normalizes every failure mode into
// an alive=false result.
type Prober struct {
	Checker Checker
	Timeout time.Duration
	Logger  *zap.Logger

	now func() time.Time
}

func NewProber(c Checker, timeout time.Duration, logger *zap.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{Checker: c, Timeout: timeout, Logger: logger, now: time.Now}
}

// Probe checks t once. It never returns an error and never panics.
func (p *Prober) Probe(ctx context.Context, t domain.Target) (res domain.ProbeResult) {
	res = domain.ProbeResult{TargetID: t.ID}
	defer func() {
		if r := recover(); r != nil {
			p.Logger.Error("probe_panic",
				zap.String("target_id", string(t.ID)),
				zap.String("ip", t.IP),
				zap.Any("panic", r),
			)
			res = domain.ProbeResult{
				TargetID:  t.ID,
				RawOutput: fmt.Sprintf("panic: %v", r),
				CheckedAt: p.now().UTC(),
			}
		}
	}()

	cctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	out := p.Checker.Check(cctx, t.IP)
	res.CheckedAt = p.now().UTC()
	res.RawOutput = out.Output

	if !out.Alive && cctx.Err() != nil {
		if res.RawOutput == "" {
			res.RawOutput = "timeout"
		}
		return res
	}
	res.Alive = out.Alive
	if out.Alive && out.HasLatency {
		lat := out.Latency
		res.Latency = &lat
	}
	return res
}
