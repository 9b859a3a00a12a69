package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/domain"
	"github.com/hamed0406/pingwatch/internal/metrics"
)

const (
	DefaultInterval             = 2 * time.Second
	DefaultMaxInFlight          = 256
	DefaultMaxInFlightPerTarget = 2
)

type Prober interface {
	Probe(ctx context.Context, t domain.Target) domain.ProbeResult
}

// Handler receives every completed probe result, in completion order.
type Handler func(domain.ProbeResult)

type Options struct {
	MaxInFlight          int // probes running across all targets
	MaxInFlightPerTarget int // overlapping probes of one target
}

// Scheduler drives one probe per target per tick. A tick never waits for
// probes; when a concurrency limit is reached the probe is skipped for that
// tick instead.
type Scheduler struct {
	Logger  *zap.Logger
	Prober  Prober
	Handle  Handler
	Clock   clock.Clock
	Metrics *metrics.Metrics

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	targets  []domain.Target
	interval time.Duration

	slotsMu      sync.Mutex
	inFlight     map[domain.TargetID]int
	total        int
	maxTotal     int
	maxPerTarget int

	probes sync.WaitGroup
}

func New(logger *zap.Logger, prober Prober, handle Handler, clk clock.Clock, m *metrics.Metrics, opts Options) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.New()
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = DefaultMaxInFlight
	}
	if opts.MaxInFlightPerTarget <= 0 {
		opts.MaxInFlightPerTarget = DefaultMaxInFlightPerTarget
	}
	return &Scheduler{
		Logger:       logger,
		Prober:       prober,
		Handle:       handle,
		Clock:        clk,
		Metrics:      m,
		inFlight:     make(map[domain.TargetID]int),
		maxTotal:     opts.MaxInFlight,
		maxPerTarget: opts.MaxInFlightPerTarget,
	}
}

// Start cancels any running schedule, then probes targets immediately and
// every interval after that. When Start returns the previous schedule has
// fully stopped, so no stale tick can fire. Probes run under ctx rather
// than the schedule: a restart lets in-flight probes finish.
func (s *Scheduler) Start(ctx context.Context, targets []domain.Target, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ts := make([]domain.Target, len(targets))
	copy(ts, targets)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	sctx, cancel := context.WithCancel(ctx)
	ticker := s.Clock.Ticker(interval)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.targets = ts
	s.interval = interval

	s.Logger.Info("scheduler_started",
		zap.Int("targets", len(ts)),
		zap.Duration("interval", interval),
	)
	go s.loop(sctx, ctx, ticker, ts, done)
}

// Stop cancels the schedule and waits for its loop to exit. In-flight
// probes are not interrupted; use Wait for those.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopLocked() {
		s.Logger.Info("scheduler_stopped")
	}
}

func (s *Scheduler) stopLocked() bool {
	if s.cancel == nil {
		return false
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	s.targets = nil
	return true
}

// Wait blocks until every launched probe has delivered its result.
func (s *Scheduler) Wait() { s.probes.Wait() }

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Targets returns the set the current schedule probes.
func (s *Scheduler) Targets() []domain.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Target, len(s.targets))
	copy(out, s.targets)
	return out
}

func (s *Scheduler) loop(sched, probeCtx context.Context, ticker *clock.Ticker, targets []domain.Target, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	s.tick(sched, probeCtx, targets)
	for {
		select {
		case <-sched.Done():
			return
		case <-ticker.C:
			s.tick(sched, probeCtx, targets)
		}
	}
}

func (s *Scheduler) tick(sched, probeCtx context.Context, targets []domain.Target) {
	for _, t := range targets {
		if sched.Err() != nil {
			return
		}
		s.launch(probeCtx, t)
	}
}

func (s *Scheduler) launch(ctx context.Context, t domain.Target) {
	if !s.acquire(t.ID) {
		s.Metrics.ProbeSkipped()
		s.Logger.Debug("probe_skipped",
			zap.String("target_id", string(t.ID)),
			zap.String("ip", t.IP),
		)
		return
	}
	s.probes.Add(1)
	go func() {
		defer s.probes.Done()
		defer s.release(t.ID)
		res := s.run(ctx, t)
		if !res.Alive {
			s.Logger.Debug("probe_down",
				zap.String("target_id", string(t.ID)),
				zap.String("ip", t.IP),
				zap.String("output", res.RawOutput),
			)
		}
		s.deliver(res)
	}()
}

// run is the per-target task boundary: nothing a probe does may escape it.
func (s *Scheduler) run(ctx context.Context, t domain.Target) (res domain.ProbeResult) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("probe_task_panic",
				zap.String("target_id", string(t.ID)),
				zap.Any("panic", r),
			)
			res = domain.ProbeResult{
				TargetID:  t.ID,
				RawOutput: fmt.Sprintf("panic: %v", r),
				CheckedAt: s.Clock.Now().UTC(),
			}
		}
	}()
	res = s.Prober.Probe(ctx, t)
	res.TargetID = t.ID
	if res.CheckedAt.IsZero() {
		res.CheckedAt = s.Clock.Now().UTC()
	}
	return res
}

func (s *Scheduler) deliver(res domain.ProbeResult) {
	if s.Handle == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("result_handler_panic",
				zap.String("target_id", string(res.TargetID)),
				zap.Any("panic", r),
			)
		}
	}()
	s.Handle(res)
}

func (s *Scheduler) acquire(id domain.TargetID) bool {
	s.slotsMu.Lock()
	defer s.slotsMu.Unlock()
	if s.total >= s.maxTotal || s.inFlight[id] >= s.maxPerTarget {
		return false
	}
	s.total++
	s.inFlight[id]++
	return true
}

func (s *Scheduler) release(id domain.TargetID) {
	s.slotsMu.Lock()
	defer s.slotsMu.Unlock()
	s.total--
	if s.inFlight[id]--; s.inFlight[id] <= 0 {
		delete(s.inFlight, id)
	}
}
