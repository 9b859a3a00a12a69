// Package monitor owns the running state of the application: the target
// registry, the scheduler, the transition detector and the event log.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/detector"
	"github.com/hamed0406/pingwatch/internal/domain"
	"github.com/hamed0406/pingwatch/internal/eventlog"
	"github.com/hamed0406/pingwatch/internal/metrics"
	"github.com/hamed0406/pingwatch/internal/registry"
	"github.com/hamed0406/pingwatch/internal/repo"
	"github.com/hamed0406/pingwatch/internal/scheduler"
)

var ErrInvalidTarget = errors.New("target needs a name and an ip")

type Dispatcher interface {
	Dispatch(ctx context.Context, t domain.Target, ev domain.StateEvent)
	Wait()
}

type Publisher interface {
	Publish(r domain.ProbeResult, ev domain.StateEvent)
}

type Deps struct {
	Logger     *zap.Logger
	Store      repo.TargetStore
	Prober     scheduler.Prober
	Log        *eventlog.Log
	Dispatcher Dispatcher // optional
	Publisher  Publisher  // optional
	Metrics    *metrics.Metrics
	Clock      clock.Clock

	Interval  time.Duration
	Scheduler scheduler.Options
}

type Service struct {
	logger   *zap.Logger
	store    repo.TargetStore
	registry *registry.Registry
	detector *detector.Detector
	log      *eventlog.Log
	disp     Dispatcher
	pub      Publisher
	metrics  *metrics.Metrics
	sched    *scheduler.Scheduler
	interval time.Duration
	clock    clock.Clock

	// mu orders result application against target replacement: a result is
	// checked against the registry and applied while holding the read lock.
	mu sync.RWMutex
	// cfgMu serializes configuration changes.
	cfgMu   sync.Mutex
	running bool
	runCtx  context.Context

	// seq holds one lock per target so that a target's results go through
	// detector, stream and dispatcher one at a time, in arrival order.
	seqMu sync.Mutex
	seq   map[domain.TargetID]*sync.Mutex

	newID func() domain.TargetID
}

func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.Log == nil {
		d.Log = eventlog.New(eventlog.DefaultCapacity)
	}
	if d.Interval <= 0 {
		d.Interval = scheduler.DefaultInterval
	}
	s := &Service{
		logger:   d.Logger,
		store:    d.Store,
		registry: registry.New(),
		detector: detector.New(),
		log:      d.Log,
		disp:     d.Dispatcher,
		pub:      d.Publisher,
		metrics:  d.Metrics,
		interval: d.Interval,
		clock:    d.Clock,
		runCtx:   context.Background(),
		seq:      make(map[domain.TargetID]*sync.Mutex),
	}
	s.newID = s.generateID
	s.sched = scheduler.New(d.Logger, d.Prober, s.HandleResult, d.Clock, d.Metrics, d.Scheduler)
	return s
}

// Start loads the saved targets and begins probing them. A store failure
// is logged and monitoring starts with no targets.
func (s *Service) Start(ctx context.Context) error {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	targets := s.load(ctx)

	s.mu.Lock()
	removed := s.registry.ReplaceAll(targets)
	s.detector.Reset()
	s.dropSeq(removed)
	current := s.registry.List()
	s.runCtx = context.WithoutCancel(ctx)
	s.mu.Unlock()

	s.running = true
	s.metrics.SetTargets(len(current))
	s.log.Info(fmt.Sprintf("Monitoring started: %d targets", len(current)))
	s.sched.Start(s.runCtx, current, s.interval)
	return nil
}

func (s *Service) load(ctx context.Context) []domain.Target {
	if s.store == nil {
		return nil
	}
	targets, err := s.store.LoadTargets(ctx)
	if err != nil {
		s.logger.Warn("targets_load_failed", zap.Error(err))
		return nil
	}
	if s.fillIDs(targets) > 0 {
		if err := s.store.SaveTargets(ctx, targets); err != nil {
			s.logger.Warn("targets_save_failed", zap.Int("targets", len(targets)), zap.Error(err))
		}
	}
	return targets
}

// fillIDs gives every target without an id a fresh one and reports how
// many it filled.
func (s *Service) fillIDs(targets []domain.Target) int {
	n := 0
	for i := range targets {
		if targets[i].ID == "" {
			targets[i].ID = s.newID()
			n++
		}
	}
	return n
}

// Stop halts scheduling and waits for in-flight probes and alert side
// effects to finish.
func (s *Service) Stop(ctx context.Context) error {
	s.cfgMu.Lock()
	s.running = false
	s.cfgMu.Unlock()

	s.sched.Stop()
	done := make(chan struct{})
	go func() {
		s.sched.Wait()
		if s.disp != nil {
			s.disp.Wait()
		}
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) Targets() []domain.Target { return s.registry.List() }

// Log returns the event log filtered to one target, or the whole log (when
// show-all is enabled) for a nil id.
func (s *Service) Log(id *domain.TargetID) []domain.LogEntry { return s.log.Filter(id) }

// AddTarget appends a target with a fresh id.
func (s *Service) AddTarget(ctx context.Context, name, ip string) (domain.Target, error) {
	t := domain.Target{Name: strings.TrimSpace(name), IP: strings.TrimSpace(ip)}
	if t.Name == "" || t.IP == "" {
		return domain.Target{}, ErrInvalidTarget
	}
	t.ID = s.newID()

	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	next := append(s.registry.List(), t)
	s.replaceLocked(ctx, next)
	id := t.ID
	s.log.Append(domain.LogEntry{
		Text:     fmt.Sprintf("Added %s (%s)", t.Name, t.IP),
		TargetID: &id,
		Severity: domain.SeverityInfo,
	})
	return t, nil
}

// RemoveTarget drops a target together with its detector state and log
// associations.
func (s *Service) RemoveTarget(ctx context.Context, id domain.TargetID) error {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	t, ok := s.registry.Get(id)
	if !ok {
		return repo.ErrNotFound
	}
	cur := s.registry.List()
	next := make([]domain.Target, 0, len(cur))
	for _, c := range cur {
		if c.ID != id {
			next = append(next, c)
		}
	}
	s.replaceLocked(ctx, next)
	s.log.Info(fmt.Sprintf("Removed %s (%s)", t.Name, t.IP))
	return nil
}

// ReplaceTargets submits a complete target set. Targets without an id get
// a fresh one.
func (s *Service) ReplaceTargets(ctx context.Context, targets []domain.Target) ([]domain.Target, error) {
	next := make([]domain.Target, 0, len(targets))
	for _, t := range targets {
		t.Name = strings.TrimSpace(t.Name)
		t.IP = strings.TrimSpace(t.IP)
		if t.Name == "" || t.IP == "" {
			return nil, ErrInvalidTarget
		}
		next = append(next, t)
	}
	s.fillIDs(next)

	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	current := s.replaceLocked(ctx, next)
	s.log.Info(fmt.Sprintf("Targets updated: %d targets", len(current)))
	return current, nil
}

// replaceLocked swaps the registry, purges state of removed ids, restarts
// the schedule and persists. cfgMu must be held.
func (s *Service) replaceLocked(ctx context.Context, next []domain.Target) []domain.Target {
	s.mu.Lock()
	removed := s.registry.ReplaceAll(next)
	current := s.registry.List()
	s.detector.Forget(removed...)
	s.detector.Retain(current)
	for _, id := range removed {
		s.log.Detach(id)
	}
	s.dropSeq(removed)
	s.mu.Unlock()

	s.metrics.SetTargets(len(current))
	if s.running {
		s.sched.Start(s.runCtx, current, s.interval)
	}
	if s.store != nil {
		if err := s.store.SaveTargets(ctx, current); err != nil {
			s.logger.Warn("targets_save_failed", zap.Int("targets", len(current)), zap.Error(err))
		}
	}
	s.logger.Info("targets_replaced",
		zap.Int("targets", len(current)),
		zap.Int("removed", len(removed)),
	)
	return current
}

// HandleResult applies one completed probe. Results for targets that are no
// longer registered are dropped.
func (s *Service) HandleResult(res domain.ProbeResult) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.registry.Get(res.TargetID)
	if !ok {
		s.logger.Debug("late_result_discarded", zap.String("target_id", string(res.TargetID)))
		return
	}
	unlock := s.lockTarget(t.ID)
	defer unlock()

	ev := s.detector.Observe(res)
	kind := ev.Kind()

	s.metrics.ObserveProbe(res)
	s.metrics.ObserveEvent(kind)
	if ev.IsTransition() {
		s.logger.Info("target_"+strings.ToLower(string(kind)),
			zap.String("target_id", string(t.ID)),
			zap.String("name", t.Name),
			zap.String("ip", t.IP),
		)
	}
	if s.pub != nil {
		s.pub.Publish(res, ev)
	}
	if s.disp != nil {
		s.disp.Dispatch(s.runCtx, t, ev)
	}
}

func (s *Service) lockTarget(id domain.TargetID) func() {
	s.seqMu.Lock()
	m, ok := s.seq[id]
	if !ok {
		m = &sync.Mutex{}
		s.seq[id] = m
	}
	s.seqMu.Unlock()
	m.Lock()
	return m.Unlock
}

// dropSeq forgets the locks of removed targets. mu must be held for writing.
func (s *Service) dropSeq(ids []domain.TargetID) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	for _, id := range ids {
		delete(s.seq, id)
	}
}

// generateID returns a time-ordered UUID, or the current time in
// nanoseconds should the UUID source fail.
func (s *Service) generateID() domain.TargetID {
	if id, err := uuid.NewV7(); err == nil {
		return domain.TargetID(id.String())
	}
	return domain.TargetID(strconv.FormatInt(s.clock.Now().UnixNano(), 10))
}
