// Package alert turns state transitions into user-facing side effects:
// a tone, a desktop notification, an event log line and an email.
package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/domain"
	"github.com/hamed0406/pingwatch/internal/metrics"
	"github.com/hamed0406/pingwatch/internal/notify"
)

const DefaultEmailTimeout = 30 * time.Second

// Channel names used in logs and the channel failure metric.
const (
	ChannelSound   = "sound"
	ChannelDesktop = "desktop"
	ChannelEmail   = "email"
	ChannelExtra   = "extra"
)

type Player interface {
	Play() error
}

type Mailer interface {
	SendAlert(ctx context.Context, rec domain.AlertRecord) error
}

type EventLog interface {
	Append(e domain.LogEntry)
}

type Dispatcher struct {
	Logger     *zap.Logger
	Log        EventLog
	Sound      Player          // nil disables the tone
	Desktop    notify.Notifier // nil disables desktop notifications
	Permission notify.Permission
	Mailer     Mailer          // nil disables email
	Extra      notify.Notifier // optional, e.g. Slack
	Metrics    *metrics.Metrics

	EmailTimeout time.Duration
	Now          func() time.Time

	wg sync.WaitGroup
}

func New(logger *zap.Logger, log EventLog, m *metrics.Metrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		Logger:       logger,
		Log:          log,
		Permission:   notify.PermissionDefault,
		Metrics:      m,
		EmailTimeout: DefaultEmailTimeout,
		Now:          time.Now,
	}
}

// Dispatch reacts to one state event for target t. Only DOWN and UP do
// anything. It returns once the log entry is written; sound, notifications
// and email run in the background and report failures only to the logger.
func (d *Dispatcher) Dispatch(ctx context.Context, t domain.Target, ev domain.StateEvent) {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = d.Now().UTC()
	}
	switch ev.Kind() {
	case domain.EventDown:
		d.down(ctx, t, ts)
	case domain.EventUp:
		d.appendLog(t, domain.SeverityUp, fmt.Sprintf("%s (%s) is back UP", t.Name, t.IP), ts)
	}
}

func (d *Dispatcher) down(ctx context.Context, t domain.Target, ts time.Time) {
	title := "Host Down"
	text := fmt.Sprintf("%s (%s) is unreachable", t.Name, t.IP)
	bg := context.WithoutCancel(ctx)

	if d.Sound != nil {
		d.detach(ChannelSound, t, func() error { return d.Sound.Play() })
	}
	if d.Desktop != nil && d.Permission != notify.PermissionDenied {
		d.detach(ChannelDesktop, t, func() error { return d.Desktop.Send(bg, title, text) })
	}
	d.appendLog(t, domain.SeverityDown, fmt.Sprintf("%s (%s) went DOWN", t.Name, t.IP), ts)

	if d.Mailer != nil {
		rec := domain.AlertRecord{TargetName: t.Name, IP: t.IP, Timestamp: ts}
		d.detach(ChannelEmail, t, func() error {
			ectx, cancel := context.WithTimeout(bg, d.emailTimeout())
			defer cancel()
			return d.Mailer.SendAlert(ectx, rec)
		})
	}
	if d.Extra != nil {
		d.detach(ChannelExtra, t, func() error { return d.Extra.Send(bg, title, text) })
	}
}

func (d *Dispatcher) appendLog(t domain.Target, sev domain.Severity, text string, ts time.Time) {
	if d.Log == nil {
		return
	}
	defer d.recoverChannel("log", t)
	id := t.ID
	d.Log.Append(domain.LogEntry{Timestamp: ts, Text: text, TargetID: &id, Severity: sev})
}

// detach runs fn in its own goroutine; nothing it does reaches the caller.
func (d *Dispatcher) detach(channel string, t domain.Target, fn func() error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.recoverChannel(channel, t)
		if err := fn(); err != nil {
			d.Metrics.ChannelFailed(channel)
			d.Logger.Warn("alert_"+channel+"_failed",
				zap.String("target_id", string(t.ID)),
				zap.String("ip", t.IP),
				zap.Error(err),
			)
		}
	}()
}

func (d *Dispatcher) recoverChannel(channel string, t domain.Target) {
	if r := recover(); r != nil {
		d.Metrics.ChannelFailed(channel)
		d.Logger.Error("alert_channel_panic",
			zap.String("channel", channel),
			zap.String("target_id", string(t.ID)),
			zap.Any("panic", r),
		)
	}
}

func (d *Dispatcher) emailTimeout() time.Duration {
	if d.EmailTimeout <= 0 {
		return DefaultEmailTimeout
	}
	return d.EmailTimeout
}

// Wait blocks until every detached side effect has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }
