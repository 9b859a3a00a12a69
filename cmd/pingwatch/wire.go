package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/alert"
	"github.com/hamed0406/pingwatch/internal/config"
	"github.com/hamed0406/pingwatch/internal/eventlog"
	"github.com/hamed0406/pingwatch/internal/httpapi"
	"github.com/hamed0406/pingwatch/internal/mail"
	"github.com/hamed0406/pingwatch/internal/metrics"
	"github.com/hamed0406/pingwatch/internal/monitor"
	"github.com/hamed0406/pingwatch/internal/notify"
	"github.com/hamed0406/pingwatch/internal/probe"
	"github.com/hamed0406/pingwatch/internal/repo"
	"github.com/hamed0406/pingwatch/internal/repo/file"
	"github.com/hamed0406/pingwatch/internal/repo/postgres"
	"github.com/hamed0406/pingwatch/internal/repo/sqlite"
	"github.com/hamed0406/pingwatch/internal/scheduler"
	"github.com/hamed0406/pingwatch/internal/stream"
)

type stores struct {
	fx.Out

	Targets repo.TargetStore
	SMTP    repo.SMTPStore
}

func provideMetrics() *metrics.Metrics { return metrics.New() }

// provideStores picks Postgres for everything when DATABASE_URL is set.
// Otherwise SMTP settings live in sqlite and targets in targets.json, or
// in the same sqlite file with TARGET_STORE=sqlite.
func provideStores(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (stores, error) {
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pg, err := postgres.New(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return stores{}, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return stores{}, fmt.Errorf("ensure schema: %w", err)
		}
		lc.Append(fx.StopHook(pg.Close))
		log.Info("store_selected", zap.String("store", "postgres"))
		return stores{Targets: pg, SMTP: pg}, nil
	}

	db, err := sqlite.New(filepath.Join(cfg.DataDir, sqlite.DBFile))
	if err != nil {
		return stores{}, fmt.Errorf("open sqlite: %w", err)
	}
	lc.Append(fx.StopHook(db.Close))

	if cfg.TargetStore == config.TargetStoreSQLite {
		log.Info("store_selected", zap.String("store", "sqlite"))
		return stores{Targets: db, SMTP: db}, nil
	}
	fs := file.New(cfg.DataDir, log)
	log.Info("store_selected", zap.String("store", "file"), zap.String("path", fs.Path()))
	return stores{Targets: fs, SMTP: db}, nil
}

func provideProber(cfg config.Config, log *zap.Logger) scheduler.Prober {
	var c probe.Checker
	switch cfg.ProbeMode {
	case config.ProbeModeTCP:
		c = probe.NewTCPChecker(cfg.TCPPort)
	default:
		c = probe.NewExecChecker(cfg.ProbeTimeout, log)
	}
	c = &probe.DNSDiagnoser{Inner: c, Resolver: net.DefaultResolver}
	return probe.NewProber(c, cfg.ProbeTimeout, log)
}

func provideEventLog(cfg config.Config) *eventlog.Log {
	return eventlog.New(cfg.EventLogCapacity, eventlog.WithShowAll(cfg.ShowAllLog))
}

func provideHub(lc fx.Lifecycle, log *zap.Logger) *stream.Hub {
	h := stream.NewHub(log)
	lc.Append(fx.StopHook(h.Close))
	return h
}

func provideDispatcher(cfg config.Config, log *zap.Logger, el *eventlog.Log, m *metrics.Metrics, smtp repo.SMTPStore) *alert.Dispatcher {
	d := alert.New(log, el, m)
	if cfg.SoundEnabled {
		d.Sound = notify.NewTone()
	}
	d.Desktop = notify.NewDesktop("")
	d.Permission = notify.ParsePermission(cfg.NotifyPermission)
	d.Mailer = mail.NewAlertMailer(mail.NewSMTPSender(log), smtp)
	if s := notify.NewSlack(cfg.SlackWebhookURL); s.Enabled() {
		d.Extra = notify.Multi{s}
	}
	return d
}

func provideMonitor(cfg config.Config, log *zap.Logger, targets repo.TargetStore, p scheduler.Prober,
	el *eventlog.Log, d *alert.Dispatcher, hub *stream.Hub, m *metrics.Metrics) *monitor.Service {
	return monitor.New(monitor.Deps{
		Logger:     log,
		Store:      targets,
		Prober:     p,
		Log:        el,
		Dispatcher: d,
		Publisher:  hub,
		Metrics:    m,
		Interval:   cfg.ProbeInterval,
		Scheduler: scheduler.Options{
			MaxInFlight:          cfg.MaxInFlight,
			MaxInFlightPerTarget: cfg.MaxInFlightPerTarget,
		},
	})
}

func provideServer(cfg config.Config, log *zap.Logger, svc *monitor.Service, smtp repo.SMTPStore,
	hub *stream.Hub, m *metrics.Metrics) *httpapi.Server {
	s := httpapi.NewServer(log, svc, smtp, mail.NewSMTPSender(log))
	s.Stream = hub
	s.Metrics = m.Handler()
	s.TestEmailRPM = cfg.TestEmailRPM
	s.TestEmailBurst = cfg.TestEmailBurst
	return s
}

// seedSMTP stores the SMTP settings from config on first run only; settings
// saved through the API win afterwards.
func seedSMTP(lc fx.Lifecycle, cfg config.Config, smtp repo.SMTPStore, log *zap.Logger) {
	if !cfg.SMTP.Configured() {
		return
	}
	lc.Append(fx.StartHook(func(ctx context.Context) {
		cur, err := smtp.LoadSMTP(ctx)
		if err != nil {
			log.Warn("smtp_seed_load_failed", zap.Error(err))
			return
		}
		if cur != nil {
			return
		}
		if err := smtp.SaveSMTP(ctx, cfg.SMTP); err != nil {
			log.Warn("smtp_seed_failed", zap.Error(err))
			return
		}
		log.Info("smtp_seeded", zap.String("host", cfg.SMTP.Host))
	}))
}

func runMonitor(lc fx.Lifecycle, svc *monitor.Service) {
	lc.Append(fx.Hook{
		OnStart: svc.Start,
		OnStop:  svc.Stop,
	})
}

func runHTTP(lc fx.Lifecycle, sd fx.Shutdowner, cfg config.Config, api *httpapi.Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.Addr, err)
			}
			log.Info("api_listen", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("api_serve_failed", zap.Error(err))
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: srv.Shutdown,
	})
}
