package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/config"
	"github.com/hamed0406/pingwatch/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir,
		logging.WithLevel(cfg.LogLevel),
		logging.WithStderr(cfg.LogToStderr),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	app := fx.New(
		fx.Supply(cfg, logger),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Provide(
			provideMetrics,
			provideStores,
			provideProber,
			provideEventLog,
			provideHub,
			provideDispatcher,
			provideMonitor,
			provideServer,
		),
		fx.Invoke(seedSMTP, runMonitor, runHTTP),
	)
	app.Run()
	if err := app.Err(); err != nil {
		logger.Error("app_failed", zap.Error(err))
	}
}
