package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/config"
	"github.com/hamed0406/pingwatch/internal/domain"
	"github.com/hamed0406/pingwatch/internal/httpapi"
	"github.com/hamed0406/pingwatch/internal/repo/file"
	"github.com/hamed0406/pingwatch/internal/repo/sqlite"
)

func testConfig(t *testing.T) config.Config {
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestProvideStores_FileTargetsSQLiteSMTP(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	s, err := provideStores(lc, testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer lc.RequireStart().RequireStop()

	assert.IsType(t, &file.Store{}, s.Targets)
	assert.IsType(t, &sqlite.Store{}, s.SMTP)
}

func TestProvideStores_SQLiteTargets(t *testing.T) {
	cfg := testConfig(t)
	cfg.TargetStore = config.TargetStoreSQLite
	lc := fxtest.NewLifecycle(t)
	s, err := provideStores(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	defer lc.RequireStart().RequireStop()

	assert.IsType(t, &sqlite.Store{}, s.Targets)
	assert.Same(t, s.Targets, s.SMTP)
}

func TestSeedSMTP_OnlyWhenEmpty(t *testing.T) {
	cfg := testConfig(t)
	cfg.SMTP = domain.SMTPConfig{Host: "mail.example.com", Port: 587, From: "a@example.com", To: "b@example.com"}

	lc := fxtest.NewLifecycle(t)
	s, err := provideStores(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	seedSMTP(lc, cfg, s.SMTP, zap.NewNop())
	lc.RequireStart()
	defer lc.RequireStop()

	got, err := s.SMTP.LoadSMTP(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "mail.example.com", got.Host)

	require.NoError(t, s.SMTP.SaveSMTP(context.Background(), domain.SMTPConfig{Host: "saved.example.com"}))
	again := fxtest.NewLifecycle(t)
	seedSMTP(again, cfg, s.SMTP, zap.NewNop())
	again.RequireStart().RequireStop()
	got, err = s.SMTP.LoadSMTP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "saved.example.com", got.Host)
}

func TestGraph_Resolves(t *testing.T) {
	cfg := testConfig(t)
	cfg.SoundEnabled = false
	var api *httpapi.Server
	app := fxtest.New(t,
		fx.Supply(cfg, zap.NewNop()),
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
		fx.Populate(&api),
	)
	app.RequireStart().RequireStop()
	require.NotNil(t, api)
	assert.NotNil(t, api.Stream)
	assert.NotNil(t, api.Metrics)
}
