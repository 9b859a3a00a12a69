// cmd/preflight/main.go
package main

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hamed0406/pingwatch/internal/config"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load()
	if err != nil {
		fail(err.Error())
	}

	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		fail("API_ADDR " + cfg.Addr + " is not host:port")
	}
	ok("API_ADDR=" + cfg.Addr)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		fail("DATA_DIR " + cfg.DataDir + " cannot be created: " + err.Error())
	}
	probe := filepath.Join(cfg.DataDir, ".preflight")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		fail("DATA_DIR " + cfg.DataDir + " is not writable: " + err.Error())
	}
	_ = os.Remove(probe)
	ok("DATA_DIR=" + cfg.DataDir + " writable")

	switch cfg.ProbeMode {
	case config.ProbeModeExec:
		path, err := exec.LookPath("ping")
		if err != nil {
			fail("ping not found on PATH; install it or set PROBE_MODE=tcp")
		}
		ok("ping found at " + path)
	case config.ProbeModeTCP:
		ok(fmt.Sprintf("PROBE_MODE=tcp on port %d", cfg.TCPPort))
	}

	if cfg.DatabaseURL == "" {
		ok("DATABASE_URL empty, using " + cfg.TargetStore + " target store in " + cfg.DataDir)
	} else {
		ok("DATABASE_URL present")
	}

	if cfg.SMTP.Configured() {
		ok("SMTP seed " + cfg.SMTP.Host)
		if cfg.SMTP.User != "" && cfg.SMTP.Pass == "" {
			warn("SMTP_USER set without SMTP_PASS; authentication will fail.")
		}
	} else {
		warn("SMTP not configured; DOWN alerts will not be emailed until settings are saved.")
	}

	if cfg.SlackWebhookURL != "" && !strings.HasPrefix(cfg.SlackWebhookURL, "https://") {
		warn("SLACK_WEBHOOK_URL is not https.")
	}

	ok("preflight passed")
}
