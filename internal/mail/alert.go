package mail

import (
	"context"
	"errors"

	"github.com/hamed0406/pingwatch/internal/domain"
)

// ConfigSource yields the stored SMTP settings; nil means none saved yet.
type ConfigSource interface {
	LoadSMTP(ctx context.Context) (*domain.SMTPConfig, error)
}

// AlertMailer turns alert records into emails using whatever SMTP config is
// stored at send time.
type AlertMailer struct {
	Sender Sender
	Config ConfigSource
}

func NewAlertMailer(sender Sender, cfg ConfigSource) *AlertMailer {
	return &AlertMailer{Sender: sender, Config: cfg}
}

func (a *AlertMailer) SendAlert(ctx context.Context, rec domain.AlertRecord) error {
	if a.Config == nil {
		return ErrNotConfigured
	}
	cfg, err := a.Config.LoadSMTP(ctx)
	if err != nil {
		return err
	}
	if cfg == nil || !cfg.Configured() {
		return ErrNotConfigured
	}
	subject, body := FormatAlert(rec)
	res := a.Sender.Send(ctx, *cfg, subject, body)
	if !res.Success {
		return errors.New(res.Error)
	}
	return nil
}
