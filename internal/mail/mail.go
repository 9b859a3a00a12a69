package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/domain"
)

const DefaultTimeout = 15 * time.Second

var ErrNotConfigured = errors.New("smtp not configured")

// Result is what the UI sees for a send attempt.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func failed(err error) Result { return Result{Error: err.Error()} }

type Sender interface {
	Send(ctx context.Context, cfg domain.SMTPConfig, subject, body string) Result
}

// SMTPSender delivers plain-text mail over SMTP.
type SMTPSender struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

func NewSMTPSender(logger *zap.Logger) *SMTPSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPSender{Timeout: DefaultTimeout, Logger: logger}
}

func (s *SMTPSender) Send(ctx context.Context, cfg domain.SMTPConfig, subject, body string) Result {
	if !cfg.Configured() {
		return failed(ErrNotConfigured)
	}
	msg, err := buildMessage(cfg, subject, body)
	if err != nil {
		return failed(err)
	}
	client, err := gomail.NewClient(cfg.Host, s.clientOptions(cfg)...)
	if err != nil {
		return failed(fmt.Errorf("smtp client: %w", err))
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		s.Logger.Warn("smtp_send_failed",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
			zap.Error(err),
		)
		return failed(err)
	}
	s.Logger.Info("smtp_sent", zap.String("to", cfg.To), zap.String("subject", subject))
	return Result{Success: true}
}

func (s *SMTPSender) clientOptions(cfg domain.SMTPConfig) []gomail.Option {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opts := []gomail.Option{gomail.WithTimeout(timeout)}
	if cfg.Port > 0 {
		opts = append(opts, gomail.WithPort(cfg.Port))
	}
	if cfg.Secure {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if cfg.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.User),
			gomail.WithPassword(cfg.Pass),
		)
	}
	return opts
}

func buildMessage(cfg domain.SMTPConfig, subject, body string) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(cfg.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := m.To(cfg.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(gomail.TypeTextPlain, body)
	return m, nil
}

// FormatAlert renders the subject and body of a host-down email.
func FormatAlert(rec domain.AlertRecord) (subject, body string) {
	subject = fmt.Sprintf("[pingwatch] %s (%s) is DOWN", rec.TargetName, rec.IP)
	body = fmt.Sprintf("Host %s at %s stopped responding.\n\nDetected: %s\n",
		rec.TargetName, rec.IP, rec.Timestamp.UTC().Format(time.RFC1123))
	return subject, body
}

// TestMessage is the fixed content of a user-initiated test send.
func TestMessage() (subject, body string) {
	return "[pingwatch] test email", "SMTP settings work. Down alerts will be sent to this address.\n"
}
