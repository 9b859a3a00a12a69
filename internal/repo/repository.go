package repo

import (
	"context"
	"errors"

	"github.com/hamed0406/pingwatch/internal/domain"
)

var ErrNotFound = errors.New("not found")

// Ports (interfaces): swap in any adapter.

// TargetStore persists the whole ordered target list at once.
type TargetStore interface {
	LoadTargets(ctx context.Context) ([]domain.Target, error)
	SaveTargets(ctx context.Context, targets []domain.Target) error
}

// SMTPStore keeps the single SMTP configuration. LoadSMTP returns nil, nil
// when nothing has been saved yet.
type SMTPStore interface {
	LoadSMTP(ctx context.Context) (*domain.SMTPConfig, error)
	SaveSMTP(ctx context.Context, cfg domain.SMTPConfig) error
}
