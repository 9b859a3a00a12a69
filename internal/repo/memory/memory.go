package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/pingwatch/internal/domain"
	"github.com/hamed0406/pingwatch/internal/repo"
)

var _ repo.TargetStore = (*Store)(nil)
var _ repo.SMTPStore = (*Store)(nil)

// Store keeps everything in process memory; used in tests and when no data
// directory is configured.
type Store struct {
	mu      sync.RWMutex
	targets []domain.Target
	smtp    *domain.SMTPConfig
}

func New(targets ...domain.Target) *Store {
	s := &Store{}
	s.targets = append(s.targets, targets...)
	return s
}

func (m *Store) LoadTargets(ctx context.Context) ([]domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Target, len(m.targets))
	copy(out, m.targets)
	return out, nil
}

func (m *Store) SaveTargets(ctx context.Context, targets []domain.Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.targets = append(m.targets[:0:0], targets...)
	return nil
}

func (m *Store) LoadSMTP(ctx context.Context) (*domain.SMTPConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.smtp == nil {
		return nil, nil
	}
	cfg := *m.smtp
	return &cfg, nil
}

func (m *Store) SaveSMTP(ctx context.Context, cfg domain.SMTPConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.smtp = &cfg
	return nil
}
