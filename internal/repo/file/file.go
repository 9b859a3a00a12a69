// Package file stores the target list as an indented JSON document.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/domain"
	"github.com/hamed0406/pingwatch/internal/repo"
)

const TargetsFile = "targets.json"

var _ repo.TargetStore = (*Store)(nil)

type Store struct {
	path string
	log  *zap.Logger
	mu   sync.Mutex
}

// New stores targets in dir/targets.json. The directory is created on the
// first save.
func New(dir string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{path: filepath.Join(dir, TargetsFile), log: log}
}

func (s *Store) Path() string { return s.path }

// LoadTargets returns an empty list when the file is missing or malformed.
func (s *Store) LoadTargets(ctx context.Context) ([]domain.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Target{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	var targets []domain.Target
	if err := json.Unmarshal(data, &targets); err != nil {
		s.log.Warn("targets_file_malformed", zap.String("path", s.path), zap.Error(err))
		return []domain.Target{}, nil
	}
	if targets == nil {
		targets = []domain.Target{}
	}
	return targets, nil
}

// SaveTargets writes atomically through a temp file and rename.
func (s *Store) SaveTargets(ctx context.Context, targets []domain.Target) error {
	if targets == nil {
		targets = []domain.Target{}
	}
	data, err := json.MarshalIndent(targets, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, TargetsFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
