package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/domain"
	"github.com/hamed0406/pingwatch/internal/repo"
)

var _ repo.TargetStore = (*Store)(nil)
var _ repo.SMTPStore = (*Store)(nil)

const Schema = `
CREATE TABLE IF NOT EXISTS targets (
  id       TEXT PRIMARY KEY,
  name     TEXT NOT NULL,
  ip       TEXT NOT NULL,
  position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS smtp_config (
  id         SMALLINT PRIMARY KEY CHECK (id = 1),
  host       TEXT NOT NULL,
  port       INTEGER NOT NULL,
  secure     BOOLEAN NOT NULL,
  username   TEXT NOT NULL,
  password   TEXT NOT NULL,
  from_addr  TEXT NOT NULL,
  to_addr    TEXT NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables on a fresh database.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ---- TargetStore ----

func (s *Store) LoadTargets(ctx context.Context) ([]domain.Target, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, ip
		   FROM targets
		  ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	out := []domain.Target{}
	for rows.Next() {
		var id, name, ip string
		if err := rows.Scan(&id, &name, &ip); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		out = append(out, domain.Target{ID: domain.TargetID(id), Name: name, IP: ip})
	}
	return out, rows.Err()
}

// SaveTargets replaces the stored list in one transaction.
func (s *Store) SaveTargets(ctx context.Context, targets []domain.Target) error {
	rows := make([][]any, 0, len(targets))
	for i, t := range targets {
		rows = append(rows, []any{string(t.ID), t.Name, t.IP, i})
	}
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM targets`); err != nil {
			return fmt.Errorf("clear targets: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"targets"},
			[]string{"id", "name", "ip", "position"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy targets: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Debug("targets_saved", zap.Int("count", len(targets)))
	return nil
}

// ---- SMTPStore ----

func (s *Store) LoadSMTP(ctx context.Context) (*domain.SMTPConfig, error) {
	var c domain.SMTPConfig
	err := s.pool.QueryRow(ctx,
		`SELECT host, port, secure, username, password, from_addr, to_addr
		   FROM smtp_config
		  WHERE id = 1`).
		Scan(&c.Host, &c.Port, &c.Secure, &c.User, &c.Pass, &c.From, &c.To)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load smtp: %w", err)
	}
	return &c, nil
}

func (s *Store) SaveSMTP(ctx context.Context, c domain.SMTPConfig) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO smtp_config (id, host, port, secure, username, password, from_addr, to_addr, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE SET
		  host=EXCLUDED.host, port=EXCLUDED.port, secure=EXCLUDED.secure,
		  username=EXCLUDED.username, password=EXCLUDED.password,
		  from_addr=EXCLUDED.from_addr, to_addr=EXCLUDED.to_addr,
		  updated_at=EXCLUDED.updated_at`,
		c.Host, c.Port, c.Secure, c.User, c.Pass, c.From, c.To)
	if err != nil {
		return fmt.Errorf("save smtp: %w", err)
	}
	return nil
}
