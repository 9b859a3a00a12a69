// Package sqlite keeps targets and SMTP settings in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hamed0406/pingwatch/internal/domain"
	"github.com/hamed0406/pingwatch/internal/repo"
)

const DBFile = "pingwatch.db"

var _ repo.TargetStore = (*Store)(nil)
var _ repo.SMTPStore = (*Store)(nil)

func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir data dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA synchronous=NORMAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS targets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			ip TEXT NOT NULL,
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS smtp_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			host TEXT NOT NULL,
			port INTEGER NOT NULL,
			secure INTEGER NOT NULL,
			username TEXT NOT NULL,
			password TEXT NOT NULL,
			from_addr TEXT NOT NULL,
			to_addr TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate failed: %w", err)
		}
	}
	return nil
}

type Store struct {
	db *sql.DB
}

// New opens (and migrates) the database at path.
func New(path string) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) LoadTargets(ctx context.Context) ([]domain.Target, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, ip FROM targets ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()
	out := []domain.Target{}
	for rows.Next() {
		var t domain.Target
		if err := rows.Scan(&t.ID, &t.Name, &t.IP); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) SaveTargets(ctx context.Context, targets []domain.Target) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM targets`); err != nil {
		return fmt.Errorf("clear targets: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO targets (id,name,ip,position) VALUES (?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, t := range targets {
		if _, err := stmt.ExecContext(ctx, string(t.ID), t.Name, t.IP, i); err != nil {
			return fmt.Errorf("insert target %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) LoadSMTP(ctx context.Context) (*domain.SMTPConfig, error) {
	var c domain.SMTPConfig
	err := s.db.QueryRowContext(ctx,
		`SELECT host,port,secure,username,password,from_addr,to_addr FROM smtp_config WHERE id = 1`).
		Scan(&c.Host, &c.Port, &c.Secure, &c.User, &c.Pass, &c.From, &c.To)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load smtp: %w", err)
	}
	return &c, nil
}

func (s *Store) SaveSMTP(ctx context.Context, c domain.SMTPConfig) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO smtp_config (id,host,port,secure,username,password,from_addr,to_addr,updated_at)
		VALUES (1,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET host=excluded.host,port=excluded.port,secure=excluded.secure,
			username=excluded.username,password=excluded.password,from_addr=excluded.from_addr,
			to_addr=excluded.to_addr,updated_at=excluded.updated_at`,
		c.Host, c.Port, c.Secure, c.User, c.Pass, c.From, c.To, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save smtp: %w", err)
	}
	return nil
}
