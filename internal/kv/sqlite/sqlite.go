// Package sqlite is a kv engine stored in a single SQLite file. It has no
// change feed, so watchers poll.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"linkframe/internal/kv"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type SQLite struct {
	db *sql.DB
}

// Open migrates and opens the database file at path, creating it and its
// directory when missing.
func Open(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	if err := migrateUp(cleanPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	dsn := "file:" + cleanPath + "?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	return &SQLite{db: db}, nil
}

// New opens path and wraps it into a Store.
func New(ctx context.Context, path string, opts ...kv.Option) (*kv.DB, error) {
	engine, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return kv.New(engine, opts...), nil
}

func migrateUp(path string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, "sqlite://"+path)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, keys [][]byte) ([]kv.RawEntry, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, versionstamp FROM kv WHERE key IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	found := make(map[string]kv.RawEntry, len(keys))
	for rows.Next() {
		var e kv.RawEntry
		if err := rows.Scan(&e.Key, &e.Value, &e.Versionstamp); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		found[string(e.Key)] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	out := make([]kv.RawEntry, len(keys))
	for i, k := range keys {
		if e, ok := found[string(k)]; ok {
			out[i] = e
		} else {
			out[i] = kv.RawEntry{Key: k}
		}
	}
	return out, nil
}

func (s *SQLite) Scan(ctx context.Context, r kv.Range) ([]kv.RawEntry, error) {
	order := "ASC"
	if r.Reverse {
		order = "DESC"
	}
	limit := r.Limit
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, versionstamp FROM kv WHERE key >= ? AND key < ? ORDER BY key `+order+` LIMIT ?`,
		r.Start, r.End, limit)
	if err != nil {
		return nil, fmt.Errorf("query range: %w", err)
	}
	defer rows.Close()

	var out []kv.RawEntry
	for rows.Next() {
		var e kv.RawEntry
		if err := rows.Scan(&e.Key, &e.Value, &e.Versionstamp); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Commit bumps the sequence first so the transaction takes the write lock
// before any check is read.
func (s *SQLite) Commit(ctx context.Context, checks []kv.RawCheck, mutations []kv.RawMutation) (kv.Versionstamp, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq uint64
	if err := tx.QueryRowContext(ctx,
		`UPDATE kv_sequence SET value = value + 1 WHERE id = 1 RETURNING value`).Scan(&seq); err != nil {
		return "", false, fmt.Errorf("next versionstamp: %w", err)
	}

	for _, c := range checks {
		var current kv.Versionstamp
		err := tx.QueryRowContext(ctx, `SELECT versionstamp FROM kv WHERE key = ?`, c.Key).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return "", false, fmt.Errorf("check: %w", err)
		}
		if current != c.Versionstamp {
			return "", false, nil
		}
	}

	vs := kv.FormatVersionstamp(seq)
	for _, m := range mutations {
		if m.Delete {
			_, err = tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, m.Key)
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO kv (key, value, versionstamp) VALUES (?, ?, ?)
				 ON CONFLICT(key) DO UPDATE SET value = excluded.value, versionstamp = excluded.versionstamp`,
				m.Key, m.Value, string(vs))
		}
		if err != nil {
			return "", false, fmt.Errorf("apply mutation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("commit: %w", err)
	}
	return vs, true, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
