// Package postgres is a kv engine on a single PostgreSQL table. Commits
// run at SERIALIZABLE isolation and publish the touched keys with
// pg_notify, which backs Watch.
package postgres

import (
	"context"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"linkframe/internal/kv"
)

const (
	changesChannel       = "kv_changes"
	serializationFailure = "40001"
	blindWriteAttempts   = 3
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Postgres struct {
	pool    *pgxpool.Pool
	changes *listener
}

func Open(ctx context.Context, dsn string) (*Postgres, error) {
	if err := migrateUp(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool, changes: newListener(config.ConnConfig.Copy())}, nil
}

func New(ctx context.Context, dsn string, opts ...kv.Option) (*kv.DB, error) {
	engine, err := Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return kv.New(engine, opts...), nil
}

func migrateUp(dsn string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(dsn))
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// migrateURL switches the scheme to the one the pgx/v5 migrate driver
// registers and drops the pgxpool-only pool_* parameters, which a single
// connection would send to the server as runtime settings.
func migrateURL(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return dsn
	}
	u.Scheme = "pgx5"

	q := u.Query()
	for name := range q {
		if strings.HasPrefix(name, "pool_") {
			q.Del(name)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (p *Postgres) Get(ctx context.Context, keys [][]byte) ([]kv.RawEntry, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT key, value, versionstamp FROM kv WHERE key = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	found, err := collect(rows)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]kv.RawEntry, len(found))
	for _, e := range found {
		byKey[string(e.Key)] = e
	}

	out := make([]kv.RawEntry, len(keys))
	for i, k := range keys {
		if e, ok := byKey[string(k)]; ok {
			out[i] = e
		} else {
			out[i] = kv.RawEntry{Key: k}
		}
	}
	return out, nil
}

func (p *Postgres) Scan(ctx context.Context, r kv.Range) ([]kv.RawEntry, error) {
	query := `SELECT key, value, versionstamp FROM kv WHERE key >= $1 AND key < $2 ORDER BY key`
	if r.Reverse {
		query += ` DESC`
	}
	args := []any{r.Start, r.End}
	if r.Limit > 0 {
		query += ` LIMIT $3`
		args = append(args, r.Limit)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query range: %w", err)
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]kv.RawEntry, error) {
	defer rows.Close()

	var out []kv.RawEntry
	for rows.Next() {
		var (
			e  kv.RawEntry
			vs string
		)
		if err := rows.Scan(&e.Key, &e.Value, &vs); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Versionstamp = kv.Versionstamp(vs)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// Commit treats a serialization failure as a failed check when the
// operation has checks. Blind writes are retried instead.
func (p *Postgres) Commit(ctx context.Context, checks []kv.RawCheck, mutations []kv.RawMutation) (kv.Versionstamp, bool, error) {
	for attempt := 1; ; attempt++ {
		vs, ok, err := p.commitOnce(ctx, checks, mutations)
		if err == nil || !isSerializationFailure(err) {
			return vs, ok, err
		}
		if len(checks) > 0 {
			return "", false, nil
		}
		if attempt == blindWriteAttempts {
			return "", false, err
		}
	}
}

func (p *Postgres) commitOnce(ctx context.Context, checks []kv.RawCheck, mutations []kv.RawMutation) (kv.Versionstamp, bool, error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return "", false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, c := range checks {
		var current string
		err := tx.QueryRow(ctx, `SELECT versionstamp FROM kv WHERE key = $1`, c.Key).Scan(&current)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return "", false, fmt.Errorf("check: %w", err)
		}
		if kv.Versionstamp(current) != c.Versionstamp {
			return "", false, nil
		}
	}

	var seq int64
	if err := tx.QueryRow(ctx, `SELECT nextval('kv_versionstamp_seq')`).Scan(&seq); err != nil {
		return "", false, fmt.Errorf("next versionstamp: %w", err)
	}
	vs := kv.FormatVersionstamp(uint64(seq))

	for _, m := range mutations {
		if m.Delete {
			_, err = tx.Exec(ctx, `DELETE FROM kv WHERE key = $1`, m.Key)
		} else {
			_, err = tx.Exec(ctx,
				`INSERT INTO kv (key, value, versionstamp) VALUES ($1, $2, $3)
				 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, versionstamp = EXCLUDED.versionstamp`,
				m.Key, m.Value, string(vs))
		}
		if err != nil {
			return "", false, fmt.Errorf("apply mutation: %w", err)
		}
		if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, changesChannel, hex.EncodeToString(m.Key)); err != nil {
			return "", false, fmt.Errorf("notify: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", false, fmt.Errorf("commit: %w", err)
	}
	return vs, true, nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == serializationFailure
}

// Subscribe registers with the engine's shared listener. The channel is
// closed when ctx is done or when the listener connection is lost.
func (p *Postgres) Subscribe(ctx context.Context) (<-chan [][]byte, error) {
	sub, err := p.changes.add(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan [][]byte)
	go func() {
		defer close(out)
		defer p.changes.remove(sub)

		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.wake:
			}
			batches, ended := sub.drain()
			for _, batch := range batches {
				select {
				case out <- batch:
				case <-ctx.Done():
					return
				}
			}
			if ended {
				return
			}
		}
	}()
	return out, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.changes.close()
	p.pool.Close()
	return nil
}
