// Package kv is a small ordered key-value abstraction: tuple keys, atomic
// compare-and-set commits, lazy prefix listing and key watching. Storage
// engines plug in through the Engine interface.
package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"time"
)

const (
	defaultBatchSize    = 100
	defaultPollInterval = 500 * time.Millisecond
)

var ErrClosed = errors.New("store is closed")

// Entry is a decoded key with its value. A missing key is returned as an
// Entry with nil Value and empty Versionstamp.
type Entry struct {
	Key          Key
	Value        []byte
	Versionstamp Versionstamp
}

// Exists reports whether the entry was found.
func (e Entry) Exists() bool {
	return e.Versionstamp != ""
}

type CommitResult struct {
	OK           bool
	Versionstamp Versionstamp
}

type ListOptions struct {
	// Limit caps the number of entries; zero means no limit.
	Limit   int
	Reverse bool
	// BatchSize is the page size used against the engine.
	BatchSize int
}

// Store is the contract consumed by the services.
type Store interface {
	Get(ctx context.Context, key Key) (Entry, error)
	GetMany(ctx context.Context, keys []Key) ([]Entry, error)
	Set(ctx context.Context, key Key, value []byte) (CommitResult, error)
	Delete(ctx context.Context, key Key) error
	List(ctx context.Context, prefix Key, opts ListOptions) iter.Seq2[Entry, error]
	Atomic() *AtomicOperation
	Watch(ctx context.Context, keys []Key) (<-chan []Entry, error)
	Ping(ctx context.Context) error
	Close() error
}

// DB implements Store on top of an Engine.
type DB struct {
	engine       Engine
	pollInterval time.Duration
}

type Option func(*DB)

// WithPollInterval sets how often watched keys are re-read on engines
// that do not implement Notifier.
func WithPollInterval(d time.Duration) Option {
	return func(db *DB) {
		if d > 0 {
			db.pollInterval = d
		}
	}
}

func New(engine Engine, opts ...Option) *DB {
	db := &DB{
		engine:       engine,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

func (db *DB) Get(ctx context.Context, key Key) (Entry, error) {
	entries, err := db.GetMany(ctx, []Key{key})
	if err != nil {
		return Entry{}, err
	}
	return entries[0], nil
}

func (db *DB) GetMany(ctx context.Context, keys []Key) ([]Entry, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	encoded, err := encodeKeys(keys)
	if err != nil {
		return nil, err
	}

	raw, err := db.engine.Get(ctx, encoded)
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	if len(raw) != len(keys) {
		return nil, fmt.Errorf("get: engine returned %d entries for %d keys", len(raw), len(keys))
	}

	entries := make([]Entry, len(raw))
	for i, r := range raw {
		entries[i] = Entry{Key: keys[i], Value: r.Value, Versionstamp: r.Versionstamp}
	}
	return entries, nil
}

// Set writes value unconditionally.
func (db *DB) Set(ctx context.Context, key Key, value []byte) (CommitResult, error) {
	return db.Atomic().Set(key, value).Commit(ctx)
}

func (db *DB) Delete(ctx context.Context, key Key) error {
	_, err := db.Atomic().Delete(key).Commit(ctx)
	return err
}

// List returns the entries whose keys extend prefix, in key order. The
// sequence is lazy: the engine is paged as the caller iterates, and every
// range over it starts a fresh scan. Pages are not read from a single
// snapshot.
func (db *DB) List(ctx context.Context, prefix Key, opts ListOptions) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		p, err := prefix.encodePrefix()
		if err != nil {
			yield(Entry{}, err)
			return
		}

		batch := opts.BatchSize
		if batch <= 0 {
			batch = defaultBatchSize
		}

		start, end := prefixRange(p)

		emitted := 0
		for {
			want := batch
			if opts.Limit > 0 && opts.Limit-emitted < want {
				want = opts.Limit - emitted
			}

			page, err := db.engine.Scan(ctx, Range{Start: start, End: end, Limit: want, Reverse: opts.Reverse})
			if err != nil {
				yield(Entry{}, fmt.Errorf("scan: %w", err))
				return
			}

			for _, r := range page {
				key, err := DecodeKey(r.Key)
				if err != nil {
					yield(Entry{}, err)
					return
				}
				if !yield(Entry{Key: key, Value: r.Value, Versionstamp: r.Versionstamp}, nil) {
					return
				}
				emitted++
			}

			if len(page) < want || (opts.Limit > 0 && emitted >= opts.Limit) {
				return
			}

			last := page[len(page)-1].Key
			if opts.Reverse {
				end = bytes.Clone(last)
			} else {
				start = successor(last)
			}
		}
	}
}

func (db *DB) Atomic() *AtomicOperation {
	return &AtomicOperation{commit: db.engine.Commit}
}

func (db *DB) Ping(ctx context.Context) error {
	return db.engine.Ping(ctx)
}

func (db *DB) Close() error {
	return db.engine.Close()
}

func encodeKeys(keys []Key) ([][]byte, error) {
	encoded := make([][]byte, len(keys))
	for i, k := range keys {
		b, err := k.Encode()
		if err != nil {
			return nil, err
		}
		encoded[i] = b
	}
	return encoded, nil
}

type commitFunc func(ctx context.Context, checks []RawCheck, mutations []RawMutation) (Versionstamp, bool, error)

// AtomicOperation collects checks and mutations that are committed as a
// single unit.
type AtomicOperation struct {
	commit    commitFunc
	checks    []RawCheck
	mutations []RawMutation
	err       error
}

// Check asserts that each entry is unchanged since it was read. Passing
// an entry for a missing key asserts the key is still missing.
func (a *AtomicOperation) Check(entries ...Entry) *AtomicOperation {
	for _, e := range entries {
		b, err := e.Key.Encode()
		if err != nil {
			a.setErr(err)
			continue
		}
		a.checks = append(a.checks, RawCheck{Key: b, Versionstamp: e.Versionstamp})
	}
	return a
}

func (a *AtomicOperation) Set(key Key, value []byte) *AtomicOperation {
	b, err := key.Encode()
	if err != nil {
		a.setErr(err)
		return a
	}
	if value == nil {
		value = []byte{}
	}
	a.mutations = append(a.mutations, RawMutation{Key: b, Value: value})
	return a
}

func (a *AtomicOperation) Delete(key Key) *AtomicOperation {
	b, err := key.Encode()
	if err != nil {
		a.setErr(err)
		return a
	}
	a.mutations = append(a.mutations, RawMutation{Key: b, Delete: true})
	return a
}

func (a *AtomicOperation) setErr(err error) {
	if a.err == nil {
		a.err = err
	}
}

// Commit applies the operation. A failed check is reported as
// CommitResult{OK: false} with a nil error.
func (a *AtomicOperation) Commit(ctx context.Context) (CommitResult, error) {
	if a.err != nil {
		return CommitResult{}, a.err
	}
	vs, ok, err := a.commit(ctx, a.checks, a.mutations)
	if err != nil {
		return CommitResult{}, fmt.Errorf("commit: %w", err)
	}
	return CommitResult{OK: ok, Versionstamp: vs}, nil
}
