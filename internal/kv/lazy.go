package kv

import (
	"context"
	"iter"
	"sync"
	"time"
)

// OpenFunc opens the underlying store.
type OpenFunc func(ctx context.Context) (Store, error)

const defaultRetryDelay = time.Second

// Lazy is a Store that opens its backing store on first use. Concurrent
// first calls share one open. A failed open is retried by the first call
// after the retry delay; calls in between get the same error.
type Lazy struct {
	open       OpenFunc
	retryDelay time.Duration

	mu       sync.Mutex
	store    Store
	closed   bool
	err      error
	failedAt time.Time
}

type LazyOption func(*Lazy)

func WithRetryDelay(d time.Duration) LazyOption {
	return func(l *Lazy) {
		l.retryDelay = d
	}
}

func NewLazy(open OpenFunc, opts ...LazyOption) *Lazy {
	l := &Lazy{open: open, retryDelay: defaultRetryDelay}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lazy) get(ctx context.Context) (Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.closed:
		return nil, ErrClosed
	case l.store != nil:
		return l.store, nil
	case l.err != nil && time.Since(l.failedAt) < l.retryDelay:
		return nil, l.err
	}

	s, err := l.open(ctx)
	if err != nil {
		l.err, l.failedAt = err, time.Now()
		return nil, err
	}
	l.store, l.err = s, nil
	return s, nil
}

func (l *Lazy) Get(ctx context.Context, key Key) (Entry, error) {
	s, err := l.get(ctx)
	if err != nil {
		return Entry{}, err
	}
	return s.Get(ctx, key)
}

func (l *Lazy) GetMany(ctx context.Context, keys []Key) ([]Entry, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetMany(ctx, keys)
}

func (l *Lazy) Set(ctx context.Context, key Key, value []byte) (CommitResult, error) {
	s, err := l.get(ctx)
	if err != nil {
		return CommitResult{}, err
	}
	return s.Set(ctx, key, value)
}

func (l *Lazy) Delete(ctx context.Context, key Key) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.Delete(ctx, key)
}

func (l *Lazy) List(ctx context.Context, prefix Key, opts ListOptions) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		s, err := l.get(ctx)
		if err != nil {
			yield(Entry{}, err)
			return
		}
		for e, err := range s.List(ctx, prefix, opts) {
			if !yield(e, err) {
				return
			}
		}
	}
}

// Atomic defers opening the store until Commit.
func (l *Lazy) Atomic() *AtomicOperation {
	return &AtomicOperation{
		commit: func(ctx context.Context, checks []RawCheck, mutations []RawMutation) (Versionstamp, bool, error) {
			s, err := l.get(ctx)
			if err != nil {
				return "", false, err
			}
			op := s.Atomic()
			op.checks, op.mutations = checks, mutations
			res, err := op.Commit(ctx)
			return res.Versionstamp, res.OK, err
		},
	}
}

func (l *Lazy) Watch(ctx context.Context, keys []Key) (<-chan []Entry, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.Watch(ctx, keys)
}

func (l *Lazy) Ping(ctx context.Context) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.Ping(ctx)
}

// Close closes the backing store if it was opened. A Lazy never opens
// after Close.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	if l.store == nil {
		return nil
	}
	return l.store.Close()
}
