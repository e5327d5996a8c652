package postgres

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"linkframe/internal/kv"
)

// listener owns one dedicated connection in LISTEN mode, outside the pool,
// and fans notifications out to every watcher of the engine. The pool
// stays free for reads and commits however many watchers are open.
type listener struct {
	connConfig *pgx.ConnConfig

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	conn   *pgx.Conn
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

func newListener(connConfig *pgx.ConnConfig) *listener {
	return &listener{
		connConfig: connConfig,
		subs:       make(map[*subscriber]struct{}),
	}
}

// add registers a subscriber, connecting first if no listener runs. LISTEN
// is active before add returns.
func (l *listener) add(ctx context.Context) (*subscriber, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, kv.ErrClosed
	}
	if l.conn == nil {
		conn, err := pgx.ConnectConfig(ctx, l.connConfig)
		if err != nil {
			return nil, fmt.Errorf("connect listener: %w", err)
		}
		if _, err := conn.Exec(ctx, "LISTEN "+changesChannel); err != nil {
			_ = conn.Close(context.Background())
			return nil, fmt.Errorf("listen: %w", err)
		}

		runCtx, cancel := context.WithCancel(context.Background())
		l.conn, l.cancel, l.done = conn, cancel, make(chan struct{})
		go l.run(runCtx, conn, l.done)
	}

	sub := &subscriber{wake: make(chan struct{}, 1)}
	l.subs[sub] = struct{}{}
	return sub, nil
}

func (l *listener) remove(sub *subscriber) {
	l.mu.Lock()
	delete(l.subs, sub)
	l.mu.Unlock()
}

func (l *listener) run(ctx context.Context, conn *pgx.Conn, done chan<- struct{}) {
	defer close(done)
	defer l.stop(conn)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return
		}
		key, err := hex.DecodeString(n.Payload)
		if err != nil {
			continue
		}

		l.mu.Lock()
		for sub := range l.subs {
			sub.push([][]byte{key})
		}
		l.mu.Unlock()
	}
}

// stop drops the connection and ends every current subscription:
// notifications sent while no listener ran are lost, so watchers must
// re-read. The next add reconnects.
func (l *listener) stop(conn *pgx.Conn) {
	var subs map[*subscriber]struct{}
	l.mu.Lock()
	if l.conn == conn {
		l.cancel()
		l.conn, l.cancel = nil, nil
		subs = l.subs
		l.subs = make(map[*subscriber]struct{})
	}
	l.mu.Unlock()

	for sub := range subs {
		sub.end()
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = conn.Close(closeCtx)
}

func (l *listener) close() {
	l.mu.Lock()
	l.closed = true
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// subscriber buffers batches without bound so the listener never waits on
// a slow watcher.
type subscriber struct {
	mu      sync.Mutex
	pending [][][]byte
	ended   bool
	wake    chan struct{}
}

func (s *subscriber) push(batch [][]byte) {
	s.mu.Lock()
	s.pending = append(s.pending, batch)
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber) end() {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) drain() ([][][]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batches := s.pending
	s.pending = nil
	return batches, s.ended
}
