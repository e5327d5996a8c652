package inmemory

import (
	"context"
	"sync"
)

// subscriber buffers change batches without bound so a commit never waits
// on a slow watcher.
type subscriber struct {
	mu      sync.Mutex
	pending [][][]byte
	wake    chan struct{}
}

func (s *subscriber) push(batch [][]byte) {
	s.mu.Lock()
	s.pending = append(s.pending, batch)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) drain() [][][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	batches := s.pending
	s.pending = nil
	return batches
}

func (m *InMemory) Subscribe(ctx context.Context) (<-chan [][]byte, error) {
	sub := &subscriber{wake: make(chan struct{}, 1)}

	m.subsMu.Lock()
	m.subs[sub] = struct{}{}
	m.subsMu.Unlock()

	out := make(chan [][]byte)
	go func() {
		defer close(out)
		defer func() {
			m.subsMu.Lock()
			delete(m.subs, sub)
			m.subsMu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.wake:
			}
			for _, batch := range sub.drain() {
				select {
				case out <- batch:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (m *InMemory) publish(changed [][]byte) {
	if len(changed) == 0 {
		return
	}
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for sub := range m.subs {
		sub.push(changed)
	}
}
