// Package inmemory is a process-local kv engine: a sorted key slice plus a
// map, guarded by one RWMutex. Commits are serialized, reads run in
// parallel.
package inmemory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"linkframe/internal/kv"
)

type item struct {
	value []byte
	vs    kv.Versionstamp
}

type InMemory struct {
	mu     sync.RWMutex
	data   map[string]item
	keys   []string // sorted
	seq    uint64
	closed bool

	subsMu sync.Mutex
	subs   map[*subscriber]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{
		data: make(map[string]item),
		subs: make(map[*subscriber]struct{}),
	}
}

// New returns a ready Store backed by a fresh in-memory engine.
func New(opts ...kv.Option) *kv.DB {
	return kv.New(NewInMemory(), opts...)
}

func (m *InMemory) Get(ctx context.Context, keys [][]byte) ([]kv.RawEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, kv.ErrClosed
	}

	out := make([]kv.RawEntry, len(keys))
	for i, k := range keys {
		out[i] = kv.RawEntry{Key: k}
		if it, ok := m.data[string(k)]; ok {
			out[i].Value = bytes.Clone(it.value)
			out[i].Versionstamp = it.vs
		}
	}
	return out, nil
}

func (m *InMemory) Scan(ctx context.Context, r kv.Range) ([]kv.RawEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, kv.ErrClosed
	}

	start, end := string(r.Start), string(r.End)
	var out []kv.RawEntry
	full := func() bool { return r.Limit > 0 && len(out) >= r.Limit }

	if r.Reverse {
		for i := sort.SearchStrings(m.keys, end) - 1; i >= 0 && m.keys[i] >= start && !full(); i-- {
			out = append(out, m.entry(m.keys[i]))
		}
		return out, nil
	}

	for i := sort.SearchStrings(m.keys, start); i < len(m.keys) && m.keys[i] < end && !full(); i++ {
		out = append(out, m.entry(m.keys[i]))
	}
	return out, nil
}

func (m *InMemory) entry(k string) kv.RawEntry {
	it := m.data[k]
	return kv.RawEntry{Key: []byte(k), Value: bytes.Clone(it.value), Versionstamp: it.vs}
}

func (m *InMemory) Commit(ctx context.Context, checks []kv.RawCheck, mutations []kv.RawMutation) (kv.Versionstamp, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", false, kv.ErrClosed
	}

	for _, c := range checks {
		if m.data[string(c.Key)].vs != c.Versionstamp {
			m.mu.Unlock()
			return "", false, nil
		}
	}

	m.seq++
	vs := kv.FormatVersionstamp(m.seq)
	changed := make([][]byte, 0, len(mutations))
	for _, mut := range mutations {
		k := string(mut.Key)
		if mut.Delete {
			m.remove(k)
		} else {
			m.insert(k, item{value: bytes.Clone(mut.Value), vs: vs})
		}
		changed = append(changed, mut.Key)
	}
	m.mu.Unlock()

	m.publish(changed)
	return vs, true, nil
}

func (m *InMemory) insert(k string, it item) {
	if _, ok := m.data[k]; !ok {
		i := sort.SearchStrings(m.keys, k)
		m.keys = append(m.keys, "")
		copy(m.keys[i+1:], m.keys[i:])
		m.keys[i] = k
	}
	m.data[k] = it
}

func (m *InMemory) remove(k string) {
	if _, ok := m.data[k]; !ok {
		return
	}
	delete(m.data, k)
	i := sort.SearchStrings(m.keys, k)
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
}

func (m *InMemory) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return kv.ErrClosed
	}
	return nil
}

func (m *InMemory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
