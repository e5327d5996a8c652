// Package kvtest is the conformance suite every storage engine runs.
package kvtest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkframe/internal/kv"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) kv.Store

func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s kv.Store)
	}{
		{"GetMissing", testGetMissing},
		{"SetGetDelete", testSetGetDelete},
		{"CheckAbsent", testCheckAbsent},
		{"CheckVersion", testCheckVersion},
		{"FailedCheckWritesNothing", testFailedCheckWritesNothing},
		{"GetManyOrder", testGetManyOrder},
		{"ListOrder", testListOrder},
		{"ListPaging", testListPaging},
		{"ListExcludesPrefixKey", testListExcludesPrefixKey},
		{"ConcurrentCounters", testConcurrentCounters},
		{"Watch", testWatch},
		{"ManyWatchersDoNotBlockWrites", testManyWatchers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func testGetMissing(t *testing.T, s kv.Store) {
	e, err := s.Get(context.Background(), kv.Key{"missing"})
	require.NoError(t, err)
	assert.False(t, e.Exists())
	assert.Empty(t, e.Versionstamp)
	assert.Nil(t, e.Value)
	assert.Equal(t, kv.Key{"missing"}, e.Key)
}

func testSetGetDelete(t *testing.T, s kv.Store) {
	ctx := context.Background()
	key := kv.Key{"shortlinks", "abc"}

	res, err := s.Set(ctx, key, []byte(`{"a":1}`))
	require.NoError(t, err)
	require.True(t, res.OK)
	require.NotEmpty(t, res.Versionstamp)

	e, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), e.Value)
	assert.Equal(t, res.Versionstamp, e.Versionstamp)

	res2, err := s.Set(ctx, key, []byte(`{"a":2}`))
	require.NoError(t, err)
	assert.Greater(t, res2.Versionstamp, res.Versionstamp, "versionstamps grow")

	require.NoError(t, s.Delete(ctx, key))
	e, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, e.Exists())

	// удаление отсутствующего ключа не ошибка
	assert.NoError(t, s.Delete(ctx, key))
}

func testCheckAbsent(t *testing.T, s kv.Store) {
	ctx := context.Background()
	key := kv.Key{"shortlinks", "new"}

	absent := kv.Entry{Key: key}
	res, err := s.Atomic().Check(absent).Set(key, []byte("first")).Commit(ctx)
	require.NoError(t, err)
	require.True(t, res.OK)

	res, err = s.Atomic().Check(absent).Set(key, []byte("second")).Commit(ctx)
	require.NoError(t, err)
	assert.False(t, res.OK)

	e, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), e.Value)
}

func testCheckVersion(t *testing.T, s kv.Store) {
	ctx := context.Background()
	key := kv.Key{"counter"}

	_, err := s.Set(ctx, key, []byte("0"))
	require.NoError(t, err)
	read, err := s.Get(ctx, key)
	require.NoError(t, err)

	_, err = s.Set(ctx, key, []byte("x"))
	require.NoError(t, err)

	res, err := s.Atomic().Check(read).Set(key, []byte("1")).Commit(ctx)
	require.NoError(t, err)
	assert.False(t, res.OK, "stale versionstamp fails the check")

	fresh, err := s.Get(ctx, key)
	require.NoError(t, err)
	res, err = s.Atomic().Check(fresh).Set(key, []byte("1")).Commit(ctx)
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func testFailedCheckWritesNothing(t *testing.T, s kv.Store) {
	ctx := context.Background()
	guard := kv.Key{"guard"}
	other := kv.Key{"other"}

	_, err := s.Set(ctx, guard, []byte("taken"))
	require.NoError(t, err)

	res, err := s.Atomic().
		Check(kv.Entry{Key: guard}).
		Set(other, []byte("v")).
		Delete(guard).
		Commit(ctx)
	require.NoError(t, err)
	require.False(t, res.OK)

	entries, err := s.GetMany(ctx, []kv.Key{guard, other})
	require.NoError(t, err)
	assert.True(t, entries[0].Exists())
	assert.False(t, entries[1].Exists())
}

func testGetManyOrder(t *testing.T, s kv.Store) {
	ctx := context.Background()
	_, err := s.Set(ctx, kv.Key{"b"}, []byte("B"))
	require.NoError(t, err)
	_, err = s.Set(ctx, kv.Key{"a"}, []byte("A"))
	require.NoError(t, err)

	entries, err := s.GetMany(ctx, []kv.Key{{"b"}, {"missing"}, {"a"}})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []byte("B"), entries[0].Value)
	assert.False(t, entries[1].Exists())
	assert.Equal(t, []byte("A"), entries[2].Value)
}

func seedEvents(t *testing.T, s kv.Store, code string, n int) {
	t.Helper()
	op := s.Atomic()
	for i := 1; i <= n; i++ {
		op.Set(kv.Key{"analytics", code, i}, []byte(fmt.Sprint(i)))
	}
	res, err := op.Commit(context.Background())
	require.NoError(t, err)
	require.True(t, res.OK)
}

func listSeqs(t *testing.T, s kv.Store, prefix kv.Key, opts kv.ListOptions) []int64 {
	t.Helper()
	var out []int64
	for e, err := range s.List(context.Background(), prefix, opts) {
		require.NoError(t, err)
		out = append(out, e.Key[len(e.Key)-1].(int64))
	}
	return out
}

func testListOrder(t *testing.T, s kv.Store) {
	seedEvents(t, s, "abc", 12)
	seedEvents(t, s, "abd", 2)

	prefix := kv.Key{"analytics", "abc"}
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, listSeqs(t, s, prefix, kv.ListOptions{}))
	assert.Equal(t, []int64{12, 11, 10}, listSeqs(t, s, prefix, kv.ListOptions{Reverse: true, Limit: 3}))
	assert.Equal(t, []int64{1, 2}, listSeqs(t, s, kv.Key{"analytics", "abd"}, kv.ListOptions{}))
	assert.Empty(t, listSeqs(t, s, kv.Key{"analytics", "zzz"}, kv.ListOptions{}))
}

func testListPaging(t *testing.T, s kv.Store) {
	seedEvents(t, s, "paged", 25)
	prefix := kv.Key{"analytics", "paged"}

	forward := listSeqs(t, s, prefix, kv.ListOptions{BatchSize: 4})
	require.Len(t, forward, 25)
	for i, seq := range forward {
		assert.EqualValues(t, i+1, seq)
	}

	backward := listSeqs(t, s, prefix, kv.ListOptions{BatchSize: 4, Reverse: true, Limit: 10})
	require.Len(t, backward, 10)
	assert.EqualValues(t, 25, backward[0])
	assert.EqualValues(t, 16, backward[9])

	// прерывание перебора останавливает чтение
	n := 0
	for range s.List(context.Background(), prefix, kv.ListOptions{BatchSize: 3}) {
		n++
		if n == 5 {
			break
		}
	}
	assert.Equal(t, 5, n)
}

func testListExcludesPrefixKey(t *testing.T, s kv.Store) {
	ctx := context.Background()
	_, err := s.Set(ctx, kv.Key{"users"}, []byte("root"))
	require.NoError(t, err)
	_, err = s.Set(ctx, kv.Key{"users", "a@example.com"}, []byte("a"))
	require.NoError(t, err)
	_, err = s.Set(ctx, kv.Key{"usersx"}, []byte("sibling"))
	require.NoError(t, err)

	var got []kv.Key
	for e, err := range s.List(ctx, kv.Key{"users"}, kv.ListOptions{}) {
		require.NoError(t, err)
		got = append(got, e.Key)
	}
	assert.Equal(t, []kv.Key{{"users", "a@example.com"}}, got)
}

// каждый инкремент - read, check, commit с повтором
func testConcurrentCounters(t *testing.T, s kv.Store) {
	ctx := context.Background()
	key := kv.Key{"counter"}

	const (
		workers = 8
		incs    = 10
	)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range incs {
				for {
					e, err := s.Get(ctx, key)
					if !assert.NoError(t, err) {
						return
					}
					var n int
					if e.Exists() {
						_, _ = fmt.Sscan(string(e.Value), &n)
					}
					res, err := s.Atomic().Check(e).Set(key, []byte(fmt.Sprint(n+1))).Commit(ctx)
					if !assert.NoError(t, err) {
						return
					}
					if res.OK {
						break
					}
				}
			}
		}()
	}
	wg.Wait()

	e, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprint(workers*incs), string(e.Value))
}

func testWatch(t *testing.T, s kv.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watched := kv.Key{"shortlinks", "w"}
	updates, err := s.Watch(ctx, []kv.Key{watched, {"shortlinks", "w2"}})
	require.NoError(t, err)

	first := receive(t, updates)
	require.Len(t, first, 2)
	assert.False(t, first[0].Exists())

	// изменение чужого ключа не порождает снимок, следующий снимок - наш
	_, err = s.Set(ctx, kv.Key{"shortlinks", "unrelated"}, []byte("x"))
	require.NoError(t, err)
	_, err = s.Set(ctx, watched, []byte("1"))
	require.NoError(t, err)

	next := receive(t, updates)
	assert.Equal(t, []byte("1"), next[0].Value)
	assert.False(t, next[1].Exists())

	require.NoError(t, s.Delete(ctx, watched))
	next = receive(t, updates)
	assert.False(t, next[0].Exists())

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-updates:
			return !ok
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond, "channel closes after cancel")
}

// ManyWatchers is more than any engine's default connection pool.
const ManyWatchers = 32

func testManyWatchers(t *testing.T, s kv.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	key := kv.Key{"shortlinks", "busy"}
	watchers := make([]<-chan []kv.Entry, ManyWatchers)
	for i := range watchers {
		updates, err := s.Watch(ctx, []kv.Key{key})
		require.NoError(t, err)
		receive(t, updates)
		watchers[i] = updates
	}

	// чтения и записи не ждут освобождения соединений наблюдателей
	writeCtx, writeCancel := context.WithTimeout(ctx, 5*time.Second)
	defer writeCancel()
	_, err := s.Set(writeCtx, key, []byte("1"))
	require.NoError(t, err)
	e, err := s.Get(writeCtx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), e.Value)

	for _, updates := range watchers {
		next := receive(t, updates)
		assert.Equal(t, []byte("1"), next[0].Value)
	}
}

func receive(t *testing.T, ch <-chan []kv.Entry) []kv.Entry {
	t.Helper()
	select {
	case entries, ok := <-ch:
		require.True(t, ok, "watch channel closed")
		return entries
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot within 5s")
		return nil
	}
}
