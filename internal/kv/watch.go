package kv

import (
	"context"
	"fmt"
	"time"
)

// Watch emits the current entries for keys, then a fresh snapshot every
// time a commit changes at least one of them. The channel is closed when
// ctx is done. Snapshots are re-read after each notification, so a slow
// reader may skip intermediate states.
func (db *DB) Watch(ctx context.Context, keys []Key) (<-chan []Entry, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: nothing to watch", ErrInvalidKey)
	}

	encoded, err := encodeKeys(keys)
	if err != nil {
		return nil, err
	}
	watched := make(map[string]struct{}, len(encoded))
	for _, k := range encoded {
		watched[string(k)] = struct{}{}
	}

	// subscribe before the first read so no commit falls in between
	var changes <-chan [][]byte
	if n, ok := db.engine.(Notifier); ok {
		changes, err = n.Subscribe(ctx)
		if err != nil {
			return nil, fmt.Errorf("subscribe: %w", err)
		}
	}

	initial, err := db.GetMany(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make(chan []Entry, 1)
	go db.watchLoop(ctx, keys, watched, changes, initial, out)
	return out, nil
}

func (db *DB) watchLoop(ctx context.Context, keys []Key, watched map[string]struct{}, changes <-chan [][]byte, last []Entry, out chan<- []Entry) {
	defer close(out)

	if !send(ctx, out, last) {
		return
	}

	var tick <-chan time.Time
	if changes == nil {
		ticker := time.NewTicker(db.pollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-changes:
			if !ok {
				return
			}
			if !touches(batch, watched) {
				continue
			}
		case <-tick:
		}

		current, err := db.GetMany(ctx, keys)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// transient read failure, the next change retries
			continue
		}
		if sameVersions(last, current) {
			continue
		}
		last = current
		if !send(ctx, out, current) {
			return
		}
	}
}

func send(ctx context.Context, out chan<- []Entry, entries []Entry) bool {
	select {
	case out <- entries:
		return true
	case <-ctx.Done():
		return false
	}
}

func touches(batch [][]byte, watched map[string]struct{}) bool {
	for _, k := range batch {
		if _, ok := watched[string(k)]; ok {
			return true
		}
	}
	return false
}

func sameVersions(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Versionstamp != b[i].Versionstamp {
			return false
		}
	}
	return true
}
