package kv

import (
	"context"
	"fmt"
)

// Versionstamp identifies the commit that last wrote an entry. Engines
// issue them as fixed-width decimal strings so they compare as strings.
// The empty versionstamp means the key does not exist.
type Versionstamp string

// FormatVersionstamp renders a commit sequence number as a Versionstamp.
func FormatVersionstamp(seq uint64) Versionstamp {
	return Versionstamp(fmt.Sprintf("%020d", seq))
}

// RawEntry is an entry addressed by its encoded key.
type RawEntry struct {
	Key          []byte
	Value        []byte
	Versionstamp Versionstamp
}

// RawCheck asserts that the entry stored at Key has the given
// versionstamp, or is absent when Versionstamp is empty.
type RawCheck struct {
	Key          []byte
	Versionstamp Versionstamp
}

// RawMutation sets Key to Value, or deletes Key when Delete is true.
type RawMutation struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Range selects encoded keys in [Start, End).
type Range struct {
	Start   []byte
	End     []byte
	Limit   int
	Reverse bool
}

// Engine is the storage contract an adapter has to satisfy. It works on
// encoded keys only; DB layers tuple keys, paging and watching on top.
type Engine interface {
	// Get returns one entry per key, in order. Missing keys come back with
	// an empty Versionstamp.
	Get(ctx context.Context, keys [][]byte) ([]RawEntry, error)
	// Scan returns up to r.Limit entries in key order. Fewer than r.Limit
	// means the range is exhausted; DB.List stops paging on a short page.
	Scan(ctx context.Context, r Range) ([]RawEntry, error)
	// Commit applies every mutation if all checks hold. ok is false when a
	// check failed; nothing is written in that case.
	Commit(ctx context.Context, checks []RawCheck, mutations []RawMutation) (vs Versionstamp, ok bool, err error)
	Ping(ctx context.Context) error
	Close() error
}

// Notifier is implemented by engines that can push change notifications.
// Each received batch lists the encoded keys touched by one commit.
// Engines without it are watched by polling.
type Notifier interface {
	Subscribe(ctx context.Context) (<-chan [][]byte, error)
}
