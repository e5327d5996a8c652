package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkframe/internal/kv"
	"linkframe/internal/kv/kvtest"
)

func TestInMemory_Conformance(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Store {
		return New()
	})
}

func TestInMemory_Closed(t *testing.T) {
	store := New()
	require.NoError(t, store.Close())

	_, err := store.Get(context.Background(), kv.Key{"a"})
	assert.ErrorIs(t, err, kv.ErrClosed)
	assert.ErrorIs(t, store.Ping(context.Background()), kv.ErrClosed)
}
