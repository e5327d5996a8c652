package kv

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_EncodePreservesOrder(t *testing.T) {
	// ключи перечислены в порядке возрастания
	ordered := []Key{
		{[]byte{0x00}},
		{"analytics", "abc", -5},
		{"analytics", "abc", 0},
		{"analytics", "abc", 9},
		{"analytics", "abc", 10},
		{"analytics", "abc", 1 << 40},
		{"analytics", "abd", 1},
		{"shortlinks", ""},
		{"shortlinks", "\x00"},
		{"shortlinks", "a"},
		{"shortlinks", "a", false},
		{"shortlinks", "a", true},
		{"shortlinks", "a\x00b"},
		{"shortlinks", "ab"},
		{"shortlinks", "b"},
		{"shortlinks", uint64(0)},
		{"users", 1},
	}

	encoded := make([][]byte, len(ordered))
	for i, k := range ordered {
		b, err := k.Encode()
		require.NoError(t, err, k.String())
		encoded[i] = b
	}

	for i := 1; i < len(encoded); i++ {
		assert.Negative(t, bytes.Compare(encoded[i-1], encoded[i]),
			"%s must sort before %s", ordered[i-1], ordered[i])
	}
}

func TestKey_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want Key
	}{
		{name: "Строки", key: Key{"shortlinks", "abc"}, want: Key{"shortlinks", "abc"}},
		{name: "Нулевые байты", key: Key{"a\x00\x00b", []byte{0, 0xFF, 0}}, want: Key{"a\x00\x00b", []byte{0, 0xFF, 0}}},
		{name: "int становится int64", key: Key{"analytics", "abc", 42}, want: Key{"analytics", "abc", int64(42)}},
		{name: "Отрицательные", key: Key{int64(-1), -1 << 62}, want: Key{int64(-1), int64(-1 << 62)}},
		{name: "uint64 и bool", key: Key{uint64(1<<63 + 1), true, false}, want: Key{uint64(1<<63 + 1), true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.key.Encode()
			require.NoError(t, err)
			got, err := DecodeKey(b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, tt.key.Equal(got))
		})
	}
}

func TestKey_Errors(t *testing.T) {
	_, err := Key{}.Encode()
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = Key{"a", 1.5}.Encode()
	assert.ErrorIs(t, err, ErrUnsupportedKey)

	for _, raw := range [][]byte{nil, {0x02, 'a'}, {0x15, 1, 2}, {0x99}} {
		_, err := DecodeKey(raw)
		assert.ErrorIs(t, err, ErrInvalidKey, "%x", raw)
	}
}

func TestPrefixRange(t *testing.T) {
	prefix, err := Key{"shortlinks"}.Encode()
	require.NoError(t, err)
	start, end := prefixRange(prefix)

	inside, err := Key{"shortlinks", "abc"}.Encode()
	require.NoError(t, err)
	sibling, err := Key{"shortlinksx"}.Encode()
	require.NoError(t, err)

	assert.Positive(t, bytes.Compare(inside, start))
	assert.Negative(t, bytes.Compare(inside, end))
	assert.Negative(t, bytes.Compare(prefix, start), "prefix key itself is excluded")
	assert.False(t, bytes.Compare(sibling, start) >= 0 && bytes.Compare(sibling, end) < 0)
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, `["analytics", "abc", 3]`, Key{"analytics", "abc", 3}.String())
	assert.Equal(t, `[0x00ff, true]`, Key{[]byte{0, 0xFF}, true}.String())
}
