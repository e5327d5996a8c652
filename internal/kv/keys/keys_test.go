package keys

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkframe/internal/kv"
)

func roundTrip(t *testing.T, key kv.Key) kv.Key {
	t.Helper()
	b, err := key.Encode()
	require.NoError(t, err)
	decoded, err := kv.DecodeKey(b)
	require.NoError(t, err)
	return decoded
}

func TestParse_RoundTrip(t *testing.T) {
	link, err := ParseShortLink(roundTrip(t, ShortLink{ShortCode: "abc"}.Key()))
	require.NoError(t, err)
	assert.Equal(t, ShortLink{ShortCode: "abc"}, link)

	idx := OwnerIndex{OwnerEmail: "jeff@example.com", ShortCode: "abc"}
	parsedIdx, err := ParseOwnerIndex(roundTrip(t, idx.Key()))
	require.NoError(t, err)
	assert.Equal(t, idx, parsedIdx)

	ev := Analytics{ShortCode: "abc", SequenceNumber: 42}
	parsedEv, err := ParseAnalytics(roundTrip(t, ev.Key()))
	require.NoError(t, err)
	assert.Equal(t, ev, parsedEv)
	assert.Equal(t, "analytics/abc/42", ev.String())
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		parse func() error
	}{
		{name: "Ключ пользователя вместо ссылки", parse: func() error {
			_, err := ParseShortLink(User{EmailAddress: "a@b.c"}.Key())
			return err
		}},
		{name: "Код ссылки не строка", parse: func() error {
			_, err := ParseShortLink(kv.Key{"shortlinks", int64(1)})
			return err
		}},
		{name: "Индекс без кода", parse: func() error {
			_, err := ParseOwnerIndex(OwnerIndexPrefix("a@b.c"))
			return err
		}},
		{name: "Событие со строковым номером", parse: func() error {
			_, err := ParseAnalytics(kv.Key{"analytics", "abc", "1"})
			return err
		}},
		{name: "Ключ сессии вместо события", parse: func() error {
			_, err := ParseAnalytics(Session{ID: "sid"}.Key())
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.parse(), kv.ErrInvalidKey)
		})
	}
}

func TestAnalytics_SequenceOrder(t *testing.T) {
	// события одной ссылки идут по номеру, а не лексикографически
	first, err := Analytics{ShortCode: "abc", SequenceNumber: 9}.Key().Encode()
	require.NoError(t, err)
	second, err := Analytics{ShortCode: "abc", SequenceNumber: 10}.Key().Encode()
	require.NoError(t, err)
	assert.Negative(t, bytes.Compare(first, second))

	prefix, err := AnalyticsPrefix("abc").Encode()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(first, prefix))
}

func TestOwnerIndex_UnderUserKey(t *testing.T) {
	user, err := User{EmailAddress: "jeff@example.com"}.Key().Encode()
	require.NoError(t, err)
	idx, err := OwnerIndex{OwnerEmail: "jeff@example.com", ShortCode: "abc"}.Key().Encode()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(idx, user))

	other, err := OwnerIndexPrefix("jeff@example.co").Encode()
	require.NoError(t, err)
	assert.False(t, bytes.HasPrefix(idx, other))
}
