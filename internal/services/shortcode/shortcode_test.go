package shortcode

import (
	"regexp"
	"testing"
	"time"

	"linkframe/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGenerator_Generate(t *testing.T) {
	instant := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{name: "https ссылка", url: "https://fireship.io"},
		{name: "http ссылка с путем", url: "http://example.com/a/b?c=d"},
		{name: "пустая строка", url: "", wantErr: models.ErrInvalidURL},
		{name: "не URL", url: "not a url", wantErr: models.ErrInvalidURL},
		{name: "ftp схема", url: "ftp://example.com/file", wantErr: models.ErrInvalidURL},
		{name: "javascript схема", url: "javascript:alert(1)", wantErr: models.ErrInvalidURL},
		{name: "без хоста", url: "https://", wantErr: models.ErrInvalidURL},
	}

	g := NewGenerator(WithClock(fixedClock(instant)))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := g.Generate(tt.url)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, code)
				return
			}

			require.NoError(t, err)
			assert.Len(t, code, Length)
			assert.Regexp(t, codePattern, code)
		})
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	instant := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	a, err := NewGenerator(WithClock(fixedClock(instant))).Generate("https://fireship.io")
	require.NoError(t, err)
	b, err := NewGenerator(WithClock(fixedClock(instant))).Generate("https://fireship.io")
	require.NoError(t, err)
	assert.Equal(t, a, b, "один и тот же момент времени дает один и тот же код")

	c, err := NewGenerator(WithClock(fixedClock(instant.Add(time.Millisecond)))).Generate("https://fireship.io")
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "другой момент времени дает другой код")

	d, err := NewGenerator(WithClock(fixedClock(instant))).Generate("https://example.com")
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}
