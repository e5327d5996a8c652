package shortcode

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"linkframe/internal/domain/models"
)

// Length of every generated code: 8 hash bytes in unpadded base64url.
const Length = 11

type Generator struct {
	now func() time.Time
}

type Option func(*Generator)

// WithClock заменяет источник времени (для тестов)
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate hashes longURL together with the current time in milliseconds,
// so the same URL shortened twice gets two different codes.
func (g *Generator) Generate(longURL string) (string, error) {
	if err := ValidateURL(longURL); err != nil {
		return "", err
	}

	ms := g.now().UnixMilli()
	sum := sha256.Sum256([]byte(longURL + strconv.FormatInt(ms, 10)))

	return base64.RawURLEncoding.EncodeToString(sum[:8]), nil
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", models.ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", models.ErrInvalidURL)
	}
	return nil
}
