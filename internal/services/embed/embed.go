// Package embed decides whether a page may be shown inside an iframe by
// probing it and reading its framing headers.
package embed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
	"linkframe/internal/metrics"
)

const DefaultTimeout = 5 * time.Second

type Mode string

const (
	ModeIframe   Mode = "iframe"
	ModeExternal Mode = "external"
)

const (
	ReasonInvalidURL     = "invalid-url"
	ReasonNetworkError   = "network-error"
	ReasonXFrameOptions  = "x-frame-options"
	ReasonFrameAncestors = "csp-frame-ancestors"
)

type Result struct {
	Mode   Mode   `json:"mode"`
	Reason string `json:"reason,omitempty"`
}

// Embeddable reports whether the page may be framed.
func (r Result) Embeddable() bool {
	return r.Mode == ModeIframe
}

type Classifier struct {
	client  *http.Client
	timeout time.Duration
	metrics *metrics.Metrics
	log     zerolog.Logger
}

type Option func(*Classifier)

func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Classifier) {
		if client != nil {
			c.client = client
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Classifier) {
		c.metrics = m
	}
}

func NewClassifier(log zerolog.Logger, opts ...Option) *Classifier {
	c := &Classifier{
		client:  &http.Client{},
		timeout: DefaultTimeout,
		log:     log.With().Str("component", "embed").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check validates rawURL, probes it and classifies the response headers.
// Only an invalid URL is returned as an error; probe failures become an
// external result with ReasonNetworkError.
func (c *Classifier) Check(ctx context.Context, rawURL string) (Result, error) {
	target, err := ValidateURL(rawURL)
	if err != nil {
		c.observe(Result{Mode: ModeExternal, Reason: ReasonInvalidURL})
		return Result{Mode: ModeExternal, Reason: ReasonInvalidURL}, err
	}

	headers, err := c.Probe(ctx, target)
	if err != nil {
		c.log.Debug().Err(err).Str("url", target.String()).Msg("probe failed")
		res := Result{Mode: ModeExternal, Reason: ReasonNetworkError}
		c.observe(res)
		return res, nil
	}

	res := Classify(headers)
	c.observe(res)
	return res, nil
}

func (c *Classifier) observe(res Result) {
	if c.metrics != nil {
		c.metrics.EmbedChecks.WithLabelValues(string(res.Mode), res.Reason).Inc()
	}
}

func ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", models.ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", models.ErrInvalidURL)
	}
	return u, nil
}

// Probe sends HEAD, falling back to GET when HEAD is not answered with 2xx,
// and returns the final response headers after redirects. The whole probe
// is bounded by the classifier timeout.
func (c *Classifier) Probe(ctx context.Context, target *url.URL) (http.Header, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.ProbeDuration.Observe(time.Since(start).Seconds())
		}
	}()

	resp, err := c.do(ctx, http.MethodHead, target)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.Header, nil
	}

	// некоторые серверы не отвечают на HEAD
	resp, err = c.do(ctx, http.MethodGet, target)
	if err != nil {
		return nil, err
	}
	return resp.Header, nil
}

func (c *Classifier) do(ctx context.Context, method string, target *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", "linkframe-embed-check/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", models.ErrNetwork, method, target, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
	return resp, nil
}

// Classify reads the framing headers. Any X-Frame-Options value blocks
// framing. A CSP frame-ancestors directive blocks it only when its first
// source is 'none' or 'self'; other source lists are treated as
// embeddable.
func Classify(headers http.Header) Result {
	if headers.Get("X-Frame-Options") != "" {
		return Result{Mode: ModeExternal, Reason: ReasonXFrameOptions}
	}

	for _, policy := range headers.Values("Content-Security-Policy") {
		if restrictsFraming(policy) {
			return Result{Mode: ModeExternal, Reason: ReasonFrameAncestors}
		}
	}

	return Result{Mode: ModeIframe}
}

func restrictsFraming(policy string) bool {
	// несколько политик в одном заголовке разделяются запятой
	for _, p := range strings.Split(policy, ",") {
		for _, directive := range strings.Split(p, ";") {
			fields := strings.Fields(strings.ToLower(directive))
			if len(fields) < 2 || fields[0] != "frame-ancestors" {
				continue
			}
			if fields[1] == "'none'" || fields[1] == "'self'" {
				return true
			}
		}
	}
	return false
}
