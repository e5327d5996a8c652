package analytics

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
	"linkframe/internal/events"
	"linkframe/internal/kv"
	"linkframe/internal/kv/keys"
	"linkframe/internal/metrics"
)

const (
	defaultMaxAttempts     = 8
	defaultInitialInterval = 5 * time.Millisecond
	defaultMaxInterval     = 200 * time.Millisecond
)

var errCheckFailed = errors.New("link changed since read")

type Recorder struct {
	store     kv.Store
	publisher events.ClickPublisher
	metrics   *metrics.Metrics
	log       zerolog.Logger
	now       func() time.Time

	maxAttempts     uint
	initialInterval time.Duration
	maxInterval     time.Duration
}

type Option func(*Recorder)

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

func WithPublisher(p events.ClickPublisher) Option {
	return func(r *Recorder) {
		if p != nil {
			r.publisher = p
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// WithRetry sets the commit attempt bound and the backoff between
// attempts.
func WithRetry(maxAttempts uint, initial, ceiling time.Duration) Option {
	return func(r *Recorder) {
		if maxAttempts > 0 {
			r.maxAttempts = maxAttempts
		}
		if initial > 0 {
			r.initialInterval = initial
		}
		if ceiling > 0 {
			r.maxInterval = ceiling
		}
	}
}

func NewRecorder(store kv.Store, log zerolog.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		store:           store,
		publisher:       events.Noop{},
		log:             log.With().Str("component", "analytics").Logger(),
		now:             time.Now,
		maxAttempts:     defaultMaxAttempts,
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordClick increments the link's click count and appends the event
// keyed by the new count in one commit guarded by the link's versionstamp.
// A concurrent click fails the check; the click is then re-read and retried
// with exponential backoff. Exhausted retries return ErrConflict, a
// missing link returns ErrUnfound.
func (r *Recorder) RecordClick(ctx context.Context, shortCode string, fields models.ClickFields) (models.AnalyticsEvent, error) {
	if shortCode == "" {
		return models.AnalyticsEvent{}, models.ErrInvalidData
	}

	attempts := 0
	op := func() (models.AnalyticsEvent, error) {
		attempts++
		event, err := r.tryRecord(ctx, shortCode, fields)
		if err == nil || errors.Is(err, errCheckFailed) {
			return event, err
		}
		return event, backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval

	event, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.maxAttempts),
	)
	if err != nil {
		if errors.Is(err, errCheckFailed) {
			r.observe("conflict", attempts)
			r.log.Warn().
				Str("short_code", shortCode).
				Int("attempts", attempts).
				Msg("click not recorded, too much contention")
			return models.AnalyticsEvent{}, fmt.Errorf("record click %s after %d attempts: %w", shortCode, attempts, models.ErrConflict)
		}
		if errors.Is(err, models.ErrUnfound) {
			r.observe("unfound", attempts)
		} else {
			r.observe("error", attempts)
		}
		return models.AnalyticsEvent{}, err
	}

	r.observe("recorded", attempts)

	if err := r.publisher.PublishClick(ctx, event); err != nil {
		r.log.Warn().Err(err).Str("short_code", shortCode).Msg("click event not published")
	}

	return event, nil
}

func (r *Recorder) tryRecord(ctx context.Context, shortCode string, fields models.ClickFields) (models.AnalyticsEvent, error) {
	linkKey := keys.ShortLink{ShortCode: shortCode}.Key()

	entry, err := r.store.Get(ctx, linkKey)
	if err != nil {
		return models.AnalyticsEvent{}, fmt.Errorf("read link %s: %w", shortCode, err)
	}
	link, ok, err := kv.Unmarshal[models.ShortLink](entry)
	if err != nil {
		return models.AnalyticsEvent{}, err
	}
	if !ok {
		return models.AnalyticsEvent{}, models.ErrUnfound
	}

	next := link.ClickCount + 1
	eventKey := keys.Analytics{ShortCode: shortCode, SequenceNumber: next}

	event := models.AnalyticsEvent{
		ShortCode:      shortCode,
		SequenceNumber: next,
		IPAddress:      fields.IPAddress,
		UserAgent:      fields.UserAgent,
		Country:        fields.Country,
		CreatedAt:      r.now().UTC(),
	}
	link.ClickCount = next
	link.LastClickEvent = eventKey.String()

	linkValue, err := kv.Marshal(link)
	if err != nil {
		return models.AnalyticsEvent{}, err
	}
	eventValue, err := kv.Marshal(event)
	if err != nil {
		return models.AnalyticsEvent{}, err
	}

	res, err := r.store.Atomic().
		Check(entry).
		Set(linkKey, linkValue).
		Set(eventKey.Key(), eventValue).
		Commit(ctx)
	if err != nil {
		return models.AnalyticsEvent{}, fmt.Errorf("commit click %s: %w", shortCode, err)
	}
	if !res.OK {
		return models.AnalyticsEvent{}, errCheckFailed
	}
	return event, nil
}

func (r *Recorder) observe(result string, attempts int) {
	if r.metrics == nil {
		return
	}
	r.metrics.Clicks.WithLabelValues(result).Inc()
	if result == "recorded" {
		r.metrics.ClickAttempts.Observe(float64(attempts))
	}
}

func (r *Recorder) GetEvent(ctx context.Context, shortCode string, seq int64) (models.AnalyticsEvent, error) {
	if shortCode == "" || seq < 1 {
		return models.AnalyticsEvent{}, models.ErrInvalidData
	}

	entry, err := r.store.Get(ctx, keys.Analytics{ShortCode: shortCode, SequenceNumber: seq}.Key())
	if err != nil {
		return models.AnalyticsEvent{}, fmt.Errorf("get event %s/%d: %w", shortCode, seq, err)
	}
	event, ok, err := kv.Unmarshal[models.AnalyticsEvent](entry)
	if err != nil {
		return models.AnalyticsEvent{}, err
	}
	if !ok {
		return models.AnalyticsEvent{}, models.ErrUnfound
	}
	return event, nil
}

// ListEvents returns the link's events in sequence order, newest first
// when reverse is set.
func (r *Recorder) ListEvents(ctx context.Context, shortCode string, reverse bool) iter.Seq2[models.AnalyticsEvent, error] {
	return func(yield func(models.AnalyticsEvent, error) bool) {
		if shortCode == "" {
			yield(models.AnalyticsEvent{}, models.ErrInvalidData)
			return
		}
		for e, err := range r.store.List(ctx, keys.AnalyticsPrefix(shortCode), kv.ListOptions{Reverse: reverse}) {
			if err != nil {
				yield(models.AnalyticsEvent{}, fmt.Errorf("scan events: %w", err))
				return
			}
			event, _, err := kv.Unmarshal[models.AnalyticsEvent](e)
			if !yield(event, err) || err != nil {
				return
			}
		}
	}
}
