package links

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
	"linkframe/internal/kv"
	"linkframe/internal/kv/keys"
)

const (
	defaultShortenAttempts = 5
	listBatchSize          = 100
)

//go:generate mockgen -destination=../../mocks/code_generator_mock.go -package=mocks linkframe/internal/services/links CodeGenerator
type CodeGenerator interface {
	Generate(longURL string) (string, error)
}

type Registry struct {
	store    kv.Store
	gen      CodeGenerator
	log      zerolog.Logger
	now      func() time.Time
	attempts uint
	onCreate func()
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithShortenAttempts bounds how many fresh codes Shorten tries.
func WithShortenAttempts(n uint) Option {
	return func(r *Registry) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithCreateHook is called after every successful Create.
func WithCreateHook(fn func()) Option {
	return func(r *Registry) {
		r.onCreate = fn
	}
}

func NewRegistry(store kv.Store, gen CodeGenerator, log zerolog.Logger, opts ...Option) *Registry {
	r := &Registry{
		store:    store,
		gen:      gen,
		log:      log.With().Str("component", "links").Logger(),
		now:      time.Now,
		attempts: defaultShortenAttempts,
		onCreate: func() {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create writes the link and its ownership index entry in one commit. An
// existing link under shortCode fails the whole commit with ErrConflict.
func (r *Registry) Create(ctx context.Context, longURL, shortCode, ownerEmail string) (models.ShortLink, error) {
	if shortCode == "" || ownerEmail == "" || longURL == "" {
		return models.ShortLink{}, models.ErrInvalidData
	}

	linkKey := keys.ShortLink{ShortCode: shortCode}.Key()
	link := models.ShortLink{
		ShortCode:  shortCode,
		LongURL:    longURL,
		OwnerEmail: ownerEmail,
		CreatedAt:  r.now().UTC(),
	}

	value, err := kv.Marshal(link)
	if err != nil {
		return models.ShortLink{}, err
	}

	res, err := r.store.Atomic().
		Check(kv.Entry{Key: linkKey}). // ключ должен отсутствовать
		Set(linkKey, value).
		Set(keys.OwnerIndex{OwnerEmail: ownerEmail, ShortCode: shortCode}.Key(), []byte("null")).
		Commit(ctx)
	if err != nil {
		return models.ShortLink{}, fmt.Errorf("create link %s: %w", shortCode, err)
	}
	if !res.OK {
		return models.ShortLink{}, fmt.Errorf("short code %s: %w", shortCode, models.ErrConflict)
	}

	r.onCreate()
	r.log.Debug().
		Str("short_code", shortCode).
		Str("owner", ownerEmail).
		Msg("short link created")

	return link, nil
}

// Shorten generates a code for longURL and creates the link, minting a new
// code on collision up to the configured number of attempts.
func (r *Registry) Shorten(ctx context.Context, longURL, ownerEmail string) (models.ShortLink, error) {
	op := func() (models.ShortLink, error) {
		code, err := r.gen.Generate(longURL)
		if err != nil {
			return models.ShortLink{}, backoff.Permanent(err)
		}

		link, err := r.Create(ctx, longURL, code, ownerEmail)
		if errors.Is(err, models.ErrConflict) {
			r.log.Warn().Str("short_code", code).Msg("short code collision, retrying")
			return models.ShortLink{}, err
		}
		if err != nil {
			return models.ShortLink{}, backoff.Permanent(err)
		}
		return link, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Millisecond
	b.MaxInterval = 50 * time.Millisecond

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.attempts),
	)
}

func (r *Registry) Resolve(ctx context.Context, shortCode string) (models.ShortLink, error) {
	if shortCode == "" {
		return models.ShortLink{}, models.ErrInvalidData
	}

	entry, err := r.store.Get(ctx, keys.ShortLink{ShortCode: shortCode}.Key())
	if err != nil {
		return models.ShortLink{}, fmt.Errorf("resolve %s: %w", shortCode, err)
	}

	link, ok, err := kv.Unmarshal[models.ShortLink](entry)
	if err != nil {
		return models.ShortLink{}, err
	}
	if !ok {
		return models.ShortLink{}, models.ErrUnfound
	}
	return link, nil
}

// ListByOwner scans the owner's index and reads the referenced links in
// batches. Index entries whose link is gone are skipped. The links are
// read after the index, so the result may lag concurrent writes.
func (r *Registry) ListByOwner(ctx context.Context, ownerEmail string) iter.Seq2[models.ShortLink, error] {
	return func(yield func(models.ShortLink, error) bool) {
		if ownerEmail == "" {
			yield(models.ShortLink{}, models.ErrInvalidData)
			return
		}

		batch := make([]kv.Key, 0, listBatchSize)
		flush := func() bool {
			if len(batch) == 0 {
				return true
			}
			entries, err := r.store.GetMany(ctx, batch)
			batch = batch[:0]
			if err != nil {
				yield(models.ShortLink{}, fmt.Errorf("read owner links: %w", err))
				return false
			}
			for _, e := range entries {
				link, ok, err := kv.Unmarshal[models.ShortLink](e)
				if err != nil {
					yield(models.ShortLink{}, err)
					return false
				}
				if !ok {
					continue
				}
				if !yield(link, nil) {
					return false
				}
			}
			return true
		}

		index := r.store.List(ctx, keys.OwnerIndexPrefix(ownerEmail), kv.ListOptions{BatchSize: listBatchSize})
		for e, err := range index {
			if err != nil {
				yield(models.ShortLink{}, fmt.Errorf("scan owner index: %w", err))
				return
			}
			idx, err := keys.ParseOwnerIndex(e.Key)
			if err != nil {
				yield(models.ShortLink{}, err)
				return
			}
			batch = append(batch, keys.ShortLink{ShortCode: idx.ShortCode}.Key())
			if len(batch) == listBatchSize && !flush() {
				return
			}
		}
		flush()
	}
}

// ListAll scans every link. Admin only, cost grows with the table.
func (r *Registry) ListAll(ctx context.Context) iter.Seq2[models.ShortLink, error] {
	return func(yield func(models.ShortLink, error) bool) {
		for e, err := range r.store.List(ctx, keys.ShortLinksPrefix(), kv.ListOptions{BatchSize: listBatchSize}) {
			if err != nil {
				yield(models.ShortLink{}, fmt.Errorf("scan links: %w", err))
				return
			}
			link, _, err := kv.Unmarshal[models.ShortLink](e)
			if !yield(link, err) || err != nil {
				return
			}
		}
	}
}

// Watch emits the link now and after every change to it (new clicks). The
// channel closes when ctx is done or the link disappears.
func (r *Registry) Watch(ctx context.Context, shortCode string) (<-chan models.ShortLink, error) {
	if shortCode == "" {
		return nil, models.ErrInvalidData
	}

	ctx, cancel := context.WithCancel(ctx)
	snapshots, err := r.store.Watch(ctx, []kv.Key{keys.ShortLink{ShortCode: shortCode}.Key()})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch %s: %w", shortCode, err)
	}

	first, ok := <-snapshots
	if !ok {
		cancel()
		return nil, fmt.Errorf("watch %s: %w", shortCode, ctx.Err())
	}
	link, found, err := kv.Unmarshal[models.ShortLink](first[0])
	if err != nil {
		cancel()
		return nil, err
	}
	if !found {
		cancel()
		return nil, models.ErrUnfound
	}

	out := make(chan models.ShortLink, 1)
	out <- link

	go func() {
		defer cancel()
		defer close(out)

		for entries := range snapshots {
			link, found, err := kv.Unmarshal[models.ShortLink](entries[0])
			if err != nil {
				r.log.Error().Err(err).Str("short_code", shortCode).Msg("bad link snapshot")
				return
			}
			if !found {
				return
			}
			select {
			case out <- link:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
