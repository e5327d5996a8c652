package sessions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
	"linkframe/internal/kv"
	"linkframe/internal/kv/keys"
)

// CookieName is the cookie carrying the raw session id.
const CookieName = "session"

type Store struct {
	store kv.Store
	log   zerolog.Logger
	now   func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(store kv.Store, log zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		store: store,
		log:   log.With().Str("component", "sessions").Logger(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseCookies splits a Cookie header on ";" and each pair on its first
// "=". Pairs without a name or without "=" are dropped.
func ParseCookies(header string) map[string]string {
	cookies := make(map[string]string)
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok || name == "" {
			continue
		}
		cookies[name] = value
	}
	return cookies
}

// CreateSession stores the session unconditionally. The id comes from
// the OAuth flow and must already be random.
func (s *Store) CreateSession(ctx context.Context, sessionID, emailAddress string) (models.Session, error) {
	if sessionID == "" || emailAddress == "" {
		return models.Session{}, models.ErrInvalidData
	}

	session := models.Session{
		ID:           sessionID,
		EmailAddress: emailAddress,
		CreatedAt:    s.now().UTC(),
	}
	value, err := kv.Marshal(session)
	if err != nil {
		return models.Session{}, err
	}
	if _, err := s.store.Set(ctx, keys.Session{ID: sessionID}.Key(), value); err != nil {
		return models.Session{}, fmt.Errorf("store session: %w", err)
	}
	return session, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (models.Session, error) {
	if sessionID == "" {
		return models.Session{}, models.ErrUnfound
	}

	entry, err := s.store.Get(ctx, keys.Session{ID: sessionID}.Key())
	if err != nil {
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}
	session, ok, err := kv.Unmarshal[models.Session](entry)
	if err != nil {
		return models.Session{}, err
	}
	if !ok {
		return models.Session{}, models.ErrUnfound
	}
	session.ID = sessionID
	return session, nil
}

// GetCurrentSession resolves the session named by the cookie header.
// ErrUnfound covers an empty header, a missing or empty session cookie
// and an unknown id.
func (s *Store) GetCurrentSession(ctx context.Context, cookieHeader string) (models.Session, error) {
	sessionID := ParseCookies(cookieHeader)[CookieName]
	if sessionID == "" {
		return models.Session{}, models.ErrUnfound
	}

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, keys.Session{ID: sessionID}.Key()); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteCurrentSession returns the id it deleted, or ErrUnfound when the
// header names no stored session.
func (s *Store) DeleteCurrentSession(ctx context.Context, cookieHeader string) (string, error) {
	session, err := s.GetCurrentSession(ctx, cookieHeader)
	if err != nil {
		return "", err
	}
	if err := s.DeleteSession(ctx, session.ID); err != nil {
		return "", err
	}
	s.log.Debug().Str("email", session.EmailAddress).Msg("session deleted")
	return session.ID, nil
}

// UpsertUser overwrites the profile on every login.
func (s *Store) UpsertUser(ctx context.Context, user models.User) error {
	if user.EmailAddress == "" {
		return models.ErrInvalidData
	}
	value, err := kv.Marshal(user)
	if err != nil {
		return err
	}
	if _, err := s.store.Set(ctx, keys.User{EmailAddress: user.EmailAddress}.Key(), value); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, emailAddress string) (models.User, error) {
	if emailAddress == "" {
		return models.User{}, models.ErrUnfound
	}

	entry, err := s.store.Get(ctx, keys.User{EmailAddress: emailAddress}.Key())
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	user, ok, err := kv.Unmarshal[models.User](entry)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, models.ErrUnfound
	}
	return user, nil
}

func (s *Store) GetCurrentUser(ctx context.Context, cookieHeader string) (models.User, error) {
	session, err := s.GetCurrentSession(ctx, cookieHeader)
	if err != nil {
		return models.User{}, err
	}
	return s.GetUser(ctx, session.EmailAddress)
}

// DeleteUser removes the profile only. Links and the ownership index stay.
func (s *Store) DeleteUser(ctx context.Context, emailAddress string) error {
	if emailAddress == "" {
		return models.ErrInvalidData
	}
	if err := s.store.Delete(ctx, keys.User{EmailAddress: emailAddress}.Key()); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
