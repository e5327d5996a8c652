// Package oauth runs the Google authorization code flow with PKCE. The
// state and verifier travel in a short-lived signed cookie, so the server
// keeps nothing between sign-in and callback.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"linkframe/internal/domain/models"
)

const (
	StateCookieName = "oauth_state"
	stateTTL        = 10 * time.Minute
	googleUserInfo  = "https://www.googleapis.com/oauth2/v3/userinfo"
)

var (
	ErrInvalidState = errors.New("invalid oauth state")
	ErrNoEmail      = errors.New("profile has no email")
)

// Callback is what a completed authorization yields.
type Callback struct {
	SessionID   string
	AccessToken string
}

type Profile struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// User maps the profile to the stored user record.
func (p Profile) User() models.User {
	return models.User{
		EmailAddress: p.Email,
		FirstName:    p.GivenName,
		LastName:     p.FamilyName,
		AvatarURL:    p.Picture,
	}
}

type stateClaims struct {
	jwt.RegisteredClaims
	Verifier string `json:"verifier"`
}

type Provider struct {
	config      *oauth2.Config
	secret      []byte
	userInfoURL string
	client      *http.Client
	now         func() time.Time
}

type Option func(*Provider)

// WithEndpoints overrides the provider URLs (tests).
func WithEndpoints(endpoint oauth2.Endpoint, userInfoURL string) Option {
	return func(p *Provider) {
		p.config.Endpoint = endpoint
		p.userInfoURL = userInfoURL
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.client = client
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string, stateSecret []byte, opts ...Option) *Provider {
	p := &Provider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		},
		secret:      stateSecret,
		userInfoURL: googleUserInfo,
		client:      &http.Client{Timeout: 10 * time.Second},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Begin returns the provider URL to redirect to and the state cookie that
// must be set on the same response.
func (p *Provider) Begin() (string, *http.Cookie, error) {
	now := p.now()
	verifier := oauth2.GenerateVerifier()

	claims := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
		Verifier: verifier,
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign state: %w", err)
	}

	authURL := p.config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
	cookie := &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return authURL, cookie, nil
}

// HandleCallback checks the returned state against the state cookie and
// exchanges the code. The session id is minted here.
func (p *Provider) HandleCallback(ctx context.Context, r *http.Request) (Callback, error) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		return Callback{}, fmt.Errorf("provider returned %q", e)
	}

	cookie, err := r.Cookie(StateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != q.Get("state") {
		return Callback{}, ErrInvalidState
	}

	var claims stateClaims
	_, err = jwt.ParseWithClaims(cookie.Value, &claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return Callback{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	code := q.Get("code")
	if code == "" {
		return Callback{}, fmt.Errorf("%w: missing code", models.ErrInvalidData)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	token, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(claims.Verifier))
	if err != nil {
		return Callback{}, fmt.Errorf("exchange code: %w", err)
	}
	if token.AccessToken == "" {
		return Callback{}, errors.New("token response has no access token")
	}

	return Callback{SessionID: uuid.NewString(), AccessToken: token.AccessToken}, nil
}

// FetchProfile reads the user profile. A profile without email is an
// error: the email is the user key.
func (p *Provider) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return Profile{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: userinfo: %v", models.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return Profile{}, fmt.Errorf("userinfo status %d: %s", resp.StatusCode, body)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Profile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if profile.Email == "" {
		return Profile{}, ErrNoEmail
	}
	return profile, nil
}

// ClearStateCookie expires the state cookie after the callback.
func ClearStateCookie() *http.Cookie {
	return &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
