package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newProviderServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" || r.PostForm.Get("code_verifier") == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer access-123":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"email":       "jeff@example.com",
				"given_name":  "Jeff",
				"family_name": "Delaney",
				"picture":     "https://example.com/p.png",
			})
		case "Bearer no-email":
			_ = json.NewEncoder(w).Encode(map[string]string{"given_name": "Anon"})
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(srv *httptest.Server, now func() time.Time) *Provider {
	return NewGoogleProvider("client", "secret", "http://localhost:8080/auth/callback", testSecret,
		WithEndpoints(oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}, srv.URL+"/userinfo"),
		WithHTTPClient(srv.Client()),
		WithClock(now),
	)
}

func callbackRequest(state, cookieValue, code string) *http.Request {
	q := url.Values{"state": {state}, "code": {code}}
	r := httptest.NewRequest(http.MethodGet, "/auth/callback?"+q.Encode(), nil)
	if cookieValue != "" {
		r.AddCookie(&http.Cookie{Name: StateCookieName, Value: cookieValue})
	}
	return r
}

func TestProvider_Flow(t *testing.T) {
	srv := newProviderServer(t)
	p := newTestProvider(srv, time.Now)

	authURL, cookie, err := p.Begin()
	require.NoError(t, err)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, StateCookieName, cookie.Name)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "/auth", u.Path)
	assert.Equal(t, cookie.Value, u.Query().Get("state"))
	assert.Equal(t, "S256", u.Query().Get("code_challenge_method"))
	assert.NotEmpty(t, u.Query().Get("code_challenge"))

	cb, err := p.HandleCallback(context.Background(), callbackRequest(cookie.Value, cookie.Value, "good-code"))
	require.NoError(t, err)
	assert.Equal(t, "access-123", cb.AccessToken)
	_, err = uuid.Parse(cb.SessionID)
	assert.NoError(t, err)

	profile, err := p.FetchProfile(context.Background(), cb.AccessToken)
	require.NoError(t, err)
	user := profile.User()
	assert.Equal(t, "jeff@example.com", user.EmailAddress)
	assert.Equal(t, "Jeff", user.FirstName)
	assert.Equal(t, "Delaney", user.LastName)
	assert.Equal(t, "https://example.com/p.png", user.AvatarURL)
}

func TestProvider_HandleCallback_Errors(t *testing.T) {
	srv := newProviderServer(t)
	start := time.Now()
	now := start
	p := newTestProvider(srv, func() time.Time { return now })

	_, cookie, err := p.Begin()
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     *http.Request
		advance time.Duration
		wantErr error
	}{
		{name: "Нет куки состояния", req: callbackRequest(cookie.Value, "", "good-code"), wantErr: ErrInvalidState},
		{name: "Состояние не совпадает", req: callbackRequest("other", cookie.Value, "good-code"), wantErr: ErrInvalidState},
		{name: "Подделанное состояние", req: callbackRequest("a.b.c", "a.b.c", "good-code"), wantErr: ErrInvalidState},
		{name: "Состояние истекло", req: callbackRequest(cookie.Value, cookie.Value, "good-code"), advance: 11 * time.Minute, wantErr: ErrInvalidState},
		{name: "Неверный код", req: callbackRequest(cookie.Value, cookie.Value, "bad-code")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now = start.Add(tt.advance)
			_, err := p.HandleCallback(context.Background(), tt.req)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestProvider_FetchProfile_Errors(t *testing.T) {
	srv := newProviderServer(t)
	p := newTestProvider(srv, time.Now)

	_, err := p.FetchProfile(context.Background(), "no-email")
	assert.ErrorIs(t, err, ErrNoEmail)

	_, err = p.FetchProfile(context.Background(), "revoked")
	assert.Error(t, err)
}

func TestClearStateCookie(t *testing.T) {
	c := ClearStateCookie()
	assert.Equal(t, StateCookieName, c.Name)
	assert.Empty(t, c.Value)
	assert.Negative(t, c.MaxAge)
}
