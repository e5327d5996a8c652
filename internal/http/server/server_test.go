package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkframe/internal/config"
	"linkframe/internal/domain/models"
	"linkframe/internal/http/dto"
	"linkframe/internal/kv/inmemory"
	"linkframe/internal/metrics"
	"linkframe/internal/services/analytics"
	"linkframe/internal/services/embed"
	"linkframe/internal/services/links"
	"linkframe/internal/services/sessions"
	"linkframe/internal/services/shortcode"
)

type testEnv struct {
	srv      *Server
	sessions *sessions.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := inmemory.New()
	t.Cleanup(func() { _ = store.Close() })

	log := zerolog.Nop()
	m := metrics.New()
	sess := sessions.NewStore(store, log)

	srv, err := NewServer(&log, config.Config{
		ServerAddress: "localhost:0",
		BaseURL:       "http://lf.test",
		AdminEmails:   []string{"root@example.com"},
	}, Deps{
		Store:    store,
		Links:    links.NewRegistry(store, shortcode.NewGenerator(), log, links.WithCreateHook(m.LinksCreated.Inc)),
		Clicks:   analytics.NewRecorder(store, log, analytics.WithMetrics(m)),
		Sessions: sess,
		Embed:    embed.NewClassifier(log, embed.WithMetrics(m)),
		Metrics:  m,
	})
	require.NoError(t, err)

	return &testEnv{srv: srv, sessions: sess}
}

func (e *testEnv) do(method, target, body, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) signIn(t *testing.T, sid, email string) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.sessions.UpsertUser(ctx, models.User{EmailAddress: email, FirstName: "Test"}))
	_, err := e.sessions.CreateSession(ctx, sid, email)
	require.NoError(t, err)
	return "session=" + sid
}

func TestServer_LinkLifecycle(t *testing.T) {
	env := newTestEnv(t)
	jeff := env.signIn(t, "sid-jeff", "jeff@example.com")

	rec := env.do(http.MethodPost, "/api/links", `{"url":"https://fireship.io"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/links", `{"url":"https://fireship.io"}`, jeff)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created dto.LinkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created.ShortCode, shortcode.Length)
	assert.Equal(t, "http://lf.test/"+created.ShortCode, created.ShortURL)

	rec = env.do(http.MethodGet, "/"+created.ShortCode, "", "")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://fireship.io", rec.Header().Get("Location"))

	rec = env.do(http.MethodGet, "/api/links/"+created.ShortCode, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got dto.LinkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.EqualValues(t, 1, got.ClickCount)
	assert.Equal(t, "analytics/"+created.ShortCode+"/1", got.LastClickEvent)

	assert.NotContains(t, rec.Body.String(), "jeff@example.com")

	// клики видят только владелец и администраторы
	bob := env.signIn(t, "sid-bob", "bob@example.com")
	for cookie, want := range map[string]int{"": http.StatusUnauthorized, bob: http.StatusForbidden} {
		rec = env.do(http.MethodGet, "/api/links/"+created.ShortCode+"/clicks", "", cookie)
		assert.Equal(t, want, rec.Code)
		rec = env.do(http.MethodGet, "/api/links/"+created.ShortCode+"/clicks/1", "", cookie)
		assert.Equal(t, want, rec.Code)
	}

	rec = env.do(http.MethodGet, "/api/links/"+created.ShortCode+"/clicks/1", "", jeff)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/links/"+created.ShortCode+"/clicks", "", jeff)
	require.Equal(t, http.StatusOK, rec.Code)
	var clicks []dto.ClickEventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &clicks))
	assert.Len(t, clicks, 1)

	rec = env.do(http.MethodGet, "/api/user/links", "", jeff)
	require.Equal(t, http.StatusOK, rec.Code)
	var owned []dto.LinkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &owned))
	require.Len(t, owned, 1)
	assert.Equal(t, created.ShortCode, owned[0].ShortCode)

	rec = env.do(http.MethodGet, "/api/user", "", jeff)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jeff@example.com")

	rec = env.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `linkframe_clicks_total{result="recorded"} 1`)
	assert.Contains(t, rec.Body.String(), "linkframe_links_created_total 1")
}

func TestServer_Routes(t *testing.T) {
	env := newTestEnv(t)
	jeff := env.signIn(t, "sid-jeff", "jeff@example.com")
	root := env.signIn(t, "sid-root", "root@example.com")

	tests := []struct {
		name   string
		method string
		target string
		body   string
		cookie string
		want   int
	}{
		{name: "Пинг", method: http.MethodGet, target: "/ping", want: http.StatusOK},
		{name: "Неизвестный код", method: http.MethodGet, target: "/nope", want: http.StatusNotFound},
		{name: "Невалидный URL для проверки", method: http.MethodPost, target: "/api/check-embed", body: `{"url":"nope"}`, want: http.StatusBadRequest},
		{name: "Админка анониму", method: http.MethodGet, target: "/admin/links", want: http.StatusUnauthorized},
		{name: "Админка пользователю", method: http.MethodGet, target: "/admin/links", cookie: jeff, want: http.StatusForbidden},
		{name: "Админка администратору", method: http.MethodGet, target: "/admin/links", cookie: root, want: http.StatusOK},
		{name: "Вход не настроен", method: http.MethodGet, target: "/signin", want: http.StatusServiceUnavailable},
		{name: "Выход", method: http.MethodGet, target: "/signout", cookie: jeff, want: http.StatusFound},
		{name: "Создание текстом", method: http.MethodPost, target: "/", body: "https://example.com", cookie: root, want: http.StatusCreated},
		{name: "Текущий пользователь без сессии", method: http.MethodGet, target: "/api/user", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.method, tt.target, tt.body, tt.cookie)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	// после выхода сессия недействительна
	rec := env.do(http.MethodGet, "/api/user", "", jeff)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNewServer_Validation(t *testing.T) {
	log := zerolog.Nop()

	_, err := NewServer(&log, config.Config{}, Deps{})
	assert.Error(t, err)

	_, err = NewServer(nil, config.Config{ServerAddress: "localhost:0"}, Deps{})
	assert.Error(t, err)

	_, err = NewServer(&log, config.Config{ServerAddress: "localhost:0"}, Deps{})
	assert.Error(t, err)
}
