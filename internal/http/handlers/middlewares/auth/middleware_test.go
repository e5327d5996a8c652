package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"linkframe/internal/domain/models"
	"linkframe/internal/http/httputils"
	"linkframe/internal/mocks"
)

// echoSession отвечает email из контекста или "anonymous"
func echoSession() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := httputils.SessionFromContext(r.Context())
		if !ok {
			httputils.WriteTextResponse(w, http.StatusOK, "anonymous")
			return
		}
		httputils.WriteTextResponse(w, http.StatusOK, s.EmailAddress)
	})
}

func TestMiddlewareSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockResolver := mocks.NewMockSessionResolver(ctrl)

	tests := []struct {
		name         string
		cookie       string
		setupMock    func()
		expectedBody string
	}{
		{
			name:         "Без куки сервис не вызывается",
			setupMock:    func() {},
			expectedBody: "anonymous",
		},
		{
			name:   "Сессия найдена",
			cookie: "session=sid",
			setupMock: func() {
				mockResolver.EXPECT().
					GetCurrentSession(gomock.Any(), "session=sid").
					Return(models.Session{ID: "sid", EmailAddress: "jeff@example.com"}, nil)
			},
			expectedBody: "jeff@example.com",
		},
		{
			name:   "Неизвестная сессия",
			cookie: "session=gone",
			setupMock: func() {
				mockResolver.EXPECT().
					GetCurrentSession(gomock.Any(), "session=gone").
					Return(models.Session{}, models.ErrUnfound)
			},
			expectedBody: "anonymous",
		},
		{
			name:   "Ошибка хранилища не блокирует запрос",
			cookie: "session=sid",
			setupMock: func() {
				mockResolver.EXPECT().
					GetCurrentSession(gomock.Any(), "session=sid").
					Return(models.Session{}, errors.New("db down"))
			},
			expectedBody: "anonymous",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.Header.Set("Cookie", tt.cookie)
			}
			rec := httptest.NewRecorder()

			MiddlewareSession(mockResolver, zerolog.Nop())(echoSession()).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.expectedBody, rec.Body.String())
		})
	}
}

func TestRequireSessionAndAdmin(t *testing.T) {
	admins := []string{"root@example.com"}

	tests := []struct {
		name        string
		session     *models.Session
		sessionCode int
		adminCode   int
	}{
		{name: "Аноним", sessionCode: http.StatusUnauthorized, adminCode: http.StatusUnauthorized},
		{name: "Пользователь", session: &models.Session{EmailAddress: "jeff@example.com"}, sessionCode: http.StatusOK, adminCode: http.StatusForbidden},
		{name: "Администратор", session: &models.Session{EmailAddress: "root@example.com"}, sessionCode: http.StatusOK, adminCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newReq := func() *http.Request {
				req := httptest.NewRequest(http.MethodGet, "/admin/links", nil)
				if tt.session != nil {
					req = req.WithContext(httputils.WithSession(req.Context(), *tt.session))
				}
				return req
			}

			rec := httptest.NewRecorder()
			RequireSession(echoSession()).ServeHTTP(rec, newReq())
			assert.Equal(t, tt.sessionCode, rec.Code)

			rec = httptest.NewRecorder()
			RequireAdmin(admins)(echoSession()).ServeHTTP(rec, newReq())
			assert.Equal(t, tt.adminCode, rec.Code)
		})
	}
}

func TestRequireLinkOwner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLinks := mocks.NewMockLinkResolver(ctrl)
	admins := []string{"root@example.com"}
	owned := models.ShortLink{ShortCode: "abc", OwnerEmail: "secret.owner@example.com"}

	tests := []struct {
		name         string
		session      *models.Session
		setupMock    func()
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Аноним",
			setupMock:    func() {},
			expectedCode: http.StatusUnauthorized,
			expectedBody: `{"error":"authentication required"}`,
		},
		{
			name:    "Чужая ссылка",
			session: &models.Session{EmailAddress: "jeff@example.com"},
			setupMock: func() {
				mockLinks.EXPECT().Resolve(gomock.Any(), "abc").Return(owned, nil)
			},
			expectedCode: http.StatusForbidden,
			expectedBody: `{"error":"forbidden"}`,
		},
		{
			name:    "Владелец",
			session: &models.Session{EmailAddress: "secret.owner@example.com"},
			setupMock: func() {
				mockLinks.EXPECT().Resolve(gomock.Any(), "abc").Return(owned, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:    "Администратор",
			session: &models.Session{EmailAddress: "root@example.com"},
			setupMock: func() {
				mockLinks.EXPECT().Resolve(gomock.Any(), "abc").Return(owned, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:    "Ссылки нет",
			session: &models.Session{EmailAddress: "jeff@example.com"},
			setupMock: func() {
				mockLinks.EXPECT().Resolve(gomock.Any(), "abc").Return(models.ShortLink{}, models.ErrUnfound)
			},
			expectedCode: http.StatusNotFound,
			expectedBody: `{"error":"not found"}`,
		},
		{
			name:    "Ошибка хранилища",
			session: &models.Session{EmailAddress: "jeff@example.com"},
			setupMock: func() {
				mockLinks.EXPECT().Resolve(gomock.Any(), "abc").Return(models.ShortLink{}, errors.New("db down"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"failed to resolve link"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			req := httptest.NewRequest(http.MethodGet, "/api/links/abc/clicks", nil)
			req = mux.SetURLVars(req, map[string]string{"shortCode": "abc"})
			if tt.session != nil {
				req = req.WithContext(httputils.WithSession(req.Context(), *tt.session))
			}
			rec := httptest.NewRecorder()

			RequireLinkOwner(mockLinks, admins, zerolog.Nop())(echoSession()).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, rec.Body.String())
			} else {
				assert.Equal(t, tt.session.EmailAddress, rec.Body.String())
			}
		})
	}
}
