package callback

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"linkframe/internal/domain/models"
	"linkframe/internal/mocks"
	"linkframe/internal/services/oauth"
)

func TestHandlerCallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthenticator(ctrl)
	mockAccounts := mocks.NewMockAccounts(ctrl)

	profile := oauth.Profile{Email: "jeff@example.com", GivenName: "Jeff", FamilyName: "Delaney"}
	cb := oauth.Callback{SessionID: "sid-1", AccessToken: "token"}

	tests := []struct {
		name          string
		setupMock     func()
		expectSession bool
	}{
		{
			name: "Успешный вход",
			setupMock: func() {
				mockAuth.EXPECT().HandleCallback(gomock.Any(), gomock.Any()).Return(cb, nil)
				mockAuth.EXPECT().FetchProfile(gomock.Any(), "token").Return(profile, nil)
				mockAccounts.EXPECT().UpsertUser(gomock.Any(), profile.User()).Return(nil)
				mockAccounts.EXPECT().
					CreateSession(gomock.Any(), "sid-1", "jeff@example.com").
					Return(models.Session{ID: "sid-1", EmailAddress: "jeff@example.com"}, nil)
			},
			expectSession: true,
		},
		{
			name: "Неверное состояние",
			setupMock: func() {
				mockAuth.EXPECT().HandleCallback(gomock.Any(), gomock.Any()).Return(oauth.Callback{}, oauth.ErrInvalidState)
			},
		},
		{
			name: "Профиль без email",
			setupMock: func() {
				mockAuth.EXPECT().HandleCallback(gomock.Any(), gomock.Any()).Return(cb, nil)
				mockAuth.EXPECT().FetchProfile(gomock.Any(), "token").Return(oauth.Profile{}, oauth.ErrNoEmail)
			},
		},
		{
			name: "Ошибка сохранения сессии",
			setupMock: func() {
				mockAuth.EXPECT().HandleCallback(gomock.Any(), gomock.Any()).Return(cb, nil)
				mockAuth.EXPECT().FetchProfile(gomock.Any(), "token").Return(profile, nil)
				mockAccounts.EXPECT().UpsertUser(gomock.Any(), gomock.Any()).Return(nil)
				mockAccounts.EXPECT().
					CreateSession(gomock.Any(), "sid-1", "jeff@example.com").
					Return(models.Session{}, errors.New("db down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=s", nil)
			rec := httptest.NewRecorder()

			HandlerCallback(mockAuth, mockAccounts, false, zerolog.Nop()).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/", rec.Header().Get("Location"))

			cookies := map[string]*http.Cookie{}
			for _, c := range rec.Result().Cookies() {
				cookies[c.Name] = c
			}

			state, ok := cookies[oauth.StateCookieName]
			require.True(t, ok, "state cookie is always cleared")
			assert.Empty(t, state.Value)

			session, ok := cookies["session"]
			if !tt.expectSession {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, "sid-1", session.Value)
			assert.True(t, session.HttpOnly)
			assert.Equal(t, http.SameSiteLaxMode, session.SameSite)
		})
	}
}
