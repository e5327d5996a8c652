package signin

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"linkframe/internal/mocks"
)

func TestHandlerSignIn(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStarter := mocks.NewMockAuthStarter(ctrl)

	t.Run("Редирект к провайдеру", func(t *testing.T) {
		mockStarter.EXPECT().Begin().Return("https://accounts.example/auth?state=s",
			&http.Cookie{Name: "oauth_state", Value: "s", Path: "/", HttpOnly: true}, nil)

		rec := httptest.NewRecorder()
		HandlerSignIn(mockStarter, true, zerolog.Nop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/signin", nil))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://accounts.example/auth?state=s", rec.Header().Get("Location"))
		cookies := rec.Result().Cookies()
		if assert.Len(t, cookies, 1) {
			assert.Equal(t, "s", cookies[0].Value)
			assert.True(t, cookies[0].Secure)
		}
	})

	t.Run("Ошибка подписи состояния", func(t *testing.T) {
		mockStarter.EXPECT().Begin().Return("", nil, errors.New("sign failed"))

		rec := httptest.NewRecorder()
		HandlerSignIn(mockStarter, false, zerolog.Nop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/signin", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
