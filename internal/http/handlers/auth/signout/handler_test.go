package signout

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"linkframe/internal/domain/models"
	"linkframe/internal/mocks"
)

func TestHandlerSignOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDeleter := mocks.NewMockSessionDeleter(ctrl)

	tests := []struct {
		name      string
		cookie    string
		setupMock func()
	}{
		{
			name:   "Сессия удалена",
			cookie: "session=sid-1",
			setupMock: func() {
				mockDeleter.EXPECT().DeleteCurrentSession(gomock.Any(), "session=sid-1").Return("sid-1", nil)
			},
		},
		{
			name: "Сессии нет",
			setupMock: func() {
				mockDeleter.EXPECT().DeleteCurrentSession(gomock.Any(), "").Return("", models.ErrUnfound)
			},
		},
		{
			name:   "Ошибка хранилища",
			cookie: "session=sid-2",
			setupMock: func() {
				mockDeleter.EXPECT().DeleteCurrentSession(gomock.Any(), "session=sid-2").Return("", errors.New("db down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			req := httptest.NewRequest(http.MethodGet, "/signout", nil)
			if tt.cookie != "" {
				req.Header.Set("Cookie", tt.cookie)
			}
			rec := httptest.NewRecorder()

			HandlerSignOut(mockDeleter, true, zerolog.Nop()).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/", rec.Header().Get("Location"))
			assert.Contains(t, rec.Header().Get("Set-Cookie"), "session=;")
			assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
			assert.Contains(t, rec.Header().Get("Set-Cookie"), "Secure")
		})
	}
}
