package signout

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
	"linkframe/internal/http/httputils"
)

//go:generate mockgen -destination=../../../../mocks/session_deleter_mock.go -package=mocks linkframe/internal/http/handlers/auth/signout SessionDeleter
type SessionDeleter interface {
	DeleteCurrentSession(ctx context.Context, cookieHeader string) (string, error)
}

// HandlerSignOut удаляет сессию и куку. Выход без сессии тоже успешен.
func HandlerSignOut(svc SessionDeleter, secure bool, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := svc.DeleteCurrentSession(r.Context(), r.Header.Get(httputils.HeaderCookie))
		if err != nil && !errors.Is(err, models.ErrUnfound) {
			log.Error().Err(err).Msg("failed to delete session")
		}

		http.SetCookie(w, httputils.ClearSessionCookie(secure))
		http.Redirect(w, r, "/", http.StatusFound)
	}
}
