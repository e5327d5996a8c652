package signin

import (
	"net/http"

	"github.com/rs/zerolog"

	"linkframe/internal/http/httputils"
)

//go:generate mockgen -destination=../../../../mocks/auth_starter_mock.go -package=mocks linkframe/internal/http/handlers/auth/signin AuthStarter
type AuthStarter interface {
	Begin() (string, *http.Cookie, error)
}

// HandlerSignIn ставит куку состояния и уводит на страницу провайдера
func HandlerSignIn(svc AuthStarter, secure bool, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authURL, cookie, err := svc.Begin()
		if err != nil {
			log.Error().Err(err).Msg("failed to start sign in")
			httputils.WriteTextError(w, http.StatusInternalServerError, "sign in unavailable")
			return
		}

		cookie.Secure = secure
		http.SetCookie(w, cookie)
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}
