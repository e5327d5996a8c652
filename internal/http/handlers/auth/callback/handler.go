package callback

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
	"linkframe/internal/http/httputils"
	"linkframe/internal/services/oauth"
)

//go:generate mockgen -destination=../../../../mocks/callback_mock.go -package=mocks linkframe/internal/http/handlers/auth/callback Authenticator,Accounts
type Authenticator interface {
	HandleCallback(ctx context.Context, r *http.Request) (oauth.Callback, error)
	FetchProfile(ctx context.Context, accessToken string) (oauth.Profile, error)
}

type Accounts interface {
	UpsertUser(ctx context.Context, user models.User) error
	CreateSession(ctx context.Context, sessionID, emailAddress string) (models.Session, error)
}

// HandlerCallback завершает вход: профиль сохраняется, создается сессия.
// При любой ошибке пользователь возвращается на главную, причина только в логе.
func HandlerCallback(auth Authenticator, accounts Accounts, secure bool, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		expired := oauth.ClearStateCookie()
		expired.Secure = secure
		http.SetCookie(w, expired)

		cb, err := auth.HandleCallback(ctx, r)
		if err != nil {
			log.Warn().Err(err).Msg("oauth callback rejected")
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		profile, err := auth.FetchProfile(ctx, cb.AccessToken)
		if err != nil {
			log.Warn().Err(err).Msg("failed to fetch profile")
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		user := profile.User()
		if err := accounts.UpsertUser(ctx, user); err != nil {
			log.Error().Err(err).Str("email", user.EmailAddress).Msg("failed to save user")
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		if _, err := accounts.CreateSession(ctx, cb.SessionID, user.EmailAddress); err != nil {
			log.Error().Err(err).Str("email", user.EmailAddress).Msg("failed to create session")
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		log.Info().Str("email", user.EmailAddress).Msg("user signed in")

		http.SetCookie(w, httputils.SessionCookie(cb.SessionID, secure))
		http.Redirect(w, r, "/", http.StatusFound)
	}
}
