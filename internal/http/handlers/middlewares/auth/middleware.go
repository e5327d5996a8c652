package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
	"linkframe/internal/http/httputils"
)

//go:generate mockgen -destination=../../../../mocks/session_resolver_mock.go -package=mocks linkframe/internal/http/handlers/middlewares/auth SessionResolver
type SessionResolver interface {
	GetCurrentSession(ctx context.Context, cookieHeader string) (models.Session, error)
}

type LinkResolver interface {
	Resolve(ctx context.Context, shortCode string) (models.ShortLink, error)
}

// MiddlewareSession кладет текущую сессию в контекст, если кука session
// указывает на существующую сессию. Анонимные запросы проходят дальше.
func MiddlewareSession(svc SessionResolver, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(httputils.HeaderCookie)
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := svc.GetCurrentSession(r.Context(), header)
			switch {
			case err == nil:
				r = r.WithContext(httputils.WithSession(r.Context(), session))
			case errors.Is(err, models.ErrUnfound):
			default:
				log.Error().Err(err).Msg("session lookup failed")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession отвечает 401, если в контексте нет сессии
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := httputils.SessionFromContext(r.Context()); !ok {
			httputils.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin пропускает только адреса из admins
func RequireAdmin(admins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := httputils.SessionFromContext(r.Context())
			if !ok {
				httputils.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !slices.Contains(admins, session.EmailAddress) {
				httputils.WriteJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLinkOwner пускает к данным ссылки {shortCode} только ее владельца
// и адреса из admins.
func RequireLinkOwner(svc LinkResolver, admins []string, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := httputils.SessionFromContext(r.Context())
			if !ok {
				httputils.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			code := mux.Vars(r)["shortCode"]
			link, err := svc.Resolve(r.Context(), code)
			if err != nil {
				if errors.Is(err, models.ErrUnfound) || errors.Is(err, models.ErrInvalidData) {
					httputils.WriteJSONError(w, http.StatusNotFound, "not found")
					return
				}
				log.Error().Err(err).Str("short_code", code).Msg("failed to resolve link owner")
				httputils.WriteJSONError(w, http.StatusInternalServerError, "failed to resolve link")
				return
			}

			if link.OwnerEmail != session.EmailAddress && !slices.Contains(admins, session.EmailAddress) {
				httputils.WriteJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
