package me

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
	"linkframe/internal/http/dto"
	"linkframe/internal/http/httputils"
)

//go:generate mockgen -destination=../../../../mocks/user_getter_mock.go -package=mocks linkframe/internal/http/handlers/user/me UserGetter
type UserGetter interface {
	GetUser(ctx context.Context, emailAddress string) (models.User, error)
}

func HandlerCurrentUser(svc UserGetter, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		session, ok := httputils.SessionFromContext(ctx)
		if !ok {
			httputils.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		user, err := svc.GetUser(ctx, session.EmailAddress)
		if err != nil {
			if errors.Is(err, models.ErrUnfound) {
				httputils.WriteJSONError(w, http.StatusNotFound, "not found")
				return
			}
			log.Error().Err(err).Msg("failed to get user")
			httputils.WriteJSONError(w, http.StatusInternalServerError, "failed to get user")
			return
		}

		httputils.WriteJSONResponse(w, http.StatusOK, dto.UserFromDomain(user))
	}
}
