package get

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
	"linkframe/internal/http/dto"
	"linkframe/internal/http/httputils"
)

type LinkResolver interface {
	Resolve(ctx context.Context, shortCode string) (models.ShortLink, error)
}

func HandlerGetLink(svc LinkResolver, baseURL string, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["shortCode"]

		link, err := svc.Resolve(r.Context(), code)
		if err != nil {
			if errors.Is(err, models.ErrUnfound) || errors.Is(err, models.ErrInvalidData) {
				httputils.WriteJSONError(w, http.StatusNotFound, "not found")
				return
			}
			log.Error().Err(err).Str("short_code", code).Msg("failed to resolve link")
			httputils.WriteJSONError(w, http.StatusInternalServerError, "failed to resolve link")
			return
		}

		httputils.WriteJSONResponse(w, http.StatusOK, dto.LinkFromDomain(link, baseURL))
	}
}
