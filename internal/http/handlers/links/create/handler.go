package create

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
	"linkframe/internal/http/dto"
	"linkframe/internal/http/httputils"
)

//go:generate mockgen -destination=../../../../mocks/link_shortener_mock.go -package=mocks linkframe/internal/http/handlers/links/create LinkShortener
type LinkShortener interface {
	Shorten(ctx context.Context, longURL, ownerEmail string) (models.ShortLink, error)
}

func HandlerCreateLink(svc LinkShortener, baseURL string, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		session, ok := httputils.SessionFromContext(ctx)
		if !ok {
			httputils.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		var req dto.CreateLinkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputils.WriteJSONError(w, http.StatusBadRequest, models.ErrInvalidData.Error())
			return
		}
		if err := dto.Validate(req); err != nil {
			httputils.WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		link, err := svc.Shorten(ctx, req.URL, session.EmailAddress)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInvalidURL), errors.Is(err, models.ErrInvalidData):
				httputils.WriteJSONError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, models.ErrConflict):
				log.Warn().Err(err).Msg("no free short code")
				httputils.WriteJSONError(w, http.StatusConflict, "could not allocate short code")
			default:
				log.Error().Err(err).Msg("failed to create link")
				httputils.WriteJSONError(w, http.StatusInternalServerError, "failed to create link")
			}
			return
		}

		httputils.WriteJSONResponse(w, http.StatusCreated, dto.LinkFromDomain(link, baseURL))
	}
}

// curl -X POST http://localhost:8080/api/links -b 'session=...' -d '{"url":"https://fireship.io"}'
