package create_text

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
	"linkframe/internal/http/httputils"
)

const maxBodySize = 4 << 10

type LinkShortener interface {
	Shorten(ctx context.Context, longURL, ownerEmail string) (models.ShortLink, error)
}

// HandlerCreateLinkText принимает URL телом text/plain и отвечает короткой
// ссылкой тем же форматом.
func HandlerCreateLinkText(svc LinkShortener, baseURL string, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		session, ok := httputils.SessionFromContext(ctx)
		if !ok {
			httputils.WriteTextError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			httputils.WriteTextError(w, http.StatusBadRequest, models.ErrInvalidData.Error())
			return
		}
		defer r.Body.Close()

		longURL := strings.TrimSpace(string(body))
		if longURL == "" {
			httputils.WriteTextError(w, http.StatusBadRequest, models.ErrInvalidData.Error())
			return
		}

		link, err := svc.Shorten(ctx, longURL, session.EmailAddress)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInvalidURL), errors.Is(err, models.ErrInvalidData):
				httputils.WriteTextError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, models.ErrConflict):
				httputils.WriteTextError(w, http.StatusConflict, "could not allocate short code")
			default:
				log.Error().Err(err).Msg("failed to create link")
				httputils.WriteTextError(w, http.StatusInternalServerError, "failed to create link")
			}
			return
		}

		httputils.WriteTextResponse(w, http.StatusCreated, httputils.BuildShortURL(baseURL, link.ShortCode))
	}
}

// curl -X POST http://localhost:8080/ -b 'session=...' -H 'Content-Type: text/plain' -d 'https://fireship.io'
