package redirect

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
	"linkframe/internal/http/httputils"
)

//go:generate mockgen -destination=../../../../mocks/redirect_mock.go -package=mocks linkframe/internal/http/handlers/links/redirect LinkResolver,ClickRecorder
type LinkResolver interface {
	Resolve(ctx context.Context, shortCode string) (models.ShortLink, error)
}

type ClickRecorder interface {
	RecordClick(ctx context.Context, shortCode string, fields models.ClickFields) (models.AnalyticsEvent, error)
}

// HandlerRedirect записывает клик и перенаправляет на длинный URL. Ошибка
// записи клика не мешает редиректу.
func HandlerRedirect(links LinkResolver, clicks ClickRecorder, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		code := mux.Vars(r)["shortCode"]

		link, err := links.Resolve(ctx, code)
		if err != nil {
			if errors.Is(err, models.ErrUnfound) || errors.Is(err, models.ErrInvalidData) {
				httputils.WriteTextError(w, http.StatusNotFound, "not found")
				return
			}
			log.Error().Err(err).Str("short_code", code).Msg("failed to resolve link")
			httputils.WriteTextError(w, http.StatusInternalServerError, "internal error")
			return
		}

		_, err = clicks.RecordClick(ctx, code, models.ClickFields{
			IPAddress: httputils.ClientIP(r),
			UserAgent: r.UserAgent(),
			Country:   r.Header.Get(httputils.HeaderCountry),
		})
		if err != nil {
			log.Warn().Err(err).Str("short_code", code).Msg("click not recorded")
		}

		http.Redirect(w, r, link.LongURL, http.StatusFound)
	}
}
