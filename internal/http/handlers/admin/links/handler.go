package links

import (
	"context"
	"iter"
	"net/http"

	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
	"linkframe/internal/http/dto"
	"linkframe/internal/http/httputils"
)

//go:generate mockgen -destination=../../../../mocks/all_links_mock.go -package=mocks linkframe/internal/http/handlers/admin/links AllLinks
type AllLinks interface {
	ListAll(ctx context.Context) iter.Seq2[models.ShortLink, error]
}

func HandlerGetAll(svc AllLinks, baseURL string, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := log.With().Str("handler", "HandlerGetAll").Logger()

		log.Debug().Msg("fetching all links")

		resp := make([]dto.AdminLinkResponse, 0)
		for link, err := range svc.ListAll(ctx) {
			if err != nil {
				log.Error().Err(err).Msg("failed to get all links")
				httputils.WriteJSONError(w, http.StatusInternalServerError, "failed to get all links")
				return
			}
			resp = append(resp, dto.AdminLinkFromDomain(link, baseURL))
		}

		log.Debug().
			Int("count", len(resp)).
			Msg("successfully retrieved links")

		httputils.WriteJSONResponse(w, http.StatusOK, resp)
	}
}

// curl -v -X GET http://localhost:8080/admin/links -b 'session=...'
