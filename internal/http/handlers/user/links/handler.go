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

//go:generate mockgen -destination=../../../../mocks/owner_links_mock.go -package=mocks linkframe/internal/http/handlers/user/links OwnerLinks
type OwnerLinks interface {
	ListByOwner(ctx context.Context, ownerEmail string) iter.Seq2[models.ShortLink, error]
}

func HandlerUserLinks(svc OwnerLinks, baseURL string, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		session, ok := httputils.SessionFromContext(ctx)
		if !ok {
			httputils.WriteJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		resp := make([]dto.LinkResponse, 0)
		for link, err := range svc.ListByOwner(ctx, session.EmailAddress) {
			if err != nil {
				log.Error().Err(err).Str("owner", session.EmailAddress).Msg("failed to list user links")
				httputils.WriteJSONError(w, http.StatusInternalServerError, "failed to list links")
				return
			}
			resp = append(resp, dto.LinkFromDomain(link, baseURL))
		}

		httputils.WriteJSONResponse(w, http.StatusOK, resp)
	}
}
