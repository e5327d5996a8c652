package events

import (
	"context"
	"iter"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
	"linkframe/internal/http/dto"
	"linkframe/internal/http/httputils"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

//go:generate mockgen -destination=../../../../mocks/event_lister_mock.go -package=mocks linkframe/internal/http/handlers/links/events EventLister
type EventLister interface {
	ListEvents(ctx context.Context, shortCode string, reverse bool) iter.Seq2[models.AnalyticsEvent, error]
}

// HandlerListClickEvents отдает последние клики, новые первыми. ?limit=N
func HandlerListClickEvents(svc EventLister, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["shortCode"]

		limit := defaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				httputils.WriteJSONError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = min(n, maxLimit)
		}

		resp := make([]dto.ClickEventResponse, 0)
		for e, err := range svc.ListEvents(r.Context(), code, true) {
			if err != nil {
				log.Error().Err(err).Str("short_code", code).Msg("failed to list click events")
				httputils.WriteJSONError(w, http.StatusInternalServerError, "failed to list click events")
				return
			}
			resp = append(resp, dto.ClickEventFromDomain(e))
			if len(resp) == limit {
				break
			}
		}

		httputils.WriteJSONResponse(w, http.StatusOK, resp)
	}
}
