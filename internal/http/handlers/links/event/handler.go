package event

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
	"linkframe/internal/http/dto"
	"linkframe/internal/http/httputils"
)

//go:generate mockgen -destination=../../../../mocks/event_getter_mock.go -package=mocks linkframe/internal/http/handlers/links/event EventGetter
type EventGetter interface {
	GetEvent(ctx context.Context, shortCode string, seq int64) (models.AnalyticsEvent, error)
}

func HandlerGetClickEvent(svc EventGetter, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		code := vars["shortCode"]

		seq, err := strconv.ParseInt(vars["seq"], 10, 64)
		if err != nil || seq < 1 {
			httputils.WriteJSONError(w, http.StatusBadRequest, "invalid sequence number")
			return
		}

		event, err := svc.GetEvent(r.Context(), code, seq)
		if err != nil {
			if errors.Is(err, models.ErrUnfound) {
				httputils.WriteJSONError(w, http.StatusNotFound, "not found")
				return
			}
			log.Error().Err(err).Str("short_code", code).Int64("seq", seq).Msg("failed to get click event")
			httputils.WriteJSONError(w, http.StatusInternalServerError, "failed to get click event")
			return
		}

		httputils.WriteJSONResponse(w, http.StatusOK, dto.ClickEventFromDomain(event))
	}
}
