package ping

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"linkframe/internal/http/httputils"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

func HandlerPing(store Pinger, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			log.Error().Err(err).Msg("store ping failed")
			httputils.WriteTextError(w, http.StatusInternalServerError, "store unavailable")
			return
		}
		httputils.WriteTextResponse(w, http.StatusOK, "pong")
	}
}
