package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
	"linkframe/internal/http/dto"
	"linkframe/internal/http/httputils"
	"linkframe/internal/metrics"
)

//go:generate mockgen -destination=../../../../mocks/link_watcher_mock.go -package=mocks linkframe/internal/http/handlers/links/watch LinkWatcher
type LinkWatcher interface {
	Watch(ctx context.Context, shortCode string) (<-chan models.ShortLink, error)
}

// HandlerWatchLink отдает счетчик кликов потоком server-sent events, пока
// клиент не отключится или ссылка не будет удалена.
func HandlerWatchLink(svc LinkWatcher, m *metrics.Metrics, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["shortCode"]

		flusher, ok := w.(http.Flusher)
		if !ok {
			httputils.WriteJSONError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		updates, err := svc.Watch(r.Context(), code)
		if err != nil {
			if errors.Is(err, models.ErrUnfound) || errors.Is(err, models.ErrInvalidData) {
				httputils.WriteJSONError(w, http.StatusNotFound, "not found")
				return
			}
			log.Error().Err(err).Str("short_code", code).Msg("failed to watch link")
			httputils.WriteJSONError(w, http.StatusInternalServerError, "failed to watch link")
			return
		}

		if m != nil {
			m.ActiveWatchers.Inc()
			defer m.ActiveWatchers.Dec()
		}

		// поток живет дольше WriteTimeout сервера
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

		w.Header().Set(httputils.HeaderContentType, httputils.MIMEEventStream)
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for link := range updates {
			data, err := json.Marshal(dto.ClickCountEvent{ShortCode: link.ShortCode, ClickCount: link.ClickCount})
			if err != nil {
				log.Error().Err(err).Msg("encode click count")
				return
			}
			if _, err := fmt.Fprintf(w, "event: clicks\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// curl -N http://localhost:8080/api/links/abc/watch
