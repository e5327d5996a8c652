package check

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
	"linkframe/internal/http/dto"
	"linkframe/internal/http/httputils"
	"linkframe/internal/services/embed"
)

//go:generate mockgen -destination=../../../../mocks/embed_checker_mock.go -package=mocks linkframe/internal/http/handlers/embed/check EmbedChecker
type EmbedChecker interface {
	Check(ctx context.Context, rawURL string) (embed.Result, error)
}

// HandlerCheckEmbed отвечает 400 только на невалидный URL. Сетевые ошибки
// возвращаются как 200 с mode=external.
func HandlerCheckEmbed(svc EmbedChecker, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.CheckEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			// тело не разобрано - считаем, что URL пустой
			req.URL = ""
		}

		res, err := svc.Check(r.Context(), req.URL)
		if err != nil {
			if errors.Is(err, models.ErrInvalidURL) {
				httputils.WriteJSONResponse(w, http.StatusBadRequest, embed.Result{
					Mode:   embed.ModeExternal,
					Reason: embed.ReasonInvalidURL,
				})
				return
			}
			log.Error().Err(err).Str("url", req.URL).Msg("embed check failed")
			httputils.WriteJSONResponse(w, http.StatusOK, embed.Result{
				Mode:   embed.ModeExternal,
				Reason: embed.ReasonNetworkError,
			})
			return
		}

		httputils.WriteJSONResponse(w, http.StatusOK, res)
	}
}

// curl -X POST http://localhost:8080/api/check-embed -d '{"url":"https://fireship.io"}'
