package watch

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"linkframe/internal/domain/models"
	"linkframe/internal/metrics"
	"linkframe/internal/mocks"
)

func TestHandlerWatchLink(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWatcher := mocks.NewMockLinkWatcher(ctrl)
	m := metrics.New()

	t.Run("Поток счетчиков", func(t *testing.T) {
		updates := make(chan models.ShortLink, 2)
		updates <- models.ShortLink{ShortCode: "abc", ClickCount: 0}
		updates <- models.ShortLink{ShortCode: "abc", ClickCount: 1}
		close(updates)

		mockWatcher.EXPECT().
			Watch(gomock.Any(), "abc").
			Return((<-chan models.ShortLink)(updates), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/links/abc/watch", nil)
		req = mux.SetURLVars(req, map[string]string{"shortCode": "abc"})
		rec := httptest.NewRecorder()

		HandlerWatchLink(mockWatcher, m, zerolog.Nop()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
		assert.Equal(t, "event: clicks\ndata: {\"short_code\":\"abc\",\"click_count\":0}\n\n"+
			"event: clicks\ndata: {\"short_code\":\"abc\",\"click_count\":1}\n\n", rec.Body.String())
		assert.True(t, rec.Flushed)
		assert.Zero(t, testutil.ToFloat64(m.ActiveWatchers))
	})

	t.Run("Ссылка не найдена", func(t *testing.T) {
		mockWatcher.EXPECT().
			Watch(gomock.Any(), "missing").
			Return(nil, models.ErrUnfound)

		req := httptest.NewRequest(http.MethodGet, "/api/links/missing/watch", nil)
		req = mux.SetURLVars(req, map[string]string{"shortCode": "missing"})
		rec := httptest.NewRecorder()

		HandlerWatchLink(mockWatcher, m, zerolog.Nop()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
	})
}
