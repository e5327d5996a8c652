package links

import (
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"linkframe/internal/domain/models"
	"linkframe/internal/http/dto"
	"linkframe/internal/mocks"
)

func TestHandlerGetAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLinks := mocks.NewMockAllLinks(ctrl)

	t.Run("Все ссылки", func(t *testing.T) {
		mockLinks.EXPECT().ListAll(gomock.Any()).Return(iter.Seq2[models.ShortLink, error](
			func(yield func(models.ShortLink, error) bool) {
				for _, code := range []string{"a", "b", "c"} {
					if !yield(models.ShortLink{ShortCode: code, OwnerEmail: code + "@example.com"}, nil) {
						return
					}
				}
			}))

		rec := httptest.NewRecorder()
		HandlerGetAll(mockLinks, "http://localhost:8080", zerolog.Nop()).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/links", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var got []dto.AdminLinkResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 3)
		assert.Equal(t, "http://localhost:8080/b", got[1].ShortURL)
		assert.Equal(t, "c@example.com", got[2].OwnerEmail)
	})

	t.Run("Ошибка чтения", func(t *testing.T) {
		mockLinks.EXPECT().ListAll(gomock.Any()).Return(iter.Seq2[models.ShortLink, error](
			func(yield func(models.ShortLink, error) bool) {
				yield(models.ShortLink{}, errors.New("scan failed"))
			}))

		rec := httptest.NewRecorder()
		HandlerGetAll(mockLinks, "http://localhost:8080", zerolog.Nop()).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/links", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
