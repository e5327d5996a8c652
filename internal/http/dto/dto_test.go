package dto

import (
	"encoding/json"
	"testing"

	"linkframe/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_CreateLinkRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateLinkRequest
		wantErr bool
	}{
		{name: "Валидный URL", req: CreateLinkRequest{URL: "https://fireship.io"}},
		{name: "Пустой URL", req: CreateLinkRequest{}, wantErr: true},
		{name: "Не URL", req: CreateLinkRequest{URL: "fireship"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrInvalidData)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLinkFromDomain(t *testing.T) {
	resp := LinkFromDomain(models.ShortLink{ShortCode: "abc", LongURL: "https://fireship.io", ClickCount: 3}, "http://localhost:8080")
	assert.Equal(t, "http://localhost:8080/abc", resp.ShortURL)
	assert.Equal(t, "https://fireship.io", resp.LongURL)
	assert.EqualValues(t, 3, resp.ClickCount)
}

func TestLinkResponse_OwnerOnlyForAdmin(t *testing.T) {
	link := models.ShortLink{ShortCode: "abc", LongURL: "https://fireship.io", OwnerEmail: "secret.owner@example.com"}

	public, err := json.Marshal(LinkFromDomain(link, "http://localhost:8080"))
	require.NoError(t, err)
	assert.NotContains(t, string(public), "secret.owner@example.com")
	assert.NotContains(t, string(public), "owner_email")

	admin, err := json.Marshal(AdminLinkFromDomain(link, "http://localhost:8080"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"short_code":"abc","short_url":"http://localhost:8080/abc","long_url":"https://fireship.io",`+
		`"owner_email":"secret.owner@example.com","click_count":0,"created_at":"0001-01-01T00:00:00Z"}`, string(admin))
}
