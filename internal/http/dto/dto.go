package dto

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"linkframe/internal/domain/models"
	"linkframe/internal/http/httputils"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate проверяет поля запроса по тегам validate
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		msgs := make([]string, 0, len(validationErrors))
		for _, fe := range validationErrors {
			msgs = append(msgs, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", models.ErrInvalidData, strings.Join(msgs, ", "))
	}
	return fmt.Errorf("%w: %v", models.ErrInvalidData, err)
}

// Request
type (
	CheckEmbedRequest struct {
		URL string `json:"url"`
	}

	CreateLinkRequest struct {
		URL string `json:"url" validate:"required,url,max=2048"`
	}
)

// Response
type (
	LinkResponse struct {
		ShortCode      string    `json:"short_code"`
		ShortURL       string    `json:"short_url"`
		LongURL        string    `json:"long_url"`
		ClickCount     int64     `json:"click_count"`
		LastClickEvent string    `json:"last_click_event,omitempty"`
		CreatedAt      time.Time `json:"created_at"`
	}

	// AdminLinkResponse добавляет владельца, отдается только администраторам
	AdminLinkResponse struct {
		LinkResponse
		OwnerEmail string `json:"owner_email"`
	}

	ClickEventResponse struct {
		ShortCode      string    `json:"short_code"`
		SequenceNumber int64     `json:"sequence_number"`
		UserAgent      string    `json:"user_agent"`
		Country        string    `json:"country,omitempty"`
		CreatedAt      time.Time `json:"created_at"`
	}

	UserResponse struct {
		EmailAddress string `json:"email_address"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		AvatarURL    string `json:"avatar_url"`
	}

	// ClickCountEvent отправляется подписчикам SSE
	ClickCountEvent struct {
		ShortCode  string `json:"short_code"`
		ClickCount int64  `json:"click_count"`
	}
)

// Domain → Response
func LinkFromDomain(l models.ShortLink, baseURL string) LinkResponse {
	return LinkResponse{
		ShortCode:      l.ShortCode,
		ShortURL:       httputils.BuildShortURL(baseURL, l.ShortCode),
		LongURL:        l.LongURL,
		ClickCount:     l.ClickCount,
		LastClickEvent: l.LastClickEvent,
		CreatedAt:      l.CreatedAt,
	}
}

func AdminLinkFromDomain(l models.ShortLink, baseURL string) AdminLinkResponse {
	return AdminLinkResponse{
		LinkResponse: LinkFromDomain(l, baseURL),
		OwnerEmail:   l.OwnerEmail,
	}
}

// IP адрес не отдается наружу
func ClickEventFromDomain(e models.AnalyticsEvent) ClickEventResponse {
	return ClickEventResponse{
		ShortCode:      e.ShortCode,
		SequenceNumber: e.SequenceNumber,
		UserAgent:      e.UserAgent,
		Country:        e.Country,
		CreatedAt:      e.CreatedAt,
	}
}

func UserFromDomain(u models.User) UserResponse {
	return UserResponse(u)
}
