package models

import (
	"errors"
	"time"
)

type (
	ShortLink struct {
		ShortCode      string    `json:"short_code"`
		LongURL        string    `json:"long_url"`
		OwnerEmail     string    `json:"owner_email"`
		ClickCount     int64     `json:"click_count"`
		LastClickEvent string    `json:"last_click_event,omitempty"` // ключ последнего AnalyticsEvent
		CreatedAt      time.Time `json:"created_at"`
	}

	// AnalyticsEvent неизменяем после записи, SequenceNumber = ClickCount+1 на момент клика
	AnalyticsEvent struct {
		ShortCode      string    `json:"short_code"`
		SequenceNumber int64     `json:"sequence_number"`
		IPAddress      string    `json:"ip_address"`
		UserAgent      string    `json:"user_agent"`
		Country        string    `json:"country,omitempty"`
		CreatedAt      time.Time `json:"created_at"`
	}

	// ClickFields - данные запроса, из которых строится AnalyticsEvent
	ClickFields struct {
		IPAddress string
		UserAgent string
		Country   string
	}

	Session struct {
		ID           string    `json:"-"`
		EmailAddress string    `json:"email_address"`
		CreatedAt    time.Time `json:"created_at"`
	}

	User struct {
		EmailAddress string `json:"email_address"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		AvatarURL    string `json:"avatar_url"`
	}
)

var (
	ErrInvalidData = errors.New("invalid input data")
	ErrInvalidURL  = errors.New("invalid url")
	ErrUnfound     = errors.New("unfound data")
	ErrConflict    = errors.New("concurrent modification")
	ErrNetwork     = errors.New("network error")
)
