// Package events publishes recorded clicks to NATS for downstream
// consumers. Publishing is best effort.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"linkframe/internal/domain/models"
)

const subjectPrefix = "linkframe.clicks."

//go:generate mockgen -destination=../mocks/click_publisher_mock.go -package=mocks linkframe/internal/events ClickPublisher
type ClickPublisher interface {
	PublishClick(ctx context.Context, event models.AnalyticsEvent) error
	Close() error
}

// Subject returns the subject a click on shortCode is published to.
func Subject(shortCode string) string {
	return subjectPrefix + shortCode
}

type NATSPublisher struct {
	conn *nats.Conn
	log  zerolog.Logger
}

func NewNATSPublisher(url string, log zerolog.Logger) (*NATSPublisher, error) {
	log = log.With().Str("component", "events").Logger()

	conn, err := nats.Connect(
		url,
		nats.Name("linkframe"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &NATSPublisher{conn: conn, log: log}, nil
}

func (p *NATSPublisher) PublishClick(ctx context.Context, event models.AnalyticsEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal click: %w", err)
	}
	if err := p.conn.Publish(Subject(event.ShortCode), data); err != nil {
		return fmt.Errorf("publish click: %w", err)
	}
	return nil
}

// Close flushes pending messages before closing the connection.
func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return fmt.Errorf("drain nats: %w", err)
	}
	return nil
}

// Noop is used when no NATS URL is configured.
type Noop struct{}

func (Noop) PublishClick(context.Context, models.AnalyticsEvent) error { return nil }

func (Noop) Close() error { return nil }
