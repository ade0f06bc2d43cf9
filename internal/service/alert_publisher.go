package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portal-metrics-api/internal/metrics"
)

// Alert scopes carried on published events.
const (
	AlertScopeStudent = "student"
	AlertScopeSystem  = "system"
)

// AlertEvent is the message published for a batch of alerts.
type AlertEvent struct {
	Scope  string          `json:"scope"`
	UserID string          `json:"userId,omitempty"`
	Alerts []metrics.Alert `json:"alerts"`
	SentAt time.Time       `json:"sentAt"`
}

// AlertPublisher fans freshly computed alerts out to subscribers.
type AlertPublisher interface {
	PublishStudentAlerts(ctx context.Context, studentID string, alerts []metrics.Alert) error
	PublishSystemAlerts(ctx context.Context, alerts []metrics.Alert) error
}

type alertPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
	now     func() time.Time
}

func alertSubject(channelBase string) string {
	if channelBase == "" {
		channelBase = "portal"
	}
	return fmt.Sprintf("%s.alerts", channelBase)
}

// NewAlertPublisher publishes to "<channelBase>.alerts". A nil connection
// yields a publisher that drops every event.
func NewAlertPublisher(conn *nats.Conn, channelBase string, logger zerolog.Logger) AlertPublisher {
	return &alertPublisher{
		conn:    conn,
		subject: alertSubject(channelBase),
		logger:  logger.With().Str("component", "alert_publisher").Logger(),
		now:     time.Now,
	}
}

func (p *alertPublisher) PublishStudentAlerts(ctx context.Context, studentID string, alerts []metrics.Alert) error {
	return p.publish(ctx, AlertEvent{Scope: AlertScopeStudent, UserID: studentID, Alerts: alerts})
}

func (p *alertPublisher) PublishSystemAlerts(ctx context.Context, alerts []metrics.Alert) error {
	return p.publish(ctx, AlertEvent{Scope: AlertScopeSystem, Alerts: alerts})
}

func (p *alertPublisher) publish(ctx context.Context, event AlertEvent) error {
	if p.conn == nil || len(event.Alerts) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	event.SentAt = p.now().UTC()
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish alerts: %w", err)
	}

	p.logger.Debug().Str("scope", event.Scope).Str("user_id", event.UserID).Int("count", len(event.Alerts)).Msg("alerts published")
	return nil
}
