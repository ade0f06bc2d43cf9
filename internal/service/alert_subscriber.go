package service

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const alertStreamBuffer = 16

// AlertSubscriber streams the alert events addressed to one student.
type AlertSubscriber interface {
	Subscribe(studentID string) (<-chan AlertEvent, func(), error)
}

type natsAlertSubscriber struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewAlertSubscriber listens on "<channelBase>.alerts". Without a connection
// the returned streams stay open but never deliver.
func NewAlertSubscriber(conn *nats.Conn, channelBase string, logger zerolog.Logger) AlertSubscriber {
	return &natsAlertSubscriber{
		conn:    conn,
		subject: alertSubject(channelBase),
		logger:  logger.With().Str("component", "alert_subscriber").Logger(),
	}
}

func (s *natsAlertSubscriber) Subscribe(studentID string) (<-chan AlertEvent, func(), error) {
	events := make(chan AlertEvent, alertStreamBuffer)
	if s.conn == nil {
		return events, func() {}, nil
	}

	done := make(chan struct{})
	sub, err := s.conn.Subscribe(s.subject, func(msg *nats.Msg) {
		s.deliver(studentID, msg.Data, events, done)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("subscribe alerts: %w", err)
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			close(done)
			if err := sub.Unsubscribe(); err != nil {
				s.logger.Debug().Err(err).Str("student_id", studentID).Msg("failed to unsubscribe alert stream")
			}
		})
	}
	return events, cleanup, nil
}

// deliver forwards one published payload when it targets the student. A full
// buffer drops the event rather than stalling the NATS dispatcher.
func (s *natsAlertSubscriber) deliver(studentID string, payload []byte, events chan<- AlertEvent, done <-chan struct{}) {
	var event AlertEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("discarding malformed alert event")
		return
	}
	if event.Scope != AlertScopeStudent || event.UserID != studentID {
		return
	}

	select {
	case <-done:
	case events <- event:
	default:
		s.logger.Warn().Str("student_id", studentID).Int("count", len(event.Alerts)).Msg("alert stream backlog full, event dropped")
	}
}
