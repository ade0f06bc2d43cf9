package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portal-metrics-api/internal/metrics"
	"github.com/noah-isme/portal-metrics-api/internal/service"
	"github.com/noah-isme/portal-metrics-api/internal/session"
	"github.com/noah-isme/portal-metrics-api/internal/utils"
)

// AlertStreamHandler pushes a student's alerts over server-sent events.
type AlertStreamHandler struct {
	students   service.StudentDashboardService
	subscriber service.AlertSubscriber
	logger     zerolog.Logger
	keepAlive  time.Duration
}

// NewAlertStreamHandler constructs a handler instance.
func NewAlertStreamHandler(students service.StudentDashboardService, subscriber service.AlertSubscriber, keepAlive time.Duration, logger zerolog.Logger) *AlertStreamHandler {
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	return &AlertStreamHandler{
		students:   students,
		subscriber: subscriber,
		logger:     logger.With().Str("component", "alert_stream_handler").Logger(),
		keepAlive:  keepAlive,
	}
}

// Register binds the stream route.
func (h *AlertStreamHandler) Register(router fiber.Router) {
	router.Get("/alerts/stream", h.stream)
}

type alertStreamEvent struct {
	Alerts []metrics.Alert `json:"alerts"`
	SentAt time.Time       `json:"sentAt"`
}

func (h *AlertStreamHandler) stream(c *fiber.Ctx) error {
	sess, err := session.FromContext(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	// The current alerts go out first so a client never waits for a write.
	dashboard, _, err := h.students.GetDashboard(ctx, sess)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load alerts")
	}

	events, cleanup, err := h.subscriber.Subscribe(sess.UserID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to subscribe to alerts")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(ctx)
	logger := requestLogger(h.logger, c).With().Str("user_id", sess.UserID).Logger()
	snapshot := alertStreamEvent{Alerts: dashboard.Alerts, SentAt: time.Now().UTC()}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cleanup()
			cancel()
		}()

		if err := writeAlertEvent(w, snapshot); err != nil {
			logger.Debug().Err(err).Msg("failed to write alert snapshot")
			return
		}

		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				if err := writeAlertEvent(w, alertStreamEvent{Alerts: event.Alerts, SentAt: event.SentAt}); err != nil {
					logger.Debug().Err(err).Msg("failed to write alert event")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					logger.Debug().Err(err).Msg("alert stream closed")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

func writeAlertEvent(w *bufio.Writer, event alertStreamEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: alerts\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}
