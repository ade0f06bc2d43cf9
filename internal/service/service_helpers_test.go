package service

import (
	"context"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-metrics-api/internal/metrics"
	"github.com/noah-isme/portal-metrics-api/internal/models"
	"github.com/noah-isme/portal-metrics-api/internal/session"
	"github.com/noah-isme/portal-metrics-api/internal/store"
	"github.com/noah-isme/portal-metrics-api/internal/utils"
)

func newSeededPortal(t *testing.T) *store.Repository {
	t.Helper()
	repo := store.NewRepository(store.NewMemoryStore(), zerolog.Nop())
	_, err := repo.SeedDefaults(context.Background())
	require.NoError(t, err)
	return repo
}

func newTestCache(t *testing.T) (*DashboardCache, *miniredis.Miniredis) {
	t.Helper()
	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDashboardCache(client, 0, zerolog.Nop()), mini
}

func newValidator() *validator.Validate {
	return utils.NewValidator()
}

func studentSession(id string) session.Session {
	return session.Session{UserID: id, Role: models.RoleStudent}
}

func teacherSession(id string) session.Session {
	return session.Session{UserID: id, Role: models.RoleTeacher}
}

func adminSession(id string) session.Session {
	return session.Session{UserID: id, Role: models.RoleAdmin}
}

type publishedAlerts struct {
	scope  string
	userID string
	alerts []metrics.Alert
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedAlerts
}

func (p *recordingPublisher) PublishStudentAlerts(_ context.Context, studentID string, alerts []metrics.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedAlerts{scope: AlertScopeStudent, userID: studentID, alerts: alerts})
	return nil
}

func (p *recordingPublisher) PublishSystemAlerts(_ context.Context, alerts []metrics.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedAlerts{scope: AlertScopeSystem, alerts: alerts})
	return nil
}

func (p *recordingPublisher) forUser(id string) []publishedAlerts {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]publishedAlerts, 0)
	for _, event := range p.events {
		if event.userID == id {
			out = append(out, event)
		}
	}
	return out
}
