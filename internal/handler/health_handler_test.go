package handler_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-metrics-api/internal/config"
	"github.com/noah-isme/portal-metrics-api/internal/handler"
)

func TestHealthCheckReportsStoreBackend(t *testing.T) {
	cfg := config.Config{
		AppName:      "Academic Portal API",
		AppEnv:       "test",
		StoreBackend: config.StoreBackendSQLite,
	}

	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(cfg))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool                   `json:"success"`
		Data    handler.HealthResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.True(t, payload.Success)
	assert.Equal(t, "ok", payload.Data.Status)
	assert.Equal(t, cfg.AppName, payload.Data.Service)
	assert.Equal(t, cfg.AppEnv, payload.Data.Environment)
	assert.Equal(t, config.StoreBackendSQLite, payload.Data.Store)
	assert.WithinDuration(t, time.Now().UTC(), payload.Data.Timestamp, 2*time.Second)
}
