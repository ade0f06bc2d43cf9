package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends selectable through PORTAL_STORE_BACKEND.
const (
	StoreBackendMemory   = "memory"
	StoreBackendPostgres = "postgres"
	StoreBackendSQLite   = "sqlite"
	StoreBackendRedis    = "redis"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	StoreBackend      string
	DatabaseURL       string
	SQLitePath        string
	RedisURL          string
	RedisStorePrefix  string
	NATSURL           string
	RealtimeChannel   string
	RealtimeKeepAlive time.Duration
	JWTSecret         string
	DashboardCacheTTL time.Duration
	SeedOnStart       bool
	SeedEnabled       bool
	SeedToken         string
	CORSAllowOrigins  string
	EmailDomain       string
	RecentResultLimit int
	MarksRateLimit    int
	MarksRateWindow   time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PORTAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Academic Portal API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("store.backend", StoreBackendMemory)
	v.SetDefault("sqlite.path", "portal.db")
	v.SetDefault("redis.store_prefix", "portal:store:")
	v.SetDefault("realtime.channel", "portal")
	v.SetDefault("realtime.keepalive", "30s")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("seed.on_start", true)
	v.SetDefault("seed.enabled", false)
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("email.domain", "university.edu")
	v.SetDefault("dashboard.recent_results", 5)
	v.SetDefault("marks.rate_limit", 30)
	v.SetDefault("marks.rate_window", "1m")

	ttl, err := parseDuration(v.GetString("dashboard.cache_ttl"), 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	window, err := parseDuration(v.GetString("marks.rate_window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid marks rate window: %w", err)
	}

	keepAlive, err := parseDuration(v.GetString("realtime.keepalive"), 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid realtime keepalive: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		StoreBackend:      strings.ToLower(strings.TrimSpace(v.GetString("store.backend"))),
		DatabaseURL:       v.GetString("database.url"),
		SQLitePath:        v.GetString("sqlite.path"),
		RedisURL:          v.GetString("redis.url"),
		RedisStorePrefix:  v.GetString("redis.store_prefix"),
		NATSURL:           v.GetString("nats.url"),
		RealtimeChannel:   v.GetString("realtime.channel"),
		RealtimeKeepAlive: keepAlive,
		JWTSecret:         v.GetString("jwt.secret"),
		DashboardCacheTTL: ttl,
		SeedOnStart:       v.GetBool("seed.on_start"),
		SeedEnabled:       v.GetBool("seed.enabled"),
		SeedToken:         v.GetString("seed.token"),
		CORSAllowOrigins:  v.GetString("cors.allow_origins"),
		EmailDomain:       strings.TrimPrefix(strings.ToLower(v.GetString("email.domain")), "@"),
		RecentResultLimit: v.GetInt("dashboard.recent_results"),
		MarksRateLimit:    v.GetInt("marks.rate_limit"),
		MarksRateWindow:   window,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.StoreBackend {
	case StoreBackendMemory, StoreBackendSQLite:
	case StoreBackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("database url is required for the postgres store")
		}
	case StoreBackendRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("redis url is required for the redis store")
		}
	default:
		return Config{}, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	if cfg.RecentResultLimit <= 0 {
		cfg.RecentResultLimit = 5
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
