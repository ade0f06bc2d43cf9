package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// Seeder writes the demo collections that are still missing from the store.
type Seeder interface {
	SeedDefaults(ctx context.Context) ([]string, error)
}

// SeedService restores the demo data set on request.
type SeedService interface {
	SeedDefaults(ctx context.Context, token string) ([]string, error)
}

type seedService struct {
	seeder  Seeder
	cache   *DashboardCache
	enabled bool
	token   string
	logger  zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(seeder Seeder, cache *DashboardCache, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		seeder:  seeder,
		cache:   cache,
		enabled: enabled,
		token:   token,
		logger:  logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedDefaults(ctx context.Context, token string) ([]string, error) {
	if !s.enabled {
		return nil, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return nil, ErrSeedUnauthorized
	}

	keys, err := s.seeder.SeedDefaults(ctx)
	if err != nil {
		return keys, err
	}
	if len(keys) > 0 {
		if _, err := s.cache.InvalidateAll(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drop dashboards after seeding")
		}
	}
	s.logger.Info().Strs("keys", keys).Msg("defaults seeded")
	return keys, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}
