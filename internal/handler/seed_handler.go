package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portal-metrics-api/internal/service"
	"github.com/noah-isme/portal-metrics-api/internal/utils"
)

// SeedHandler exposes tooling endpoints for restoring demo data.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(service service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/defaults", h.defaults)
}

func (h *SeedHandler) defaults(c *fiber.Ctx) error {
	keys, err := h.service.SeedDefaults(c.UserContext(), c.Get("X-Seed-Token"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSeedDisabled):
			return utils.SendError(c, fiber.StatusForbidden, "seeding disabled")
		case errors.Is(err, service.ErrSeedUnauthorized):
			return utils.SendError(c, fiber.StatusForbidden, "invalid token")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("seed operation failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "seed operation failed")
		}
	}

	return utils.SendSuccess(c, "defaults seeded", fiber.Map{"keys": keys})
}
