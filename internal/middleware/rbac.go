package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/portal-metrics-api/internal/models"
	"github.com/noah-isme/portal-metrics-api/internal/session"
	"github.com/noah-isme/portal-metrics-api/internal/utils"
)

// RequireRole ensures that the authenticated user possesses one of the allowed roles.
func RequireRole(roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		if normalized, ok := models.ParseRole(string(role)); ok {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		sess, err := session.FromContext(c)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		if _, ok := allowed[sess.Role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
