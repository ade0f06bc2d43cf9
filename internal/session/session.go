package session

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/portal-metrics-api/internal/models"
)

// ErrNoSession indicates the request carries no authenticated user.
var ErrNoSession = errors.New("missing user context")

const (
	localUserID = "user_id"
	localRole   = "user_role"
)

// Session identifies the caller of a dashboard operation. It is built per
// request and passed explicitly into services.
type Session struct {
	UserID string
	Role   models.Role
}

// IsAdmin reports whether the caller administers the portal.
func (s Session) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// Bind stores the caller identity on the request context.
func Bind(c *fiber.Ctx, userID string, role models.Role) {
	c.Locals(localUserID, userID)
	c.Locals(localRole, string(role))
}

// FromContext reads the caller identity bound by the auth middleware.
func FromContext(c *fiber.Ctx) (Session, error) {
	if c == nil {
		return Session{}, ErrNoSession
	}

	userID, _ := c.Locals(localUserID).(string)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Session{}, ErrNoSession
	}

	roleValue, _ := c.Locals(localRole).(string)
	role, ok := models.ParseRole(roleValue)
	if !ok {
		return Session{}, ErrNoSession
	}

	return Session{UserID: userID, Role: role}, nil
}
