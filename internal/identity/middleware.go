package identity

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
	"github.com/siddhartha296/vechicle-service-portal/pkg/apperrors"
)

const sessionKey = "identity_session"

// Middleware validates bearer tokens and attaches the session.
type Middleware struct {
	identity *Service
}

// NewMiddleware constructs middleware.
func NewMiddleware(identity *Service) *Middleware {
	return &Middleware{identity: identity}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	session, err := m.identity.SessionFromToken(c.Context(), parts[1])
	if err != nil {
		return err
	}

	c.Locals(sessionKey, session)
	return c.Next()
}

// SessionFromContext retrieves the authenticated session.
func SessionFromContext(c *fiber.Ctx) (Session, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return Session{}, false
	}
	session, ok := val.(Session)
	return session, ok
}

// RequireCustomer ensures a customer session is present.
func RequireCustomer() fiber.Handler {
	return requireRole(domain.RoleCustomer, "customer required")
}

// RequireStaff ensures a staff session is present.
func RequireStaff() fiber.Handler {
	return requireRole(domain.RoleStaff, "staff required")
}

func requireRole(role domain.Role, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := SessionFromContext(c)
		if !ok || session.Role != role {
			return apperrors.NewForbidden(message)
		}
		return c.Next()
	}
}
