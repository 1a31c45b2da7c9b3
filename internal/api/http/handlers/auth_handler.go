package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/siddhartha296/vechicle-service-portal/internal/api/dto"
	"github.com/siddhartha296/vechicle-service-portal/internal/identity"
	"github.com/siddhartha296/vechicle-service-portal/pkg/apperrors"
)

// AuthHandler exposes the identity provider endpoints.
type AuthHandler struct {
	identity *identity.Service
}

// NewAuthHandler constructs handler.
func NewAuthHandler(identityService *identity.Service) *AuthHandler {
	return &AuthHandler{identity: identityService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	session, token, exp, err := h.identity.SignUp(c.Context(), req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"session": sessionResponse(session),
			"auth":    dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	session, token, exp, err := h.identity.SignIn(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"session": sessionResponse(session),
			"auth":    dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Logout handles POST /auth/logout. Ending the session releases every
// view subscription the session holds.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	session, ok := identity.SessionFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("session required")
	}
	h.identity.SignOut(session)
	return c.JSON(fiber.Map{"data": fiber.Map{"signed_out": true}})
}

// Session handles GET /auth/session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	session, ok := identity.SessionFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("session required")
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

func sessionResponse(session identity.Session) dto.SessionResponse {
	return dto.SessionResponse{
		UserID: session.UserID,
		Role:   session.Role,
		Name:   session.Name,
		Email:  session.Email,
	}
}
