package handler

import (
	"errors"

	"go-bookstore-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents the change password request body
type ChangePasswordRequest struct {
	Email       string `json:"email"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Login handles user authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	response, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrUserInactive) {
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		}
		return fail(c, "Login", err)
	}

	return c.JSON(response)
}

// ChangePassword handles password change
// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if req.Email == "" || req.OldPassword == "" || req.NewPassword == "" {
		return badRequest(c, "Email, old_password, and new_password are required")
	}

	if err := h.authService.ChangePassword(req.Email, req.OldPassword, req.NewPassword); err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

func (h *AuthHandler) Heartbeat(c *fiber.Ctx) error {
	id, err := uuid.Parse(getUserID(c))
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := h.authService.Heartbeat(id); err != nil {
		return fail(c, "Heartbeat", err)
	}

	return c.JSON(fiber.Map{"message": "Heartbeat received", "status": "online"})
}

// ValidateTokenRequest represents the validate token request body
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateToken handles JWT token validation
// POST /api/v1/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req ValidateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if req.Token == "" {
		return badRequest(c, "Token is required")
	}

	response, err := h.authService.ValidateToken(req.Token)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(response)
}
