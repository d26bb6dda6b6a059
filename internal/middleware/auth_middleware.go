package middleware

import (
	"strings"

	"go-bookstore-ws/internal/repository"
	"go-bookstore-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth is middleware that validates JWT token and sets user info in context
func RequireAuth(userRepo repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		// Validate token
		claims, err := jwt.ValidateToken(tokenString)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		// Check strict session against DB
		user, err := userRepo.FindByID(claims.UserID)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "User not found"})
		}
		if !user.IsActive {
			return c.Status(401).JSON(fiber.Map{"error": "User account is inactive"})
		}
		if user.TokenVersion != claims.TokenVersion {
			return c.Status(401).JSON(fiber.Map{"error": "Session expired (logged in on another device)"})
		}

		// Role diambil dari DB, bukan dari token, agar perubahan role langsung berlaku
		c.Locals("user_id", claims.UserID.String())
		c.Locals("user_email", claims.Email)
		c.Locals("user_name", claims.Name)
		c.Locals("user_role", user.Role)
		c.Locals("user_privileges", user.Privileges())

		return c.Next()
	}
}

// bearerToken reads "Authorization: Bearer <token>"; websocket clients cannot
// set headers so ?token= is accepted as well.
func bearerToken(c *fiber.Ctx) (string, bool) {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if t := c.Query("token"); t != "" {
		return t, true
	}
	return "", false
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get privileges from context (set by RequireAuth)
		privileges, ok := c.Locals("user_privileges").([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, p := range privileges {
			if p == requiredPrivilege {
				return c.Next()
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires '" + requiredPrivilege + "' privilege",
		})
	}
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals("user_privileges").([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, userPriv := range privileges {
			for _, reqPriv := range requiredPrivileges {
				if userPriv == reqPriv {
					return c.Next()
				}
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(requiredPrivileges, ", ") + " privileges",
		})
	}
}
