package middleware

import (
	"errors"
	"strings"

	"libradesk/internal/config"
	"libradesk/internal/core/domain"
	"libradesk/internal/pkg/jwt"
	"libradesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the auth middlewares
const (
	LocalUserID   = "userID"
	LocalUsername = "username"
	LocalRole     = "role"
)

// bearerToken reads the access token from the cookie, then the Authorization header
func bearerToken(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	if header := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func setClaims(c *fiber.Ctx, claims *jwt.Claims) {
	c.Locals(LocalUserID, claims.UserID)
	c.Locals(LocalUsername, claims.Username)
	c.Locals(LocalRole, claims.Role)
}

// AuthMiddleware creates authentication middleware
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := bearerToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		setClaims(c, claims)
		return c.Next()
	}
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocalRole).(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowed := range allowedRoles {
			if domain.Role(role) == allowed {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly middleware allows only ADMIN role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}

// StaffOnly middleware allows LIBRARIAN or ADMIN roles
func StaffOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleLibrarian, domain.RoleAdmin)
}

// OptionalAuth sets user info when a valid token is present and never rejects
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if accessToken := bearerToken(c); accessToken != "" {
			if claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret); err == nil {
				setClaims(c, claims)
			}
		}
		return c.Next()
	}
}

// CurrentUserID returns the authenticated user id, 0 when anonymous
func CurrentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

// CurrentRole returns the authenticated role, empty when anonymous
func CurrentRole(c *fiber.Ctx) domain.Role {
	role, _ := c.Locals(LocalRole).(string)
	return domain.Role(role)
}
