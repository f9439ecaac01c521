package middleware

import (
	"errors"
	"strings"

	"korfarm-api/internal/config"
	"korfarm-api/internal/core/domain"
	"korfarm-api/internal/pkg/jwt"
	"korfarm-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware verifies the access token and stores the authenticated
// principal in request locals. Never global state: everything downstream
// reads the principal from the request.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var accessToken string

		// 1. Try cookie first
		accessToken = c.Cookies("access_token")

		// 2. Fall back to Authorization header
		if accessToken == "" {
			authHeader := c.Get("Authorization")
			if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
				accessToken = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		// 3. No token found
		if accessToken == "" {
			return response.Unauthorized(c, "access token required")
		}

		// 4. Validate token
		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "access token expired")
			}
			return response.Unauthorized(c, "invalid access token")
		}

		// 5. Set principal in request locals
		c.Locals("userID", claims.UserID)
		c.Locals("roles", claims.Roles)

		return c.Next()
	}
}

// RoleMiddleware allows only users holding one of the given roles
func RoleMiddleware(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles, ok := c.Locals("roles").([]string)
		if !ok {
			return response.Unauthorized(c, "unauthorized")
		}

		for _, role := range roles {
			for _, allowed := range allowedRoles {
				if role == allowed {
					return c.Next()
				}
			}
		}

		return response.Forbidden(c, "insufficient role")
	}
}

// HQAdminOnly middleware allows only the HQ_ADMIN role
func HQAdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleHQAdmin)
}

// GetUserID reads the authenticated user id from request locals.
// Returns 0 when the request carries no principal.
func GetUserID(c *fiber.Ctx) uint {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return 0
	}
	return userID
}
