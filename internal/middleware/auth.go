package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/lucasvrm/bipolar-api-sub002/pkg/jwtutil"
	"github.com/lucasvrm/bipolar-api-sub002/pkg/logger"
)

// AdminAuthMiddleware validates the JWT token and requires the admin role.
// Every destructive and bulk operation sits behind this gate; the admin's
// principal id becomes performed_by in the audit trail.
func AdminAuthMiddleware(signingKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			// Get the Authorization header
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			// Check if it's a Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid Authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			// Validate the token
			claims, err := jwtutil.ValidateToken(parts[1], signingKey)
			if err != nil {
				log.Error("Invalid JWT token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			if !claims.IsAdmin() {
				log.Warn("Non-admin principal attempted admin operation",
					zap.String("user_id", claims.UserID),
					zap.String("role", claims.Role))
				return c.JSON(http.StatusForbidden, echo.Map{"error": "admin role required"})
			}

			// Store principal info in context for later use
			c.Set("user_id", claims.UserID)
			c.Set("email", claims.Email)
			c.Set("user_role", claims.Role)

			return next(c)
		}
	}
}

// AdminIDFromContext retrieves the authenticated admin's principal id
func AdminIDFromContext(c echo.Context) (string, bool) {
	id, ok := c.Get("user_id").(string)
	return id, ok
}
