package middleware

import (
	"net/http"
	"strings"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/pkg/jwt"
	"bookingcrm/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxName   = "name"
)

// JWTAuth validates the bearer token and stores its claims on the context.
// Identity always comes from the token, never from query parameters.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
			response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxName, claims.Name)
		c.Next()
	}
}

// SessionFrom returns the caller identity set by JWTAuth.
func SessionFrom(c *gin.Context) domain.Session {
	return domain.Session{
		UserID: c.GetString(ctxUserID),
		Name:   c.GetString(ctxName),
		Role:   domain.UserRole(c.GetString(ctxRole)),
	}
}
