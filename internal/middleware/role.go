package middleware

import (
	"net/http"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireAnyRole lets the request through when the token role is one of roles.
func RequireAnyRole(roles ...domain.UserRole) gin.HandlerFunc {
	allowed := make(map[domain.UserRole]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		role, exists := c.Get(ctxRole)
		if !exists {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			return
		}

		if !allowed[domain.UserRole(role.(string))] {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}

		c.Next()
	}
}

// PrivilegedOnly admits the roles that see every booking.
func PrivilegedOnly() gin.HandlerFunc {
	return RequireAnyRole(domain.RoleAdmin, domain.RoleSeniorAdmin, domain.RoleDev, domain.RoleSrDev)
}

// ExportOnly admits the single role allowed to bulk export.
func ExportOnly() gin.HandlerFunc {
	return RequireAnyRole(domain.RoleSrDev)
}
