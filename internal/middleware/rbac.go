package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
	"github.com/noah-isme/datamatch-api/pkg/response"
)

// RequireRoles admits callers holding one of roles. It must run after Authenticate.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if !models.HasRole(principal, roles...) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, accessMessage(roles)))
			c.Abort()
			return
		}

		c.Next()
	}
}

// AdminOnly admits administrators.
func AdminOnly() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin)
}

// StaffOnly admits professors and administrators.
func StaffOnly() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin, models.RoleProfessor)
}

func accessMessage(roles []models.UserRole) string {
	if len(roles) == 1 && roles[0] == models.RoleAdmin {
		return "admin access only"
	}
	return "professor or admin access only"
}
