package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
	"github.com/noah-isme/datamatch-api/pkg/response"
)

// ContextUserKey is the gin context key storing the resolved principal.
const ContextUserKey = "currentUser"

// PrincipalResolver turns a bearer token into the caller identity.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (models.Principal, error)
}

// Authenticate protects routes by requiring a valid access token.
func Authenticate(gate PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "no token provided"))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		principal, err := gate.Resolve(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, principal)
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by Authenticate.
func PrincipalFrom(c *gin.Context) (models.Principal, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	principal, ok := value.(models.Principal)
	return principal, ok
}
