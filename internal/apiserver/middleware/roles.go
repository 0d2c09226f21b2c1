package middleware

import (
	"github.com/amoylab/choirhub/internal/common/cnst"
	"github.com/amoylab/choirhub/internal/common/errorx"
	"github.com/gin-gonic/gin"
)

// RequireRoles lets the request through when the current user holds at
// least one of roles. It must run after JWTAuthMiddleware.
func RequireRoles(errs *errorx.ErrorHandler, roles ...cnst.RoleName) gin.HandlerFunc {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			errs.HandleError(c, errorx.ErrUnauthorized)
			return
		}
		if !user.HasAnyRole(names...) {
			errs.HandleError(c, errorx.ErrInsufficientPermissions.WithDetail("required_roles", names))
			return
		}
		c.Next()
	}
}
