package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fms-portal-api/internal/models"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
	"github.com/noah-isme/fms-portal-api/pkg/response"
)

// Access guards a route with role and permission checks. The decision
// runs in a fixed order:
//
//  1. no authenticated user on the context rejects with 401
//  2. a super-admin is allowed unconditionally
//  3. when roles are given, the user's role must be one of them
//  4. when permissions are given, the user must hold every one of them
//
// Empty roles with empty permissions only requires authentication.
func Access(roles []models.UserRole, permissions ...string) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowedRoles[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if claims.Role == models.RoleSuperAdmin {
			c.Next()
			return
		}

		if len(allowedRoles) > 0 {
			if _, ok := allowedRoles[claims.Role]; !ok {
				response.Error(c, appErrors.ErrForbidden)
				c.Abort()
				return
			}
		}

		if !claims.Permissions.ContainsAll(permissions) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireRoles allows any of the given roles, with no permission check.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return Access(roles)
}

// RequirePermissions allows any role that holds all given permissions.
func RequirePermissions(permissions ...string) gin.HandlerFunc {
	return Access(nil, permissions...)
}

// RequireSelf allows the route when the path id parameter matches the
// authenticated user, or when the user passes the given access check.
func RequireSelf(fallback gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if targetID := c.Param("id"); targetID != "" && targetID == claims.UserID {
			c.Next()
			return
		}

		fallback(c)
	}
}
