package middleware

import (
	"errors"
	"strings"

	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/amoylab/choirhub/internal/auth/jwt"
	"github.com/amoylab/choirhub/internal/common/errorx"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	claimsKey = "claims"
	userKey   = "current_user"
)

// BearerToken extracts the token of an "Authorization: Bearer <token>" header
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// JWTAuthMiddleware validates the bearer token and loads the user it names.
// A missing or malformed header is 401; a bad or expired token and a
// missing or disabled account are 403.
func JWTAuthMiddleware(jwtService *jwt.Service, db database.Database, errs *errorx.ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			errs.HandleError(c, errorx.ErrUnauthorized)
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				errs.HandleError(c, errorx.ErrTokenExpired)
				return
			}
			errs.HandleError(c, errorx.ErrInvalidToken)
			return
		}

		user, err := db.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errs.HandleError(c, errorx.ErrInvalidToken.WithDetail("reason", "user not found"))
				return
			}
			errs.HandleError(c, err)
			return
		}
		if !user.IsActive {
			errs.HandleError(c, errorx.ErrAccountDisabled)
			return
		}

		c.Set(claimsKey, claims)
		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the user loaded by JWTAuthMiddleware
func CurrentUser(c *gin.Context) *database.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*database.User)
	return u
}

// Claims returns the validated token claims
func Claims(c *gin.Context) *jwt.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}
