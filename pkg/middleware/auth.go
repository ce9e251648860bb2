package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/gym-booking/pkg/auth"
	"github.com/prohmpiriya/gym-booking/pkg/response"
)

// Context keys set by JWTAuth
const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "role"
	ContextKeyEmail  = "email"
)

// TokenParser verifies bearer tokens
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// JWTAuth requires a valid "Authorization: Bearer <token>" header and stores
// the caller's id and role in the gin context.
func JWTAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.Unauthorized(c, "missing bearer token")
			return
		}

		claims, err := parser.Parse(strings.TrimSpace(token))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "token expired"
			}
			response.Unauthorized(c, msg)
			return
		}

		c.Set(ContextKeyUserID, claims.Sub)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyEmail, claims.Email)
		c.Next()
	}
}

// RequireRole lets through callers whose role claim is one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextKeyRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient permissions")
	}
}

// GetUserID returns the authenticated user id
func GetUserID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextKeyUserID)
	return id, id != ""
}
