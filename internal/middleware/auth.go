package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dropngo/internal/auth"
	"dropngo/internal/domain"
)

const (
	ctxUserID    = "user_id"
	ctxUserEmail = "user_email"
	ctxUserRole  = "user_role"

	// accessTokenParam carries the token for clients that cannot set
	// headers, such as EventSource.
	accessTokenParam = "access_token"
)

// TokenParser validates session tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type errorBody struct {
	Error string `json:"error"`
}

// AuthMiddleware requires a valid bearer token and stores the caller's
// identity on the context.
func AuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return authenticate(parser, false)
}

// StreamAuthMiddleware is AuthMiddleware for event-stream routes. It also
// accepts the token in the access_token query parameter.
func StreamAuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return authenticate(parser, true)
}

func authenticate(parser TokenParser, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" && allowQuery {
			token = c.Query(accessTokenParam)
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "authorization header required"})
			return
		}

		claims, err := parser.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "invalid or expired token"})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserEmail, claims.Email)
		c.Set(ctxUserRole, claims.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireRole rejects callers whose role is not one of roles.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := UserRole(c)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Error: "access denied"})
	}
}

// UserID returns the authenticated user's ID, or "".
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// UserEmail returns the authenticated user's email, or "".
func UserEmail(c *gin.Context) string {
	return c.GetString(ctxUserEmail)
}

// UserRole returns the authenticated user's role, or "".
func UserRole(c *gin.Context) domain.Role {
	if v, ok := c.Get(ctxUserRole); ok {
		if role, ok := v.(domain.Role); ok {
			return role
		}
	}
	return ""
}
