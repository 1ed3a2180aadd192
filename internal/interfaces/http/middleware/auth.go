package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/b2bstore/backend/internal/infrastructure/auth"
	"github.com/b2bstore/backend/internal/interfaces/http/dto"
)

// Context keys set by the auth middleware
const (
	ClaimsKey     = "auth_claims"
	UserIDKey     = "auth_user_id"
	ClientIDKey   = "auth_client_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTAuth validates the bearer token and stores the caller's identity on
// the request context
func JWTAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(header, BearerPrefix)
		if tokenString == "" {
			abortUnauthorized(c, "missing token")
			return
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		userID, err := claims.GetUserUUID()
		if err != nil {
			abortUnauthorized(c, "malformed user id in token")
			return
		}
		clientID, err := claims.GetClientUUID()
		if err != nil {
			abortUnauthorized(c, "malformed client id in token")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, userID)
		c.Set(ClientIDKey, clientID)
		c.Next()
	}
}

// RequireAdmin rejects callers whose token does not carry the admin role.
// Must run after JWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !claims.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeForbidden, "admin role required", requestID(c)))
			return
		}
		c.Next()
	}
}

// GetClaims returns the validated claims, or nil outside an authenticated
// request
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetUserID returns the authenticated user's ID
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id, true
		}
	}
	return uuid.Nil, false
}

// GetClientID returns the authenticated caller's client ID
func GetClientID(c *gin.Context) (uuid.UUID, bool) {
	if v, ok := c.Get(ClientIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id, true
		}
	}
	return uuid.Nil, false
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse(dto.ErrCodeUnauthorized, message, requestID(c)))
}

func requestID(c *gin.Context) string {
	return c.GetString("request_id")
}
