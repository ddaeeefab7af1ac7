package middleware

import (
	"net/http"
	"strings"

	"lunapos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ClaimsKey = "claims"
)

// JWTClaims are the custom claims embedded in every access token. Tokens are
// issued by the external identity service; this backend only validates them.
// The terminal fields are the caller's terminal context: sourced once at
// device start, carried on every request, and refreshed only through the
// terminal existence check.
type JWTClaims struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Role         string `json:"role"` // cashier | supervisor | admin
	TerminalID   string `json:"terminal_id,omitempty"`
	TerminalName string `json:"terminal_name,omitempty"`
	IsMain       bool   `json:"is_main,omitempty"`
	jwt.RegisteredClaims
}

// TerminalContext is the validated terminal identity extracted from claims.
type TerminalContext struct {
	ID     uuid.UUID
	Name   string
	IsMain bool
}

// JWTAuth validates the Bearer token on every protected route.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("authentication required"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("invalid or expired token"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects requests whose JWT role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims, ok := c.MustGet(ClaimsKey).(*JWTClaims)
		if !ok || !allowed[claims.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	claims, _ := c.MustGet(ClaimsKey).(*JWTClaims)
	return claims
}

// GetTerminal extracts the terminal context from the caller's claims.
// Returns false when the token carries no terminal identity (first run,
// or a back-office token).
func GetTerminal(c *gin.Context) (TerminalContext, bool) {
	claims := GetClaims(c)
	if claims == nil || claims.TerminalID == "" {
		return TerminalContext{}, false
	}
	id, err := uuid.Parse(claims.TerminalID)
	if err != nil {
		return TerminalContext{}, false
	}
	return TerminalContext{ID: id, Name: claims.TerminalName, IsMain: claims.IsMain}, true
}
