package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserContextKey is the gin context key under which the validated
// token claims are stored.
const UserContextKey = "auth_user"

// TokenCookie is the cookie a browser session carries its token in.
const TokenCookie = "token"

// Middleware enforces a valid token on mutating requests. Reads stay
// open; form submissions require being logged in.
func Middleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isProtectedRequest(c.Request) {
			c.Next()
			return
		}

		tokenString, err := extractToken(c.Request)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, err := validateToken(tokenString, jwtSecret)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(UserContextKey, claims)
		c.Next()
	}
}

// extractToken reads the session cookie, falling back to a bearer
// Authorization header for non-browser clients.
func extractToken(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization required")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" || tokenString == authHeader {
		return "", fmt.Errorf("invalid authorization format")
	}
	return tokenString, nil
}

func isProtectedRequest(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}
