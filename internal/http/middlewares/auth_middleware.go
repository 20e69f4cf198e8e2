package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireBearer extracts the session token from the Authorization header.
// Validation is left to the service so every failure kind can be logged.
func RequireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		scheme, raw, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			abort(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		raw = strings.TrimSpace(raw)
		if raw == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid access token")
			return
		}

		c.Set(CtxBearerToken, raw)

		c.Next()
	}
}

func BearerTokenFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxBearerToken)
	if !ok {
		return "", false
	}
	token, ok := v.(string)
	return token, ok && token != ""
}
