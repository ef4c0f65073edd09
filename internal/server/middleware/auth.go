package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/provider-hub/pkg/api"
)

// Auth checks for a valid Bearer token in the Authorization header. With no
// keys configured every request is let through.
func Auth(keys []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(keys) == 0 {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortProblem(c, api.UnauthorizedError("Missing Authorization header"))
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			abortProblem(c, api.UnauthorizedError("Invalid Authorization header format"))
			return
		}

		for _, k := range keys {
			if subtle.ConstantTimeCompare([]byte(k), []byte(token)) == 1 {
				c.Next()
				return
			}
		}

		abortProblem(c, api.UnauthorizedError("Invalid API Key"))
	}
}

func abortProblem(c *gin.Context, p *api.Problem) {
	c.Header("Content-Type", "application/problem+json")
	c.AbortWithStatusJSON(p.Status, p)
}
