package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// requireAuth checks the static bearer token on mutating routes.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authorization := c.GetHeader("Authorization")
		if authorization == "" {
			s.logger.Info("auth: missing Authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Missing Authorization header"})
			return
		}
		if !strings.HasPrefix(authorization, "Bearer ") {
			s.logger.Info("auth: bad schema")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Use Bearer token"})
			return
		}
		token := strings.TrimSpace(authorization[len("Bearer "):])
		if s.cfg.AuthToken == "" || token != s.cfg.AuthToken {
			s.logger.Info("auth: invalid token")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Invalid token"})
			return
		}
		c.Next()
	}
}
