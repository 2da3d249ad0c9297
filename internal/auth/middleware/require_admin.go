package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planhaus/portal-backend/internal/auth"
)

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
			return
		}
		if !actor.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "admin only"})
			return
		}
		c.Next()
	}
}
