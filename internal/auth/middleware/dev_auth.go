package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/planhaus/portal-backend/internal/auth"
	"github.com/planhaus/portal-backend/internal/projects/domain"
)

// DevAuthMiddleware trusts X-User-Id and X-User-Role headers.
// - If X-User-Id is missing, it falls back to "demo-user".
// - Use this ONLY for demo mode and local development.
func DevAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if uid == "" {
			uid = "demo-user"
		}
		role := domain.RoleClient
		if strings.EqualFold(strings.TrimSpace(c.GetHeader("X-User-Role")), string(domain.RoleAdmin)) {
			role = domain.RoleAdmin
		}

		auth.SetActor(c, domain.Actor{UID: uid, Role: role}, c.GetHeader("X-User-Email"))
		c.Next()
	}
}
