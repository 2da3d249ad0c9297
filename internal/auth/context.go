package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/planhaus/portal-backend/internal/projects/domain"
)

const (
	CtxFirebaseUID = "firebase_uid"
	CtxEmail       = "email"
	CtxRole        = "role"
)

// SetActor stores the authenticated caller on the gin context.
func SetActor(c *gin.Context, actor domain.Actor, email string) {
	c.Set(CtxFirebaseUID, actor.UID)
	c.Set(CtxRole, string(actor.Role))
	if email != "" {
		c.Set(CtxEmail, email)
	}
}

// UserFirebaseUID extracts the Firebase UID set by the auth middleware.
func UserFirebaseUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxFirebaseUID))
}

// ActorFrom returns the caller, or false when no auth middleware ran.
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	uid := UserFirebaseUID(c)
	if uid == "" {
		return domain.Actor{}, false
	}
	role := domain.Role(c.GetString(CtxRole))
	if role != domain.RoleAdmin {
		role = domain.RoleClient
	}
	return domain.Actor{UID: uid, Role: role}, true
}
