package middleware

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/planhaus/portal-backend/internal/auth"
	"github.com/planhaus/portal-backend/internal/logging"
	"github.com/planhaus/portal-backend/internal/projects/domain"
	"github.com/planhaus/portal-backend/internal/users"
)

// AdminClaim is the Firebase custom claim that grants operator access.
const AdminClaim = "admin"

// TokenVerifier is satisfied by *auth.Client from the Firebase Admin SDK.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// UserSyncer records users on first sight. *users.Repo satisfies it.
type UserSyncer interface {
	EnsureUser(ctx context.Context, u users.UpsertUser) (string, error)
}

// FirebaseAuthMiddleware validates Firebase ID tokens and extracts user info.
// syncer may be nil.
func FirebaseAuthMiddleware(verifier TokenVerifier, syncer UserSyncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing authorization token"})
			return
		}

		decoded, err := verifier.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			logging.FromContext(c.Request.Context()).Debug("token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
			return
		}

		actor := domain.Actor{UID: decoded.UID, Role: domain.RoleClient}
		if isAdmin, _ := decoded.Claims[AdminClaim].(bool); isAdmin {
			actor.Role = domain.RoleAdmin
		}
		email, _ := decoded.Claims["email"].(string)
		name, _ := decoded.Claims["name"].(string)

		if syncer != nil {
			if _, err := syncer.EnsureUser(c.Request.Context(), users.UpsertUser{
				FirebaseUID: actor.UID,
				Email:       email,
				DisplayName: name,
				Role:        string(actor.Role),
			}); err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "ensure user: " + err.Error()})
				return
			}
		}

		auth.SetActor(c, actor, email)
		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return strings.TrimSpace(bearerToken[7:])
	}
	return ""
}
