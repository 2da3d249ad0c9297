package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planhaus/portal-backend/internal/auth"
	"github.com/planhaus/portal-backend/internal/users"
)

type ProfileReader interface {
	Get(ctx context.Context, firebaseUID string) (*users.User, error)
}

type Handler struct {
	profiles ProfileReader
}

// New builds the account handler. profiles may be nil in demo mode.
func New(profiles ProfileReader) *Handler {
	return &Handler{profiles: profiles}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

// me returns the caller's identity as the API sees it, plus the stored
// profile when one exists.
func (h *Handler) me(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
		return
	}

	resp := gin.H{"ok": true, "uid": actor.UID, "role": actor.Role}
	if h.profiles != nil {
		u, err := h.profiles.Get(c.Request.Context(), actor.UID)
		switch {
		case err == nil:
			resp["profile"] = u
		case errors.Is(err, users.ErrNotFound):
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}
