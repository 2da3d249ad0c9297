package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/planhaus/portal-backend/internal/auth"
	"github.com/planhaus/portal-backend/internal/lifecycle"
	"github.com/planhaus/portal-backend/internal/logging"
	"github.com/planhaus/portal-backend/internal/projects/domain"
)

// writeError maps domain errors onto status codes.
func writeError(c *gin.Context, err error) {
	var terr *domain.TransitionError
	switch {
	case errors.As(err, &terr):
		c.JSON(http.StatusConflict, gin.H{
			"ok":             false,
			"error":          err.Error(),
			"current_status": terr.Current,
			"allowed":        lifecycle.Allowed(terr.Current),
		})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrFileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	default:
		logging.FromContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": msg})
}

// actorOrAbort returns the authenticated caller or writes 401.
func actorOrAbort(c *gin.Context) (domain.Actor, bool) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
	}
	return actor, ok
}

// parseStatus accepts the canonical vocabulary and, at this boundary only,
// the legacy one.
func parseStatus(raw string) (lifecycle.Status, error) {
	st, err := lifecycle.Parse(raw)
	if err == nil {
		return st, nil
	}
	if legacy, lerr := lifecycle.FromLegacy(lifecycle.LegacyStatus(strings.ToLower(strings.TrimSpace(raw)))); lerr == nil {
		return legacy, nil
	}
	return "", err
}

func queryLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
