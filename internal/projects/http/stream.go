package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/planhaus/portal-backend/internal/lifecycle"
)

const keepAliveInterval = 15 * time.Second

// stream pushes status changes for one project as Server-Sent Events.
func (h *Handler) stream(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if h.events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "live updates unavailable"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "streaming unsupported"})
		return
	}

	// Subscribe before loading so a change committed in between still
	// reaches the client.
	ctx := c.Request.Context()
	updates, cancel, err := h.events.Subscribe(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer cancel()

	p, err := h.projects.Get(ctx, actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering
	c.Status(http.StatusOK)

	writeSSE(c, "initial", gin.H{"project": p, "allowed": lifecycle.Allowed(p.Status)})
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()
		case ev, ok := <-updates:
			if !ok {
				return
			}
			writeSSE(c, "status_changed", gin.H{
				"event":         ev,
				"legacy_status": lifecycle.ToLegacy(ev.To),
				"allowed":       lifecycle.Allowed(ev.To),
			})
			flusher.Flush()
		}
	}
}

func writeSSE(c *gin.Context, name string, payload any) {
	data, _ := json.Marshal(payload)
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", name, data)
}
