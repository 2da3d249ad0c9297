package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planhaus/portal-backend/internal/projects/domain"
)

func (h *Handler) listMessages(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	items, err := h.activity.ListMessages(c.Request.Context(), actor, c.Param("id"), queryLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "messages": items})
}

func (h *Handler) postMessage(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req messageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	m, err := h.activity.PostMessage(c.Request.Context(), actor, c.Param("id"), req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "message": m})
}

func (h *Handler) listRevisions(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	items, err := h.activity.ListRevisions(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "revisions": items})
}

func (h *Handler) requestRevision(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req revisionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	r, err := h.activity.RequestRevision(c.Request.Context(), actor, c.Param("id"), req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "revision": r})
}

func (h *Handler) uploadURL(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req uploadURLReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	ticket, err := h.activity.CreateUploadURL(c.Request.Context(), actor, c.Param("id"), req.FileName, req.ContentType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "upload": ticket})
}

func (h *Handler) listFiles(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	items, err := h.activity.ListFiles(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "files": items})
}

func (h *Handler) recordFile(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req fileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	f, err := h.activity.RecordFile(c.Request.Context(), actor, c.Param("id"), req.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "file": f})
}

func (h *Handler) downloadURL(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	url, err := h.activity.DownloadURL(c.Request.Context(), actor, c.Param("id"), c.Param("file_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "url": url})
}

func (h *Handler) publishDeliverable(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req fileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	f, p, err := h.activity.PublishDeliverable(c.Request.Context(), actor, c.Param("id"), req.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "file": f, "project": p})
}

func (r fileReq) toInput() domain.FileInput {
	return domain.FileInput{
		ObjectKey:   r.ObjectKey,
		FileName:    r.FileName,
		ContentType: r.ContentType,
		SizeBytes:   r.SizeBytes,
	}
}
