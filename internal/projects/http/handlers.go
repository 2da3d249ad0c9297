package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planhaus/portal-backend/internal/lifecycle"
	"github.com/planhaus/portal-backend/internal/projects/domain"
)

func (h *Handler) create(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req intakeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	p, err := h.projects.Intake(c.Request.Context(), actor, domain.IntakeInput{
		Title:           req.Title,
		PropertyAddress: req.PropertyAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	statuses, err := lifecycle.ParseList(c.Query("status"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	items, err := h.projects.List(c.Request.Context(), actor, domain.ListFilter{
		OwnerUID: c.Query("owner_uid"),
		Statuses: statuses,
		Limit:    queryLimit(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) queue(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	statuses, err := lifecycle.ParseList(c.Query("status"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	items, err := h.projects.Queue(c.Request.Context(), actor, statuses, queryLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) get(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	p, err := h.projects.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) update(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req detailsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	p, err := h.projects.UpdateDetails(c.Request.Context(), actor, c.Param("id"), domain.DetailsInput{
		Title:           req.Title,
		PropertyAddress: req.PropertyAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) transition(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	to, err := parseStatus(req.Status)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	p, err := h.projects.Transition(c.Request.Context(), actor, c.Param("id"), to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) withdraw(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	p, err := h.projects.Withdraw(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) transitions(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	p, allowed, err := h.projects.AllowedTransitions(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":             true,
		"current_status": p.Status,
		"legacy_status":  lifecycle.ToLegacy(p.Status),
		"allowed":        allowed,
	})
}
