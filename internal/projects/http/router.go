package http

import "github.com/gin-gonic/gin"

// Register attaches project routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id", h.update)

	rg.POST("/:id/status", h.transition)
	rg.POST("/:id/withdraw", h.withdraw)
	rg.GET("/:id/transitions", h.transitions)
	rg.GET("/:id/events", h.stream)

	rg.GET("/:id/messages", h.listMessages)
	rg.POST("/:id/messages", h.postMessage)
	rg.GET("/:id/revisions", h.listRevisions)
	rg.POST("/:id/revisions", h.requestRevision)

	rg.POST("/:id/files/upload-url", h.uploadURL)
	rg.GET("/:id/files", h.listFiles)
	rg.POST("/:id/files", h.recordFile)
	rg.GET("/:id/files/:file_id/download-url", h.downloadURL)
	rg.POST("/:id/deliverables", h.publishDeliverable)
}

// RegisterAdmin attaches the operations queue. The group is expected to
// sit behind an admin check.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.GET("/queue", h.queue)
}
