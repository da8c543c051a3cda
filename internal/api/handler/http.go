package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports liveness plus the headline presence counts.
func (h *Handler) Health(c *gin.Context) {
	snapshot := h.Hub.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":          "OK",
		"connectedUsers":  snapshot.ConnectedUsers,
		"connectedAdmins": snapshot.ConnectedAdmins,
		"uptime":          h.Hub.Uptime().Seconds(),
	})
}

// Stats dumps the full registry snapshot.
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Hub.Snapshot())
}

// ChatHistory serves the message log for a session id. Unknown sessions get
// an empty history, never an error; a bare connection or user id falls back
// to its direct admin conversation.
func (h *Handler) ChatHistory(c *gin.Context) {
	id := c.Param("id")
	history := h.Hub.History.Read(id)
	if len(history) == 0 {
		history = h.Hub.History.Read("admin:" + id)
	}
	c.JSON(http.StatusOK, gin.H{"history": history, "id": id})
}
