package api

import (
	"io"

	"github.com/gin-gonic/gin"
)

// StreamEvents streams store mutation events as server-sent events. The
// dashboard uses this to refresh lists without polling.
// GET /api/events
func (h *Handler) StreamEvents(c *gin.Context) {
	events, cancel := h.stores.Events.Subscribe(16)
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(event.Action), event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
