package copilot

import (
	"io"

	"github.com/gin-gonic/gin"
)

// StreamSession handles GET requests for the server-push event stream. Events
// are delivered best effort to currently connected subscribers only; clients
// poll the snapshot endpoints on (re)connect to catch up.
func (ct *Controller) StreamSession(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	subscription, err := ct.service.Subscribe(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(storeErrorResponse("Failed to subscribe to session", err))
		return
	}
	defer subscription.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	// Flush headers immediately so clients see the stream open before the
	// first event arrives
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, open := <-subscription.Events:
			if !open {
				// Hub detached us, likely because the session ended
				return false
			}
			c.SSEvent(string(event.Kind), event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
