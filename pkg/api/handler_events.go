package api

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thefitz/companion/pkg/events"
)

// eventsKeepAlive keeps idle streams open through proxies.
const eventsKeepAlive = 25 * time.Second

// eventsHandler handles GET /api/events, a Server-Sent Events stream of
// data-changed notifications. Each event carries the JSON change payload;
// the dashboard refetches whatever the change touches.
func (s *Server) eventsHandler(c *gin.Context) {
	ch, unsubscribe := s.broker.Subscribe()
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", `{}`)
	c.Writer.Flush()

	ping := time.NewTicker(eventsKeepAlive)
	defer ping.Stop()

	c.Stream(func(io.Writer) bool {
		select {
		case payload, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(events.EventTypeDataChanged, string(payload))
			return true
		case <-ping.C:
			c.SSEvent("ping", `{}`)
			return true
		case <-c.Request.Context().Done():
			return false
		case <-s.stopping:
			return false
		}
	})
}
