package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/pkg/logger"
	"github.com/taskhive/taskhive/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Admin dashboards are served from a different origin than the API.
	CheckOrigin: func(*http.Request) bool { return true },
}

type EventsHandler struct {
	stream *service.EventStream
}

func NewEventsHandler(stream *service.EventStream) *EventsHandler {
	return &EventsHandler{stream: stream}
}

// Stream upgrades the connection and pushes audit entries as they are
// written. Auth and role gating happen in the middleware chain.
func (h *EventsHandler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed",
			"request_id", middleware.RequestIDFrom(c), "error", err)
		return
	}
	h.stream.Subscribe(conn)
}
