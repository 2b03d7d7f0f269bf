package handler

import (
	"cellexis-assistant/internal/pkg/logger"
	internalWS "cellexis-assistant/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// StreamHandler exposes the live assistant event stream. Connections are
// anonymous: the stream carries UI state changes and utterances, nothing
// user-private.
type StreamHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewStreamHandler(hub *internalWS.Hub, log logger.ILogger) *StreamHandler {
	return &StreamHandler{
		hub:    hub,
		logger: log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *StreamHandler) ServeWs(c *fiber.Ctx) error {
	// Upgrade via Fiber WebSocket Middleware
	// We handle the upgrade here using the helper which automatically hijacks the connection
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("StreamHandler", "Starting WebSocket session", nil)
			internalWS.ServeWs(h.hub, conn)
			h.logger.Info("StreamHandler", "WebSocket session ended", nil)
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *StreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeWs)
}
