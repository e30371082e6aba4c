package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"testroyale/internal/game/service"
	"testroyale/internal/realtime"
	"testroyale/pkg/utils/logger"
	"testroyale/pkg/utils/response"
)

// WSController upgrades clients onto the realtime hub for room events.
type WSController struct {
	hub         *realtime.Hub
	gameService *service.GameService
}

// NewWSController creates a new WSController.
func NewWSController(hub *realtime.Hub, gameService *service.GameService) *WSController {
	return &WSController{hub: hub, gameService: gameService}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterRoutes mounts the websocket endpoint under the given router group.
func (h *WSController) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/ws/rooms/:code", h.Subscribe)
}

// Subscribe upgrades the connection and streams the room's events until the
// client disconnects. Incoming frames are drained and ignored.
func (h *WSController) Subscribe(c *gin.Context) {
	code := c.Param("code")
	if _, err := h.gameService.GetRoom(c.Request.Context(), code); err != nil {
		response.Error(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(c.Request.Context(), "websocket upgrade failed",
			zap.String("room_code", code), zap.Error(err))
		return
	}

	h.hub.Add(code, conn)
	defer h.hub.Remove(code, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
