package endpoints

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"fieldops"
	"fieldops/internal/api/handler/middleware"
	"fieldops/internal/api/handler/response"
	websocket2 "fieldops/internal/api/handler/websocket"
	"fieldops/pkg"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, you should validate the origin
		return true
	},
}

type websocketHandler struct {
	hub       *websocket2.Hub
	processor *websocket2.MessageProcessor
	logger    zerolog.Logger
	config    fieldops.AppConfig
}

func newWebSocketHandler(hub *websocket2.Hub, processor *websocket2.MessageProcessor) *websocketHandler {
	return &websocketHandler{
		hub:       hub,
		processor: processor,
		logger:    fieldops.Logger,
		config:    fieldops.GetConfig(),
	}
}

// WebSocketHandler sets up WebSocket routes
func WebSocketHandler(router *graceful.Graceful, hub *websocket2.Hub, processor *websocket2.MessageProcessor) {
	h := newWebSocketHandler(hub, processor)

	wsRoutes := router.Group("/api/v1/ws")
	wsRoutes.Use(middleware.AuthMiddleware(h.config))
	{
		wsRoutes.GET("/init", h.handleWebSocket)
		wsRoutes.GET("/jobs/:jobId/users", h.getActiveUsers)
	}

	wsRoutes.GET("/stats", h.getRoomStats)
}

// handleWebSocket upgrades the connection and joins a room. Without a jobId
// query parameter the client lands in the board room and receives the
// whole-schedule snapshots.
func (slf *websocketHandler) handleWebSocket(c *gin.Context) {
	jobID := uint64(websocket2.BoardRoomID)
	if raw := c.Query("jobId"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid job ID"})
			return
		}
		jobID = parsed
	}

	userID, ok := pkg.GetUserID(c)
	if !ok && slf.config.Mode != "dev" {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}

	username, ok := pkg.GetUsername(c)
	if !ok {
		username = fmt.Sprintf("User%d", userID)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to upgrade to WebSocket")
		return
	}

	clientID := uuid.New().String()

	client := websocket2.NewClient(
		clientID,
		userID,
		username,
		uint(jobID),
		slf.hub,
		conn,
		slf.processor,
		slf.logger,
	)

	slf.hub.Register <- client

	slf.logger.Info().
		Str("clientId", clientID).
		Uint("userId", userID).
		Uint("jobId", uint(jobID)).
		Msg("WebSocket connection established")

	go client.WritePump()
	go client.ReadPump()
}

// getActiveUsers returns the list of active users in a room
func (slf *websocketHandler) getActiveUsers(c *gin.Context) {
	jobID, err := strconv.ParseUint(c.Param("jobId"), 10, 32)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Invalid job ID")
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid job ID"})
		return
	}

	users := slf.hub.GetActiveUsersInRoom(uint(jobID))
	c.JSON(http.StatusOK, gin.H{
		"jobId": jobID,
		"users": users,
	})
}

// getRoomStats returns statistics about all active rooms
func (slf *websocketHandler) getRoomStats(c *gin.Context) {
	stats := slf.hub.GetRoomStats()
	c.JSON(http.StatusOK, gin.H{
		"rooms": stats,
	})
}
