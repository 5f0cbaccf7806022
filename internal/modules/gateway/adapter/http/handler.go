// Package http exposes the websocket endpoint and health check.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/frankieli/wager_arena/internal/modules/gateway/usecase"
	"github.com/frankieli/wager_arena/internal/modules/gateway/ws"
	"github.com/frankieli/wager_arena/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Rooms are join-by-code with no credentials, so cross-origin
		// clients are allowed.
		return true
	},
}

// Handler upgrades HTTP requests to websocket sessions
type Handler struct {
	manager *ws.Manager
	gateway *usecase.GatewayUseCase
}

// NewHandler creates a new gateway HTTP handler
func NewHandler(manager *ws.Manager, gateway *usecase.GatewayUseCase) *Handler {
	return &Handler{manager: manager, gateway: gateway}
}

// RegisterRoutes mounts the gateway endpoints
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.Serve)
	r.GET("/health", h.Health)
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Format(time.RFC3339)})
}

// Serve upgrades the request and runs the connection's pumps. Each inbound
// message gets its own request-scoped context so log lines are correlated
// per action.
func (h *Handler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error(c.Request.Context()).Err(err).Msg("websocket upgrade failed")
		return
	}

	baseCtx := logger.WebSocketContext(c.Request)
	client := h.manager.Register(conn)

	logger.Info(baseCtx).
		Int64("conn_id", client.ID).
		Str("remote_addr", c.Request.RemoteAddr).
		Msg("ws connected")

	go client.WritePump()

	client.ReadPump(func(connID int64, message []byte) {
		ctx := logger.WithRequestID(baseCtx, logger.GenerateRequestID())
		h.gateway.HandleMessage(ctx, connID, message)
	})

	h.gateway.HandleDisconnect(baseCtx, client.ID)
	logger.Info(baseCtx).Int64("conn_id", client.ID).Msg("ws disconnected")
}
