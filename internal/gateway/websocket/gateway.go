package websocket

import (
	"github.com/gin-gonic/gin"

	"github.com/a2adesk/a2adesk/internal/common/logger"
	ws "github.com/a2adesk/a2adesk/pkg/websocket"
)

// Gateway represents the unified WebSocket gateway
type Gateway struct {
	Hub        *Hub
	Dispatcher *ws.Dispatcher
	Handler    *Handler
	logger     *logger.Logger
}

// NewGateway creates a new WebSocket gateway with all components initialized
func NewGateway(log *logger.Logger) *Gateway {
	dispatcher := ws.NewDispatcher()
	hub := NewHub(dispatcher, log)
	handler := NewHandler(hub, log)

	RegisterHealthHandler(dispatcher)
	hub.SetConcurrent(
		ws.ActionA2ASend,
		ws.ActionA2AAgentCard,
		ws.ActionAgentRefreshCard,
		ws.ActionChatCompletion,
		ws.ActionChatStream,
	)

	return &Gateway{
		Hub:        hub,
		Dispatcher: dispatcher,
		Handler:    handler,
		logger:     log,
	}
}

// SetupRoutes adds the WebSocket routes to the Gin engine
func (g *Gateway) SetupRoutes(router *gin.Engine) {
	router.GET("/ws", g.Handler.HandleConnection)
}
