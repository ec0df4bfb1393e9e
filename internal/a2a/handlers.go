package a2a

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/a2adesk/a2adesk/internal/common/logger"
	apiv1 "github.com/a2adesk/a2adesk/pkg/api/v1"
	ws "github.com/a2adesk/a2adesk/pkg/websocket"
)

// Handler exposes the A2A service over HTTP and WebSocket.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// RegisterRoutes mounts /api/v1/a2a and the a2a.* WS actions.
func RegisterRoutes(router *gin.Engine, dispatcher *ws.Dispatcher, svc *Service, log *logger.Logger) {
	h := &Handler{service: svc, logger: log.WithComponent("a2a-handlers")}

	api := router.Group("/api/v1/a2a")
	api.POST("/send", h.httpSend)
	api.POST("/agent-card", h.httpAgentCard)

	dispatcher.RegisterFunc(ws.ActionA2ASend, h.wsSend)
	dispatcher.RegisterFunc(ws.ActionA2AAgentCard, h.wsAgentCard)
}

// StatusFor maps A2A errors to HTTP status codes.
func StatusFor(err error) int {
	var terr *TransportError
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrServerNotFound):
		return http.StatusNotFound
	case errors.As(err, &terr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) reply(c *gin.Context, data any, err error) {
	if err != nil {
		c.JSON(StatusFor(err), apiv1.Fail(err))
		return
	}
	c.JSON(http.StatusOK, apiv1.OK(data))
}

func (h *Handler) httpSend(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiv1.Fail(errors.New("invalid payload")))
		return
	}
	body, err := h.service.SendMessage(c.Request.Context(), req)
	h.reply(c, body, err)
}

func (h *Handler) httpAgentCard(c *gin.Context) {
	var req AgentCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiv1.Fail(errors.New("invalid payload")))
		return
	}
	card, err := h.service.GetAgentCard(c.Request.Context(), req)
	if err != nil {
		h.logger.Debug("agent card fetch failed", zap.String("url", req.URL), zap.Error(err))
		h.reply(c, nil, err)
		return
	}
	h.reply(c, card.Raw, nil)
}

func wsResult(msg *ws.Message, data any, err error) (*ws.Message, error) {
	if err != nil {
		return ws.NewResponse(msg.ID, msg.Action, apiv1.Fail(err))
	}
	return ws.NewResponse(msg.ID, msg.Action, apiv1.OK(data))
}

func (h *Handler) wsSend(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req SendRequest
	if err := msg.ParsePayload(&req); err != nil {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "invalid payload", nil)
	}
	body, err := h.service.SendMessage(ctx, req)
	return wsResult(msg, body, err)
}

func (h *Handler) wsAgentCard(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req AgentCardRequest
	if err := msg.ParsePayload(&req); err != nil {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "invalid payload", nil)
	}
	card, err := h.service.GetAgentCard(ctx, req)
	if err != nil {
		return wsResult(msg, nil, err)
	}
	return wsResult(msg, card.Raw, nil)
}
