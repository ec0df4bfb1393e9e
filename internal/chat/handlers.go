package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/a2adesk/a2adesk/internal/common/httpmw"
	"github.com/a2adesk/a2adesk/internal/common/logger"
	apiv1 "github.com/a2adesk/a2adesk/pkg/api/v1"
	ws "github.com/a2adesk/a2adesk/pkg/websocket"
)

// Handler exposes the relay over HTTP and WebSocket.
type Handler struct {
	relay  *Relay
	logger *logger.Logger
}

// RegisterRoutes mounts /api/v1/chat behind limiter (nil for none) and the
// chat.* WS actions. Stream events are delivered through the relay's sink;
// the stream reply carries the StreamResult: acknowledgement plus full text.
func RegisterRoutes(router *gin.Engine, dispatcher *ws.Dispatcher, relay *Relay, limiter *httpmw.RateLimiter, log *logger.Logger) {
	h := &Handler{relay: relay, logger: log.WithComponent("chat-handlers")}

	api := router.Group("/api/v1/chat")
	if limiter != nil && limiter.Enabled() {
		api.Use(httpmw.RateLimit(limiter, h.logger))
	}
	api.POST("/completion", h.httpCompletion)
	api.POST("/stream", h.httpStream)

	dispatcher.RegisterFunc(ws.ActionChatCompletion, h.wsCompletion)
	dispatcher.RegisterFunc(ws.ActionChatStream, h.wsStream)
}

// StatusFor maps relay errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrTransport), errors.Is(err, ErrStream), errors.Is(err, ErrUnexpected):
		return http.StatusBadGateway
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func reply(c *gin.Context, data any, err error) {
	if err != nil {
		c.JSON(StatusFor(err), apiv1.Fail(err))
		return
	}
	c.JSON(http.StatusOK, apiv1.OK(data))
}

func (h *Handler) httpCompletion(c *gin.Context) {
	var req CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiv1.Fail(errors.New("invalid payload")))
		return
	}
	content, err := h.relay.Complete(c.Request.Context(), req)
	reply(c, content, err)
}

func (h *Handler) httpStream(c *gin.Context) {
	var req StreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiv1.Fail(errors.New("invalid payload")))
		return
	}
	res, err := h.relay.Stream(c.Request.Context(), req)
	if err != nil {
		reply(c, nil, err)
		return
	}
	reply(c, res, nil)
}

func wsResult(msg *ws.Message, data any, err error) (*ws.Message, error) {
	if err != nil {
		return ws.NewResponse(msg.ID, msg.Action, apiv1.Fail(err))
	}
	return ws.NewResponse(msg.ID, msg.Action, apiv1.OK(data))
}

func (h *Handler) wsCompletion(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req CompletionRequest
	if err := msg.ParsePayload(&req); err != nil {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "invalid payload", nil)
	}
	content, err := h.relay.Complete(ctx, req)
	return wsResult(msg, content, err)
}

func (h *Handler) wsStream(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req StreamRequest
	if err := msg.ParsePayload(&req); err != nil {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "invalid payload", nil)
	}
	res, err := h.relay.Stream(ctx, req)
	if err != nil {
		return wsResult(msg, nil, err)
	}
	return wsResult(msg, res, nil)
}
