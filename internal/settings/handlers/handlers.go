// Package handlers exposes the settings service over HTTP and WebSocket.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/settings/models"
	"github.com/a2adesk/a2adesk/internal/settings/service"
	"github.com/a2adesk/a2adesk/internal/settings/store"
	apiv1 "github.com/a2adesk/a2adesk/pkg/api/v1"
	ws "github.com/a2adesk/a2adesk/pkg/websocket"
)

// CardRefresher re-fetches and stores the agent card of one server.
type CardRefresher interface {
	RefreshAgentCard(ctx context.Context, serverID int64) (int64, error)
}

// Handler provides HTTP and WebSocket handlers for settings CRUD.
type Handler struct {
	service *service.Service
	cards   CardRefresher
	logger  *logger.Logger
}

// RegisterRoutes registers both HTTP and WS handlers. cards may be nil, in
// which case the refresh route is not mounted.
func RegisterRoutes(router *gin.Engine, dispatcher *ws.Dispatcher, svc *service.Service, cards CardRefresher, log *logger.Logger) {
	h := &Handler{service: svc, cards: cards, logger: log.WithComponent("settings-handlers")}
	h.registerHTTP(router)
	h.registerWS(dispatcher)
}

// Payloads shared by HTTP bodies and WS requests.

type idRequest struct {
	ID     int64 `json:"id"`
	Atomic bool  `json:"atomic,omitempty"`
}

type keyRequest struct {
	ModelKey string `json:"modelKey"`
}

type urlRequest struct {
	URL string `json:"url"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type updateModelRequest struct {
	ID int64 `json:"id"`
	models.ModelProviderPatch
}

type updateAgentRequest struct {
	ID int64 `json:"id"`
	models.AgentServerPatch
}

func (h *Handler) registerHTTP(router *gin.Engine) {
	api := router.Group("/api/v1/settings")

	api.GET("/models", h.httpListModels)
	api.POST("/models", h.httpCreateModel)
	api.GET("/models/:id", h.httpGetModel)
	api.GET("/models/key/:key", h.httpGetModelByKey)
	api.PATCH("/models/:id", h.httpUpdateModel)
	api.DELETE("/models/:id", h.httpDeleteModel)
	api.DELETE("/models/key/:key", h.httpDeleteModelByKey)
	api.POST("/models/:id/toggle", h.httpToggleModel)
	api.POST("/models/:id/disable-others", h.httpDisableOtherModels)

	api.GET("/agents", h.httpListAgents)
	api.POST("/agents", h.httpCreateAgent)
	api.GET("/agents/lookup", h.httpLookupAgent)
	api.GET("/agents/:id", h.httpGetAgent)
	api.PATCH("/agents/:id", h.httpUpdateAgent)
	api.DELETE("/agents", h.httpDeleteAgentBy)
	api.DELETE("/agents/:id", h.httpDeleteAgent)
	api.POST("/agents/:id/toggle", h.httpToggleAgent)
	api.POST("/agents/:id/disable-others", h.httpDisableOtherAgents)
	if h.cards != nil {
		api.POST("/agents/:id/refresh-card", h.httpRefreshCard)
	}
}

func (h *Handler) registerWS(dispatcher *ws.Dispatcher) {
	dispatcher.RegisterFunc(ws.ActionModelList, h.wsListModels)
	dispatcher.RegisterFunc(ws.ActionModelGet, h.wsGetModel)
	dispatcher.RegisterFunc(ws.ActionModelGetByKey, h.wsGetModelByKey)
	dispatcher.RegisterFunc(ws.ActionModelCreate, h.wsCreateModel)
	dispatcher.RegisterFunc(ws.ActionModelUpdate, h.wsUpdateModel)
	dispatcher.RegisterFunc(ws.ActionModelDelete, h.wsDeleteModel)
	dispatcher.RegisterFunc(ws.ActionModelDeleteByKey, h.wsDeleteModelByKey)
	dispatcher.RegisterFunc(ws.ActionModelToggle, h.wsToggleModel)
	dispatcher.RegisterFunc(ws.ActionModelDisableOthers, h.wsDisableOtherModels)

	dispatcher.RegisterFunc(ws.ActionAgentList, h.wsListAgents)
	dispatcher.RegisterFunc(ws.ActionAgentGet, h.wsGetAgent)
	dispatcher.RegisterFunc(ws.ActionAgentGetByURL, h.wsGetAgentByURL)
	dispatcher.RegisterFunc(ws.ActionAgentGetByName, h.wsGetAgentByName)
	dispatcher.RegisterFunc(ws.ActionAgentCreate, h.wsCreateAgent)
	dispatcher.RegisterFunc(ws.ActionAgentUpdate, h.wsUpdateAgent)
	dispatcher.RegisterFunc(ws.ActionAgentDelete, h.wsDeleteAgent)
	dispatcher.RegisterFunc(ws.ActionAgentDeleteByURL, h.wsDeleteAgentByURL)
	dispatcher.RegisterFunc(ws.ActionAgentDeleteByName, h.wsDeleteAgentByName)
	dispatcher.RegisterFunc(ws.ActionAgentToggle, h.wsToggleAgent)
	dispatcher.RegisterFunc(ws.ActionAgentDisableOthers, h.wsDisableOtherAgents)
	if h.cards != nil {
		dispatcher.RegisterFunc(ws.ActionAgentRefreshCard, h.wsRefreshCard)
	}
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, store.ErrDuplicateKey):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) reply(c *gin.Context, op string, data any, err error) {
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("settings operation failed", zap.String("op", op), zap.Error(err))
		}
		c.JSON(status, apiv1.Fail(err))
		return
	}
	c.JSON(http.StatusOK, apiv1.OK(data))
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apiv1.Fail(errors.New("invalid id")))
		return 0, false
	}
	return id, true
}

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, apiv1.Fail(errors.New("invalid payload")))
		return false
	}
	return true
}

// HTTP handlers: model providers

func (h *Handler) httpListModels(c *gin.Context) {
	items, err := h.service.ListModels(c.Request.Context(), c.Query("enabled") == "true")
	h.reply(c, "list models", items, err)
}

func (h *Handler) httpCreateModel(c *gin.Context) {
	var req models.CreateModelProviderParams
	if !bind(c, &req) {
		return
	}
	id, err := h.service.CreateModel(c.Request.Context(), req)
	h.reply(c, "create model", id, err)
}

func (h *Handler) httpGetModel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	item, err := h.service.GetModel(c.Request.Context(), id)
	h.reply(c, "get model", item, err)
}

func (h *Handler) httpGetModelByKey(c *gin.Context) {
	item, err := h.service.GetModelByKey(c.Request.Context(), c.Param("key"))
	h.reply(c, "get model by key", item, err)
}

func (h *Handler) httpUpdateModel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch models.ModelProviderPatch
	if !bind(c, &patch) {
		return
	}
	n, err := h.service.UpdateModel(c.Request.Context(), id, patch)
	h.reply(c, "update model", n, err)
}

func (h *Handler) httpDeleteModel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	n, err := h.service.DeleteModel(c.Request.Context(), id)
	h.reply(c, "delete model", n, err)
}

func (h *Handler) httpDeleteModelByKey(c *gin.Context) {
	n, err := h.service.DeleteModelByKey(c.Request.Context(), c.Param("key"))
	h.reply(c, "delete model by key", n, err)
}

func (h *Handler) httpToggleModel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	n, err := h.service.ToggleModel(c.Request.Context(), id)
	h.reply(c, "toggle model", n, err)
}

func (h *Handler) httpDisableOtherModels(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	n, err := h.service.DisableOtherModels(c.Request.Context(), id, c.Query("atomic") == "true")
	h.reply(c, "disable other models", n, err)
}

// HTTP handlers: agent servers

func (h *Handler) httpListAgents(c *gin.Context) {
	items, err := h.service.ListAgents(c.Request.Context(), c.Query("enabled") == "true")
	h.reply(c, "list agents", items, err)
}

func (h *Handler) httpCreateAgent(c *gin.Context) {
	var req models.CreateAgentServerParams
	if !bind(c, &req) {
		return
	}
	id, err := h.service.CreateAgent(c.Request.Context(), req)
	h.reply(c, "create agent", id, err)
}

func (h *Handler) httpGetAgent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	item, err := h.service.GetAgent(c.Request.Context(), id)
	h.reply(c, "get agent", item, err)
}

// httpLookupAgent finds a server by ?url= or ?name=.
func (h *Handler) httpLookupAgent(c *gin.Context) {
	ctx := c.Request.Context()
	if url := c.Query("url"); url != "" {
		item, err := h.service.GetAgentByURL(ctx, url)
		h.reply(c, "get agent by url", item, err)
		return
	}
	if name := c.Query("name"); name != "" {
		item, err := h.service.GetAgentByName(ctx, name)
		h.reply(c, "get agent by name", item, err)
		return
	}
	c.JSON(http.StatusBadRequest, apiv1.Fail(errors.New("url or name query parameter is required")))
}

func (h *Handler) httpUpdateAgent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch models.AgentServerPatch
	if !bind(c, &patch) {
		return
	}
	n, err := h.service.UpdateAgent(c.Request.Context(), id, patch)
	h.reply(c, "update agent", n, err)
}

func (h *Handler) httpDeleteAgent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	n, err := h.service.DeleteAgent(c.Request.Context(), id)
	h.reply(c, "delete agent", n, err)
}

// httpDeleteAgentBy deletes by ?url= or ?name=.
func (h *Handler) httpDeleteAgentBy(c *gin.Context) {
	ctx := c.Request.Context()
	if url := c.Query("url"); url != "" {
		n, err := h.service.DeleteAgentByURL(ctx, url)
		h.reply(c, "delete agent by url", n, err)
		return
	}
	if name := c.Query("name"); name != "" {
		n, err := h.service.DeleteAgentByName(ctx, name)
		h.reply(c, "delete agent by name", n, err)
		return
	}
	c.JSON(http.StatusBadRequest, apiv1.Fail(errors.New("url or name query parameter is required")))
}

func (h *Handler) httpToggleAgent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	n, err := h.service.ToggleAgent(c.Request.Context(), id)
	h.reply(c, "toggle agent", n, err)
}

func (h *Handler) httpDisableOtherAgents(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	n, err := h.service.DisableOtherAgents(c.Request.Context(), id, c.Query("atomic") == "true")
	h.reply(c, "disable other agents", n, err)
}

func (h *Handler) httpRefreshCard(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	n, err := h.cards.RefreshAgentCard(c.Request.Context(), id)
	if err != nil {
		h.logger.Warn("agent card refresh failed", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, apiv1.Fail(err))
		return
	}
	c.JSON(http.StatusOK, apiv1.OK(n))
}
