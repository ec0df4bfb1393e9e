package handlers

import (
	"context"

	"github.com/a2adesk/a2adesk/internal/settings/models"
	apiv1 "github.com/a2adesk/a2adesk/pkg/api/v1"
	ws "github.com/a2adesk/a2adesk/pkg/websocket"
)

// wsResult answers msg with the result envelope. Operation errors travel
// inside the envelope; only malformed requests produce protocol errors.
func wsResult(msg *ws.Message, data any, err error) (*ws.Message, error) {
	if err != nil {
		return ws.NewResponse(msg.ID, msg.Action, apiv1.Fail(err))
	}
	return ws.NewResponse(msg.ID, msg.Action, apiv1.OK(data))
}

func badPayload(msg *ws.Message) (*ws.Message, error) {
	return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "invalid payload", nil)
}

func (h *Handler) wsListModels(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	items, err := h.service.ListModels(ctx, req.Enabled)
	return wsResult(msg, items, err)
}

func (h *Handler) wsGetModel(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req idRequest
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	item, err := h.service.GetModel(ctx, req.ID)
	return wsResult(msg, item, err)
}

func (h *Handler) wsGetModelByKey(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req keyRequest
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	item, err := h.service.GetModelByKey(ctx, req.ModelKey)
	return wsResult(msg, item, err)
}

func (h *Handler) wsCreateModel(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req models.CreateModelProviderParams
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	id, err := h.service.CreateModel(ctx, req)
	return wsResult(msg, id, err)
}

func (h *Handler) wsUpdateModel(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req updateModelRequest
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	n, err := h.service.UpdateModel(ctx, req.ID, req.ModelProviderPatch)
	return wsResult(msg, n, err)
}

func (h *Handler) wsDeleteModel(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req idRequest
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	n, err := h.service.DeleteModel(ctx, req.ID)
	return wsResult(msg, n, err)
}

func (h *Handler) wsDeleteModelByKey(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req keyRequest
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	n, err := h.service.DeleteModelByKey(ctx, req.ModelKey)
	return wsResult(msg, n, err)
}

func (h *Handler) wsToggleModel(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req idRequest
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	n, err := h.service.ToggleModel(ctx, req.ID)
	return wsResult(msg, n, err)
}

func (h *Handler) wsDisableOtherModels(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req idRequest
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	n, err := h.service.DisableOtherModels(ctx, req.ID, req.Atomic)
	return wsResult(msg, n, err)
}

func (h *Handler) wsListAgents(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	items, err := h.service.ListAgents(ctx, req.Enabled)
	return wsResult(msg, items, err)
}

func (h *Handler) wsGetAgent(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req idRequest
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	item, err := h.service.GetAgent(ctx, req.ID)
	return wsResult(msg, item, err)
}

func (h *Handler) wsGetAgentByURL(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req urlRequest
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	item, err := h.service.GetAgentByURL(ctx, req.URL)
	return wsResult(msg, item, err)
}

func (h *Handler) wsGetAgentByName(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req nameRequest
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	item, err := h.service.GetAgentByName(ctx, req.Name)
	return wsResult(msg, item, err)
}

func (h *Handler) wsCreateAgent(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req models.CreateAgentServerParams
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	id, err := h.service.CreateAgent(ctx, req)
	return wsResult(msg, id, err)
}

func (h *Handler) wsUpdateAgent(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req updateAgentRequest
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	n, err := h.service.UpdateAgent(ctx, req.ID, req.AgentServerPatch)
	return wsResult(msg, n, err)
}

func (h *Handler) wsDeleteAgent(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req idRequest
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	n, err := h.service.DeleteAgent(ctx, req.ID)
	return wsResult(msg, n, err)
}

func (h *Handler) wsDeleteAgentByURL(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req urlRequest
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	n, err := h.service.DeleteAgentByURL(ctx, req.URL)
	return wsResult(msg, n, err)
}

func (h *Handler) wsDeleteAgentByName(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req nameRequest
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	n, err := h.service.DeleteAgentByName(ctx, req.Name)
	return wsResult(msg, n, err)
}

func (h *Handler) wsToggleAgent(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req idRequest
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	n, err := h.service.ToggleAgent(ctx, req.ID)
	return wsResult(msg, n, err)
}

func (h *Handler) wsDisableOtherAgents(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req idRequest
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	n, err := h.service.DisableOtherAgents(ctx, req.ID, req.Atomic)
	return wsResult(msg, n, err)
}

func (h *Handler) wsRefreshCard(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req idRequest
	if err := msg.ParsePayload(&req); err != nil {
		return badPayload(msg)
	}
	n, err := h.cards.RefreshAgentCard(ctx, req.ID)
	return wsResult(msg, n, err)
}
