package websocket

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResponse_ParsePayload(t *testing.T) {
	msg, err := NewResponse("req-1", ActionModelList, map[string]any{"count": 2})
	require.NoError(t, err)
	assert.Equal(t, MessageTypeResponse, msg.Type)
	assert.Equal(t, "req-1", msg.ID)

	var out struct {
		Count int `json:"count"`
	}
	require.NoError(t, msg.ParsePayload(&out))
	assert.Equal(t, 2, out.Count)
}

func TestParsePayload_Empty(t *testing.T) {
	msg := &Message{Action: ActionHealthCheck}
	var out map[string]any
	assert.NoError(t, msg.ParsePayload(&out))
	assert.Nil(t, out)
}

func TestNotification_HasNoID(t *testing.T) {
	msg, err := NewNotification(ActionChatStreamChunk, map[string]any{"content": "a"})
	require.NoError(t, err)
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"id"`)
	assert.Equal(t, MessageTypeNotification, msg.Type)
}

func TestDispatcher(t *testing.T) {
	d := NewDispatcher()
	d.RegisterFunc(ActionHealthCheck, func(_ context.Context, msg *Message) (*Message, error) {
		return NewResponse(msg.ID, msg.Action, map[string]string{"status": "ok"})
	})
	assert.True(t, d.HasHandler(ActionHealthCheck))

	resp, err := d.Dispatch(context.Background(), &Message{ID: "1", Action: ActionHealthCheck})
	require.NoError(t, err)
	assert.Equal(t, MessageTypeResponse, resp.Type)

	resp, err = d.Dispatch(context.Background(), &Message{ID: "2", Action: "nope"})
	require.NoError(t, err)
	assert.Equal(t, MessageTypeError, resp.Type)
	var payload ErrorPayload
	require.NoError(t, resp.ParsePayload(&payload))
	assert.Equal(t, ErrorCodeUnknownAction, payload.Code)
}
