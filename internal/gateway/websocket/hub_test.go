package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2adesk/a2adesk/internal/chat"
	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/events"
	"github.com/a2adesk/a2adesk/internal/events/bus"
	ws "github.com/a2adesk/a2adesk/pkg/websocket"
)

// startHub runs a hub with one connectionless client registered.
func startHub(t *testing.T) (*Hub, *Client) {
	t.Helper()
	return startHubWithTimeout(t, clientSendTimeout)
}

func startHubWithTimeout(t *testing.T, sendTimeout time.Duration) (*Hub, *Client) {
	t.Helper()
	hub := NewHub(ws.NewDispatcher(), logger.NewNop())
	hub.sendTimeout = sendTimeout
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	client := NewClient("c1", nil, hub, logger.NewNop())
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)
	return hub, client
}

func receive(t *testing.T, client *Client) ws.Message {
	t.Helper()
	select {
	case data := <-client.send:
		var msg ws.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return ws.Message{}
	}
}

func TestStreamSink_PreservesOrder(t *testing.T) {
	hub, client := startHub(t)
	sink := NewStreamSink(hub, logger.NewNop())

	for _, content := range []string{"a", "b", "c"} {
		sink.Emit(context.Background(), chat.StreamEvent{Content: content})
	}

	for _, want := range []string{"a", "b", "c"} {
		msg := receive(t, client)
		assert.Equal(t, ws.ActionChatStreamChunk, msg.Action)
		assert.Equal(t, ws.MessageTypeNotification, msg.Type)
		var event chat.StreamEvent
		require.NoError(t, msg.ParsePayload(&event))
		assert.Equal(t, want, event.Content)
	}
}

func TestSettingsBroadcaster_ForwardsEvents(t *testing.T) {
	hub, client := startHub(t)
	eventBus := bus.NewMemoryEventBus(logger.NewNop())
	t.Cleanup(eventBus.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	_, err := RegisterSettingsNotifications(ctx, eventBus, hub, logger.NewNop())
	require.NoError(t, err)

	event := bus.NewEvent(events.AgentServerDeleted, "settings", map[string]any{"id": 4})
	require.NoError(t, eventBus.Publish(context.Background(), events.AgentServerDeleted, event))

	msg := receive(t, client)
	assert.Equal(t, ws.ActionSettingsChanged, msg.Action)
	var payload settingsChange
	require.NoError(t, msg.ParsePayload(&payload))
	assert.Equal(t, events.AgentServerDeleted, payload.Subject)
	assert.EqualValues(t, 4, payload.Data["id"])
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub, client := startHub(t)
	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-client.send
	assert.False(t, ok)
}

func TestHub_BroadcastHonoursContext(t *testing.T) {
	hub := NewHub(ws.NewDispatcher(), logger.NewNop())
	msg, err := ws.NewNotification(ws.ActionSettingsChanged, nil)
	require.NoError(t, err)
	for i := 0; i < cap(hub.broadcast); i++ {
		require.NoError(t, hub.Broadcast(context.Background(), msg))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, hub.Broadcast(ctx, msg), context.Canceled)
}

func TestStreamSink_BurstLargerThanClientBuffer(t *testing.T) {
	hub, client := startHub(t)
	sink := NewStreamSink(hub, logger.NewNop())

	const burst = 300
	emitted := make(chan struct{})
	go func() {
		defer close(emitted)
		for i := 0; i < burst; i++ {
			sink.Emit(context.Background(), chat.StreamEvent{Content: fmt.Sprintf("%d", i)})
		}
		sink.Emit(context.Background(), chat.StreamEvent{IsComplete: true})
	}()

	// let the client buffer fill before reading
	time.Sleep(50 * time.Millisecond)

	for i := 0; i < burst; i++ {
		msg := receive(t, client)
		var event chat.StreamEvent
		require.NoError(t, msg.ParsePayload(&event))
		require.Equal(t, fmt.Sprintf("%d", i), event.Content)
		require.False(t, event.IsComplete)
	}
	msg := receive(t, client)
	var last chat.StreamEvent
	require.NoError(t, msg.ParsePayload(&last))
	assert.True(t, last.IsComplete)

	select {
	case <-emitted:
	case <-time.After(time.Second):
		t.Fatal("emitter still blocked")
	}
	assert.Equal(t, 1, hub.GetClientCount())
}

func TestHub_DisconnectsStalledClient(t *testing.T) {
	hub, client := startHubWithTimeout(t, 20*time.Millisecond)
	msg, err := ws.NewNotification(ws.ActionChatStreamChunk, chat.StreamEvent{Content: "x"})
	require.NoError(t, err)

	for i := 0; i <= cap(client.send); i++ {
		require.NoError(t, hub.Broadcast(context.Background(), msg))
	}
	require.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, time.Second, 5*time.Millisecond)

	delivered := 0
	for range client.send {
		delivered++
	}
	assert.Equal(t, cap(client.send), delivered)
	assert.False(t, client.enqueue([]byte("late"), time.Millisecond))
}
