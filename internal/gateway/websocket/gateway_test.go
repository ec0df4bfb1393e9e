package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2adesk/a2adesk/internal/common/logger"
	ws "github.com/a2adesk/a2adesk/pkg/websocket"
)

func dial(t *testing.T) *gorillaws.Conn {
	t.Helper()
	return dialGateway(t, NewGateway(logger.NewNop()))
}

func dialGateway(t *testing.T, gw *Gateway) *gorillaws.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go gw.Hub.Run(ctx)

	router := gin.New()
	gw.SetupRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	conn, _, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

func TestGateway_HealthCheck(t *testing.T) {
	conn := dial(t)

	req, err := ws.NewRequest("h1", ws.ActionHealthCheck, nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(req))

	var resp ws.Message
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "h1", resp.ID)
	assert.Equal(t, ws.MessageTypeResponse, resp.Type)
	var payload map[string]any
	require.NoError(t, resp.ParsePayload(&payload))
	assert.Equal(t, "ok", payload["status"])
}

func TestGateway_UnknownActionAndBadJSON(t *testing.T) {
	conn := dial(t)

	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte("{")))
	var resp ws.Message
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, ws.MessageTypeError, resp.Type)

	req, err := ws.NewRequest("u1", "nope.nothing", nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(req))
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, ws.MessageTypeError, resp.Type)
	var payload ws.ErrorPayload
	require.NoError(t, resp.ParsePayload(&payload))
	assert.Equal(t, ws.ErrorCodeUnknownAction, payload.Code)
}

func TestGateway_ConcurrentActionDoesNotBlockReads(t *testing.T) {
	gw := NewGateway(logger.NewNop())
	release := make(chan struct{})
	gw.Dispatcher.RegisterFunc("test.slow", func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return ws.NewResponse(msg.ID, msg.Action, map[string]any{"done": true})
	})
	gw.Hub.SetConcurrent("test.slow")
	conn := dialGateway(t, gw)

	slow, err := ws.NewRequest("s1", "test.slow", nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(slow))

	health, err := ws.NewRequest("h1", ws.ActionHealthCheck, nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(health))

	var resp ws.Message
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "h1", resp.ID, "health reply must not wait for the slow action")

	close(release)
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "s1", resp.ID)
	assert.Equal(t, ws.MessageTypeResponse, resp.Type)
}

func TestGateway_LongRunningActionsAreConcurrent(t *testing.T) {
	gw := NewGateway(logger.NewNop())
	for _, action := range []string{ws.ActionChatStream, ws.ActionChatCompletion, ws.ActionA2ASend} {
		assert.True(t, gw.Hub.isConcurrent(action), action)
	}
	assert.False(t, gw.Hub.isConcurrent(ws.ActionModelCreate))
}
