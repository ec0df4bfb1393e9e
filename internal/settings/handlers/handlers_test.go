package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/db"
	"github.com/a2adesk/a2adesk/internal/db/dialect"
	"github.com/a2adesk/a2adesk/internal/settings/service"
	"github.com/a2adesk/a2adesk/internal/settings/store"
	ws "github.com/a2adesk/a2adesk/pkg/websocket"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type fakeRefresher struct {
	calledWith int64
}

func (f *fakeRefresher) RefreshAgentCard(_ context.Context, id int64) (int64, error) {
	f.calledWith = id
	return 1, nil
}

func setup(t *testing.T) (*gin.Engine, *ws.Dispatcher, *fakeRefresher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(conn, dialect.SQLite3)
	t.Cleanup(func() { _ = sqlxDB.Close() })

	log := logger.NewNop()
	stores, err := store.Open(context.Background(), sqlxDB, log)
	require.NoError(t, err)
	svc := service.NewService(stores.Models, stores.Agents, nil, log)

	router := gin.New()
	dispatcher := ws.NewDispatcher()
	refresher := &fakeRefresher{}
	RegisterRoutes(router, dispatcher, svc, refresher, log)
	return router, dispatcher, refresher
}

func do(t *testing.T, router *gin.Engine, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestHTTP_AgentLifecycle(t *testing.T) {
	router, _, refresher := setup(t)

	status, env := do(t, router, http.MethodPost, "/api/v1/settings/agents", map[string]any{
		"name":         "weather",
		"agentCardUrl": "http://weather.local",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, env.Code)
	assert.Equal(t, "ok", env.Message)
	assert.JSONEq(t, "1", string(env.Data))

	status, env = do(t, router, http.MethodPost, "/api/v1/settings/agents", map[string]any{
		"name":         "other",
		"agentCardUrl": "http://weather.local",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 1, env.Code)
	assert.Equal(t, "A2A server with URL 'http://weather.local' already exists", env.Message)

	status, env = do(t, router, http.MethodPatch, "/api/v1/settings/agents/1", map[string]any{
		"customHeaderJson": `{"X-Team":"a"}`,
	})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "1", string(env.Data))

	status, env = do(t, router, http.MethodGet, "/api/v1/settings/agents/lookup?url=http://weather.local", nil)
	require.Equal(t, http.StatusOK, status)
	var agent map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &agent))
	assert.Equal(t, `{"X-Team":"a"}`, agent["customHeaderJson"])
	assert.Nil(t, agent["agentCardJson"])

	status, _ = do(t, router, http.MethodPost, "/api/v1/settings/agents/1/refresh-card", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), refresher.calledWith)

	status, env = do(t, router, http.MethodDelete, "/api/v1/settings/agents?name=weather", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "1", string(env.Data))
}

func TestHTTP_GetMissingModelReturnsNull(t *testing.T) {
	router, _, _ := setup(t)

	status, env := do(t, router, http.MethodGet, "/api/v1/settings/models/99", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, env.Code)
	assert.Equal(t, "null", string(env.Data))

	status, env = do(t, router, http.MethodGet, "/api/v1/settings/models/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 1, env.Code)
}

func TestHTTP_ModelToggleAndDisableOthers(t *testing.T) {
	router, _, _ := setup(t)

	for _, key := range []string{"a", "b"} {
		status, _ := do(t, router, http.MethodPost, "/api/v1/settings/models", map[string]any{
			"modelKey": key, "enabled": true, "apiUrl": "u", "apiKey": "k",
		})
		require.Equal(t, http.StatusOK, status)
	}

	status, env := do(t, router, http.MethodPost, "/api/v1/settings/models/2/disable-others", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "1", string(env.Data))

	_, env = do(t, router, http.MethodGet, "/api/v1/settings/models?enabled=true", nil)
	var enabled []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &enabled))
	require.Len(t, enabled, 1)
	assert.Equal(t, "b", enabled[0]["modelKey"])
}

func TestWS_UpdateModelWithEmptyPatch(t *testing.T) {
	router, dispatcher, _ := setup(t)

	status, _ := do(t, router, http.MethodPost, "/api/v1/settings/models", map[string]any{
		"modelKey": "a", "apiUrl": "u", "apiKey": "k",
	})
	require.Equal(t, http.StatusOK, status)

	msg, err := ws.NewRequest("r1", ws.ActionModelUpdate, map[string]any{"id": 1})
	require.NoError(t, err)
	resp, err := dispatcher.Dispatch(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, ws.MessageTypeResponse, resp.Type)

	var env envelope
	require.NoError(t, resp.ParsePayload(&env))
	assert.Equal(t, 0, env.Code)
	assert.JSONEq(t, "0", string(env.Data))

	msg, err = ws.NewRequest("r2", ws.ActionModelUpdate, map[string]any{"id": 1, "enabled": true})
	require.NoError(t, err)
	resp, err = dispatcher.Dispatch(context.Background(), msg)
	require.NoError(t, err)
	require.NoError(t, resp.ParsePayload(&env))
	assert.JSONEq(t, "1", string(env.Data))
}

func TestWS_BadPayload(t *testing.T) {
	_, dispatcher, _ := setup(t)

	resp, err := dispatcher.Dispatch(context.Background(), &ws.Message{
		ID: "x", Action: ws.ActionAgentGet, Payload: json.RawMessage(`{"id":"not-a-number"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, ws.MessageTypeError, resp.Type)
}
