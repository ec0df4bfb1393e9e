package a2a

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/settings/models"
	"github.com/a2adesk/a2adesk/internal/settings/service"
)

type fakeAgents struct {
	servers map[int64]*models.AgentServer
	err     error
	patched map[int64]models.AgentServerPatch
}

func (f *fakeAgents) GetAgent(_ context.Context, id int64) (*models.AgentServer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.servers[id], nil
}

func (f *fakeAgents) UpdateAgent(_ context.Context, id int64, patch models.AgentServerPatch) (int64, error) {
	if f.patched == nil {
		f.patched = map[int64]models.AgentServerPatch{}
	}
	f.patched[id] = patch
	return 1, nil
}

type countingDoer struct {
	calls atomic.Int32
	next  Doer
}

func (d *countingDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls.Add(1)
	return d.next.Do(req)
}

func TestService_SendMessageNotFoundBeforeNetwork(t *testing.T) {
	doer := &countingDoer{next: http.DefaultClient}
	svc := NewService(&fakeAgents{}, NewClient(doer, 0, logger.NewNop()), Options{}, logger.NewNop())

	_, err := svc.SendMessage(context.Background(), SendRequest{ServerID: 7, Text: "hi"})
	require.ErrorIs(t, err, ErrServerNotFound)
	require.ErrorIs(t, err, service.ErrNotFound)
	assert.Equal(t, "A2A server not found", err.Error())
	assert.Equal(t, int32(0), doer.calls.Load())
	assert.Equal(t, http.StatusNotFound, StatusFor(err))
}

func TestService_SendMessageLookupFailure(t *testing.T) {
	agents := &fakeAgents{err: errors.New("db down")}
	svc := NewService(agents, NewClient(nil, 0, logger.NewNop()), Options{}, logger.NewNop())

	_, err := svc.SendMessage(context.Background(), SendRequest{ServerID: 1})
	require.Error(t, err)
	assert.Equal(t, "Failed to get A2A server: db down", err.Error())
}

func TestService_SendMessageFillsIDs(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-A2A-Skill-Id")
		_, _ = w.Write([]byte("done"))
	}))
	defer srv.Close()

	agents := &fakeAgents{servers: map[int64]*models.AgentServer{1: {ID: 1, AgentCardURL: srv.URL}}}
	svc := NewService(agents, NewClient(srv.Client(), 0, logger.NewNop()), Options{}, logger.NewNop())

	body, err := svc.SendMessage(context.Background(), SendRequest{ServerID: 1, HeaderSkillID: "sk", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "done", body)
	assert.Equal(t, "sk", gotID)
}

func TestService_GetAgentCardCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"name":"a"}`))
	}))
	defer srv.Close()

	svc := NewService(&fakeAgents{}, NewClient(srv.Client(), 0, logger.NewNop()), Options{CardCacheSize: 4}, logger.NewNop())
	for i := 0; i < 3; i++ {
		card, err := svc.GetAgentCard(context.Background(), AgentCardRequest{URL: srv.URL})
		require.NoError(t, err)
		assert.Equal(t, "a", card.Card.Name)
	}
	assert.Equal(t, int32(1), hits.Load())

	_, err := svc.GetAgentCard(context.Background(), AgentCardRequest{URL: "  "})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_RefreshAgentCardStoresRawJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name":"weather","extra":1}`))
	}))
	defer srv.Close()

	agents := &fakeAgents{servers: map[int64]*models.AgentServer{3: {ID: 3, AgentCardURL: srv.URL}}}
	svc := NewService(agents, NewClient(srv.Client(), 0, logger.NewNop()), Options{}, logger.NewNop())

	n, err := svc.RefreshAgentCard(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NotNil(t, agents.patched[3].AgentCardJSON)
	assert.JSONEq(t, `{"name":"weather","extra":1}`, *agents.patched[3].AgentCardJSON)
	assert.Nil(t, agents.patched[3].Name)
}
