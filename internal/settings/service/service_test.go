package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/db"
	"github.com/a2adesk/a2adesk/internal/db/dialect"
	"github.com/a2adesk/a2adesk/internal/events"
	"github.com/a2adesk/a2adesk/internal/events/bus"
	"github.com/a2adesk/a2adesk/internal/settings/models"
	"github.com/a2adesk/a2adesk/internal/settings/store"
)

func newTestService(t *testing.T) (*Service, *bus.MemoryEventBus) {
	t.Helper()
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(conn, dialect.SQLite3)
	t.Cleanup(func() { _ = sqlxDB.Close() })

	log := logger.NewNop()
	stores, err := store.Open(context.Background(), sqlxDB, log)
	require.NoError(t, err)

	eventBus := bus.NewMemoryEventBus(log)
	t.Cleanup(eventBus.Close)
	return NewService(stores.Models, stores.Agents, eventBus, log), eventBus
}

func TestService_CreateModelValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateModel(context.Background(), models.CreateModelProviderParams{ModelKey: "  "})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "validation:")
}

func TestService_CreateAgentPublishesEvent(t *testing.T) {
	svc, eventBus := newTestService(t)

	received := make(chan *bus.Event, 1)
	_, err := eventBus.Subscribe(events.SettingsWildcard, func(_ context.Context, e *bus.Event) error {
		received <- e
		return nil
	})
	require.NoError(t, err)

	id, err := svc.CreateAgent(context.Background(), models.CreateAgentServerParams{
		Name:         " agent ",
		AgentCardURL: " http://agent.local ",
	})
	require.NoError(t, err)

	select {
	case e := <-received:
		assert.Equal(t, events.AgentServerCreated, e.Type)
		assert.Equal(t, id, e.Data["id"])
	case <-time.After(time.Second):
		t.Fatal("no settings event")
	}

	got, err := svc.GetAgentByURL(context.Background(), "http://agent.local")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "agent", got.Name)
}

func TestService_DisableOtherModels(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateModel(ctx, models.CreateModelProviderParams{ModelKey: "a", Enabled: true, APIURL: "u", APIKey: "k"})
	require.NoError(t, err)
	b, err := svc.CreateModel(ctx, models.CreateModelProviderParams{ModelKey: "b", APIURL: "u", APIKey: "k"})
	require.NoError(t, err)

	// two-step: toggle b on, then clear the rest
	_, err = svc.ToggleModel(ctx, b)
	require.NoError(t, err)
	_, err = svc.DisableOtherModels(ctx, b, false)
	require.NoError(t, err)

	active, err := svc.ActiveModel(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, b, active.ID)

	// atomic variant switches back to a
	n, err := svc.DisableOtherModels(ctx, a, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	enabled, err := svc.ListModels(ctx, true)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, a, enabled[0].ID)
}

func TestService_UpdateAgentRejectsEmptyURL(t *testing.T) {
	svc, _ := newTestService(t)
	empty := "   "
	_, err := svc.UpdateAgent(context.Background(), 1, models.AgentServerPatch{AgentCardURL: &empty})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_ActiveModelNone(t *testing.T) {
	svc, _ := newTestService(t)
	active, err := svc.ActiveModel(context.Background())
	require.NoError(t, err)
	assert.Nil(t, active)
}
