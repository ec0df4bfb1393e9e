package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2adesk/a2adesk/internal/common/logger"
)

func receive(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return nil
	}
}

func TestMemoryEventBus_PublishSubscribe(t *testing.T) {
	b := NewMemoryEventBus(logger.NewNop())
	defer b.Close()

	received := make(chan *Event, 1)
	sub, err := b.Subscribe("settings.model.created", func(_ context.Context, e *Event) error {
		received <- e
		return nil
	})
	require.NoError(t, err)
	assert.True(t, sub.IsValid())

	event := NewEvent("settings.model.created", "settings", map[string]any{"id": 1})
	require.NoError(t, b.Publish(context.Background(), "settings.model.created", event))

	got := receive(t, received)
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, 1, got.Data["id"])
}

func TestMemoryEventBus_Wildcards(t *testing.T) {
	b := NewMemoryEventBus(logger.NewNop())
	defer b.Close()

	all := make(chan *Event, 4)
	single := make(chan *Event, 4)
	_, err := b.Subscribe("settings.>", func(_ context.Context, e *Event) error {
		all <- e
		return nil
	})
	require.NoError(t, err)
	_, err = b.Subscribe("settings.*.deleted", func(_ context.Context, e *Event) error {
		single <- e
		return nil
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, b.Publish(ctx, "settings.agent.updated", NewEvent("settings.agent.updated", "t", nil)))
	require.NoError(t, b.Publish(ctx, "settings.model.deleted", NewEvent("settings.model.deleted", "t", nil)))

	seen := map[string]bool{receive(t, all).Type: true, receive(t, all).Type: true}
	assert.True(t, seen["settings.agent.updated"])
	assert.True(t, seen["settings.model.deleted"])
	assert.Equal(t, "settings.model.deleted", receive(t, single).Type)
	assert.Empty(t, single)
}

func TestMemoryEventBus_UnsubscribeAndClose(t *testing.T) {
	b := NewMemoryEventBus(logger.NewNop())

	received := make(chan *Event, 1)
	sub, err := b.Subscribe("x", func(_ context.Context, e *Event) error {
		received <- e
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, sub.Unsubscribe())
	assert.False(t, sub.IsValid())

	require.NoError(t, b.Publish(context.Background(), "x", NewEvent("x", "t", nil)))
	select {
	case <-received:
		t.Fatal("unsubscribed handler was called")
	case <-time.After(50 * time.Millisecond):
	}

	b.Close()
	assert.False(t, b.IsConnected())
	assert.ErrorIs(t, b.Publish(context.Background(), "x", NewEvent("x", "t", nil)), ErrClosed)
	_, err = b.Subscribe("x", func(context.Context, *Event) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCompilePattern(t *testing.T) {
	assert.Nil(t, compilePattern("a.b"))
	assert.True(t, compilePattern("a.*").MatchString("a.b"))
	assert.False(t, compilePattern("a.*").MatchString("a.b.c"))
	assert.True(t, compilePattern("a.>").MatchString("a.b.c"))
}
