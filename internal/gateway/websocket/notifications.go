package websocket

import (
	"context"

	"go.uber.org/zap"

	"github.com/a2adesk/a2adesk/internal/chat"
	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/events"
	"github.com/a2adesk/a2adesk/internal/events/bus"
	ws "github.com/a2adesk/a2adesk/pkg/websocket"
)

// StreamSink delivers chat stream events to every client as
// chat_stream_chunk notifications.
type StreamSink struct {
	hub    *Hub
	logger *logger.Logger
}

func NewStreamSink(hub *Hub, log *logger.Logger) *StreamSink {
	return &StreamSink{hub: hub, logger: log.WithFields(zap.String("component", "ws-stream-sink"))}
}

// Emit implements chat.EventSink.
func (s *StreamSink) Emit(ctx context.Context, event chat.StreamEvent) {
	msg, err := ws.NewNotification(ws.ActionChatStreamChunk, event)
	if err != nil {
		s.logger.Error("failed to build stream notification", zap.Error(err))
		return
	}
	if err := s.hub.Broadcast(ctx, msg); err != nil {
		s.logger.Warn("stream notification dropped", zap.Error(err))
	}
}

// SettingsBroadcaster forwards settings change events to clients as
// settings.changed notifications.
type SettingsBroadcaster struct {
	hub          *Hub
	subscription bus.Subscription
	logger       *logger.Logger
}

// settingsChange is the settings.changed payload.
type settingsChange struct {
	Subject string         `json:"subject"`
	Data    map[string]any `json:"data"`
}

// RegisterSettingsNotifications subscribes to every settings subject until
// ctx is done. eventBus may be nil.
func RegisterSettingsNotifications(ctx context.Context, eventBus bus.EventBus, hub *Hub, log *logger.Logger) (*SettingsBroadcaster, error) {
	b := &SettingsBroadcaster{
		hub:    hub,
		logger: log.WithFields(zap.String("component", "ws-settings-broadcaster")),
	}
	if eventBus == nil {
		return b, nil
	}

	// Publishers pass request-scoped contexts; delivery is bound to ctx instead.
	sub, err := eventBus.Subscribe(events.SettingsWildcard, func(_ context.Context, event *bus.Event) error {
		msg, err := ws.NewNotification(ws.ActionSettingsChanged, settingsChange{Subject: event.Type, Data: event.Data})
		if err != nil {
			return err
		}
		return hub.Broadcast(ctx, msg)
	})
	if err != nil {
		return nil, err
	}
	b.subscription = sub

	go func() {
		<-ctx.Done()
		b.Close()
	}()
	return b, nil
}

func (b *SettingsBroadcaster) Close() {
	if b.subscription != nil && b.subscription.IsValid() {
		if err := b.subscription.Unsubscribe(); err != nil {
			b.logger.Debug("unsubscribe failed", zap.Error(err))
		}
	}
}
