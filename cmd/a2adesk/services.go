package main

import (
	"github.com/a2adesk/a2adesk/internal/a2a"
	"github.com/a2adesk/a2adesk/internal/chat"
	"github.com/a2adesk/a2adesk/internal/common/config"
	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/mcpserver"
	"github.com/a2adesk/a2adesk/internal/settings/service"
)

// backends are the in-process services shared by every transport.
type backends struct {
	settings *service.Service
	agents   *a2a.Service
	chat     *chat.Relay
}

func newBackends(cfg *config.Config, settings *service.Service, sink chat.EventSink, log *logger.Logger) *backends {
	client := a2a.NewClient(nil, cfg.A2A.RequestTimeoutDuration(), log)
	agents := a2a.NewService(settings, client, a2a.Options{
		CardCacheSize: cfg.A2A.CardCacheSize,
		CardCacheTTL:  cfg.A2A.CardCacheTTLDuration(),
	}, log)

	relay := chat.NewRelay(chat.NewOpenAIFactory(cfg.Chat.BaseURL), sink, chat.Config{
		Model:             cfg.Chat.Model,
		Temperature:       cfg.Chat.Temperature,
		StreamTemperature: cfg.Chat.StreamTemperature,
		StreamMaxTokens:   cfg.Chat.StreamMaxTokens,
	}, log)

	return &backends{settings: settings, agents: agents, chat: relay}
}

func (b *backends) mcpServices() mcpserver.Services {
	return mcpserver.Services{
		Settings: b.settings,
		Agents:   b.agents,
		Chat:     b.chat,
	}
}
