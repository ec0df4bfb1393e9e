// Package service wraps the settings repositories with validation and change
// notifications.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/events"
	"github.com/a2adesk/a2adesk/internal/events/bus"
	"github.com/a2adesk/a2adesk/internal/settings/models"
	"github.com/a2adesk/a2adesk/internal/settings/store"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is wrapped by callers that require a record to exist.
	ErrNotFound = errors.New("not found")
)

const eventSource = "settings"

// Service exposes the settings operations to transports.
type Service struct {
	models store.ModelProviderRepository
	agents store.AgentServerRepository
	bus    bus.EventBus
	logger *logger.Logger
}

// NewService creates a settings service. eventBus may be nil.
func NewService(modelRepo store.ModelProviderRepository, agentRepo store.AgentServerRepository, eventBus bus.EventBus, log *logger.Logger) *Service {
	return &Service{
		models: modelRepo,
		agents: agentRepo,
		bus:    eventBus,
		logger: log.WithComponent("settings"),
	}
}

func invalid(msg string) error {
	return fmt.Errorf("validation: %w: %s", ErrInvalidInput, msg)
}

func (s *Service) publish(ctx context.Context, subject string, id int64, affected int64) {
	if s.bus == nil || affected == 0 {
		return
	}
	event := bus.NewEvent(subject, eventSource, map[string]any{"id": id, "affected": affected})
	if err := s.bus.Publish(ctx, subject, event); err != nil {
		s.logger.Warn("failed to publish settings event", zap.String("subject", subject), zap.Error(err))
	}
}

// Model providers

func (s *Service) ListModels(ctx context.Context, enabledOnly bool) ([]*models.ModelProvider, error) {
	if enabledOnly {
		return s.models.ListEnabled(ctx)
	}
	return s.models.List(ctx)
}

func (s *Service) GetModel(ctx context.Context, id int64) (*models.ModelProvider, error) {
	return s.models.GetByID(ctx, id)
}

func (s *Service) GetModelByKey(ctx context.Context, key string) (*models.ModelProvider, error) {
	return s.models.GetByModelKey(ctx, key)
}

// ActiveModel returns the first enabled provider, or nil when none is enabled.
func (s *Service) ActiveModel(ctx context.Context) (*models.ModelProvider, error) {
	enabled, err := s.models.ListEnabled(ctx)
	if err != nil || len(enabled) == 0 {
		return nil, err
	}
	return enabled[0], nil
}

func (s *Service) CreateModel(ctx context.Context, params models.CreateModelProviderParams) (int64, error) {
	params.ModelKey = strings.TrimSpace(params.ModelKey)
	if params.ModelKey == "" {
		return 0, invalid("modelKey is required")
	}
	id, err := s.models.Create(ctx, params)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events.ModelProviderCreated, id, 1)
	return id, nil
}

func (s *Service) UpdateModel(ctx context.Context, id int64, patch models.ModelProviderPatch) (int64, error) {
	if patch.ModelKey != nil {
		key := strings.TrimSpace(*patch.ModelKey)
		if key == "" {
			return 0, invalid("modelKey must not be empty")
		}
		patch.ModelKey = &key
	}
	n, err := s.models.Update(ctx, id, patch)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events.ModelProviderUpdated, id, n)
	return n, nil
}

func (s *Service) DeleteModel(ctx context.Context, id int64) (int64, error) {
	n, err := s.models.DeleteByID(ctx, id)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events.ModelProviderDeleted, id, n)
	return n, nil
}

func (s *Service) DeleteModelByKey(ctx context.Context, key string) (int64, error) {
	n, err := s.models.DeleteByModelKey(ctx, key)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events.ModelProviderDeleted, 0, n)
	return n, nil
}

func (s *Service) ToggleModel(ctx context.Context, id int64) (int64, error) {
	n, err := s.models.ToggleEnabled(ctx, id)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events.ModelProviderUpdated, id, n)
	return n, nil
}

// DisableOtherModels clears enabled on every provider but id. With atomic
// set, id is also enabled in the same transaction.
func (s *Service) DisableOtherModels(ctx context.Context, id int64, atomic bool) (int64, error) {
	var n int64
	var err error
	if atomic {
		n, err = s.models.EnableExclusive(ctx, id)
	} else {
		n, err = s.models.DisableOthers(ctx, id)
	}
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events.ModelProviderUpdated, id, n)
	return n, nil
}

// Agent servers

func (s *Service) ListAgents(ctx context.Context, enabledOnly bool) ([]*models.AgentServer, error) {
	if enabledOnly {
		return s.agents.ListEnabled(ctx)
	}
	return s.agents.List(ctx)
}

func (s *Service) GetAgent(ctx context.Context, id int64) (*models.AgentServer, error) {
	return s.agents.GetByID(ctx, id)
}

func (s *Service) GetAgentByURL(ctx context.Context, url string) (*models.AgentServer, error) {
	return s.agents.GetByURL(ctx, url)
}

func (s *Service) GetAgentByName(ctx context.Context, name string) (*models.AgentServer, error) {
	return s.agents.GetByName(ctx, name)
}

func (s *Service) CreateAgent(ctx context.Context, params models.CreateAgentServerParams) (int64, error) {
	params.Name = strings.TrimSpace(params.Name)
	params.AgentCardURL = strings.TrimSpace(params.AgentCardURL)
	if params.Name == "" {
		return 0, invalid("name is required")
	}
	if params.AgentCardURL == "" {
		return 0, invalid("agentCardUrl is required")
	}
	id, err := s.agents.Create(ctx, params)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events.AgentServerCreated, id, 1)
	return id, nil
}

func (s *Service) UpdateAgent(ctx context.Context, id int64, patch models.AgentServerPatch) (int64, error) {
	if patch.AgentCardURL != nil {
		url := strings.TrimSpace(*patch.AgentCardURL)
		if url == "" {
			return 0, invalid("agentCardUrl must not be empty")
		}
		patch.AgentCardURL = &url
	}
	n, err := s.agents.Update(ctx, id, patch)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events.AgentServerUpdated, id, n)
	return n, nil
}

func (s *Service) DeleteAgent(ctx context.Context, id int64) (int64, error) {
	n, err := s.agents.DeleteByID(ctx, id)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events.AgentServerDeleted, id, n)
	return n, nil
}

func (s *Service) DeleteAgentByURL(ctx context.Context, url string) (int64, error) {
	n, err := s.agents.DeleteByURL(ctx, url)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events.AgentServerDeleted, 0, n)
	return n, nil
}

func (s *Service) DeleteAgentByName(ctx context.Context, name string) (int64, error) {
	n, err := s.agents.DeleteByName(ctx, name)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events.AgentServerDeleted, 0, n)
	return n, nil
}

func (s *Service) ToggleAgent(ctx context.Context, id int64) (int64, error) {
	n, err := s.agents.ToggleEnabled(ctx, id)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events.AgentServerUpdated, id, n)
	return n, nil
}

// DisableOtherAgents mirrors DisableOtherModels for agent servers.
func (s *Service) DisableOtherAgents(ctx context.Context, id int64, atomic bool) (int64, error) {
	var n int64
	var err error
	if atomic {
		n, err = s.agents.EnableExclusive(ctx, id)
	} else {
		n, err = s.agents.DisableOthers(ctx, id)
	}
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events.AgentServerUpdated, id, n)
	return n, nil
}
