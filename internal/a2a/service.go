package a2a

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/settings/models"
	"github.com/a2adesk/a2adesk/internal/settings/service"
)

var (
	ErrServerNotFound = fmt.Errorf("A2A server %w", service.ErrNotFound)
	ErrInvalidInput   = errors.New("invalid input")
)

// AgentLookup is the slice of the settings service the A2A layer needs.
type AgentLookup interface {
	GetAgent(ctx context.Context, id int64) (*models.AgentServer, error)
	UpdateAgent(ctx context.Context, id int64, patch models.AgentServerPatch) (int64, error)
}

// Options tune the service. Zero values disable the card cache.
type Options struct {
	CardCacheSize int
	CardCacheTTL  time.Duration
}

// Service sends messages to configured agent servers and fetches cards.
type Service struct {
	agents AgentLookup
	client *Client
	cards  *cardCache
	logger *logger.Logger
}

func NewService(agents AgentLookup, client *Client, opts Options, log *logger.Logger) *Service {
	return &Service{
		agents: agents,
		client: client,
		cards:  newCardCache(opts.CardCacheSize, opts.CardCacheTTL),
		logger: log.WithComponent("a2a"),
	}
}

func (s *Service) lookup(ctx context.Context, id int64) (*models.AgentServer, error) {
	server, err := s.agents.GetAgent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Failed to get A2A server: %w", err)
	}
	if server == nil {
		return nil, ErrServerNotFound
	}
	return server, nil
}

// SendMessage resolves the server record, composes the call and sends it.
// The record lookup happens before any network I/O. Empty message and task
// ids are filled with fresh UUIDs.
func (s *Service) SendMessage(ctx context.Context, req SendRequest) (string, error) {
	server, err := s.lookup(ctx, req.ServerID)
	if err != nil {
		return "", err
	}
	if req.MessageID == "" {
		req.MessageID = uuid.NewString()
	}
	if req.TaskID == "" {
		req.TaskID = uuid.NewString()
	}

	out := Compose(server, req)
	body, err := s.client.Send(ctx, out)
	if err != nil {
		s.logger.Warn("A2A send failed",
			zap.Int64("server_id", server.ID),
			zap.String("url", out.URL),
			zap.Error(err))
		return "", err
	}
	return body, nil
}

// GetAgentCard fetches the card at req.URL, serving repeated requests from
// the cache.
func (s *Service) GetAgentCard(ctx context.Context, req AgentCardRequest) (*FetchedCard, error) {
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return nil, fmt.Errorf("validation: %w: url is required", ErrInvalidInput)
	}
	req.URL = NormalizeURL(req.URL)

	if card, ok := s.cards.get(req.URL, req.Token); ok {
		return card, nil
	}
	card, err := s.client.FetchAgentCard(ctx, req)
	if err != nil {
		return nil, err
	}
	s.cards.put(req.URL, req.Token, card)
	return card, nil
}

// RefreshAgentCard fetches the card at the server's stored URL, bypassing
// the cache, and stores it in agent_card_json. It returns the number of
// rows updated.
func (s *Service) RefreshAgentCard(ctx context.Context, serverID int64) (int64, error) {
	server, err := s.lookup(ctx, serverID)
	if err != nil {
		return 0, err
	}
	url := NormalizeURL(server.AgentCardURL)
	card, err := s.client.FetchAgentCard(ctx, AgentCardRequest{URL: url})
	if err != nil {
		return 0, err
	}
	s.cards.put(url, "", card)

	raw := string(card.Raw)
	n, err := s.agents.UpdateAgent(ctx, serverID, models.AgentServerPatch{AgentCardJSON: &raw})
	if err != nil {
		return 0, err
	}
	s.logger.Info("agent card refreshed", zap.Int64("server_id", serverID), zap.String("agent", card.Card.Name))
	return n, nil
}
