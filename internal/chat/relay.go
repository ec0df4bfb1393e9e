package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/a2adesk/a2adesk/internal/common/constants"
	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/common/tracing"
)

// Config holds the fixed upstream parameters.
type Config struct {
	Model             string
	Temperature       float32
	StreamTemperature float32
	StreamMaxTokens   int
	Timeout           time.Duration
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = "deepseek-chat"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.StreamTemperature == 0 {
		c.StreamTemperature = 0.3
	}
	if c.StreamMaxTokens <= 0 {
		c.StreamMaxTokens = 4000
	}
	if c.Timeout <= 0 {
		c.Timeout = constants.StreamTimeout
	}
	return c
}

// Relay runs completions against upstreams built by a ClientFactory.
type Relay struct {
	factory ClientFactory
	sink    EventSink
	cfg     Config
	now     func() time.Time
	logger  *logger.Logger
}

// NewRelay creates a relay delivering stream events to sink.
func NewRelay(factory ClientFactory, sink EventSink, cfg Config, log *logger.Logger) *Relay {
	return &Relay{
		factory: factory,
		sink:    sink,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		logger:  log.WithComponent("chat"),
	}
}

func (r *Relay) connect(apiKey string) (Upstream, error) {
	up, err := r.factory(apiKey)
	if err != nil {
		return nil, newError(ErrClient, fmt.Sprintf("Failed to create AI client: %v", err), err)
	}
	return up, nil
}

// Complete sends an optional system turn plus the user turn and returns the
// first choice.
func (r *Relay) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return "", newError(ErrInvalidInput, "API key cannot be empty", nil)
	}
	if strings.TrimSpace(req.SystemPrompt) == "" && strings.TrimSpace(req.UserPrompt) == "" {
		return "", newError(ErrInvalidInput, "At least one of system_prompt or user_prompt must be provided", nil)
	}

	up, err := r.connect(req.APIKey)
	if err != nil {
		return "", err
	}

	// The user turn is always sent, even when empty.
	var messages []ChatMessage
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, ChatMessage{Role: RoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, ChatMessage{Role: RoleUser, Content: req.UserPrompt})

	ctx, span := tracing.StartClientSpan(ctx, "chat.completion", attribute.String("llm.model", r.cfg.Model))
	defer span.End()

	r.logger.Info("sending completion request", zap.String("model", r.cfg.Model))
	content, ok, err := up.Complete(ctx, UpstreamRequest{
		Model:       r.cfg.Model,
		Messages:    messages,
		Temperature: r.cfg.Temperature,
	})
	if err != nil {
		tracing.RecordError(span, err)
		return "", newError(ErrTransport, fmt.Sprintf("Request failed: %v", err), err)
	}
	if !ok {
		r.logger.Warn("completion response had no choices")
		return "", newError(ErrUnexpected, "Unexpected response format", nil)
	}
	return content, nil
}

// normalizeRoles maps unknown roles to user.
func normalizeRoles(messages []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, len(messages))
	for i, m := range messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			m.Role = RoleUser
		}
		out[i] = m
	}
	return out
}

// session is the state of one streaming call.
type session struct {
	start   time.Time
	content strings.Builder
	chunks  int
}

// Stream drives one streamed completion, emitting a started event, one
// content event per non-empty chunk, and a terminal event. Validation and
// connection failures emit nothing. A chunk read error returns without a
// terminal event. The elapsed time is checked each time a chunk arrives;
// past the timeout a terminal timeout event is emitted and the rest of the
// stream is discarded.
func (r *Relay) Stream(ctx context.Context, req StreamRequest) (*StreamResult, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return nil, newError(ErrInvalidInput, "API key cannot be empty", nil)
	}
	if len(req.Messages) == 0 {
		return nil, newError(ErrInvalidInput, "Messages array cannot be empty", nil)
	}

	up, err := r.connect(req.APIKey)
	if err != nil {
		return nil, err
	}

	upReq := UpstreamRequest{
		Model:       r.cfg.Model,
		Messages:    normalizeRoles(req.Messages),
		MaxTokens:   r.cfg.StreamMaxTokens,
		Temperature: r.cfg.StreamTemperature,
		Stream:      true,
	}
	if req.MaxTokens != nil {
		upReq.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		upReq.Temperature = *req.Temperature
	}

	ctx, span := tracing.StartClientSpan(ctx, "chat.stream",
		attribute.String("llm.model", upReq.Model),
		attribute.Int("llm.messages", len(upReq.Messages)),
	)
	defer span.End()

	r.logger.Info("starting streaming completion", zap.String("model", upReq.Model))
	stream, err := up.OpenStream(ctx, upReq)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, newError(ErrTransport, fmt.Sprintf("Request failed: %v", err), err)
	}
	defer func() { _ = stream.Close() }()

	s := &session{start: r.now()}
	r.sink.Emit(ctx, statusEvent(statusStarted, startedMessage))

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if r.now().Sub(s.start) > r.cfg.Timeout {
			r.logger.Warn(timeoutMessage, zap.Int("chunks", s.chunks))
			r.sink.Emit(ctx, timeoutEvent())
			terr := newError(ErrTimeout, timeoutMessage, nil)
			tracing.RecordError(span, terr)
			return nil, terr
		}
		if err != nil {
			r.logger.Error("error reading stream chunk", zap.Error(err))
			tracing.RecordError(span, err)
			return nil, newError(ErrStream, fmt.Sprintf("Stream error: %v", err), err)
		}

		s.chunks++
		if chunk.Content != "" {
			r.sink.Emit(ctx, contentEvent(chunk.Content))
			s.content.WriteString(chunk.Content)
		}
		if chunk.Usage != nil {
			r.logger.Info("stream usage",
				zap.Int("prompt_tokens", chunk.Usage.PromptTokens),
				zap.Int("completion_tokens", chunk.Usage.CompletionTokens),
				zap.Int("total_tokens", chunk.Usage.TotalTokens))
		}
	}

	r.logger.Info("stream completed", zap.Int("chunks", s.chunks))
	r.sink.Emit(ctx, completedEvent())
	span.SetAttributes(attribute.Int("llm.chunks", s.chunks))
	return &StreamResult{
		Message: completedMessage,
		Content: s.content.String(),
		Chunks:  s.chunks,
	}, nil
}
