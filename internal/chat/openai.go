package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	openai "github.com/sashabaranov/go-openai"
)

// NewOpenAIFactory returns a ClientFactory for an OpenAI-compatible API at
// baseURL.
func NewOpenAIFactory(baseURL string) ClientFactory {
	return func(apiKey string) (Upstream, error) {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid base URL %q", baseURL)
		}
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = baseURL
		return &openAIUpstream{client: openai.NewClientWithConfig(cfg)}, nil
	}
}

type openAIUpstream struct {
	client *openai.Client
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func toOpenAIRequest(req UpstreamRequest) openai.ChatCompletionRequest {
	r := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      req.Stream,
	}
	if req.Stream {
		r.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}
	return r
}

func (u *openAIUpstream) Complete(ctx context.Context, req UpstreamRequest) (string, bool, error) {
	resp, err := u.client.CreateChatCompletion(ctx, toOpenAIRequest(req))
	if err != nil {
		return "", false, err
	}
	if len(resp.Choices) == 0 {
		return "", false, nil
	}
	return resp.Choices[0].Message.Content, true, nil
}

func (u *openAIUpstream) OpenStream(ctx context.Context, req UpstreamRequest) (Stream, error) {
	stream, err := u.client.CreateChatCompletionStream(ctx, toOpenAIRequest(req))
	if err != nil {
		return nil, err
	}
	return &openAIStream{stream: stream}, nil
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openAIStream) Recv() (Chunk, error) {
	resp, err := s.stream.Recv()
	if errors.Is(err, io.EOF) {
		return Chunk{}, io.EOF
	}
	if err != nil {
		return Chunk{}, err
	}
	var chunk Chunk
	if len(resp.Choices) > 0 {
		chunk.Content = resp.Choices[0].Delta.Content
	}
	if resp.Usage != nil {
		chunk.Usage = &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return chunk, nil
}

func (s *openAIStream) Close() error {
	s.stream.Close()
	return nil
}
