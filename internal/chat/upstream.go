package chat

import "context"

// UpstreamRequest is a provider-neutral completion call.
type UpstreamRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float32
	Stream      bool
}

// Usage is the token accounting some providers attach to the last chunk.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Chunk is one streamed increment. Content is empty when the chunk
// carries none.
type Chunk struct {
	Content string
	Usage   *Usage
}

// Stream yields chunks until Recv returns io.EOF.
type Stream interface {
	Recv() (Chunk, error)
	Close() error
}

// Upstream is a completion endpoint bound to one credential.
type Upstream interface {
	// Complete returns the first choice's content. ok is false when the
	// response had no choices.
	Complete(ctx context.Context, req UpstreamRequest) (content string, ok bool, err error)
	OpenStream(ctx context.Context, req UpstreamRequest) (Stream, error)
}

// ClientFactory builds an Upstream for apiKey.
type ClientFactory func(apiKey string) (Upstream, error)

// EventSink receives stream events in emission order. Implementations must
// be safe for concurrent use by independent streams.
type EventSink interface {
	Emit(ctx context.Context, event StreamEvent)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, event StreamEvent)

func (f EventSinkFunc) Emit(ctx context.Context, event StreamEvent) { f(ctx, event) }
