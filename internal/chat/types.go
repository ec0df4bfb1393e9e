// Package chat relays completions from an OpenAI-compatible endpoint,
// either as one response or as an ordered stream of events.
package chat

import "errors"

// Error kinds. Every error returned by this package matches exactly one of
// them with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrClient       = errors.New("client error")
	ErrTransport    = errors.New("transport error")
	ErrStream       = errors.New("stream error")
	ErrTimeout      = errors.New("timeout")
	ErrUnexpected   = errors.New("unexpected response")
)

// Error carries the user-facing message and its kind.
type Error struct {
	Kind error
	Err  error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func newError(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Err: cause, msg: msg}
}

// Message roles accepted by the upstream. Anything else is sent as user.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest asks for a single non-streaming completion.
type CompletionRequest struct {
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
	APIKey       string `json:"api_key"`
}

// StreamRequest asks for a streamed completion. Nil MaxTokens and
// Temperature use the configured defaults.
type StreamRequest struct {
	Messages    []ChatMessage `json:"messages"`
	APIKey      string        `json:"api_key"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Temperature *float32      `json:"temperature,omitempty"`
}

// StreamEvent is one notification on the chat_stream_chunk channel.
type StreamEvent struct {
	Content    string  `json:"content"`
	IsComplete bool    `json:"is_complete"`
	Error      *string `json:"error"`
	Status     *string `json:"status"`
	Message    *string `json:"message"`
}

// StreamResult is the outcome of a completed stream.
type StreamResult struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Chunks  int    `json:"chunks"`
}

const (
	statusStarted   = "streaming_started"
	statusCompleted = "completed"

	startedMessage   = "Waiting for response..."
	completedMessage = "Streaming completed successfully"
	timeoutMessage   = "Streaming timeout after 5 minutes"
)

func ptr(s string) *string { return &s }

func statusEvent(status, message string) StreamEvent {
	return StreamEvent{Status: ptr(status), Message: ptr(message)}
}

func contentEvent(content string) StreamEvent {
	return StreamEvent{Content: content}
}

func completedEvent() StreamEvent {
	return StreamEvent{IsComplete: true, Status: ptr(statusCompleted), Message: ptr(completedMessage)}
}

func timeoutEvent() StreamEvent {
	return StreamEvent{IsComplete: true, Error: ptr(timeoutMessage)}
}
