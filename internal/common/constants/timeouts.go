// Package constants provides application-wide constants and timeouts.
package constants

import "time"

const (
	// StreamTimeout is the wall-clock ceiling for one relayed chat stream,
	// checked each time a chunk arrives.
	StreamTimeout = 5 * time.Minute

	// A2ARequestTimeout bounds a single outbound message/send call.
	A2ARequestTimeout = 2 * time.Minute

	// AgentCardTimeout bounds an agent card fetch.
	AgentCardTimeout = 30 * time.Second

	// ShutdownTimeout is how long serve waits for in-flight requests on exit.
	ShutdownTimeout = 30 * time.Second
)

// Fixed protocol values.
const (
	ChatStreamChannel = "chat_stream_chunk"
	UserPromptToken   = "{{USER_PROMPT}}"
)
