package chat

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2adesk/a2adesk/internal/common/logger"
)

// fakeClock is advanced by the fake stream as chunks "arrive".
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type step struct {
	delay time.Duration
	chunk Chunk
	err   error
}

type fakeStream struct {
	clock  *fakeClock
	steps  []step
	closed bool
}

func (s *fakeStream) Recv() (Chunk, error) {
	if len(s.steps) == 0 {
		return Chunk{}, io.EOF
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	s.clock.Advance(st.delay)
	return st.chunk, st.err
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

type fakeUpstream struct {
	stream    *fakeStream
	openErr   error
	lastReq   UpstreamRequest
	content   string
	noChoices bool
}

func (u *fakeUpstream) Complete(_ context.Context, req UpstreamRequest) (string, bool, error) {
	u.lastReq = req
	if u.openErr != nil {
		return "", false, u.openErr
	}
	return u.content, !u.noChoices, nil
}

func (u *fakeUpstream) OpenStream(_ context.Context, req UpstreamRequest) (Stream, error) {
	u.lastReq = req
	if u.openErr != nil {
		return nil, u.openErr
	}
	return u.stream, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []StreamEvent
}

func (s *recordingSink) Emit(_ context.Context, e StreamEvent) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func newTestRelay(up *fakeUpstream, clock *fakeClock) (*Relay, *recordingSink) {
	sink := &recordingSink{}
	factory := func(string) (Upstream, error) { return up, nil }
	r := NewRelay(factory, sink, Config{}, logger.NewNop())
	r.now = clock.Now
	return r, sink
}

func userMessages() []ChatMessage {
	return []ChatMessage{{Role: RoleUser, Content: "hi"}}
}

func TestStream_OrderedEvents(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	stream := &fakeStream{clock: clock, steps: []step{
		{chunk: Chunk{Content: "a"}},
		{chunk: Chunk{Content: "b"}},
		{chunk: Chunk{}},
		{chunk: Chunk{Content: "c", Usage: &Usage{TotalTokens: 3}}},
	}}
	relay, sink := newTestRelay(&fakeUpstream{stream: stream}, clock)

	res, err := relay.Stream(context.Background(), StreamRequest{APIKey: "k", Messages: userMessages()})
	require.NoError(t, err)
	assert.Equal(t, "Streaming completed successfully", res.Message)
	assert.Equal(t, "abc", res.Content)
	assert.Equal(t, 4, res.Chunks)
	assert.True(t, stream.closed)

	require.Len(t, sink.events, 5)
	assert.Equal(t, statusEvent("streaming_started", "Waiting for response..."), sink.events[0])
	assert.False(t, sink.events[0].IsComplete)
	assert.Equal(t, contentEvent("a"), sink.events[1])
	assert.Equal(t, contentEvent("b"), sink.events[2])
	assert.Equal(t, contentEvent("c"), sink.events[3])
	last := sink.events[4]
	assert.True(t, last.IsComplete)
	require.NotNil(t, last.Status)
	assert.Equal(t, "completed", *last.Status)
	assert.Nil(t, last.Error)
}

func TestStream_TimeoutOnFirstChunk(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	stream := &fakeStream{clock: clock, steps: []step{
		{delay: 5*time.Minute + time.Second, chunk: Chunk{Content: "late"}},
		{chunk: Chunk{Content: "never"}},
	}}
	relay, sink := newTestRelay(&fakeUpstream{stream: stream}, clock)

	res, err := relay.Stream(context.Background(), StreamRequest{APIKey: "k", Messages: userMessages()})
	require.ErrorIs(t, err, ErrTimeout)
	assert.Nil(t, res)
	assert.Equal(t, "Streaming timeout after 5 minutes", err.Error())

	require.Len(t, sink.events, 2)
	assert.Equal(t, "streaming_started", *sink.events[0].Status)
	assert.True(t, sink.events[1].IsComplete)
	require.NotNil(t, sink.events[1].Error)
	assert.Equal(t, "Streaming timeout after 5 minutes", *sink.events[1].Error)
	assert.Empty(t, sink.events[1].Content)
}

func TestStream_ChunkErrorHasNoTerminalEvent(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	stream := &fakeStream{clock: clock, steps: []step{
		{chunk: Chunk{Content: "a"}},
		{err: errors.New("connection reset")},
	}}
	relay, sink := newTestRelay(&fakeUpstream{stream: stream}, clock)

	_, err := relay.Stream(context.Background(), StreamRequest{APIKey: "k", Messages: userMessages()})
	require.ErrorIs(t, err, ErrStream)
	assert.Equal(t, "Stream error: connection reset", err.Error())
	require.Len(t, sink.events, 2)
	assert.False(t, sink.events[1].IsComplete)
}

func TestStream_Validation(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	relay, sink := newTestRelay(&fakeUpstream{}, clock)

	_, err := relay.Stream(context.Background(), StreamRequest{APIKey: "  ", Messages: userMessages()})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "API key cannot be empty", err.Error())

	_, err = relay.Stream(context.Background(), StreamRequest{APIKey: "k"})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "Messages array cannot be empty", err.Error())
	assert.Empty(t, sink.events)
}

func TestStream_ClientAndOpenErrors(t *testing.T) {
	sink := &recordingSink{}
	failing := NewRelay(func(string) (Upstream, error) { return nil, errors.New("bad url") }, sink, Config{}, logger.NewNop())
	_, err := failing.Stream(context.Background(), StreamRequest{APIKey: "k", Messages: userMessages()})
	require.ErrorIs(t, err, ErrClient)
	assert.Equal(t, "Failed to create AI client: bad url", err.Error())

	clock := &fakeClock{now: time.Unix(0, 0)}
	relay, sink2 := newTestRelay(&fakeUpstream{openErr: errors.New("401")}, clock)
	_, err = relay.Stream(context.Background(), StreamRequest{APIKey: "k", Messages: userMessages()})
	require.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, "Request failed: 401", err.Error())
	assert.Empty(t, sink.events)
	assert.Empty(t, sink2.events)
}

func TestStream_RequestDefaultsAndRoles(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	up := &fakeUpstream{stream: &fakeStream{clock: clock}}
	relay, _ := newTestRelay(up, clock)

	_, err := relay.Stream(context.Background(), StreamRequest{APIKey: "k", Messages: []ChatMessage{
		{Role: "system", Content: "s"},
		{Role: "tool", Content: "t"},
		{Role: "assistant", Content: "a"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "deepseek-chat", up.lastReq.Model)
	assert.Equal(t, 4000, up.lastReq.MaxTokens)
	assert.InDelta(t, 0.3, up.lastReq.Temperature, 1e-6)
	assert.True(t, up.lastReq.Stream)
	assert.Equal(t, []string{"system", "user", "assistant"}, roles(up.lastReq.Messages))

	maxTokens := 10
	temp := float32(1.1)
	_, err = relay.Stream(context.Background(), StreamRequest{
		APIKey: "k", Messages: userMessages(), MaxTokens: &maxTokens, Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, up.lastReq.MaxTokens)
	assert.InDelta(t, 1.1, up.lastReq.Temperature, 1e-6)
}

func roles(messages []ChatMessage) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.Role
	}
	return out
}

func TestComplete(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	up := &fakeUpstream{content: "answer"}
	relay, _ := newTestRelay(up, clock)

	got, err := relay.Complete(context.Background(), CompletionRequest{UserPrompt: "q", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "answer", got)
	assert.InDelta(t, 0.7, up.lastReq.Temperature, 1e-6)
	assert.False(t, up.lastReq.Stream)
	assert.Equal(t, []ChatMessage{{Role: RoleUser, Content: "q"}}, up.lastReq.Messages)

	_, err = relay.Complete(context.Background(), CompletionRequest{APIKey: "k", SystemPrompt: " ", UserPrompt: ""})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "At least one of system_prompt or user_prompt must be provided", err.Error())

	_, err = relay.Complete(context.Background(), CompletionRequest{SystemPrompt: "s", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, []ChatMessage{
		{Role: RoleSystem, Content: "s"},
		{Role: RoleUser, Content: ""},
	}, up.lastReq.Messages, "system-only requests still carry a user turn")

	up.noChoices = true
	_, err = relay.Complete(context.Background(), CompletionRequest{SystemPrompt: "s", APIKey: "k"})
	require.ErrorIs(t, err, ErrUnexpected)
	assert.Equal(t, "Unexpected response format", err.Error())
}
