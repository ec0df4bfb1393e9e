package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/a2adesk/a2adesk/internal/common/constants"
	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/common/tracing"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

func readBody(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxResponseBytes))
}

// ErrorKind classifies a TransportError.
type ErrorKind string

const (
	KindSend   ErrorKind = "send"
	KindStatus ErrorKind = "status"
	KindBody   ErrorKind = "body"
	KindDecode ErrorKind = "decode"
)

// TransportError is returned for any failure after the request was composed.
type TransportError struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Err        error
	msg        string
}

func (e *TransportError) Error() string { return e.msg }

func (e *TransportError) Unwrap() error { return e.Err }

func sendError(err error) *TransportError {
	return &TransportError{Kind: KindSend, Err: err, msg: fmt.Sprintf("Request failed: %v", err)}
}

func bodyError(err error) *TransportError {
	return &TransportError{Kind: KindBody, Err: err, msg: fmt.Sprintf("Failed to read response body: %v", err)}
}

func statusError(prefix string, resp *http.Response, body string) *TransportError {
	return &TransportError{
		Kind:       KindStatus,
		StatusCode: resp.StatusCode,
		Body:       body,
		msg:        fmt.Sprintf("%s with status %s: %s", prefix, resp.Status, body),
	}
}

// Client performs the HTTP side of A2A calls.
type Client struct {
	doer        Doer
	sendTimeout time.Duration
	cardTimeout time.Duration
	logger      *logger.Logger
}

// NewClient creates a client. A nil doer uses a plain *http.Client and a
// non-positive sendTimeout uses the default.
func NewClient(doer Doer, sendTimeout time.Duration, log *logger.Logger) *Client {
	if doer == nil {
		doer = &http.Client{}
	}
	if sendTimeout <= 0 {
		sendTimeout = constants.A2ARequestTimeout
	}
	return &Client{
		doer:        doer,
		sendTimeout: sendTimeout,
		cardTimeout: constants.AgentCardTimeout,
		logger:      log.WithComponent("a2a-client"),
	}
}

// Send POSTs out and returns the raw response body on a 2xx status.
func (c *Client) Send(ctx context.Context, out *OutboundRequest) (string, error) {
	payload, err := json.Marshal(out.Body)
	if err != nil {
		return "", fmt.Errorf("encode message/send request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()
	ctx, span := tracing.TraceHTTPRequest(ctx, http.MethodPost, out.URL)
	defer span.End()
	span.SetAttributes(attribute.String("a2a.message_id", out.Body.ID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, out.URL, bytes.NewReader(payload))
	if err != nil {
		tracing.RecordError(span, err)
		return "", sendError(err)
	}
	for _, h := range out.Headers {
		req.Header.Set(h.Name, h.Value)
	}

	c.logger.Debug("sending A2A message", zap.String("url", out.URL), zap.String("message_id", out.Body.ID))
	resp, err := c.doer.Do(req)
	if err != nil {
		tracing.TraceHTTPResponse(span, 0, err)
		return "", sendError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := readBody(resp.Body)
		terr := statusError("A2A request failed", resp, string(body))
		tracing.TraceHTTPResponse(span, resp.StatusCode, terr)
		return "", terr
	}

	body, err := readBody(resp.Body)
	if err != nil {
		tracing.TraceHTTPResponse(span, resp.StatusCode, err)
		return "", bodyError(err)
	}
	tracing.TraceHTTPResponse(span, resp.StatusCode, nil)
	return string(body), nil
}

// FetchedCard is a decoded agent card plus the exact bytes the agent served.
type FetchedCard struct {
	Card AgentCard
	Raw  json.RawMessage
}

// FetchAgentCard GETs the card at req.URL. The body is read before the
// status is checked so status errors carry it.
func (c *Client) FetchAgentCard(ctx context.Context, req AgentCardRequest) (*FetchedCard, error) {
	url := NormalizeURL(req.URL)

	ctx, cancel := context.WithTimeout(ctx, c.cardTimeout)
	defer cancel()
	ctx, span := tracing.TraceHTTPRequest(ctx, http.MethodGet, url)
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, sendError(err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := c.doer.Do(httpReq)
	if err != nil {
		tracing.TraceHTTPResponse(span, 0, err)
		return nil, sendError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := readBody(resp.Body)
	if err != nil {
		tracing.TraceHTTPResponse(span, resp.StatusCode, err)
		return nil, bodyError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		terr := statusError("Request failed", resp, string(body))
		tracing.TraceHTTPResponse(span, resp.StatusCode, terr)
		return nil, terr
	}

	var card AgentCard
	if err := json.Unmarshal(body, &card); err != nil {
		terr := &TransportError{Kind: KindDecode, Body: string(body), Err: err, msg: fmt.Sprintf("Failed to parse response: %v", err)}
		tracing.TraceHTTPResponse(span, resp.StatusCode, terr)
		return nil, terr
	}
	tracing.TraceHTTPResponse(span, resp.StatusCode, nil)
	return &FetchedCard{Card: card, Raw: json.RawMessage(body)}, nil
}
