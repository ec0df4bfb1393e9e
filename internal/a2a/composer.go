package a2a

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/a2adesk/a2adesk/internal/common/constants"
	"github.com/a2adesk/a2adesk/internal/settings/models"
)

// Header is one outbound HTTP header, kept in send order.
type Header struct {
	Name  string
	Value string
}

// OutboundRequest is a fully composed message/send call.
type OutboundRequest struct {
	URL     string
	Headers []Header
	Body    JSONRPCRequest
}

type dataObjectSettings struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// Compose builds the outbound call for req against server. It performs no
// I/O. The target URL is req.URL, or the server's card URL when req.URL is
// empty, with http:// prepended when no scheme is present.
func Compose(server *models.AgentServer, req SendRequest) *OutboundRequest {
	target := req.URL
	if target == "" {
		target = server.AgentCardURL
	}

	headers := []Header{
		{Name: headerContentType, Value: "application/json"},
		{Name: headerSkillID, Value: req.HeaderSkillID},
	}
	headers = append(headers, customHeaders(server.CustomHeaderJSON)...)

	return &OutboundRequest{
		URL:     NormalizeURL(target),
		Headers: headers,
		Body: JSONRPCRequest{
			JSONRPC: jsonRPCVersion,
			ID:      req.MessageID,
			Method:  methodMessageSend,
			Params: SendParams{
				ID: req.TaskID,
				Message: Message{
					MessageID: req.MessageID,
					Kind:      kindMessage,
					Role:      roleUser,
					Parts:     []Part{buildPart(server.ProtocolDataObjectSettings, req.Text)},
				},
				Metadata: map[string]any{},
			},
		},
	}
}

// NormalizeURL prepends http:// unless raw starts with http:// or https://.
func NormalizeURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "http://" + raw
}

// buildPart picks data mode when the settings object has kind "data";
// anything else, including unparseable settings, falls back to text.
func buildPart(settings *string, text string) Part {
	if settings == nil {
		return NewTextPart(text)
	}
	var obj dataObjectSettings
	if err := json.Unmarshal([]byte(*settings), &obj); err != nil || obj.Kind != kindData {
		return NewTextPart(text)
	}
	template, _ := obj.Data.(string)
	return NewDataPart(strings.ReplaceAll(template, constants.UserPromptToken, text))
}

const (
	headerContentType = "Content-Type"
	headerSkillID     = "X-A2A-Skill-Id"
)

// customHeaders returns the string-valued entries of raw in key order.
// Invalid JSON, non-string values and the reserved Content-Type and
// X-A2A-Skill-Id names are ignored.
func customHeaders(raw *string) []Header {
	if raw == nil {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(*raw), &obj); err != nil {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Header
	for _, k := range keys {
		if strings.EqualFold(k, headerContentType) || strings.EqualFold(k, headerSkillID) {
			continue
		}
		if v, ok := obj[k].(string); ok {
			out = append(out, Header{Name: k, Value: v})
		}
	}
	return out
}
