// Package a2a composes and sends A2A JSON-RPC messages and fetches agent cards.
package a2a

const (
	jsonRPCVersion    = "2.0"
	methodMessageSend = "message/send"

	kindMessage = "message"
	kindText    = "text"
	kindData    = "data"
	roleUser    = "user"
)

// Part is one element of Message.Parts, either TextPart or DataPart.
type Part interface {
	PartKind() string
}

// TextPart carries the caller text verbatim.
type TextPart struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

func (p TextPart) PartKind() string { return p.Kind }

// DataPart carries the server's data template with the prompt substituted.
type DataPart struct {
	Kind string `json:"kind"`
	Data string `json:"data"`
}

func (p DataPart) PartKind() string { return p.Kind }

// NewTextPart returns a text part.
func NewTextPart(text string) TextPart {
	return TextPart{Kind: kindText, Text: text}
}

// NewDataPart returns a data part.
func NewDataPart(data string) DataPart {
	return DataPart{Kind: kindData, Data: data}
}

// Message is the user message sent to an agent.
type Message struct {
	MessageID string `json:"message_id"`
	Kind      string `json:"kind"`
	Role      string `json:"role"`
	Parts     []Part `json:"parts"`
}

// SendParams are the params of a message/send call.
type SendParams struct {
	ID       string         `json:"id"`
	Message  Message        `json:"message"`
	Metadata map[string]any `json:"metadata"`
}

// JSONRPCRequest is the JSON-RPC 2.0 envelope.
type JSONRPCRequest struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      string     `json:"id"`
	Method  string     `json:"method"`
	Params  SendParams `json:"params"`
}

// SendRequest is what a caller supplies to send one message.
type SendRequest struct {
	ServerID      int64  `json:"a2a_server_id"`
	URL           string `json:"a2a_url"`
	TaskID        string `json:"task_id"`
	MessageID     string `json:"message_id"`
	HeaderSkillID string `json:"header_skill_id"`
	Text          string `json:"text"`
}

// AgentCardRequest asks for the card published at URL. Token, when set, is
// sent as a bearer credential.
type AgentCardRequest struct {
	URL   string `json:"url"`
	Token string `json:"token,omitempty"`
}

// AgentCard describes a remote agent.
type AgentCard struct {
	Name               string               `json:"name"`
	Description        string               `json:"description"`
	URL                string               `json:"url"`
	Provider           AgentProvider        `json:"provider"`
	Version            string               `json:"version"`
	DocumentationURL   string               `json:"documentationUrl"`
	Capabilities       AgentCapabilities    `json:"capabilities"`
	Authentication     *AgentAuthentication `json:"authentication"`
	DefaultInputModes  []string             `json:"defaultInputModes"`
	DefaultOutputModes []string             `json:"defaultOutputModes"`
	Skills             []AgentSkill         `json:"skills"`
}

type AgentProvider struct {
	Organization string `json:"organization"`
	URL          string `json:"url"`
}

type AgentCapabilities struct {
	Streaming              bool `json:"streaming"`
	PushNotifications      bool `json:"pushNotifications"`
	StateTransitionHistory bool `json:"stateTransitionHistory"`
}

type AgentAuthentication struct {
	Schemes []string `json:"schemes"`
}

type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Examples    []string `json:"examples"`
	InputModes  []string `json:"inputModes"`
	OutputModes []string `json:"outputModes"`
}
