// Package models defines the persisted settings records and their partial
// update forms.
package models

// ModelProvider is an LLM endpoint with its credential.
type ModelProvider struct {
	ID        int64  `json:"id" db:"id" yaml:"-"`
	ModelKey  string `json:"modelKey" db:"model_key" yaml:"modelKey"`
	Enabled   bool   `json:"enabled" db:"enabled" yaml:"enabled"`
	APIURL    string `json:"apiUrl" db:"api_url" yaml:"apiUrl"`
	APIKey    string `json:"apiKey" db:"api_key" yaml:"apiKey"`
	CreatedAt string `json:"createdAt" db:"created_at" yaml:"-"`
	UpdatedAt string `json:"updatedAt" db:"updated_at" yaml:"-"`
}

// AgentServer is a remote A2A agent endpoint plus its message template.
// Nil text fields were never set; an empty string was set to "".
type AgentServer struct {
	ID                         int64   `json:"id" db:"id" yaml:"-"`
	Name                       string  `json:"name" db:"name" yaml:"name"`
	AgentCardURL               string  `json:"agentCardUrl" db:"agent_card_url" yaml:"agentCardUrl"`
	AgentCardJSON              *string `json:"agentCardJson" db:"agent_card_json" yaml:"agentCardJson,omitempty"`
	CustomHeaderJSON           *string `json:"customHeaderJson" db:"custom_header_json" yaml:"customHeaderJson,omitempty"`
	ProtocolDataObjectSettings *string `json:"protocolDataObjectSettings" db:"protocol_data_object_settings" yaml:"protocolDataObjectSettings,omitempty"`
	Enabled                    bool    `json:"enabled" db:"enabled" yaml:"enabled"`
	CreatedAt                  string  `json:"createdAt" db:"created_at" yaml:"-"`
	UpdatedAt                  string  `json:"updatedAt" db:"updated_at" yaml:"-"`
}

// CreateModelProviderParams carries the fields of a new ModelProvider.
type CreateModelProviderParams struct {
	ModelKey string `json:"modelKey"`
	Enabled  bool   `json:"enabled"`
	APIURL   string `json:"apiUrl"`
	APIKey   string `json:"apiKey"`
}

// CreateAgentServerParams carries the fields of a new AgentServer.
type CreateAgentServerParams struct {
	Name                       string  `json:"name"`
	AgentCardURL               string  `json:"agentCardUrl"`
	AgentCardJSON              *string `json:"agentCardJson,omitempty"`
	CustomHeaderJSON           *string `json:"customHeaderJson,omitempty"`
	ProtocolDataObjectSettings *string `json:"protocolDataObjectSettings,omitempty"`
	Enabled                    bool    `json:"enabled"`
}
