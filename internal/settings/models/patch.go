package models

// Assignment is one "column = value" pair of a partial update.
type Assignment struct {
	Column string
	Value  any
}

// ModelProviderPatch is a partial ModelProvider. Nil fields are left unchanged.
type ModelProviderPatch struct {
	ModelKey *string `json:"modelKey,omitempty"`
	Enabled  *bool   `json:"enabled,omitempty"`
	APIURL   *string `json:"apiUrl,omitempty"`
	APIKey   *string `json:"apiKey,omitempty"`
}

// IsEmpty reports whether the patch carries no field.
func (p ModelProviderPatch) IsEmpty() bool {
	return len(p.Assignments()) == 0
}

// Assignments returns the present fields in column order.
func (p ModelProviderPatch) Assignments() []Assignment {
	var out []Assignment
	if p.ModelKey != nil {
		out = append(out, Assignment{Column: "model_key", Value: *p.ModelKey})
	}
	if p.Enabled != nil {
		out = append(out, Assignment{Column: "enabled", Value: boolToInt(*p.Enabled)})
	}
	if p.APIURL != nil {
		out = append(out, Assignment{Column: "api_url", Value: *p.APIURL})
	}
	if p.APIKey != nil {
		out = append(out, Assignment{Column: "api_key", Value: *p.APIKey})
	}
	return out
}

// AgentServerPatch is a partial AgentServer. Nil fields are left unchanged;
// a pointer to "" writes an empty string.
type AgentServerPatch struct {
	Name                       *string `json:"name,omitempty"`
	AgentCardURL               *string `json:"agentCardUrl,omitempty"`
	AgentCardJSON              *string `json:"agentCardJson,omitempty"`
	CustomHeaderJSON           *string `json:"customHeaderJson,omitempty"`
	ProtocolDataObjectSettings *string `json:"protocolDataObjectSettings,omitempty"`
	Enabled                    *bool   `json:"enabled,omitempty"`
}

// IsEmpty reports whether the patch carries no field.
func (p AgentServerPatch) IsEmpty() bool {
	return len(p.Assignments()) == 0
}

// Assignments returns the present fields in column order.
func (p AgentServerPatch) Assignments() []Assignment {
	var out []Assignment
	if p.Name != nil {
		out = append(out, Assignment{Column: "name", Value: *p.Name})
	}
	if p.AgentCardURL != nil {
		out = append(out, Assignment{Column: "agent_card_url", Value: *p.AgentCardURL})
	}
	if p.AgentCardJSON != nil {
		out = append(out, Assignment{Column: "agent_card_json", Value: *p.AgentCardJSON})
	}
	if p.CustomHeaderJSON != nil {
		out = append(out, Assignment{Column: "custom_header_json", Value: *p.CustomHeaderJSON})
	}
	if p.ProtocolDataObjectSettings != nil {
		out = append(out, Assignment{Column: "protocol_data_object_settings", Value: *p.ProtocolDataObjectSettings})
	}
	if p.Enabled != nil {
		out = append(out, Assignment{Column: "enabled", Value: boolToInt(*p.Enabled)})
	}
	return out
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
