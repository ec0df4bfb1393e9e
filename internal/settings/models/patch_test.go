package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestModelProviderPatch_Assignments(t *testing.T) {
	tests := []struct {
		name  string
		patch ModelProviderPatch
		want  []Assignment
	}{
		{name: "empty", patch: ModelProviderPatch{}, want: nil},
		{
			name:  "enabled only",
			patch: ModelProviderPatch{Enabled: ptr(false)},
			want:  []Assignment{{Column: "enabled", Value: 0}},
		},
		{
			name:  "all fields keep column order",
			patch: ModelProviderPatch{APIKey: ptr("k"), ModelKey: ptr("m"), APIURL: ptr("u"), Enabled: ptr(true)},
			want: []Assignment{
				{Column: "model_key", Value: "m"},
				{Column: "enabled", Value: 1},
				{Column: "api_url", Value: "u"},
				{Column: "api_key", Value: "k"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.patch.Assignments())
			assert.Equal(t, len(tt.want) == 0, tt.patch.IsEmpty())
		})
	}
}

func TestAgentServerPatch_EmptyStringIsPresent(t *testing.T) {
	patch := AgentServerPatch{CustomHeaderJSON: ptr("")}
	assert.False(t, patch.IsEmpty())
	assert.Equal(t, []Assignment{{Column: "custom_header_json", Value: ""}}, patch.Assignments())
}

func TestAgentServerPatch_Order(t *testing.T) {
	patch := AgentServerPatch{
		Enabled:                    ptr(true),
		ProtocolDataObjectSettings: ptr(`{"kind":"data"}`),
		Name:                       ptr("agent"),
	}
	got := patch.Assignments()
	assert.Equal(t, []string{"name", "protocol_data_object_settings", "enabled"},
		[]string{got[0].Column, got[1].Column, got[2].Column})
}
