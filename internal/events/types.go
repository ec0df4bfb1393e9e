// Package events defines the event subjects published by a2adesk.
package events

// Settings change subjects, "settings.<kind>.<action>".
const (
	ModelProviderCreated = "settings.model.created"
	ModelProviderUpdated = "settings.model.updated"
	ModelProviderDeleted = "settings.model.deleted"

	AgentServerCreated = "settings.agent.created"
	AgentServerUpdated = "settings.agent.updated"
	AgentServerDeleted = "settings.agent.deleted"

	// SettingsWildcard matches every settings subject.
	SettingsWildcard = "settings.>"
)
