package websocket

// Action constants for WebSocket messages
const (
	ActionHealthCheck = "health.check"

	// Model provider settings
	ActionModelList          = "settings.model.list"
	ActionModelGet           = "settings.model.get"
	ActionModelGetByKey      = "settings.model.get_by_key"
	ActionModelCreate        = "settings.model.create"
	ActionModelUpdate        = "settings.model.update"
	ActionModelDelete        = "settings.model.delete"
	ActionModelDeleteByKey   = "settings.model.delete_by_key"
	ActionModelToggle        = "settings.model.toggle"
	ActionModelDisableOthers = "settings.model.disable_others"

	// Agent server settings
	ActionAgentList          = "settings.agent.list"
	ActionAgentGet           = "settings.agent.get"
	ActionAgentGetByURL      = "settings.agent.get_by_url"
	ActionAgentGetByName     = "settings.agent.get_by_name"
	ActionAgentCreate        = "settings.agent.create"
	ActionAgentUpdate        = "settings.agent.update"
	ActionAgentDelete        = "settings.agent.delete"
	ActionAgentDeleteByURL   = "settings.agent.delete_by_url"
	ActionAgentDeleteByName  = "settings.agent.delete_by_name"
	ActionAgentToggle        = "settings.agent.toggle"
	ActionAgentDisableOthers = "settings.agent.disable_others"
	ActionAgentRefreshCard   = "settings.agent.refresh_card"

	// A2A
	ActionA2ASend      = "a2a.send"
	ActionA2AAgentCard = "a2a.agent_card"

	// Chat
	ActionChatCompletion = "chat.completion"
	ActionChatStream     = "chat.stream"

	// Server pushed notifications
	ActionChatStreamChunk = "chat_stream_chunk"
	ActionSettingsChanged = "settings.changed"
)

// Error codes
const (
	ErrorCodeBadRequest    = "BAD_REQUEST"
	ErrorCodeNotFound      = "NOT_FOUND"
	ErrorCodeInternalError = "INTERNAL_ERROR"
	ErrorCodeValidation    = "VALIDATION_ERROR"
	ErrorCodeUnknownAction = "UNKNOWN_ACTION"
)
