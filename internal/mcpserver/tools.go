package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a2adesk/a2adesk/internal/a2a"
	"github.com/a2adesk/a2adesk/internal/chat"
	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/settings/models"
)

// SettingsReader is the read side of the settings service.
type SettingsReader interface {
	ListModels(ctx context.Context, enabledOnly bool) ([]*models.ModelProvider, error)
	ListAgents(ctx context.Context, enabledOnly bool) ([]*models.AgentServer, error)
	ActiveModel(ctx context.Context) (*models.ModelProvider, error)
}

// AgentCaller sends A2A messages and fetches agent cards.
type AgentCaller interface {
	SendMessage(ctx context.Context, req a2a.SendRequest) (string, error)
	GetAgentCard(ctx context.Context, req a2a.AgentCardRequest) (*a2a.FetchedCard, error)
}

// Completer runs non-streaming completions.
type Completer interface {
	Complete(ctx context.Context, req chat.CompletionRequest) (string, error)
}

// Services are the in-process backends the tools call.
type Services struct {
	Settings SettingsReader
	Agents   AgentCaller
	Chat     Completer
}

func registerTools(s *server.MCPServer, svc Services, log *logger.Logger) {
	s.AddTool(
		mcp.NewTool("list_model_providers",
			mcp.WithDescription("List configured model providers. API keys are masked."),
			mcp.WithBoolean("enabled_only",
				mcp.Description("Only return enabled providers"),
			),
		),
		listModelProvidersHandler(svc, log),
	)

	s.AddTool(
		mcp.NewTool("list_agent_servers",
			mcp.WithDescription("List configured A2A agent servers. Use the id with send_a2a_message."),
			mcp.WithBoolean("enabled_only",
				mcp.Description("Only return enabled servers"),
			),
		),
		listAgentServersHandler(svc, log),
	)

	s.AddTool(
		mcp.NewTool("get_agent_card",
			mcp.WithDescription("Fetch the agent card published at a URL"),
			mcp.WithString("url",
				mcp.Required(),
				mcp.Description("Agent card URL; http:// is assumed when no scheme is given"),
			),
			mcp.WithString("token",
				mcp.Description("Bearer token (optional)"),
			),
		),
		getAgentCardHandler(svc, log),
	)

	s.AddTool(
		mcp.NewTool("send_a2a_message",
			mcp.WithDescription("Send a message/send request to a configured agent server and return the raw response"),
			mcp.WithNumber("a2a_server_id",
				mcp.Required(),
				mcp.Description("The agent server ID"),
			),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("The user text to send"),
			),
			mcp.WithString("a2a_url",
				mcp.Description("Override the server URL (optional)"),
			),
			mcp.WithString("header_skill_id",
				mcp.Description("Value of the X-A2A-Skill-Id header (optional)"),
			),
			mcp.WithString("task_id",
				mcp.Description("Task ID; generated when omitted"),
			),
			mcp.WithString("message_id",
				mcp.Description("Message ID; generated when omitted"),
			),
		),
		sendA2AMessageHandler(svc, log),
	)

	s.AddTool(
		mcp.NewTool("chat_completion",
			mcp.WithDescription("Run a single chat completion. Uses the enabled model provider's key when api_key is omitted."),
			mcp.WithString("system_prompt",
				mcp.Description("System prompt (optional)"),
			),
			mcp.WithString("user_prompt",
				mcp.Description("User prompt (optional)"),
			),
			mcp.WithString("api_key",
				mcp.Description("API key (optional)"),
			),
		),
		chatCompletionHandler(svc, log),
	)

	log.Info("registered MCP tools", zap.Int("count", 5))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", 4) + key[len(key)-4:]
}

func listModelProvidersHandler(svc Services, log *logger.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		items, err := svc.Settings.ListModels(ctx, req.GetBool("enabled_only", false))
		if err != nil {
			log.Error("failed to list model providers", zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}
		masked := make([]models.ModelProvider, 0, len(items))
		for _, m := range items {
			copied := *m
			copied.APIKey = maskKey(m.APIKey)
			masked = append(masked, copied)
		}
		return jsonResult(masked)
	}
}

func listAgentServersHandler(svc Services, log *logger.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		items, err := svc.Settings.ListAgents(ctx, req.GetBool("enabled_only", false))
		if err != nil {
			log.Error("failed to list agent servers", zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(items)
	}
}

func getAgentCardHandler(svc Services, log *logger.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := req.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		card, err := svc.Agents.GetAgentCard(ctx, a2a.AgentCardRequest{
			URL:   url,
			Token: req.GetString("token", ""),
		})
		if err != nil {
			log.Debug("agent card fetch failed", zap.String("url", url), zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(card.Raw)
	}
}

func sendA2AMessageHandler(svc Services, log *logger.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		serverID, err := req.RequireFloat("a2a_server_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		body, err := svc.Agents.SendMessage(ctx, a2a.SendRequest{
			ServerID:      int64(serverID),
			URL:           req.GetString("a2a_url", ""),
			TaskID:        req.GetString("task_id", ""),
			MessageID:     req.GetString("message_id", ""),
			HeaderSkillID: req.GetString("header_skill_id", ""),
			Text:          text,
		})
		if err != nil {
			log.Warn("send_a2a_message failed", zap.Int64("server_id", int64(serverID)), zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(body), nil
	}
}

func chatCompletionHandler(svc Services, log *logger.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		apiKey := req.GetString("api_key", "")
		if strings.TrimSpace(apiKey) == "" {
			active, err := svc.Settings.ActiveModel(ctx)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if active != nil {
				apiKey = active.APIKey
			}
		}

		content, err := svc.Chat.Complete(ctx, chat.CompletionRequest{
			SystemPrompt: req.GetString("system_prompt", ""),
			UserPrompt:   req.GetString("user_prompt", ""),
			APIKey:       apiKey,
		})
		if err != nil {
			log.Warn("chat_completion failed", zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(content), nil
	}
}
