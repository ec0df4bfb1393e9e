package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/a2adesk/a2adesk/internal/chat"
	"github.com/a2adesk/a2adesk/internal/common/config"
	"github.com/a2adesk/a2adesk/internal/mcpserver"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio",
		Long:  "Serve the MCP tools over stdin/stdout for clients that spawn a2adesk as a subprocess. Logs go to stderr.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCPStdio(cmd.Context())
		},
	}
}

func runMCPStdio(ctx context.Context) error {
	cfg, err := config.LoadWithPath(cfgPath)
	if err != nil {
		return err
	}
	// stdout carries the protocol
	if cfg.Logging.OutputPath == "" || cfg.Logging.OutputPath == "stdout" {
		cfg.Logging.OutputPath = "stderr"
	}
	log, err := setupLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	settingsSvc, cleanup, err := openSettings(ctx, cfg, nil, log)
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()

	// streaming is not exposed over MCP
	discard := chat.EventSinkFunc(func(context.Context, chat.StreamEvent) {})
	svc := newBackends(cfg, settingsSvc, discard, log)

	srv := mcpserver.New(mcpserver.Config{Port: cfg.MCP.Port}, svc.mcpServices(), log)
	return srv.ServeStdio()
}
