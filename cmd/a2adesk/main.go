// Package main is the a2adesk entry point: the HTTP/WebSocket server plus a
// few maintenance commands over the settings store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgPath string
	verbose bool
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "a2adesk",
		Short:         "Relay for A2A agent servers and OpenAI-compatible chat",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "directory containing config.yaml")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(mcpCmd())
	cmd.AddCommand(settingsCmd())
	cmd.AddCommand(modelsCmd())
	cmd.AddCommand(agentsCmd())
	return cmd
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
