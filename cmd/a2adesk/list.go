package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/a2adesk/a2adesk/internal/settings/models"
	"github.com/a2adesk/a2adesk/internal/settings/service"
)

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect configured model providers",
	}
	cmd.AddCommand(modelsListCmd())
	return cmd
}

func agentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Inspect configured A2A agent servers",
	}
	cmd.AddCommand(agentsListCmd())
	return cmd
}

type modelEntry struct {
	ID       int64  `json:"id"`
	ModelKey string `json:"modelKey"`
	APIURL   string `json:"apiUrl"`
	Enabled  bool   `json:"enabled"`
	HasKey   bool   `json:"hasKey"`
}

type agentEntry struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"agentCardUrl"`
	Enabled bool   `json:"enabled"`
	HasCard bool   `json:"hasCard"`
}

func modelsListCmd() *cobra.Command {
	var jsonOutput, enabledOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List model providers",
		Run: func(cmd *cobra.Command, _ []string) {
			err := withSettings(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				items, err := svc.ListModels(ctx, enabledOnly)
				if err != nil {
					return err
				}
				return writeModels(os.Stdout, items, jsonOutput)
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "only enabled providers")
	return cmd
}

func agentsListCmd() *cobra.Command {
	var jsonOutput, enabledOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List agent servers",
		Run: func(cmd *cobra.Command, _ []string) {
			err := withSettings(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				items, err := svc.ListAgents(ctx, enabledOnly)
				if err != nil {
					return err
				}
				return writeAgents(os.Stdout, items, jsonOutput)
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "only enabled servers")
	return cmd
}

// writeModels never prints API keys, only whether one is set.
func writeModels(w io.Writer, items []*models.ModelProvider, asJSON bool) error {
	entries := make([]modelEntry, 0, len(items))
	for _, m := range items {
		entries = append(entries, modelEntry{
			ID:       m.ID,
			ModelKey: m.ModelKey,
			APIURL:   m.APIURL,
			Enabled:  m.Enabled,
			HasKey:   m.APIKey != "",
		})
	}
	if asJSON {
		return writeJSON(w, entries)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tMODEL\tAPI URL\tENABLED\tKEY\n")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.ModelKey, e.APIURL, yesNo(e.Enabled), yesNo(e.HasKey))
	}
	return tw.Flush()
}

func writeAgents(w io.Writer, items []*models.AgentServer, asJSON bool) error {
	entries := make([]agentEntry, 0, len(items))
	for _, a := range items {
		entries = append(entries, agentEntry{
			ID:      a.ID,
			Name:    a.Name,
			URL:     a.AgentCardURL,
			Enabled: a.Enabled,
			HasCard: a.AgentCardJSON != nil && *a.AgentCardJSON != "",
		})
	}
	if asJSON {
		return writeJSON(w, entries)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tNAME\tURL\tENABLED\tCARD\n")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Name, e.URL, yesNo(e.Enabled), yesNo(e.HasCard))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
