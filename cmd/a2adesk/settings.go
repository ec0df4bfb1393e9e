package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/a2adesk/a2adesk/internal/settings/seed"
	"github.com/a2adesk/a2adesk/internal/settings/service"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Export or import model providers and agent servers as YAML",
	}
	cmd.AddCommand(settingsExportCmd())
	cmd.AddCommand(settingsImportCmd())
	return cmd
}

func settingsExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every stored setting as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSettings(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				var w io.Writer = os.Stdout
				if out != "" && out != "-" {
					f, err := os.Create(out)
					if err != nil {
						return fmt.Errorf("create %s: %w", out, err)
					}
					defer func() { _ = f.Close() }()
					w = f
				}
				return seed.Export(ctx, svc, w)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func settingsImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Create settings from a YAML file, skipping existing records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				var r io.Reader = os.Stdin
				if args[0] != "-" {
					f, err := os.Open(args[0])
					if err != nil {
						return fmt.Errorf("open %s: %w", args[0], err)
					}
					defer func() { _ = f.Close() }()
					r = f
				}
				res, err := seed.Import(ctx, svc, r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "models created: %d, agents created: %d, skipped: %d\n",
					res.ModelsCreated, res.AgentsCreated, res.Skipped)
				return nil
			})
		},
	}
	return cmd
}
