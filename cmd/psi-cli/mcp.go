package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psi-indicator-engine/internal/setup"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Register the lite MCP server with a desktop client",
	}

	var opts setup.Options
	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Add or update the server entry in the client config",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := setup.Install(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s in %s\n", setup.ServerName, path)
			fmt.Fprintln(cmd.OutOrStdout(), "Restart the client to pick up the change.")
			return nil
		},
	}
	installCmd.Flags().StringVar(&opts.ConfigPath, "config", "", "client config file (default: per-OS location)")
	installCmd.Flags().StringVar(&opts.BinaryPath, "binary", "", "path to mcp-server-lite (default: search PATH)")
	installCmd.Flags().StringVar(&opts.DataDir, "data-dir", "", "data directory passed to the server")
	installCmd.Flags().StringVar(&opts.ReferenceFile, "reference", "", "reference bundle passed to the server")
	cmd.AddCommand(installCmd)

	var configPath string
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the server is registered and runnable",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := setup.GetStatus(configPath)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		},
	}
	statusCmd.Flags().StringVar(&configPath, "config", "", "client config file (default: per-OS location)")
	cmd.AddCommand(statusCmd)

	return cmd
}
