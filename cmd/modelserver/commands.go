package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/modelserver/internal/api"
	"github.com/kalambet/modelserver/internal/config"
	"github.com/kalambet/modelserver/internal/service"
)

// --- health ---

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check a running server's health",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		client, err := newAPIClient(addr)
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/health")
		if err != nil {
			return err
		}
		var status service.HealthStatus
		if err := decodeJSON(resp, &status); err != nil {
			return err
		}

		out := consoleFor(cmd)
		out.field("Server", status.Status+" at "+client.baseURL)
		out.field("Model", status.Model)
		return nil
	},
}

func init() {
	healthCmd.Flags().String("addr", "", "server address (default: configured listen address)")
}

// --- generate ---

var generateCmd = &cobra.Command{
	Use:   "generate <prompt...>",
	Short: "Send a prompt to a running server and print the reply",
	Long: `Send a prompt to a running server and print the reply.

Examples:
  modelserver generate "Explain goroutines in one sentence"
  modelserver generate --addr 10.0.0.5:5000 Hello there`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		prompt := strings.Join(args, " ")

		client, err := newAPIClient(addr)
		if err != nil {
			return err
		}

		consoleFor(cmd).begin("Generating with %s", client.baseURL)
		resp, err := client.post(cmd.Context(), "/generate", map[string]string{"messages": prompt})
		if err != nil {
			return err
		}
		var result struct {
			Response string `json:"response"`
			Status   string `json:"status"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), result.Response)
		return nil
	},
}

func init() {
	generateCmd.Flags().String("addr", "", "server address (default: configured listen address)")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "  %s\n", style(ansiCyan, "# "+config.ConfigFilePath()))
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(out, "  %s = %s\n", style(ansiBold, k.Key), k.Value)
		}
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys and their environment variables",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, k := range config.ShowAll(config.Config{}) {
			fmt.Fprintf(out, "  %-36s %s\n", k.Key, k.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		out := consoleFor(cmd)
		out.done("Set %s = %s", key, value)
		out.note("Restart the server for the change to take effect")
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value so the default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		consoleFor(cmd).done("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configSetCmd)
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Load the model and serve MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// stdout carries the MCP protocol; logs go to stderr and the log file.
		_, svc, closer, err := setup(ctx, os.Stderr)
		if closer != nil {
			defer closer.Close()
		}
		if err != nil {
			return err
		}

		stdioSrv := server.NewStdioServer(api.NewMCPServer(svc, version))
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("MCP stdio server: %w", err)
		}
		return nil
	},
}
