// Package cmd implements the referralgraph CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/referralgraph/referralgraph/internal/config"
)

const version = "0.1.0"
const logo = "🏥"

var configPath string

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "referralgraph",
	Short: logo + " referralgraph — Hospital referral network analytics",
	Long: logo + ` referralgraph — analytics tools over the hospital referral
network graph, exposed to LLM agents, HTTP clients, and MCP hosts`,
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.json", "Config file path")

	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(domainsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statusCmd)
}

// loadConfig reads the config file named by --config and applies
// environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
