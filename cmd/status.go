package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/referralgraph/referralgraph/internal/gremlin"
)

var statusCheckGraph bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show referralgraph status",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusCheckGraph, "check-graph", false, "Connect to Cosmos and count vertices")
}

func runStatus(_ *cobra.Command, _ []string) error {
	fmt.Printf("%s referralgraph Status\n\n", logo)

	_, statErr := os.Stat(configPath)
	cfgMark := "✗"
	if statErr == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:    %s %s\n", configPath, cfgMark)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	fmt.Printf("Domains:   %s\n", cfg.DomainsPath)
	fmt.Printf("Model:     %s\n", cfg.OpenAI.Model)
	fmt.Printf("Graph:     %s/%s\n\n", cfg.Cosmos.Database, cfg.Cosmos.Graph)

	cosmosMark := "(not set)"
	if cfg.Cosmos.AccountName != "" && cfg.Cosmos.PrimaryKey != "" {
		cosmosMark = "✓"
	}
	fmt.Printf("Cosmos:    %s\n", cosmosMark)

	llmMark := "(not set)"
	switch {
	case cfg.OpenAI.Deployment != "" && cfg.OpenAI.APIKey != "":
		llmMark = "✓ (Azure)"
	case cfg.OpenAI.APIKey != "":
		llmMark = "✓"
	}
	fmt.Printf("LLM:       %s\n", llmMark)

	if !statusCheckGraph {
		return nil
	}

	fmt.Println("\nChecking graph connection...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := gremlin.Dial(ctx, gremlin.Config{
		AccountName: cfg.Cosmos.AccountName,
		PrimaryKey:  cfg.Cosmos.PrimaryKey,
		Database:    cfg.Cosmos.Database,
		Graph:       cfg.Cosmos.Graph,
		Endpoint:    cfg.Cosmos.Endpoint,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	results, err := client.Submit(ctx, "g.V().count()", nil)
	if err != nil {
		return err
	}
	if len(results) > 0 {
		fmt.Printf("Connected: %v vertices\n", results[0])
	}
	return nil
}
