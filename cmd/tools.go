package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/referralgraph/referralgraph/internal/dependency"
	"github.com/referralgraph/referralgraph/internal/registry"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect and invoke registry tools",
}

func init() {
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsDescribeCmd)
	toolsCmd.AddCommand(toolsCallCmd)
}

func buildRegistry() (*registry.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	container, err := dependency.New(cfg)
	if err != nil {
		return nil, err
	}
	return container.Registry(), nil
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered tools",
	RunE: func(_ *cobra.Command, _ []string) error {
		reg, err := buildRegistry()
		if err != nil {
			return err
		}
		names, err := reg.ListTools()
		if err != nil {
			return err
		}
		fmt.Printf("%s %d tools registered\n\n", logo, len(names))
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
		return nil
	},
}

var toolsDescribeCmd = &cobra.Command{
	Use:   "describe <tool>",
	Short: "Show a tool's description and parameter schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		reg, err := buildRegistry()
		if err != nil {
			return err
		}
		defs, err := reg.Definitions()
		if err != nil {
			return err
		}
		for _, def := range defs {
			if def.Name != args[0] {
				continue
			}
			fmt.Printf("%s\n\n%s\n\n", def.Name, def.Description)
			schema, err := json.MarshalIndent(def.Parameters, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(schema))
			return nil
		}
		return fmt.Errorf("tool %q not found", args[0])
	},
}

var toolsCallCmd = &cobra.Command{
	Use:   "call <tool> [json-args]",
	Short: "Invoke a tool directly and print its JSON result",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, args []string) error {
		reg, err := buildRegistry()
		if err != nil {
			return err
		}
		fn, err := reg.Tool(args[0])
		if err != nil {
			return err
		}

		toolArgs := map[string]any{}
		if len(args) == 2 {
			if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
				return fmt.Errorf("parse arguments: %w", err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		result, err := fn(ctx, toolArgs)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
