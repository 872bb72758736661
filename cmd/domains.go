package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "Inspect configured tool domains",
}

func init() {
	domainsCmd.AddCommand(domainsListCmd)
	domainsCmd.AddCommand(domainsInfoCmd)
}

var domainsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enabled domains",
	RunE: func(_ *cobra.Command, _ []string) error {
		reg, err := buildRegistry()
		if err != nil {
			return err
		}
		names := reg.DomainNames()
		fmt.Printf("%s %d domains (config version %s)\n\n", logo, len(names), reg.Version())
		for _, name := range names {
			info, err := reg.DomainInfo(name)
			if err != nil {
				return err
			}
			fmt.Printf("  %-24s %d tools\n", name, len(info.Tools))
		}
		return nil
	},
}

var domainsInfoCmd = &cobra.Command{
	Use:   "info <domain>",
	Short: "Show one domain's configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		reg, err := buildRegistry()
		if err != nil {
			return err
		}
		info, err := reg.DomainInfo(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", args[0])
		if info.Label != "" {
			fmt.Printf("Name:        %s\n", info.Label)
		}
		if info.Description != "" {
			fmt.Printf("Description: %s\n", info.Description)
		}
		fmt.Printf("Module:      %s\n", info.Module)
		if len(info.DependsOn) > 0 {
			fmt.Printf("Depends on:  %s\n", strings.Join(info.DependsOn, ", "))
		}
		fmt.Printf("Tools (%d):\n", len(info.Tools))
		for _, name := range info.Tools {
			fmt.Printf("  %s\n", name)
		}
		return nil
	},
}
