package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/referralgraph/referralgraph/internal/dependency"
	"github.com/referralgraph/referralgraph/internal/server"
)

var (
	mcpSSE  bool
	mcpAddr string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the tools over the Model Context Protocol",
	Long: `Serve the registry's tools to MCP hosts. By default speaks MCP over
stdio for direct host integration; --sse starts an HTTP SSE endpoint instead.`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().BoolVar(&mcpSSE, "sse", false, "Serve over HTTP SSE instead of stdio")
	mcpCmd.Flags().StringVarP(&mcpAddr, "addr", "a", ":8081", "SSE listen address")
}

func runMCP(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}

	mcpSrv, err := server.NewMCPServer(container.Registry(), version)
	if err != nil {
		return err
	}

	if mcpSSE {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(os.Stderr, "%s Serving MCP (SSE) on %s\n", logo, mcpAddr)
		return mcpSrv.ServeSSE(ctx, mcpAddr)
	}

	// Stdio hosts own both pipes; keep our output off stdout.
	fmt.Fprintf(os.Stderr, "%s Serving MCP on stdio\n", logo)
	return mcpSrv.ServeStdio()
}
