package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/referralgraph/referralgraph/internal/registry"
	"github.com/referralgraph/referralgraph/internal/schema"
)

// MCPServer exposes every registry tool over the Model Context Protocol.
type MCPServer struct {
	registry  *registry.Registry
	mcpServer *mcpserver.MCPServer
}

// NewMCPServer builds the MCP server and registers all enabled tools. The
// registry loads lazily, so registration resolves the domain modules.
func NewMCPServer(reg *registry.Registry, version string) (*MCPServer, error) {
	s := &MCPServer{
		registry: reg,
		mcpServer: mcpserver.NewMCPServer("referralgraph", version,
			mcpserver.WithToolCapabilities(true)),
	}
	if err := s.registerTools(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MCPServer) registerTools() error {
	defs, err := s.registry.Definitions()
	if err != nil {
		return fmt.Errorf("load tool definitions: %w", err)
	}
	for _, def := range defs {
		rawSchema, err := json.Marshal(def.Parameters)
		if err != nil {
			return fmt.Errorf("marshal schema for %s: %w", def.Name, err)
		}
		tool := mcp.NewToolWithRawSchema(def.Name, def.Description, rawSchema)
		s.mcpServer.AddTool(tool, s.makeHandler(def))
	}
	return nil
}

func (s *MCPServer) makeHandler(def schema.ToolDefinition) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fn, err := s.registry.Tool(def.Name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, err := fn(ctx, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, err := json.Marshal(result)
		if err != nil {
			return mcp.NewToolResultError("serialise result: " + err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// ServeStdio runs the server over stdin/stdout.
func (s *MCPServer) ServeStdio() error {
	return mcpserver.ServeStdio(s.mcpServer)
}

// ServeSSE runs the server over SSE on addr until ctx is cancelled.
func (s *MCPServer) ServeSSE(ctx context.Context, addr string) error {
	sse := mcpserver.NewSSEServer(s.mcpServer)

	mux := http.NewServeMux()
	mux.Handle("/sse", sse.SSEHandler())
	mux.Handle("/message", sse.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
