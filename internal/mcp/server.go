package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the application service with MCP protocol handling.
type Server struct {
	svc     Service
	config  Config
	version string
}

// New creates a new MCP server wrapping the given service.
func New(svc Service, cfg Config, version string) *Server {
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = DefaultConfig().ConfigPath
	}

	return &Server{
		svc:     svc,
		config:  cfg,
		version: version,
	}
}

// Run starts the MCP server and blocks until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	server := s.newServer()

	transport := &mcp.StdioTransport{}
	if err := server.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}

	return nil
}

// newServer builds the protocol server and registers all handlers.
func (s *Server) newServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "covgate",
			Version: s.version,
		},
		&mcp.ServerOptions{
			HasTools:     true,
			HasResources: true,
		},
	)

	s.registerTools(server)
	s.registerResources(server)

	return server
}

// registerTools adds all tool handlers to the server.
func (s *Server) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "check",
		Description: "Run the coverage report gate. Invokes the external coverage tool with the configured threshold and relays its exit status.",
	}, s.handleCheck)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "detect",
		Description: "Detect the project's source directories and propose a default gate configuration without running anything.",
	}, s.handleDetect)
}

// registerResources adds all resource handlers to the server.
func (s *Server) registerResources(server *mcp.Server) {
	server.AddResource(&mcp.Resource{
		URI:         "covgate://config",
		Name:        "Current Configuration",
		Description: "Returns current or auto-detected covgate configuration",
		MIMEType:    "application/json",
	}, s.handleConfigResource)
}
