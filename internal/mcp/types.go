// Package mcp provides Model Context Protocol server implementation for covgate.
package mcp

import (
	"context"

	"github.com/felixgeelhaar/covgate/internal/application"
	"github.com/felixgeelhaar/covgate/internal/domain"
)

// Service defines the application operations needed by MCP.
// This interface allows for easy mocking in tests.
type Service interface {
	// Check runs the coverage report gate (may have side effects).
	Check(ctx context.Context, opts application.CheckOptions) (domain.Outcome, error)
	// Detect is a read-only query over the project layout.
	Detect(ctx context.Context, opts application.DetectOptions) (application.Config, error)
}

// Config holds MCP server configuration.
type Config struct {
	ConfigPath string // Path to .covgate.yaml (default: ".covgate.yaml")
	Dir        string // Project directory (default: current directory)
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() Config {
	return Config{
		ConfigPath: ".covgate.yaml",
	}
}

// CheckInput defines the input parameters for the check tool.
type CheckInput struct {
	ConfigPath string   `json:"configPath,omitempty" jsonschema:"Path to .covgate.yaml config file"`
	Dir        string   `json:"dir,omitempty" jsonschema:"Project directory to gate"`
	FailUnder  *float64 `json:"failUnder,omitempty" jsonschema:"Override the configured coverage threshold"`
}

// DetectInput defines the input parameters for the detect tool.
type DetectInput struct {
	Dir string `json:"dir,omitempty" jsonschema:"Project directory to scan"`
}

// ToolOutput represents the common output structure for tools.
type ToolOutput struct {
	Passed   bool     `json:"passed"`
	ExitCode int      `json:"exitCode"`
	Summary  string   `json:"summary,omitempty"`
	Command  []string `json:"command,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// DetectOutput describes a detected gate configuration.
type DetectOutput struct {
	Sources   []string `json:"sources"`
	FailUnder float64  `json:"failUnder"`
	Tool      string   `json:"tool"`
	Summary   string   `json:"summary,omitempty"`
}

// coalesce returns value if non-empty, otherwise fallback.
func coalesce(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
