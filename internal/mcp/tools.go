package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/felixgeelhaar/covgate/internal/application"
	"github.com/felixgeelhaar/covgate/internal/domain"
)

// handleCheck implements the check tool.
func (s *Server) handleCheck(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CheckInput,
) (*mcp.CallToolResult, ToolOutput, error) {
	opts := application.CheckOptions{
		ConfigPath: coalesce(input.ConfigPath, s.config.ConfigPath),
		Dir:        coalesce(input.Dir, s.config.Dir),
		FailUnder:  input.FailUnder,
		Quiet:      true,
	}

	outcome, err := s.svc.Check(ctx, opts)

	output := ToolOutput{
		Passed:   outcome.Passed,
		ExitCode: outcome.ExitCode,
		Command:  outcome.Command,
	}

	if err != nil {
		output.Passed = false
		output.Error = err.Error()
		output.Summary = "Gate did not run"
		return nil, output, nil
	}

	output.Summary = generateSummary(outcome)
	return nil, output, nil
}

// handleDetect implements the detect tool.
func (s *Server) handleDetect(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input DetectInput,
) (*mcp.CallToolResult, DetectOutput, error) {
	cfg, err := s.svc.Detect(ctx, application.DetectOptions{
		Dir: coalesce(input.Dir, s.config.Dir),
	})
	if err != nil {
		return nil, DetectOutput{}, fmt.Errorf("detect failed: %w", err)
	}

	return nil, DetectOutput{
		Sources:   cfg.Gate.Sources,
		FailUnder: cfg.Gate.FailUnder,
		Tool:      cfg.Tool.Name,
		Summary:   fmt.Sprintf("Detected sources: %s", strings.Join(cfg.Gate.Sources, " ")),
	}, nil
}

// generateSummary creates a human-readable summary from the outcome.
func generateSummary(outcome domain.Outcome) string {
	if outcome.Passed {
		return "PASS | coverage gate satisfied"
	}
	if outcome.BelowThreshold() {
		return fmt.Sprintf("FAIL | total coverage under threshold (exit %d)", outcome.ExitCode)
	}
	return fmt.Sprintf("FAIL | coverage tool exited %d", outcome.ExitCode)
}
