// Package covtool shells out to the external coverage reporting tool.
// The tool's own behavior (reading prior coverage data, computing
// percentages) is opaque; covtool only constructs the invocation and
// relays its exit status.
package covtool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/covgate/internal/application"
	"github.com/felixgeelhaar/covgate/internal/domain"
)

// DefaultTool is the executable invoked when the config names none.
const DefaultTool = "coverage"

type Runner struct {
	// Exec overrides command execution (for testing).
	Exec func(ctx context.Context, dir string, env []string, name string, args []string) error
	// Trace receives the echoed command line; defaults to os.Stderr.
	Trace io.Writer
	// Stdout and Stderr receive the child's output unmodified;
	// they default to the process's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Run invokes `<prefix>coverage report` with the gate's flags. The
// child's stdout and stderr pass through unmodified and its exit code
// is returned in the outcome, untranslated. A non-nil error means the
// gate could not run at all (tool missing, spawn failure).
func (r Runner) Run(ctx context.Context, opts application.RunOptions) (domain.Outcome, error) {
	name := opts.Tool
	if name == "" {
		name = DefaultTool
	}
	if opts.Prefix != "" {
		name = filepath.Join(opts.Prefix, name)
	}

	args := BuildReportArgs(opts.Gate)
	env := BuildEnv(os.Environ(), opts.Gate)

	trace := r.Trace
	if trace == nil {
		trace = os.Stderr
	}
	fmt.Fprintf(trace, "+ %s %s\n", name, strings.Join(args, " "))

	execFn := r.Exec
	if execFn == nil {
		execFn = r.runCommand
	}
	command := append([]string{name}, args...)

	err := execFn(ctx, opts.Dir, env, name, args)
	if err == nil {
		return domain.NewOutcome(command, 0), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The tool ran and rendered its verdict; relay it untranslated.
		return domain.NewOutcome(command, exitErr.ExitCode()), nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return domain.Outcome{}, fmt.Errorf("coverage tool %q not found: %w", name, err)
	}
	return domain.Outcome{}, fmt.Errorf("coverage report failed to start: %w", err)
}

// BuildReportArgs constructs the report invocation for a gate.
func BuildReportArgs(g domain.Gate) []string {
	args := []string{"report"}
	if len(g.Omit) > 0 {
		args = append(args, "--omit="+strings.Join(g.Omit, ","))
	}
	if g.ShowMissing {
		args = append(args, "--show-missing")
	}
	if g.SkipCovered {
		args = append(args, "--skip-covered")
	}
	args = append(args, "--fail-under="+strconv.FormatFloat(g.FailUnder, 'f', -1, 64))
	return args
}

// BuildEnv returns base with the gate's source set appended as
// SOURCE_FILES, the variable the coverage tool consults.
func BuildEnv(base []string, g domain.Gate) []string {
	env := make([]string, 0, len(base)+1)
	env = append(env, base...)
	env = append(env, domain.SourceFilesEnv+"="+g.SourceFiles())
	return env
}

func (r Runner) runCommand(ctx context.Context, dir string, env []string, name string, args []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}
