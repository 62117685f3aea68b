package application

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/felixgeelhaar/covgate/internal/domain"
)

type Service struct {
	ConfigLoader   ConfigLoader
	Autodetector   Autodetector
	PrefixResolver PrefixResolver
	GateRunner     GateRunner
	Reporter       Reporter
	Out            io.Writer
}

// Check resolves the tool prefix, runs the coverage report gate and
// returns the child's outcome. A non-nil error means the gate never ran
// or could not be recorded; a failing gate is a nil error with a
// non-zero exit code in the outcome, which callers propagate verbatim.
func (s *Service) Check(ctx context.Context, opts CheckOptions) (domain.Outcome, error) {
	cfg, err := s.loadOrDetect(opts.ConfigPath, opts.Dir)
	if err != nil {
		return domain.Outcome{}, err
	}

	gate := cfg.Gate
	if opts.FailUnder != nil {
		gate.FailUnder = *opts.FailUnder
	}
	if err := gate.Validate(); err != nil {
		return domain.Outcome{}, err
	}

	prefix, err := s.PrefixResolver.Resolve(opts.Dir, cfg.Tool.VenvDirs)
	if err != nil {
		return domain.Outcome{}, err
	}

	outcome, err := s.GateRunner.Run(ctx, RunOptions{
		Gate:   gate,
		Tool:   cfg.Tool.Name,
		Prefix: prefix,
		Dir:    opts.Dir,
	})
	if err != nil {
		return domain.Outcome{}, err
	}

	if opts.HistoryStore != nil {
		entry := domain.GateEntry{
			Timestamp: time.Now().UTC(),
			ExitCode:  outcome.ExitCode,
			Passed:    outcome.Passed,
			FailUnder: gate.FailUnder,
			Sources:   gate.Sources,
		}
		if err := opts.HistoryStore.Append(entry); err != nil {
			return outcome, fmt.Errorf("record gate run: %w", err)
		}
	}

	if !opts.Quiet && s.Reporter != nil {
		if err := s.Reporter.Write(s.Out, outcome, gate, opts.Output); err != nil {
			return outcome, err
		}
	}
	return outcome, nil
}

// Detect builds a default configuration from the project layout.
func (s *Service) Detect(ctx context.Context, opts DetectOptions) (Config, error) {
	return s.Autodetector.Detect(opts.Dir)
}

// Watch runs the gate in a loop, re-running when source files change.
func (s *Service) Watch(ctx context.Context, opts WatchOptions, watcher FileWatcher, callback WatchCallback) error {
	root := opts.Dir
	if root == "" {
		root = "."
	}
	if err := watcher.WatchDir(root); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	checkOpts := CheckOptions{
		ConfigPath: opts.ConfigPath,
		Dir:        opts.Dir,
		Output:     opts.Output,
		Quiet:      opts.Quiet,
	}

	runNumber := 1
	outcome, runErr := s.Check(ctx, checkOpts)
	if callback != nil {
		callback(runNumber, outcome, runErr)
	}

	events := watcher.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			runNumber++
			outcome, runErr := s.Check(ctx, checkOpts)
			if callback != nil {
				callback(runNumber, outcome, runErr)
			}
		}
	}
}

func (s *Service) loadOrDetect(path, dir string) (Config, error) {
	ok, err := s.ConfigLoader.Exists(path)
	if err != nil {
		return Config{}, err
	}
	if ok {
		return s.ConfigLoader.Load(path)
	}
	return s.Autodetector.Detect(dir)
}
