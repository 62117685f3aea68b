package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/felixgeelhaar/covgate/internal/application"
	"github.com/felixgeelhaar/covgate/internal/domain"
	"github.com/felixgeelhaar/covgate/internal/infrastructure/autodetect"
	"github.com/felixgeelhaar/covgate/internal/infrastructure/config"
	"github.com/felixgeelhaar/covgate/internal/infrastructure/covtool"
	"github.com/felixgeelhaar/covgate/internal/infrastructure/history"
	"github.com/felixgeelhaar/covgate/internal/infrastructure/report"
	"github.com/felixgeelhaar/covgate/internal/infrastructure/venv"
	"github.com/felixgeelhaar/covgate/internal/infrastructure/watcher"
	"github.com/felixgeelhaar/covgate/internal/infrastructure/wizard"
	"github.com/felixgeelhaar/covgate/internal/mcp"
)

type Service interface {
	Check(ctx context.Context, opts application.CheckOptions) (domain.Outcome, error)
	Detect(ctx context.Context, opts application.DetectOptions) (application.Config, error)
	Watch(ctx context.Context, opts application.WatchOptions, watcher application.FileWatcher, callback application.WatchCallback) error
}

var initWizard = wizard.Run

func Run(args []string, stdout, stderr io.Writer, svc Service) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	ctx := context.Background()

	switch args[1] {
	case "check":
		fs := flag.NewFlagSet("check", flag.ExitOnError)
		configPath := fs.String("config", ".covgate.yaml", "Config file path")
		dir := fs.String("dir", "", "Project directory (default: current directory)")
		output := outputFlags(fs)
		quiet := fs.Bool("quiet", false, "Suppress the gate summary line")
		record := fs.Bool("record", false, "Record the gate run to history")
		historyPath := fs.String("history", ".covgate/history.json", "History file path")
		failUnder := fs.Float64("fail-under", -1, "Override the configured coverage threshold")
		_ = fs.Parse(args[2:])
		opts := application.CheckOptions{ConfigPath: *configPath, Dir: *dir, Output: *output, Quiet: *quiet}
		if *failUnder >= 0 {
			opts.FailUnder = failUnder
		}
		if *record {
			opts.HistoryStore = &history.FileStore{Path: *historyPath}
		}
		outcome, err := svc.Check(ctx, opts)
		if err != nil {
			return exitCode(err, 3, stderr)
		}
		return outcome.ExitCode
	case "detect":
		fs := flag.NewFlagSet("detect", flag.ExitOnError)
		dir := fs.String("dir", "", "Project directory (default: current directory)")
		writeConfig := fs.Bool("write-config", false, "Write detected config to .covgate.yaml")
		configPath := fs.String("config", ".covgate.yaml", "Config file path")
		force := fs.Bool("force", false, "Overwrite config if it exists")
		_ = fs.Parse(args[2:])
		cfg, err := svc.Detect(ctx, application.DetectOptions{Dir: *dir})
		if err != nil {
			return exitCode(err, 3, stderr)
		}
		if *writeConfig {
			if err := writeConfigFile(*configPath, cfg, stdout, *force); err != nil {
				return exitCode(err, 2, stderr)
			}
			return 0
		}
		if err := writeConfigFile("-", cfg, stdout, *force); err != nil {
			return exitCode(err, 2, stderr)
		}
		return 0
	case "init":
		fs := flag.NewFlagSet("init", flag.ExitOnError)
		dir := fs.String("dir", "", "Project directory (default: current directory)")
		configPath := fs.String("config", ".covgate.yaml", "Config file path")
		force := fs.Bool("force", false, "Overwrite existing config file")
		noInteractive := fs.Bool("no-interactive", false, "Skip the interactive init wizard")
		_ = fs.Parse(args[2:])
		cfg, err := svc.Detect(ctx, application.DetectOptions{Dir: *dir})
		if err != nil {
			return exitCode(err, 3, stderr)
		}
		if !*noInteractive {
			var confirmed bool
			cfg, confirmed, err = initWizard(cfg, stdout, os.Stdin)
			if err != nil {
				return exitCode(err, 5, stderr)
			}
			if !confirmed {
				fmt.Fprintln(stdout, "Init cancelled; no configuration written.")
				return 0
			}
		}
		if err := writeConfigFile(*configPath, cfg, stdout, *force); err != nil {
			return exitCode(err, 2, stderr)
		}
		return 0
	case "watch":
		fs := flag.NewFlagSet("watch", flag.ExitOnError)
		configPath := fs.String("config", ".covgate.yaml", "Config file path")
		dir := fs.String("dir", "", "Project directory (default: current directory)")
		output := outputFlags(fs)
		quiet := fs.Bool("quiet", false, "Suppress the gate summary line")
		_ = fs.Parse(args[2:])
		return runWatch(ctx, stdout, stderr, svc, application.WatchOptions{
			ConfigPath: *configPath,
			Dir:        *dir,
			Output:     *output,
			Quiet:      *quiet,
		})
	case "history":
		fs := flag.NewFlagSet("history", flag.ExitOnError)
		historyPath := fs.String("history", ".covgate/history.json", "History file path")
		limit := fs.Int("limit", 0, "Show at most N most recent entries (0 = all)")
		_ = fs.Parse(args[2:])
		store := history.FileStore{Path: *historyPath}
		h, err := store.Load()
		if err != nil {
			return exitCode(err, 3, stderr)
		}
		printHistory(h, *limit, stdout)
		return 0
	case "version":
		fmt.Fprintf(stdout, "covgate %s (commit %s, built %s)\n", Version, Commit, Date)
		return 0
	case "mcp":
		fs := flag.NewFlagSet("mcp", flag.ExitOnError)
		configPath := fs.String("config", ".covgate.yaml", "Config file path")
		dir := fs.String("dir", "", "Project directory (default: current directory)")
		_ = fs.Parse(args[2:])
		server := mcp.New(svc, mcp.Config{ConfigPath: *configPath, Dir: *dir}, Version)
		if err := server.Run(ctx); err != nil {
			return exitCode(err, 3, stderr)
		}
		return 0
	default:
		usage(stderr)
		return 2
	}
}

func BuildService(out *os.File) *application.Service {
	return &application.Service{
		ConfigLoader:   config.Loader{},
		Autodetector:   autodetect.Detector{},
		PrefixResolver: venv.Resolver{},
		GateRunner:     &covtool.Runner{},
		Reporter:       report.Writer{},
		Out:            out,
	}
}

func outputFlags(fs *flag.FlagSet) *application.OutputFormat {
	output := application.OutputText
	fs.Var((*outputValue)(&output), "output", "Output format: text|json|brief")
	fs.Var((*outputValue)(&output), "o", "Output format: text|json|brief")
	return &output
}

type outputValue application.OutputFormat

func (o *outputValue) String() string { return string(*o) }

func (o *outputValue) Set(value string) error {
	switch value {
	case string(application.OutputText), string(application.OutputJSON), string(application.OutputBrief):
		*o = outputValue(value)
		return nil
	default:
		return fmt.Errorf("invalid output format: %s", value)
	}
}

func writeConfigFile(path string, cfg application.Config, stdout io.Writer, force bool) error {
	if path == "-" {
		return config.Write(stdout, cfg)
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return config.Write(file, cfg)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `covgate <command>

Commands:
  check    Run the coverage report gate
  detect   Autodetect sources (use --write-config to save)
  init     Run autodetect plus the interactive wizard
  watch    Re-run the gate when source files change
  history  Show recorded gate runs
  version  Print version information
  mcp      Run the MCP server over stdio`)
}

func exitCode(err error, code int, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, err)
	return code
}

func printHistory(h domain.History, limit int, w io.Writer) {
	entries := h.Entries
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No gate runs recorded yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tRESULT\tEXIT\tFAIL-UNDER")
	for _, e := range entries {
		result := "FAIL"
		if e.Passed {
			result = "PASS"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%g%%\n", e.Timestamp.Format(time.RFC3339), result, e.ExitCode, e.FailUnder)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\n%d entries, pass streak %d\n", len(h.Entries), h.PassStreak())
}

func runWatch(ctx context.Context, stdout, stderr io.Writer, svc Service, opts application.WatchOptions) int {
	w, err := watcher.New(watcher.WithDebounce(500 * time.Millisecond))
	if err != nil {
		fmt.Fprintf(stderr, "failed to create watcher: %v\n", err)
		return 3
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(stdout, "\nStopping watch mode...")
		cancel()
	}()

	fmt.Fprintln(stdout, "Watching for file changes... (Ctrl+C to stop)")
	fmt.Fprintln(stdout, "")

	callback := func(runNumber int, outcome domain.Outcome, runErr error) {
		fmt.Fprintf(stdout, "\n--- Run #%d at %s ---\n", runNumber, time.Now().Format("15:04:05"))
		switch {
		case runErr != nil:
			fmt.Fprintf(stderr, "Gate failed to run: %v\n", runErr)
		case outcome.Passed:
			fmt.Fprintln(stdout, "Gate passed")
		default:
			fmt.Fprintf(stdout, "Gate failed (exit %d)\n", outcome.ExitCode)
		}
	}

	if err := svc.Watch(ctx, opts, w, callback); err != nil {
		if ctx.Err() == context.Canceled {
			return 0
		}
		fmt.Fprintf(stderr, "watch error: %v\n", err)
		return 3
	}
	return 0
}
