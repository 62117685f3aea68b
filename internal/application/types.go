package application

import (
	"context"
	"errors"
	"io"

	"github.com/felixgeelhaar/covgate/internal/domain"
)

type OutputFormat string

const (
	OutputText  OutputFormat = "text"
	OutputJSON  OutputFormat = "json"
	OutputBrief OutputFormat = "brief"
)

var ErrConfigNotFound = errors.New("config not found")

// Config represents validated, application-ready configuration.
type Config struct {
	Version int
	Gate    domain.Gate
	Tool    ToolConfig
}

// ToolConfig names the external coverage executable and where a local
// install of it may live.
type ToolConfig struct {
	Name     string   // coverage tool executable (default "coverage")
	VenvDirs []string // candidate virtualenv directories, checked in order
}

type ConfigLoader interface {
	Load(path string) (Config, error)
	Exists(path string) (bool, error)
}

type Autodetector interface {
	Detect(dir string) (Config, error)
}

// PrefixResolver locates a project-local tool binary directory.
// An empty prefix means the tool resolves from the ambient PATH.
type PrefixResolver interface {
	Resolve(root string, candidates []string) (string, error)
}

// GateRunner shells out to the external coverage reporting tool.
type GateRunner interface {
	Run(ctx context.Context, opts RunOptions) (domain.Outcome, error)
}

type Reporter interface {
	Write(w io.Writer, outcome domain.Outcome, gate domain.Gate, format OutputFormat) error
}

type HistoryStore interface {
	Load() (domain.History, error)
	Save(h domain.History) error
	Append(entry domain.GateEntry) error
}

// FileWatcher provides file change notifications.
type FileWatcher interface {
	WatchDir(root string) error
	Events(ctx context.Context) <-chan struct{}
	Close() error
}

// WatchCallback is invoked after every gate run in watch mode.
type WatchCallback func(runNumber int, outcome domain.Outcome, err error)

type RunOptions struct {
	Gate   domain.Gate
	Tool   string // executable name, without prefix
	Prefix string // local binary directory, empty for PATH lookup
	Dir    string // working directory for the child process
}

type CheckOptions struct {
	ConfigPath   string
	Dir          string
	Output       OutputFormat
	Quiet        bool     // suppress the gate summary
	FailUnder    *float64 // overrides the configured threshold
	HistoryStore HistoryStore
}

type DetectOptions struct {
	Dir string
}

// WatchOptions configures watch mode behavior.
type WatchOptions struct {
	ConfigPath string
	Dir        string
	Output     OutputFormat
	Quiet      bool
}
