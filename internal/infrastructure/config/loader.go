package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/covgate/internal/application"
	"github.com/felixgeelhaar/covgate/internal/domain"
	"github.com/felixgeelhaar/covgate/internal/infrastructure/covtool"
	"github.com/felixgeelhaar/covgate/internal/infrastructure/venv"
)

type Loader struct{}

type fileConfig struct {
	Version int      `yaml:"version"`
	Sources []string `yaml:"sources"`
	Gate    fileGate `yaml:"gate"`
	Tool    fileTool `yaml:"tool"`
}

type fileGate struct {
	FailUnder   *float64 `yaml:"fail_under"`
	ShowMissing *bool    `yaml:"show_missing"`
	SkipCovered *bool    `yaml:"skip_covered"`
	Omit        []string `yaml:"omit"`
}

type fileTool struct {
	Name     string   `yaml:"name"`
	VenvDirs []string `yaml:"venv_dirs"`
}

func (l Loader) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (l Loader) Load(path string) (application.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return application.Config{}, err
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return application.Config{}, err
	}

	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Version != 1 {
		return application.Config{}, fmt.Errorf("unsupported config version %d", cfg.Version)
	}

	gate := domain.Gate{
		Sources:     cfg.Sources,
		Omit:        cfg.Gate.Omit,
		FailUnder:   100,
		ShowMissing: true,
		SkipCovered: true,
	}
	if cfg.Gate.FailUnder != nil {
		gate.FailUnder = *cfg.Gate.FailUnder
	}
	if cfg.Gate.ShowMissing != nil {
		gate.ShowMissing = *cfg.Gate.ShowMissing
	}
	if cfg.Gate.SkipCovered != nil {
		gate.SkipCovered = *cfg.Gate.SkipCovered
	}

	tool := application.ToolConfig{
		Name:     cfg.Tool.Name,
		VenvDirs: cfg.Tool.VenvDirs,
	}
	if tool.Name == "" {
		tool.Name = covtool.DefaultTool
	}
	if len(tool.VenvDirs) == 0 {
		tool.VenvDirs = venv.DefaultCandidates
	}

	return application.Config{Version: cfg.Version, Gate: gate, Tool: tool}, nil
}

func Write(w io.Writer, cfg application.Config) error {
	version := cfg.Version
	if version == 0 {
		version = 1
	}
	failUnder := cfg.Gate.FailUnder
	showMissing := cfg.Gate.ShowMissing
	skipCovered := cfg.Gate.SkipCovered

	out := fileConfig{
		Version: version,
		Sources: cfg.Gate.Sources,
		Gate: fileGate{
			FailUnder:   &failUnder,
			ShowMissing: &showMissing,
			SkipCovered: &skipCovered,
			Omit:        cfg.Gate.Omit,
		},
		Tool: fileTool{
			Name:     cfg.Tool.Name,
			VenvDirs: cfg.Tool.VenvDirs,
		},
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return enc.Encode(out)
}
