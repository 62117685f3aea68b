package autodetect

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/felixgeelhaar/covgate/internal/application"
	"github.com/felixgeelhaar/covgate/internal/domain"
	"github.com/felixgeelhaar/covgate/internal/infrastructure/covtool"
	"github.com/felixgeelhaar/covgate/internal/infrastructure/venv"
)

type Detector struct{}

// Detect scans dir for Python package directories and a tests directory
// and builds a default gate around them.
func (d Detector) Detect(dir string) (application.Config, error) {
	if dir == "" {
		dir = "."
	}
	gate := domain.Gate{
		Sources:     detectSources(dir),
		FailUnder:   100,
		ShowMissing: true,
		SkipCovered: true,
	}
	return application.Config{
		Version: 1,
		Gate:    gate,
		Tool: application.ToolConfig{
			Name:     covtool.DefaultTool,
			VenvDirs: venv.DefaultCandidates,
		},
	}, nil
}

func detectSources(root string) []string {
	sources := packageDirs(root, "")
	if len(sources) == 0 {
		// src layout: packages one level down
		sources = packageDirs(filepath.Join(root, "src"), "src")
	}
	if info, err := os.Stat(filepath.Join(root, "tests")); err == nil && info.IsDir() {
		sources = append(sources, "tests")
	}
	if len(sources) == 0 {
		sources = []string{"."}
	}
	return sources
}

// packageDirs returns the directories under dir that are importable
// Python packages, sorted by name.
func packageDirs(dir, relPrefix string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	ignore := map[string]struct{}{
		"tests":        {},
		"venv":         {},
		"node_modules": {},
		"__pycache__":  {},
		"build":        {},
		"dist":         {},
	}
	var out []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := ignore[name]; ok {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, name, "__init__.py")); err != nil {
			continue
		}
		rel := name
		if relPrefix != "" {
			rel = filepath.ToSlash(filepath.Join(relPrefix, name))
		}
		out = append(out, rel)
	}
	sort.Strings(out)
	return out
}
