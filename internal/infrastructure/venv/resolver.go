// Package venv locates a project-local virtualenv binary directory.
package venv

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// DefaultCandidates are the conventional virtualenv directory names,
// checked in order.
var DefaultCandidates = []string{"venv", ".venv"}

type Resolver struct {
	// Stat overrides filesystem checks (for testing).
	Stat func(name string) (os.FileInfo, error)
}

// Resolve returns the binary directory of the first candidate
// virtualenv under root, or the empty string when none exists. A
// missing virtualenv is not an error; the tool then resolves from PATH.
func (r Resolver) Resolve(root string, candidates []string) (string, error) {
	statFn := r.Stat
	if statFn == nil {
		statFn = os.Stat
	}
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}

	for _, cand := range candidates {
		dir := cand
		if root != "" {
			dir = filepath.Join(root, cand)
		}
		info, err := statFn(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", err
		}
		if !info.IsDir() {
			continue
		}
		return filepath.Join(dir, binDir()), nil
	}
	return "", nil
}

// binDir is the subdirectory a virtualenv uses for executables on this
// platform.
func binDir() string {
	if runtime.GOOS == "windows" {
		return "Scripts"
	}
	return "bin"
}
