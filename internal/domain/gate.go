package domain

import (
	"errors"
	"fmt"
	"strings"
)

// SourceFilesEnv is the environment variable the coverage tool consults
// for the directories treated as the project's source set.
const SourceFilesEnv = "SOURCE_FILES"

var ErrNoSources = errors.New("gate has no source directories")

// Gate describes what the external coverage tool is asked to enforce.
type Gate struct {
	Sources     []string
	Omit        []string
	FailUnder   float64
	ShowMissing bool
	SkipCovered bool
}

func (g Gate) Validate() error {
	if len(g.Sources) == 0 {
		return ErrNoSources
	}
	if g.FailUnder < 0 || g.FailUnder > 100 {
		return fmt.Errorf("fail-under must be between 0 and 100, got %g", g.FailUnder)
	}
	return nil
}

// SourceFiles returns the space-joined source set, the exact value
// advertised through SOURCE_FILES.
func (g Gate) SourceFiles() string {
	return strings.Join(g.Sources, " ")
}
