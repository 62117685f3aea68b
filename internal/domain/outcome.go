package domain

// ExitBelowThreshold is the exit status coverage.py uses when total
// coverage falls under --fail-under.
const ExitBelowThreshold = 2

// Outcome is everything the gate learns from the child process. The
// exit code is the tool's own, never translated.
type Outcome struct {
	Command  []string `json:"command"`
	ExitCode int      `json:"exitCode"`
	Passed   bool     `json:"passed"`
}

func NewOutcome(command []string, exitCode int) Outcome {
	return Outcome{
		Command:  command,
		ExitCode: exitCode,
		Passed:   exitCode == 0,
	}
}

// BelowThreshold reports whether the tool failed specifically because
// total coverage was under the configured threshold.
func (o Outcome) BelowThreshold() bool {
	return o.ExitCode == ExitBelowThreshold
}
