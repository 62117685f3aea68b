package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/felixgeelhaar/covgate/internal/application"
	"github.com/felixgeelhaar/covgate/internal/domain"
)

// Writer renders the gate summary. The tool's own report text has
// already passed through untouched; this is covgate's verdict line.
type Writer struct{}

func (Writer) Write(w io.Writer, outcome domain.Outcome, gate domain.Gate, format application.OutputFormat) error {
	switch format {
	case application.OutputJSON:
		payload := struct {
			Passed    bool     `json:"passed"`
			ExitCode  int      `json:"exitCode"`
			FailUnder float64  `json:"failUnder"`
			Sources   []string `json:"sources"`
			Command   []string `json:"command,omitempty"`
		}{
			Passed:    outcome.Passed,
			ExitCode:  outcome.ExitCode,
			FailUnder: gate.FailUnder,
			Sources:   gate.Sources,
			Command:   outcome.Command,
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case application.OutputBrief:
		return writeBrief(w, outcome, gate)
	case application.OutputText, "":
		return writeText(w, outcome, gate)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeText(w io.Writer, outcome domain.Outcome, gate domain.Gate) error {
	status := "PASS"
	if !outcome.Passed {
		status = fmt.Sprintf("FAIL (exit %d)", outcome.ExitCode)
	}

	if colorEnabled(w) {
		passStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true)
		failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
		if outcome.Passed {
			status = passStyle.Render(status)
		} else {
			status = failStyle.Render(status)
		}
	}

	fmt.Fprintf(w, "\nGate %s | fail-under %s%% | sources: %s\n", status, formatPercent(gate.FailUnder), gate.SourceFiles())
	if outcome.BelowThreshold() {
		fmt.Fprintln(w, "Total coverage is under the configured threshold.")
	}
	return nil
}

// writeBrief outputs a single-line summary optimized for CI log scraping.
func writeBrief(w io.Writer, outcome domain.Outcome, gate domain.Gate) error {
	status := "PASS"
	if !outcome.Passed {
		status = "FAIL"
	}
	_, err := fmt.Fprintf(w, "%s | exit %d | fail-under %s%% | sources: %s\n",
		status, outcome.ExitCode, formatPercent(gate.FailUnder), gate.SourceFiles())
	return err
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%g", v)
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
