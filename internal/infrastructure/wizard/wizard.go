package wizard

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/covgate/internal/application"
)

type (
	wizardState int

	initWizardModel struct {
		state       wizardState
		base        application.Config
		failUnder   float64
		showMissing bool
		skipCovered bool
		cursor      int
		confirmed   bool
		aborted     bool
	}
)

const (
	stateIntro wizardState = iota
	stateEdit
	stateConfirm
)

// Rows in the edit view, in cursor order.
const (
	rowFailUnder = iota
	rowShowMissing
	rowSkipCovered
	rowCount
)

func Run(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	return runInitWizard(cfg, stdout, stdin)
}

func runInitWizard(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	model := newInitWizardModel(cfg)
	program := tea.NewProgram(model, tea.WithInput(stdin), tea.WithOutput(stdout))
	res, err := program.Run()
	if err != nil {
		return cfg, false, err
	}
	finalModel, ok := res.(*initWizardModel)
	if !ok {
		return cfg, false, fmt.Errorf("unexpected wizard state")
	}
	if finalModel.aborted || !finalModel.confirmed {
		return cfg, false, nil
	}
	return finalModel.toConfig(), true, nil
}

func newInitWizardModel(cfg application.Config) *initWizardModel {
	failUnder := cfg.Gate.FailUnder
	if failUnder <= 0 {
		failUnder = 100
	}
	return &initWizardModel{
		state:       stateIntro,
		base:        cfg,
		failUnder:   failUnder,
		showMissing: cfg.Gate.ShowMissing,
		skipCovered: cfg.Gate.SkipCovered,
	}
}

func (m *initWizardModel) Init() tea.Cmd {
	return nil
}

func (m *initWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			switch m.state {
			case stateIntro:
				m.state = stateEdit
			case stateEdit:
				m.state = stateConfirm
			case stateConfirm:
				m.confirmed = true
				return m, tea.Quit
			}
		case "esc":
			if m.state == stateConfirm {
				m.state = stateEdit
			}
		case "up":
			if m.state == stateEdit {
				m.moveCursor(-1)
			}
		case "down":
			if m.state == stateEdit {
				m.moveCursor(1)
			}
		case "left", "-":
			if m.state == stateEdit {
				m.adjustSelection(-5)
			}
		case "right", "+", " ":
			if m.state == stateEdit {
				m.adjustSelection(5)
			}
		}
	}
	return m, nil
}

func (m *initWizardModel) View() string {
	switch m.state {
	case stateIntro:
		return m.viewIntro()
	case stateEdit:
		return m.viewEdit()
	case stateConfirm:
		return m.viewConfirm()
	default:
		return ""
	}
}

func (m *initWizardModel) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor > rowCount-1 {
		m.cursor = rowCount - 1
	}
}

func (m *initWizardModel) adjustSelection(delta float64) {
	switch m.cursor {
	case rowFailUnder:
		m.failUnder = clamp(m.failUnder+delta, 0, 100)
	case rowShowMissing:
		m.showMissing = !m.showMissing
	case rowSkipCovered:
		m.skipCovered = !m.skipCovered
	}
}

func (m *initWizardModel) toConfig() application.Config {
	cfg := m.base
	cfg.Gate.FailUnder = m.failUnder
	cfg.Gate.ShowMissing = m.showMissing
	cfg.Gate.SkipCovered = m.skipCovered
	return cfg
}

func (m *initWizardModel) viewIntro() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\ncovgate init wizard\n\n")
	fmt.Fprintf(&b, "covgate detected %d source directories: %s\n\n", len(m.base.Gate.Sources), strings.Join(m.base.Gate.Sources, " "))
	fmt.Fprintf(&b, "Press Enter to review the gate, or Ctrl+C to cancel. Threshold is %.0f%%.\n", m.failUnder)
	return b.String()
}

func (m *initWizardModel) viewEdit() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReview and adjust the gate\n\n")
	fmt.Fprintf(&b, "Use ↑/↓ to move, ←/→ or +/- to change values, space to toggle.\n\n")
	fmt.Fprintf(&b, "%sfail-under: %.0f%%\n", indicator(m.cursor == rowFailUnder), m.failUnder)
	fmt.Fprintf(&b, "%sshow-missing: %s\n", indicator(m.cursor == rowShowMissing), onOff(m.showMissing))
	fmt.Fprintf(&b, "%sskip-covered: %s\n", indicator(m.cursor == rowSkipCovered), onOff(m.skipCovered))
	fmt.Fprintf(&b, "\nEnter to continue, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewConfirm() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReady to write configuration\n\n")
	fmt.Fprintf(&b, "Sources: %s\n", strings.Join(m.base.Gate.Sources, " "))
	fmt.Fprintf(&b, "Fail under: %.0f%%\n", m.failUnder)
	fmt.Fprintf(&b, "Show missing lines: %s\n", onOff(m.showMissing))
	fmt.Fprintf(&b, "Skip fully covered files: %s\n", onOff(m.skipCovered))
	if len(m.base.Gate.Omit) > 0 {
		fmt.Fprintf(&b, "\nOmitted from the report:\n")
		for _, pattern := range m.base.Gate.Omit {
			fmt.Fprintf(&b, "  - %s\n", pattern)
		}
	} else {
		fmt.Fprintf(&b, "\nNothing omitted from the report.\n")
	}
	fmt.Fprintf(&b, "\nPress Enter to save, Esc to go back, q to cancel.\n")
	return b.String()
}

func indicator(selected bool) string {
	if selected {
		return "> "
	}
	return "  "
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
