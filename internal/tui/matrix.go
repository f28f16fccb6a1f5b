package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/icco/xenqnt/internal/quantizer"
)

var (
	cursorCell   = lipgloss.NewStyle().Background(lipgloss.Color("#7D56F4"))
	enabledCell  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	disabledCell = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	unusedCell   = lipgloss.NewStyle().Foreground(lipgloss.Color("#333333"))
	glowCells    = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#32CD32")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true),
	}
)

func (m Model) updateMatrix(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Left):
		if m.cursor%columns > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Right):
		if m.cursor%columns < columns-1 && m.cursor < quantizer.MatrixSize-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Up):
		if m.cursor >= columns {
			m.cursor -= columns
		}
	case key.Matches(msg, keys.Down):
		if m.cursor+columns < quantizer.MatrixSize {
			m.cursor += columns
		}
	case key.Matches(msg, keys.Toggle):
		if m.cursor >= stepsShown(m.ctrl.Snapshot()) {
			m.setStatus(fmt.Sprintf("Step %d is not in the scale", m.cursor+1), true)
			return m, nil
		}
		m.ctrl.ToggleStep(m.cursor)
		m.setStatus("", false)
	case key.Matches(msg, keys.All):
		m.ctrl.SetEnabledAll(true)
		m.setStatus("All steps enabled", false)
	case key.Matches(msg, keys.None):
		m.ctrl.SetEnabledAll(false)
		m.setStatus("All steps disabled", false)
	case key.Matches(msg, keys.Random):
		m.ctrl.RandomizeEnabled()
		m.setStatus("Steps randomized", false)
	case key.Matches(msg, keys.PitchMode):
		m.cycleMode(quantizer.PitchPath)
	case key.Matches(msg, keys.CVMode):
		m.cycleMode(quantizer.CVPath)
	case key.Matches(msg, keys.Reset):
		m.ctrl.Reset()
		m.setStatus("Reset to 12-TET", false)
	case key.Matches(msg, keys.Open):
		m.mode = browserMode
		if dir := m.ctrl.ScalaDir(); dir != "" && dir != m.browser.currentDir {
			m.browser.enter(dir)
		} else {
			m.browser.loadFiles()
		}
	case key.Matches(msg, keys.Save):
		m.save()
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) viewMatrix() string {
	snap := m.ctrl.Snapshot()
	var b strings.Builder

	b.WriteString(titleStyle.Render("XENQNT Tuning Quantizer") + "\n\n")
	b.WriteString(subtitleStyle.Render("Tuning: ") + m.ctrl.Name() + "\n")
	if m.opts.Port != "" {
		b.WriteString(subtitleStyle.Render("MIDI Port: ") + statusStyle.Render(m.opts.Port) + "\n")
	}
	b.WriteString(subtitleStyle.Render("Pitch mapping: ") + m.ctrl.MappingMode(quantizer.PitchPath).Label() +
		subtitleStyle.Render("   CV mapping: ") + m.ctrl.MappingMode(quantizer.CVPath).Label() + "\n")
	b.WriteString(subtitleStyle.Render("State: ") + renderState(m.ctrl.State()) + "\n\n")

	b.WriteString(m.renderGrid(stepsShown(snap)) + "\n")
	b.WriteString(m.renderCursorInfo(snap) + "\n\n")

	if snap != nil && snap.Lattice != nil {
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("Lattice: %d steps, %d enabled, period %.4f V, version %d",
			len(snap.Lattice.All), len(snap.Lattice.Enabled), snap.Lattice.PeriodVolts, snap.Version)) + "\n")
	}

	b.WriteString("\n" + subtitleStyle.Render(fmt.Sprintf("MIDI Log: [%d total]", m.messageCount)) + "\n")
	if len(m.messageHistory) == 0 {
		b.WriteString("  " + logStyle.Render("(waiting for input)") + "\n")
	}
	for i, msg := range m.messageHistory {
		if i == 0 {
			b.WriteString("  " + logHighlightStyle.Render("▶ "+msg) + "\n")
		} else {
			b.WriteString("  " + logStyle.Render("  "+msg) + "\n")
		}
	}

	b.WriteString("\n")
	if m.message != "" {
		if m.isError {
			b.WriteString(errorStyle.Render(m.message) + "\n")
		} else {
			b.WriteString(statusStyle.Render(m.message) + "\n")
		}
	}
	b.WriteString("\n" + m.help.View(keys))
	return b.String()
}

func renderState(s quantizer.State) string {
	switch s {
	case quantizer.ErrorBlink:
		return errorStyle.Render(s.String())
	case quantizer.CvEngaged:
		return statusStyle.Render(s.String())
	}
	return s.String()
}

// renderGrid draws the step buttons in rows of twelve. The glyph shows the
// enabled light, its color the eased selected light.
func (m Model) renderGrid(shown int) string {
	var b strings.Builder
	b.WriteString("     ")
	for c := 0; c < columns; c++ {
		b.WriteString(fmt.Sprintf("%2d ", c+1))
	}
	b.WriteString("\n")

	for row := 0; row*columns < quantizer.MatrixSize; row++ {
		b.WriteString(fmt.Sprintf("%3d  ", row*columns+1))
		for c := 0; c < columns; c++ {
			i := row*columns + c
			if i >= quantizer.MatrixSize {
				break
			}
			b.WriteString(m.renderCell(i, shown))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderCell(i, shown int) string {
	glyph := "·"
	style := disabledCell
	switch {
	case i >= shown:
		glyph = " "
		style = unusedCell
	case m.lights[i] > 0.5:
		glyph = "●"
		style = enabledCell
	}
	if i < shown {
		if g := glowLevel(m.glow[i]); g >= 0 {
			style = glowCells[g]
		}
	}
	if i == m.cursor {
		style = style.Inherit(cursorCell)
	}
	return style.Render(fmt.Sprintf(" %s ", glyph))
}

// glowLevel buckets the eased selected light, -1 when dark.
func glowLevel(v float64) int {
	switch {
	case v > 0.8:
		return 2
	case v > 0.4:
		return 1
	case v > 0.1:
		return 0
	}
	return -1
}

func (m Model) renderCursorInfo(snap *quantizer.Snapshot) string {
	if snap == nil || m.cursor >= len(snap.Scale) {
		return helpStyle.Render(fmt.Sprintf("Step %d: -", m.cursor+1))
	}
	st := snap.Scale[m.cursor]
	status := "disabled"
	if st.Enabled {
		status = "enabled"
	}
	return helpStyle.Render(fmt.Sprintf("Step %d: %.3f cents (%.4f V), %s", m.cursor+1, st.Cents, st.Cents/1200, status))
}
