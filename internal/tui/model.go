// Package tui is the control surface: a step matrix with enabled and selected
// lights for each scale degree, mapping mode selectors and a Scala file browser.
package tui

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Southclaws/fault/fmsg"
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/icco/xenqnt/internal/mapper"
	"github.com/icco/xenqnt/internal/midiin"
	"github.com/icco/xenqnt/internal/quantizer"
	"github.com/icco/xenqnt/internal/state"
)

// Controller is the part of the tuning controller the surface drives.
type Controller interface {
	Snapshot() *quantizer.Snapshot
	Lights(i int) (enabled, selected float32)
	State() quantizer.State
	Name() string
	ScalaDir() string
	MappingMode(p quantizer.Path) mapper.Mode
	SetMappingMode(p quantizer.Path, m mapper.Mode)
	ToggleStep(i int)
	SetEnabledAll(enabled bool)
	RandomizeEnabled()
	Reset()
	LoadScaleFile(path string) error
	Document() state.Document
}

type viewMode int

const (
	matrixMode viewMode = iota
	browserMode
)

const (
	columns           = 12
	refreshRate       = 30
	maxMessageHistory = 8
)

// tickMsg refreshes the lights
type tickMsg time.Time

// MIDIEventMsg reports routed MIDI input for the activity log.
type MIDIEventMsg midiin.Event

// Options configures the surface.
type Options struct {
	StatePath string
	Port      string
	Logger    *slog.Logger
}

// Model is the bubbletea model of the control surface.
type Model struct {
	ctrl    Controller
	opts    Options
	mode    viewMode
	browser fileBrowserModel
	help    help.Model
	width   int
	height  int

	cursor  int
	message string
	isError bool

	lights [quantizer.MatrixSize]float32
	spring harmonica.Spring
	glow   [quantizer.MatrixSize]float64
	glowV  [quantizer.MatrixSize]float64

	messageHistory []string
	messageCount   int
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	dirStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAFF")).
			Bold(true)

	sclStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))

	logStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	logHighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
)

// New returns the surface for ctrl.
func New(ctrl Controller, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return Model{
		ctrl:    ctrl,
		opts:    opts,
		browser: newFileBrowser(ctrl.ScalaDir()),
		help:    help.New(),
		spring:  harmonica.NewSpring(harmonica.FPS(refreshRate), 6.0, 0.5),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.refreshLights()
		return m, tick()

	case MIDIEventMsg:
		m.logEvent(midiin.Event(msg))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case browserMode:
			return m.updateFileBrowser(msg)
		default:
			return m.updateMatrix(msg)
		}
	}

	return m, nil
}

// refreshLights samples the controller's lights and eases the selected glow
// toward them.
func (m *Model) refreshLights() {
	for i := range m.lights {
		enabled, selected := m.ctrl.Lights(i)
		m.lights[i] = enabled
		m.glow[i], m.glowV[i] = m.spring.Update(m.glow[i], m.glowV[i], float64(selected))
	}
}

func (m *Model) setStatus(msg string, isError bool) {
	m.message = msg
	m.isError = isError
}

func (m *Model) loadScale(path string) {
	if err := m.ctrl.LoadScaleFile(path); err != nil {
		issue := fmsg.GetIssue(err)
		if issue == "" {
			issue = err.Error()
		}
		m.setStatus(issue, true)
		return
	}
	m.browser.enter(m.ctrl.ScalaDir())
	m.setStatus(fmt.Sprintf("Loaded %s", m.ctrl.Name()), false)
}

func (m *Model) save() {
	if m.opts.StatePath == "" {
		m.setStatus("No state file configured", true)
		return
	}
	if err := state.Save(m.opts.StatePath, m.ctrl.Document()); err != nil {
		m.opts.Logger.Error("save state", "path", m.opts.StatePath, "err", err)
		m.setStatus(fmt.Sprintf("Error saving: %v", err), true)
		return
	}
	m.setStatus("Saved "+m.opts.StatePath, false)
}

func (m *Model) cycleMode(p quantizer.Path) {
	next := m.ctrl.MappingMode(p).Next()
	m.ctrl.SetMappingMode(p, next)
	label := "Pitch"
	if p == quantizer.CVPath {
		label = "CV"
	}
	m.setStatus(fmt.Sprintf("%s mapping: %s", label, next.Label()), false)
}

func (m *Model) logEvent(e midiin.Event) {
	var message string
	switch {
	case e.Reset:
		message = fmt.Sprintf("All notes off: Ch%d", e.Channel+1)
	case e.On:
		message = fmt.Sprintf("Note On:  Ch%d %-4s", e.Channel+1, midiNoteName(e.Key))
	default:
		message = fmt.Sprintf("Note Off: Ch%d %-4s", e.Channel+1, midiNoteName(e.Key))
	}
	if e.CV && !e.Reset {
		message += " (cv)"
	}

	m.messageCount++
	m.messageHistory = append([]string{message}, m.messageHistory...)
	if len(m.messageHistory) > maxMessageHistory {
		m.messageHistory = m.messageHistory[:maxMessageHistory]
	}
}

func (m Model) View() string {
	switch m.mode {
	case browserMode:
		return m.viewFileBrowser()
	default:
		return m.viewMatrix()
	}
}

func midiNoteName(note uint8) string {
	notes := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	octave := int(note/12) - 1
	return fmt.Sprintf("%s%d", notes[note%12], octave)
}

// stepsShown is the number of matrix cells that map to scale degrees.
func stepsShown(snap *quantizer.Snapshot) int {
	if snap == nil {
		return 0
	}
	return min(len(snap.Scale), quantizer.MatrixSize)
}
