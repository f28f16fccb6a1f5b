package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Toggle    key.Binding
	All       key.Binding
	None      key.Binding
	Random    key.Binding
	PitchMode key.Binding
	CVMode    key.Binding
	Reset     key.Binding
	Open      key.Binding
	Save      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.PitchMode, k.CVMode, k.Open, k.Save, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Toggle, k.All, k.None, k.Random},
		{k.PitchMode, k.CVMode, k.Reset},
		{k.Open, k.Save, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
	Toggle:    key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle step")),
	All:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "enable all")),
	None:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "disable all")),
	Random:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "randomize")),
	PitchMode: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "pitch mode")),
	CVMode:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cv mode")),
	Reset:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset to 12-TET")),
	Open:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "load .scl")),
	Save:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save state")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type browserKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Open   key.Binding
	Parent key.Binding
	Path   key.Binding
	Back   key.Binding
}

func (k browserKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Parent, k.Path, k.Back}
}

func (k browserKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var browserKeys = browserKeyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Parent: key.NewBinding(key.WithKeys("backspace", "-"), key.WithHelp("-", "parent")),
	Path:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "type a path")),
	Back:   key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("q", "back")),
}
