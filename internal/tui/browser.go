package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/icco/xenqnt/internal/scala"
)

// fileBrowserModel lists directories and Scala files
type fileBrowserModel struct {
	currentDir  string
	files       []fileInfo
	cursor      int
	viewportTop int
	message     string
	typing      bool
	path        textinput.Model
}

type fileInfo struct {
	name  string
	path  string
	isDir bool
}

func newFileBrowser(dir string) fileBrowserModel {
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = home
		} else {
			dir = "."
		}
	}
	ti := textinput.New()
	ti.Placeholder = "/path/to/scale.scl"
	ti.Prompt = "path: "
	ti.CharLimit = 512

	fb := fileBrowserModel{currentDir: dir, path: ti}
	fb.loadFiles()
	return fb
}

func (fb *fileBrowserModel) loadFiles() {
	fb.files = []fileInfo{}

	if parent := filepath.Dir(fb.currentDir); parent != fb.currentDir {
		fb.files = append(fb.files, fileInfo{
			name:  "..",
			path:  parent,
			isDir: true,
		})
	}

	entries, err := os.ReadDir(fb.currentDir)
	if err != nil {
		fb.message = fmt.Sprintf("Error reading directory: %v", err)
		return
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if entry.IsDir() || strings.EqualFold(filepath.Ext(entry.Name()), scala.Extension) {
			fb.files = append(fb.files, fileInfo{
				name:  entry.Name(),
				path:  filepath.Join(fb.currentDir, entry.Name()),
				isDir: entry.IsDir(),
			})
		}
	}

	if fb.cursor >= len(fb.files) {
		fb.cursor = max(len(fb.files)-1, 0)
	}
	if fb.viewportTop > fb.cursor {
		fb.viewportTop = fb.cursor
	}
}

func (fb *fileBrowserModel) enter(dir string) {
	fb.currentDir = dir
	fb.cursor = 0
	fb.viewportTop = 0
	fb.message = ""
	fb.loadFiles()
}

// visibleLines is the number of entries that fit below the header and above
// the footer.
func visibleLines(height int) int {
	return max(height-9, 5)
}

func (fb *fileBrowserModel) scroll(height int) {
	lines := visibleLines(height)
	if fb.cursor < fb.viewportTop {
		fb.viewportTop = fb.cursor
	}
	if fb.cursor >= fb.viewportTop+lines {
		fb.viewportTop = fb.cursor - lines + 1
	}
}

func (m Model) updateFileBrowser(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fb := &m.browser

	if fb.typing {
		switch msg.Type {
		case tea.KeyEsc:
			fb.typing = false
			fb.path.Blur()
			return m, nil
		case tea.KeyEnter:
			fb.typing = false
			fb.path.Blur()
			return m.openPath(strings.TrimSpace(fb.path.Value()))
		}
		var cmd tea.Cmd
		fb.path, cmd = fb.path.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, browserKeys.Back):
		m.mode = matrixMode
	case key.Matches(msg, browserKeys.Up):
		if fb.cursor > 0 {
			fb.cursor--
		}
	case key.Matches(msg, browserKeys.Down):
		if fb.cursor < len(fb.files)-1 {
			fb.cursor++
		}
	case key.Matches(msg, browserKeys.Parent):
		fb.enter(filepath.Dir(fb.currentDir))
	case key.Matches(msg, browserKeys.Path):
		fb.typing = true
		fb.path.SetValue(fb.currentDir + string(filepath.Separator))
		fb.path.CursorEnd()
		return m, fb.path.Focus()
	case key.Matches(msg, browserKeys.Open):
		if len(fb.files) == 0 {
			return m, nil
		}
		return m.openPath(fb.files[fb.cursor].path)
	}
	fb.scroll(m.height)
	return m, nil
}

// openPath descends into directories and loads anything else as a scale.
func (m Model) openPath(path string) (tea.Model, tea.Cmd) {
	if path == "" {
		return m, nil
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		m.browser.enter(path)
		return m, nil
	}
	m.loadScale(path)
	m.mode = matrixMode
	return m, nil
}

func (m Model) viewFileBrowser() string {
	fb := m.browser

	var b strings.Builder
	b.WriteString(titleStyle.Render("Load Scala scale") + "\n\n")
	b.WriteString(fmt.Sprintf("Current Directory: %s\n\n", fb.currentDir))

	if len(fb.files) == 0 {
		b.WriteString("No .scl files or directories found.\n")
	} else {
		end := min(fb.viewportTop+visibleLines(m.height), len(fb.files))
		for i := fb.viewportTop; i < end; i++ {
			file := fb.files[i]
			cursor := " "
			if i == fb.cursor {
				cursor = ">"
			}

			name := file.name
			if file.isDir {
				name = dirStyle.Render(name + "/")
			} else {
				name = sclStyle.Render(name)
			}

			line := fmt.Sprintf("%s %s", cursor, name)
			if i == fb.cursor {
				line = selectedStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
		if len(fb.files) > end {
			b.WriteString(helpStyle.Render(fmt.Sprintf("  … %d more", len(fb.files)-end)) + "\n")
		}
	}

	b.WriteString("\n")
	if fb.typing {
		b.WriteString(fb.path.View() + "\n")
	}
	if fb.message != "" {
		b.WriteString(errorStyle.Render(fb.message) + "\n")
	}

	b.WriteString("\n" + m.help.View(browserKeys))
	return b.String()
}
