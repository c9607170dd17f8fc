package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// breakpointExts are the file extensions offered by the browser.
var breakpointExts = []string{".txt", ".bp"}

// fileBrowser picks a breakpoint file.
type fileBrowser struct {
	currentDir  string
	files       []fileInfo
	cursor      int
	viewportTop int
	height      int // terminal height, 0 when unknown
	message     string
}

type fileInfo struct {
	name  string
	path  string
	isDir bool
}

func newFileBrowser(dir string) fileBrowser {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			wd = "."
		}
		dir = wd
	}
	fb := fileBrowser{currentDir: dir}
	fb.loadFiles()
	return fb
}

func isBreakpointFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range breakpointExts {
		if ext == e {
			return true
		}
	}
	return false
}

func (fb *fileBrowser) loadFiles() {
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
		if entry.IsDir() || isBreakpointFile(entry.Name()) {
			fb.files = append(fb.files, fileInfo{
				name:  entry.Name(),
				path:  filepath.Join(fb.currentDir, entry.Name()),
				isDir: entry.IsDir(),
			})
		}
	}

	if fb.cursor >= len(fb.files) && len(fb.files) > 0 {
		fb.cursor = len(fb.files) - 1
	}
	if fb.cursor < 0 {
		fb.cursor = 0
	}
	if fb.viewportTop > fb.cursor {
		fb.viewportTop = fb.cursor
	}
}

// visibleLines is how many entries fit below the header and above the help.
func (fb fileBrowser) visibleLines() int {
	n := fb.height - 9
	if fb.height == 0 {
		n = 20
	}
	if n < 5 {
		n = 5
	}
	return n
}

func (fb *fileBrowser) scroll() {
	visible := fb.visibleLines()
	if fb.cursor < fb.viewportTop {
		fb.viewportTop = fb.cursor
	}
	if fb.cursor >= fb.viewportTop+visible {
		fb.viewportTop = fb.cursor - visible + 1
	}
}

// update handles a key in the browser. It returns the chosen file path, or
// "" while browsing, and whether the browser was dismissed.
func (fb *fileBrowser) update(msg tea.KeyMsg) (chosen string, done bool) {
	switch msg.String() {
	case "up", "k":
		if fb.cursor > 0 {
			fb.cursor--
			fb.scroll()
		}
	case "down", "j":
		if fb.cursor < len(fb.files)-1 {
			fb.cursor++
			fb.scroll()
		}
	case "esc", "q":
		return "", true
	case "enter":
		if len(fb.files) == 0 {
			return "", false
		}
		selected := fb.files[fb.cursor]
		if selected.isDir {
			fb.currentDir = selected.path
			fb.cursor = 0
			fb.viewportTop = 0
			fb.message = ""
			fb.loadFiles()
			return "", false
		}
		return selected.path, true
	}
	return "", false
}

func (fb fileBrowser) view() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Open Breakpoint File") + "\n\n")
	b.WriteString(fmt.Sprintf("Current Directory: %s\n\n", fb.currentDir))

	if len(fb.files) == 0 {
		b.WriteString("No breakpoint files or directories found.\n")
	}
	end := fb.viewportTop + fb.visibleLines()
	if end > len(fb.files) {
		end = len(fb.files)
	}
	if fb.viewportTop > 0 {
		b.WriteString(helpStyle.Render(fmt.Sprintf("  ↑ %d more", fb.viewportTop)) + "\n")
	}
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
			name = fileStyle.Render(name)
		}

		if i == fb.cursor {
			b.WriteString(selectedStyle.Render(fmt.Sprintf("%s %s", cursor, name)) + "\n")
		} else {
			b.WriteString(fmt.Sprintf("%s %s\n", cursor, name))
		}
	}

	if end < len(fb.files) {
		b.WriteString(helpStyle.Render(fmt.Sprintf("  ↓ %d more", len(fb.files)-end)) + "\n")
	}

	b.WriteString("\n")
	if fb.message != "" {
		b.WriteString(errorStyle.Render(fb.message) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("↑/k: up • ↓/j: down • enter: open • esc: cancel"))
	return b.String()
}
