package tui

import (
	"fmt"
	"strings"
)

// workspaceView is what the workspace pane is currently showing.
type workspaceView int

const (
	workspaceTree workspaceView = iota
	workspaceFile
	workspacePreview
)

func (m *MainModel) renderWorkspace(width, height int) string {
	focused := m.focus == focusWorkspace
	box := m.theme.Pane
	if focused {
		box = m.theme.PaneFocused
	}

	titleText := fmt.Sprintf("Workspace (%d)", m.app.Workspace.Len())
	switch m.wsView {
	case workspaceFile:
		titleText = truncateRunes(m.wsOpenPath, max(10, width-6))
	case workspacePreview:
		titleText = "Preview"
	}
	title := m.theme.PaneTitle.Render(titleText)
	if focused {
		title = m.theme.PaneTitleF.Render(titleText)
	}

	var body string
	switch m.wsView {
	case workspaceFile:
		body = m.renderWorkspaceFile(width, height)
	case workspacePreview:
		body = m.renderWorkspacePreview(width, height)
	default:
		body = m.renderWorkspaceTree(width, height)
	}

	return box.Width(width).Height(height).Render(title + "\n" + body)
}

func (m *MainModel) renderWorkspaceTree(width, height int) string {
	nodes := m.wsNodes
	if len(nodes) == 0 {
		return m.theme.TreeFile.Render("No generated files yet.")
	}

	visible := height - 3
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.wsSel >= visible {
		start = m.wsSel - visible + 1
	}
	end := start + visible
	if end > len(nodes) {
		end = len(nodes)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		n := nodes[i]
		indent := strings.Repeat("  ", n.Depth)
		label := n.Name
		style := m.theme.TreeFile
		if n.IsDir {
			label += "/"
			style = m.theme.TreeDir
		}
		line := indent + label
		if m.wsRenaming && i == m.wsSel {
			line = indent + m.wsRename + "▏"
		}
		line = truncateRunes(line, max(8, width-6))
		if i == m.wsSel && m.focus == focusWorkspace {
			b.WriteString(m.theme.TreeSel.Render("> " + line))
		} else {
			b.WriteString(style.Render("  " + line))
		}
		if i != end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *MainModel) renderWorkspaceFile(width, height int) string {
	file, ok := m.app.Workspace.File(m.wsOpenPath)
	if !ok {
		return m.theme.TreeFile.Render("File no longer exists.")
	}
	code := m.markdown.HighlightCode(file.Content, file.Language)
	return clipLines(code, max(8, width-4), max(1, height-3), m.wsScroll)
}

func (m *MainModel) renderWorkspacePreview(width, height int) string {
	html, ok := m.app.Workspace.Preview()
	if !ok {
		return m.theme.TreeFile.Render("No index.html to preview.")
	}
	// A terminal cannot run the page; show the bundled document source
	// with assets inlined, which is what would be served.
	code := m.markdown.HighlightCode(html, "html")
	return clipLines(code, max(8, width-4), max(1, height-3), m.wsScroll)
}

// clipLines returns a height-sized window of s starting at line offset,
// with long lines truncated to width.
func clipLines(s string, width, height, offset int) string {
	lines := strings.Split(s, "\n")
	if offset < 0 {
		offset = 0
	}
	if offset >= len(lines) {
		offset = max(0, len(lines)-1)
	}
	end := offset + height
	if end > len(lines) {
		end = len(lines)
	}
	out := lines[offset:end]
	for i := range out {
		out[i] = truncateRunes(out[i], width)
	}
	return strings.Join(out, "\n")
}

// workspaceOpen handles Enter on the tree: directories toggle nothing
// (the tree is always fully expanded), files open in the viewer.
func (m *MainModel) workspaceOpen() {
	if m.wsSel < 0 || m.wsSel >= len(m.wsNodes) {
		return
	}
	n := m.wsNodes[m.wsSel]
	if n.IsDir {
		return
	}
	m.wsOpenPath = n.Path
	m.wsView = workspaceFile
	m.wsScroll = 0
}

func (m *MainModel) workspaceDelete() {
	if m.wsSel < 0 || m.wsSel >= len(m.wsNodes) {
		return
	}
	m.app.Workspace.Delete(m.wsNodes[m.wsSel].Path)
	m.refreshWorkspace()
}

func (m *MainModel) workspaceCommitRename() {
	if m.wsSel >= 0 && m.wsSel < len(m.wsNodes) {
		m.app.Workspace.Rename(m.wsNodes[m.wsSel].Path, m.wsRename)
	}
	m.wsRenaming = false
	m.wsRename = ""
	m.refreshWorkspace()
}

func (m *MainModel) refreshWorkspace() {
	m.wsNodes = m.app.Workspace.Tree()
	if m.wsSel >= len(m.wsNodes) {
		m.wsSel = len(m.wsNodes) - 1
	}
	if m.wsSel < 0 {
		m.wsSel = 0
	}
	if m.wsView == workspaceFile {
		if _, ok := m.app.Workspace.File(m.wsOpenPath); !ok {
			m.wsView = workspaceTree
		}
	}
}
