package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hynix-cli/internal/app"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
	focusChat
	focusWorkspace
)

type genEventMsg struct{ ev app.GenEvent }
type spinMsg struct{}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var appModes = []app.AppMode{app.ModeHynix, app.ModeNano, app.ModeCreatore}

type MainModel struct {
	app    *app.Application
	events <-chan app.GenEvent

	theme    Theme
	help     helpModel
	showHelp bool

	width  int
	height int
	ready  bool

	focus focusArea
	mode  app.AppMode

	input    textarea.Model
	chatVP   viewport.Model
	markdown *MarkdownRenderer

	sidebarRows []sidebarRow
	sidebarSel  int
	searching   bool
	search      string

	showWorkspace bool
	wsView        workspaceView
	wsNodes       []app.TreeNode
	wsSel         int
	wsOpenPath    string
	wsScroll      int
	wsRenaming    bool
	wsRename      string

	attachments    []pendingAttachment
	nextImageIndex int

	// id of the user message being edited, empty otherwise
	editingID string

	templateIdx int

	generating bool
	thinking   bool
	spinnerPos int
	status     string
}

func NewMainModel(application *app.Application, events <-chan app.GenEvent) *MainModel {
	ta := textarea.New()
	ta.Placeholder = "Message Hynix… (Enter to send)"
	ta.Focus()
	ta.CharLimit = 16000
	ta.SetHeight(1)
	ta.Prompt = " "
	ta.ShowLineNumbers = false

	// Keep textarea styling minimal; the input container is styled.
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.BlurredStyle.Base = lipgloss.NewStyle()

	mode := app.AppMode(application.Config.Mode)
	theme := NewTheme()

	m := &MainModel{
		app:            application,
		events:         events,
		theme:          theme,
		help:           newHelpModel(),
		width:          100,
		height:         30,
		focus:          focusInput,
		mode:           mode,
		input:          ta,
		markdown:       NewMarkdownRenderer(theme),
		nextImageIndex: 1,
		status:         "Ready",
	}
	m.refreshSidebar()
	m.refreshWorkspace()
	return m
}

func (m *MainModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.waitEvent())
}

// waitEvent re-arms the bridge from the coordinator's notifications
// into the bubbletea loop.
func (m *MainModel) waitEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return genEventMsg{ev: ev}
	}
}

func (m *MainModel) spinTick() tea.Cmd {
	return tea.Tick(90*time.Millisecond, func(_ time.Time) tea.Msg { return spinMsg{} })
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetWidth(m.width)

		l := m.computeLayout()
		if !m.ready {
			m.chatVP = viewport.New(l.ChatW-4, l.MainH-3)
			m.chatVP.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.chatVP.Width = l.ChatW - 4
			m.chatVP.Height = l.MainH - 3
		}
		m.input.SetWidth(max(10, l.ChatW-6))
		m.refreshChat()
		return m, nil

	case genEventMsg:
		return m, m.onGenEvent(msg.ev)

	case spinMsg:
		m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
		if m.generating {
			return m, m.spinTick()
		}
		return m, nil

	case tea.KeyMsg:
		return m.onKey(msg)
	}

	return m.updateChildren(msg)
}

func (m *MainModel) updateChildren(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.focus == focusInput {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.chatVP, cmd = m.chatVP.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *MainModel) onGenEvent(ev app.GenEvent) tea.Cmd {
	cmds := []tea.Cmd{m.waitEvent()}

	switch ev.Kind {
	case app.GenStarted:
		m.generating = true
		m.thinking = ev.Thinking
		m.status = "Thinking…"
		cmds = append(cmds, m.spinTick())
	case app.GenChunk:
		m.thinking = false
		m.status = "Generating…"
	case app.GenFinished:
		m.generating = false
		m.thinking = false
		m.status = "Ready"
		if m.app.SyncWorkspace() {
			m.refreshWorkspace()
		}
	case app.GenTitled:
		m.refreshSidebar()
	}

	if ev.SessionID == m.app.Store.CurrentID() {
		m.refreshChat()
		m.chatVP.GotoBottom()
	}
	return tea.Batch(cmds...)
}

func (m *MainModel) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Pasted image paths become attachment chips instead of text.
	if msg.Paste && m.focus == focusInput && m.tryConsumePasteAsAttachment(string(msg.Runes)) {
		return m, nil
	}

	// Modal text entry swallows everything except its own controls.
	if m.searching {
		return m, m.onSearchKey(msg)
	}
	if m.wsRenaming {
		return m, m.onRenameKey(msg)
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	keys := m.help.keys
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Stop):
		if m.generating {
			m.app.Coordinator.Stop()
			m.status = "Stopped"
			return m, nil
		}
		if m.editingID != "" {
			m.editingID = ""
			m.input.Reset()
			m.status = "Edit cancelled"
			return m, nil
		}
		if m.focus == focusWorkspace && m.wsView != workspaceTree {
			m.wsView = workspaceTree
			m.wsScroll = 0
			return m, nil
		}
		return m, nil

	case key.Matches(msg, keys.FocusNext):
		m.cycleFocus()
		return m, nil

	case key.Matches(msg, keys.NewChat):
		m.app.NewSession()
		m.app.Workspace.Reset()
		m.refreshAll()
		return m, nil

	case key.Matches(msg, keys.NextMode):
		return m, m.cycleMode()

	case key.Matches(msg, keys.NextModel):
		return m, m.cycleModel()

	case key.Matches(msg, keys.Persona):
		return m, m.cyclePersona()

	case key.Matches(msg, keys.Template):
		m.cycleTemplate()
		return m, nil

	case key.Matches(msg, keys.Workspace):
		m.showWorkspace = !m.showWorkspace
		if !m.showWorkspace && m.focus == focusWorkspace {
			m.focus = focusInput
			m.input.Focus()
		}
		return m, nil

	case key.Matches(msg, keys.Preview):
		if m.wsView == workspacePreview {
			m.wsView = workspaceTree
		} else {
			m.wsView = workspacePreview
			m.showWorkspace = true
		}
		m.wsScroll = 0
		return m, nil

	case key.Matches(msg, keys.Regenerate):
		if _, err := m.app.Coordinator.Regenerate(m.app.Store.CurrentID()); err != nil {
			m.status = err.Error()
		}
		return m, nil

	case key.Matches(msg, keys.Edit):
		m.startEdit()
		return m, nil

	case key.Matches(msg, keys.Export):
		m.exportSession()
		return m, nil

	case key.Matches(msg, keys.Delete):
		if m.focus == focusSidebar {
			m.deleteSelectedSession()
			return m, nil
		}

	case key.Matches(msg, keys.Enter):
		switch m.focus {
		case focusSidebar:
			m.selectSidebarSession()
			return m, nil
		case focusWorkspace:
			m.workspaceOpen()
			return m, nil
		default:
			return m, m.onSend()
		}
	}

	// Plain-letter bindings only apply outside the input box.
	if m.focus != focusInput {
		switch {
		case key.Matches(msg, keys.Help):
			m.showHelp = true
			return m, nil
		case key.Matches(msg, keys.Search) && m.focus == focusSidebar:
			m.searching = true
			return m, nil
		case key.Matches(msg, keys.Pin) && m.focus == focusSidebar:
			m.togglePinSelected()
			return m, nil
		case msg.String() == "d" && m.focus == focusWorkspace && m.wsView == workspaceTree:
			m.workspaceDelete()
			return m, nil
		case msg.String() == "r" && m.focus == focusWorkspace && m.wsView == workspaceTree:
			m.startRename()
			return m, nil
		}
	}

	switch msg.Type {
	case tea.KeyUp:
		m.onArrow(-1)
		return m, nil
	case tea.KeyDown:
		m.onArrow(1)
		return m, nil
	case tea.KeyPgUp:
		if m.focus == focusWorkspace && m.wsView != workspaceTree {
			m.wsScroll = max(0, m.wsScroll-10)
		} else {
			m.chatVP.ViewUp()
		}
		return m, nil
	case tea.KeyPgDown:
		if m.focus == focusWorkspace && m.wsView != workspaceTree {
			m.wsScroll += 10
		} else {
			m.chatVP.ViewDown()
		}
		return m, nil
	}

	return m.updateChildren(msg)
}

func (m *MainModel) onArrow(delta int) {
	switch m.focus {
	case focusSidebar:
		m.sidebarSel = nextSessionRow(m.sidebarRows, m.sidebarSel, delta)
	case focusWorkspace:
		if m.wsView == workspaceTree {
			m.wsSel = clamp(m.wsSel+delta, 0, max(0, len(m.wsNodes)-1))
		} else {
			m.wsScroll = max(0, m.wsScroll+delta)
		}
	default:
		if delta < 0 {
			m.chatVP.LineUp(1)
		} else {
			m.chatVP.LineDown(1)
		}
	}
}

func (m *MainModel) onSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.search = ""
		m.refreshSidebar()
	case tea.KeyEnter:
		m.searching = false
	case tea.KeyBackspace:
		if m.search != "" {
			r := []rune(m.search)
			m.search = string(r[:len(r)-1])
			m.refreshSidebar()
		}
	case tea.KeyRunes:
		m.search += string(msg.Runes)
		m.refreshSidebar()
	}
	return nil
}

func (m *MainModel) onRenameKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.wsRenaming = false
		m.wsRename = ""
	case tea.KeyEnter:
		m.workspaceCommitRename()
	case tea.KeyBackspace:
		if m.wsRename != "" {
			r := []rune(m.wsRename)
			m.wsRename = string(r[:len(r)-1])
		}
	case tea.KeyRunes:
		m.wsRename += string(msg.Runes)
	}
	return nil
}

func (m *MainModel) cycleFocus() {
	order := []focusArea{focusInput, focusSidebar, focusChat}
	if m.showWorkspace {
		order = append(order, focusWorkspace)
	}
	cur := 0
	for i, f := range order {
		if f == m.focus {
			cur = i
			break
		}
	}
	m.focus = order[(cur+1)%len(order)]
	if m.focus == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *MainModel) onSend() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" && !m.hasAttachments() {
		return nil
	}

	id := m.app.Store.CurrentID()
	var err error
	if m.editingID != "" {
		_, err = m.app.Coordinator.EditAndResend(id, m.editingID, text)
		m.editingID = ""
		m.clearAttachments()
	} else {
		_, err = m.app.Coordinator.Send(id, text, m.takeAttachments())
	}
	if err != nil {
		m.status = err.Error()
		return nil
	}

	m.input.Reset()
	m.refreshChat()
	m.chatVP.GotoBottom()
	return nil
}

func (m *MainModel) startEdit() {
	sess, ok := m.app.Store.CurrentSession()
	if !ok {
		return
	}
	for i := len(sess.Messages) - 1; i >= 0; i-- {
		if sess.Messages[i].Role == app.RoleUser {
			m.editingID = sess.Messages[i].ID
			m.input.SetValue(sess.Messages[i].Text)
			m.input.Focus()
			m.focus = focusInput
			m.status = "Editing message (esc to cancel)"
			return
		}
	}
	m.status = "Nothing to edit"
}

func (m *MainModel) exportSession() {
	sess, ok := m.app.Store.CurrentSession()
	if !ok {
		return
	}
	data, err := app.ExportSession(sess, app.ExportText)
	if err != nil {
		m.status = err.Error()
		return
	}
	name := fmt.Sprintf("hynix-chat-%s.txt", shortID(sess.ID))
	path := filepath.Join(".", name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		m.status = err.Error()
		return
	}
	m.status = "Exported to " + name
}

func (m *MainModel) cycleMode() tea.Cmd {
	cur := 0
	for i, mode := range appModes {
		if mode == m.mode {
			cur = i
			break
		}
	}
	m.mode = appModes[(cur+1)%len(appModes)]
	id := m.app.Store.CurrentID()
	m.app.Store.SetModel(id, app.DefaultModelForMode(m.mode))
	m.status = "Mode: " + string(m.mode)
	m.refreshChat()
	return nil
}

func (m *MainModel) cycleModel() tea.Cmd {
	sess, ok := m.app.Store.CurrentSession()
	if !ok {
		return nil
	}
	models := app.ModelsForMode(m.mode)
	if len(models) == 0 {
		return nil
	}
	cur := 0
	for i, info := range models {
		if info.ID == sess.ModelID {
			cur = i
			break
		}
	}
	next := models[(cur+1)%len(models)]
	m.app.Store.SetModel(sess.ID, next.ID)
	m.status = "Model: " + next.ID
	m.refreshChat()
	return nil
}

func (m *MainModel) cyclePersona() tea.Cmd {
	personas := app.DefaultPersonas
	settings := m.app.Store.Settings()
	cur := 0
	for i, p := range personas {
		if p.ID == settings.PersonaID {
			cur = i
			break
		}
	}
	next := personas[(cur+1)%len(personas)]
	m.app.ApplyPersona(next.ID)
	m.status = "Persona: " + next.Name
	return nil
}

func (m *MainModel) cycleTemplate() {
	prompts := app.DefaultPrompts
	if len(prompts) == 0 {
		return
	}
	p := prompts[m.templateIdx%len(prompts)]
	m.templateIdx++
	m.input.SetValue(p.Content)
	m.input.Focus()
	m.focus = focusInput
	m.status = "Template: " + p.Title + " (" + p.Category + ")"
}

func (m *MainModel) selectSidebarSession() {
	if m.sidebarSel < 0 || m.sidebarSel >= len(m.sidebarRows) {
		return
	}
	r := m.sidebarRows[m.sidebarSel]
	if r.SessionID == "" {
		return
	}
	m.app.Store.SelectSession(r.SessionID)
	m.app.Workspace.Reset()
	m.app.SyncWorkspace()
	m.refreshAll()
	m.chatVP.GotoBottom()
}

func (m *MainModel) deleteSelectedSession() {
	if m.sidebarSel < 0 || m.sidebarSel >= len(m.sidebarRows) {
		return
	}
	r := m.sidebarRows[m.sidebarSel]
	if r.SessionID == "" {
		return
	}
	m.app.Store.DeleteSession(r.SessionID)
	if m.app.Store.CurrentID() == "" {
		m.app.NewSession()
	}
	m.refreshAll()
}

func (m *MainModel) togglePinSelected() {
	if m.sidebarSel < 0 || m.sidebarSel >= len(m.sidebarRows) {
		return
	}
	r := m.sidebarRows[m.sidebarSel]
	if r.SessionID == "" {
		return
	}
	m.app.Store.TogglePin(r.SessionID)
	m.refreshSidebar()
}

func (m *MainModel) startRename() {
	if m.wsSel < 0 || m.wsSel >= len(m.wsNodes) {
		return
	}
	m.wsRenaming = true
	m.wsRename = m.wsNodes[m.wsSel].Name
}

func (m *MainModel) refreshAll() {
	m.refreshSidebar()
	m.refreshChat()
	m.refreshWorkspace()
}

func (m *MainModel) refreshSidebar() {
	m.sidebarRows = buildSidebarRows(m.app.Store.Search(m.search))
	m.sidebarSel = sessionRowIndex(m.sidebarRows, m.app.Store.CurrentID())
}

func (m *MainModel) refreshChat() {
	if !m.ready {
		return
	}
	sess, ok := m.app.Store.CurrentSession()
	if !ok {
		m.chatVP.SetContent("")
		return
	}

	width := m.chatVP.Width
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	for i, msg := range sess.Messages {
		b.WriteString(m.renderMessage(sess, msg, width))
		if i != len(sess.Messages)-1 {
			b.WriteString("\n\n")
		}
	}
	if m.generating && m.thinking {
		b.WriteString("\n\n")
		b.WriteString(m.theme.Spinner.Render(spinnerFrames[m.spinnerPos] + " Thinking…"))
	}
	m.chatVP.SetContent(b.String())
}

func (m *MainModel) renderMessage(sess app.ChatSession, msg app.Message, width int) string {
	var roleStyle lipgloss.Style
	var label string
	switch msg.Role {
	case app.RoleUser:
		roleStyle = m.theme.RoleYou
		label = "YOU"
	case app.RoleModel:
		roleStyle = m.theme.RoleAI
		label = strings.ToUpper(sess.ModelID)
	default:
		roleStyle = m.theme.RoleSys
		label = "SYS"
	}

	header := roleStyle.Render(label) + " " + m.theme.TopBarMeta.Render(msg.Timestamp.Format("15:04"))

	var body string
	if msg.Role == app.RoleModel {
		body = m.markdown.Render(msg.Text, width)
	} else {
		body = lipgloss.NewStyle().Foreground(m.theme.TextPrimary).Width(width).Render(msg.Text)
	}

	for _, att := range msg.Attachments {
		body += "\n" + m.theme.Chip.Render(att.Name+" · "+att.MimeType)
	}

	if msg.Grounding != nil && len(msg.Grounding.Chunks) > 0 {
		var srcs []string
		for _, c := range msg.Grounding.Chunks {
			title := c.Title
			if title == "" {
				title = c.URI
			}
			srcs = append(srcs, title)
		}
		body += "\n" + m.theme.TopBarMeta.Render("Sources: "+strings.Join(srcs, " · "))
	}

	return header + "\n" + body
}

type layoutInfo struct {
	MainH    int
	SidebarW int
	ChatW    int
	WsW      int
	InputH   int
}

func (m *MainModel) computeLayout() layoutInfo {
	top := 1
	foot := 1
	inputH := 3
	mainH := m.height - top - foot - inputH
	if mainH < 3 {
		mainH = 3
	}

	sidebarW := 28
	if m.width < 90 {
		sidebarW = 22
	}

	wsW := 0
	if m.showWorkspace {
		wsW = int(float64(m.width) * 0.34)
		if wsW < 32 {
			wsW = 32
		}
	}

	chatW := m.width - sidebarW - wsW - 2
	if chatW < 40 {
		chatW = 40
	}

	return layoutInfo{
		MainH:    mainH,
		SidebarW: sidebarW,
		ChatW:    chatW,
		WsW:      wsW,
		InputH:   inputH,
	}
}

func (m *MainModel) View() string {
	if !m.ready {
		return "…"
	}
	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.theme.Pane.Render(m.help.View(m.theme)))
	}

	l := m.computeLayout()
	top := m.renderTopBar()

	sidebar := m.renderSidebar(l.SidebarW, l.MainH)
	chat := m.renderChatPane(l)
	panes := []string{sidebar, chat}
	if m.showWorkspace && l.WsW > 0 {
		panes = append(panes, m.renderWorkspace(l.WsW, l.MainH))
	}
	main := lipgloss.JoinHorizontal(lipgloss.Top, panes...)

	input := m.renderInputArea(l)
	footer := m.renderFooter()
	return lipgloss.JoinVertical(lipgloss.Left, top, main, input, footer)
}

func (m *MainModel) renderChatPane(l layoutInfo) string {
	sess, _ := m.app.Store.CurrentSession()
	titleText := truncateRunes(oneLine(sess.Title), max(10, l.ChatW-8))
	title := m.theme.PaneTitle.Render(titleText)
	box := m.theme.Pane
	if m.focus == focusChat {
		box = m.theme.PaneFocused
		title = m.theme.PaneTitleF.Render(titleText)
	}
	return box.Width(l.ChatW).Height(l.MainH).Render(title + "\n" + m.chatVP.View())
}

func (m *MainModel) renderInputArea(l layoutInfo) string {
	box := m.theme.InputBox
	if m.focus == focusInput {
		box = m.theme.InputBoxF
	}
	inner := m.input.View()
	if chips := m.renderChips(); chips != "" {
		inner = chips + "\n" + inner
	}
	if m.editingID != "" {
		inner = m.theme.TopBarMeta.Render("editing…") + "\n" + inner
	}
	return box.Width(max(10, m.width-2)).Render(inner)
}

func (m *MainModel) renderTopBar() string {
	sess, _ := m.app.Store.CurrentSession()
	left := m.theme.TopBarTitle.Render("hynix") + " " + m.theme.TopBarBadge.Render(strings.ToUpper(string(m.mode)))

	mid := m.theme.TopBarMeta.Render(sess.ModelID)
	if m.generating {
		mid = m.theme.Spinner.Render(spinnerFrames[m.spinnerPos]+" ") + mid
	}

	right := ""
	if p, ok := m.app.Principal(); ok {
		right = m.theme.TopBarMeta.Render(p.Name)
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(mid) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	a := gap / 2
	b := gap - a
	return m.theme.TopBar.Render(left + strings.Repeat(" ", a) + mid + strings.Repeat(" ", b) + right)
}

func (m *MainModel) renderFooter() string {
	hints := "tab focus  ctrl+n new  ctrl+w workspace  ctrl+r regen  esc stop  ? help  ctrl+c quit"
	if m.width < 100 {
		hints = "tab focus  ctrl+n new  ? help  ctrl+c quit"
	}
	status := m.theme.TopBarMeta.Render(m.status)
	gap := m.width - lipgloss.Width(status) - lipgloss.Width(hints) - 2
	if gap < 1 {
		return m.theme.Footer.Width(m.width).Render(hints)
	}
	return m.theme.Footer.Render(status + strings.Repeat(" ", gap) + hints)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
