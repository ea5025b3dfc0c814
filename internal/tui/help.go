package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

type helpModel struct {
	keys  keyMap
	width int
}

func newHelpModel() helpModel {
	return helpModel{
		keys:  defaultKeyMap(),
		width: 80,
	}
}

func (m *helpModel) SetWidth(width int) {
	m.width = width
}

func (m helpModel) View(t Theme) string {
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Accent2)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary).Render("hynix help"))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("chat"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s  send message\n", keyStyle.Render("enter")))
	b.WriteString(fmt.Sprintf("  %s  stop generation\n", keyStyle.Render("esc")))
	b.WriteString(fmt.Sprintf("  %s  regenerate last reply\n", keyStyle.Render("ctrl+r")))
	b.WriteString(fmt.Sprintf("  %s  edit last message\n", keyStyle.Render("ctrl+e")))

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("sessions"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s  new chat\n", keyStyle.Render("ctrl+n")))
	b.WriteString(fmt.Sprintf("  %s  delete chat (sidebar)\n", keyStyle.Render("ctrl+d")))
	b.WriteString(fmt.Sprintf("  %s  pin/unpin chat (sidebar)\n", keyStyle.Render("p")))
	b.WriteString(fmt.Sprintf("  %s  search chats (sidebar)\n", keyStyle.Render("/")))

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("models"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s  switch app mode\n", keyStyle.Render("shift+tab")))
	b.WriteString(fmt.Sprintf("  %s  cycle model\n", keyStyle.Render("ctrl+o")))
	b.WriteString(fmt.Sprintf("  %s  cycle persona\n", keyStyle.Render("ctrl+g")))
	b.WriteString(fmt.Sprintf("  %s  cycle prompt template\n", keyStyle.Render("ctrl+t")))

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("workspace"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s  toggle workspace pane\n", keyStyle.Render("ctrl+w")))
	b.WriteString(fmt.Sprintf("  %s  toggle html preview\n", keyStyle.Render("ctrl+p")))
	b.WriteString(descStyle.Render("  enter opens a file, d deletes, r renames"))
	b.WriteString("\n")

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s  export chat   %s  help   %s  quit\n",
		keyStyle.Render("ctrl+x"), keyStyle.Render("?"), keyStyle.Render("ctrl+c")))

	return b.String()
}

type keyMap struct {
	Quit       key.Binding
	Enter      key.Binding
	Stop       key.Binding
	Regenerate key.Binding
	Edit       key.Binding
	NewChat    key.Binding
	Delete     key.Binding
	Pin        key.Binding
	Search     key.Binding
	NextMode   key.Binding
	NextModel  key.Binding
	Persona    key.Binding
	Workspace  key.Binding
	Preview    key.Binding
	Export     key.Binding
	Template   key.Binding
	FocusNext  key.Binding
	Help       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send message"),
		),
		Stop: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "stop generation"),
		),
		Regenerate: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "regenerate"),
		),
		Edit: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "edit last message"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new chat"),
		),
		Delete: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "delete chat"),
		),
		Pin: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pin chat"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search chats"),
		),
		NextMode: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "switch mode"),
		),
		NextModel: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "cycle model"),
		),
		Persona: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "cycle persona"),
		),
		Workspace: key.NewBinding(
			key.WithKeys("ctrl+w"),
			key.WithHelp("ctrl+w", "toggle workspace"),
		),
		Preview: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "toggle preview"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "export chat"),
		),
		Template: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "cycle prompt template"),
		),
		FocusNext: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch focus"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
