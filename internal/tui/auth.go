package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hynix-cli/internal/app"
)

type authStep int

const (
	authChoice authStep = iota
	authForm
)

var authChoices = []string{"Sign in", "Create account", "Continue as guest"}

// AuthModel is the sign-in screen shown before the chat UI.
type AuthModel struct {
	app   *app.Application
	theme Theme

	step     authStep
	selected int
	register bool

	name     textinput.Model
	email    textinput.Model
	password textinput.Model
	field    int

	statusMsg string
	done      bool
	quit      bool

	width  int
	height int
}

func NewAuthModel(application *app.Application) *AuthModel {
	name := textinput.New()
	name.Placeholder = "Ada Lovelace"
	name.CharLimit = 120

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 254

	return &AuthModel{
		app:      application,
		theme:    NewTheme(),
		name:     name,
		email:    email,
		password: password,
	}
}

// Done reports whether a principal was signed in.
func (a *AuthModel) Done() bool { return a.done }

// Quit reports whether the user backed out entirely.
func (a *AuthModel) Quit() bool { return a.quit }

func (a *AuthModel) Init() tea.Cmd {
	return textinput.Blink
}

func (a *AuthModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.quit = true
			return a, tea.Quit

		case "esc":
			if a.step == authForm {
				a.step = authChoice
				a.statusMsg = ""
				return a, nil
			}
			a.quit = true
			return a, tea.Quit

		case "up", "shift+tab":
			if a.step == authChoice {
				if a.selected > 0 {
					a.selected--
				}
			} else {
				a.focusField(a.field - 1)
			}
			return a, nil

		case "down", "tab":
			if a.step == authChoice {
				if a.selected < len(authChoices)-1 {
					a.selected++
				}
			} else {
				a.focusField(a.field + 1)
			}
			return a, nil

		case "enter":
			return a, a.onEnter()
		}
	}

	var cmd tea.Cmd
	if a.step == authForm {
		switch a.field {
		case 0:
			a.name, cmd = a.name.Update(msg)
		case 1:
			a.email, cmd = a.email.Update(msg)
		case 2:
			a.password, cmd = a.password.Update(msg)
		}
	}
	return a, cmd
}

func (a *AuthModel) onEnter() tea.Cmd {
	if a.step == authChoice {
		switch a.selected {
		case 2:
			a.app.SignInGuest()
			a.done = true
			return tea.Quit
		default:
			a.register = a.selected == 1
			a.step = authForm
			a.statusMsg = ""
			first := 1
			if a.register {
				first = 0
			}
			a.focusField(first)
			return textinput.Blink
		}
	}

	// Enter on a middle field advances; on the last field it submits.
	if a.field < 2 {
		a.focusField(a.field + 1)
		return nil
	}

	var err error
	if a.register {
		_, err = a.app.Register(a.name.Value(), a.email.Value(), a.password.Value())
	} else {
		_, err = a.app.Login(a.email.Value(), a.password.Value())
	}
	if err != nil {
		a.statusMsg = err.Error()
		return nil
	}
	a.done = true
	return tea.Quit
}

// focusField moves focus, skipping the name field on plain sign-in.
func (a *AuthModel) focusField(i int) {
	low := 1
	if a.register {
		low = 0
	}
	if i < low {
		i = low
	}
	if i > 2 {
		i = 2
	}
	a.field = i

	a.name.Blur()
	a.email.Blur()
	a.password.Blur()
	switch i {
	case 0:
		a.name.Focus()
	case 1:
		a.email.Focus()
	case 2:
		a.password.Focus()
	}
}

func (a *AuthModel) View() string {
	if a.done || a.quit {
		return ""
	}

	t := a.theme
	title := lipgloss.NewStyle().Bold(true).Foreground(t.Accent).Render("Hynix Eds")
	sub := t.TopBarMeta.Render("Sign in to continue")

	var body strings.Builder
	body.WriteString(title + "\n" + sub + "\n\n")

	if a.step == authChoice {
		for i, c := range authChoices {
			marker := "○"
			style := t.SidebarItem
			if i == a.selected {
				marker = "●"
				style = t.SidebarSel
			}
			body.WriteString(style.Render("  "+marker+" "+c) + "\n")
		}
		body.WriteString("\n" + t.Footer.Render("↑/↓ select · enter confirm · esc quit"))
	} else {
		label := lipgloss.NewStyle().Foreground(t.TextMuted)
		if a.register {
			body.WriteString(label.Render("Name") + "\n" + a.name.View() + "\n\n")
		}
		body.WriteString(label.Render("Email") + "\n" + a.email.View() + "\n\n")
		body.WriteString(label.Render("Password") + "\n" + a.password.View() + "\n")
		if a.statusMsg != "" {
			body.WriteString("\n" + t.RoleErr.Render(a.statusMsg) + "\n")
		}
		body.WriteString("\n" + t.Footer.Render("tab next field · enter submit · esc back"))
	}

	card := t.Pane.Width(min(60, max(30, a.width-10))).Render(body.String())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
