package tui

import (
	"fmt"

	"hynix-cli/internal/app"

	tea "github.com/charmbracelet/bubbletea"
)

// Run drives the terminal UI: the sign-in screen first, then the main
// chat program once an identity is established.
func Run(application *app.Application, events <-chan app.GenEvent) error {
	auth := NewAuthModel(application)
	p := tea.NewProgram(auth, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("auth screen: %w", err)
	}
	am, ok := final.(*AuthModel)
	if !ok || am.Quit() {
		return nil
	}

	main := NewMainModel(application, events)
	p = tea.NewProgram(main, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat screen: %w", err)
	}
	return nil
}
