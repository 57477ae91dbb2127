package cliapp

import (
	tea "github.com/charmbracelet/bubbletea"

	"pyamend/internal/app"
)

func runUI(a *app.App, initial app.Result) error {
	m := initialModel()
	p := tea.NewProgram(m, tea.WithAltScreen())

	a.OnUpdate = func(result app.Result) {
		p.Send(updateMsg{
			diagnostics:  result.Diagnostics,
			filesScanned: result.FilesScanned,
			fixesApplied: result.FixesApplied,
		})
	}

	go func() {
		p.Send(updateMsg{
			diagnostics:  initial.Diagnostics,
			filesScanned: initial.FilesScanned,
			fixesApplied: initial.FixesApplied,
		})
	}()

	_, err := p.Run()
	return err
}
