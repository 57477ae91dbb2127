package cliapp

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pyamend/internal/rules"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	findingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	fixedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	findingList  list.Model
	diagnostics  []rules.Diagnostic
	filesScanned int
	fixesApplied int
	lastUpdate   time.Time
}

type updateMsg struct {
	diagnostics  []rules.Diagnostic
	filesScanned int
	fixesApplied int
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - 6
		if height < 5 {
			height = 5
		}
		m.findingList.SetSize(width, height)
	case updateMsg:
		m.diagnostics = msg.diagnostics
		m.filesScanned = msg.filesScanned
		m.fixesApplied = msg.fixesApplied
		m.lastUpdate = time.Now()

		items := make([]list.Item, 0, len(m.diagnostics))
		for _, d := range m.diagnostics {
			desc := fmt.Sprintf("%s:%d:%d", d.Path, d.Span.StartLine, d.Span.StartCol)
			if d.Fix != nil {
				desc += fmt.Sprintf(" [fix: %s]", d.Fix.Applicability)
			}
			items = append(items, item{
				title: fmt.Sprintf("%s %s", d.RuleID, d.Message),
				desc:  desc,
			})
		}
		m.findingList.SetItems(items)
	}

	var cmd tea.Cmd
	m.findingList, cmd = m.findingList.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d files",
		m.lastUpdate.Format("15:04:05"), m.filesScanned))

	var summary string
	if len(m.diagnostics) == 0 {
		summary = successStyle.Render("No findings")
	} else {
		summary = findingStyle.Render(fmt.Sprintf("%d findings", len(m.diagnostics)))
	}
	if m.fixesApplied > 0 {
		summary += " | " + fixedStyle.Render(fmt.Sprintf("%d edits applied", m.fixesApplied))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Deprecated Alias Monitor"), status, summary)
	return docStyle.Render(header + "\n" + m.findingList.View())
}

func initialModel() model {
	findingList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	findingList.Title = "Findings"
	findingList.SetShowStatusBar(false)
	findingList.SetFilteringEnabled(true)

	return model{
		findingList: findingList,
		lastUpdate:  time.Now(),
	}
}
