package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pyamend/internal/rules"
)

var (
	locationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	ruleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	fixStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	suggestStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	summaryStyle = lipgloss.NewStyle().
			Bold(true)
)

// RenderText formats diagnostics for the terminal, one finding per line,
// with the fix disposition underneath.
func RenderText(diagnostics []rules.Diagnostic, fixesApplied bool) string {
	var b strings.Builder

	for _, d := range diagnostics {
		location := fmt.Sprintf("%s:%d:%d", d.Path, d.Span.StartLine, d.Span.StartCol)
		fmt.Fprintf(&b, "%s %s %s\n",
			locationStyle.Render(location),
			ruleStyle.Render(d.RuleID),
			d.Message,
		)
		if d.Fix == nil {
			continue
		}
		switch {
		case d.Fix.Applicability == rules.ApplicabilitySafe && fixesApplied:
			fmt.Fprintf(&b, "  %s\n", fixStyle.Render("fixed: "+d.Fix.Title))
		case d.Fix.Applicability == rules.ApplicabilitySafe:
			fmt.Fprintf(&b, "  %s\n", fixStyle.Render("fix available: "+d.Fix.Title))
		default:
			fmt.Fprintf(&b, "  %s\n", suggestStyle.Render("suggestion: "+d.Fix.Title))
		}
	}

	fixable := 0
	for _, d := range diagnostics {
		if d.Fix != nil && d.Fix.Applicability == rules.ApplicabilitySafe {
			fixable++
		}
	}
	fmt.Fprintf(&b, "%s\n", summaryStyle.Render(
		fmt.Sprintf("%d finding(s), %d fixable", len(diagnostics), fixable)))

	return b.String()
}
