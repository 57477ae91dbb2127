package rules

import (
	"pyamend/internal/fix"
	"pyamend/internal/parser"
)

type Applicability int

const (
	// ApplicabilitySafe fixes are applied automatically.
	ApplicabilitySafe Applicability = iota
	// ApplicabilitySuggested fixes are reported but withheld unless the
	// caller explicitly opts in to unsafe fixes.
	ApplicabilitySuggested
)

func (a Applicability) String() string {
	if a == ApplicabilitySafe {
		return "safe"
	}
	return "suggested"
}

// Fix is the automatic edit attached to a diagnostic. Edits within one
// fix are disjoint and applied atomically.
type Fix struct {
	Title         string
	Applicability Applicability
	Edits         []fix.Edit
}

type Diagnostic struct {
	RuleID   string
	RuleName string
	Message  string
	Path     string
	Span     parser.Span
	Fix      *Fix
}
