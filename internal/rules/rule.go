package rules

import (
	"fmt"
	"sort"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"pyamend/internal/errors"
	"pyamend/internal/parser"
	"pyamend/internal/resolver"
)

// Context is handed to a rule per matched construct. Scope state is
// read-only from the rule's point of view.
type Context struct {
	File  *parser.SourceFile
	Scope *resolver.Scope

	diagnostics *[]Diagnostic
}

func (c *Context) Report(d Diagnostic) {
	d.Path = c.File.Path
	*c.diagnostics = append(*c.diagnostics, d)
}

// Rule is a rewrite rule dispatched on the construct kinds it declares
// interest in. Handlers must be side-effect free apart from Report calls.
type Rule interface {
	ID() string
	Name() string
	Description() string

	CheckHandler(ctx *Context, clause *sitter.Node)
	CheckRaise(ctx *Context, stmt *sitter.Node)
}

type Registry struct {
	rules map[string]Rule
	order []string
}

func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

func (r *Registry) Register(rule Rule) error {
	if _, exists := r.rules[rule.Name()]; exists {
		return errors.AddContext(
			errors.New(errors.CodeValidationError, fmt.Sprintf("rule %q already registered", rule.Name())),
			errors.CtxRule, rule.Name())
	}
	r.rules[rule.Name()] = rule
	r.order = append(r.order, rule.Name())
	return nil
}

func (r *Registry) All() []Rule {
	out := make([]Rule, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.rules[name])
	}
	return out
}

// Enabled resolves rule names from config into rule instances; an unknown
// name is a configuration error, not a silent no-op.
func (r *Registry) Enabled(names []string) ([]Rule, error) {
	out := make([]Rule, 0, len(names))
	for _, name := range names {
		rule, ok := r.rules[name]
		if !ok {
			return nil, errors.AddContext(
				errors.New(errors.CodeNotFound, fmt.Sprintf("unknown rule %q", name)),
				errors.CtxRule, name)
		}
		out = append(out, rule)
	}
	return out, nil
}

// Engine walks a parsed file once, top to bottom, threading scope state
// and dispatching recognized constructs to the enabled rules.
type Engine struct {
	rules []Rule
}

func NewEngine(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// Check analyzes one file. Diagnostics come back in source order (by span
// start) so downstream reporting is deterministic.
func (e *Engine) Check(file *parser.SourceFile) []Diagnostic {
	diagnostics := make([]Diagnostic, 0)
	scope := resolver.NewScope(nil)
	e.walk(file.Root(), file, scope, &diagnostics)

	sort.SliceStable(diagnostics, func(i, j int) bool {
		if diagnostics[i].Span.Start != diagnostics[j].Span.Start {
			return diagnostics[i].Span.Start < diagnostics[j].Span.Start
		}
		return diagnostics[i].Span.End < diagnostics[j].Span.End
	})
	return diagnostics
}

func (e *Engine) walk(node *sitter.Node, file *parser.SourceFile, scope *resolver.Scope, diagnostics *[]Diagnostic) {
	childScope := resolver.ProcessNode(node, file.Source, scope)

	switch node.Kind() {
	case "except_clause":
		ctx := &Context{File: file, Scope: scope, diagnostics: diagnostics}
		for _, rule := range e.rules {
			rule.CheckHandler(ctx, node)
		}
	case "raise_statement":
		ctx := &Context{File: file, Scope: scope, diagnostics: diagnostics}
		for _, rule := range e.rules {
			rule.CheckRaise(ctx, node)
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		e.walk(node.Child(i), file, childScope, diagnostics)
	}
}
