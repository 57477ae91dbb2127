package rules

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"pyamend/internal/fix"
	"pyamend/internal/parser"
	"pyamend/internal/resolver"
)

// DeprecatedAlias flags uses of deprecated exception aliases in handler
// type expressions and raise operands, and rewrites the final identifier
// to the canonical name. Matching happens on the expression tree, never
// on raw text, so comments and line breaks between tokens are invisible
// to it and survive any rewrite byte for byte.
type DeprecatedAlias struct {
	table *Table
}

func NewDeprecatedAlias(table *Table) *DeprecatedAlias {
	return &DeprecatedAlias{table: table}
}

func (r *DeprecatedAlias) ID() string   { return "PYA001" }
func (r *DeprecatedAlias) Name() string { return "deprecated-error-alias" }

func (r *DeprecatedAlias) Description() string {
	return "Use of a deprecated exception alias; replace with the canonical name."
}

// candidate is one matched leaf expression together with everything the
// fix generator needs.
type candidate struct {
	expr  *sitter.Node // the full matched expression (post-unwrap)
	ident *sitter.Node // the final identifier token to rewrite
	path  resolver.Path
	entry *Entry
	safe  Applicability
}

func (r *DeprecatedAlias) CheckHandler(ctx *Context, clause *sitter.Node) {
	expr := handlerType(clause)
	if expr == nil {
		// Bare `except:` never matches.
		return
	}
	expr = unwrapExpr(expr)
	if expr == nil {
		return
	}

	switch expr.Kind() {
	case "identifier", "attribute":
		if cand := r.match(ctx, expr); cand != nil {
			r.reportAtom(ctx, cand)
		}
	case "tuple":
		r.checkTuple(ctx, expr)
	default:
		// Not a shape this rule understands; skip, never abort.
	}
}

func (r *DeprecatedAlias) CheckRaise(ctx *Context, stmt *sitter.Node) {
	operand := raiseOperand(stmt)
	if operand == nil {
		return
	}
	operand = unwrapExpr(operand)
	if operand == nil {
		return
	}

	// `raise Z.Old("msg")` matches through the callee.
	if operand.Kind() == "call" {
		operand = operand.ChildByFieldName("function")
		if operand == nil {
			return
		}
		operand = unwrapExpr(operand)
		if operand == nil {
			return
		}
	}

	switch operand.Kind() {
	case "identifier", "attribute":
		if cand := r.match(ctx, operand); cand != nil {
			r.reportAtom(ctx, cand)
		}
	}
}

// match resolves expr and checks the deprecation table. Only an exact
// path match qualifies; unresolvable names and already-canonical names
// yield nil.
func (r *DeprecatedAlias) match(ctx *Context, expr *sitter.Node) *candidate {
	path, ok := ctx.Scope.Resolve(expr, ctx.File.Source)
	if !ok {
		return nil
	}
	entry := r.table.Lookup(path)
	if entry == nil {
		return nil
	}

	ident := finalIdentifier(expr)
	if ident == nil {
		return nil
	}

	return &candidate{
		expr:  expr,
		ident: ident,
		path:  path,
		entry: entry,
		safe:  r.checkConflict(ctx.Scope, expr, entry),
	}
}

// checkConflict decides whether the straightforward rename is safe in the
// enclosing scope. Attribute references stay anchored to their module
// prefix and cannot collide. A bare reference is rewritten to a bare
// replacement name, which is only safe when that name already denotes the
// canonical symbol; a name bound to anything else (or bound to nothing,
// which would leave the rewrite dangling) downgrades the fix.
func (r *DeprecatedAlias) checkConflict(scope *resolver.Scope, expr *sitter.Node, entry *Entry) Applicability {
	if expr.Kind() == "attribute" {
		return ApplicabilitySafe
	}

	b := scope.Lookup(entry.Suggest)
	if b == nil || b.Kind == resolver.KindLocalDefinition {
		return ApplicabilitySuggested
	}
	if !b.Path.Equal(entry.New) {
		return ApplicabilitySuggested
	}
	return ApplicabilitySafe
}

func (r *DeprecatedAlias) reportAtom(ctx *Context, cand *candidate) {
	edits, err := candidateEdits([]*candidate{cand})
	if err != nil {
		// Overlapping edits within one expression would mean a
		// malformed tree; withhold the fix but keep the finding.
		ctx.Report(Diagnostic{
			RuleID:   r.ID(),
			RuleName: r.Name(),
			Message:  r.message(cand),
			Span:     parser.SpanOf(cand.ident),
		})
		return
	}

	ctx.Report(Diagnostic{
		RuleID:   r.ID(),
		RuleName: r.Name(),
		Message:  r.message(cand),
		Span:     parser.SpanOf(cand.ident),
		Fix: &Fix{
			Title:         r.fixTitle(cand),
			Applicability: cand.safe,
			Edits:         edits,
		},
	})
}

// checkTuple matches every element independently. One diagnostic covers
// the statement when all matched elements can be fixed safely, carrying
// the disjoint edits as a single atomic set. If any element is unsafe the
// automatic edit is withheld for the whole statement and each matched
// element is reported individually as a suggestion.
func (r *DeprecatedAlias) checkTuple(ctx *Context, tuple *sitter.Node) {
	var matched []*candidate
	allSafe := true

	for i := uint(0); i < tuple.ChildCount(); i++ {
		child := tuple.Child(i)
		if !child.IsNamed() || child.Kind() == "comment" {
			continue
		}
		element := unwrapExpr(child)
		if element == nil {
			continue
		}
		switch element.Kind() {
		case "identifier", "attribute":
			if cand := r.match(ctx, element); cand != nil {
				matched = append(matched, cand)
				if cand.safe != ApplicabilitySafe {
					allSafe = false
				}
			}
		}
	}

	if len(matched) == 0 {
		return
	}

	if !allSafe {
		for _, cand := range matched {
			cand.safe = ApplicabilitySuggested
			r.reportAtom(ctx, cand)
		}
		return
	}

	edits, err := candidateEdits(matched)
	if err != nil {
		for _, cand := range matched {
			cand.safe = ApplicabilitySuggested
			r.reportAtom(ctx, cand)
		}
		return
	}

	ctx.Report(Diagnostic{
		RuleID:   r.ID(),
		RuleName: r.Name(),
		Message:  r.tupleMessage(matched),
		Span:     parser.SpanOf(tuple),
		Fix: &Fix{
			Title:         r.fixTitle(matched[0]),
			Applicability: ApplicabilitySafe,
			Edits:         edits,
		},
	})
}

// candidateEdits builds the minimal edit for each candidate: only the
// final identifier token is replaced, so parentheses, comments and line
// breaks stay untouched.
func candidateEdits(cands []*candidate) ([]fix.Edit, error) {
	var set fix.Set
	for _, cand := range cands {
		span := parser.SpanOf(cand.ident)
		replacement := cand.entry.New.Last()
		if cand.expr.Kind() == "identifier" {
			replacement = cand.entry.Suggest
		}
		if err := set.Add(fix.Edit{Start: span.Start, End: span.End, New: replacement}); err != nil {
			return nil, err
		}
	}
	return set.Edits(), nil
}

func (r *DeprecatedAlias) message(cand *candidate) string {
	return fmt.Sprintf("`%s` is deprecated, use `%s`", cand.path, cand.entry.New)
}

func (r *DeprecatedAlias) tupleMessage(cands []*candidate) string {
	if len(cands) == 1 {
		return r.message(cands[0])
	}
	return fmt.Sprintf("%d deprecated exception aliases in handler tuple", len(cands))
}

func (r *DeprecatedAlias) fixTitle(cand *candidate) string {
	return fmt.Sprintf("Replace `%s` with `%s`", cand.path, cand.entry.New)
}

// finalIdentifier returns the identifier token a rewrite would replace:
// the node itself for a bare name, the attribute field for a qualified
// reference. Anything else has no single token to rename.
func finalIdentifier(expr *sitter.Node) *sitter.Node {
	if expr == nil {
		return nil
	}
	switch expr.Kind() {
	case "identifier":
		return expr
	case "attribute":
		attr := expr.ChildByFieldName("attribute")
		if attr != nil && attr.Kind() == "identifier" {
			return attr
		}
	}
	return nil
}

// handlerType returns the guarded type expression of an except clause, or
// nil for a bare handler. For `except E as e:` the expression sits inside
// an as_pattern.
func handlerType(clause *sitter.Node) *sitter.Node {
	for i := uint(0); i < clause.ChildCount(); i++ {
		child := clause.Child(i)
		if !child.IsNamed() || child.Kind() == "comment" {
			continue
		}
		if child.Kind() == "block" {
			return nil
		}
		if child.Kind() == "as_pattern" {
			return asPatternValue(child)
		}
		return child
	}
	return nil
}

func asPatternValue(pattern *sitter.Node) *sitter.Node {
	for i := uint(0); i < pattern.ChildCount(); i++ {
		child := pattern.Child(i)
		if !child.IsNamed() || child.Kind() == "comment" {
			continue
		}
		return child
	}
	return nil
}

// raiseOperand returns the raised expression, skipping a `from` cause and
// ignoring bare re-raises.
func raiseOperand(stmt *sitter.Node) *sitter.Node {
	cause := stmt.ChildByFieldName("cause")
	for i := uint(0); i < stmt.ChildCount(); i++ {
		child := stmt.Child(i)
		if !child.IsNamed() || child.Kind() == "comment" {
			continue
		}
		if cause != nil && child.StartByte() == cause.StartByte() {
			continue
		}
		return child
	}
	return nil
}

// unwrapExpr strips parenthesized wrappers, which are pure syntax.
func unwrapExpr(expr *sitter.Node) *sitter.Node {
	for expr != nil && expr.Kind() == "parenthesized_expression" {
		var inner *sitter.Node
		for i := uint(0); i < expr.ChildCount(); i++ {
			child := expr.Child(i)
			if !child.IsNamed() || child.Kind() == "comment" {
				continue
			}
			inner = child
			break
		}
		expr = inner
	}
	return expr
}
