// Binding resolution for Python sources: one forward pass over each file
// builds a chain of scopes mapping local names to qualified paths. The
// resolver never guesses: a name it cannot trace to an import simply does
// not resolve, and expressions built on it are never matched downstream.
package resolver

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ProcessNode updates scope state for one syntax node and returns the
// scope that the node's children should be walked with. Function, class
// and lambda nodes open a fresh inner scope; everything else inherits the
// current one.
func ProcessNode(node *sitter.Node, source []byte, scope *Scope) *Scope {
	switch node.Kind() {
	case "import_statement":
		collectImport(node, source, scope)
	case "import_from_statement":
		collectFromImport(node, source, scope)

	case "function_definition":
		if name := node.ChildByFieldName("name"); name != nil {
			scope.Bind(&Binding{Name: text(name, source), Kind: KindLocalDefinition})
		}
		inner := NewScope(scope)
		if params := node.ChildByFieldName("parameters"); params != nil {
			bindTargets(params, source, inner)
		}
		return inner

	case "class_definition":
		if name := node.ChildByFieldName("name"); name != nil {
			scope.Bind(&Binding{Name: text(name, source), Kind: KindLocalDefinition})
		}
		return NewScope(scope)

	case "lambda":
		inner := NewScope(scope)
		if params := node.ChildByFieldName("parameters"); params != nil {
			bindTargets(params, source, inner)
		}
		return inner

	case "assignment", "augmented_assignment":
		if left := node.ChildByFieldName("left"); left != nil {
			bindTargets(left, source, scope)
		}
	case "named_expression":
		if name := node.ChildByFieldName("name"); name != nil {
			bindTargets(name, source, scope)
		}
	case "for_statement", "for_in_clause":
		if left := node.ChildByFieldName("left"); left != nil {
			bindTargets(left, source, scope)
		}
	case "as_pattern":
		// Covers both `with open(p) as f:` and `except E as e:`.
		if alias := node.ChildByFieldName("alias"); alias != nil {
			bindTargets(alias, source, scope)
		}
	}

	return scope
}

func collectImport(node *sitter.Node, source []byte, scope *Scope) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		switch child.Kind() {
		case "dotted_name", "identifier":
			// `import a.b` binds the top-level name `a`; attribute
			// access then extends the path segment by segment.
			segments := NewPath(text(child, source))
			if len(segments) == 0 {
				continue
			}
			scope.Bind(&Binding{
				Name: segments[0],
				Path: Path{segments[0]},
				Kind: KindModuleImport,
			})
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name == nil || alias == nil {
				continue
			}
			scope.Bind(&Binding{
				Name: text(alias, source),
				Path: NewPath(text(name, source)),
				Kind: KindAliasedImport,
			})
		}
	}
}

func collectFromImport(node *sitter.Node, source []byte, scope *Scope) {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}
	// Relative imports have no statically known absolute module path, so
	// their members stay unresolvable on purpose.
	if moduleNode.Kind() == "relative_import" {
		return
	}
	module := NewPath(text(moduleNode, source))
	if len(module) == 0 {
		return
	}

	afterImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "import" {
			afterImport = true
			continue
		}
		if !afterImport {
			continue
		}

		switch child.Kind() {
		case "wildcard_import":
			// `from M import *` contributes no bindings.
			return
		case "dotted_name", "identifier":
			name := text(child, source)
			scope.Bind(&Binding{
				Name: name,
				Path: module.Extend(name),
				Kind: KindMemberImport,
			})
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			scope.Bind(&Binding{
				Name: text(aliasNode, source),
				Path: module.Extend(text(nameNode, source)),
				Kind: KindAliasedImport,
			})
		}
	}
}

// bindTargets records every identifier reachable in an assignment-target
// position as a local definition. Attribute and subscript targets do not
// bind a name and are skipped.
func bindTargets(node *sitter.Node, source []byte, scope *Scope) {
	switch node.Kind() {
	case "identifier":
		scope.Bind(&Binding{Name: text(node, source), Kind: KindLocalDefinition})
		return
	case "attribute", "subscript":
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		bindTargets(node.Child(i), source, scope)
	}
}

// Resolve maps a name or attribute expression to its qualified path.
// Parentheses are transparent; comment tokens are structurally invisible
// because only named fields are consulted. The second result is false
// whenever any part of the expression cannot be traced to an import.
func (s *Scope) Resolve(node *sitter.Node, source []byte) (Path, bool) {
	switch node.Kind() {
	case "identifier":
		b := s.Lookup(text(node, source))
		if b == nil || b.Kind == KindLocalDefinition {
			return nil, false
		}
		return b.Path, true

	case "attribute":
		object := node.ChildByFieldName("object")
		attr := node.ChildByFieldName("attribute")
		if object == nil || attr == nil {
			return nil, false
		}
		base, ok := s.Resolve(object, source)
		if !ok {
			return nil, false
		}
		return base.Extend(text(attr, source)), true

	case "parenthesized_expression":
		inner := unwrap(node)
		if inner == nil {
			return nil, false
		}
		return s.Resolve(inner, source)
	}

	return nil, false
}

// unwrap returns the single expression inside a parenthesized expression,
// skipping comment tokens.
func unwrap(node *sitter.Node) *sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if !child.IsNamed() || child.Kind() == "comment" {
			continue
		}
		return child
	}
	return nil
}

func text(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
