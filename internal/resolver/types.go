package resolver

import "strings"

// Path is the fully resolved dotted identity of a symbol, independent of
// local aliasing. Treated as immutable: extension always copies.
type Path []string

func NewPath(dotted string) Path {
	if dotted == "" {
		return nil
	}
	return Path(strings.Split(dotted, "."))
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Extend returns a new path with segment appended. The receiver is not
// modified.
func (p Path) Extend(segment string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = segment
	return out
}

type BindingKind int

const (
	// KindModuleImport is `import M` (or `import M.N`, binding M).
	KindModuleImport BindingKind = iota
	// KindMemberImport is `from M import X`.
	KindMemberImport
	// KindAliasedImport is `import M as A` or `from M import X as Y`.
	KindAliasedImport
	// KindLocalDefinition is any non-import binding (assignment, def,
	// class, parameter, loop/with/except target). Such names have no
	// statically known qualified path and never resolve.
	KindLocalDefinition
)

// Binding associates a local name with the qualified path it denotes
// within one lexical scope. Never mutated after creation.
type Binding struct {
	Name string
	Path Path
	Kind BindingKind
}

// Scope is one link in the chain of lexical scopes. Lookups walk outward;
// the innermost binding wins.
type Scope struct {
	parent   *Scope
	bindings map[string]*Binding
}

func NewScope(parent *Scope) *Scope {
	return &Scope{
		parent:   parent,
		bindings: make(map[string]*Binding),
	}
}

// Bind records a binding in this scope. A later binding for the same name
// overwrites the earlier one (last write wins), matching source-order
// rebinding semantics.
func (s *Scope) Bind(b *Binding) {
	s.bindings[b.Name] = b
}

func (s *Scope) Lookup(name string) *Binding {
	for scope := s; scope != nil; scope = scope.parent {
		if b, ok := scope.bindings[name]; ok {
			return b
		}
	}
	return nil
}
