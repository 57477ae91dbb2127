package rules

import (
	"pyamend/internal/config"
	"pyamend/internal/resolver"
)

// Entry maps one deprecated symbol to its canonical replacement. Both
// paths share a module prefix; Suggest is the local name a rewrite should
// produce for bare references (defaults to the replacement's final
// segment).
type Entry struct {
	Old     resolver.Path
	New     resolver.Path
	Suggest string
}

// Table is the process-wide set of known renames. Immutable after
// construction; concurrent lookups need no synchronization.
type Table struct {
	entries map[string]*Entry
}

func NewTable(entries []Entry) *Table {
	t := &Table{entries: make(map[string]*Entry, len(entries))}
	for i := range entries {
		e := entries[i]
		if e.Suggest == "" {
			e.Suggest = e.New.Last()
		}
		t.entries[e.Old.String()] = &e
	}
	return t
}

// Lookup returns the entry whose deprecated path exactly equals p.
// Prefixes and partial matches never qualify.
func (t *Table) Lookup(p resolver.Path) *Entry {
	return t.entries[p.String()]
}

func (t *Table) Len() int {
	return len(t.entries)
}

// DefaultEntries is the builtin table: standard-library exception aliases
// deprecated in favor of a canonical name in the same module.
func DefaultEntries() []Entry {
	return []Entry{
		{
			Old: resolver.NewPath("zipfile.BadZipfile"),
			New: resolver.NewPath("zipfile.BadZipFile"),
		},
	}
}

// EntriesFromConfig converts validated config additions into table
// entries.
func EntriesFromConfig(entries []config.DeprecationEntry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, Entry{
			Old:     resolver.NewPath(e.Old),
			New:     resolver.NewPath(e.New),
			Suggest: e.Suggest,
		})
	}
	return out
}
