package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"pyamend/internal/errors"
	"pyamend/internal/fix"
	"pyamend/internal/rules"
	"pyamend/internal/shared/observability"
)

// ApplyFixes rewrites files from the merged edit sets of the result's
// diagnostics. Safe fixes are always applied; suggested fixes only when
// unsafe is set. Each file is written atomically through a temp file, so a
// crash never leaves a half-rewritten source behind. Returns the number of
// individual edits applied.
func (a *App) ApplyFixes(result Result, unsafe bool) (int, error) {
	byFile := make(map[string]*fix.Set)
	var order []string

	for _, d := range result.Diagnostics {
		if d.Fix == nil {
			continue
		}
		if d.Fix.Applicability != rules.ApplicabilitySafe && !unsafe {
			continue
		}

		set, ok := byFile[d.Path]
		if !ok {
			set = &fix.Set{}
			byFile[d.Path] = set
			order = append(order, d.Path)
		}
		for _, e := range d.Fix.Edits {
			if err := set.Add(e); err != nil {
				// Two rules proposing overlapping rewrites; keep the first.
				conflict := errors.AddContext(
					errors.Wrap(err, errors.CodeConflict, "overlapping edits"),
					errors.CtxPath, d.Path)
				slog.Warn("skipping conflicting edit", "edit", e.String(), "error", conflict)
			}
		}
	}

	applied := 0
	for _, path := range order {
		set := byFile[path]
		if set.Empty() {
			continue
		}
		n, err := a.rewriteFile(path, set)
		if err != nil {
			return applied, err
		}
		applied += n
	}

	if applied > 0 {
		observability.FixesAppliedTotal.Add(float64(applied))
	}
	return applied, nil
}

func (a *App) rewriteFile(path string, set *fix.Set) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	fixed, err := set.Apply(content)
	if err != nil {
		return 0, fmt.Errorf("apply fixes to %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(fixed); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, info.Mode()); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("chmod temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("replace %s: %w", path, err)
	}

	slog.Info("applied fixes", "path", path, "edits", set.Len())
	return set.Len(), nil
}
