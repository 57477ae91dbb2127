package app

import (
	"context"
	"log/slog"

	"pyamend/internal/shared/util"
	"pyamend/internal/watcher"
)

// StartWatcher begins watch mode: debounced change batches are re-analyzed,
// throttled by the configured rescan rate so editor save storms don't pile
// up full passes.
func (a *App) StartWatcher(ctx context.Context) error {
	limiter := util.NewLimiter(a.Config.Watch.RescanRate, a.Config.Watch.RescanBurst)

	w, err := watcher.New(watcher.Options{
		Debounce:     a.Config.Watch.Debounce,
		ExcludeDirs:  a.Config.Scan.ExcludeDirs,
		ExcludeFiles: a.Config.Scan.ExcludeFiles,
		IncludeTests: a.IncludeTests,
		OnChange: func(paths []string) {
			if err := limiter.Wait(ctx, 1); err != nil {
				return
			}
			a.handleChanges(ctx, paths)
		},
	})
	if err != nil {
		return err
	}

	a.activeWatcher = w
	return w.Watch(a.Config.Scan.Paths)
}

func (a *App) handleChanges(ctx context.Context, paths []string) {
	slog.Info("detected changes", "count", len(paths))

	result := a.AnalyzePaths(ctx, paths)

	if a.Config.Fix.Enabled && !a.Config.Fix.DryRun {
		applied, err := a.ApplyFixes(result, a.Config.Fix.Unsafe)
		if err != nil {
			slog.Error("failed to apply fixes", "error", err)
		}
		result.FixesApplied = applied
	}

	a.recordRun(result)

	if a.OnUpdate != nil {
		a.OnUpdate(result)
	}
}
