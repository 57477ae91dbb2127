package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"pyamend/internal/config"
	"pyamend/internal/data/history"
	"pyamend/internal/errors"
	"pyamend/internal/parser"
	"pyamend/internal/rules"
	"pyamend/internal/watcher"
)

// App wires the parser, rule engine, history store, and watcher together
// and owns the scan → analyze → fix → report pipeline.
type App struct {
	Config       *config.Config
	IncludeTests bool

	codeParser *parser.Parser
	registry   *rules.Registry
	enabled    []rules.Rule
	engine     *rules.Engine
	store      *history.Store

	activeWatcher *watcher.Watcher

	// OnUpdate, when set, receives the result of every analysis pass.
	// Watch mode uses it to feed the TUI.
	OnUpdate func(Result)
}

func New(cfg *config.Config) (*App, error) {
	codeParser, err := parser.NewParser(parser.NewGrammarLoader())
	if err != nil {
		return nil, fmt.Errorf("initialize parser: %w", err)
	}

	entries := rules.DefaultEntries()
	entries = append(entries, rules.EntriesFromConfig(cfg.Rules.Deprecations)...)
	table := rules.NewTable(entries)

	registry := rules.NewRegistry()
	if err := registry.Register(rules.NewDeprecatedAlias(table)); err != nil {
		return nil, err
	}

	enabled, err := registry.Enabled(cfg.Rules.Enabled)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:       cfg,
		IncludeTests: cfg.Scan.IncludeTests,
		codeParser:   codeParser,
		registry:     registry,
		enabled:      enabled,
		engine:       rules.NewEngine(enabled),
	}

	if cfg.DB.Enabled {
		store, err := history.Open(cfg.DB.Path, cfg.DB.BusyTimeout)
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeInternal, "open history store"),
				errors.CtxOperation, "open_history")
		}
		a.store = store
		slog.Debug("history store opened", "path", store.Path())
	}

	return a, nil
}

func (a *App) Close() error {
	if a.activeWatcher != nil {
		_ = a.activeWatcher.Close()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// EnabledRules returns the rules active for this run, in registration order.
func (a *App) EnabledRules() []rules.Rule { return a.enabled }

// Run performs one full pass: discover files, analyze them, apply fixes if
// configured, and record the run in the history store.
func (a *App) Run(ctx context.Context) (Result, error) {
	start := time.Now()

	files, err := a.ScanDirectories(a.Config.Scan.Paths, a.Config.Scan.ExcludeDirs, a.Config.Scan.ExcludeFiles)
	if err != nil {
		return Result{}, err
	}

	result := a.Analyze(ctx, files)

	if a.Config.Fix.Enabled && !a.Config.Fix.DryRun {
		applied, err := a.ApplyFixes(result, a.Config.Fix.Unsafe)
		if err != nil {
			return result, err
		}
		result.FixesApplied = applied
	}

	result.Duration = time.Since(start)
	a.recordRun(result)
	return result, nil
}

func (a *App) recordRun(result Result) {
	if a.store == nil {
		return
	}

	ruleCounts := make(map[string]int)
	fixable := 0
	for _, d := range result.Diagnostics {
		ruleCounts[d.RuleID]++
		if d.Fix != nil && d.Fix.Applicability == rules.ApplicabilitySafe {
			fixable++
		}
	}

	root, err := filepath.Abs(a.projectRoot())
	if err != nil {
		root = a.projectRoot()
	}

	id, err := a.store.SaveRun(history.Run{
		Root:            root,
		FilesScanned:    result.FilesScanned,
		FilesSkipped:    result.FilesSkipped,
		DiagnosticCount: len(result.Diagnostics),
		FixableCount:    fixable,
		FixesApplied:    result.FixesApplied,
		Duration:        result.Duration,
		RuleCounts:      ruleCounts,
	})
	if err != nil {
		slog.Warn("failed to record run", "error", err)
		return
	}
	slog.Debug("run recorded", "run_id", id)
}

// RecentRuns lists stored runs, newest first. Requires db.enabled.
func (a *App) RecentRuns(limit int) ([]history.Run, error) {
	if a.store == nil {
		return nil, errors.New(errors.CodeNotFound, "history store is not enabled; set db.enabled in the config")
	}
	return a.store.RecentRuns(limit)
}

func (a *App) projectRoot() string {
	if root := a.Config.Paths.ProjectRoot; root != "" {
		return root
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// ProjectRoot is the directory SARIF URIs are made relative to.
func (a *App) ProjectRoot() string { return a.projectRoot() }
