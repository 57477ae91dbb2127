package cliapp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"pyamend/internal/app"
	"pyamend/internal/config"
	"pyamend/internal/report"
	"pyamend/internal/shared/observability"
	"pyamend/internal/shared/version"
)

func Run(args []string) int {
	opts, err := parseOptions(args)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Printf("pyamend v%s\n", version.Version)
		return 0
	}

	if opts.unsafe && !opts.fix {
		fmt.Fprintln(os.Stderr, "-unsafe requires -fix")
		return 2
	}

	cleanupLogs := configureLogging(opts.ui, opts.verbose)
	defer cleanupLogs()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	applyCLIOverrides(&opts, cfg)

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		return 1
	}
	defer a.Close()

	ctx := context.Background()

	if opts.history > 0 {
		return printHistory(a, opts.history)
	}

	if cfg.Observability.OTLPEndpoint != "" {
		shutdown, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	result, err := a.Run(ctx)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		return 1
	}
	for _, w := range result.Warnings {
		slog.Warn(w)
	}

	if cfg.Output.SARIF != "" {
		if err := writeSARIF(a, cfg.Output.SARIF, result); err != nil {
			slog.Error("failed to write SARIF report", "error", err)
			return 1
		}
	}

	watchMode := opts.watch || opts.ui
	if !opts.ui {
		fmt.Print(report.RenderText(result.Diagnostics, result.FixesApplied > 0))
	}

	if !watchMode {
		if len(result.Diagnostics) > 0 && result.FixesApplied == 0 {
			return 1
		}
		return 0
	}

	var obsServer *app.ObservabilityServer
	if cfg.Observability.Enabled {
		obsServer = app.NewObservabilityServer(cfg.Observability.Address, app.NewHealthService(a))
		if err := obsServer.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() { _ = obsServer.Stop(context.Background()) }()
	}

	if err := a.StartWatcher(ctx); err != nil {
		slog.Error("failed to start watcher", "error", err)
		return 1
	}

	if opts.ui {
		if err := runUI(a, result); err != nil {
			slog.Error("failed to run UI", "error", err)
			return 1
		}
		return 0
	}

	a.OnUpdate = func(r app.Result) {
		fmt.Print(report.RenderText(r.Diagnostics, r.FixesApplied > 0))
	}
	select {}
}

func printHistory(a *app.App, limit int) int {
	runs, err := a.RecentRuns(limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return 0
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  files=%d skipped=%d findings=%d fixable=%d fixed=%d (%s)\n",
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.ID,
			r.FilesScanned,
			r.FilesSkipped,
			r.DiagnosticCount,
			r.FixableCount,
			r.FixesApplied,
			r.Duration,
		)
	}
	return 0
}

func writeSARIF(a *app.App, path string, result app.Result) error {
	data, err := report.GenerateSARIF(a.ProjectRoot(), a.EnabledRules(), result.Diagnostics)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	// Missing default config falls back to builtin defaults; an explicit
	// -config path must exist.
	if path == defaultConfigPath && os.IsNotExist(err) {
		return config.Default(), nil
	}
	return nil, err
}

func applyCLIOverrides(opts *cliOptions, cfg *config.Config) {
	if opts.fix {
		cfg.Fix.Enabled = true
	}
	if opts.unsafe {
		cfg.Fix.Unsafe = true
	}
	if opts.dryRun {
		cfg.Fix.DryRun = true
	}
	if opts.includeTests {
		cfg.Scan.IncludeTests = true
	}
	if opts.sarifPath != "" {
		cfg.Output.SARIF = opts.sarifPath
	}
	if len(opts.args) > 0 {
		cfg.Scan.Paths = opts.args
	}
}

func configureLogging(uiMode, verbose bool) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stdout
	var closeFn func() = func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
			if err == nil {
				output = f
				closeFn = func() { _ = f.Close() }
			} else {
				fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "pyamend", "pyamend.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "pyamend", "pyamend.log")
	}

	return "pyamend.log"
}
