package app

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"pyamend/internal/parser"
	"pyamend/internal/rules"
	"pyamend/internal/shared/observability"
)

// Result is one analysis pass over a set of files.
type Result struct {
	FilesScanned int
	FilesSkipped int
	Diagnostics  []rules.Diagnostic
	Warnings     []string
	FixesApplied int
	Duration     time.Duration
}

// FixableCount counts diagnostics whose fix applies automatically.
func (r Result) FixableCount() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Fix != nil && d.Fix.Applicability == rules.ApplicabilitySafe {
			n++
		}
	}
	return n
}

type fileOutcome struct {
	path        string
	skipped     bool
	diagnostics []rules.Diagnostic
	warning     string
}

// Analyze parses and checks each file concurrently. Parse failures are
// contained as warnings rather than aborting the pass, and results come
// back in path order regardless of worker scheduling.
func (a *App) Analyze(ctx context.Context, paths []string) Result {
	ctx, span := observability.Tracer.Start(ctx, "analyze")
	defer span.End()

	start := time.Now()

	workers := runtime.NumCPU()
	if workers > len(paths) {
		workers = len(paths)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	outcomes := make([]fileOutcome, 0, len(paths))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				outcome := a.analyzeFile(ctx, path)
				mu.Lock()
				outcomes = append(outcomes, outcome)
				mu.Unlock()
			}
		}()
	}

send:
	for _, path := range paths {
		select {
		case <-ctx.Done():
			break send
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].path < outcomes[j].path })

	result := Result{}
	for _, o := range outcomes {
		if o.skipped {
			result.FilesSkipped++
		} else {
			result.FilesScanned++
		}
		if o.warning != "" {
			result.Warnings = append(result.Warnings, o.warning)
		}
		result.Diagnostics = append(result.Diagnostics, o.diagnostics...)
	}

	observability.AnalysisDuration.WithLabelValues("full_scan").Observe(time.Since(start).Seconds())
	return result
}

func (a *App) analyzeFile(ctx context.Context, path string) fileOutcome {
	_, span := observability.Tracer.Start(ctx, "analyze_file")
	defer span.End()

	content, err := os.ReadFile(path)
	if err != nil {
		observability.FilesSkippedTotal.WithLabelValues("read_error").Inc()
		return fileOutcome{path: path, skipped: true, warning: "read " + path + ": " + err.Error()}
	}
	if parser.IsGeneratedFile(content) {
		observability.FilesSkippedTotal.WithLabelValues("generated").Inc()
		return fileOutcome{path: path, skipped: true}
	}

	parseStart := time.Now()
	file, err := a.codeParser.ParseFile(path, content)
	observability.ParsingDuration.Observe(time.Since(parseStart).Seconds())
	if err != nil {
		observability.FilesSkippedTotal.WithLabelValues("parse_error").Inc()
		slog.Debug("skipping file with syntax errors", "path", path, "error", err)
		return fileOutcome{path: path, skipped: true, warning: "parse " + path + ": " + err.Error()}
	}
	defer file.Close()

	diagnostics := a.engine.Check(file)
	observability.FilesAnalyzedTotal.Inc()
	for _, d := range diagnostics {
		observability.DiagnosticsTotal.WithLabelValues(d.RuleID).Inc()
	}

	return fileOutcome{path: path, diagnostics: diagnostics}
}

// AnalyzePaths filters arbitrary changed paths down to eligible files and
// analyzes them. Watch mode feeds debounced change batches through here.
func (a *App) AnalyzePaths(ctx context.Context, changed []string) Result {
	eligible := make([]string, 0, len(changed))
	for _, path := range changed {
		if !parser.IsSupportedPath(path) {
			continue
		}
		if !a.IncludeTests && parser.IsTestFile(path) {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		eligible = append(eligible, path)
	}
	return a.Analyze(ctx, eligible)
}
