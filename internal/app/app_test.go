package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyamend/internal/config"
	"pyamend/internal/rules"
)

func createTestFiles(t *testing.T, tmpDir string) {
	mainPy := `import zipfile

try:
    zipfile.ZipFile("archive.zip")
except zipfile.BadZipfile:
    pass
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "main.py"), []byte(mainPy), 0644))

	cleanPy := `import zipfile

try:
    pass
except zipfile.BadZipFile:
    pass
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "clean.py"), []byte(cleanPy), 0644))

	generatedPy := "# generated by protoc, do not edit\nimport zipfile\nraise zipfile.BadZipfile\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "gen.py"), []byte(generatedPy), 0644))

	testPy := "raise zipfile.BadZipfile\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test_main.py"), []byte(testPy), 0644))

	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, ".venv"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".venv", "vendored.py"), []byte(testPy), 0644))
}

func newTestConfig(tmpDir string) *config.Config {
	cfg := config.Default()
	cfg.Paths.ProjectRoot = tmpDir
	cfg.Scan.Paths = []string{tmpDir}
	return cfg
}

func TestFullPipeline(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFiles(t, tmpDir)

	cfg := newTestConfig(tmpDir)
	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	result, err := a.Run(context.Background())
	require.NoError(t, err)

	// main.py and clean.py analyzed; gen.py skipped; test/.venv never scanned.
	assert.Equal(t, 2, result.FilesScanned)
	assert.Equal(t, 1, result.FilesSkipped)
	require.Len(t, result.Diagnostics, 1)

	d := result.Diagnostics[0]
	assert.Equal(t, "PYA001", d.RuleID)
	assert.Equal(t, filepath.Join(tmpDir, "main.py"), d.Path)
	require.NotNil(t, d.Fix)
	assert.Equal(t, rules.ApplicabilitySafe, d.Fix.Applicability)
	assert.Equal(t, 1, result.FixableCount())

	// Fixes were not requested, so sources are untouched.
	content, err := os.ReadFile(filepath.Join(tmpDir, "main.py"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "BadZipfile")
}

func TestFullPipelineWithFixes(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFiles(t, tmpDir)

	cfg := newTestConfig(tmpDir)
	cfg.Fix.Enabled = true

	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	result, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.FixesApplied)

	content, err := os.ReadFile(filepath.Join(tmpDir, "main.py"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "except zipfile.BadZipFile:")
	assert.NotContains(t, string(content), "BadZipfile")

	// Generated file stays untouched even though it raises the alias.
	gen, err := os.ReadFile(filepath.Join(tmpDir, "gen.py"))
	require.NoError(t, err)
	assert.Contains(t, string(gen), "BadZipfile")

	// A second pass finds nothing left to fix.
	second, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.Diagnostics)
	assert.Equal(t, 0, second.FixesApplied)
}

func TestRunRecordsHistory(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFiles(t, tmpDir)

	cfg := newTestConfig(tmpDir)
	cfg.DB.Enabled = true
	cfg.DB.Path = filepath.Join(tmpDir, "state", "history.db")

	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Run(context.Background())
	require.NoError(t, err)

	runs, err := a.RecentRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].FilesScanned)
	assert.Equal(t, 1, runs[0].DiagnosticCount)
	assert.Equal(t, 1, runs[0].RuleCounts["PYA001"])
}

func TestRecentRunsWithoutStore(t *testing.T) {
	a, err := New(newTestConfig(t.TempDir()))
	require.NoError(t, err)
	defer a.Close()

	_, err = a.RecentRuns(5)
	assert.Error(t, err)
}

func TestScanDirectoriesIncludeTests(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFiles(t, tmpDir)

	cfg := newTestConfig(tmpDir)
	cfg.Scan.IncludeTests = true

	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	files, err := a.ScanDirectories(cfg.Scan.Paths, cfg.Scan.ExcludeDirs, cfg.Scan.ExcludeFiles)
	require.NoError(t, err)

	bases := make([]string, 0, len(files))
	for _, f := range files {
		bases = append(bases, filepath.Base(f))
	}
	assert.Contains(t, bases, "test_main.py")
	assert.NotContains(t, bases, "vendored.py")
}

func TestApplyFixesUnsafeOptIn(t *testing.T) {
	tmpDir := t.TempDir()

	// Bare handler with no binding for the replacement name: the fix is
	// suggested, not safe.
	source := `from zipfile import BadZipfile

try:
    pass
except BadZipfile:
    pass
`
	path := filepath.Join(tmpDir, "bare.py")
	require.NoError(t, os.WriteFile(path, []byte(source), 0644))

	a, err := New(newTestConfig(tmpDir))
	require.NoError(t, err)
	defer a.Close()

	result := a.Analyze(context.Background(), []string{path})
	require.Len(t, result.Diagnostics, 1)
	require.NotNil(t, result.Diagnostics[0].Fix)
	require.Equal(t, rules.ApplicabilitySuggested, result.Diagnostics[0].Fix.Applicability)

	applied, err := a.ApplyFixes(result, false)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, source, string(content))

	applied, err = a.ApplyFixes(result, true)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "except BadZipFile:")
}

func TestHealthCheck(t *testing.T) {
	a, err := New(newTestConfig(t.TempDir()))
	require.NoError(t, err)
	defer a.Close()

	status := NewHealthService(a).Check(context.Background())
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, "ok", status.Components["parser"])
	assert.Equal(t, "ok (1 of 1 registered rules enabled)", status.Components["rules"])
	assert.NotContains(t, status.Components, "history")
}

func TestAnalyzePathsFiltersChanged(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFiles(t, tmpDir)

	a, err := New(newTestConfig(tmpDir))
	require.NoError(t, err)
	defer a.Close()

	changed := []string{
		filepath.Join(tmpDir, "main.py"),
		filepath.Join(tmpDir, "test_main.py"),
		filepath.Join(tmpDir, "missing.py"),
		filepath.Join(tmpDir, "notes.txt"),
	}
	result := a.AnalyzePaths(context.Background(), changed)
	assert.Equal(t, 1, result.FilesScanned)
	assert.Len(t, result.Diagnostics, 1)
}
