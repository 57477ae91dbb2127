package report

import (
	"encoding/json"
	"strings"
	"testing"

	"pyamend/internal/fix"
	"pyamend/internal/parser"
	"pyamend/internal/rules"
)

func enabledRules() []rules.Rule {
	return []rules.Rule{rules.NewDeprecatedAlias(rules.NewTable(rules.DefaultEntries()))}
}

func TestGenerateSARIF_EmptyResults(t *testing.T) {
	data, err := GenerateSARIF("", enabledRules(), nil)
	if err != nil {
		t.Fatalf("GenerateSARIF returned error: %v", err)
	}
	var doc sarifReport
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc.Schema != sarifSchema {
		t.Errorf("$schema = %q, want %q", doc.Schema, sarifSchema)
	}
	if doc.Version != sarifVersion {
		t.Errorf("version = %q, want %q", doc.Version, sarifVersion)
	}
	if len(doc.Runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(doc.Runs))
	}
	if len(doc.Runs[0].Results) != 0 {
		t.Errorf("expected 0 results, got %d", len(doc.Runs[0].Results))
	}
	if len(doc.Runs[0].Tool.Driver.Rules) != 1 {
		t.Errorf("expected 1 rule descriptor, got %d", len(doc.Runs[0].Tool.Driver.Rules))
	}
}

func TestGenerateSARIF_DiagnosticWithFix(t *testing.T) {
	diagnostics := []rules.Diagnostic{{
		RuleID:   "PYA001",
		RuleName: "deprecated-error-alias",
		Message:  "`zipfile.BadZipfile` is deprecated, use `zipfile.BadZipFile`",
		Path:     "/project/pkg/archive.py",
		Span:     parser.Span{Start: 40, End: 50, StartLine: 5, StartCol: 16, EndLine: 5, EndCol: 26},
		Fix: &rules.Fix{
			Title:         "Replace `zipfile.BadZipfile` with `zipfile.BadZipFile`",
			Applicability: rules.ApplicabilitySafe,
			Edits:         []fix.Edit{{Start: 40, End: 50, New: "BadZipFile"}},
		},
	}}

	data, err := GenerateSARIF("/project", enabledRules(), diagnostics)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc sarifReport
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	results := doc.Runs[0].Results
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.RuleID != "PYA001" {
		t.Errorf("ruleId = %q, want PYA001", r.RuleID)
	}
	if r.Level != "warning" {
		t.Errorf("level = %q, want warning", r.Level)
	}

	loc := r.Locations[0].PhysicalLocation
	if loc.ArtifactLocation.URI != "pkg/archive.py" {
		t.Errorf("uri = %q, want project-relative pkg/archive.py", loc.ArtifactLocation.URI)
	}
	if loc.Region == nil || loc.Region.StartLine != 5 || loc.Region.StartColumn != 16 {
		t.Errorf("unexpected region: %+v", loc.Region)
	}

	if len(r.Fixes) != 1 {
		t.Fatalf("expected 1 fix, got %d", len(r.Fixes))
	}
	repl := r.Fixes[0].ArtifactChanges[0].Replacements[0]
	if repl.DeletedRegion.ByteOffset != 40 || repl.DeletedRegion.ByteLength != 10 {
		t.Errorf("unexpected deleted region: %+v", repl.DeletedRegion)
	}
	if repl.InsertedContent.Text != "BadZipFile" {
		t.Errorf("unexpected inserted content: %q", repl.InsertedContent.Text)
	}
}

func TestRelativeURI(t *testing.T) {
	if got := relativeURI("/project", "/project/a/b.py"); got != "a/b.py" {
		t.Errorf("relativeURI = %q, want a/b.py", got)
	}
	if got := relativeURI("/project", "/elsewhere/b.py"); got != "/elsewhere/b.py" {
		t.Errorf("paths outside the root stay as-is, got %q", got)
	}
}

func TestRenderText(t *testing.T) {
	diagnostics := []rules.Diagnostic{{
		RuleID:  "PYA001",
		Message: "`zipfile.BadZipfile` is deprecated, use `zipfile.BadZipFile`",
		Path:    "pkg/archive.py",
		Span:    parser.Span{StartLine: 5, StartCol: 16},
		Fix: &rules.Fix{
			Title:         "Replace `zipfile.BadZipfile` with `zipfile.BadZipFile`",
			Applicability: rules.ApplicabilitySuggested,
		},
	}}

	out := RenderText(diagnostics, false)
	if !strings.Contains(out, "pkg/archive.py:5:16") {
		t.Errorf("missing location in output:\n%s", out)
	}
	if !strings.Contains(out, "suggestion:") {
		t.Errorf("missing suggestion line in output:\n%s", out)
	}
	if !strings.Contains(out, "1 finding(s), 0 fixable") {
		t.Errorf("missing summary in output:\n%s", out)
	}
}
