package parser

import (
	"testing"

	"pyamend/internal/errors"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser(NewGrammarLoader())
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	return p
}

func TestParseFile(t *testing.T) {
	p := newTestParser(t)

	src := []byte("import zipfile\n\ntry:\n    pass\nexcept zipfile.BadZipfile:\n    pass\n")
	file, err := p.ParseFile("sample.py", src)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	defer file.Close()

	root := file.Root()
	if root.Kind() != "module" {
		t.Errorf("expected module root, got %s", root.Kind())
	}
	if root.ChildCount() == 0 {
		t.Error("expected children under module root")
	}
}

func TestParseFileSyntaxError(t *testing.T) {
	p := newTestParser(t)

	_, err := p.ParseFile("broken.py", []byte("def f(:\n"))
	if err == nil {
		t.Fatal("expected parse error for broken source")
	}
	if !errors.IsCode(err, errors.CodeParseError) {
		t.Errorf("expected PARSE_ERROR code, got %v", err)
	}
}

func TestParseFileUnsupportedPath(t *testing.T) {
	p := newTestParser(t)

	_, err := p.ParseFile("main.go", []byte("package main"))
	if !errors.IsCode(err, errors.CodeNotSupported) {
		t.Errorf("expected NOT_SUPPORTED code, got %v", err)
	}
}

func TestSpanOf(t *testing.T) {
	p := newTestParser(t)

	src := []byte("import os\n")
	file, err := p.ParseFile("a.py", src)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	defer file.Close()

	stmt := file.Root().Child(0)
	span := SpanOf(stmt)
	if span.Start != 0 || span.End != len("import os") {
		t.Errorf("unexpected span bytes: %+v", span)
	}
	if span.StartLine != 1 || span.StartCol != 1 {
		t.Errorf("unexpected span position: %+v", span)
	}
	if file.Text(stmt) != "import os" {
		t.Errorf("unexpected text: %q", file.Text(stmt))
	}
}

func TestIsTestFile(t *testing.T) {
	if !IsTestFile("pkg/test_alias.py") {
		t.Error("expected test_alias.py to be a test file")
	}
	if !IsTestFile("pkg/alias_test.py") {
		t.Error("expected alias_test.py to be a test file")
	}
	if IsTestFile("pkg/alias.py") {
		t.Error("did not expect alias.py to be a test file")
	}
}

func TestIsGeneratedFile(t *testing.T) {
	if !IsGeneratedFile([]byte("# Generated by protoc. DO NOT EDIT\n")) {
		t.Error("expected generated marker to be detected")
	}
	if IsGeneratedFile([]byte("import os\n")) {
		t.Error("did not expect plain source to look generated")
	}
}
