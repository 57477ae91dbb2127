package parser

import (
	"bytes"
	"path/filepath"
	"strings"
	"time"

	"pyamend/internal/errors"
)

type Parser struct {
	loader *GrammarLoader
	pool   *ParserPool
}

func NewParser(loader *GrammarLoader) (*Parser, error) {
	lang := loader.Language("python")
	if lang == nil {
		return nil, errors.New(errors.CodeInternal, "python grammar not loaded")
	}
	return &Parser{
		loader: loader,
		pool:   NewParserPool(lang),
	}, nil
}

// ParseFile parses content into a span-addressable tree. A file that the
// grammar cannot make sense of is fatal for that file only; the caller
// skips it and moves on.
func (p *Parser) ParseFile(path string, content []byte) (*SourceFile, error) {
	if !IsSupportedPath(path) {
		return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "unsupported file type"), errors.CtxPath, path)
	}

	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeParseError, "parse failed"), errors.CtxPath, path)
	}

	root := tree.RootNode()
	if root == nil || root.HasError() {
		tree.Close()
		return nil, errors.AddContext(errors.New(errors.CodeParseError, "syntax errors in file"), errors.CtxPath, path)
	}

	return &SourceFile{
		Path:     path,
		Source:   content,
		ParsedAt: time.Now(),
		tree:     tree,
	}, nil
}

func IsSupportedPath(path string) bool {
	return filepath.Ext(path) == ".py"
}

func IsTestFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py")
}

// IsGeneratedFile sniffs the leading bytes for a generated-code marker so
// that machine-written files are never rewritten.
func IsGeneratedFile(content []byte) bool {
	head := content
	if len(head) > 512 {
		head = head[:512]
	}
	lower := bytes.ToLower(head)
	return bytes.Contains(lower, []byte("# generated by")) ||
		bytes.Contains(lower, []byte("# do not edit"))
}
