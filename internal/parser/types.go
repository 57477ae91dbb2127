package parser

import (
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Span is a half-open byte range into a file's source, plus 1-based
// line/column coordinates for reporting.
type Span struct {
	Start     int
	End       int
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

func SpanOf(node *sitter.Node) Span {
	return Span{
		Start:     int(node.StartByte()),
		End:       int(node.EndByte()),
		StartLine: int(node.StartPosition().Row) + 1,
		StartCol:  int(node.StartPosition().Column) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		EndCol:    int(node.EndPosition().Column) + 1,
	}
}

// SourceFile is a parsed Python file. The tree keeps cgo-side memory
// alive; callers must Close it when analysis of the file is done.
type SourceFile struct {
	Path     string
	Source   []byte
	ParsedAt time.Time

	tree *sitter.Tree
}

func (f *SourceFile) Root() *sitter.Node {
	return f.tree.RootNode()
}

func (f *SourceFile) Text(node *sitter.Node) string {
	return string(f.Source[node.StartByte():node.EndByte()])
}

func (f *SourceFile) Close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}
