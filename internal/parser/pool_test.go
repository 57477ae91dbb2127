package parser

import (
	"sync"
	"testing"
)

func TestParserPoolReuse(t *testing.T) {
	loader := NewGrammarLoader()
	pool := NewParserPool(loader.Language("python"))

	sp := pool.Get()
	if sp == nil {
		t.Fatal("expected parser from pool")
	}
	tree := sp.Parse([]byte("x = 1\n"), nil)
	if tree == nil {
		t.Fatal("expected parse tree")
	}
	root := tree.RootNode()
	if root == nil || root.HasError() {
		t.Fatalf("expected error-free root node")
	}
	tree.Close()
	pool.Put(sp)

	// A returned parser must be usable again.
	sp2 := pool.Get()
	tree2 := sp2.Parse([]byte("y = 2\n"), nil)
	if tree2 == nil {
		t.Fatal("expected parse tree from reused parser")
	}
	tree2.Close()
	pool.Put(sp2)
}

func TestParserPoolConcurrent(t *testing.T) {
	loader := NewGrammarLoader()
	pool := NewParserPool(loader.Language("python"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sp := pool.Get()
			defer pool.Put(sp)
			tree := sp.Parse([]byte("import os\nraise OSError\n"), nil)
			if tree == nil {
				t.Error("expected parse tree")
				return
			}
			tree.Close()
		}()
	}
	wg.Wait()
}
