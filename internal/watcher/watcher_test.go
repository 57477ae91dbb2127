package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 1)
	w, err := New(Options{
		Debounce:     100 * time.Millisecond,
		ExcludeDirs:  []string{"exclude_dir"},
		ExcludeFiles: []string{"*.gen.py"},
		OnChange: func(paths []string) {
			changedFiles <- paths
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "module.py")
	os.WriteFile(testFile, []byte("import zipfile"), 0644)

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == testFile {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected to find %s in changed files %v", testFile, paths)
		}
	case <-time.After(2 * time.Second):
		t.Error("Timed out waiting for file change event")
	}

	// Non-Python files and excluded patterns stay silent.
	os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("not python"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "module.gen.py"), []byte("x = 1"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "test_module.py"), []byte("x = 1"), 0644)

	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			base := filepath.Base(p)
			if base == "notes.txt" || base == "module.gen.py" || base == "test_module.py" {
				t.Errorf("excluded file %s triggered event", base)
			}
		}
	case <-time.After(500 * time.Millisecond):
		// Expected
	}

	// New directory should be recursively watched after create.
	subdir := filepath.Join(tmpDir, "newdir")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "nested.py")
	if err := os.WriteFile(subFile, []byte("import zipfile"), 0644); err != nil {
		t.Fatal(err)
	}

	foundNested := false
	timeout := time.After(2 * time.Second)
	for !foundNested {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == subFile {
					foundNested = true
					break
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for nested file event in newly created directory")
		}
	}
}

func TestWatcherIncludeTests(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 1)
	w, err := New(Options{
		Debounce:     50 * time.Millisecond,
		IncludeTests: true,
		OnChange: func(paths []string) {
			changedFiles <- paths
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "test_module.py")
	os.WriteFile(testFile, []byte("x = 1"), 0644)

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == testFile {
				found = true
			}
		}
		if !found {
			t.Errorf("expected test file event with IncludeTests, got %v", paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for test file event")
	}
}
