package fix

import (
	"strings"
	"testing"
)

func TestSetApply(t *testing.T) {
	src := []byte("except zipfile.BadZipfile:")
	var s Set
	start := strings.Index(string(src), "BadZipfile")
	if err := s.Add(Edit{Start: start, End: start + len("BadZipfile"), New: "BadZipFile"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	out, err := s.Apply(src)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if string(out) != "except zipfile.BadZipFile:" {
		t.Errorf("unexpected output: %q", out)
	}
	if string(src) != "except zipfile.BadZipfile:" {
		t.Error("Apply modified its input")
	}
}

func TestSetAddOutOfOrder(t *testing.T) {
	src := []byte("(A, B)")
	var s Set
	if err := s.Add(Edit{Start: 4, End: 5, New: "Y"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(Edit{Start: 1, End: 2, New: "X"}); err != nil {
		t.Fatal(err)
	}

	out, err := s.Apply(src)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if string(out) != "(X, Y)" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestSetRejectsOverlap(t *testing.T) {
	var s Set
	if err := s.Add(Edit{Start: 0, End: 5, New: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(Edit{Start: 3, End: 8, New: "b"}); err == nil {
		t.Error("expected overlap rejection")
	}
	// Touching ranges are allowed.
	if err := s.Add(Edit{Start: 5, End: 7, New: "c"}); err != nil {
		t.Errorf("expected touching edit to be accepted, got %v", err)
	}
}

func TestSetRejectsInvalidRange(t *testing.T) {
	var s Set
	if err := s.Add(Edit{Start: 5, End: 2}); err == nil {
		t.Error("expected invalid range rejection")
	}
	if err := s.Add(Edit{Start: -1, End: 2}); err == nil {
		t.Error("expected negative offset rejection")
	}
}

func TestSetMerge(t *testing.T) {
	var a, b Set
	if err := a.Add(Edit{Start: 0, End: 1, New: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := b.Add(Edit{Start: 2, End: 3, New: "y"}); err != nil {
		t.Fatal(err)
	}
	if err := a.Merge(&b); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if a.Len() != 2 {
		t.Errorf("expected 2 edits after merge, got %d", a.Len())
	}

	var c Set
	if err := c.Add(Edit{Start: 0, End: 2, New: "z"}); err != nil {
		t.Fatal(err)
	}
	if err := a.Merge(&c); err == nil {
		t.Error("expected merge overlap rejection")
	}
}

func TestApplyOutOfBounds(t *testing.T) {
	var s Set
	if err := s.Add(Edit{Start: 0, End: 10, New: "x"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Apply([]byte("abc")); err == nil {
		t.Error("expected out-of-bounds error")
	}
}
