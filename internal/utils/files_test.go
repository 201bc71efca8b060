package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "out.csv")
	if err := EnsureDir(filepath.Dir(p)); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	if err := SafeWriteFile(p, []byte("one")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := SafeWriteFile(p, []byte("two")); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "two" {
		t.Fatalf("unexpected content %q", b)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"héllo", 2, "hé"},
		{"abc", 0, ""},
	}
	for _, c := range cases {
		if got := Truncate(c.in, c.n); got != c.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", c.in, c.n, got, c.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" Title, ,Abstract ,")
	if len(got) != 2 || got[0] != "Title" || got[1] != "Abstract" {
		t.Fatalf("unexpected split: %#v", got)
	}
	if SplitList("") != nil {
		t.Fatal("expected nil for empty input")
	}
}
