package amble

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/karrick/godirwalk"
	krfs "github.com/kr/fs"
)

// buildBenchTree lays out a moderately bushy tree for the comparison
// tests and benchmarks.
func buildBenchTree(tb testing.TB, root string) int {
	tb.Helper()
	count := 0
	for i := 0; i < 10; i++ {
		dir := filepath.Join(root, "dir", string(rune('a'+i)))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			tb.Fatalf("mkdir: %v", err)
		}
		for j := 0; j < 20; j++ {
			name := filepath.Join(dir, "file"+string(rune('a'+j))+".txt")
			if err := os.WriteFile(name, []byte("x"), 0o644); err != nil {
				tb.Fatalf("write: %v", err)
			}
			count++
		}
	}
	return count
}

// TestWalkerMatchesWalkDir cross-checks the walker's entry set against
// filepath.WalkDir on the same tree.
func TestWalkerMatchesWalkDir(t *testing.T) {
	root := t.TempDir()
	buildBenchTree(t, root)

	got := map[string]bool{}
	seq, err := Walk(root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	for ent, werr := range seq {
		if werr != nil {
			t.Fatalf("unexpected error: %v", werr)
		}
		got[ent.Path()] = true
	}

	want := map[string]bool{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root {
			want[path] = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir failed: %v", err)
	}

	if len(got) != len(want) {
		t.Errorf("entry count mismatch: walker %d, WalkDir %d", len(got), len(want))
	}
	for p := range want {
		if !got[p] {
			t.Errorf("walker missed %q", p)
		}
	}
}

// TestWalkerMatchesKrFS cross-checks against the kr/fs iterator walker.
func TestWalkerMatchesKrFS(t *testing.T) {
	root := t.TempDir()
	buildBenchTree(t, root)

	got := map[string]bool{}
	seq, err := Walk(root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	for ent, werr := range seq {
		if werr != nil {
			t.Fatalf("unexpected error: %v", werr)
		}
		got[ent.Path()] = true
	}

	want := map[string]bool{}
	kw := krfs.Walk(root)
	for kw.Step() {
		if err := kw.Err(); err != nil {
			t.Fatalf("kr/fs error: %v", err)
		}
		if kw.Path() != root {
			want[kw.Path()] = true
		}
	}

	if len(got) != len(want) {
		t.Errorf("entry count mismatch: walker %d, kr/fs %d", len(got), len(want))
	}
	for p := range want {
		if !got[p] {
			t.Errorf("walker missed %q", p)
		}
	}
}

func BenchmarkWalker(b *testing.B) {
	root := b.TempDir()
	buildBenchTree(b, root)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		w, err := NewWalker(root)
		if err != nil {
			b.Fatal(err)
		}
		for w.Next() {
		}
		w.Close()
	}
}

func BenchmarkFilepathWalkDir(b *testing.B) {
	root := b.TempDir()
	buildBenchTree(b, root)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			return err
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGodirwalk(b *testing.B) {
	root := b.TempDir()
	buildBenchTree(b, root)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		err := godirwalk.Walk(root, &godirwalk.Options{
			Unsorted: true,
			Callback: func(path string, de *godirwalk.Dirent) error {
				return nil
			},
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkKrFS(b *testing.B) {
	root := b.TempDir()
	buildBenchTree(b, root)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		w := krfs.Walk(root)
		for w.Step() {
			if err := w.Err(); err != nil {
				b.Fatal(err)
			}
		}
	}
}
