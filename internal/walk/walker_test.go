package amble

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// buildTree creates the given relative paths under root. A trailing
// slash marks a directory; everything else becomes a small file.
func buildTree(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, strings.TrimSuffix(p, "/"))
		if strings.HasSuffix(p, "/") {
			if err := os.MkdirAll(full, 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", p, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", p, err)
		}
		if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}

// collect drains a walker, returning the paths of Ok items (relative to
// root) and the error items, in yield order.
func collect(t *testing.T, w *Walker, root string) ([]string, []error) {
	t.Helper()
	var paths []string
	var errs []error
	for w.Next() {
		if err := w.Err(); err != nil {
			errs = append(errs, err)
			continue
		}
		rel, err := filepath.Rel(root, w.Entry().Path())
		if err != nil {
			t.Fatalf("rel %s: %v", w.Entry().Path(), err)
		}
		paths = append(paths, rel)
	}
	return paths, errs
}

// TestWalkEmptyRoot tests that an empty directory yields nothing and
// the walker immediately reports exhaustion.
func TestWalkEmptyRoot(t *testing.T) {
	w, err := NewWalker(t.TempDir())
	if err != nil {
		t.Fatalf("NewWalker failed: %v", err)
	}
	defer w.Close()

	if w.Next() {
		t.Fatalf("expected no items, got %q / %v", w.Entry().Path(), w.Err())
	}
	// Exhaustion is idempotent.
	if w.Next() {
		t.Errorf("Next returned true after exhaustion")
	}
}

// TestWalkYieldsEveryEntry tests that every reachable entry is yielded
// exactly once, the root itself excluded.
func TestWalkYieldsEveryEntry(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root,
		"a.txt",
		"b.log",
		"sub/c.txt",
		"sub/deep/d.txt",
		"empty/",
	)

	w, err := NewWalker(root)
	if err != nil {
		t.Fatalf("NewWalker failed: %v", err)
	}
	defer w.Close()

	paths, errs := collect(t, w, root)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	want := map[string]bool{
		"a.txt":          true,
		"b.log":          true,
		"sub":            true,
		"sub/c.txt":      true,
		"sub/deep":       true,
		"sub/deep/d.txt": true,
		"empty":          true,
	}
	if len(paths) != len(want) {
		t.Errorf("expected %d entries, got %d: %v", len(want), len(paths), paths)
	}
	seen := map[string]bool{}
	for _, p := range paths {
		if seen[p] {
			t.Errorf("entry %q yielded twice", p)
		}
		seen[p] = true
		if !want[p] {
			t.Errorf("unexpected entry %q", p)
		}
	}
}

// TestWalkPreOrder tests that every subtree is yielded contiguously,
// directly after its directory's own entry.
func TestWalkPreOrder(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root,
		"a.txt",
		"sub/c.txt",
		"sub/deep/d.txt",
		"sub/deep/e.txt",
		"z.txt",
	)

	w, err := NewWalker(root)
	if err != nil {
		t.Fatalf("NewWalker failed: %v", err)
	}
	defer w.Close()

	paths, errs := collect(t, w, root)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	index := map[string]int{}
	for i, p := range paths {
		index[p] = i
	}

	// For each directory, all descendants must form a contiguous run
	// starting right after the directory itself.
	for _, dir := range []string{"sub", "sub/deep"} {
		var descendants []int
		for p, i := range index {
			if strings.HasPrefix(p, dir+"/") {
				descendants = append(descendants, i)
			}
		}
		lo, hi := index[dir]+1, index[dir]
		for _, i := range descendants {
			if i > hi {
				hi = i
			}
			if i < lo {
				t.Errorf("descendant of %q yielded before the directory itself", dir)
			}
		}
		if hi-index[dir] != len(descendants) {
			t.Errorf("subtree of %q not contiguous: dir at %d, descendants at %v", dir, index[dir], descendants)
		}
	}
}

// TestNewWalkerMissingRoot tests construction on a non-existent root.
func TestNewWalkerMissingRoot(t *testing.T) {
	_, err := NewWalker(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatalf("expected error for missing root, got nil")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

// TestNewWalkerRootIsFile tests construction on a plain file.
func TestNewWalkerRootIsFile(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, "plain.txt")

	_, err := NewWalker(filepath.Join(root, "plain.txt"))
	if err == nil {
		t.Fatalf("expected error for file root, got nil")
	}
}

// TestNewWalkerUnreadableRoot tests construction on a directory that
// cannot be listed.
func TestNewWalkerUnreadableRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, permission checks are bypassed")
	}

	root := t.TempDir()
	denied := filepath.Join(root, "denied")
	if err := os.Mkdir(denied, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.Chmod(denied, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(denied, 0o755) })

	_, err := NewWalker(denied)
	if err == nil {
		t.Fatalf("expected error for unreadable root, got nil")
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("expected fs.ErrPermission, got %v", err)
	}
}

// TestPermissionDeniedSubdir tests that an unreadable subdirectory is
// yielded as its own Ok entry, immediately followed by one error item
// for the failed descent, and that traversal then continues.
func TestPermissionDeniedSubdir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, permission checks are bypassed")
	}

	root := t.TempDir()
	buildTree(t, root, "denied/hidden.txt", "visible.txt")
	denied := filepath.Join(root, "denied")
	if err := os.Chmod(denied, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(denied, 0o755) })

	w, err := NewWalker(root)
	if err != nil {
		t.Fatalf("NewWalker failed: %v", err)
	}
	defer w.Close()

	type item struct {
		path string
		err  error
	}
	var items []item
	for w.Next() {
		items = append(items, item{path: w.Entry().Path(), err: w.Err()})
	}

	deniedAt := -1
	for i, it := range items {
		if it.err == nil && it.path == denied {
			deniedAt = i
		}
	}
	if deniedAt == -1 {
		t.Fatalf("denied directory's own entry was not yielded: %+v", items)
	}
	if deniedAt+1 >= len(items) || items[deniedAt+1].err == nil {
		t.Fatalf("expected an error item immediately after the denied directory, got %+v", items)
	}
	if !errors.Is(items[deniedAt+1].err, fs.ErrPermission) {
		t.Errorf("expected permission error, got %v", items[deniedAt+1].err)
	}

	// The sibling is still reached.
	var sawSibling bool
	for _, it := range items {
		if it.err == nil && it.path == filepath.Join(root, "visible.txt") {
			sawSibling = true
		}
	}
	if !sawSibling {
		t.Errorf("traversal did not continue past the denied directory")
	}

	errCount := 0
	for _, it := range items {
		if it.err != nil {
			errCount++
		}
	}
	if errCount != 1 {
		t.Errorf("expected exactly 1 error item, got %d", errCount)
	}
}

// TestWalkerClose tests early abandonment: Close releases all frames
// and the walker stays exhausted.
func TestWalkerClose(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, "sub/a.txt", "sub/deep/b.txt")

	w, err := NewWalker(root)
	if err != nil {
		t.Fatalf("NewWalker failed: %v", err)
	}
	if !w.Next() {
		t.Fatalf("expected at least one item")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if w.Next() {
		t.Errorf("Next returned true after Close")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

// TestWalkerAllStopsEarly tests that breaking out of the sequence view
// closes the walker.
func TestWalkerAllStopsEarly(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, "sub/a.txt", "sub/deep/b.txt", "c.txt")

	w, err := NewWalker(root)
	if err != nil {
		t.Fatalf("NewWalker failed: %v", err)
	}

	for range w.All() {
		break
	}
	if w.Next() {
		t.Errorf("walker still live after abandoned All loop")
	}
}

// TestWalkerStats tests the walk counters.
func TestWalkerStats(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, "a.txt", "sub/b.txt", "sub/deep/c.txt")

	w, err := NewWalker(root)
	if err != nil {
		t.Fatalf("NewWalker failed: %v", err)
	}
	defer w.Close()

	for w.Next() {
	}

	stats := w.Stats()
	if stats.Files != 3 {
		t.Errorf("expected 3 files, got %d", stats.Files)
	}
	if stats.Dirs != 2 {
		t.Errorf("expected 2 dirs, got %d", stats.Dirs)
	}
	if stats.Errors != 0 {
		t.Errorf("expected 0 errors, got %d", stats.Errors)
	}
	// root -> sub -> sub/deep all live on the stack at once.
	if stats.MaxStackDepth != 3 {
		t.Errorf("expected max stack depth 3, got %d", stats.MaxStackDepth)
	}
}

// TestSymlinkedDirNotFollowed tests that a symlink to a directory is
// yielded as a plain entry and never descended into.
func TestSymlinkedDirNotFollowed(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, "target/inner.txt")
	link := filepath.Join(root, "link")
	if err := os.Symlink(filepath.Join(root, "target"), link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	w, err := NewWalker(root)
	if err != nil {
		t.Fatalf("NewWalker failed: %v", err)
	}
	defer w.Close()

	paths, errs := collect(t, w, root)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	for _, p := range paths {
		if strings.HasPrefix(p, "link"+string(filepath.Separator)) {
			t.Errorf("descended through symlink: %q", p)
		}
	}
	var sawLink bool
	for _, p := range paths {
		if p == "link" {
			sawLink = true
		}
	}
	if !sawLink {
		t.Errorf("symlink entry itself was not yielded")
	}
}
