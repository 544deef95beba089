// Package amble provides lazy, composable filesystem traversal primitives.
package amble

import (
	"errors"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"syscall"
)

// frameBatchSize is how many directory entries a frame reads from its
// handle per syscall. Entries are still handed out one at a time.
const frameBatchSize = 128

// Entry describes one filesystem child found during traversal. It wraps
// the fs.DirEntry produced by the directory listing and remembers the
// full path the entry was found under.
type Entry struct {
	path string
	fs.DirEntry
}

// Path returns the full path of the entry, root-prefixed; walking "dir"
// containing "a" yields an entry whose Path is "dir/a".
func (e Entry) Path() string {
	return e.path
}

// Stats holds counters maintained across a walk. Mostly useful for
// inspecting how a traversal behaved after the fact.
type Stats struct {
	Files         int64 // Non-directory entries yielded
	Dirs          int64 // Directory entries yielded
	Errors        int64 // Error items yielded
	MaxStackDepth int   // High-water mark of the frame stack
	Iterations    int64 // Advance-loop passes, including frame pops
}

// frame is the traversal state for one directory currently being walked:
// its path, the open handle entries are read from, and the batch of
// entries read ahead but not yet handed out.
type frame struct {
	path  string
	dir   *os.File
	batch []fs.DirEntry
	// listErr is a listing error delivered alongside a non-empty batch;
	// it is reported once the batch drains.
	listErr error
}

// openFrame opens path for listing. It fails if the path cannot be
// opened or is not a directory.
func openFrame(path string) (*frame, error) {
	dir, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := dir.Stat()
	if err != nil {
		dir.Close()
		return nil, err
	}
	if !info.IsDir() {
		dir.Close()
		return nil, &fs.PathError{Op: "walk", Path: path, Err: syscall.ENOTDIR}
	}
	return &frame{path: path, dir: dir}, nil
}

// next returns the next entry of the frame's stream. io.EOF reports
// exhaustion; any other error is a per-item listing failure and leaves
// the frame usable.
func (f *frame) next() (fs.DirEntry, error) {
	if len(f.batch) == 0 {
		if f.listErr != nil {
			err := f.listErr
			f.listErr = nil
			return nil, err
		}
		batch, err := f.dir.ReadDir(frameBatchSize)
		if len(batch) == 0 {
			if err == nil {
				err = io.EOF
			}
			return nil, err
		}
		f.batch = batch
		f.listErr = err
	}
	ent := f.batch[0]
	f.batch = f.batch[1:]
	return ent, nil
}

func (f *frame) close() error {
	if f.dir == nil {
		return nil
	}
	err := f.dir.Close()
	f.dir = nil
	return err
}

// Walker steps through a directory tree in pre-order, depth first,
// yielding one item per filesystem entry reachable from the root (the
// root itself is not yielded). Every I/O failure encountered along the
// way is surfaced as an error item; none of them stops the walk.
//
// The traversal state is an explicit heap-allocated stack of frames, one
// per directory currently being descended into, so the walk depth is
// bounded by memory rather than by the goroutine stack.
//
// A Walker is single-pass and not safe for concurrent use.
type Walker struct {
	frames []*frame
	cur    Entry
	curErr error
	// pending holds a failed-descent error to be yielded on the pull
	// after the directory's own entry.
	pending error
	stats   Stats
}

// NewWalker returns a Walker rooted at root. It fails if root cannot be
// listed: the error wraps the platform cause (fs.ErrNotExist,
// fs.ErrPermission, syscall.ENOTDIR).
func NewWalker(root string) (*Walker, error) {
	f, err := openFrame(root)
	if err != nil {
		return nil, err
	}
	return &Walker{frames: []*frame{f}}, nil
}

// Walk returns a lazy sequence over the tree rooted at root. The
// sequence is single-use; the walker behind it is closed when the
// consumer's loop ends, on every exit path.
func Walk(root string) (iter.Seq2[Entry, error], error) {
	w, err := NewWalker(root)
	if err != nil {
		return nil, err
	}
	return w.All(), nil
}

// Next advances to the next item, which is then available through Entry
// and Err. It must be called before each item, including the first, and
// returns false once the tree is exhausted. Further calls after that
// keep returning false.
func (w *Walker) Next() bool {
	w.cur, w.curErr = Entry{}, nil
	if w.pending != nil {
		w.curErr, w.pending = w.pending, nil
		w.stats.Errors++
		return true
	}
	for len(w.frames) > 0 {
		w.stats.Iterations++
		top := w.frames[len(w.frames)-1]
		ent, err := top.next()
		if err == io.EOF {
			// Frame exhausted. Popping releases the handle; a frame is
			// popped exactly once.
			top.close()
			w.frames = w.frames[:len(w.frames)-1]
			continue
		}
		if err != nil {
			// Listing failure. The frame stays; the same directory is
			// picked up again on the next pull.
			w.curErr = err
			w.stats.Errors++
			return true
		}
		path := filepath.Join(top.path, ent.Name())
		info, err := ent.Info()
		if err != nil {
			// Cannot classify the entry, so it is reported as an error
			// item instead.
			w.curErr = err
			w.stats.Errors++
			return true
		}
		if info.IsDir() {
			w.stats.Dirs++
			sub, err := openFrame(path)
			if err != nil {
				// The directory entry is still yielded; the failed
				// descent follows as the next item.
				w.pending = err
			} else {
				w.frames = append(w.frames, sub)
				if len(w.frames) > w.stats.MaxStackDepth {
					w.stats.MaxStackDepth = len(w.frames)
				}
			}
		} else {
			w.stats.Files++
		}
		w.cur = Entry{path: path, DirEntry: ent}
		return true
	}
	return false
}

// Entry returns the entry for the most recent successful item. It is the
// zero Entry when Err is non-nil.
func (w *Walker) Entry() Entry {
	return w.cur
}

// Err returns the error of the most recent item, if it was an error item.
func (w *Walker) Err() error {
	return w.curErr
}

// Stats returns a snapshot of the walk counters.
func (w *Walker) Stats() Stats {
	return w.stats
}

// Close releases the directory handles of all remaining frames. It is
// how an abandoned walk tears down; a fully consumed walk has already
// released everything.
func (w *Walker) Close() error {
	var errs []error
	for i := len(w.frames) - 1; i >= 0; i-- {
		if err := w.frames[i].close(); err != nil {
			errs = append(errs, err)
		}
	}
	w.frames = nil
	return errors.Join(errs...)
}

// All returns the walker as a lazy sequence of (Entry, error) items,
// exactly one of which is meaningful per iteration. The walker is closed
// when the loop ends, whether by exhaustion or an early break.
func (w *Walker) All() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		defer w.Close()
		for w.Next() {
			if !yield(w.cur, w.curErr) {
				return
			}
		}
	}
}
