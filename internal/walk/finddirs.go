package amble

import (
	"errors"
	"io"
	"iter"
	"path/filepath"
)

// DirFinder recursively searches a tree for directories whose path
// contains a given component. A matching directory is yielded without
// descending into it; non-matching directories are descended into but
// not yielded; plain files are skipped entirely. I/O failures surface as
// error items, same as for Walker.
type DirFinder struct {
	component string
	frames    []*frame
	cur       Entry
	curErr    error
}

// NewDirFinder returns a DirFinder rooted at root, matching directories
// whose path contains component. It fails if root cannot be listed.
func NewDirFinder(root, component string) (*DirFinder, error) {
	f, err := openFrame(root)
	if err != nil {
		return nil, err
	}
	return &DirFinder{component: component, frames: []*frame{f}}, nil
}

// Next advances to the next match or error item, available through
// Entry and Err. It returns false once the search space is exhausted.
func (d *DirFinder) Next() bool {
	d.cur, d.curErr = Entry{}, nil
	for len(d.frames) > 0 {
		top := d.frames[len(d.frames)-1]
		ent, err := top.next()
		if err == io.EOF {
			top.close()
			d.frames = d.frames[:len(d.frames)-1]
			continue
		}
		if err != nil {
			d.curErr = err
			return true
		}
		path := filepath.Join(top.path, ent.Name())
		info, err := ent.Info()
		if err != nil {
			d.curErr = err
			return true
		}
		if !info.IsDir() {
			continue
		}
		if hasComponent(path, d.component) {
			// Found one; its contents are deliberately not searched.
			d.cur = Entry{path: path, DirEntry: ent}
			return true
		}
		sub, err := openFrame(path)
		if err != nil {
			d.curErr = err
			return true
		}
		d.frames = append(d.frames, sub)
	}
	return false
}

// Entry returns the directory entry of the most recent match.
func (d *DirFinder) Entry() Entry {
	return d.cur
}

// Err returns the error of the most recent item, if it was an error item.
func (d *DirFinder) Err() error {
	return d.curErr
}

// Close releases the directory handles of all remaining frames.
func (d *DirFinder) Close() error {
	var errs []error
	for i := len(d.frames) - 1; i >= 0; i-- {
		if err := d.frames[i].close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.frames = nil
	return errors.Join(errs...)
}

// All returns the finder as a lazy sequence. Single-use; the finder is
// closed when the loop ends.
func (d *DirFinder) All() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		defer d.Close()
		for d.Next() {
			if !yield(d.cur, d.curErr) {
				return
			}
		}
	}
}

// FindDirs returns a lazy sequence of directories under root whose path
// contains component.
func FindDirs(root, component string) (iter.Seq2[Entry, error], error) {
	d, err := NewDirFinder(root, component)
	if err != nil {
		return nil, err
	}
	return d.All(), nil
}
