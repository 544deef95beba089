package amble

import (
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// The adaptors in this file are lazy, single-item-at-a-time stages meant
// to be stacked in front of a Walker's All sequence. None of them
// buffers more than the item currently in flight, and the filters never
// inspect error items: those pass through untouched so the consumer
// still sees every failure unless it explicitly discards them.

// AllowExtensions keeps only the entries whose path extension is in the
// allowed set. Extensions may be given with or without the leading dot.
// Entries without an extension are dropped; errors pass through.
func AllowExtensions(src iter.Seq2[Entry, error], extensions ...string) iter.Seq2[Entry, error] {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	return func(yield func(Entry, error) bool) {
		for ent, err := range src {
			if err != nil {
				if !yield(Entry{}, err) {
					return
				}
				continue
			}
			ext := filepath.Ext(ent.Path())
			if ext == "" {
				continue
			}
			if _, ok := allowed[ext]; !ok {
				continue
			}
			if !yield(ent, nil) {
				return
			}
		}
	}
}

// WithComponent keeps only the entries whose path contains the given
// path component anywhere. Errors pass through.
func WithComponent(src iter.Seq2[Entry, error], component string) iter.Seq2[Entry, error] {
	return filterEntries(src, func(e Entry) bool {
		return hasComponent(e.Path(), component)
	})
}

// WithoutComponent drops the entries whose path contains the given path
// component anywhere; the usual way to prune trees like ".git" or
// "node_modules" from a listing. Errors pass through.
func WithoutComponent(src iter.Seq2[Entry, error], component string) iter.Seq2[Entry, error] {
	return filterEntries(src, func(e Entry) bool {
		return !hasComponent(e.Path(), component)
	})
}

// MatchGlob keeps only the entries whose path matches the doublestar
// pattern. The pattern is validated up front; a bad pattern is a
// configuration error, not a per-item one.
func MatchGlob(src iter.Seq2[Entry, error], pattern string) (iter.Seq2[Entry, error], error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("amble: invalid glob pattern %q", pattern)
	}
	return filterEntries(src, func(e Entry) bool {
		ok, _ := doublestar.PathMatch(pattern, e.Path())
		return ok
	}), nil
}

func filterEntries(src iter.Seq2[Entry, error], keep func(Entry) bool) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for ent, err := range src {
			if err != nil {
				if !yield(Entry{}, err) {
					return
				}
				continue
			}
			if !keep(ent) {
				continue
			}
			if !yield(ent, nil) {
				return
			}
		}
	}
}

func hasComponent(path, component string) bool {
	for _, c := range strings.Split(filepath.Clean(path), string(filepath.Separator)) {
		if c == component {
			return true
		}
	}
	return false
}

// Paths projects a sequence of entries to a sequence of their paths.
// Pure and total; errors pass through unchanged.
func Paths(src iter.Seq2[Entry, error]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for ent, err := range src {
			if err != nil {
				if !yield("", err) {
					return
				}
				continue
			}
			if !yield(ent.Path(), nil) {
				return
			}
		}
	}
}

// ReRooter rewrites paths that start with a source prefix so that they
// start with a replacement prefix instead. Paths that do not start with
// the source prefix pass through unchanged.
type ReRooter struct {
	from string
	to   string
}

// NewReRooter validates the prefix pair. The source prefix must be
// non-empty and the two prefixes must agree on being absolute or
// relative; a substitution across that boundary cannot preserve the
// meaning of a path. An empty replacement erases the prefix.
func NewReRooter(from, to string) (*ReRooter, error) {
	if from == "" {
		return nil, errors.New("amble: re-root source prefix must not be empty")
	}
	if to != "" && filepath.IsAbs(from) != filepath.IsAbs(to) {
		return nil, fmt.Errorf("amble: re-root prefixes %q and %q mix absolute and relative paths", from, to)
	}
	return &ReRooter{from: from, to: to}, nil
}

// Rewrite applies the substitution to a single path. The second return
// reports whether the path matched the source prefix.
func (r *ReRooter) Rewrite(path string) (string, bool) {
	rel, err := filepath.Rel(r.from, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path, false
	}
	if rel == "." {
		return r.to, true
	}
	return filepath.Join(r.to, rel), true
}

// Apply lifts Rewrite over a lazy path sequence. Errors pass through.
func (r *ReRooter) Apply(src iter.Seq2[string, error]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for path, err := range src {
			if err != nil {
				if !yield("", err) {
					return
				}
				continue
			}
			rooted, _ := r.Rewrite(path)
			if !yield(rooted, nil) {
				return
			}
		}
	}
}

// DiscardErrors drops every error item and yields the unwrapped values.
// Discarded errors are gone; use CollectErrors to keep them.
func DiscardErrors[T any](src iter.Seq2[T, error]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v, err := range src {
			if err != nil {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

// CollectErrors drops every error item like DiscardErrors but appends
// each one to errs, so the consumer can inspect the failures after the
// walk without interleaving them with the values.
func CollectErrors[T any](src iter.Seq2[T, error], errs *[]error) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v, err := range src {
			if err != nil {
				*errs = append(*errs, err)
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}
