package walk

import (
	"context"
	"iter"
	"regexp"

	internal "github.com/TFMV/amble/internal/walk"
)

// Re-export the types from the internal package.
type (
	// Entry describes one filesystem child found during traversal.
	Entry = internal.Entry

	// Walker steps through a directory tree pre-order, depth first.
	Walker = internal.Walker

	// Stats holds counters maintained across a walk.
	Stats = internal.Stats

	// ReRooter rewrites path prefixes in a lazy path sequence.
	ReRooter = internal.ReRooter

	// DirFinder searches for directories with a matching path component.
	DirFinder = internal.DirFinder

	// FindOptions defines the criteria for finding files.
	FindOptions = internal.FindOptions

	// FindMessage holds information about a found file.
	FindMessage = internal.FindMessage

	// FindResult is a found file or a traversal failure.
	FindResult = internal.FindResult

	// FindHandler processes each found file.
	FindHandler = internal.FindHandler

	// Watch types.
	WatchEvent   = internal.WatchEvent
	WatchOptions = internal.WatchOptions
	WatchMessage = internal.WatchMessage
	WatchResult  = internal.WatchResult
	WatchHandler = internal.WatchHandler

	// LogLevel defines the verbosity of logging.
	LogLevel = internal.LogLevel
)

// Re-export the constants.
const (
	EventCreate = internal.EventCreate
	EventModify = internal.EventModify
	EventDelete = internal.EventDelete
	EventRename = internal.EventRename
	EventChmod  = internal.EventChmod

	LogLevelError = internal.LogLevelError
	LogLevelWarn  = internal.LogLevelWarn
	LogLevelInfo  = internal.LogLevelInfo
	LogLevelDebug = internal.LogLevelDebug
)

// NewWalker returns a Walker rooted at root, failing if the root cannot
// be listed.
func NewWalker(root string) (*Walker, error) {
	return internal.NewWalker(root)
}

// Walk returns a single-use lazy sequence over the tree rooted at root.
func Walk(root string) (iter.Seq2[Entry, error], error) {
	return internal.Walk(root)
}

// NewDirFinder returns a DirFinder rooted at root matching component.
func NewDirFinder(root, component string) (*DirFinder, error) {
	return internal.NewDirFinder(root, component)
}

// FindDirs returns a lazy sequence of directories under root whose path
// contains component.
func FindDirs(root, component string) (iter.Seq2[Entry, error], error) {
	return internal.FindDirs(root, component)
}

// AllowExtensions keeps only entries whose extension is in the set.
func AllowExtensions(src iter.Seq2[Entry, error], extensions ...string) iter.Seq2[Entry, error] {
	return internal.AllowExtensions(src, extensions...)
}

// WithComponent keeps only entries whose path contains the component.
func WithComponent(src iter.Seq2[Entry, error], component string) iter.Seq2[Entry, error] {
	return internal.WithComponent(src, component)
}

// WithoutComponent drops entries whose path contains the component.
func WithoutComponent(src iter.Seq2[Entry, error], component string) iter.Seq2[Entry, error] {
	return internal.WithoutComponent(src, component)
}

// MatchGlob keeps only entries whose path matches the doublestar pattern.
func MatchGlob(src iter.Seq2[Entry, error], pattern string) (iter.Seq2[Entry, error], error) {
	return internal.MatchGlob(src, pattern)
}

// Paths projects a sequence of entries to a sequence of their paths.
func Paths(src iter.Seq2[Entry, error]) iter.Seq2[string, error] {
	return internal.Paths(src)
}

// NewReRooter validates a prefix substitution pair.
func NewReRooter(from, to string) (*ReRooter, error) {
	return internal.NewReRooter(from, to)
}

// DiscardErrors drops every error item, yielding the unwrapped values.
func DiscardErrors[T any](src iter.Seq2[T, error]) iter.Seq[T] {
	return internal.DiscardErrors(src)
}

// CollectErrors drops error items, appending each one to errs.
func CollectErrors[T any](src iter.Seq2[T, error], errs *[]error) iter.Seq[T] {
	return internal.CollectErrors(src, errs)
}

// Find searches for files matching the criteria in opts.
func Find(ctx context.Context, root string, opts FindOptions, handler FindHandler) error {
	return internal.Find(ctx, root, opts, handler)
}

// FindWithExec searches for files and executes a command per match.
func FindWithExec(ctx context.Context, root string, opts FindOptions, cmdTemplate string) error {
	return internal.FindWithExec(ctx, root, opts, cmdTemplate)
}

// FindWithFormat searches for files and formats output per a template.
func FindWithFormat(ctx context.Context, root string, opts FindOptions, formatTemplate string) error {
	return internal.FindWithFormat(ctx, root, opts, formatTemplate)
}

// CompileRegex compiles an NFC-normalized regular expression for
// FindOptions.RegexPattern.
func CompileRegex(expr string) (*regexp.Regexp, error) {
	return internal.CompileRegex(expr)
}

// Watch monitors a directory for filesystem changes.
func Watch(ctx context.Context, root string, opts WatchOptions, handler WatchHandler) error {
	return internal.Watch(ctx, root, opts, handler)
}

// WatchWithExec watches for changes and executes a command per event.
func WatchWithExec(ctx context.Context, root string, opts WatchOptions, cmdTemplate string) error {
	return internal.WatchWithExec(ctx, root, opts, cmdTemplate)
}

// WatchWithFormat watches for changes and formats output per event.
func WatchWithFormat(ctx context.Context, root string, opts WatchOptions, formatTemplate string) error {
	return internal.WatchWithFormat(ctx, root, opts, formatTemplate)
}
