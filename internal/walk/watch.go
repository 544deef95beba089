package amble

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchEvent represents a filesystem event type.
type WatchEvent string

// Watch event types.
const (
	EventCreate WatchEvent = "create"
	EventModify WatchEvent = "modify"
	EventDelete WatchEvent = "delete"
	EventRename WatchEvent = "rename"
	EventChmod  WatchEvent = "chmod"
)

// WatchOptions defines options for watching filesystem changes.
type WatchOptions struct {
	// Events to watch for. If empty, all events are watched.
	Events []WatchEvent

	// Whether to watch subdirectories recursively. Recursive watches
	// are primed by walking the tree lazily and registering every
	// directory it yields.
	Recursive bool

	// Pattern to match file names (e.g., "*.go").
	Pattern string

	// Pattern to ignore file names.
	IgnorePattern string

	// Whether to include hidden files and directories.
	IncludeHidden bool

	// Timeout duration (0 means watch until the context is done).
	Timeout time.Duration

	// Logger for non-fatal registration failures. Nil means a default
	// error-level logger.
	Logger *zap.Logger
}

// WatchMessage contains information about a filesystem event.
type WatchMessage struct {
	Path  string     // Full path to the file
	Name  string     // Base name of the file
	Dir   string     // Directory containing the file
	Size  int64      // Size in bytes (0 for deleted files)
	Time  time.Time  // Modification time
	IsDir bool       // Whether it's a directory
	Event WatchEvent // Event type
}

// WatchResult represents a watch event result.
type WatchResult struct {
	Message WatchMessage
	Error   error
}

// WatchHandler is a function that processes watch events.
type WatchHandler func(ctx context.Context, result WatchResult) error

// defaultWatchHandler returns a handler that prints events.
func defaultWatchHandler() WatchHandler {
	return func(ctx context.Context, result WatchResult) error {
		if result.Error != nil {
			return result.Error
		}
		fmt.Printf("%s: %s\n", strings.ToUpper(string(result.Message.Event)), result.Message.Path)
		return nil
	}
}

// Watch monitors a directory for filesystem changes until the context
// is done. Traversal failures while priming recursive watches are
// logged and skipped, matching the walker's partial-tree tolerance.
func Watch(ctx context.Context, root string, opts WatchOptions, handler WatchHandler) error {
	if handler == nil {
		handler = defaultWatchHandler()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(LogLevelError)
		defer logger.Sync()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(root); err != nil {
		return fmt.Errorf("error watching directory %s: %w", root, err)
	}

	if opts.Recursive {
		seq, err := Walk(root)
		if err != nil {
			return fmt.Errorf("error walking directory tree: %w", err)
		}
		for ent, werr := range seq {
			if werr != nil {
				logger.Warn("skipping unreadable path", zap.Error(werr))
				continue
			}
			info, ierr := ent.Info()
			if ierr != nil || !info.IsDir() {
				continue
			}
			if !opts.IncludeHidden && hiddenWithin(root, ent.Path()) {
				continue
			}
			if err := watcher.Add(ent.Path()); err != nil {
				logger.Warn("error watching directory",
					zap.String("path", ent.Path()),
					zap.Error(err),
				)
			}
		}
	}

	eventMap := make(map[fsnotify.Op]bool)
	if len(opts.Events) > 0 {
		for _, e := range opts.Events {
			switch e {
			case EventCreate:
				eventMap[fsnotify.Create] = true
			case EventModify:
				eventMap[fsnotify.Write] = true
			case EventDelete:
				eventMap[fsnotify.Remove] = true
			case EventRename:
				eventMap[fsnotify.Rename] = true
			case EventChmod:
				eventMap[fsnotify.Chmod] = true
			}
		}
	} else {
		eventMap[fsnotify.Create] = true
		eventMap[fsnotify.Write] = true
		eventMap[fsnotify.Remove] = true
		eventMap[fsnotify.Rename] = true
		eventMap[fsnotify.Chmod] = true
	}

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				var eventType WatchEvent
				switch {
				case event.Has(fsnotify.Create) && eventMap[fsnotify.Create]:
					eventType = EventCreate
				case event.Has(fsnotify.Write) && eventMap[fsnotify.Write]:
					eventType = EventModify
				case event.Has(fsnotify.Remove) && eventMap[fsnotify.Remove]:
					eventType = EventDelete
				case event.Has(fsnotify.Rename) && eventMap[fsnotify.Rename]:
					eventType = EventRename
				case event.Has(fsnotify.Chmod) && eventMap[fsnotify.Chmod]:
					eventType = EventChmod
				default:
					continue
				}

				var fileInfo os.FileInfo
				if !event.Has(fsnotify.Remove) {
					var err error
					fileInfo, err = os.Stat(event.Name)
					if err != nil {
						handler(ctx, WatchResult{
							Error: fmt.Errorf("error getting file info for %s: %w", event.Name, err),
						})
						continue
					}

					// New directories join the watch in recursive mode.
					if opts.Recursive && fileInfo.IsDir() && event.Has(fsnotify.Create) {
						if err := watcher.Add(event.Name); err != nil {
							handler(ctx, WatchResult{
								Error: fmt.Errorf("error watching new directory %s: %w", event.Name, err),
							})
						}
					}
				}

				if opts.Pattern != "" {
					matched, err := filepath.Match(opts.Pattern, filepath.Base(event.Name))
					if err != nil || !matched {
						continue
					}
				}
				if opts.IgnorePattern != "" {
					matched, _ := filepath.Match(opts.IgnorePattern, filepath.Base(event.Name))
					if matched {
						continue
					}
				}
				if !opts.IncludeHidden && strings.HasPrefix(filepath.Base(event.Name), ".") {
					continue
				}

				msg := WatchMessage{
					Path:  event.Name,
					Name:  filepath.Base(event.Name),
					Dir:   filepath.Dir(event.Name),
					Time:  time.Now(),
					Event: eventType,
				}
				if fileInfo != nil {
					msg.Size = fileInfo.Size()
					msg.IsDir = fileInfo.IsDir()
					msg.Time = fileInfo.ModTime()
				}

				if err := handler(ctx, WatchResult{Message: msg}); err != nil {
					handler(ctx, WatchResult{
						Error: fmt.Errorf("error handling event: %w", err),
					})
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				handler(ctx, WatchResult{
					Error: fmt.Errorf("watcher error: %w", err),
				})

			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()
	wg.Wait()

	return nil
}

// WatchWithFormat watches for filesystem changes and formats output for
// each event using the same placeholders as the find templates, plus
// {event}.
func WatchWithFormat(ctx context.Context, root string, opts WatchOptions, formatTemplate string) error {
	return Watch(ctx, root, opts, func(ctx context.Context, result WatchResult) error {
		if result.Error != nil {
			return result.Error
		}
		format := strings.ReplaceAll(formatTemplate, "{event}", string(result.Message.Event))
		fmt.Println(formatCommand(format, findMessageFromWatch(result.Message)))
		return nil
	})
}

// WatchWithExec watches for filesystem changes and executes a command
// for each event.
func WatchWithExec(ctx context.Context, root string, opts WatchOptions, cmdTemplate string) error {
	return Watch(ctx, root, opts, func(ctx context.Context, result WatchResult) error {
		if result.Error != nil {
			return result.Error
		}
		cmd := strings.ReplaceAll(cmdTemplate, "{event}", string(result.Message.Event))
		return executeCommand(ctx, formatCommand(cmd, findMessageFromWatch(result.Message)))
	})
}

func findMessageFromWatch(msg WatchMessage) FindMessage {
	return FindMessage{
		Path:  msg.Path,
		Name:  msg.Name,
		Dir:   msg.Dir,
		Size:  msg.Size,
		Time:  msg.Time,
		IsDir: msg.IsDir,
	}
}
