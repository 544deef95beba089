package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	amble "github.com/TFMV/amble/walk"
	"github.com/spf13/cobra"
)

var (
	watchEvents        []string
	watchRecursive     bool
	watchExec          string
	watchFormat        string
	watchPattern       string
	watchIgnore        string
	watchTimeout       time.Duration
	watchIncludeHidden bool
)

// watchCmd represents the watch command.
var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch for filesystem changes",
	Long: `Watch for filesystem changes and perform actions when files are created,
modified, or deleted. Recursive watches are primed by walking the tree
lazily and registering every directory found.

Examples:
  amble watch /path/to/watch
  amble watch --events=create,modify --exec="echo Changed: {}" /path/to/watch
  amble watch --pattern="*.go" --format="{base} was {event} at {time}" /path/to/watch
  amble watch --recursive /path/to/watch`,
	Run: func(cmd *cobra.Command, args []string) {
		var watchDir string
		if len(args) > 0 {
			watchDir = args[0]
		} else {
			var err error
			watchDir, err = os.Getwd()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error getting current directory: %v\n", err)
				os.Exit(1)
			}
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var events []amble.WatchEvent
		for _, e := range watchEvents {
			switch strings.ToLower(e) {
			case "create":
				events = append(events, amble.EventCreate)
			case "write", "modify":
				events = append(events, amble.EventModify)
			case "remove", "delete":
				events = append(events, amble.EventDelete)
			case "rename":
				events = append(events, amble.EventRename)
			case "chmod":
				events = append(events, amble.EventChmod)
			default:
				fmt.Fprintf(os.Stderr, "Unknown event type: %s\n", e)
			}
		}

		opts := amble.WatchOptions{
			Events:        events,
			Recursive:     watchRecursive,
			Pattern:       watchPattern,
			IgnorePattern: watchIgnore,
			IncludeHidden: watchIncludeHidden,
			Timeout:       watchTimeout,
		}

		fmt.Printf("Watching %s for changes...\n", watchDir)
		fmt.Println("Press Ctrl+C to exit.")

		var err error
		switch {
		case watchExec != "":
			err = amble.WatchWithExec(ctx, watchDir, opts, watchExec)
		case watchFormat != "":
			err = amble.WatchWithFormat(ctx, watchDir, opts, watchFormat)
		default:
			err = amble.Watch(ctx, watchDir, opts, nil)
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "Error watching directory: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringSliceVar(&watchEvents, "events", []string{}, "Events to watch for (create, modify, delete, rename, chmod)")
	watchCmd.Flags().BoolVar(&watchRecursive, "recursive", false, "Watch subdirectories recursively")
	watchCmd.Flags().StringVar(&watchExec, "exec", "", "Command to execute when an event occurs")
	watchCmd.Flags().StringVar(&watchFormat, "format", "", "Format string for output")
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "", "File pattern to match (e.g., *.go)")
	watchCmd.Flags().StringVar(&watchIgnore, "ignore", "", "File pattern to ignore")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 0, "Duration to watch before exiting (e.g., 1h, 30m)")
	watchCmd.Flags().BoolVar(&watchIncludeHidden, "include-hidden", false, "Include hidden files and directories")
}
