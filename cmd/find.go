package cmd

import (
	"context"
	"fmt"
	"time"

	amble "github.com/TFMV/amble/internal/walk"
	"github.com/spf13/cobra"
)

var (
	findName      string
	findGlob      string
	findRegex     string
	findExts      []string
	findComponent string
	findExclude   string
	findOlder     time.Duration
	findNewer     time.Duration
	findLarger    int64
	findSmaller   int64
	findHidden    bool
	findExec      string
	findFormat    string
)

var findCmd = &cobra.Command{
	Use:   "find [options] <path>",
	Short: "Find files with lazy filtering",
	Long: `Find files by stacking lazy filters in front of the recursive walk.
Supports name wildcards, globs, regular expressions, extension and path
component filters, and time/size constraints. Matches can be printed,
formatted with a template, or fed to a command.

Examples:
  amble find /path/to/search --name="*.go"
  amble find /path/to/search --ext=go,md --exclude-component=.git
  amble find /path/to/search --glob="**/testdata/**"
  amble find /path/to/search --exec="echo Processing: {}"
  amble find /path/to/search --format="{base} ({size} bytes)"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFind(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(findCmd)

	findCmd.Flags().StringVarP(&findName, "name", "n", "", "Match by file name (supports wildcards)")
	findCmd.Flags().StringVar(&findGlob, "glob", "", "Match by path glob (supports ** patterns)")
	findCmd.Flags().StringVarP(&findRegex, "regex", "r", "", "Match by regular expression")
	findCmd.Flags().StringSliceVar(&findExts, "ext", nil, "Match by extension (comma-separated)")
	findCmd.Flags().StringVar(&findComponent, "component", "", "Match paths containing this component")
	findCmd.Flags().StringVar(&findExclude, "exclude-component", "", "Skip paths containing this component")
	findCmd.Flags().DurationVar(&findOlder, "older-than", 0, "Files older than this duration (e.g. 24h, 30m)")
	findCmd.Flags().DurationVar(&findNewer, "newer-than", 0, "Files newer than this duration (e.g. 24h, 30m)")
	findCmd.Flags().Int64Var(&findLarger, "larger-than", 0, "Files larger than this size in bytes")
	findCmd.Flags().Int64Var(&findSmaller, "smaller-than", 0, "Files smaller than this size in bytes")
	findCmd.Flags().BoolVar(&findHidden, "include-hidden", false, "Include hidden files and directories")
	findCmd.Flags().StringVar(&findExec, "exec", "", "Command to execute for each match")
	findCmd.Flags().StringVar(&findFormat, "format", "", "Format string for output")
}

func runFind(ctx context.Context, root string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	opts := amble.FindOptions{
		NamePattern:      findName,
		Glob:             findGlob,
		Extensions:       findExts,
		Component:        findComponent,
		ExcludeComponent: findExclude,
		OlderThan:        findOlder,
		NewerThan:        findNewer,
		LargerSize:       findLarger,
		SmallerSize:      findSmaller,
		IncludeHidden:    findHidden,
	}

	if findRegex != "" {
		re, err := amble.CompileRegex(findRegex)
		if err != nil {
			return err
		}
		opts.RegexPattern = re
	}

	switch {
	case findExec != "":
		return amble.FindWithExec(ctx, root, opts, findExec)
	case findFormat != "":
		return amble.FindWithFormat(ctx, root, opts, findFormat)
	default:
		return amble.Find(ctx, root, opts, func(ctx context.Context, result amble.FindResult) error {
			if result.Error != nil {
				// Keep searching; a partial tree is still useful.
				fmt.Println("error:", result.Error)
				return nil
			}
			fmt.Println(result.Message.Path)
			return nil
		})
	}
}
