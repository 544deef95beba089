package amble

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// FindMessage holds information about a file found during traversal.
type FindMessage struct {
	Path  string    // Full path to the file
	Name  string    // Base name of the file
	Dir   string    // Directory containing the file
	Size  int64     // Size in bytes
	Time  time.Time // Modification time
	IsDir bool      // Whether the entry is a directory
}

// FindOptions defines the criteria for finding files. All criteria are
// evaluated lazily against the walk, one entry at a time.
type FindOptions struct {
	NamePattern      string         // Match by base name (filepath.Match wildcards)
	Glob             string         // Match by full path (doublestar pattern)
	RegexPattern     *regexp.Regexp // Match by regular expression on the path
	Extensions       []string       // Keep only these extensions
	Component        string         // Keep only paths containing this component
	ExcludeComponent string         // Drop paths containing this component

	OlderThan time.Duration // Files modified longer ago than this
	NewerThan time.Duration // Files modified more recently than this

	LargerSize  int64 // Files larger than this size (bytes)
	SmallerSize int64 // Files smaller than this size (bytes)

	IncludeHidden bool // Whether dot-files and dot-directories are reported

	ExecCmd     string // Command to execute for each match
	PrintFormat string // Format string for output
}

// FindResult represents either a file that matched the find criteria or
// a traversal failure.
type FindResult struct {
	Message FindMessage
	Error   error
}

// FindHandler is a function that processes each found file.
type FindHandler func(ctx context.Context, result FindResult) error

// defaultFindHandler returns a handler that prints matched paths.
func defaultFindHandler() FindHandler {
	return func(ctx context.Context, result FindResult) error {
		if result.Error != nil {
			return result.Error
		}
		fmt.Println(result.Message.Path)
		return nil
	}
}

// execHandler returns a handler that executes a command for each match.
func execHandler(cmdTemplate string) FindHandler {
	return func(ctx context.Context, result FindResult) error {
		if result.Error != nil {
			return result.Error
		}
		return executeCommand(ctx, formatCommand(cmdTemplate, result.Message))
	}
}

// formatHandler returns a handler that formats output per a template.
func formatHandler(formatTemplate string) FindHandler {
	return func(ctx context.Context, result FindResult) error {
		if result.Error != nil {
			return result.Error
		}
		fmt.Println(formatCommand(formatTemplate, result.Message))
		return nil
	}
}

// formatCommand replaces placeholders in a template with message values.
func formatCommand(template string, msg FindMessage) string {
	str := template

	str = strings.ReplaceAll(str, "{}", msg.Path)
	str = strings.ReplaceAll(str, "{base}", msg.Name)
	str = strings.ReplaceAll(str, "{dir}", msg.Dir)
	str = strings.ReplaceAll(str, "{size}", fmt.Sprintf("%d", msg.Size))
	str = strings.ReplaceAll(str, "{time}", msg.Time.Format(time.RFC3339))

	// Quoted versions.
	str = strings.ReplaceAll(str, `{""}`, strconv.Quote(msg.Path))
	str = strings.ReplaceAll(str, `{"base"}`, strconv.Quote(msg.Name))
	str = strings.ReplaceAll(str, `{"dir"}`, strconv.Quote(msg.Dir))
	str = strings.ReplaceAll(str, `{"size"}`, strconv.Quote(fmt.Sprintf("%d", msg.Size)))
	str = strings.ReplaceAll(str, `{"time"}`, strconv.Quote(msg.Time.Format(time.RFC3339)))

	return str
}

// executeCommand runs a formatted command, printing its output.
func executeCommand(ctx context.Context, cmdStr string) error {
	args := strings.Fields(cmdStr)
	if len(args) == 0 {
		return fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("command error: %s: %w", stderr.String(), err)
		}
		return err
	}

	if stdout.Len() > 0 {
		fmt.Print(stdout.String())
	}
	return nil
}

// CompileRegex compiles an NFC-normalized regular expression for use as
// a FindOptions.RegexPattern.
func CompileRegex(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(norm.NFC.String(expr))
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", expr, err)
	}
	return re, nil
}

// matchFind checks the per-file criteria that are not expressed as
// sequence adaptors.
func matchFind(opts FindOptions, msg FindMessage) bool {
	match := true

	if match && opts.NamePattern != "" {
		matched, err := filepath.Match(opts.NamePattern, msg.Name)
		match = err == nil && matched
	}

	if match && opts.RegexPattern != nil {
		match = opts.RegexPattern.MatchString(norm.NFC.String(msg.Path))
	}

	if match && opts.OlderThan > 0 {
		match = time.Since(msg.Time) > opts.OlderThan
	}
	if match && opts.NewerThan > 0 {
		match = time.Since(msg.Time) < opts.NewerThan
	}

	if match && opts.LargerSize > 0 {
		match = msg.Size > opts.LargerSize
	}
	if match && opts.SmallerSize > 0 {
		match = msg.Size < opts.SmallerSize
	}

	return match
}

// hiddenWithin reports whether any component of path below root starts
// with a dot.
func hiddenWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	for _, c := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(c, ".") && c != "." && c != ".." {
			return true
		}
	}
	return false
}

// Find searches for files matching the given criteria and processes
// each match with the handler. Traversal failures are passed to the
// handler as error results; the handler decides whether they abort the
// find. Directories are traversed but not reported.
func Find(ctx context.Context, root string, opts FindOptions, handler FindHandler) error {
	if handler == nil {
		handler = defaultFindHandler()
	}

	seq, err := Walk(root)
	if err != nil {
		return err
	}
	if opts.Component != "" {
		seq = WithComponent(seq, opts.Component)
	}
	if opts.ExcludeComponent != "" {
		seq = WithoutComponent(seq, opts.ExcludeComponent)
	}
	if len(opts.Extensions) > 0 {
		seq = AllowExtensions(seq, opts.Extensions...)
	}
	if opts.Glob != "" {
		seq, err = MatchGlob(seq, opts.Glob)
		if err != nil {
			return err
		}
	}

	for ent, werr := range seq {
		if err := ctx.Err(); err != nil {
			return err
		}
		if werr != nil {
			if herr := handler(ctx, FindResult{Error: werr}); herr != nil {
				return herr
			}
			continue
		}
		if !opts.IncludeHidden && hiddenWithin(root, ent.Path()) {
			continue
		}
		info, ierr := ent.Info()
		if ierr != nil {
			if herr := handler(ctx, FindResult{Error: ierr}); herr != nil {
				return herr
			}
			continue
		}
		if info.IsDir() {
			continue
		}

		msg := FindMessage{
			Path:  ent.Path(),
			Name:  filepath.Base(ent.Path()),
			Dir:   filepath.Dir(ent.Path()),
			Size:  info.Size(),
			Time:  info.ModTime(),
			IsDir: false,
		}
		if matchFind(opts, msg) {
			if herr := handler(ctx, FindResult{Message: msg}); herr != nil {
				return herr
			}
		}
	}
	return nil
}

// FindWithExec searches for files and executes a command for each match.
func FindWithExec(ctx context.Context, root string, opts FindOptions, cmdTemplate string) error {
	opts.ExecCmd = cmdTemplate
	return Find(ctx, root, opts, execHandler(cmdTemplate))
}

// FindWithFormat searches for files and formats output per a template.
func FindWithFormat(ctx context.Context, root string, opts FindOptions, formatTemplate string) error {
	opts.PrintFormat = formatTemplate
	return Find(ctx, root, opts, formatHandler(formatTemplate))
}
