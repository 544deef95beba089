package cmd

import (
	"fmt"
	"os"

	amble "github.com/TFMV/amble/internal/walk"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statsDirsWith string

// statsCmd walks a tree to exhaustion and reports the walker's counters.
var statsCmd = &cobra.Command{
	Use:   "stats <path>",
	Short: "Walk a tree and report traversal statistics",
	Long: `Walk the full tree under the given path and report what the walker
saw: file and directory counts, error count, and the high-water mark of
the frame stack (the walker's measure of tree depth).

With --dirs-with, instead count directories whose path contains the
given component, pruning each match from the search.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats(args[0])
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsDirsWith, "dirs-with", "", "Count directories containing this path component")
}

func runStats(root string) error {
	if statsDirsWith != "" {
		seq, err := amble.FindDirs(root, statsDirsWith)
		if err != nil {
			return err
		}
		var matches, errCount int
		for ent, err := range seq {
			if err != nil {
				errCount++
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			matches++
			fmt.Println(ent.Path())
		}
		fmt.Printf("matched dirs: %d, errors: %d\n", matches, errCount)
		return nil
	}

	w, err := amble.NewWalker(root)
	if err != nil {
		return err
	}
	defer w.Close()

	for w.Next() {
		if err := w.Err(); err != nil && viper.GetString("errors") == "print" {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}

	printStats(w.Stats())
	return nil
}
