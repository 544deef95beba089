package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	amble "github.com/TFMV/amble/internal/walk"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "0.1.0"
)

// rootCmd represents the base command when called without any subcommands.
// On its own it lists every entry under the given path, lazily, with the
// configured adaptors stacked in front of the walker.
var rootCmd = &cobra.Command{
	Use:   "amble [options] <path>",
	Short: "Lazy recursive directory listing",
	Long: `amble walks a directory tree lazily, one entry at a time, and prints
what it finds. Filters (extension, path component, glob) and a path
re-rooting rewrite can be stacked in front of the walk; per-entry I/O
failures are reported inline and never stop the traversal.`,
	Version: version,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(args[0])
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().StringSlice("ext", nil, "Only list entries with these extensions (comma-separated)")
	rootCmd.Flags().String("component", "", "Only list entries whose path contains this component")
	rootCmd.Flags().String("exclude-component", "", "Skip entries whose path contains this component")
	rootCmd.Flags().String("glob", "", "Only list entries whose path matches this glob")
	rootCmd.Flags().String("reroot-from", "", "Source prefix for path re-rooting")
	rootCmd.Flags().String("reroot-to", "", "Replacement prefix for path re-rooting")
	rootCmd.Flags().String("errors", "print", "What to do with per-entry errors (print|discard|collect)")
	rootCmd.Flags().String("format", "text", "Output format (text|json)")
	rootCmd.Flags().Bool("stats", false, "Print walk statistics when done")

	viper.BindPFlag("ext", rootCmd.Flags().Lookup("ext"))
	viper.BindPFlag("component", rootCmd.Flags().Lookup("component"))
	viper.BindPFlag("exclude-component", rootCmd.Flags().Lookup("exclude-component"))
	viper.BindPFlag("glob", rootCmd.Flags().Lookup("glob"))
	viper.BindPFlag("reroot-from", rootCmd.Flags().Lookup("reroot-from"))
	viper.BindPFlag("reroot-to", rootCmd.Flags().Lookup("reroot-to"))
	viper.BindPFlag("errors", rootCmd.Flags().Lookup("errors"))
	viper.BindPFlag("format", rootCmd.Flags().Lookup("format"))
	viper.BindPFlag("stats", rootCmd.Flags().Lookup("stats"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".amble")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func runList(root string) error {
	w, err := amble.NewWalker(root)
	if err != nil {
		return err
	}

	seq := w.All()
	if component := viper.GetString("component"); component != "" {
		seq = amble.WithComponent(seq, component)
	}
	if component := viper.GetString("exclude-component"); component != "" {
		seq = amble.WithoutComponent(seq, component)
	}
	if exts := viper.GetStringSlice("ext"); len(exts) > 0 {
		seq = amble.AllowExtensions(seq, exts...)
	}
	if pattern := viper.GetString("glob"); pattern != "" {
		seq, err = amble.MatchGlob(seq, pattern)
		if err != nil {
			return err
		}
	}

	paths := amble.Paths(seq)
	if from := viper.GetString("reroot-from"); from != "" {
		rerooter, err := amble.NewReRooter(from, viper.GetString("reroot-to"))
		if err != nil {
			return err
		}
		paths = rerooter.Apply(paths)
	}

	var collected []error
	errMode := viper.GetString("errors")
	switch errMode {
	case "print":
		for path, err := range paths {
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			printPath(path)
		}
	case "discard":
		for path := range amble.DiscardErrors(paths) {
			printPath(path)
		}
	case "collect":
		for path := range amble.CollectErrors(paths, &collected) {
			printPath(path)
		}
	default:
		return fmt.Errorf("invalid errors mode: %s", errMode)
	}

	for _, err := range collected {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}

	if viper.GetBool("stats") {
		printStats(w.Stats())
	}
	return nil
}

func printPath(path string) {
	if viper.GetString("format") == "json" {
		line, _ := json.Marshal(map[string]string{
			"path": path,
			"time": time.Now().Format(time.RFC3339),
		})
		fmt.Println(string(line))
		return
	}
	fmt.Println(path)
}

func printStats(stats amble.Stats) {
	if viper.GetString("format") == "json" {
		line, _ := json.Marshal(stats)
		fmt.Println(string(line))
		return
	}
	fmt.Printf("files: %d, dirs: %d, errors: %d, max stack depth: %d, iterations: %d\n",
		stats.Files, stats.Dirs, stats.Errors, stats.MaxStackDepth, stats.Iterations)
}
