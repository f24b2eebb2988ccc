package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dotcommander/postindex/internal/config"
	"github.com/dotcommander/postindex/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rootPath      string
	quiet         bool
	verbose       bool
	outputFormat  string
	outputFile    string
	onInvalidDate string
	logLevel      string
)

// exitFunc is swapped out in tests.
var exitFunc = os.Exit

// Version is overridden at build time with -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "postindex",
	Short: "Build the date-sorted post index for a VitePress blog",
	Long: `postindex reads the front-matter of every blog post, normalizes each post's date
to a sortable timestamp and a long-form display string, and produces the
newest-first index the blog's listing page renders.

Running postindex without a subcommand is the same as 'postindex build'.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitFunc(1)
	}
}

// flagKeys maps config keys to the persistent flags that override them.
var flagKeys = map[string]string{
	"root":          "root",
	"format":        "format",
	"output":        "output",
	"onInvalidDate": "on-invalid-date",
	"quiet":         "quiet",
	"verbose":       "verbose",
	"logLevel":      "log-level",
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization
	// cycle (rootCmd -> runBuild -> loadConfig -> rootCmd).
	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		if err := runBuild(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
		}
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&rootPath, "root", "r", "", "Site root directory (auto-detected if not specified)")
	flags.StringVarP(&outputFormat, "format", "f", config.FormatConsole, "Output format (console|json|markdown)")
	flags.StringVarP(&outputFile, "output", "o", "", "Write json or markdown output to this file instead of stdout")
	flags.StringVar(&onInvalidDate, "on-invalid-date", "fail", "What to do with a post whose date cannot be parsed (fail|skip)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	flags.StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
}

// loadConfig reads configuration through a fresh viper instance bound to the persistent flags.
func loadConfig() (*config.Config, error) {
	v := viper.New()
	for key, name := range flagKeys {
		if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			return nil, fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}

	cfg, err := config.Load(v, rootPath)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logger.Logger {
	log := logger.New(cfg.LogLevel)
	switch {
	case cfg.Quiet:
		log.SetLevel("error")
	case cfg.Verbose && logger.ParseLevel(cfg.LogLevel) > slog.LevelDebug:
		log.SetLevel("debug")
	}
	return log
}
