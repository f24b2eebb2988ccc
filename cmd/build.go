package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dotcommander/postindex/internal/build"
	"github.com/dotcommander/postindex/internal/config"
	"github.com/dotcommander/postindex/internal/logger"
	"github.com/dotcommander/postindex/internal/outputters"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the post index",
	Long: `Build reads every post matching content.pattern, builds the newest-first index
and hands it to the configured formatter.

With --format json --output <file> this writes the data file the listing page loads.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runBuild(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return buildAndFormat(cmd.Context(), cfg, newLogger(cfg), cmd.OutOrStdout(), cfg.Format)
}

func buildAndFormat(ctx context.Context, cfg *config.Config, log *logger.Logger, w io.Writer, format string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	builder, err := build.FromConfig(cfg, log)
	if err != nil {
		return err
	}
	result, err := builder.Run(ctx)
	if err != nil {
		return err
	}
	return outputters.NewOutputter(cfg, w, Version).Format(result, format)
}
