package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dotcommander/postindex/internal/watch"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the post index whenever a post changes",
	Long: `Watch builds the index once, then rebuilds it each time a post file or the
config file changes, until interrupted. Changes are batched over watch.debounce.
A failed rebuild is logged and the previous output is left in place.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runWatch(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var w *watch.Watcher
	w = watch.New(watch.Options{
		Root:     cfg.Root,
		Pattern:  cfg.Content.Pattern,
		Debounce: cfg.Watch.Debounce,
		Logger:   log.With("cmd", "watch"),
	}, func(ctx context.Context) error {
		// Reload so edits to the config file apply to the next build.
		current, err := loadConfig()
		if err != nil {
			return err
		}
		w.SetPattern(current.Content.Pattern)
		return buildAndFormat(ctx, current, log, cmd.OutOrStdout(), current.Format)
	})
	return w.Run(ctx)
}
