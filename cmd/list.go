package cmd

import (
	"fmt"
	"os"

	"github.com/dotcommander/postindex/internal/build"
	"github.com/dotcommander/postindex/internal/config"
	"github.com/dotcommander/postindex/internal/outputters"
	"github.com/spf13/cobra"
)

var (
	listLimit    int
	listCategory string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the post index to the terminal",
	Long: `List builds the index and prints it newest first, whatever --format says.
Use --limit to show only the newest posts and --category to filter by category.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runList(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Show at most this many posts (0 shows all)")
	listCmd.Flags().StringVar(&listCategory, "category", "", "Only show posts in this category")
}

func runList(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	builder, err := build.FromConfig(cfg, log)
	if err != nil {
		return err
	}
	result, err := builder.Run(cmd.Context())
	if err != nil {
		return err
	}

	if listCategory != "" {
		filtered := result.Posts[:0]
		for _, post := range result.Posts {
			if post.Category == listCategory {
				filtered = append(filtered, post)
			}
		}
		result.Posts = filtered
	}
	if listLimit > 0 && len(result.Posts) > listLimit {
		result.Posts = result.Posts[:listLimit]
	}

	return outputters.NewOutputter(cfg, cmd.OutOrStdout(), Version).Format(result, config.FormatConsole)
}
