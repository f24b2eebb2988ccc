package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/dotcommander/postindex/internal/build"
	"github.com/dotcommander/postindex/internal/schema"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check post front-matter",
	Long: `Check validates every post's front-matter against the post schema and makes sure
each date can be parsed. It exits non-zero when any error is found; a missing title
is only a warning.`,
	Run: func(cmd *cobra.Command, args []string) {
		failed, err := runCheck(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
			return
		}
		if failed {
			exitFunc(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command) (bool, error) {
	cfg, err := loadConfig()
	if err != nil {
		return false, err
	}

	builder, err := build.FromConfig(cfg, newLogger(cfg))
	if err != nil {
		return false, err
	}
	result, err := builder.Check(cmd.Context())
	if err != nil {
		return false, err
	}

	if !cfg.Quiet || result.HasErrors() {
		printCheckResult(cmd.OutOrStdout(), result)
	}
	return result.HasErrors(), nil
}

func printCheckResult(w io.Writer, result *build.CheckResult) {
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	errCount, warnCount := 0, 0
	for _, issue := range result.Issues {
		marker := warnStyle.Render("⚠")
		if issue.Severity == schema.SeverityError {
			marker = errorStyle.Render("✖")
			errCount++
		} else {
			warnCount++
		}
		if issue.Field != "" {
			fmt.Fprintf(w, "%s %s: %s: %s\n", marker, issue.File, issue.Field, issue.Message)
		} else {
			fmt.Fprintf(w, "%s %s: %s\n", marker, issue.File, issue.Message)
		}
	}

	if len(result.Issues) == 0 {
		fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("✓ All %d posts passed", result.Checked)))
		return
	}
	fmt.Fprintf(w, "\n%d posts checked: %d errors, %d warnings\n", result.Checked, errCount, warnCount)
}
