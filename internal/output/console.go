package output

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dotcommander/postindex/internal/build"
	"github.com/mattn/go-runewidth"
)

// DefaultSnippetWidth is the display width excerpt snippets are cut to.
const DefaultSnippetWidth = 76

var (
	htmlTag    = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// ConsoleFormatter prints the post index for a terminal
type ConsoleFormatter struct {
	w            io.Writer
	quiet        bool
	verbose      bool
	colorize     bool
	snippetWidth int
}

// NewConsoleFormatter creates a new ConsoleFormatter
func NewConsoleFormatter(w io.Writer, quiet, verbose bool) *ConsoleFormatter {
	return &ConsoleFormatter{
		w:            w,
		quiet:        quiet,
		verbose:      verbose,
		colorize:     true,
		snippetWidth: DefaultSnippetWidth,
	}
}

// Format prints each post followed by a one-line summary
func (f *ConsoleFormatter) Format(result *build.Result) error {
	if f.quiet {
		return nil
	}

	if len(result.Posts) == 0 {
		fmt.Fprintln(f.w, "No posts found.")
	}
	for _, post := range result.Posts {
		f.printPost(post.Title, post.Category, post.Date.String, post.URL)
		if post.Excerpt != nil {
			if snippet := Snippet(*post.Excerpt, f.snippetWidth); snippet != "" {
				fmt.Fprintf(f.w, "  %s\n", f.style("8").Render(snippet))
			}
		}
		if post.FeatureImageURL != nil && f.verbose {
			fmt.Fprintf(f.w, "  image: %s\n", *post.FeatureImageURL)
		}
	}

	for _, skipped := range result.Skipped {
		where := skipped.URL
		if skipped.Source != "" {
			where = skipped.Source
		}
		fmt.Fprintf(f.w, "%s %s: %s\n", f.style("3").Render("⚠"), where, skipped.Reason)
	}

	f.printSummary(result)
	return nil
}

func (f *ConsoleFormatter) printPost(title, category, date, url string) {
	if title == "" {
		title = "(untitled)"
	}
	titleStyle := f.style("12").Bold(f.colorize)
	badge := f.style("13").Render("[" + category + "]")

	fmt.Fprintf(f.w, "%s\n", titleStyle.Render(title))
	fmt.Fprintf(f.w, "  %s · %s · %s\n", badge, date, url)
}

func (f *ConsoleFormatter) printSummary(result *build.Result) {
	summary := "\n" + plural(len(result.Posts), "post")
	if len(result.Skipped) > 0 {
		summary += fmt.Sprintf(", %d skipped", len(result.Skipped))
	}
	if f.verbose {
		summary += fmt.Sprintf(" (%v)", result.Duration.Round(time.Millisecond))
	}
	fmt.Fprintln(f.w, summary)
}

func (f *ConsoleFormatter) style(color string) lipgloss.Style {
	if !f.colorize {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Snippet flattens an excerpt to one line of plain text no wider than width columns.
func Snippet(excerpt string, width int) string {
	text := htmlTag.ReplaceAllString(excerpt, " ")
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
