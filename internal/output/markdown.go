package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dotcommander/postindex/internal/build"
	"github.com/dotcommander/postindex/internal/config"
)

// MarkdownFormatter renders the post index as a Markdown listing page
type MarkdownFormatter struct {
	w          io.Writer
	site       config.SiteConfig
	outputFile string
}

// NewMarkdownFormatter creates a new MarkdownFormatter. An empty outputFile writes to w.
func NewMarkdownFormatter(w io.Writer, site config.SiteConfig, outputFile string) *MarkdownFormatter {
	return &MarkdownFormatter{
		w:          w,
		site:       site,
		outputFile: outputFile,
	}
}

// Format renders the listing page
func (f *MarkdownFormatter) Format(result *build.Result) error {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("# %s\n\n", f.site.Title))
	if f.site.Description != "" {
		builder.WriteString(fmt.Sprintf("%s\n\n", f.site.Description))
	}
	if len(f.site.Nav) > 0 {
		links := make([]string, len(f.site.Nav))
		for i, item := range f.site.Nav {
			links[i] = fmt.Sprintf("[%s](%s)", item.Text, item.Link)
		}
		builder.WriteString(strings.Join(links, " · ") + "\n\n")
	}

	if len(result.Posts) == 0 {
		builder.WriteString("*No posts yet.*\n")
	}

	for i, post := range result.Posts {
		if i > 0 {
			builder.WriteString("---\n\n")
		}
		title := post.Title
		if title == "" {
			title = post.URL
		}
		builder.WriteString(fmt.Sprintf("## [%s](%s)\n\n", title, post.URL))
		builder.WriteString(fmt.Sprintf("*%s* · %s\n\n", post.Category, post.Date.String))
		if post.FeatureImageURL != nil {
			builder.WriteString(fmt.Sprintf("![%s](%s)\n\n", title, *post.FeatureImageURL))
		}
		if post.Excerpt != nil {
			if excerpt := strings.TrimSpace(*post.Excerpt); excerpt != "" {
				builder.WriteString(excerpt + "\n\n")
			}
		}
	}

	if f.site.Footer.Copyright != "" {
		builder.WriteString(fmt.Sprintf("<small>%s</small>\n", f.site.Footer.Copyright))
	}

	return writeOutput(f.w, f.outputFile, []byte(builder.String()))
}
