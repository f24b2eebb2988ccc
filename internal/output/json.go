package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dotcommander/postindex/internal/build"
	"github.com/dotcommander/postindex/internal/config"
	"github.com/dotcommander/postindex/internal/posts"
	"github.com/google/uuid"
)

// Generator identifies the tool in generated files.
const Generator = "postindex"

// JSONFormatter writes the post index as the listing view's data file
type JSONFormatter struct {
	w          io.Writer
	site       config.SiteConfig
	version    string
	indent     bool
	outputFile string
	now        func() time.Time
}

// NewJSONFormatter creates a new JSONFormatter. version is the tool version recorded in the
// envelope. An empty outputFile writes to w.
func NewJSONFormatter(w io.Writer, site config.SiteConfig, version string, indent bool, outputFile string) *JSONFormatter {
	return &JSONFormatter{
		w:          w,
		site:       site,
		version:    version,
		indent:     indent,
		outputFile: outputFile,
		now:        time.Now,
	}
}

// JSONReport is the data file envelope.
type JSONReport struct {
	Generator   string          `json:"generator"`
	Version     string          `json:"version"`
	BuildID     string          `json:"buildId"`
	GeneratedAt string          `json:"generatedAt"`
	Site        JSONSite        `json:"site"`
	Posts       []posts.Post    `json:"posts"`
	Skipped     []posts.Skipped `json:"skipped,omitempty"`
}

type JSONSite struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Lang        string `json:"lang"`
}

// Format writes the index as JSON
func (f *JSONFormatter) Format(result *build.Result) error {
	report := JSONReport{
		Generator:   Generator,
		Version:     f.version,
		BuildID:     uuid.NewString(),
		GeneratedAt: f.now().UTC().Format(time.RFC3339),
		Site: JSONSite{
			Title:       f.site.Title,
			Description: f.site.Description,
			Lang:        f.site.Lang,
		},
		Posts:   result.Posts,
		Skipped: result.Skipped,
	}
	if report.Posts == nil {
		report.Posts = []posts.Post{}
	}

	var data []byte
	var err error
	if f.indent {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("error marshaling post index: %w", err)
	}
	data = append(data, '\n')

	return writeOutput(f.w, f.outputFile, data)
}

// writeOutput writes data to path, creating parent directories, or to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing output file: %w", err)
	}
	return nil
}
