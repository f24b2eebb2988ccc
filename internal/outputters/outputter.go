// Package outputters picks the formatter for a build result from the configuration.
package outputters

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dotcommander/postindex/internal/build"
	"github.com/dotcommander/postindex/internal/config"
	"github.com/dotcommander/postindex/internal/output"
)

// Formatter renders a build result.
type Formatter interface {
	Format(result *build.Result) error
}

// FormatterFactory creates formatters by format name.
type FormatterFactory interface {
	CreateFormatter(format string) (Formatter, error)
}

// DefaultFormatterFactory builds the console, json and markdown formatters.
type DefaultFormatterFactory struct {
	cfg     *config.Config
	w       io.Writer
	version string
}

// NewDefaultFormatterFactory creates a factory whose formatters write to w. A nil w means
// stdout. version is recorded in generated data files.
func NewDefaultFormatterFactory(cfg *config.Config, w io.Writer, version string) *DefaultFormatterFactory {
	if w == nil {
		w = os.Stdout
	}
	return &DefaultFormatterFactory{cfg: cfg, w: w, version: version}
}

// CreateFormatter returns the formatter for format.
func (f *DefaultFormatterFactory) CreateFormatter(format string) (Formatter, error) {
	switch format {
	case config.FormatConsole:
		return output.NewConsoleFormatter(f.w, f.cfg.Quiet, f.cfg.Verbose), nil
	case config.FormatJSON:
		return output.NewJSONFormatter(f.w, f.cfg.Site, f.version, true, f.cfg.Output), nil
	case config.FormatMarkdown:
		return output.NewMarkdownFormatter(f.w, f.cfg.Site, f.cfg.Output), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Outputter handles output formatting
type Outputter struct {
	config  *config.Config
	factory FormatterFactory
}

// NewOutputter creates an Outputter using the default formatters
func NewOutputter(cfg *config.Config, w io.Writer, version string) *Outputter {
	return NewOutputterWithFactory(cfg, NewDefaultFormatterFactory(cfg, w, version))
}

// NewOutputterWithFactory creates an Outputter using a custom factory
func NewOutputterWithFactory(cfg *config.Config, factory FormatterFactory) *Outputter {
	return &Outputter{config: cfg, factory: factory}
}

// Format formats the build result using the given format
func (o *Outputter) Format(result *build.Result, format string) error {
	if result.StartTime.IsZero() {
		result.StartTime = time.Now()
	}
	if result.Root == "" {
		result.Root = o.config.Root
	}

	formatter, err := o.factory.CreateFormatter(format)
	if err != nil {
		return err
	}
	if err := formatter.Format(result); err != nil {
		return fmt.Errorf("error writing %s output: %w", format, err)
	}
	return nil
}
