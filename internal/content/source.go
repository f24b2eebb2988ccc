// Package content discovers post files and turns them into raw post records.
package content

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dotcommander/postindex/internal/logger"
	"github.com/dotcommander/postindex/internal/posts"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// DefaultPattern matches the blog's post files relative to the site root.
const DefaultPattern = "blog/posts/*.md"

// Source supplies a fresh snapshot of post records.
type Source interface {
	Load(ctx context.Context) ([]posts.Record, error)
}

// StaticSource is an in-memory Source.
type StaticSource []posts.Record

// Load returns a copy of the records.
func (s StaticSource) Load(ctx context.Context) ([]posts.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]posts.Record, len(s))
	copy(out, s)
	return out, nil
}

// Options configures a FileSource.
type Options struct {
	// Pattern is a doublestar glob relative to the site root.
	Pattern string
	// ExcerptSeparator ends the excerpt. Files without it have no excerpt.
	ExcerptSeparator string
	// Base is the URL prefix the site is served under.
	Base string
	// CleanURLs drops the .html suffix from post URLs.
	CleanURLs bool
	// RenderExcerpt renders excerpts from Markdown to HTML.
	RenderExcerpt bool
	Logger        *logger.Logger
}

// FileSource reads post records from a file system.
type FileSource struct {
	fsys      fs.FS
	root      string
	pattern   string
	separator string
	base      string
	cleanURLs bool
	markdown  goldmark.Markdown
	log       *logger.Logger
}

// NewFileSource creates a FileSource over fsys. Empty options take their defaults.
func NewFileSource(fsys fs.FS, opts Options) *FileSource {
	s := &FileSource{
		fsys:      fsys,
		pattern:   opts.Pattern,
		separator: opts.ExcerptSeparator,
		base:      normalizeBase(opts.Base),
		cleanURLs: opts.CleanURLs,
		log:       opts.Logger,
	}
	if s.pattern == "" {
		s.pattern = DefaultPattern
	}
	if s.separator == "" {
		s.separator = DefaultExcerptSeparator
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	if opts.RenderExcerpt {
		s.markdown = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		)
	}
	return s
}

// NewDirSource creates a FileSource rooted at a directory on disk.
func NewDirSource(root string, opts Options) *FileSource {
	s := NewFileSource(os.DirFS(root), opts)
	s.root = root
	return s
}

// Load enumerates matching files in path order and converts each into a record.
func (s *FileSource) Load(ctx context.Context) ([]posts.Record, error) {
	matches, err := doublestar.Glob(s.fsys, s.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("error evaluating pattern %s: %w", s.pattern, err)
	}
	sort.Strings(matches)
	s.log.Debug("discovered post files", "pattern", s.pattern, "count", len(matches))

	records := make([]posts.Record, 0, len(matches))
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := s.loadFile(match)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *FileSource) loadFile(rel string) (posts.Record, error) {
	display := s.displayPath(rel)

	data, err := fs.ReadFile(s.fsys, rel)
	if err != nil {
		return posts.Record{}, fmt.Errorf("failed to read post %s: %w", display, err)
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return posts.Record{}, fmt.Errorf("failed to parse front-matter in %s: %w", display, err)
	}

	record := posts.Record{
		URL:         PageURL(rel, s.base, s.cleanURLs),
		Frontmatter: doc.Frontmatter,
		Source:      display,
	}
	if excerpt, ok := doc.Excerpt(s.separator); ok {
		if s.markdown != nil {
			excerpt, err = s.render(excerpt)
			if err != nil {
				return posts.Record{}, fmt.Errorf("failed to render excerpt of %s: %w", display, err)
			}
		}
		record.Excerpt = &excerpt
	}
	return record, nil
}

func (s *FileSource) render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *FileSource) displayPath(rel string) string {
	if s.root == "" {
		return rel
	}
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// PageURL maps a Markdown path relative to the site root to the URL it is served at.
// An index.md maps to its directory.
func PageURL(rel, base string, cleanURLs bool) string {
	base = normalizeBase(base)
	rel = strings.TrimPrefix(path.Clean(filepath.ToSlash(rel)), "/")
	rel = strings.TrimSuffix(rel, path.Ext(rel))

	if rel == "index" {
		return base
	}
	if strings.HasSuffix(rel, "/index") {
		return base + strings.TrimSuffix(rel, "index")
	}
	if cleanURLs {
		return base + rel
	}
	return base + rel + ".html"
}

func normalizeBase(base string) string {
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
