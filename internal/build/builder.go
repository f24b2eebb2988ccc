// Package build runs the post index pipeline: load records, check or index them.
package build

import (
	"context"
	"fmt"
	"time"

	"github.com/dotcommander/postindex/internal/config"
	"github.com/dotcommander/postindex/internal/content"
	"github.com/dotcommander/postindex/internal/logger"
	"github.com/dotcommander/postindex/internal/posts"
	"github.com/dotcommander/postindex/internal/schema"
)

// Result is the outcome of one build.
type Result struct {
	Root      string
	Posts     []posts.Post
	Skipped   []posts.Skipped
	StartTime time.Time
	Duration  time.Duration
}

// CheckResult is the outcome of a front-matter check.
type CheckResult struct {
	Root    string
	Checked int
	Issues  []schema.Issue
}

// HasErrors reports whether any issue has error severity.
func (r *CheckResult) HasErrors() bool {
	return schema.HasErrors(r.Issues)
}

// Builder wires a content source to an indexer.
type Builder struct {
	root    string
	source  content.Source
	indexer *posts.Indexer
	log     *logger.Logger
}

// New creates a Builder from explicit parts.
func New(root string, source content.Source, indexer *posts.Indexer, log *logger.Logger) *Builder {
	if log == nil {
		log = logger.Discard()
	}
	if indexer == nil {
		indexer = posts.NewIndexer(posts.WithLogger(log))
	}
	return &Builder{root: root, source: source, indexer: indexer, log: log}
}

// FromConfig creates a Builder reading posts from cfg.Root.
func FromConfig(cfg *config.Config, log *logger.Logger) (*Builder, error) {
	if log == nil {
		log = logger.Discard()
	}
	dates, err := posts.NewDateFormatter(cfg.Site.Lang)
	if err != nil {
		return nil, fmt.Errorf("site.lang: %w", err)
	}
	indexer := posts.NewIndexer(
		posts.WithPolicy(cfg.Policy()),
		posts.WithDateFormatter(dates),
		posts.WithLogger(log),
	)
	source := content.NewDirSource(cfg.Root, cfg.ContentOptions(log))
	return New(cfg.Root, source, indexer, log), nil
}

// Run loads a fresh snapshot of records and builds the sorted index.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	records, err := b.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading posts: %w", err)
	}
	b.log.Debug("loaded post records", "root", b.root, "count", len(records))

	index, err := b.indexer.Build(records)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Root:      b.root,
		Posts:     index.Posts,
		Skipped:   index.Skipped,
		StartTime: start,
		Duration:  time.Since(start),
	}
	b.log.Info("post index built", "posts", len(result.Posts), "skipped", len(result.Skipped),
		"duration", result.Duration.Round(time.Millisecond))
	return result, nil
}

// Check loads records and validates their front-matter. Dates that pass the schema but
// cannot be parsed are reported as errors too.
func (b *Builder) Check(ctx context.Context) (*CheckResult, error) {
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}

	records, err := b.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading posts: %w", err)
	}

	result := &CheckResult{Root: b.root, Checked: len(records)}
	for _, r := range records {
		file := r.Source
		if file == "" {
			file = r.URL
		}

		issues := validator.ValidatePost(file, r.Frontmatter)
		if !hasFieldIssue(issues, posts.KeyDate) {
			if _, err := b.indexer.Transform(r); err != nil {
				issues = append(issues, schema.Issue{
					File:     file,
					Field:    posts.KeyDate,
					Message:  err.Error(),
					Severity: schema.SeverityError,
				})
			}
		}
		result.Issues = append(result.Issues, issues...)
	}
	return result, nil
}

func hasFieldIssue(issues []schema.Issue, field string) bool {
	for _, issue := range issues {
		if issue.Field == field {
			return true
		}
	}
	return false
}
