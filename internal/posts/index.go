package posts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dotcommander/postindex/internal/logger"
	"github.com/spf13/cast"
	"go.uber.org/multierr"
)

// Policy decides what happens to a record whose date cannot be parsed.
type Policy string

const (
	// PolicyFail aborts the build and reports every offending record.
	PolicyFail Policy = "fail"
	// PolicySkip drops the offending record and logs a warning.
	PolicySkip Policy = "skip"
)

// ParsePolicy converts a configuration value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyFail:
		return PolicyFail, nil
	case PolicySkip:
		return PolicySkip, nil
	default:
		return "", fmt.Errorf("unknown invalid-date policy %q: must be 'fail' or 'skip'", s)
	}
}

// DateError reports a record whose date could not be parsed.
type DateError struct {
	URL    string
	Source string
	Value  any
	Err    error
}

func (e *DateError) Error() string {
	where := e.URL
	if e.Source != "" {
		where = fmt.Sprintf("%s (%s)", e.URL, e.Source)
	}
	return fmt.Sprintf("post %s: invalid date: %v", where, e.Err)
}

func (e *DateError) Unwrap() error {
	return e.Err
}

// Indexer normalizes records into posts. It is immutable after construction and safe for
// concurrent use.
type Indexer struct {
	dates  *DateFormatter
	policy Policy
	log    *logger.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithPolicy sets the invalid-date policy. The default is PolicyFail.
func WithPolicy(p Policy) Option {
	return func(ix *Indexer) {
		ix.policy = p
	}
}

// WithDateFormatter sets the locale used for Date.String.
func WithDateFormatter(f *DateFormatter) Option {
	return func(ix *Indexer) {
		if f != nil {
			ix.dates = f
		}
	}
}

// WithLogger sets the logger used for skip warnings.
func WithLogger(l *logger.Logger) Option {
	return func(ix *Indexer) {
		if l != nil {
			ix.log = l
		}
	}
}

// NewIndexer creates an Indexer rendering en-US dates and failing on invalid dates.
func NewIndexer(opts ...Option) *Indexer {
	ix := &Indexer{
		dates:  defaultDateFormatter(),
		policy: PolicyFail,
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Policy returns the indexer's invalid-date policy.
func (ix *Indexer) Policy() Policy {
	return ix.policy
}

// Transform normalizes a single record. The only failure is an unparseable date, returned
// as a *DateError.
func (ix *Indexer) Transform(r Record) (Post, error) {
	raw := r.Frontmatter[KeyDate]
	parsed, err := ParseDate(raw)
	if err != nil {
		return Post{}, &DateError{URL: r.URL, Source: r.Source, Value: raw, Err: err}
	}

	post := Post{
		Category:        DefaultCategory,
		URL:             r.URL,
		Excerpt:         cloneString(r.Excerpt),
		FeatureImageURL: frontmatterString(r.Frontmatter, KeyFeatureImageURL),
		Date:            ix.dates.Normalize(parsed),
	}
	if title := frontmatterString(r.Frontmatter, KeyTitle); title != nil {
		post.Title = *title
	}
	if category := frontmatterString(r.Frontmatter, KeyCategory); category != nil {
		post.Category = *category
	}
	return post, nil
}

// Build transforms every record and sorts the posts by date, newest first. Posts sharing a
// date keep their input order. URLs are not deduplicated.
func (ix *Indexer) Build(records []Record) (*Index, error) {
	index := &Index{Posts: make([]Post, 0, len(records))}

	var errs error
	for _, r := range records {
		post, err := ix.Transform(r)
		if err != nil {
			if ix.policy == PolicySkip {
				ix.log.Warn("skipping post with invalid date", "url", r.URL, "source", r.Source, "error", err)
				index.Skipped = append(index.Skipped, Skipped{URL: r.URL, Source: r.Source, Reason: err.Error()})
				continue
			}
			errs = multierr.Append(errs, err)
			continue
		}
		index.Posts = append(index.Posts, post)
	}
	if errs != nil {
		return nil, fmt.Errorf("building post index: %w", errs)
	}

	SortByDate(index.Posts)
	ix.log.Debug("post index built", "posts", len(index.Posts), "skipped", len(index.Skipped))
	return index, nil
}

// SortByDate orders posts newest first, keeping the relative order of equal dates.
func SortByDate(list []Post) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Date.Time > list[j].Date.Time
	})
}

var defaultIndexer = NewIndexer()

// Transform normalizes a record with the default indexer.
func Transform(r Record) (Post, error) {
	return defaultIndexer.Transform(r)
}

// BuildIndex builds a sorted index with the default indexer. Any invalid date fails the
// whole build.
func BuildIndex(records []Record) ([]Post, error) {
	index, err := defaultIndexer.Build(records)
	if err != nil {
		return nil, err
	}
	return index.Posts, nil
}

// frontmatterString returns the value at key as a string, or nil when the key is absent,
// null or not a scalar. Numbers and booleans are converted to their string form.
func frontmatterString(fm map[string]any, key string) *string {
	v, ok := fm[key]
	if !ok || v == nil {
		return nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil
	}
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
