// Package posts turns raw post records into a date-sorted index for a listing view.
//
// A Record is what content discovery produces for one Markdown file: its URL, decoded
// front-matter and optional excerpt. The Indexer normalizes each record into a Post and
// orders the result newest first. Nothing here performs I/O.
package posts

// DefaultCategory is used when a post's front-matter has no category.
const DefaultCategory = "Article"

// Front-matter keys read by the indexer.
const (
	KeyTitle           = "title"
	KeyDate            = "date"
	KeyCategory        = "category"
	KeyFeatureImageURL = "featureImageUrl"
)

// Record is a raw post as produced by a content source.
type Record struct {
	URL         string
	Frontmatter map[string]any
	Excerpt     *string
	// Source is the file the record was read from. Empty for in-memory records.
	Source string
}

// Date is a post date normalized to noon UTC.
type Date struct {
	// Time is Unix milliseconds at 12:00:00 UTC of the post's calendar day.
	Time int64 `json:"time"`
	// String is the long-form date in the indexer's locale, e.g. "January 5, 2024".
	String string `json:"string"`
}

// Post is a display-ready entry of the post index.
type Post struct {
	Title           string  `json:"title,omitempty"`
	Category        string  `json:"category"`
	URL             string  `json:"url"`
	Excerpt         *string `json:"excerpt,omitempty"`
	FeatureImageURL *string `json:"featureImageUrl,omitempty"`
	Date            Date    `json:"date"`
}

// Skipped describes a record left out of the index under PolicySkip.
type Skipped struct {
	URL    string `json:"url"`
	Source string `json:"source,omitempty"`
	Reason string `json:"reason"`
}

// Index is the result of building a post index.
type Index struct {
	Posts   []Post
	Skipped []Skipped
}
