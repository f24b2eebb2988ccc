package content

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// DefaultExcerptSeparator marks the end of a post's excerpt.
const DefaultExcerptSeparator = "<!-- more -->"

// Document is a Markdown file split into front-matter and body.
type Document struct {
	Frontmatter map[string]any
	Body        string
}

// frontmatterFormats lists the accepted delimiters. YAML goes through yaml.v3 so that
// unquoted dates decode the same way they do for the rest of the tool's YAML.
var frontmatterFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
	frontmatter.NewFormat(";;;", ";;;", json.Unmarshal),
	{Start: "{", End: "}", Unmarshal: json.Unmarshal, UnmarshalDelims: true},
}

// ParseDocument splits content into front-matter and body. Content without front-matter
// yields an empty map and the whole input as body.
func ParseDocument(content []byte) (*Document, error) {
	var data map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(content), &data, frontmatterFormats...)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = make(map[string]any)
	}
	return &Document{
		Frontmatter: data,
		Body:        strings.TrimLeft(string(body), "\r\n"),
	}, nil
}

// Excerpt returns the body text before separator, or false when the separator is absent.
func (d *Document) Excerpt(separator string) (string, bool) {
	if separator == "" {
		return "", false
	}
	idx := strings.Index(d.Body, separator)
	if idx < 0 {
		return "", false
	}
	return d.Body[:idx], true
}
