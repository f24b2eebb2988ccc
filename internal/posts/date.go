package posts

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/text/language"
)

// DefaultLocale is the locale used for rendered dates unless configured otherwise.
const DefaultLocale = "en-US"

// ErrMissingDate is returned when a record has no date value.
var ErrMissingDate = errors.New("date is missing")

// dateLayouts are tried in order. Layouts without a zone parse as UTC.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-1-2",
	"2006/1/2",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// ParseDate reads a front-matter date value. Strings are matched against the accepted
// layouts; a time.Time, as some front-matter decoders produce, is returned unchanged.
func ParseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, ErrMissingDate
	case time.Time:
		if d.IsZero() {
			return time.Time{}, ErrMissingDate
		}
		return d, nil
	case *time.Time:
		if d == nil || d.IsZero() {
			return time.Time{}, ErrMissingDate
		}
		return *d, nil
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("unsupported date value of type %T", v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMissingDate
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q: use YYYY-MM-DD, RFC 3339, M/D/YYYY or a written month such as \"January 5, 2024\"", s)
}

// NoonUTC returns 12:00:00 UTC on the UTC calendar day of t.
func NoonUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 12, 0, 0, 0, time.UTC)
}

var (
	supportedLocales = []language.Tag{
		language.AmericanEnglish,
		language.BritishEnglish,
	}
	localeLayouts = []string{
		"January 2, 2006",
		"2 January 2006",
	}
	localeMatcher = language.NewMatcher(supportedLocales)
)

// DateFormatter renders long-form dates for one locale.
type DateFormatter struct {
	tag    language.Tag
	layout string
}

// NewDateFormatter returns a formatter for locale, a BCP 47 tag such as "en-US".
// Locales that match no supported rendering are rejected.
func NewDateFormatter(locale string) (*DateFormatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	_, idx, confidence := localeMatcher.Match(tag)
	if confidence == language.No {
		return nil, fmt.Errorf("unsupported locale %q: supported locales are %s", locale, supportedLocaleNames())
	}
	return &DateFormatter{
		tag:    supportedLocales[idx],
		layout: localeLayouts[idx],
	}, nil
}

func defaultDateFormatter() *DateFormatter {
	return &DateFormatter{tag: supportedLocales[0], layout: localeLayouts[0]}
}

// Locale returns the tag the formatter renders for.
func (f *DateFormatter) Locale() string {
	return f.tag.String()
}

// Format renders t as a long-form date in UTC.
func (f *DateFormatter) Format(t time.Time) string {
	return t.UTC().Format(f.layout)
}

// Normalize converts a parsed date into the index representation.
func (f *DateFormatter) Normalize(t time.Time) Date {
	noon := NoonUTC(t)
	return Date{
		Time:   noon.UnixMilli(),
		String: f.Format(noon),
	}
}

func supportedLocaleNames() string {
	names := make([]string, len(supportedLocales))
	for i, tag := range supportedLocales {
		names[i] = tag.String()
	}
	return strings.Join(names, ", ")
}
