package outputters

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/dotcommander/postindex/internal/build"
	"github.com/dotcommander/postindex/internal/config"
	"github.com/dotcommander/postindex/internal/output"
	"github.com/dotcommander/postindex/internal/posts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFormatter struct {
	formatCalled bool
	formatError  error
	result       *build.Result
}

func (m *mockFormatter) Format(result *build.Result) error {
	m.formatCalled = true
	m.result = result
	return m.formatError
}

type mockFormatterFactory struct {
	requestedFormat string
	formatter       Formatter
	createError     error
}

func (m *mockFormatterFactory) CreateFormatter(format string) (Formatter, error) {
	m.requestedFormat = format
	if m.createError != nil {
		return nil, m.createError
	}
	return m.formatter, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Root = "/test/root"
	return cfg
}

func TestNewOutputter(t *testing.T) {
	o := NewOutputter(testConfig(t), nil, "1.2.3")
	factory, ok := o.factory.(*DefaultFormatterFactory)
	require.True(t, ok, "factory type = %T", o.factory)
	assert.Equal(t, "1.2.3", factory.version)
	assert.NotNil(t, factory.w)
}

func TestOutputter_Format(t *testing.T) {
	form := &mockFormatter{}
	factory := &mockFormatterFactory{formatter: form}
	o := NewOutputterWithFactory(testConfig(t), factory)

	result := &build.Result{}
	require.NoError(t, o.Format(result, "json"))

	assert.Equal(t, "json", factory.requestedFormat)
	assert.True(t, form.formatCalled)
	assert.Same(t, result, form.result)
	assert.Equal(t, "/test/root", result.Root)
	assert.False(t, result.StartTime.IsZero())
}

func TestOutputter_Format_PreservesExistingFields(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	o := NewOutputterWithFactory(testConfig(t), &mockFormatterFactory{formatter: &mockFormatter{}})

	result := &build.Result{Root: "/elsewhere", StartTime: start}
	require.NoError(t, o.Format(result, "console"))
	assert.Equal(t, "/elsewhere", result.Root)
	assert.Equal(t, start, result.StartTime)
}

func TestOutputter_Format_Errors(t *testing.T) {
	createErr := errors.New("no such format")
	o := NewOutputterWithFactory(testConfig(t), &mockFormatterFactory{createError: createErr})
	assert.ErrorIs(t, o.Format(&build.Result{}, "xml"), createErr)

	formatErr := errors.New("disk full")
	o = NewOutputterWithFactory(testConfig(t), &mockFormatterFactory{formatter: &mockFormatter{formatError: formatErr}})
	err := o.Format(&build.Result{}, "json")
	assert.ErrorIs(t, err, formatErr)
	assert.Contains(t, err.Error(), "json output")
}

func TestDefaultFormatterFactory_CreateFormatter(t *testing.T) {
	factory := NewDefaultFormatterFactory(testConfig(t), &bytes.Buffer{}, "dev")

	tests := []struct {
		format  string
		want    any
		wantErr bool
	}{
		{format: config.FormatConsole, want: &output.ConsoleFormatter{}},
		{format: config.FormatJSON, want: &output.JSONFormatter{}},
		{format: config.FormatMarkdown, want: &output.MarkdownFormatter{}},
		{format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			formatter, err := factory.CreateFormatter(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, formatter)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, formatter)
		})
	}
}

func TestOutputterWritesVersionedJSON(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutputter(testConfig(t), &buf, "2.0.1")

	result := &build.Result{Posts: []posts.Post{{
		Title:    "Hello",
		Category: "Article",
		URL:      "/blog/posts/hello.html",
		Date:     posts.Date{Time: 1704456000000, String: "January 5, 2024"},
	}}}
	require.NoError(t, o.Format(result, config.FormatJSON))
	assert.Contains(t, buf.String(), `"title": "Hello"`)
	assert.Contains(t, buf.String(), `"time": 1704456000000`)
	assert.Contains(t, buf.String(), `"version": "2.0.1"`)
}
