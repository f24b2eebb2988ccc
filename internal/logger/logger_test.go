package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("debug"))
	assert.True(t, ValidLevel("Warn"))
	assert.False(t, ValidLevel("verbose"))
	assert.False(t, ValidLevel(""))
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)

	log.Info("hidden")
	log.Warn("shown", "url", "/blog/posts/a.html")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "url=/blog/posts/a.html")
}

func TestSetLevelAppliesToChildren(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("error", &buf)
	child := log.With("component", "watch")

	child.Info("before")
	log.SetLevel("debug")
	child.Debug("after")

	out := buf.String()
	assert.NotContains(t, out, "before")
	assert.Contains(t, out, "after")
	assert.Contains(t, out, "component=watch")
}

func TestDiscard(t *testing.T) {
	log := Discard()
	assert.NotPanics(t, func() {
		log.Error("nothing happens")
	})
}
