package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 3 * time.Second

func startWatcher(t *testing.T, opts Options, build BuildFunc) *Watcher {
	t.Helper()
	if opts.Debounce == 0 {
		opts.Debounce = 20 * time.Millisecond
	}
	return runWatcher(t, New(opts, build))
}

// runWatcher runs w until the test ends and waits for its initial build.
func runWatcher(t *testing.T, w *Watcher) *Watcher {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(waitFor):
			t.Error("watcher did not stop after cancel")
		}
	})

	require.Eventually(t, func() bool { return w.Builds() == 1 }, waitFor, 10*time.Millisecond, "initial build")
	return w
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func siteRoot(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "blog", "posts", "first.md"), "---\ntitle: First\ndate: 2024-01-01\n---\n")
	return root
}

func noop(context.Context) error { return nil }

func TestWatcherRebuildsOnPostChange(t *testing.T) {
	root := siteRoot(t)
	w := startWatcher(t, Options{Root: root, Pattern: "blog/posts/*.md"}, noop)

	writeFile(t, filepath.Join(root, "blog", "posts", "second.md"), "---\ntitle: Second\ndate: 2024-02-01\n---\n")
	require.Eventually(t, func() bool { return w.Builds() >= 2 }, waitFor, 10*time.Millisecond)
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	root := siteRoot(t)
	w := startWatcher(t, Options{Root: root, Pattern: "blog/posts/*.md"}, noop)

	writeFile(t, filepath.Join(root, "blog", "posts", "notes.txt"), "scratch")
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int64(1), w.Builds())
}

func TestWatcherDebouncesBursts(t *testing.T) {
	root := siteRoot(t)
	w := startWatcher(t, Options{Root: root, Pattern: "blog/posts/*.md", Debounce: 300 * time.Millisecond}, noop)

	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(root, "blog", "posts", "first.md"), "---\ntitle: Edit\ndate: 2024-01-01\n---\n")
		time.Sleep(10 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return w.Builds() == 2 }, waitFor, 10*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int64(2), w.Builds())
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := siteRoot(t)
	w := startWatcher(t, Options{Root: root, Pattern: "blog/**/*.md"}, noop)

	sub := filepath.Join(root, "blog", "posts", "2024")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.Eventually(t, func() bool { return w.Builds() >= 2 }, waitFor, 10*time.Millisecond)
	before := w.Builds()

	writeFile(t, filepath.Join(sub, "nested.md"), "---\ntitle: Nested\ndate: 2024-03-01\n---\n")
	require.Eventually(t, func() bool { return w.Builds() > before }, waitFor, 10*time.Millisecond)
}

func TestWatcherRebuildsOnConfigChange(t *testing.T) {
	root := siteRoot(t)
	cfgFile := filepath.Join(root, ".postindexrc.yaml")
	writeFile(t, cfgFile, "format: json\n")
	w := startWatcher(t, Options{Root: root, Pattern: "blog/posts/*.md"}, noop)

	writeFile(t, cfgFile, "format: markdown\n")
	require.Eventually(t, func() bool { return w.Builds() >= 2 }, waitFor, 10*time.Millisecond)
}

func TestWatcherSeesConfigCreatedLater(t *testing.T) {
	root := siteRoot(t)
	w := startWatcher(t, Options{Root: root, Pattern: "blog/posts/*.md"}, noop)

	writeFile(t, filepath.Join(root, ".postindexrc.json"), `{"format": "json"}`)
	require.Eventually(t, func() bool { return w.Builds() >= 2 }, waitFor, 10*time.Millisecond)
}

func TestWatcherFollowsPatternChange(t *testing.T) {
	root := siteRoot(t)
	writeFile(t, filepath.Join(root, "notes", "keep.md"), "---\ntitle: Keep\ndate: 2024-01-01\n---\n")

	var pattern atomic.Value
	pattern.Store("blog/posts/*.md")

	var w *Watcher
	w = New(Options{Root: root, Pattern: "blog/posts/*.md", Debounce: 20 * time.Millisecond}, func(context.Context) error {
		w.SetPattern(pattern.Load().(string))
		return nil
	})
	runWatcher(t, w)

	// A config edit switches the pattern; the rebuild it triggers picks it up.
	pattern.Store("notes/*.md")
	writeFile(t, filepath.Join(root, ".postindexrc.yaml"), "content:\n  pattern: notes/*.md\n")
	require.Eventually(t, func() bool { return w.Builds() >= 2 }, waitFor, 10*time.Millisecond)
	assert.Equal(t, "notes/*.md", w.Pattern())
	before := w.Builds()

	writeFile(t, filepath.Join(root, "notes", "new.md"), "---\ntitle: New\ndate: 2024-02-01\n---\n")
	require.Eventually(t, func() bool { return w.Builds() > before }, waitFor, 10*time.Millisecond)
}

func TestWatcherKeepsRunningAfterBuildError(t *testing.T) {
	root := siteRoot(t)
	failing := func(context.Context) error { return errors.New("bad front-matter") }
	w := startWatcher(t, Options{Root: root, Pattern: "blog/posts/*.md"}, failing)

	writeFile(t, filepath.Join(root, "blog", "posts", "second.md"), "x")
	require.Eventually(t, func() bool { return w.Builds() >= 2 }, waitFor, 10*time.Millisecond)
}

func TestBaseDir(t *testing.T) {
	root := siteRoot(t)

	tests := []struct {
		pattern string
		want    string
	}{
		{"blog/posts/*.md", filepath.Join(root, "blog", "posts")},
		{"blog/**/*.md", filepath.Join(root, "blog")},
		{"missing/dir/*.md", root},
		{"*.md", root},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			w := New(Options{Root: root, Pattern: tt.pattern}, noop)
			assert.Equal(t, tt.want, w.baseDir())
		})
	}
}

func TestMatches(t *testing.T) {
	root := t.TempDir()
	w := New(Options{Root: root, Pattern: "blog/posts/*.md"}, noop)

	assert.True(t, w.matches(filepath.Join(root, "blog", "posts", "a.md")))
	assert.False(t, w.matches(filepath.Join(root, "blog", "posts", "a.txt")))
	assert.False(t, w.matches(filepath.Join(root, "blog", "posts", "deep", "a.md")))
	assert.False(t, w.matches(filepath.Join(filepath.Dir(root), "a.md")))
}
