package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lms_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, level string) {
	t.Helper()
	content := "database:\n  driver: sqlite\nstorage:\n  type: local\n  local_path: " +
		filepath.Join(filepath.Dir(path), "uploads") + "\nlog:\n  level: " + level + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestReloadDispatchesToAllCallbacks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "warn")

	w := New(path)
	var got []string
	w.OnReload(func(cfg *config.Config) { got = append(got, "a:"+cfg.Log.Level) })
	w.OnReload(func(cfg *config.Config) { got = append(got, "b:"+cfg.Log.Level) })

	require.NoError(t, w.Reload())
	assert.Equal(t, []string{"a:warn", "b:warn"}, got)
}

func TestRunPicksUpWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "info")

	w := New(path)
	w.debounce = 50 * time.Millisecond
	levels := make(chan string, 4)
	w.OnReload(func(cfg *config.Config) { levels <- cfg.Log.Level })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// 等待 watcher 就绪
	time.Sleep(100 * time.Millisecond)
	writeConfig(t, path, "error")

	select {
	case lvl := <-levels:
		assert.Equal(t, "error", lvl)
	case <-time.After(5 * time.Second):
		t.Fatal("config reload was not dispatched")
	}

	cancel()
	assert.NoError(t, <-done)
}
