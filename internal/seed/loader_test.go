package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/mimic/internal/engine"
	"github.com/MrSnakeDoc/mimic/internal/logger"
	"github.com/MrSnakeDoc/mimic/internal/registry"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.svc", "Method: GET\nPath: /a\n# Body\nalpha")
	writeFile(t, dir, "b.svc", "Method: GET\nPath: /b\n")
	writeFile(t, dir, "broken.svc", "Method GET\n")
	writeFile(t, dir, "notes.txt", "Method: GET\nPath: /ignored\n")

	e := engine.New(registry.New(), logger.NewNop())
	l := NewLoader(dir, e, logger.NewNop())

	res, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 2, Failed: 1}, res)
	assert.Equal(t, 2, e.Count())

	// A second load finds everything already registered.
	res, err = l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 2, Failed: 1}, res)
	assert.Equal(t, 2, e.Count())
}

func TestLoadMissingDirectory(t *testing.T) {
	e := engine.New(registry.New(), logger.NewNop())
	l := NewLoader(filepath.Join(t.TempDir(), "missing"), e, logger.NewNop())

	_, err := l.Load(context.Background())
	assert.Error(t, err)
}

func TestLoadCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.svc", "Method: GET\nPath: /a\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := engine.New(registry.New(), logger.NewNop())
	_, err := NewLoader(dir, e, logger.NewNop()).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, e.Count())
}

func TestFilesSorted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.svc", "")
	writeFile(t, dir, "a.svc", "")

	files, err := Files(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.svc"), filepath.Join(dir, "b.svc")}, files)

	_, err = Files(filepath.Join(dir, "a.svc"))
	assert.Error(t, err)
}
