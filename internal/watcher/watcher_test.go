package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_DetectsArtifactReplacement(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(artifact, []byte(`{"schema_version":1}`), 0o644))

	var changes atomic.Int64
	w, err := New(artifact, func() { changes.Add(1) })
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	// Trainers write a temp file and rename it over the artifact.
	tmp := filepath.Join(dir, "model.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"schema_version":2}`), 0o644))
	require.NoError(t, os.Rename(tmp, artifact))

	assert.Eventually(t, func() bool { return changes.Load() >= 1 }, 3*time.Second, 50*time.Millisecond,
		"callback should fire after the artifact is replaced")
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "model.json")

	var changes atomic.Int64
	w, err := New(artifact, func() { changes.Add(1) })
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	time.Sleep(time.Second)
	assert.Zero(t, changes.Load(), "sibling file writes must not trigger the callback")
}

func TestWatcher_StartStop(t *testing.T) {
	dir := t.TempDir()
	w, err := New(filepath.Join(dir, "model.json"), nil)
	require.NoError(t, err)

	require.NoError(t, w.Start())
	require.NoError(t, w.Start(), "second start is a no-op")
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop(), "second stop is a no-op")
}
