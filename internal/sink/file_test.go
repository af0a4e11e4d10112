package sink

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSinkWrite(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "nested", "out.mp4")

	err := NewFileSink().Write(context.Background(), strings.NewReader("payload"), dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

type failingReader struct {
	data string
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, errors.New("stream interrupted")
}

func TestFileSinkWriteNoPartialFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.mp4")

	err := NewFileSink().Write(context.Background(), &failingReader{data: "partial"}, dest)
	require.Error(t, err)

	// The final name never exists and the temp file is cleaned up.
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileSinkWriteCancelled(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.bin")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFileSink().Write(ctx, strings.NewReader("data"), dest)
	require.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileSinkOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o644))

	err := NewFileSink().Write(context.Background(), strings.NewReader("new"), dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}
