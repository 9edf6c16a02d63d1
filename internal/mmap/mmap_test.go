package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.ben")
	require.NoError(t, os.WriteFile(path, content, 0600))
	return path
}

func TestOpenReadClose(t *testing.T) {
	content := []byte("header plus some record bytes")
	m, err := Open(writeTemp(t, content))
	require.NoError(t, err)

	assert.Equal(t, content, m.Bytes())
	assert.Equal(t, int64(len(content)), m.Size())

	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())
	assert.Zero(t, m.Size())

	// Idempotent.
	require.NoError(t, m.Close())
}

func TestOpenEmptyFile(t *testing.T) {
	m, err := Open(writeTemp(t, nil))
	require.NoError(t, err)
	defer m.Close()

	assert.Empty(t, m.Bytes())
	assert.Zero(t, m.Size())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
