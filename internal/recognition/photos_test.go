package recognition

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "photos")
	store := NewPhotoStore(dir)
	store.now = func() time.Time { return time.Unix(0, 1_000_000) }

	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}
	path, err := store.Save("12345678", jpeg)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "12345678-"))
	assert.Equal(t, ".jpg", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, jpeg, data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestPhotoStore_Disabled(t *testing.T) {
	store := NewPhotoStore("")
	path, err := store.Save("12345678", []byte("x"))
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.NoError(t, store.Remove(""))
}

func TestPhotoStore_Remove(t *testing.T) {
	store := NewPhotoStore(t.TempDir())
	path, err := store.Save("12345678", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(path))
	assert.NoFileExists(t, path)
	assert.NoError(t, store.Remove(path), "missing files are ignored")
}
