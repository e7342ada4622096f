package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLocalStorage(t *testing.T) {
	tempDir := t.TempDir()

	storage, err := NewLocalStorage(tempDir)
	require.NoError(t, err)
	require.NotNil(t, storage)
	require.Equal(t, tempDir, storage.basePath)

	_, err = os.Stat(tempDir)
	require.NoError(t, err, "Base directory should be created")
}

func TestLocalStorage_SaveGetDelete(t *testing.T) {
	tempDir := t.TempDir()
	storage, err := NewLocalStorage(tempDir)
	require.NoError(t, err)

	locator := storage.NewLocator(7)
	content := "Hello, world!"

	written, err := storage.Save(locator, strings.NewReader(content))
	require.NoError(t, err)
	require.Equal(t, int64(len(content)), written)
	require.True(t, storage.Exists(locator))

	readCloser, err := storage.Get(locator)
	require.NoError(t, err)
	retrievedContent, err := io.ReadAll(readCloser)
	require.NoError(t, err)
	readCloser.Close()
	require.Equal(t, content, string(retrievedContent))

	err = storage.Delete(locator)
	require.NoError(t, err)
	require.False(t, storage.Exists(locator))

	// Deleting an already-absent blob is not an error.
	err = storage.Delete(locator)
	require.NoError(t, err)
}

func TestLocalStorage_LocatorScopedToOwner(t *testing.T) {
	tempDir := t.TempDir()
	storage, err := NewLocalStorage(tempDir)
	require.NoError(t, err)

	locator := storage.NewLocator(42)
	require.True(t, strings.HasPrefix(locator, "42"+string(filepath.Separator)))

	// Two locators for the same owner never collide.
	require.NotEqual(t, locator, storage.NewLocator(42))
}

func TestLocalStorage_RejectsEscapingLocator(t *testing.T) {
	tempDir := t.TempDir()
	storage, err := NewLocalStorage(tempDir)
	require.NoError(t, err)

	_, err = storage.Save("../outside", strings.NewReader("nope"))
	require.Error(t, err)

	_, err = storage.Get("/etc/passwd")
	require.Error(t, err)
}

func TestLocalStorage_MeasureUserBytes(t *testing.T) {
	tempDir := t.TempDir()
	storage, err := NewLocalStorage(tempDir)
	require.NoError(t, err)

	// An owner without a region has used nothing.
	used, err := storage.MeasureUserBytes(5)
	require.NoError(t, err)
	require.Zero(t, used)

	loc1 := storage.NewLocator(5)
	loc2 := storage.NewLocator(5)
	other := storage.NewLocator(6)

	_, err = storage.Save(loc1, strings.NewReader("12345"))
	require.NoError(t, err)
	_, err = storage.Save(loc2, strings.NewReader("123"))
	require.NoError(t, err)
	_, err = storage.Save(other, strings.NewReader("not counted"))
	require.NoError(t, err)

	used, err = storage.MeasureUserBytes(5)
	require.NoError(t, err)
	require.Equal(t, int64(8), used)
}
