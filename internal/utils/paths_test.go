package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		path     string
		wantBase string
		wantExt  string
	}{
		{"/var/log/app.log", "app", "log"},
		{"app.tar.log", "app.tar", "log"},
		{"/var/log/app", "app", ""},
		{".profile", ".profile", ""},
		{"trailing.", "trailing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			base, ext := SplitName(tt.path)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestArchiveName(t *testing.T) {
	now := time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)

	got := ArchiveName("/archive", "app", "log", "_2006-01-02_150405", now)
	assert.Equal(t, filepath.Join("/archive", "app_2024-03-09_070501.log"), got)

	got = ArchiveName("/archive", "app", "", "_2006-01-02_150405", now)
	assert.Equal(t, filepath.Join("/archive", "app_2024-03-09_070501"), got)
}

func TestResolveArchiveFolder(t *testing.T) {
	assert.Equal(t, "/explicit", ResolveArchiveFolder("/explicit/", "/var/log/app.log"))
	assert.Equal(t, "/var/log", ResolveArchiveFolder("", "/var/log/app.log"))
	assert.Equal(t, ".", ResolveArchiveFolder("", "app.log"))
	assert.Contains(t, DefaultArchiveFolder(), "hyperrotate")
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.NoError(t, EnsureDir(""))
	assert.Error(t, EnsureDir("bad\x00dir"))
}

func TestExistsAndHidden(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "present.log")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	assert.True(t, Exists(file))
	assert.False(t, Exists(filepath.Join(dir, "missing.log")))
	assert.True(t, IsHidden("/tmp/.hidden"))
	assert.False(t, IsHidden("/tmp/visible"))
}

func TestCreationTime(t *testing.T) {
	file := filepath.Join(t.TempDir(), "born.log")
	before := time.Now().Add(-time.Minute)

	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	info, err := os.Stat(file)
	require.NoError(t, err)

	created := CreationTime(file, info)
	assert.True(t, created.After(before), "creation time %v should be recent", created)
	assert.False(t, created.After(time.Now().Add(time.Minute)))
}

func TestResolveArchiveFolderWithoutPath(t *testing.T) {
	assert.Equal(t, DefaultArchiveFolder(), ResolveArchiveFolder("", ""))
}
