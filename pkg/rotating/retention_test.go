package rotating

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyp3rd/hyperrotate"
	"github.com/hyp3rd/hyperrotate/pkg/attrstore"
)

func createArchive(t *testing.T, store attrstore.Store, keys attrstore.Keys, dir, name, owner, at string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(name), 0o600))

	if owner != "" {
		require.NoError(t, store.Set(path, keys.ArchivedBy, []byte(owner)))
	}

	if at != "" {
		require.NoError(t, store.Set(path, keys.ArchivedAt, []byte(at)))
	}

	return path
}

func newTestRetention(store attrstore.Store) (*Retention, attrstore.Keys, *eventRecorder) {
	keys := attrstore.KeysFor(hyperrotate.DefaultAttributeNamespace)
	events := &eventRecorder{}

	return NewRetention(store, keys, events), keys, events
}

func TestRetentionListArchived(t *testing.T) {
	dir := t.TempDir()
	store := attrstore.NewMemoryStore()
	retention, keys, _ := newTestRetention(store)

	older := createArchive(t, store, keys, dir, "app_1.log", "app", "1715941800.5")
	newer := createArchive(t, store, keys, dir, "app_2.log", "app", "1715941900")
	createArchive(t, store, keys, dir, "other.log", "other", "1715942000")
	createArchive(t, store, keys, dir, "untagged.log", "", "")
	createArchive(t, store, keys, dir, "owner-only.log", "app", "")
	createArchive(t, store, keys, dir, ".hidden.log", "app", "1715943000")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o750))

	records, err := retention.ListArchived(dir, "app")
	require.NoError(t, err)

	assert.Equal(t, []ArchivedFileRecord{
		{Path: newer, Owner: "app", ArchivedAt: "1715941900"},
		{Path: older, Owner: "app", ArchivedAt: "1715941800.5"},
	}, records)
}

func TestRetentionListMissingFolder(t *testing.T) {
	retention, _, _ := newTestRetention(attrstore.NewMemoryStore())

	records, err := retention.ListArchived(filepath.Join(t.TempDir(), "missing"), "app")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRetentionSortIsLexicographic(t *testing.T) {
	dir := t.TempDir()
	store := attrstore.NewMemoryStore()
	retention, keys, _ := newTestRetention(store)

	// 999999999 is numerically older but sorts after 1000000000 as a string.
	createArchive(t, store, keys, dir, "a.log", "app", "999999999")
	createArchive(t, store, keys, dir, "b.log", "app", "1000000000")

	records, err := retention.ListArchived(dir, "app")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "999999999", records[0].ArchivedAt)
}

func TestRetentionCleanupKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	store := attrstore.NewMemoryStore()
	retention, keys, events := newTestRetention(store)

	paths := make([]string, 0, 6)
	for i := range 6 {
		paths = append(paths, createArchive(t, store, keys, dir,
			fmt.Sprintf("app_%d.log", i), "app", fmt.Sprintf("171594180%d", i)))
	}

	foreign := createArchive(t, store, keys, dir, "other.log", "other", "1715941700")

	// the oldest archive cannot be deleted; the rest of the batch must still go
	failing := paths[0]

	var attempts []string

	retention.OnDelete = func(path string, _ error) { attempts = append(attempts, path) }
	retention.remove = func(path string) error {
		if path == failing {
			return errors.New("permission denied")
		}

		return os.Remove(path)
	}

	err := retention.Cleanup(dir, "app", 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeleteFailed)
	assert.Len(t, attempts, 4)

	for _, kept := range []string{paths[5], paths[4], failing, foreign} {
		_, statErr := os.Stat(kept)
		assert.NoError(t, statErr, "%s should remain", kept)
	}

	for _, deleted := range paths[1:4] {
		_, statErr := os.Stat(deleted)
		assert.True(t, os.IsNotExist(statErr), "%s should be deleted", deleted)
	}

	assert.Equal(t, 1, events.count("deleting archived log file failed"))
}

func TestRetentionCleanupNoop(t *testing.T) {
	dir := t.TempDir()
	store := attrstore.NewMemoryStore()
	retention, keys, _ := newTestRetention(store)

	createArchive(t, store, keys, dir, "a.log", "app", "1715941801")
	createArchive(t, store, keys, dir, "b.log", "app", "1715941802")

	require.NoError(t, retention.Cleanup(dir, "app", 2))
	assert.Len(t, listNames(t, dir), 2)
}

func TestRetentionPurgeAll(t *testing.T) {
	dir := t.TempDir()
	store := attrstore.NewMemoryStore()
	retention, keys, _ := newTestRetention(store)

	createArchive(t, store, keys, dir, "a.log", "app", "1715941801")
	createArchive(t, store, keys, dir, "b.log", "app", "1715941802")
	other := createArchive(t, store, keys, dir, "c.log", "other", "1715941803")

	require.NoError(t, retention.PurgeAll(dir, "app"))

	assert.Equal(t, []string{filepath.Base(other)}, listNames(t, dir))
	assert.Equal(t, 1, store.Len(), "deleted files are forgotten by the store")
}
