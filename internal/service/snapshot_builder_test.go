package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/cinema/internal/repository"
)

func writeArchive(t *testing.T, dir, name string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buildZip(t, files), 0o644))
	return path
}

func TestSnapshotBuilderProcessZip(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "web", "data.json")
	zipPath := writeArchive(t, dir, "letterboxd-alice-2024-01-01-00-00-utc.zip", map[string]string{
		"watched.csv":   "Date,Name,Year,Letterboxd URI\n2024-01-01,Heat,1995,https://boxd.it/h",
		"ratings.csv":   "Date,Name,Year,Letterboxd URI,Rating\n2024-01-01,Heat,1995,https://boxd.it/h,4.5",
		"watchlist.csv": "Date,Name,Year,Letterboxd URI\n2024-01-01,Ran,1985,https://boxd.it/r",
	})

	repo := repository.NewSnapshotRepository(out)
	b := NewSnapshotBuilder(repo, NewIngestor(), nil)
	b.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, b.ProcessZip(context.Background(), zipPath, ""))

	snap, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "alice", snap.Users[0].Name)
	assert.Equal(t, "2024-06-01T12:00:00Z", snap.Users[0].UpdatedAt)
	require.NotNil(t, snap.LastUpdated)
	assert.Equal(t, "2024-06-01T12:00:00Z", *snap.LastUpdated)

	require.Len(t, snap.Movies, 2)
	heat := snap.Movies["Heat|1995"]
	require.Len(t, heat.Users, 1)
	assert.Equal(t, "alice", heat.Users[0].Name)
	assert.True(t, heat.Users[0].Watched)
	require.NotNil(t, heat.Users[0].Rating)
	assert.Equal(t, "4.5", *heat.Users[0].Rating)
	assert.Empty(t, snap.Movies["Ran|1985"].Users, "watchlist films are registered without users")

	// 同名用户重新处理时整体替换，不重复登记
	require.NoError(t, b.ProcessZip(context.Background(), zipPath, ""))
	s := b.Summary()
	assert.Equal(t, 1, s.Users)
	assert.Equal(t, 2, s.Movies)
	assert.Len(t, b.Snapshot().Movies["Heat|1995"].Users, 1)
}

func TestSnapshotBuilderUsernameOverride(t *testing.T) {
	dir := t.TempDir()
	zipPath := writeArchive(t, dir, "export.zip", map[string]string{
		"watched.csv": "Date,Name,Year,Letterboxd URI\n2024-01-01,Heat,1995,https://boxd.it/h",
	})

	b := NewSnapshotBuilder(repository.NewSnapshotRepository(filepath.Join(dir, "data.json")), NewIngestor(), nil)
	require.NoError(t, b.ProcessZip(context.Background(), zipPath, "bob"))
	assert.Equal(t, "bob", b.Snapshot().Users[0].Name)
}

func TestSnapshotBuilderResumesExisting(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(out, []byte(`{"users":[{"name":"carol"}],"movies":{}}`), 0o644))

	b := NewSnapshotBuilder(repository.NewSnapshotRepository(out), NewIngestor(), nil)
	assert.Equal(t, 1, b.Summary().Users)

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte(`{`), 0o644))
	fresh := NewSnapshotBuilder(repository.NewSnapshotRepository(corrupt), NewIngestor(), nil)
	assert.Equal(t, 0, fresh.Summary().Users)
}

func TestSnapshotBuilderProcessDir(t *testing.T) {
	dir := t.TempDir()
	b := NewSnapshotBuilder(repository.NewSnapshotRepository(filepath.Join(dir, "out", "data.json")), NewIngestor(), nil)

	_, _, err := b.ProcessDir(context.Background(), dir)
	assert.ErrorIs(t, err, ErrNoArchives)

	writeArchive(t, dir, "letterboxd-alice-2024-01-01-00-00-utc.zip", map[string]string{
		"watched.csv": "Date,Name,Year,Letterboxd URI\n2024-01-01,Heat,1995,https://boxd.it/h",
	})
	writeArchive(t, dir, "letterboxd-bob-2024-01-01-00-00-utc.zip", map[string]string{
		"watched.csv": "Date,Name,Year,Letterboxd URI\n2024-01-01,Heat,1995,https://boxd.it/h",
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.zip"), []byte("nope"), 0o644))

	ok, failed, err := b.ProcessDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, failed)
	assert.Len(t, b.Snapshot().Movies["Heat|1995"].Users, 2)
}

func TestSnapshotBuilderProcessDirCancelled(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "letterboxd-alice-2024-01-01-00-00-utc.zip", map[string]string{
		"watched.csv": "Date,Name,Year,Letterboxd URI\n2024-01-01,Heat,1995,https://boxd.it/h",
	})
	b := NewSnapshotBuilder(repository.NewSnapshotRepository(filepath.Join(dir, "out", "data.json")), NewIngestor(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, failed, err := b.ProcessDir(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, ok)
	assert.Zero(t, failed)
	assert.Zero(t, b.Summary().Users)
}
