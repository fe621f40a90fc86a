package repository

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/cinema/internal/model"
)

func TestSnapshotRepositorySaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.json")
	repo := NewSnapshotRepository(path)

	poster := "https://a.ltrbxd.com/resized/film-poster/heat.jpg?v=1&k=2"
	rating := "4.5"
	updated := "2024-06-01T12:00:00Z"
	snap := &model.Snapshot{
		Users: []model.SnapshotUser{{Name: "alice", Watched: []model.WatchedRecord{{FilmRef: model.FilmRef{Name: "Heat", Year: "1995"}}}}},
		Movies: map[string]model.SnapshotMovie{
			"Heat|1995": {Name: "Heat", Year: "1995", Poster: &poster, Users: []model.SnapshotMovieUser{{Name: "alice", Rating: &rating, Watched: true}}},
		},
		LastUpdated: &updated,
	}
	require.NoError(t, repo.Save(snap))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "&k=2"), "html characters are not escaped")
	_, err = os.Stat(path + ".tmp")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

func TestSnapshotRepositoryLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewSnapshotRepository(filepath.Join(dir, "missing.json")).Load()
	assert.ErrorIs(t, err, fs.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("[]"), 0o644))
	_, err = NewSnapshotRepository(bad).Load()
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("{}"), 0o644))
	snap, err := NewSnapshotRepository(empty).Load()
	require.NoError(t, err)
	assert.NotNil(t, snap.Movies)
}
