package service

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{name: "标准导出文件名", file: "letterboxd-alice-2024-01-15-10-30-utc.zip", want: "alice"},
		{name: "名字带连字符", file: "letterboxd-mary-jane-2023-12-01-08-00-utc.zip", want: "mary-jane"},
		{name: "没有前缀", file: "bob-2024-02-02-00-00-utc.zip", want: "bob"},
		{name: "没有日期", file: "letterboxd-carol.zip", want: "carol"},
		{name: "普通文件名", file: "export.zip", want: "export"},
		{name: "带目录", file: "/tmp/uploads/letterboxd-dave-2024-03-03-01-01-utc.zip", want: "dave"},
		{name: "推导结果为空时退回文件名", file: "letterboxd--2024-01-01-00-00-utc.zip", want: "letterboxd--2024-01-01-00-00-utc.zip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.file))
		})
	}
}

func TestIngest(t *testing.T) {
	data := buildZip(t, map[string]string{
		"watched.csv":     "Date,Name,Year,Letterboxd URI\n2024-01-01,Alien,1979,https://boxd.it/a\n2024-01-02,\"Crouching Tiger, Hidden Dragon\",2000,https://boxd.it/c",
		"ratings.csv":     "Date,Name,Year,Letterboxd URI,Rating\n2024-01-01,Alien,1979,https://boxd.it/a,4.5",
		"reviews.csv":     "Date,Name,Year,Letterboxd URI,Rating,Rewatch,Review,Tags,Watched Date\n2024-01-01,Alien,1979,https://boxd.it/a,4.5,,In space,,2024-01-01",
		"watchlist.csv":   "Date,Name,Year,Letterboxd URI\n2024-01-03,Heat,1995,https://boxd.it/h",
		"likes/films.csv": "Date,Name,Year,Letterboxd URI\n2024-01-01,Alien,1979,https://boxd.it/a",
		"profile.csv":     "Username\nalice",
	})

	u, err := NewIngestor().Ingest("letterboxd-alice-2024-01-15-10-30-utc.zip", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, "alice", u.Name)
	assert.True(t, u.Enabled)
	require.Len(t, u.Watched, 2)
	assert.Equal(t, "Crouching Tiger, Hidden Dragon", u.Watched[1].Name)
	require.Len(t, u.Ratings, 1)
	assert.Equal(t, "4.5", u.Ratings[0].Rating)
	require.Len(t, u.Reviews, 1)
	assert.Equal(t, "In space", u.Reviews[0].Review)
	require.Len(t, u.Watchlist, 1)
	assert.Equal(t, fid("Heat", "1995"), u.Watchlist[0].Identity())
	assert.Len(t, u.Likes, 1)
}

func TestIngestMissingFiles(t *testing.T) {
	data := buildZip(t, map[string]string{
		"watched.csv": "Date,Name,Year,Letterboxd URI\n2024-01-01,Alien,1979,https://boxd.it/a",
	})

	u, err := NewIngestor().Ingest("letterboxd-bob-2024-01-01-00-00-utc.zip", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Len(t, u.Watched, 1)
	assert.NotNil(t, u.Ratings)
	assert.Empty(t, u.Ratings)
	assert.Empty(t, u.Reviews)
	assert.Empty(t, u.Watchlist)
	assert.Empty(t, u.Likes)
}

func TestIngestBOMAndMissingColumns(t *testing.T) {
	data := buildZip(t, map[string]string{
		"watched.csv": "\ufeffName,Year\nAlien,1979",
	})

	u, err := NewIngestor().Ingest("carol.zip", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, u.Watched, 1)
	assert.Equal(t, "Alien", u.Watched[0].Name)
	assert.Empty(t, u.Watched[0].URI)
}

func TestIngestInvalidArchive(t *testing.T) {
	data := []byte("definitely not a zip")

	_, err := NewIngestor().Ingest("broken.zip", bytes.NewReader(data), int64(len(data)))
	require.Error(t, err)

	var decodeErr *ArchiveDecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "broken.zip", decodeErr.Archive)
}

func TestIngestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "letterboxd-erin-2024-06-01-12-00-utc.zip")
	require.NoError(t, os.WriteFile(path, buildZip(t, map[string]string{
		"watchlist.csv": "Date,Name,Year,Letterboxd URI\n2024-01-03,Heat,1995,https://boxd.it/h",
	}), 0o644))

	u, err := NewIngestor().IngestFile(path)
	require.NoError(t, err)
	assert.Equal(t, "erin", u.Name)
	assert.Len(t, u.Watchlist, 1)

	_, err = NewIngestor().IngestFile(filepath.Join(dir, "missing.zip"))
	assert.Error(t, err)
}
