package service

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/user/cinema/internal/model"
)

// buildZip 在内存中生成导出压缩包，files 为 路径 -> 内容
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func uploadOf(name string, data []byte) Upload {
	return Upload{Name: name, Reader: bytes.NewReader(data), Size: int64(len(data))}
}

func ref(name, year string) model.FilmRef {
	return model.FilmRef{Name: name, Year: year, URI: "https://boxd.it/" + name}
}

func watched(name, year string) model.WatchedRecord {
	return model.WatchedRecord{FilmRef: ref(name, year)}
}

func wish(name, year string) model.WatchlistRecord {
	return model.WatchlistRecord{FilmRef: ref(name, year)}
}

func rated(name, year, value string) model.RatingRecord {
	return model.RatingRecord{FilmRef: ref(name, year), Rating: value}
}

func reviewed(name, year, text string) model.ReviewRecord {
	return model.ReviewRecord{FilmRef: ref(name, year), Review: text}
}

func newTestUser(name string) *model.User {
	return model.NewUser(name)
}

func movieIDs(entries []model.MovieIndexEntry) []model.FilmIdentity {
	out := make([]model.FilmIdentity, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Identity)
	}
	return out
}

func commonIDs(entries []model.WatchlistIntersectionEntry) []model.FilmIdentity {
	out := make([]model.FilmIdentity, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Identity)
	}
	return out
}

func fid(name, year string) model.FilmIdentity {
	return model.FilmIdentity{Name: name, Year: year}
}
