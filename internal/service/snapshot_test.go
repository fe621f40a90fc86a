package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/cinema/internal/utils"
)

func TestDecodeSnapshot(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantErr   bool
		wantUsers int
		wantMovie int
	}{
		{name: "完整快照", data: `{"users":[{"name":"a"},{"name":"b"}],"movies":{"Heat|1995":{"poster":"p","users":[]}},"lastUpdated":"2024-01-01T00:00:00Z"}`, wantUsers: 2, wantMovie: 1},
		{name: "空对象", data: `{}`, wantUsers: 0, wantMovie: 0},
		{name: "users 不是数组时忽略", data: `{"users":{"name":"a"},"movies":{}}`, wantUsers: 0},
		{name: "users 为 null", data: `{"users":null}`, wantUsers: 0},
		{name: "movies 不是对象时忽略", data: `{"users":[],"movies":[1,2]}`, wantUsers: 0},
		{name: "JSON 格式错误", data: `{"users":[`, wantErr: true},
		{name: "users 元素格式错误", data: `{"users":[{"name":5}]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := DecodeSnapshot([]byte(tt.data))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrSnapshotUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Len(t, snap.Users, tt.wantUsers)
			assert.Len(t, snap.Movies, tt.wantMovie)
			assert.NotNil(t, snap.Users)
			assert.NotNil(t, snap.Movies)
		})
	}
}

func TestSnapshotLoaderFile(t *testing.T) {
	dir := t.TempDir()

	_, err := NewSnapshotLoader(filepath.Join(dir, "missing.json"), nil).Load(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotUnavailable)

	_, err = NewSnapshotLoader("", nil).Load(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotUnavailable)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o644))
	_, err = NewSnapshotLoader(bad, nil).Load(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotUnavailable)

	good := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"users":[{"name":"alice","enabled":false}]}`), 0o644))
	snap, err := NewSnapshotLoader(good, nil).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Users, 1)
	assert.False(t, snap.Users[0].ToUser().Enabled)
}

func TestSnapshotLoaderHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"users":[{"name":"alice"}],"movies":{}}`))
	}))
	defer srv.Close()

	client := utils.NewHTTPClient(2 * time.Second)

	snap, err := NewSnapshotLoader(srv.URL+"/data.json", client).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "alice", snap.Users[0].Name)

	_, err = NewSnapshotLoader(srv.URL+"/other.json", client).Load(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotUnavailable)
}
