package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "APP_SECRET", "PORT", "SITE_URL", "LOG_LEVEL", "MAX_UPLOAD_MB", "POSTER_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "5005", cfg.Port)
	assert.Equal(t, "http://localhost:5005", cfg.SiteUrl)
	assert.Equal(t, int64(64)<<20, cfg.MaxUploadBytes())
	assert.Equal(t, 5*time.Second, cfg.PosterTimeout)
	assert.False(t, cfg.IsProduction())
}

func TestLoadSnapshotSource(t *testing.T) {
	t.Setenv("SNAPSHOT_SOURCE", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.SnapshotSource, "explicitly empty disables the snapshot")

	t.Setenv("SNAPSHOT_SOURCE", "https://example.com/data.json")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/data.json", cfg.SnapshotSource)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "生产环境默认密钥", env: map[string]string{"APP_ENV": "production", "APP_SECRET": ""}},
		{name: "未知环境", env: map[string]string{"APP_ENV": "staging"}},
		{name: "端口非数字", env: map[string]string{"PORT": "http"}},
		{name: "超时格式错误", env: map[string]string{"POSTER_TIMEOUT": "soon"}},
		{name: "日志级别错误", env: map[string]string{"LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
