package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://api.webtray.test
  timeout: 5s
storage:
  driver: memory
cache:
  stale_time: 10s
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.webtray.test", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 10*time.Second, cfg.Cache.StaleTime)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.GuardRoutes())
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: memory\n"), 0o644))

	t.Setenv("WEBTRAY_API_BASE_URL", "http://backend:9000")
	t.Setenv("WEBTRAY_AUTH_JWT_SECRET", "s3cret")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://backend:9000", cfg.API.BaseURL)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.True(t, cfg.GuardRoutes())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "file driver",
			cfg:  Config{API: APIConfig{BaseURL: "http://x"}, Storage: StorageConfig{Driver: "file"}},
		},
		{
			name:    "missing base url",
			cfg:     Config{Storage: StorageConfig{Driver: "memory"}},
			wantErr: "api.base_url",
		},
		{
			name:    "sql driver without dsn",
			cfg:     Config{API: APIConfig{BaseURL: "http://x"}, Storage: StorageConfig{Driver: "mysql"}},
			wantErr: "storage.dsn",
		},
		{
			name:    "unknown driver",
			cfg:     Config{API: APIConfig{BaseURL: "http://x"}, Storage: StorageConfig{Driver: "redis"}},
			wantErr: "unsupported storage driver",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
