package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INTERNAL_API_TOKEN", "secret")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9090", cfg.API.BaseURL)
	assert.Equal(t, "*/30 * * * *", cfg.Pipeline.CronSchedule)
	assert.Equal(t, "reject", cfg.Pipeline.DuplicatePolicy)
	assert.Equal(t, 30*time.Second, cfg.Render.NavigationTimeout)
	assert.Equal(t, 2*time.Second, cfg.Render.SettleDelay)
	assert.Equal(t, 5*time.Minute, cfg.Refresh.Timeout)
	assert.False(t, cfg.Sheets.Enabled())
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "INTERNAL_API_TOKEN=from-file\nREFRESH_TIMEOUT=90s\nRECONCILE_DUPLICATE_POLICY=FIRST\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// godotenv does not override variables that are already set.
	t.Setenv("INTERNAL_API_TOKEN", "")
	os.Unsetenv("INTERNAL_API_TOKEN")
	t.Cleanup(func() {
		os.Unsetenv("REFRESH_TIMEOUT")
		os.Unsetenv("RECONCILE_DUPLICATE_POLICY")
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.API.Token)
	assert.Equal(t, 90*time.Second, cfg.Refresh.Timeout)
	assert.Equal(t, "first", cfg.Pipeline.DuplicatePolicy)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("INTERNAL_API_TOKEN", "secret")
	t.Setenv("REFRESH_TIMEOUT", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REFRESH_TIMEOUT")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			API:      APIConfig{BaseURL: "http://localhost:8080", Token: "t"},
			MongoDB:  MongoDBConfig{URI: "mongodb://localhost", DBName: "db"},
			Pipeline: PipelineConfig{CronSchedule: "*/30 * * * *", Timezone: "UTC", DataDir: "d", ReportsDir: "r", DuplicatePolicy: "reject"},
			Refresh:  RefreshConfig{Script: "refresh.py"},
			Render:   RenderConfig{NavigationTimeout: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing token", mutate: func(c *Config) { c.API.Token = "" }, wantErr: "INTERNAL_API_TOKEN"},
		{name: "bad policy", mutate: func(c *Config) { c.Pipeline.DuplicatePolicy = "last" }, wantErr: "RECONCILE_DUPLICATE_POLICY"},
		{name: "sheet without credentials", mutate: func(c *Config) { c.Sheets.SpreadsheetID = "abc" }, wantErr: "GOOGLE_SHEETS_CREDENTIALS_PATH"},
		{name: "missing script", mutate: func(c *Config) { c.Refresh.Script = "" }, wantErr: "REFRESH_SCRIPT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
