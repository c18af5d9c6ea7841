package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 180, cfg.Check.TTLDays)
	assert.Equal(t, 480, cfg.Check.DailyCap)
	assert.Equal(t, time.Second, cfg.Check.CallInterval)
	assert.Equal(t, 15*time.Minute, cfg.Check.QuotaCooldown)
	assert.Equal(t, 500, cfg.Check.BacklogWarning)
	assert.Equal(t, 200, cfg.Twitter.PageSize)
	assert.Equal(t, "@daily", cfg.Schedule.Spec)
	assert.True(t, cfg.Export.Auto)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BOTCHECK_CONSUMER_KEY", "ck")
	t.Setenv("BOTCHECK_CONSUMER_SECRET", "cs")
	t.Setenv("BOTCHECK_RAPIDAPI_KEY", "rk")
	t.Setenv("BOTCHECK_TTL_DAYS", "30")
	t.Setenv("BOTCHECK_DAILY_CAP", "100")
	t.Setenv("BOTCHECK_QUOTA_COOLDOWN", "2m")
	t.Setenv("BOTCHECK_DATA_DIR", "/tmp/botcheck")
	t.Setenv("BOTCHECK_NOTIFICATIONS_ENABLED", "false")
	t.Setenv("BOTCHECK_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "ck", cfg.Credentials.ConsumerKey)
	assert.Equal(t, "cs", cfg.Credentials.ConsumerSecret)
	assert.Equal(t, "rk", cfg.Credentials.RapidAPIKey)
	assert.Equal(t, 30, cfg.Check.TTLDays)
	assert.Equal(t, 100, cfg.Check.DailyCap)
	assert.Equal(t, 2*time.Minute, cfg.Check.QuotaCooldown)
	assert.Equal(t, "/tmp/botcheck", cfg.Storage.DataDir)
	assert.False(t, cfg.Notifications.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("BOTCHECK_DAILY_CAP", "lots")
	t.Setenv("BOTCHECK_CALL_INTERVAL", "soon")

	err := DefaultConfig().LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOTCHECK_DAILY_CAP")
	assert.Contains(t, err.Error(), "BOTCHECK_CALL_INTERVAL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		errorContains []string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:          "ttl upper bound",
			mutate:        func(c *Config) { c.Check.TTLDays = 361 },
			errorContains: []string{"TTLDays"},
		},
		{
			name:          "negative cap",
			mutate:        func(c *Config) { c.Check.DailyCap = -1 },
			errorContains: []string{"DailyCap"},
		},
		{
			name: "several problems are joined",
			mutate: func(c *Config) {
				c.Storage.DataDir = ""
				c.Logging.Level = "loud"
				c.Twitter.PageSize = 500
			},
			errorContains: []string{"DataDir", "Level", "PageSize"},
		},
		{
			name:          "unknown notification type",
			mutate:        func(c *Config) { c.Notifications.NotificationType = "pager" },
			errorContains: []string{"NotificationType"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if len(tt.errorContains) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, s := range tt.errorContains {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"ttl-days":      0,
		"daily-cap":     3,
		"data-dir":      "/srv/followers",
		"auto-export":   false,
		"notifications": false,
		"log-level":     "warn",
	})

	assert.Equal(t, 0, cfg.Check.TTLDays)
	assert.Equal(t, 3, cfg.Check.DailyCap)
	assert.Equal(t, "/srv/followers", cfg.Storage.DataDir)
	assert.False(t, cfg.Export.Auto)
	assert.False(t, cfg.Notifications.Enabled)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestSaveAndLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "botcheck.yaml")

	cfg := DefaultConfig()
	cfg.Check.DailyCap = 42
	cfg.Check.CallInterval = 2 * time.Second
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 42, loaded.Check.DailyCap)
	assert.Equal(t, 2*time.Second, loaded.Check.CallInterval)
}

func TestLoadPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "botcheck.yaml")
	content := "check:\n  ttl_days: 90\n  daily_cap: 200\nstorage:\n  data_dir: from-file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	t.Setenv("BOTCHECK_DAILY_CAP", "150")

	cfg, err := Load(path, map[string]interface{}{"data-dir": "from-flag"})
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.Check.TTLDays, "file overrides default")
	assert.Equal(t, 150, cfg.Check.DailyCap, "env overrides file")
	assert.Equal(t, "from-flag", cfg.Storage.DataDir, "flag overrides everything")
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "botcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("check:\n  ttl_days: 999\n"), 0600))

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
