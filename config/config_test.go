/* config_test.go
 * Contains unit tests for config.go
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, LogConfig{Level: "info", Format: "console"}, cfg.Log)
	assert.Equal(t, MongoConfig{URI: "mongodb://localhost:27017", Database: "bootcamp_grader"}, cfg.Mongo)
	assert.Equal(t, "", cfg.Redis.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Redis.LockTTL)
	assert.Equal(t, "$", cfg.Discord.Prefix)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.BaseURL)
	assert.Equal(t, 4.0, cfg.TMDB.RPS)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 120*time.Second, cfg.Browser.Timeout)
	assert.Equal(t, time.Second, cfg.Browser.SettleDelay)
	assert.Equal(t, StageConfig{PassMark: 6, Concurrency: 50}, cfg.Stage1)
	assert.Equal(t, StageConfig{PassMark: 6, Concurrency: 30}, cfg.Stage2)
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "Production")
	t.Setenv("MONGO_DB", "grader_prod")
	t.Setenv("STAGE2_CONCURRENCY", "8")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("BROWSER_TIMEOUT", "45s")
	t.Setenv("REDIS_LOCK_TTL", "not a duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "grader_prod", cfg.Mongo.Database)
	assert.Equal(t, 8, cfg.Stage2.Concurrency)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 45*time.Second, cfg.Browser.Timeout)
	assert.Equal(t, 2*time.Hour, cfg.Redis.LockTTL)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	// present but empty so the file is what supplies the value, and the test leaves no env behind
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("STAGE1_PASS_MARK", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DISCORD_TOKEN=abc123\nSTAGE1_PASS_MARK=8\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "abc123", cfg.Discord.Token)
	assert.Equal(t, 8, cfg.Stage1.PassMark)
}

func TestFromViper_Validation(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("APP_ENV", "staging")
	v.Set("MONGO_DB", " ")
	v.Set("STAGE1_CONCURRENCY", 0)
	v.Set("TMDB_RPS", -1)

	_, err := fromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_ENV must be development or production")
	assert.Contains(t, err.Error(), "MONGO_DB is required")
	assert.Contains(t, err.Error(), "stage concurrency must be positive")
	assert.Contains(t, err.Error(), "TMDB_RPS must be positive")
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 90*time.Second, parseDuration("1m30s", time.Minute))
}
