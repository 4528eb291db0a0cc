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

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1", cfg.HTTP.Host)
	assert.Equal(t, 5000, cfg.HTTP.Port)
	assert.Equal(t, "./tracker.db", cfg.Database.TrackerPath)
	assert.Equal(t, "./anidb_cache.db", cfg.Database.TitlesPath)
	assert.Equal(t, "http://api.anidb.net:9001/httpapi", cfg.AniDB.APIURL)
	assert.Equal(t, 1, cfg.AniDB.ProtocolVersion)
	assert.Equal(t, 2100*time.Millisecond, cfg.AniDB.MinInterval)
	assert.Equal(t, 168*time.Hour, cfg.AniDB.CacheMaxAge)
	assert.Equal(t, 10*time.Second, cfg.AniDB.Timeout)
	assert.Equal(t, 20*time.Second, cfg.Images.Timeout)
	assert.Equal(t, "http://anidb.net/api/anime-titles.xml.gz", cfg.Titles.URL)
	assert.Equal(t, 24*time.Hour, cfg.Titles.MaxAge)
	assert.Equal(t, 3, cfg.Titles.Attempts)
	assert.Equal(t, 2*time.Second, cfg.Titles.Backoff)
	assert.Equal(t, 60*time.Second, cfg.Titles.Timeout)
	assert.Equal(t, "04:00", cfg.Titles.Schedule)
	assert.Equal(t, "en", cfg.Titles.SearchLang)
	assert.Equal(t, 10, cfg.Titles.PageSize)
	assert.Empty(t, cfg.DiscordWebhookURL)
}

func TestLoadFrom_Env(t *testing.T) {
	t.Setenv("ANITRACK_HTTP_PORT", "8080")
	t.Setenv("ANITRACK_ANIDB_MIN_INTERVAL", "3s")
	t.Setenv("ANITRACK_TITLES_SEARCH_LANG", "x-jat")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 3*time.Second, cfg.AniDB.MinInterval)
	assert.Equal(t, "x-jat", cfg.Titles.SearchLang)
}

func TestLoadFrom_LegacyEnv(t *testing.T) {
	t.Setenv("ANIDB_CLIENT", "myclient")
	t.Setenv("ANIDB_CLIENT_VERSION", "2")
	t.Setenv("TITLES_URL", "http://mirror.example/anime-titles.xml.gz")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "myclient", cfg.AniDB.Client)
	assert.Equal(t, "2", cfg.AniDB.ClientVersion)
	assert.Equal(t, "http://mirror.example/anime-titles.xml.gz", cfg.Titles.URL)
}

func TestLoadFrom_PrefixedEnvWinsOverLegacy(t *testing.T) {
	t.Setenv("ANIDB_CLIENT", "legacy")
	t.Setenv("ANITRACK_ANIDB_CLIENT", "current")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "current", cfg.AniDB.Client)
}

func TestLoadFrom_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
anidb:
  client: fromfile
  cache_max_age: 1h
titles:
  attempts: 5
  page_size: 25
`), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "fromfile", cfg.AniDB.Client)
	assert.Equal(t, time.Hour, cfg.AniDB.CacheMaxAge)
	assert.Equal(t, 5, cfg.Titles.Attempts)
	assert.Equal(t, 25, cfg.Titles.PageSize)
	assert.Equal(t, 2*time.Second, cfg.Titles.Backoff)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		msg  string
	}{
		{name: "attempts", key: "titles.attempts", val: 0, msg: "titles.attempts"},
		{name: "page size", key: "titles.page_size", val: 0, msg: "titles.page_size"},
		{name: "negative interval", key: "anidb.min_interval", val: "-1s", msg: "anidb.min_interval"},
		{name: "schedule", key: "titles.schedule", val: "4am", msg: "titles.schedule"},
		{name: "port", key: "http.port", val: 0, msg: "http.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)

			_, err := LoadFrom(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
