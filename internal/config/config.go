package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/varoOP/anitrack/internal/anidb"
	"github.com/varoOP/anitrack/internal/domain"
	"github.com/varoOP/anitrack/internal/ratelimit"
	"github.com/varoOP/anitrack/internal/titles"
)

const EnvPrefix = "ANITRACK"

// SetDefaults registers every configuration key with its default value and
// binds the environment variables used by earlier deployments
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("discord_webhook_url", "")

	v.SetDefault("http.host", "127.0.0.1")
	v.SetDefault("http.port", 5000)

	v.SetDefault("database.tracker_path", "./tracker.db")
	v.SetDefault("database.titles_path", "./anidb_cache.db")

	v.SetDefault("anidb.api_url", anidb.DefaultAPIURL)
	v.SetDefault("anidb.client", "")
	v.SetDefault("anidb.client_version", "")
	v.SetDefault("anidb.protocol_version", 1)
	v.SetDefault("anidb.min_interval", ratelimit.DefaultInterval)
	v.SetDefault("anidb.cache_max_age", 7*24*time.Hour)
	v.SetDefault("anidb.timeout", 10*time.Second)

	v.SetDefault("images.base_url", anidb.DefaultImageBaseURL)
	v.SetDefault("images.timeout", 20*time.Second)

	v.SetDefault("titles.url", titles.DefaultURL)
	v.SetDefault("titles.cache_dir", "./_cache")
	v.SetDefault("titles.max_age", 24*time.Hour)
	v.SetDefault("titles.attempts", 3)
	v.SetDefault("titles.backoff", 2*time.Second)
	v.SetDefault("titles.timeout", 60*time.Second)
	v.SetDefault("titles.schedule", "04:00")
	v.SetDefault("titles.search_lang", "en")
	v.SetDefault("titles.page_size", 10)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("anidb.client", EnvPrefix+"_ANIDB_CLIENT", "ANIDB_CLIENT")
	v.BindEnv("anidb.client_version", EnvPrefix+"_ANIDB_CLIENT_VERSION", "ANIDB_CLIENT_VERSION")
	v.BindEnv("titles.url", EnvPrefix+"_TITLES_URL", "TITLES_URL")
}

// Load builds the configuration from the global viper instance, which the
// CLI has already pointed at flags, environment and config file
func Load() (*domain.Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom builds and validates the configuration held by v
func LoadFrom(v *viper.Viper) (*domain.Config, error) {
	SetDefaults(v)

	cfg := &domain.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations no component can run with. AniDB client
// credentials are checked at fetch time instead, so title refreshes work
// without them.
func Validate(cfg *domain.Config) error {
	if cfg.HTTP.Port < 1 || cfg.HTTP.Port > 65535 {
		return errors.Errorf("http.port must be between 1 and 65535, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.TrackerPath == "" || cfg.Database.TitlesPath == "" {
		return errors.New("database.tracker_path and database.titles_path are required")
	}
	if cfg.AniDB.APIURL == "" {
		return errors.New("anidb.api_url is required")
	}
	if cfg.Titles.URL == "" {
		return errors.New("titles.url is required")
	}
	if cfg.Titles.CacheDir == "" {
		return errors.New("titles.cache_dir is required")
	}

	durations := map[string]time.Duration{
		"anidb.min_interval":  cfg.AniDB.MinInterval,
		"anidb.cache_max_age": cfg.AniDB.CacheMaxAge,
		"anidb.timeout":       cfg.AniDB.Timeout,
		"images.timeout":      cfg.Images.Timeout,
		"titles.max_age":      cfg.Titles.MaxAge,
		"titles.backoff":      cfg.Titles.Backoff,
		"titles.timeout":      cfg.Titles.Timeout,
	}
	for key, d := range durations {
		if d <= 0 {
			return errors.Errorf("%s must be a positive duration, got %s", key, d)
		}
	}

	if cfg.Titles.Attempts < 1 {
		return errors.Errorf("titles.attempts must be at least 1, got %d", cfg.Titles.Attempts)
	}
	if cfg.Titles.PageSize < 1 {
		return errors.Errorf("titles.page_size must be at least 1, got %d", cfg.Titles.PageSize)
	}
	if _, err := time.Parse("15:04", cfg.Titles.Schedule); err != nil {
		return errors.Errorf("titles.schedule must be HH:MM, got %q", cfg.Titles.Schedule)
	}

	return nil
}
