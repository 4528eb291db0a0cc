package domain

import "time"

type Config struct {
	LogLevel          string         `mapstructure:"log_level"`
	DiscordWebhookURL string         `mapstructure:"discord_webhook_url"`
	HTTP              HTTPConfig     `mapstructure:"http"`
	Database          DatabaseConfig `mapstructure:"database"`
	AniDB             AniDBConfig    `mapstructure:"anidb"`
	Images            ImagesConfig   `mapstructure:"images"`
	Titles            TitlesConfig   `mapstructure:"titles"`
}

type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	TrackerPath string `mapstructure:"tracker_path"`
	TitlesPath  string `mapstructure:"titles_path"`
}

type AniDBConfig struct {
	APIURL          string        `mapstructure:"api_url"`
	Client          string        `mapstructure:"client"`
	ClientVersion   string        `mapstructure:"client_version"`
	ProtocolVersion int           `mapstructure:"protocol_version"`
	MinInterval     time.Duration `mapstructure:"min_interval"`
	CacheMaxAge     time.Duration `mapstructure:"cache_max_age"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type ImagesConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type TitlesConfig struct {
	URL        string        `mapstructure:"url"`
	CacheDir   string        `mapstructure:"cache_dir"`
	MaxAge     time.Duration `mapstructure:"max_age"`
	Attempts   int           `mapstructure:"attempts"`
	Backoff    time.Duration `mapstructure:"backoff"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Schedule   string        `mapstructure:"schedule"`
	SearchLang string        `mapstructure:"search_lang"`
	PageSize   int           `mapstructure:"page_size"`
}
